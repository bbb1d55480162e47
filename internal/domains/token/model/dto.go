package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/payment/gateway"
)

// CreateTokenRequest carries either raw card data (CCNumber set) or a token
// already obtained by the checkout (VnpayToken). Card fields are dropped
// once the gateway customer exists.
type CreateTokenRequest struct {
	AcquirerID   uuid.UUID       `json:"acquirer_id"`
	PartnerID    uuid.UUID       `json:"partner_id"`
	CCNumber     string          `json:"cc_number,omitempty"`
	CVC          string          `json:"cvc,omitempty"`
	CCHolderName string          `json:"cc_holder_name,omitempty"`
	CCExpiry     string          `json:"cc_expiry,omitempty"`
	CCBrand      string          `json:"cc_brand,omitempty"`
	VnpayToken   *gateway.Object `json:"vnpay_token,omitempty"`
}

func (r CreateTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AcquirerID, validation.NotIn(uuid.Nil).Error("acquirer_id is required")),
		validation.Field(&r.PartnerID, validation.NotIn(uuid.Nil).Error("partner_id is required")),
		validation.Field(&r.CCExpiry,
			validation.When(r.CCNumber != "", validation.Required, validation.Length(4, 9)),
		),
	)
}

// HasCardData reports whether the request goes through the gateway token path
func (r *CreateTokenRequest) HasCardData() bool {
	return r.CCNumber != ""
}

// Scrub drops every raw card field
func (r *CreateTokenRequest) Scrub() {
	r.CCNumber = ""
	r.CVC = ""
	r.CCHolderName = ""
	r.CCExpiry = ""
	r.CCBrand = ""
	r.VnpayToken = nil
}

// TokenResponse is returned by the server to server tokenization endpoint
type TokenResponse struct {
	Result    bool      `json:"result"`
	ID        uuid.UUID `json:"id"`
	ShortName string    `json:"short_name"`
	Secure3D  bool      `json:"3d_secure"`
	Verified  bool      `json:"verified"`
}

func ToTokenResponse(t *PaymentToken) *TokenResponse {
	return &TokenResponse{
		Result:    true,
		ID:        t.ID,
		ShortName: t.ShortName(),
		Verified:  t.Verified,
	}
}
