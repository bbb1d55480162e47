package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vnpay-acquirer/internal/domains/payment/gateway"
)

// =====================================================
// CHECKOUT FORM VALUES
// =====================================================

// TxValues are the transaction values a checkout form is rendered from
type TxValues struct {
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ReturnURL      string          `json:"return_url,omitempty"`
	PartnerName    string          `json:"partner_name,omitempty"`
	PartnerEmail   string          `json:"partner_email,omitempty"`
	PartnerPhone   string          `json:"partner_phone,omitempty"`
	PartnerAddress string          `json:"partner_address,omitempty"`
	PartnerCity    string          `json:"partner_city,omitempty"`
	PartnerZip     string          `json:"partner_zip,omitempty"`
	PartnerCountry string          `json:"partner_country,omitempty"`
}

func (v TxValues) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Reference, validation.Required.Error("reference is required")),
		validation.Field(&v.Amount, validation.By(positiveAmount)),
		validation.Field(&v.Currency,
			validation.Required.Error("currency is required"),
			validation.Length(3, 3).Error("currency must be an ISO 4217 code"),
		),
		validation.Field(&v.PartnerEmail, validation.When(v.PartnerEmail != "", is.EmailFormat)),
	)
}

// FormValues is TxValues enriched with the fields the checkout needs.
// Partner fields are optional and default to "".
type FormValues struct {
	TxValues

	AcquirerID     uuid.UUID `json:"acquirer_id"`
	Company        string    `json:"company"`
	CurrencyID     string    `json:"currency_id"`
	AddressLine1   string    `json:"address_line1"`
	AddressCity    string    `json:"address_city"`
	AddressCountry string    `json:"address_country"`
	Email          string    `json:"email"`
	AddressZip     string    `json:"address_zip"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	PublishableKey string    `json:"publishable_key"`
	ImageURL       string    `json:"image_url,omitempty"`
}

// =====================================================
// SERVER TO SERVER CARD FORM
// =====================================================

// S2SFormData is the form posted for server to server tokenization: either
// the raw card fields or a token the checkout already obtained.
// AcquirerID defaults to the active vnpay acquirer.
type S2SFormData struct {
	AcquirerID   uuid.UUID       `json:"acquirer_id"`
	PartnerID    uuid.UUID       `json:"partner_id"`
	CCNumber     string          `json:"cc_number"`
	CVC          string          `json:"cvc"`
	CCHolderName string          `json:"cc_holder_name"`
	CCExpiry     string          `json:"cc_expiry"`
	CCBrand      string          `json:"cc_brand"`
	VnpayToken   *gateway.Object `json:"vnpay_token,omitempty"`
}

// HasVnpayToken reports whether a checkout token replaces the card fields
func (d S2SFormData) HasVnpayToken() bool {
	return d.VnpayToken != nil && d.VnpayToken.ID != ""
}

// ValidateCardFields checks the mandatory card fields only
func (d S2SFormData) ValidateCardFields() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.CCNumber, validation.Required),
		validation.Field(&d.CVC, validation.Required),
		validation.Field(&d.CCHolderName, validation.Required),
		validation.Field(&d.CCExpiry, validation.Required),
		validation.Field(&d.CCBrand, validation.Required),
	)
}

// =====================================================
// ADMIN
// =====================================================

type UpdateCredentialsRequest struct {
	SecretKey      string  `json:"secret_key"`
	PublishableKey string  `json:"publishable_key"`
	ImageURL       *string `json:"image_url"`
}

func (r UpdateCredentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SecretKey,
			validation.Required.Error("secret_key is required"),
			validation.Length(8, 255),
		),
		validation.Field(&r.PublishableKey,
			validation.Required.Error("publishable_key is required"),
			validation.Length(8, 255),
		),
		validation.Field(&r.ImageURL, validation.NilOrNotEmpty, validation.Length(1, 2048)),
	)
}

type AcquirerResponse struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	Provider       string              `json:"provider"`
	CompanyName    string              `json:"company_name"`
	PublishableKey string              `json:"publishable_key"`
	ImageURL       *string             `json:"image_url,omitempty"`
	Environment    string              `json:"environment"`
	IsActive       bool                `json:"is_active"`
	HasSecretKey   bool                `json:"has_secret_key"`
	APIURL         string              `json:"api_url"`
	Features       map[string][]string `json:"features"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("invalid amount")
	}
	if !amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}
