package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaskPrefix replaces the hidden card digits in token names
const MaskPrefix = "XXXXXXXXXXXX"

// PaymentToken is a saved card: the gateway customer id plus a masked label.
// Raw card data is never stored.
type PaymentToken struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AcquirerID  uuid.UUID `json:"acquirer_id" db:"acquirer_id"`
	PartnerID   uuid.UUID `json:"partner_id" db:"partner_id"`
	AcquirerRef string    `json:"acquirer_ref" db:"acquirer_ref"`
	Name        string    `json:"name" db:"name"`
	Verified    bool      `json:"verified" db:"verified"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ShortName is the name with the mask shortened: "***4242 - Johndoe"
func (t *PaymentToken) ShortName() string {
	return strings.Replace(t.Name, MaskPrefix, "***", 1)
}

// Partner is the customer a token belongs to
type Partner struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
}
