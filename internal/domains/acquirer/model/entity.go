package model

import (
	"time"

	"github.com/google/uuid"
)

// Acquirer is the configuration of one card gateway integration.
// SecretKey never leaves the service (json:"-").
type Acquirer struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Provider       string    `json:"provider" db:"provider"`
	CompanyName    string    `json:"company_name" db:"company_name"`
	SecretKey      string    `json:"-" db:"secret_key"`
	PublishableKey string    `json:"publishable_key" db:"publishable_key"`
	ImageURL       *string   `json:"image_url,omitempty" db:"image_url"`
	Environment    string    `json:"environment" db:"environment"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (a *Acquirer) IsVnpay() bool {
	return a.Provider == ProviderVnpay
}

// HasCredentials reports whether both keys required by the provider are set
func (a *Acquirer) HasCredentials() bool {
	return a.SecretKey != "" && a.PublishableKey != ""
}
