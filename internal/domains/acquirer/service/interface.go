package service

import (
	"context"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/acquirer/model"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
)

// AcquirerService exposes the vnpay acquirer configuration and its
// checkout helpers
type AcquirerService interface {
	GetAcquirer(ctx context.Context, id uuid.UUID) (*model.Acquirer, error)

	// GetActiveAcquirer returns the active vnpay acquirer with credentials
	GetActiveAcquirer(ctx context.Context) (*model.Acquirer, error)

	GetAcquirerResponse(ctx context.Context, id uuid.UUID) (*model.AcquirerResponse, error)

	UpdateCredentials(ctx context.Context, id uuid.UUID, req model.UpdateCredentialsRequest) (*model.AcquirerResponse, error)

	// FormGenerateValues builds the values a checkout form is rendered from;
	// uuid.Nil selects the active vnpay acquirer
	FormGenerateValues(ctx context.Context, acquirerID uuid.UUID, values model.TxValues) (*model.FormValues, error)

	// S2SFormValidate reports whether a checkout token or every mandatory
	// card field is present
	S2SFormValidate(data model.S2SFormData) bool

	// S2SFormProcess saves the card or checkout token as a payment token
	S2SFormProcess(ctx context.Context, data model.S2SFormData) (*tokenModel.PaymentToken, error)

	FeatureSupport() map[string][]string

	APIURL() string
}
