package repository

import (
	"context"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/acquirer/model"
)

// AcquirerRepository reads and updates acquirer configuration
type AcquirerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Acquirer, error)

	// GetByProvider returns the active acquirer for a provider (e.g. "vnpay")
	GetByProvider(ctx context.Context, provider string) (*model.Acquirer, error)

	UpdateCredentials(ctx context.Context, id uuid.UUID, secretKey, publishableKey string, imageURL *string) error
}
