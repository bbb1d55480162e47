package service

import (
	"context"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/token/model"
)

// TokenService saves cards as gateway customers
type TokenService interface {
	// Create tokenizes a card (or uses a checkout token) and stores the
	// resulting gateway customer as a payment token
	Create(ctx context.Context, req *model.CreateTokenRequest) (*model.PaymentToken, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error)

	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*model.PaymentToken, error)
}
