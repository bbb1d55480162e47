package repository

import (
	"context"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/token/model"
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.PaymentToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*model.PaymentToken, error)
}

type PartnerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
}
