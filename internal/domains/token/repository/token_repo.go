package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vnpay-acquirer/internal/domains/token/model"
)

type tokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

// Create inserts a token; ID and timestamps are filled in
func (r *tokenRepository) Create(ctx context.Context, token *model.PaymentToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `
		INSERT INTO payment_tokens (
			id, acquirer_id, partner_id, acquirer_ref, name, verified, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		token.ID,
		token.AcquirerID,
		token.PartnerID,
		token.AcquirerRef,
		token.Name,
		token.Verified,
		token.Active,
	).Scan(&token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment token: %w", err)
	}

	return nil
}

func (r *tokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentToken, error) {
	query := `
		SELECT id, acquirer_id, partner_id, acquirer_ref, name, verified, active, created_at, updated_at
		FROM payment_tokens
		WHERE id = $1
	`

	t := &model.PaymentToken{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.AcquirerID,
		&t.PartnerID,
		&t.AcquirerRef,
		&t.Name,
		&t.Verified,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get payment token: %w", err)
	}

	return t, nil
}

func (r *tokenRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*model.PaymentToken, error) {
	query := `
		SELECT id, acquirer_id, partner_id, acquirer_ref, name, verified, active, created_at, updated_at
		FROM payment_tokens
		WHERE partner_id = $1 AND active = true
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.PaymentToken
	for rows.Next() {
		t := &model.PaymentToken{}
		if err := rows.Scan(
			&t.ID,
			&t.AcquirerID,
			&t.PartnerID,
			&t.AcquirerRef,
			&t.Name,
			&t.Verified,
			&t.Active,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment token: %w", err)
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}
