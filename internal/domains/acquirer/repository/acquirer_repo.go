package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vnpay-acquirer/internal/domains/acquirer/model"
)

type acquirerRepository struct {
	pool *pgxpool.Pool
}

func NewAcquirerRepository(pool *pgxpool.Pool) AcquirerRepository {
	return &acquirerRepository{pool: pool}
}

const acquirerColumns = `
	id, name, provider, company_name, secret_key, publishable_key,
	image_url, environment, is_active, created_at, updated_at
`

func scanAcquirer(row pgx.Row) (*model.Acquirer, error) {
	a := &model.Acquirer{}
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Provider,
		&a.CompanyName,
		&a.SecretKey,
		&a.PublishableKey,
		&a.ImageURL,
		&a.Environment,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *acquirerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Acquirer, error) {
	query := `SELECT ` + acquirerColumns + ` FROM acquirers WHERE id = $1`

	a, err := scanAcquirer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAcquirerNotFound
		}
		return nil, fmt.Errorf("failed to get acquirer: %w", err)
	}

	return a, nil
}

func (r *acquirerRepository) GetByProvider(ctx context.Context, provider string) (*model.Acquirer, error) {
	query := `
		SELECT ` + acquirerColumns + `
		FROM acquirers
		WHERE provider = $1 AND is_active = true
		ORDER BY created_at ASC
		LIMIT 1
	`

	a, err := scanAcquirer(r.pool.QueryRow(ctx, query, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAcquirerNotFound
		}
		return nil, fmt.Errorf("failed to get acquirer by provider: %w", err)
	}

	return a, nil
}

func (r *acquirerRepository) UpdateCredentials(
	ctx context.Context,
	id uuid.UUID,
	secretKey, publishableKey string,
	imageURL *string,
) error {
	query := `
		UPDATE acquirers
		SET secret_key = $2,
			publishable_key = $3,
			image_url = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, secretKey, publishableKey, imageURL)
	if err != nil {
		return fmt.Errorf("failed to update acquirer credentials: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrAcquirerNotFound
	}

	return nil
}
