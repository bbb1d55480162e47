package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vnpay-acquirer/internal/domains/payment/model"
	"vnpay-acquirer/pkg/database"
)

// =====================================================
// TRANSACTION REPOSITORY IMPLEMENTATION
// =====================================================
type transactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool}
}

const transactionColumns = `
	id, reference, acquirer_id, amount, currency, state, type,
	COALESCE(acquirer_reference, ''), COALESCE(state_message, ''), date,
	partner_id, COALESCE(partner_email, ''), COALESCE(partner_name, ''),
	payment_token_id, refund_of, COALESCE(callback_url, ''), callback_done,
	created_at, updated_at
`

// activeRefundIndex allows one draft or done refund per charge
const activeRefundIndex = "uq_payment_transactions_active_refund"

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := row.Scan(
		&t.ID,
		&t.Reference,
		&t.AcquirerID,
		&t.Amount,
		&t.Currency,
		&t.State,
		&t.Type,
		&t.AcquirerReference,
		&t.StateMessage,
		&t.Date,
		&t.PartnerID,
		&t.PartnerEmail,
		&t.PartnerName,
		&t.PaymentTokenID,
		&t.RefundOf,
		&t.CallbackURL,
		&t.CallbackDone,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// =====================================================
// CREATE & READ
// =====================================================

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	query := `
		INSERT INTO payment_transactions (
			id, reference, acquirer_id, amount, currency, state, type,
			acquirer_reference, partner_id, partner_email, partner_name,
			payment_token_id, refund_of, callback_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			NULLIF($8, ''), $9, NULLIF($10, ''), NULLIF($11, ''),
			$12, $13, NULLIF($14, '')
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		tx.ID,
		tx.Reference,
		tx.AcquirerID,
		tx.Amount,
		tx.Currency,
		tx.State,
		tx.Type,
		tx.AcquirerReference,
		tx.PartnerID,
		tx.PartnerEmail,
		tx.PartnerName,
		tx.PaymentTokenID,
		tx.RefundOf,
		tx.CallbackURL,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == activeRefundIndex {
				return model.ErrRefundNotAllowed
			}
			return model.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}

	return t, nil
}

func (r *transactionRepository) FindByReference(ctx context.Context, reference string) ([]*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE reference = $1`
	return r.list(ctx, query, reference)
}

func (r *transactionRepository) FindRefunds(ctx context.Context, originalID uuid.UUID) ([]*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE refund_of = $1 ORDER BY created_at`
	return r.list(ctx, query, originalID)
}

func (r *transactionRepository) ListPendingCallbacks(ctx context.Context, limit int) ([]*model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE state = $1 AND callback_url IS NOT NULL AND NOT callback_done
		ORDER BY date
		LIMIT $2
	`
	return r.list(ctx, query, model.TxStateDone, limit)
}

func (r *transactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

// =====================================================
// STATE TRANSITIONS
// =====================================================
// Every transition is guarded by state = 'draft' so concurrent feedback
// for the same transaction changes it at most once.

func (r *transactionRepository) MarkDone(
	ctx context.Context,
	id uuid.UUID,
	acquirerReference string,
	date time.Time,
) (bool, error) {
	return database.WithTransactionResult(ctx, r.pool, func(dbtx pgx.Tx) (bool, error) {
		query := `
			UPDATE payment_transactions
			SET state = $2,
				acquirer_reference = NULLIF($3, ''),
				date = $4,
				updated_at = NOW()
			WHERE id = $1 AND state = $5
			RETURNING payment_token_id
		`

		var tokenID *uuid.UUID
		err := dbtx.QueryRow(ctx, query, id, model.TxStateDone, acquirerReference, date, model.TxStateDraft).
			Scan(&tokenID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, fmt.Errorf("failed to mark transaction done: %w", err)
		}

		if tokenID != nil {
			_, err = dbtx.Exec(ctx,
				`UPDATE payment_tokens SET verified = true, updated_at = NOW() WHERE id = $1`,
				*tokenID,
			)
			if err != nil {
				return false, fmt.Errorf("failed to verify payment token: %w", err)
			}
		}

		return true, nil
	})
}

func (r *transactionRepository) MarkCancelled(
	ctx context.Context,
	id uuid.UUID,
	acquirerReference, stateMessage string,
	date time.Time,
) (bool, error) {
	query := `
		UPDATE payment_transactions
		SET state = $2,
			acquirer_reference = NULLIF($3, ''),
			state_message = $4,
			date = $5,
			updated_at = NOW()
		WHERE id = $1 AND state = $6
	`

	result, err := r.pool.Exec(ctx, query, id, model.TxStateCancel, acquirerReference, stateMessage, date, model.TxStateDraft)
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction cancelled: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *transactionRepository) MarkCallbackDone(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE payment_transactions
		SET callback_done = true, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark callback done: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}

	return nil
}
