package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vnpay-acquirer/internal/domains/payment/model"
)

// =====================================================
// FEEDBACK LOG REPOSITORY IMPLEMENTATION
// =====================================================
type feedbackLogRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackLogRepository(pool *pgxpool.Pool) FeedbackLogRepository {
	return &feedbackLogRepository{pool: pool}
}

const feedbackLogColumns = `
	id, transaction_id, COALESCE(reference, ''), body, is_processed,
	processing_error, attempts, received_at, processed_at
`

func scanFeedbackLog(row pgx.Row) (*model.FeedbackLog, error) {
	l := &model.FeedbackLog{}
	var body []byte
	err := row.Scan(
		&l.ID,
		&l.TransactionID,
		&l.Reference,
		&body,
		&l.IsProcessed,
		&l.ProcessingError,
		&l.Attempts,
		&l.ReceivedAt,
		&l.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &l.Body); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback body: %w", err)
		}
	}

	return l, nil
}

// =====================================================
// CREATE & READ
// =====================================================

// Create stores the raw feedback before it is processed
func (r *feedbackLogRepository) Create(ctx context.Context, log *model.FeedbackLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.ReceivedAt.IsZero() {
		log.ReceivedAt = time.Now()
	}

	bodyJSON, err := json.Marshal(log.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	query := `
		INSERT INTO payment_feedback_logs (
			id, transaction_id, reference, body, is_processed, attempts, received_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		log.ID,
		log.TransactionID,
		log.Reference,
		bodyJSON,
		log.IsProcessed,
		log.Attempts,
		log.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback log: %w", err)
	}

	return nil
}

func (r *feedbackLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.FeedbackLog, error) {
	query := `SELECT ` + feedbackLogColumns + ` FROM payment_feedback_logs WHERE id = $1`

	l, err := scanFeedbackLog(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrFeedbackLogNotFound
		}
		return nil, fmt.Errorf("failed to get feedback log: %w", err)
	}

	return l, nil
}

// =====================================================
// STATUS UPDATE METHODS
// =====================================================

func (r *feedbackLogRepository) MarkProcessed(ctx context.Context, id uuid.UUID, transactionID *uuid.UUID) error {
	query := `
		UPDATE payment_feedback_logs
		SET is_processed = true,
			processing_error = NULL,
			transaction_id = COALESCE($2, transaction_id),
			attempts = attempts + 1,
			processed_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, transactionID)
	if err != nil {
		return fmt.Errorf("failed to mark feedback log as processed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrFeedbackLogNotFound
	}

	return nil
}

func (r *feedbackLogRepository) MarkProcessingError(
	ctx context.Context,
	id uuid.UUID,
	transactionID *uuid.UUID,
	errorMsg string,
) error {
	query := `
		UPDATE payment_feedback_logs
		SET processing_error = $2,
			transaction_id = COALESCE($3, transaction_id),
			attempts = attempts + 1
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, errorMsg, transactionID)
	if err != nil {
		return fmt.Errorf("failed to mark feedback processing error: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrFeedbackLogNotFound
	}

	return nil
}

// =====================================================
// RETRY & ADMIN QUERIES
// =====================================================

func (r *feedbackLogRepository) GetRetryable(
	ctx context.Context,
	since time.Time,
	maxAttempts, limit int,
) ([]*model.FeedbackLog, error) {
	query := `
		SELECT ` + feedbackLogColumns + `
		FROM payment_feedback_logs
		WHERE is_processed = false
			AND attempts < $1
			AND received_at >= $2
		ORDER BY received_at ASC
		LIMIT $3
	`

	return r.list(ctx, query, maxAttempts, since, limit)
}

func (r *feedbackLogRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.FeedbackLog, error) {
	query := `
		SELECT ` + feedbackLogColumns + `
		FROM payment_feedback_logs
		WHERE transaction_id = $1
		ORDER BY received_at DESC
	`

	return r.list(ctx, query, transactionID)
}

func (r *feedbackLogRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.FeedbackLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.FeedbackLog
	for rows.Next() {
		l, err := scanFeedbackLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
