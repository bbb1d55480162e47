package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/payment/model"
)

// =====================================================
// TRANSACTION REPOSITORY INTERFACE
// =====================================================
type TransactionRepository interface {
	// Create inserts a draft transaction; a reused reference gives
	// ErrDuplicateReference, a second active refund of a charge ErrRefundNotAllowed
	Create(ctx context.Context, tx *model.Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)

	// FindByReference returns every transaction with this reference
	FindByReference(ctx context.Context, reference string) ([]*model.Transaction, error)

	// FindRefunds returns the refund transactions of a charge, oldest first
	FindRefunds(ctx context.Context, originalID uuid.UUID) ([]*model.Transaction, error)

	// ListPendingCallbacks lists done transactions whose callback_url was
	// not notified yet
	ListPendingCallbacks(ctx context.Context, limit int) ([]*model.Transaction, error)

	// MarkDone moves a draft transaction to done and flags its payment token
	// verified, in one database transaction. Returns false when the
	// transaction was no longer draft.
	MarkDone(ctx context.Context, id uuid.UUID, acquirerReference string, date time.Time) (bool, error)

	// MarkCancelled moves a draft transaction to cancel.
	// Returns false when the transaction was no longer draft.
	MarkCancelled(ctx context.Context, id uuid.UUID, acquirerReference, stateMessage string, date time.Time) (bool, error)

	MarkCallbackDone(ctx context.Context, id uuid.UUID) error
}

// =====================================================
// FEEDBACK LOG REPOSITORY INTERFACE
// =====================================================
type FeedbackLogRepository interface {
	// Create is called as soon as a feedback is received, before processing
	Create(ctx context.Context, log *model.FeedbackLog) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.FeedbackLog, error)

	// MarkProcessed counts the attempt and flags the log processed
	MarkProcessed(ctx context.Context, id uuid.UUID, transactionID *uuid.UUID) error

	// MarkProcessingError counts the attempt and stores the error
	MarkProcessingError(ctx context.Context, id uuid.UUID, transactionID *uuid.UUID, errorMsg string) error

	// GetRetryable lists unprocessed logs received after since with fewer
	// than maxAttempts attempts, oldest first
	GetRetryable(ctx context.Context, since time.Time, maxAttempts, limit int) ([]*model.FeedbackLog, error)

	ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.FeedbackLog, error)
}
