package service

import (
	"context"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/internal/domains/payment/model"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type PaymentService interface {
	// ============================================
	// TRANSACTIONS
	// ============================================

	// CreateTransaction creates a draft transaction
	CreateTransaction(ctx context.Context, req model.CreateTransactionRequest) (*model.Transaction, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)

	// ListFeedback lists the feedback logs resolved to a transaction
	ListFeedback(ctx context.Context, transactionID uuid.UUID) ([]*model.FeedbackLog, error)

	// ============================================
	// SERVER TO SERVER
	// ============================================

	// DoTransaction charges the saved card of a draft transaction
	DoTransaction(ctx context.Context, transactionID uuid.UUID) (*model.Transaction, bool, error)

	// DoRefund refunds a done transaction; the refund is its own transaction
	DoRefund(ctx context.Context, transactionID uuid.UUID) (*model.Transaction, bool, error)

	// CreateCharge charges a checkout token for the transaction tx_ref
	CreateCharge(ctx context.Context, req model.CreateChargeRequest) (*model.CreateChargeResponse, error)

	// ============================================
	// FEEDBACK
	// ============================================

	// ReceiveFeedback verifies the signature of a raw feedback body posted
	// to the public endpoint, then runs HandleFeedback on it
	ReceiveFeedback(ctx context.Context, body []byte, signature string) (*gateway.Object, bool, error)

	// HandleFeedback records a trusted gateway answer, then runs FormFeedback on it
	HandleFeedback(ctx context.Context, data *gateway.Object) (bool, error)

	// FormFeedback finds the transaction, checks the feedback and validates it
	FormFeedback(ctx context.Context, data *gateway.Object) (bool, error)

	GetTxFromData(ctx context.Context, data *gateway.Object) (*model.Transaction, error)

	GetInvalidParameters(tx *model.Transaction, data *gateway.Object) []model.InvalidParameter

	// ValidateTree applies a gateway answer to a draft transaction.
	// Returns true when the transaction is (or already was) validated.
	ValidateTree(ctx context.Context, tx *model.Transaction, tree *gateway.Object) (bool, error)

	// RetryFailedFeedback replays unprocessed feedback logs, returns how
	// many were processed
	RetryFailedFeedback(ctx context.Context, limit int) (int, error)

	// ============================================
	// CALLBACK
	// ============================================

	// ExecuteCallback notifies the callback_url of a done transaction once
	ExecuteCallback(ctx context.Context, transactionID uuid.UUID) error

	// RetryPendingCallbacks queues again the callbacks of done transactions
	// not notified yet, returns how many were queued
	RetryPendingCallbacks(ctx context.Context, limit int) (int, error)
}

// CallbackScheduler queues the callback of a transaction that became done
type CallbackScheduler interface {
	ScheduleCallback(ctx context.Context, tx *model.Transaction) error
}

// CallbackSender delivers a callback payload
type CallbackSender interface {
	Send(ctx context.Context, url string, payload model.CallbackPayload) error
}
