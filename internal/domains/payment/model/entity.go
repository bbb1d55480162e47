package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PAYMENT TRANSACTION
// =====================================================

// Transaction is one payment attempt with the acquirer, looked up by its
// unique reference when the gateway answers
type Transaction struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Reference         string          `json:"reference" db:"reference"`
	AcquirerID        uuid.UUID       `json:"acquirer_id" db:"acquirer_id"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Currency          string          `json:"currency" db:"currency"`
	State             string          `json:"state" db:"state"`
	Type              string          `json:"type" db:"type"`
	AcquirerReference string          `json:"acquirer_reference,omitempty" db:"acquirer_reference"`
	StateMessage      string          `json:"state_message,omitempty" db:"state_message"`
	Date              *time.Time      `json:"date,omitempty" db:"date"`

	PartnerID    *uuid.UUID `json:"partner_id,omitempty" db:"partner_id"`
	PartnerEmail string     `json:"partner_email,omitempty" db:"partner_email"`
	PartnerName  string     `json:"partner_name,omitempty" db:"partner_name"`

	PaymentTokenID *uuid.UUID `json:"payment_token_id,omitempty" db:"payment_token_id"`

	// RefundOf points refund transactions at the charge they refund
	RefundOf *uuid.UUID `json:"refund_of,omitempty" db:"refund_of"`

	CallbackURL  string `json:"callback_url,omitempty" db:"callback_url"`
	CallbackDone bool   `json:"callback_done" db:"callback_done"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (t *Transaction) IsDraft() bool {
	return t.State == TxStateDraft
}

func (t *Transaction) IsDone() bool {
	return t.State == TxStateDone
}

func (t *Transaction) HasCallback() bool {
	return t.CallbackURL != "" && !t.CallbackDone
}

// =====================================================
// FEEDBACK LOG
// =====================================================

// FeedbackLog records every gateway answer before it is processed
type FeedbackLog struct {
	ID              uuid.UUID              `json:"id" db:"id"`
	TransactionID   *uuid.UUID             `json:"transaction_id,omitempty" db:"transaction_id"`
	Reference       string                 `json:"reference,omitempty" db:"reference"`
	Body            map[string]interface{} `json:"body" db:"body"`
	IsProcessed     bool                   `json:"is_processed" db:"is_processed"`
	ProcessingError *string                `json:"processing_error,omitempty" db:"processing_error"`
	Attempts        int                    `json:"attempts" db:"attempts"`
	ReceivedAt      time.Time              `json:"received_at" db:"received_at"`
	ProcessedAt     *time.Time             `json:"processed_at,omitempty" db:"processed_at"`
}

// CanRetry reports whether the retry job may replay this log at now
func (l *FeedbackLog) CanRetry(now time.Time) bool {
	return !l.IsProcessed &&
		l.Attempts < MaxFeedbackAttempts &&
		now.Sub(l.ReceivedAt) <= FeedbackRetryWindow
}

// =====================================================
// INVALID PARAMETER
// =====================================================

// InvalidParameter is a feedback field that does not match the transaction
type InvalidParameter struct {
	Name     string `json:"name"`
	Received string `json:"received"`
	Expected string `json:"expected"`
}
