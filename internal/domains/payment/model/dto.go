package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE TRANSACTION
// =====================================================

type CreateTransactionRequest struct {
	AcquirerID     uuid.UUID       `json:"acquirer_id"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Type           string          `json:"type"`
	PartnerID      *uuid.UUID      `json:"partner_id"`
	PartnerEmail   string          `json:"partner_email"`
	PartnerName    string          `json:"partner_name"`
	PaymentTokenID *uuid.UUID      `json:"payment_token_id"`
	CallbackURL    string          `json:"callback_url"`
}

func (r CreateTransactionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AcquirerID, validation.NotIn(uuid.Nil).Error("acquirer_id is required")),
		validation.Field(&r.Reference, validation.Length(0, 64)),
		validation.Field(&r.Amount, validation.By(positiveAmount)),
		validation.Field(&r.Currency,
			validation.Required.Error("currency is required"),
			validation.Length(3, 3).Error("currency must be an ISO 4217 code"),
		),
		validation.Field(&r.Type,
			validation.In(TxTypeForm, TxTypeServer2Server, TxTypeFormSave).Error("type must be form, server2server or form_save"),
		),
		validation.Field(&r.PartnerEmail, validation.When(r.PartnerEmail != "", is.EmailFormat)),
		validation.Field(&r.CallbackURL, validation.When(r.CallbackURL != "", is.URL)),
	)
}

// =====================================================
// CHECKOUT CHARGE
// =====================================================

// CreateChargeRequest is posted by the checkout once the card is tokenized
type CreateChargeRequest struct {
	TokenID   string `json:"tokenid" form:"tokenid"`
	Email     string `json:"email" form:"email"`
	TxRef     string `json:"tx_ref" form:"tx_ref"`
	ReturnURL string `json:"return_url" form:"return_url"`
}

func (r CreateChargeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TokenID, validation.Required.Error("tokenid is required")),
		validation.Field(&r.TxRef, validation.Required.Error("tx_ref is required")),
	)
}

type CreateChargeResponse struct {
	RedirectURL   string    `json:"redirect_url"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Validated     bool      `json:"validated"`
}

// =====================================================
// FEEDBACK
// =====================================================

type FeedbackResponse struct {
	Validated bool   `json:"validated"`
	Reference string `json:"reference"`
}

// =====================================================
// TRANSACTION RESPONSE
// =====================================================

type TransactionResponse struct {
	ID                uuid.UUID       `json:"id"`
	Reference         string          `json:"reference"`
	AcquirerID        uuid.UUID       `json:"acquirer_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	State             string          `json:"state"`
	Type              string          `json:"type"`
	AcquirerReference string          `json:"acquirer_reference,omitempty"`
	StateMessage      string          `json:"state_message,omitempty"`
	Date              *time.Time      `json:"date,omitempty"`
	PartnerID         *uuid.UUID      `json:"partner_id,omitempty"`
	PaymentTokenID    *uuid.UUID      `json:"payment_token_id,omitempty"`
	RefundOf          *uuid.UUID      `json:"refund_of,omitempty"`
	CallbackDone      bool            `json:"callback_done"`
	CreatedAt         time.Time       `json:"created_at"`
}

func ToTransactionResponse(t *Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:                t.ID,
		Reference:         t.Reference,
		AcquirerID:        t.AcquirerID,
		Amount:            t.Amount,
		Currency:          t.Currency,
		State:             t.State,
		Type:              t.Type,
		AcquirerReference: t.AcquirerReference,
		StateMessage:      t.StateMessage,
		Date:              t.Date,
		PartnerID:         t.PartnerID,
		PaymentTokenID:    t.PaymentTokenID,
		RefundOf:          t.RefundOf,
		CallbackDone:      t.CallbackDone,
		CreatedAt:         t.CreatedAt,
	}
}

// =====================================================
// CALLBACK
// =====================================================

// CallbackPayload is posted to the transaction callback_url once done
type CallbackPayload struct {
	Reference         string `json:"reference"`
	State             string `json:"state"`
	AcquirerReference string `json:"acquirer_reference"`
}

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("invalid amount")
	}
	if !amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}
