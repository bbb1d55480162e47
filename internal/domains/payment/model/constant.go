package model

import "time"

// =====================================================
// TRANSACTION STATES
// =====================================================
// draft -> done | cancel, one way only
const (
	TxStateDraft  = "draft"
	TxStateDone   = "done"
	TxStateCancel = "cancel"
)

// =====================================================
// TRANSACTION TYPES
// =====================================================
const (
	TxTypeForm          = "form"
	TxTypeServer2Server = "server2server"
	TxTypeFormSave      = "form_save"
	TxTypeRefund        = "refund"
)

// =====================================================
// FEEDBACK RETRY
// =====================================================
const (
	MaxFeedbackAttempts = 5
	FeedbackRetryWindow = 24 * time.Hour

	DefaultReturnURL = "/"
)

// =====================================================
// ERROR CODES
// =====================================================
const (
	ErrCodeTransactionNotFound   = "PAY001"
	ErrCodeNoReference           = "PAY002"
	ErrCodeReferenceNotFound     = "PAY003"
	ErrCodeMultipleTransactions  = "PAY004"
	ErrCodeInvalidParameters     = "PAY005"
	ErrCodeTransactionNotDraft   = "PAY006"
	ErrCodeRefundNotAllowed      = "PAY007"
	ErrCodeMissingPaymentToken   = "PAY008"
	ErrCodeInvalidInput          = "PAY009"
	ErrCodeGatewayFailure        = "PAY010"
	ErrCodeDuplicateReference    = "PAY011"
	ErrCodeFeedbackLogNotFound   = "PAY012"
	ErrCodeAcquirerNotConfigured = "PAY013"
	ErrCodeInvalidSignature      = "PAY014"
)
