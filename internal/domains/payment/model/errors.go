package model

import (
	"errors"
	"fmt"
	"net/http"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrTransactionNotFound   = errors.New("payment transaction not found")
	ErrNoReference           = errors.New("feedback carries no reference")
	ErrReferenceNotFound     = errors.New("no transaction for reference")
	ErrMultipleTransactions  = errors.New("several transactions for reference")
	ErrInvalidParameters     = errors.New("feedback does not match transaction")
	ErrTransactionNotDraft   = errors.New("transaction is not in draft state")
	ErrRefundNotAllowed      = errors.New("refund not allowed")
	ErrMissingPaymentToken   = errors.New("transaction has no payment token")
	ErrInvalidInput          = errors.New("invalid input")
	ErrGatewayFailure        = errors.New("gateway call failed")
	ErrDuplicateReference    = errors.New("reference already used")
	ErrFeedbackLogNotFound   = errors.New("feedback log not found")
	ErrAcquirerNotConfigured = errors.New("acquirer not configured")
	ErrInvalidSignature      = errors.New("invalid feedback signature")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// FEEDBACK VALIDATION ERRORS
// =====================================================
// Messages are shown to the customer as is

// NewNoReferenceError is raised when the gateway answer has no
// metadata.reference; gatewayMessage is its error.message, if any
func NewNoReferenceError(gatewayMessage string) *PaymentError {
	msg := "We're sorry to report that the transaction has failed."
	if gatewayMessage != "" {
		msg += " " + fmt.Sprintf("Vnpay gave us the following info about the problem: '%s'", gatewayMessage)
	}
	msg += " " + "Perhaps the problem can be solved by double-checking your credit card details, or contacting your bank?"

	return NewPaymentError(ErrCodeNoReference, msg, ErrNoReference)
}

func NewReferenceNotFoundError(reference string) *PaymentError {
	return NewPaymentError(
		ErrCodeReferenceNotFound,
		fmt.Sprintf("Vnpay: no order found for reference %s", reference),
		ErrReferenceNotFound,
	)
}

func NewMultipleTransactionsError(count int, reference string) *PaymentError {
	return NewPaymentError(
		ErrCodeMultipleTransactions,
		fmt.Sprintf("Vnpay: %d orders found for reference %s", count, reference),
		ErrMultipleTransactions,
	)
}

func NewInvalidParametersError(params []InvalidParameter) *PaymentError {
	return NewPaymentError(
		ErrCodeInvalidParameters,
		fmt.Sprintf("Vnpay: incorrect tx data (%d invalid parameters)", len(params)),
		ErrInvalidParameters,
	)
}

// =====================================================
// TRANSACTION ERRORS
// =====================================================

func NewTransactionNotFoundError(id string) *PaymentError {
	return NewPaymentError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("Payment transaction not found: %s", id),
		ErrTransactionNotFound,
	)
}

func NewTransactionNotDraftError(reference, state string) *PaymentError {
	return NewPaymentError(
		ErrCodeTransactionNotDraft,
		fmt.Sprintf("Transaction %s is already %s", reference, state),
		ErrTransactionNotDraft,
	)
}

func NewRefundNotAllowedError(reason string) *PaymentError {
	return NewPaymentError(
		ErrCodeRefundNotAllowed,
		fmt.Sprintf("Refund not allowed: %s", reason),
		ErrRefundNotAllowed,
	)
}

func NewMissingPaymentTokenError(reference string) *PaymentError {
	return NewPaymentError(
		ErrCodeMissingPaymentToken,
		fmt.Sprintf("Transaction %s has no saved card to charge", reference),
		ErrMissingPaymentToken,
	)
}

func NewInvalidInputError(err error) *PaymentError {
	return NewPaymentError(ErrCodeInvalidInput, err.Error(), fmt.Errorf("%w: %v", ErrInvalidInput, err))
}

func NewGatewayFailureError(err error) *PaymentError {
	return NewPaymentError(
		ErrCodeGatewayFailure,
		"Payment gateway is unreachable, please retry later",
		fmt.Errorf("%w: %v", ErrGatewayFailure, err),
	)
}

func NewDuplicateReferenceError(reference string) *PaymentError {
	return NewPaymentError(
		ErrCodeDuplicateReference,
		fmt.Sprintf("Reference %s is already used", reference),
		ErrDuplicateReference,
	)
}

func NewFeedbackLogNotFoundError(id string) *PaymentError {
	return NewPaymentError(
		ErrCodeFeedbackLogNotFound,
		fmt.Sprintf("Feedback log not found: %s", id),
		ErrFeedbackLogNotFound,
	)
}

func NewAcquirerNotConfiguredError(err error) *PaymentError {
	return NewPaymentError(
		ErrCodeAcquirerNotConfigured,
		"Vnpay acquirer is not configured",
		fmt.Errorf("%w: %v", ErrAcquirerNotConfigured, err),
	)
}

// NewInvalidSignatureError is raised for a feedback that is not signed
// with the acquirer secret key
func NewInvalidSignatureError() *PaymentError {
	return NewPaymentError(ErrCodeInvalidSignature, "Invalid feedback signature", ErrInvalidSignature)
}

// =====================================================
// HTTP MAPPING
// =====================================================

// GetErrorResponse maps a payment error to status, message and error code
func GetErrorResponse(err error) (statusCode int, message string, errorCode string) {
	var payErr *PaymentError
	if !errors.As(err, &payErr) {
		return http.StatusInternalServerError, "Internal server error", "SYS_001"
	}

	switch payErr.Code {
	case ErrCodeTransactionNotFound, ErrCodeFeedbackLogNotFound:
		return http.StatusNotFound, payErr.Message, payErr.Code
	case ErrCodeInvalidInput:
		return http.StatusBadRequest, payErr.Message, payErr.Code
	case ErrCodeNoReference, ErrCodeReferenceNotFound, ErrCodeMultipleTransactions, ErrCodeInvalidParameters:
		return http.StatusUnprocessableEntity, payErr.Message, payErr.Code
	case ErrCodeTransactionNotDraft, ErrCodeRefundNotAllowed, ErrCodeMissingPaymentToken, ErrCodeDuplicateReference:
		return http.StatusConflict, payErr.Message, payErr.Code
	case ErrCodeInvalidSignature:
		return http.StatusUnauthorized, payErr.Message, payErr.Code
	case ErrCodeGatewayFailure:
		return http.StatusBadGateway, payErr.Message, payErr.Code
	case ErrCodeAcquirerNotConfigured:
		return http.StatusServiceUnavailable, payErr.Message, payErr.Code
	default:
		return http.StatusInternalServerError, payErr.Message, payErr.Code
	}
}
