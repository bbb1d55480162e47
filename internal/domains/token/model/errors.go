package model

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeNoToken          = "TOK001"
	ErrCodeGatewayRejected  = "TOK002"
	ErrCodeUnprocessable    = "TOK003"
	ErrCodePartnerNotFound  = "TOK004"
	ErrCodeTokenNotFound    = "TOK005"
	ErrCodeInvalidCardInput = "TOK006"
	ErrCodeGatewayFailure   = "TOK007"
)

var (
	ErrNoTokenProvided   = errors.New("vnpay_create: No token provided!")
	ErrUnprocessableCard = errors.New("We are unable to process your credit card information.")
	ErrGatewayRejected   = errors.New("gateway rejected the request")
	ErrPartnerNotFound   = errors.New("partner not found")
	ErrTokenNotFound     = errors.New("payment token not found")
	ErrInvalidCardInput  = errors.New("invalid card input")
)

type TokenError struct {
	Code    string
	Message string
	Err     error
}

func (e *TokenError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

func NewTokenError(code, message string, err error) *TokenError {
	return &TokenError{Code: code, Message: message, Err: err}
}

func NewNoTokenError() *TokenError {
	return NewTokenError(ErrCodeNoToken, ErrNoTokenProvided.Error(), ErrNoTokenProvided)
}

func NewUnprocessableCardError() *TokenError {
	return NewTokenError(ErrCodeUnprocessable, ErrUnprocessableCard.Error(), ErrUnprocessableCard)
}

// NewGatewayRejectedError wraps the error.message returned by the gateway
func NewGatewayRejectedError(message string) *TokenError {
	return NewTokenError(ErrCodeGatewayRejected, message, ErrGatewayRejected)
}

func NewGatewayFailureError(err error) *TokenError {
	return NewTokenError(ErrCodeGatewayFailure, "Payment gateway is unreachable, please retry later", err)
}

func NewPartnerNotFoundError(id string) *TokenError {
	return NewTokenError(ErrCodePartnerNotFound, fmt.Sprintf("Partner not found: %s", id), ErrPartnerNotFound)
}

func NewTokenNotFoundError(id string) *TokenError {
	return NewTokenError(ErrCodeTokenNotFound, fmt.Sprintf("Payment token not found: %s", id), ErrTokenNotFound)
}

func NewInvalidCardInputError(message string) *TokenError {
	return NewTokenError(ErrCodeInvalidCardInput, message, ErrInvalidCardInput)
}

// GetErrorResponse maps a token error to status, message and error code
func GetErrorResponse(err error) (statusCode int, message string, errorCode string) {
	var tokErr *TokenError
	if !errors.As(err, &tokErr) {
		return http.StatusInternalServerError, "Internal server error", "SYS_001"
	}

	switch tokErr.Code {
	case ErrCodePartnerNotFound, ErrCodeTokenNotFound:
		return http.StatusNotFound, tokErr.Message, tokErr.Code
	case ErrCodeNoToken, ErrCodeInvalidCardInput:
		return http.StatusBadRequest, tokErr.Message, tokErr.Code
	case ErrCodeGatewayRejected, ErrCodeUnprocessable:
		return http.StatusUnprocessableEntity, tokErr.Message, tokErr.Code
	case ErrCodeGatewayFailure:
		return http.StatusBadGateway, tokErr.Message, tokErr.Code
	default:
		return http.StatusInternalServerError, tokErr.Message, tokErr.Code
	}
}
