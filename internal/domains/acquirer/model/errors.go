package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAcquirerNotFound    = errors.New("acquirer not found")
	ErrAcquirerInactive    = errors.New("acquirer is not active")
	ErrMissingCredentials  = errors.New("acquirer credentials are not configured")
	ErrUnsupportedProvider = errors.New("unsupported acquirer provider")
)

type AcquirerError struct {
	Code    string
	Message string
	Err     error
}

func (e *AcquirerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AcquirerError) Unwrap() error {
	return e.Err
}

func NewAcquirerError(code, message string, err error) *AcquirerError {
	return &AcquirerError{Code: code, Message: message, Err: err}
}

func NewAcquirerNotFoundError(id string) *AcquirerError {
	return NewAcquirerError(ErrCodeAcquirerNotFound, fmt.Sprintf("Acquirer not found: %s", id), ErrAcquirerNotFound)
}

func NewAcquirerInactiveError(name string) *AcquirerError {
	return NewAcquirerError(ErrCodeAcquirerInactive, fmt.Sprintf("Acquirer %s is not active", name), ErrAcquirerInactive)
}

func NewMissingCredentialsError(name string) *AcquirerError {
	return NewAcquirerError(
		ErrCodeMissingCredentials,
		fmt.Sprintf("Acquirer %s has no secret/publishable key configured", name),
		ErrMissingCredentials,
	)
}

func NewUnsupportedProviderError(provider string) *AcquirerError {
	return NewAcquirerError(
		ErrCodeUnsupportedProvider,
		fmt.Sprintf("Provider %q is not handled by this service", provider),
		ErrUnsupportedProvider,
	)
}

// GetErrorResponse maps an acquirer error to status, message and error code
func GetErrorResponse(err error) (statusCode int, message string, errorCode string) {
	var acqErr *AcquirerError
	if !errors.As(err, &acqErr) {
		return http.StatusInternalServerError, "Internal server error", "SYS_001"
	}

	switch acqErr.Code {
	case ErrCodeAcquirerNotFound:
		return http.StatusNotFound, acqErr.Message, acqErr.Code
	case ErrCodeInvalidInput:
		return http.StatusBadRequest, acqErr.Message, acqErr.Code
	case ErrCodeAcquirerInactive, ErrCodeMissingCredentials, ErrCodeUnsupportedProvider:
		return http.StatusUnprocessableEntity, acqErr.Message, acqErr.Code
	default:
		return http.StatusInternalServerError, acqErr.Message, acqErr.Code
	}
}

func NewInvalidInputError(err error) *AcquirerError {
	return NewAcquirerError(ErrCodeInvalidInput, err.Error(), err)
}
