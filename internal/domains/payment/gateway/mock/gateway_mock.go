package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"vnpay-acquirer/internal/domains/payment/gateway"
)

// =====================================================
// MOCK GATEWAY FOR TESTING
// =====================================================

// MockGateway answers like the card gateway without network access.
// By default every call succeeds; failures are switched on per operation.
// All requests are recorded for assertions.
type MockGateway struct {
	mu sync.Mutex

	chargeFailure string
	refundFailure string
	tokenOverride *gateway.Object
	customerError string
	transportErr  error

	SecretKeys []string
	Charges    []gateway.ChargeRequest
	Refunds    []gateway.RefundRequest
	Tokens     []gateway.CardTokenRequest
	Customers  []gateway.CustomerRequest
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

var _ gateway.Gateway = (*MockGateway)(nil)

func (m *MockGateway) APIURL() string {
	return "https://mock-vnpay.local/v1"
}

func (m *MockGateway) CreateCharge(
	ctx context.Context,
	secretKey string,
	req gateway.ChargeRequest,
) (*gateway.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SecretKeys = append(m.SecretKeys, secretKey)
	m.Charges = append(m.Charges, req)
	if m.transportErr != nil {
		return nil, m.transportErr
	}

	id := fmt.Sprintf("ch_mock_%d", len(m.Charges))
	if m.chargeFailure != "" {
		return failedObject(id, gateway.ObjectCharge, req.Reference, m.chargeFailure), nil
	}
	return succeededObject(id, gateway.ObjectCharge, req.Reference, req.Currency), nil
}

func (m *MockGateway) CreateRefund(
	ctx context.Context,
	secretKey string,
	req gateway.RefundRequest,
) (*gateway.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SecretKeys = append(m.SecretKeys, secretKey)
	m.Refunds = append(m.Refunds, req)
	if m.transportErr != nil {
		return nil, m.transportErr
	}

	id := fmt.Sprintf("re_mock_%d", len(m.Refunds))
	if m.refundFailure != "" {
		return failedObject(id, gateway.ObjectRefund, req.Reference, m.refundFailure), nil
	}
	return succeededObject(id, gateway.ObjectRefund, req.Reference, req.Currency), nil
}

func (m *MockGateway) CreateToken(
	ctx context.Context,
	secretKey string,
	req gateway.CardTokenRequest,
) (*gateway.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SecretKeys = append(m.SecretKeys, secretKey)
	m.Tokens = append(m.Tokens, req)
	if m.transportErr != nil {
		return nil, m.transportErr
	}
	if m.tokenOverride != nil {
		return m.tokenOverride, nil
	}

	number := strings.ReplaceAll(req.Number, " ", "")
	last4 := number
	if len(number) > 4 {
		last4 = number[len(number)-4:]
	}

	return &gateway.Object{
		ID:     fmt.Sprintf("tok_mock_%d", len(m.Tokens)),
		Object: gateway.ObjectToken,
		Type:   gateway.TokenTypeCard,
		Card: &gateway.Card{
			ID:    fmt.Sprintf("card_mock_%d", len(m.Tokens)),
			Last4: last4,
			Name:  req.Name,
		},
	}, nil
}

func (m *MockGateway) CreateCustomer(
	ctx context.Context,
	secretKey string,
	req gateway.CustomerRequest,
) (*gateway.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SecretKeys = append(m.SecretKeys, secretKey)
	m.Customers = append(m.Customers, req)
	if m.transportErr != nil {
		return nil, m.transportErr
	}
	if m.customerError != "" {
		return &gateway.Object{Error: &gateway.APIError{Message: m.customerError}}, nil
	}

	return &gateway.Object{
		ID:     fmt.Sprintf("cus_mock_%d", len(m.Customers)),
		Object: gateway.ObjectCustomer,
	}, nil
}

// SetFailCharge makes charges come back with error.message = message ("" resets)
func (m *MockGateway) SetFailCharge(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargeFailure = message
}

// SetFailRefund makes refunds come back with error.message = message ("" resets)
func (m *MockGateway) SetFailRefund(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundFailure = message
}

// SetTokenResponse replaces the token object returned by CreateToken
func (m *MockGateway) SetTokenResponse(obj *gateway.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenOverride = obj
}

// SetFailCustomer makes CreateCustomer return an error object
func (m *MockGateway) SetFailCustomer(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customerError = message
}

// SetTransportError makes every call fail before reaching the "gateway"
func (m *MockGateway) SetTransportError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transportErr = err
}

func succeededObject(id, object, reference, currency string) *gateway.Object {
	return &gateway.Object{
		ID:       id,
		Object:   object,
		Status:   gateway.StatusSucceeded,
		Currency: strings.ToLower(currency),
		Metadata: map[string]interface{}{"reference": reference},
	}
}

func failedObject(id, object, reference, message string) *gateway.Object {
	return &gateway.Object{
		ID:       id,
		Object:   object,
		Status:   "failed",
		Metadata: map[string]interface{}{"reference": reference},
		Error:    &gateway.APIError{Type: "card_error", Message: message},
	}
}
