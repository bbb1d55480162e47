package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// =====================================================
// GATEWAY INTERFACE
// =====================================================

// Gateway is the card gateway REST API (charges, refunds, tokens, customers).
// Every call authenticates with the acquirer's secret key.
// A gateway-reported failure is NOT a Go error: it comes back as an Object
// with Error set. A Go error means the call itself failed (network, bad body).
type Gateway interface {
	// CreateCharge posts /charges
	CreateCharge(ctx context.Context, secretKey string, req ChargeRequest) (*Object, error)

	// CreateRefund posts /refunds
	CreateRefund(ctx context.Context, secretKey string, req RefundRequest) (*Object, error)

	// CreateToken posts /tokens with raw card data
	CreateToken(ctx context.Context, secretKey string, req CardTokenRequest) (*Object, error)

	// CreateCustomer posts /customers with a token as source
	CreateCustomer(ctx context.Context, secretKey string, req CustomerRequest) (*Object, error)

	// APIURL is the configured API base
	APIURL() string
}

// =====================================================
// REQUEST TYPES
// =====================================================

// ChargeRequest request to create a charge
type ChargeRequest struct {
	Amount       decimal.Decimal
	Currency     string
	Reference    string // sent as metadata[reference] and description
	Customer     string // optional: gateway customer id (payment token acquirer_ref)
	Card         string // optional: checkout token id
	ReceiptEmail string // optional
}

// RefundRequest request to refund a charge
type RefundRequest struct {
	Charge    string // acquirer_reference of the charge
	Amount    decimal.Decimal
	Currency  string
	Reference string
}

// CardTokenRequest request to tokenize raw card data
type CardTokenRequest struct {
	Number   string
	ExpMonth string
	ExpYear  string
	CVC      string
	Name     string
}

// CustomerRequest request to create a customer from a token
type CustomerRequest struct {
	Source      string // token id
	Description string
}
