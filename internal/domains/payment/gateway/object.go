package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

const (
	StatusSucceeded = "succeeded"

	ObjectToken    = "token"
	ObjectCustomer = "customer"
	ObjectCharge   = "charge"
	ObjectRefund   = "refund"

	TokenTypeCard = "card"
)

// Object is a parsed gateway response tree (charge, refund, token or
// customer). Feedback posted by the gateway uses the same shape.
type Object struct {
	ID       string                 `json:"id"`
	Object   string                 `json:"object"`
	Type     string                 `json:"type,omitempty"`
	Status   string                 `json:"status,omitempty"`
	Currency string                 `json:"currency,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Card     *Card                  `json:"card,omitempty"`
	Error    *APIError              `json:"error,omitempty"`

	// Raw keeps the full payload for audit logs
	Raw map[string]interface{} `json:"-"`
}

type Card struct {
	ID       string `json:"id,omitempty"`
	Object   string `json:"object,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	Name     string `json:"name,omitempty"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`
}

// APIError is the "error" member of a failed gateway response
type APIError struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ParseObject decodes a JSON body into an Object and keeps the raw tree
func ParseObject(body []byte) (*Object, error) {
	obj := &Object{}
	if err := json.Unmarshal(body, obj); err != nil {
		return nil, fmt.Errorf("failed to parse gateway object: %w", err)
	}

	raw := map[string]interface{}{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse gateway object: %w", err)
	}
	obj.Raw = raw

	return obj, nil
}

// Reference returns metadata.reference or "" when absent
func (o *Object) Reference() string {
	if o == nil || o.Metadata == nil {
		return ""
	}
	return cast.ToString(o.Metadata["reference"])
}

func (o *Object) Succeeded() bool {
	return o != nil && o.Status == StatusSucceeded
}

func (o *Object) HasError() bool {
	return o != nil && o.Error != nil
}

// ErrorMessage returns error.message or "" when absent
func (o *Object) ErrorMessage() string {
	if o == nil || o.Error == nil {
		return ""
	}
	return o.Error.Message
}

// Last4 returns card.last4 or "" when the object carries no card
func (o *Object) Last4() string {
	if o == nil || o.Card == nil {
		return ""
	}
	return o.Card.Last4
}
