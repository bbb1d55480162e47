package vnpay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/pkg/logger"
)

// =====================================================
// VNPAY CLIENT
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (gateway.Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vnpay config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

func (c *Client) APIURL() string {
	return c.config.APIURL
}

// =====================================================
// CHARGES & REFUNDS
// =====================================================

func (c *Client) CreateCharge(
	ctx context.Context,
	secretKey string,
	req gateway.ChargeRequest,
) (*gateway.Object, error) {
	if req.Reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	params := buildChargeParams(req)

	logger.Info("vnpay: sending charge", map[string]interface{}{
		"url":    c.config.Endpoint(PathCharges),
		"params": loggableParams(params),
	})

	res, err := c.post(ctx, secretKey, PathCharges, params)
	if err != nil {
		return nil, err
	}

	logger.Info("vnpay: charge response", responseFields(res))
	return res, nil
}

func (c *Client) CreateRefund(
	ctx context.Context,
	secretKey string,
	req gateway.RefundRequest,
) (*gateway.Object, error) {
	if req.Charge == "" {
		return nil, fmt.Errorf("charge is required")
	}

	params := buildRefundParams(req)

	logger.Info("vnpay: sending refund", map[string]interface{}{
		"url":    c.config.Endpoint(PathRefunds),
		"params": loggableParams(params),
	})

	res, err := c.post(ctx, secretKey, PathRefunds, params)
	if err != nil {
		return nil, err
	}

	logger.Info("vnpay: refund response", responseFields(res))
	return res, nil
}

// =====================================================
// TOKENS & CUSTOMERS
// =====================================================

func (c *Client) CreateToken(
	ctx context.Context,
	secretKey string,
	req gateway.CardTokenRequest,
) (*gateway.Object, error) {
	params := url.Values{}
	params.Set("card[number]", strings.ReplaceAll(req.Number, " ", ""))
	params.Set("card[exp_month]", req.ExpMonth)
	params.Set("card[exp_year]", req.ExpYear)
	params.Set("card[cvc]", req.CVC)
	params.Set("card[name]", req.Name)

	// card data is never logged
	return c.post(ctx, secretKey, PathTokens, params)
}

func (c *Client) CreateCustomer(
	ctx context.Context,
	secretKey string,
	req gateway.CustomerRequest,
) (*gateway.Object, error) {
	params := url.Values{}
	params.Set("source", req.Source)
	params.Set("description", req.Description)

	res, err := c.post(ctx, secretKey, PathCustomers, params)
	if err != nil {
		return nil, err
	}

	logger.Info("vnpay: customer response", responseFields(res))
	return res, nil
}

// =====================================================
// HELPERS
// =====================================================

func buildChargeParams(req gateway.ChargeRequest) url.Values {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(gateway.ToMinorUnits(req.Amount, req.Currency), 10))
	params.Set("currency", req.Currency)
	params.Set("metadata[reference]", req.Reference)
	params.Set("description", req.Reference)

	if req.Customer != "" {
		params.Set("customer", req.Customer)
	}
	if req.Card != "" {
		params.Set("card", req.Card)
	}
	if email := strings.TrimSpace(req.ReceiptEmail); email != "" {
		params.Set("receipt_email", email)
	}

	return params
}

func buildRefundParams(req gateway.RefundRequest) url.Values {
	params := url.Values{}
	params.Set("charge", req.Charge)
	params.Set("amount", strconv.FormatInt(gateway.ToMinorUnits(req.Amount, req.Currency), 10))
	params.Set("metadata[reference]", req.Reference)
	return params
}

// post sends a form encoded POST and parses the JSON answer.
// Non-2xx answers with a JSON body are returned as objects, the caller
// inspects Object.Error.
func (c *Client) post(
	ctx context.Context,
	secretKey string,
	path string,
	params url.Values,
) (*gateway.Object, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.config.Endpoint(path),
		strings.NewReader(params.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.SetBasicAuth(secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderAPIVersion, c.config.APIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call vnpay %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vnpay %s response: %w", path, err)
	}

	obj, err := gateway.ParseObject(body)
	if err != nil {
		return nil, fmt.Errorf("unexpected vnpay %s response (HTTP %d): %w", path, resp.StatusCode, err)
	}

	return obj, nil
}

func loggableParams(params url.Values) map[string]string {
	out := make(map[string]string, len(params))
	for k := range params {
		out[k] = params.Get(k)
	}
	return out
}

func responseFields(obj *gateway.Object) map[string]interface{} {
	fields := map[string]interface{}{
		"id":        obj.ID,
		"object":    obj.Object,
		"status":    obj.Status,
		"reference": obj.Reference(),
	}
	if obj.HasError() {
		fields["error"] = obj.ErrorMessage()
	}
	return fields
}
