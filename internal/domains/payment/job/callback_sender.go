package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vnpay-acquirer/internal/domains/payment/model"
)

// HTTPCallbackSender posts callback payloads as JSON
type HTTPCallbackSender struct {
	httpClient *http.Client
}

func NewHTTPCallbackSender(timeout time.Duration) *HTTPCallbackSender {
	return &HTTPCallbackSender{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send fails on transport errors and non-2xx answers
func (s *HTTPCallbackSender) Send(ctx context.Context, url string, payload model.CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post callback: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback answered HTTP %d", resp.StatusCode)
	}

	return nil
}
