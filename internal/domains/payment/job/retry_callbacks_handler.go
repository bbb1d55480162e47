package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"vnpay-acquirer/internal/domains/payment/service"
	"vnpay-acquirer/internal/shared"
	"vnpay-acquirer/pkg/logger"
)

// RetryCallbacksHandler re-queues the callbacks of done transactions that
// were never notified
type RetryCallbacksHandler struct {
	paymentService service.PaymentService
	limit          int
}

func NewRetryCallbacksHandler(paymentService service.PaymentService, limit int) *RetryCallbacksHandler {
	if limit <= 0 {
		limit = defaultRetryLimit
	}
	return &RetryCallbacksHandler{paymentService: paymentService, limit: limit}
}

func (h *RetryCallbacksHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.RetryCallbacksPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Unmarshal retry callbacks payload failed", err)
			return err
		}
	}

	limit := h.limit
	if payload.Limit > 0 {
		limit = payload.Limit
	}

	scheduled, err := h.paymentService.RetryPendingCallbacks(ctx, limit)
	if err != nil {
		logger.Error("Retry pending callbacks failed", err)
		return err
	}

	logger.Info("Callback retry run finished", map[string]interface{}{
		"scheduled": scheduled,
		"limit":     limit,
	})

	return nil
}
