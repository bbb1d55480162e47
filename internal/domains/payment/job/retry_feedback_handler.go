package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"vnpay-acquirer/internal/domains/payment/service"
	"vnpay-acquirer/internal/shared"
	"vnpay-acquirer/pkg/logger"
)

const defaultRetryLimit = 100

type RetryFeedbackHandler struct {
	paymentService service.PaymentService
	limit          int
}

func NewRetryFeedbackHandler(paymentService service.PaymentService, limit int) *RetryFeedbackHandler {
	if limit <= 0 {
		limit = defaultRetryLimit
	}
	return &RetryFeedbackHandler{paymentService: paymentService, limit: limit}
}

func (h *RetryFeedbackHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.RetryFeedbackPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("Unmarshal retry payload failed", err)
			return err
		}
	}

	limit := h.limit
	if payload.Limit > 0 {
		limit = payload.Limit
	}

	processed, err := h.paymentService.RetryFailedFeedback(ctx, limit)
	if err != nil {
		logger.Error("Retry failed feedback failed", err)
		return err
	}

	logger.Info("Feedback retry run finished", map[string]interface{}{
		"processed": processed,
		"limit":     limit,
	})

	return nil
}
