package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"vnpay-acquirer/internal/domains/payment/model"
	"vnpay-acquirer/internal/domains/payment/service"
	"vnpay-acquirer/internal/shared"
	"vnpay-acquirer/pkg/logger"
)

type ExecuteCallbackHandler struct {
	paymentService service.PaymentService
}

func NewExecuteCallbackHandler(paymentService service.PaymentService) *ExecuteCallbackHandler {
	return &ExecuteCallbackHandler{paymentService: paymentService}
}

func (h *ExecuteCallbackHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ExecuteCallbackPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("Unmarshal callback payload failed", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	id, err := uuid.Parse(payload.TransactionID)
	if err != nil {
		return fmt.Errorf("%w: invalid transaction id %q", asynq.SkipRetry, payload.TransactionID)
	}

	logger.Info("Executing transaction callback", map[string]interface{}{
		"transaction_id": payload.TransactionID,
		"reference":      payload.Reference,
	})

	if err := h.paymentService.ExecuteCallback(ctx, id); err != nil {
		if errors.Is(err, model.ErrTransactionNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	return nil
}
