package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"vnpay-acquirer/internal/domains/payment/model"
	"vnpay-acquirer/internal/shared"
	"vnpay-acquirer/pkg/logger"
)

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CallbackEnqueuer queues the callback of done transactions on asynq
type CallbackEnqueuer struct {
	client  TaskEnqueuer
	timeout time.Duration
}

func NewCallbackEnqueuer(client TaskEnqueuer, timeout time.Duration) *CallbackEnqueuer {
	return &CallbackEnqueuer{client: client, timeout: timeout}
}

// ScheduleCallback enqueues one execute_callback task per transaction;
// the task id makes a second enqueue for the same transaction a no-op
func (e *CallbackEnqueuer) ScheduleCallback(ctx context.Context, tx *model.Transaction) error {
	if !tx.HasCallback() {
		return nil
	}

	payload, err := json.Marshal(shared.ExecuteCallbackPayload{
		TransactionID: tx.ID.String(),
		Reference:     tx.Reference,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal callback payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeExecuteCallback, payload)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueuePayment),
		asynq.TaskID("callback:"+tx.ID.String()),
		asynq.MaxRetry(5),
		asynq.Timeout(e.timeout),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("failed to enqueue callback: %w", err)
	}

	logger.Info("callback task enqueued", map[string]interface{}{
		"task_id":   info.ID,
		"reference": tx.Reference,
	})
	return nil
}
