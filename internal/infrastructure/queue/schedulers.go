package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"vnpay-acquirer/internal/config"
	"vnpay-acquirer/internal/shared"
	"vnpay-acquirer/pkg/logger"
)

// PeriodicRegistrar is satisfied by *asynq.Scheduler
type PeriodicRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

type Scheduler struct {
	scheduler    *asynq.Scheduler
	registrar    PeriodicRegistrar
	workerConfig config.WorkerConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, workerConfig config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler:    scheduler,
		registrar:    scheduler,
		workerConfig: workerConfig,
	}
}

// RegisterPaymentJobs registers every periodic payment job
func (s *Scheduler) RegisterPaymentJobs() error {
	if err := registerRetryFeedbackJob(s.registrar, s.workerConfig); err != nil {
		return err
	}
	return registerRetryCallbacksJob(s.registrar, s.workerConfig)
}

// ================================================
// Retry Failed Feedback (WORKER_FEEDBACK_RETRY_CRON, default every 10 min)
// ================================================
// Feedback that arrived before its transaction existed, or failed on a
// transient error, is replayed until it reaches model.MaxFeedbackAttempts
func registerRetryFeedbackJob(registrar PeriodicRegistrar, cfg config.WorkerConfig) error {
	payload, err := json.Marshal(shared.RetryFeedbackPayload{
		Limit: cfg.FeedbackRetryLimit,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRetryFeedback, payload)

	_, err = registrar.Register(
		cfg.FeedbackRetryCron,
		task,
		asynq.Queue(shared.QueuePayment),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RetryFeedback job", err)
		return err
	}

	logger.Info("✓ Registered RetryFeedback", map[string]interface{}{
		"cron":  cfg.FeedbackRetryCron,
		"limit": cfg.FeedbackRetryLimit,
	})
	return nil
}

// ================================================
// Retry Pending Callbacks (WORKER_CALLBACK_RETRY_CRON, default every 5 min)
// ================================================
// Done transactions whose callback could not be queued at validation time
func registerRetryCallbacksJob(registrar PeriodicRegistrar, cfg config.WorkerConfig) error {
	payload, err := json.Marshal(shared.RetryCallbacksPayload{
		Limit: cfg.CallbackRetryLimit,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeRetryCallbacks, payload)

	_, err = registrar.Register(
		cfg.CallbackRetryCron,
		task,
		asynq.Queue(shared.QueuePayment),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RetryCallbacks job", err)
		return err
	}

	logger.Info("✓ Registered RetryCallbacks", map[string]interface{}{
		"cron":  cfg.CallbackRetryCron,
		"limit": cfg.CallbackRetryLimit,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
