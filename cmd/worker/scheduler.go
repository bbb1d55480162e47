package main

import (
	"github.com/rs/zerolog/log"

	"vnpay-acquirer/internal/infrastructure/queue"
	"vnpay-acquirer/pkg/container"
	"vnpay-acquirer/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler with additional functionality
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the periodic jobs and starts the scheduler
func setupScheduler(c *container.Container) (*asynqScheduler, error) {
	scheduler := queue.NewScheduler(c.Redis.RedisOpt(), c.Config.Worker)

	if err := scheduler.RegisterPaymentJobs(); err != nil {
		return nil, err
	}

	go func() {
		logger.Info("[Scheduler] Starting...", nil)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("[Scheduler] Failed")
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}, nil
}

// Shutdown gracefully shuts down the scheduler
func (s *asynqScheduler) Shutdown() {
	logger.Info("[Scheduler] Shutting down...", nil)
	s.Scheduler.Shutdown()
	logger.Info("[Scheduler] ✓ Stopped", nil)
}
