package main

import (
	"github.com/joho/godotenv"

	"vnpay-acquirer/internal/config"
	"vnpay-acquirer/pkg/logger"
)

// loadConfig loads the shared configuration and sets up logging
func loadConfig() (*config.Config, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.App.Environment)
	if envErr != nil {
		logger.Warn("[Config] No .env file found, using system environment variables", nil)
	}

	logger.Info("[Config] Worker configuration loaded", map[string]interface{}{
		"redis":            cfg.Redis.Host,
		"concurrency":      cfg.Worker.Concurrency,
		"retry_cron":       cfg.Worker.FeedbackRetryCron,
		"retry_limit":      cfg.Worker.FeedbackRetryLimit,
		"callback_timeout": cfg.Worker.CallbackTimeout.String(),
	})

	return cfg, nil
}
