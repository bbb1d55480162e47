package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vnpay-acquirer/pkg/container"
	"vnpay-acquirer/pkg/logger"
)

const healthAddr = ":9999"

// HealthChecker performs startup health checks
type HealthChecker struct {
	container *container.Container
}

// startServices performs health checks and starts the health endpoint
func startServices(c *container.Container) error {
	logger.Info("🚀 Vnpay Worker Starting...", map[string]interface{}{
		"version": c.Config.App.Version,
	})

	checker := &HealthChecker{container: c}
	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(checker)

	return nil
}

// checkAll runs all health checks
func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Redis Connection", h.container.Redis.HealthCheck},
		{"PostgreSQL Connection", h.container.DB.HealthCheck},
	}

	for _, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()

		if err != nil {
			logger.Error(fmt.Sprintf("❌ %s", check.name), err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		logger.Info(fmt.Sprintf("✓ %s: OK", check.name), nil)
	}

	return nil
}

// startHealthCheckServer serves /health and /ready
func startHealthCheckServer(checker *HealthChecker) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/ready", checker.readyCheckHandler)

	logger.Info("[Health] Starting health check server", map[string]interface{}{"addr": healthAddr})
	if err := http.ListenAndServe(healthAddr, mux); err != nil {
		logger.Error("[Health] Failed to start", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"UP","service":"vnpay-worker"}`))
}

// readyCheckHandler handles /ready (Kubernetes readiness probe)
func (h *HealthChecker) readyCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.container.Redis.HealthCheck(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"NOT_READY"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"READY"}`))
}
