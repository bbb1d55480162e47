package main

import (
	"github.com/hibiken/asynq"

	paymentJob "vnpay-acquirer/internal/domains/payment/job"
	"vnpay-acquirer/internal/shared"
	"vnpay-acquirer/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	executeCallback *paymentJob.ExecuteCallbackHandler
	retryFeedback   *paymentJob.RetryFeedbackHandler
	retryCallbacks  *paymentJob.RetryCallbacksHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		executeCallback: paymentJob.NewExecuteCallbackHandler(c.PaymentService),
		retryFeedback:   paymentJob.NewRetryFeedbackHandler(c.PaymentService, c.Config.Worker.FeedbackRetryLimit),
		retryCallbacks:  paymentJob.NewRetryCallbacksHandler(c.PaymentService, c.Config.Worker.CallbackRetryLimit),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeExecuteCallback, h.executeCallback.ProcessTask)
	mux.HandleFunc(shared.TypeRetryFeedback, h.retryFeedback.ProcessTask)
	mux.HandleFunc(shared.TypeRetryCallbacks, h.retryCallbacks.ProcessTask)
}
