package shared

// Task types
const (
	TypeExecuteCallback = "payment:execute_callback"
	TypeRetryFeedback   = "payment:retry_feedback"
	TypeRetryCallbacks  = "payment:retry_callbacks"
)

// Queues
const (
	QueueCritical = "critical"
	QueuePayment  = "payment"
	QueueDefault  = "default"
)

// QueueWeights is the asynq priority of each queue
var QueueWeights = map[string]int{
	QueueCritical: 6,
	QueuePayment:  3,
	QueueDefault:  1,
}

// ExecuteCallbackPayload is the payload of TypeExecuteCallback
type ExecuteCallbackPayload struct {
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
}

// RetryFeedbackPayload is the payload of TypeRetryFeedback
type RetryFeedbackPayload struct {
	Limit int `json:"limit,omitempty"`
}

// RetryCallbacksPayload is the payload of TypeRetryCallbacks
type RetryCallbacksPayload struct {
	Limit int `json:"limit,omitempty"`
}
