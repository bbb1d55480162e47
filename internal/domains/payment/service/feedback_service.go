package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/internal/domains/payment/gateway/vnpay"
	"vnpay-acquirer/internal/domains/payment/model"
	"vnpay-acquirer/pkg/logger"
)

// =====================================================
// FEEDBACK ENTRY POINT
// =====================================================

// ReceiveFeedback authenticates a feedback posted to the public endpoint,
// then handles it like any other gateway answer
//
// Business Logic Flow:
// 1. Load the active vnpay acquirer
// 2. Verify the body signature with its secret key
// 3. Parse the body and HandleFeedback
//
// Edge Cases:
// - Missing or wrong signature -> PAY014, nothing is recorded
// - Signed body that is not a JSON object -> PAY009
func (s *paymentService) ReceiveFeedback(ctx context.Context, body []byte, signature string) (*gateway.Object, bool, error) {
	// Step 1: Active acquirer
	acquirer, err := s.activeAcquirer(ctx)
	if err != nil {
		return nil, false, err
	}

	// Step 2: Signature
	if !vnpay.VerifySignature(body, signature, acquirer.SecretKey) {
		return nil, false, model.NewInvalidSignatureError()
	}

	// Step 3: Handle
	data, err := gateway.ParseObject(body)
	if err != nil {
		return nil, false, model.NewInvalidInputError(err)
	}

	validated, err := s.HandleFeedback(ctx, data)
	return data, validated, err
}

// HandleFeedback records the gateway answer, processes it and stores the
// outcome on the log so failed feedback can be replayed
func (s *paymentService) HandleFeedback(ctx context.Context, data *gateway.Object) (bool, error) {
	body, err := feedbackBody(data)
	if err != nil {
		return false, err
	}

	log := &model.FeedbackLog{
		ID:         uuid.New(),
		Reference:  data.Reference(),
		Body:       body,
		ReceivedAt: s.now(),
	}
	if err := s.feedbackRepo.Create(ctx, log); err != nil {
		return false, fmt.Errorf("failed to record feedback: %w", err)
	}

	return s.processLog(ctx, log, data)
}

// processLog runs the feedback and stores its outcome on the log
func (s *paymentService) processLog(ctx context.Context, log *model.FeedbackLog, data *gateway.Object) (bool, error) {
	validated, txID, err := s.processFeedback(ctx, data)
	if err != nil {
		if markErr := s.feedbackRepo.MarkProcessingError(ctx, log.ID, txID, err.Error()); markErr != nil {
			logger.Error("failed to store feedback processing error", markErr)
		}
		return false, err
	}

	if err := s.feedbackRepo.MarkProcessed(ctx, log.ID, txID); err != nil {
		logger.Error("failed to mark feedback processed", err)
	}

	return validated, nil
}

// =====================================================
// FORM FEEDBACK
// =====================================================

func (s *paymentService) FormFeedback(ctx context.Context, data *gateway.Object) (bool, error) {
	validated, _, err := s.processFeedback(ctx, data)
	return validated, err
}

// processFeedback also returns the id of the resolved transaction, if any
func (s *paymentService) processFeedback(ctx context.Context, data *gateway.Object) (bool, *uuid.UUID, error) {
	tx, err := s.GetTxFromData(ctx, data)
	if err != nil {
		return false, nil, err
	}

	if invalid := s.GetInvalidParameters(tx, data); len(invalid) > 0 {
		payErr := model.NewInvalidParametersError(invalid)
		logger.Warn(payErr.Message, map[string]interface{}{
			"reference":          tx.Reference,
			"invalid_parameters": invalid,
		})
		return false, &tx.ID, nil
	}

	validated, err := s.ValidateTree(ctx, tx, data)
	return validated, &tx.ID, err
}

// GetTxFromData resolves the transaction named by metadata.reference
//
// Edge Cases:
// - No reference -> PAY002, message carries the gateway error.message
// - No transaction -> PAY003
// - Several transactions -> PAY004
func (s *paymentService) GetTxFromData(ctx context.Context, data *gateway.Object) (*model.Transaction, error) {
	reference := data.Reference()
	if reference == "" {
		gatewayError := data.ErrorMessage()
		logged := gatewayError
		if logged == "" {
			logged = "n/a"
		}
		logger.ErrorWithFields("Vnpay: invalid reply received from vnpay API, looks like the transaction failed",
			model.ErrNoReference, map[string]interface{}{"error": logged})
		return nil, model.NewNoReferenceError(gatewayError)
	}

	return s.findByReference(ctx, reference)
}

func (s *paymentService) findByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	txs, err := s.txRepo.FindByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	switch len(txs) {
	case 0:
		payErr := model.NewReferenceNotFoundError(reference)
		logger.Error(payErr.Message, payErr.Err)
		return nil, payErr
	case 1:
		return txs[0], nil
	default:
		payErr := model.NewMultipleTransactionsError(len(txs), reference)
		logger.Error(payErr.Message, payErr.Err)
		return nil, payErr
	}
}

func (s *paymentService) GetInvalidParameters(tx *model.Transaction, data *gateway.Object) []model.InvalidParameter {
	var invalid []model.InvalidParameter

	if reference := data.Reference(); reference != tx.Reference {
		invalid = append(invalid, model.InvalidParameter{
			Name:     "Reference",
			Received: reference,
			Expected: tx.Reference,
		})
	}

	return invalid
}

// =====================================================
// VALIDATE TREE
// =====================================================

// ValidateTree applies a gateway answer to a draft transaction
//
// Business Logic Flow:
// - Not draft -> nothing to do, true
// - status "succeeded" -> done (token verified), callback queued, true
// - otherwise -> cancel with error.message as state message, false
//
// tx is updated in place.
func (s *paymentService) ValidateTree(ctx context.Context, tx *model.Transaction, tree *gateway.Object) (bool, error) {
	if !tx.IsDraft() {
		logger.Info("Vnpay: trying to validate an already validated tx", map[string]interface{}{
			"reference": tx.Reference,
			"state":     tx.State,
		})
		return true, nil
	}

	if tree == nil {
		tree = &gateway.Object{}
	}
	now := s.now()

	if tree.Succeeded() {
		ok, err := s.txRepo.MarkDone(ctx, tx.ID, tree.ID, now)
		if err != nil {
			return false, err
		}
		if !ok {
			logger.Info("Vnpay: trying to validate an already validated tx", map[string]interface{}{
				"reference": tx.Reference,
			})
			return true, nil
		}

		tx.State = model.TxStateDone
		tx.AcquirerReference = tree.ID
		tx.Date = &now

		logger.Info("vnpay: transaction done", map[string]interface{}{
			"reference":          tx.Reference,
			"acquirer_reference": tx.AcquirerReference,
		})

		s.scheduleCallback(ctx, tx)
		return true, nil
	}

	message := tree.ErrorMessage()
	if message == "" {
		status := tree.Status
		if status == "" {
			status = "unknown"
		}
		message = fmt.Sprintf("Vnpay: transaction not completed (status: %s)", status)
	}
	logger.Warn(message, map[string]interface{}{
		"reference":          tx.Reference,
		"acquirer_reference": tree.ID,
	})

	ok, err := s.txRepo.MarkCancelled(ctx, tx.ID, tree.ID, message, now)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Info("Vnpay: trying to validate an already validated tx", map[string]interface{}{
			"reference": tx.Reference,
		})
		return true, nil
	}

	tx.State = model.TxStateCancel
	tx.StateMessage = message
	tx.AcquirerReference = tree.ID
	tx.Date = &now

	return false, nil
}

func (s *paymentService) scheduleCallback(ctx context.Context, tx *model.Transaction) {
	if s.callbacks == nil || !tx.HasCallback() {
		return
	}
	if err := s.callbacks.ScheduleCallback(ctx, tx); err != nil {
		// RetryPendingCallbacks picks it up on its next run
		logger.ErrorWithFields("failed to schedule transaction callback", err, map[string]interface{}{
			"reference": tx.Reference,
		})
	}
}

// =====================================================
// RETRY
// =====================================================

// RetryFailedFeedback replays unprocessed logs of the retry window
func (s *paymentService) RetryFailedFeedback(ctx context.Context, limit int) (int, error) {
	since := s.now().Add(-model.FeedbackRetryWindow)

	logs, err := s.feedbackRepo.GetRetryable(ctx, since, model.MaxFeedbackAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get retryable feedback: %w", err)
	}

	processed := 0
	for _, log := range logs {
		data, err := feedbackObject(log.Body)
		if err != nil {
			if markErr := s.feedbackRepo.MarkProcessingError(ctx, log.ID, log.TransactionID, err.Error()); markErr != nil {
				logger.Error("failed to store feedback processing error", markErr)
			}
			continue
		}

		if _, err := s.processLog(ctx, log, data); err != nil {
			logger.Warn("feedback retry failed", map[string]interface{}{
				"feedback_id": log.ID,
				"attempt":     log.Attempts + 1,
				"error":       err.Error(),
			})
			continue
		}
		processed++
	}

	if len(logs) > 0 {
		logger.Info("feedback retry finished", map[string]interface{}{
			"found":     len(logs),
			"processed": processed,
		})
	}

	return processed, nil
}

// =====================================================
// CALLBACK
// =====================================================

// RetryPendingCallbacks queues again the callbacks of done transactions
// that were never notified, e.g. when the queue was down at validation time
func (s *paymentService) RetryPendingCallbacks(ctx context.Context, limit int) (int, error) {
	if s.callbacks == nil {
		return 0, nil
	}

	txs, err := s.txRepo.ListPendingCallbacks(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending callbacks: %w", err)
	}

	scheduled := 0
	for _, tx := range txs {
		if err := s.callbacks.ScheduleCallback(ctx, tx); err != nil {
			logger.ErrorWithFields("failed to schedule transaction callback", err, map[string]interface{}{
				"reference": tx.Reference,
			})
			continue
		}
		scheduled++
	}

	if len(txs) > 0 {
		logger.Info("pending callbacks queued", map[string]interface{}{
			"found":     len(txs),
			"scheduled": scheduled,
		})
	}

	return scheduled, nil
}

func (s *paymentService) ExecuteCallback(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	if !tx.IsDone() || !tx.HasCallback() {
		logger.Debug("callback skipped", map[string]interface{}{
			"reference":     tx.Reference,
			"state":         tx.State,
			"callback_done": tx.CallbackDone,
		})
		return nil
	}
	if s.sender == nil {
		return errors.New("callback sender is not configured")
	}

	err = s.sender.Send(ctx, tx.CallbackURL, model.CallbackPayload{
		Reference:         tx.Reference,
		State:             tx.State,
		AcquirerReference: tx.AcquirerReference,
	})
	if err != nil {
		return fmt.Errorf("failed to send callback for %s: %w", tx.Reference, err)
	}

	if err := s.txRepo.MarkCallbackDone(ctx, tx.ID); err != nil {
		return fmt.Errorf("failed to mark callback done: %w", err)
	}

	logger.Info("transaction callback executed", map[string]interface{}{
		"reference": tx.Reference,
	})
	return nil
}

// =====================================================
// HELPERS
// =====================================================

// feedbackBody is the raw payload when available, the decoded object otherwise
func feedbackBody(data *gateway.Object) (map[string]interface{}, error) {
	if data == nil {
		return map[string]interface{}{}, nil
	}
	if data.Raw != nil {
		return data.Raw, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}
	return body, nil
}

func feedbackObject(body map[string]interface{}) (*gateway.Object, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored feedback: %w", err)
	}
	return gateway.ParseObject(raw)
}
