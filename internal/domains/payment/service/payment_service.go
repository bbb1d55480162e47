package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"

	acquirerModel "vnpay-acquirer/internal/domains/acquirer/model"
	acquirerRepo "vnpay-acquirer/internal/domains/acquirer/repository"
	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/internal/domains/payment/model"
	repo "vnpay-acquirer/internal/domains/payment/repository"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
	tokenRepo "vnpay-acquirer/internal/domains/token/repository"
	"vnpay-acquirer/pkg/logger"
)

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	txRepo       repo.TransactionRepository
	feedbackRepo repo.FeedbackLogRepository
	acquirerRepo acquirerRepo.AcquirerRepository
	tokenRepo    tokenRepo.TokenRepository

	gateway gateway.Gateway

	callbacks CallbackScheduler
	sender    CallbackSender

	now func() time.Time
}

func NewPaymentService(
	txRepo repo.TransactionRepository,
	feedbackRepo repo.FeedbackLogRepository,
	acquirerRepo acquirerRepo.AcquirerRepository,
	tokenRepo tokenRepo.TokenRepository,
	gw gateway.Gateway,
	callbacks CallbackScheduler,
	sender CallbackSender,
) PaymentService {
	return &paymentService{
		txRepo:       txRepo,
		feedbackRepo: feedbackRepo,
		acquirerRepo: acquirerRepo,
		tokenRepo:    tokenRepo,
		gateway:      gw,
		callbacks:    callbacks,
		sender:       sender,
		now:          time.Now,
	}
}

// =====================================================
// CREATE TRANSACTION
// =====================================================

// CreateTransaction creates a draft transaction
//
// Business Logic Flow:
// 1. Validate request
// 2. Check acquirer (and payment token when given) exist
// 3. Generate a reference when none is given
// 4. Insert as draft
//
// Edge Cases:
// - Reference already used -> PAY011
func (s *paymentService) CreateTransaction(
	ctx context.Context,
	req model.CreateTransactionRequest,
) (*model.Transaction, error) {
	// Step 1: Validate request
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	// Step 2: Check references
	if _, err := s.loadAcquirer(ctx, req.AcquirerID); err != nil {
		return nil, err
	}
	if req.PaymentTokenID != nil {
		if _, err := s.loadToken(ctx, *req.PaymentTokenID); err != nil {
			return nil, err
		}
	}

	// Step 3: Reference
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "VNP-" + ksuid.New().String()
	}

	txType := req.Type
	if txType == "" {
		txType = model.TxTypeForm
	}

	// Step 4: Insert
	tx := &model.Transaction{
		ID:             uuid.New(),
		Reference:      reference,
		AcquirerID:     req.AcquirerID,
		Amount:         req.Amount,
		Currency:       strings.ToUpper(req.Currency),
		State:          model.TxStateDraft,
		Type:           txType,
		PartnerID:      req.PartnerID,
		PartnerEmail:   strings.TrimSpace(req.PartnerEmail),
		PartnerName:    req.PartnerName,
		PaymentTokenID: req.PaymentTokenID,
		CallbackURL:    req.CallbackURL,
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		if errors.Is(err, model.ErrDuplicateReference) {
			return nil, model.NewDuplicateReferenceError(reference)
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	logger.Info("payment transaction created", map[string]interface{}{
		"transaction_id": tx.ID,
		"reference":      tx.Reference,
		"amount":         tx.Amount.String(),
		"currency":       tx.Currency,
		"type":           tx.Type,
	})

	return tx, nil
}

func (s *paymentService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTransactionNotFound) {
			return nil, model.NewTransactionNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (s *paymentService) ListFeedback(ctx context.Context, transactionID uuid.UUID) ([]*model.FeedbackLog, error) {
	if _, err := s.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}

	logs, err := s.feedbackRepo.ListByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback logs: %w", err)
	}
	return logs, nil
}

// =====================================================
// SERVER TO SERVER CHARGE
// =====================================================

// DoTransaction charges the transaction's saved card
//
// Business Logic Flow:
// 1. Load transaction (must be draft, must have a payment token)
// 2. Charge with customer = token acquirer_ref, receipt email = partner email
// 3. ValidateTree on the gateway answer
func (s *paymentService) DoTransaction(ctx context.Context, transactionID uuid.UUID) (*model.Transaction, bool, error) {
	// Step 1: Load transaction
	tx, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, false, err
	}
	if !tx.IsDraft() {
		return nil, false, model.NewTransactionNotDraftError(tx.Reference, tx.State)
	}
	if tx.PaymentTokenID == nil {
		return nil, false, model.NewMissingPaymentTokenError(tx.Reference)
	}

	token, err := s.loadToken(ctx, *tx.PaymentTokenID)
	if err != nil {
		return nil, false, err
	}
	acquirer, err := s.loadAcquirer(ctx, tx.AcquirerID)
	if err != nil {
		return nil, false, err
	}

	// Step 2: Charge
	result, err := s.gateway.CreateCharge(ctx, acquirer.SecretKey, gateway.ChargeRequest{
		Amount:       tx.Amount,
		Currency:     tx.Currency,
		Reference:    tx.Reference,
		Customer:     token.AcquirerRef,
		ReceiptEmail: tx.PartnerEmail,
	})
	if err != nil {
		logger.Error("vnpay: charge failed", err)
		return nil, false, model.NewGatewayFailureError(err)
	}

	// Step 3: Validate
	validated, err := s.ValidateTree(ctx, tx, result)
	if err != nil {
		return nil, false, err
	}

	return tx, validated, nil
}

// =====================================================
// SERVER TO SERVER REFUND
// =====================================================

// DoRefund refunds the charge held in a done transaction
//
// Business Logic Flow:
// 1. Load original transaction (must be a done charge with acquirer_reference)
// 2. Create a draft refund transaction pointing at it
// 3. Refund charge = original acquirer_reference, full amount
// 4. ValidateTree on the refund transaction
//
// Edge Cases:
// - A draft or done refund already exists -> PAY007
// - Gateway unreachable -> refund cancelled with the error, PAY010
func (s *paymentService) DoRefund(ctx context.Context, transactionID uuid.UUID) (*model.Transaction, bool, error) {
	// Step 1: Load original transaction
	original, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, false, err
	}
	if original.Type == model.TxTypeRefund {
		return nil, false, model.NewRefundNotAllowedError("a refund cannot be refunded")
	}
	if !original.IsDone() {
		return nil, false, model.NewRefundNotAllowedError(
			fmt.Sprintf("transaction %s is %s", original.Reference, original.State),
		)
	}
	if original.AcquirerReference == "" {
		return nil, false, model.NewRefundNotAllowedError(
			fmt.Sprintf("transaction %s has no acquirer reference", original.Reference),
		)
	}

	if err := s.checkNoActiveRefund(ctx, original); err != nil {
		return nil, false, err
	}

	acquirer, err := s.loadAcquirer(ctx, original.AcquirerID)
	if err != nil {
		return nil, false, err
	}

	// Step 2: Refund transaction
	refund := &model.Transaction{
		ID:           uuid.New(),
		Reference:    original.Reference + "-R" + ksuid.New().String(),
		AcquirerID:   original.AcquirerID,
		Amount:       original.Amount,
		Currency:     original.Currency,
		State:        model.TxStateDraft,
		Type:         model.TxTypeRefund,
		PartnerID:    original.PartnerID,
		PartnerEmail: original.PartnerEmail,
		PartnerName:  original.PartnerName,
		RefundOf:     &original.ID,
	}
	if err := s.txRepo.Create(ctx, refund); err != nil {
		if errors.Is(err, model.ErrRefundNotAllowed) {
			return nil, false, model.NewRefundNotAllowedError(
				fmt.Sprintf("transaction %s already has a refund", original.Reference),
			)
		}
		return nil, false, fmt.Errorf("failed to create refund transaction: %w", err)
	}

	// Step 3: Refund
	result, err := s.gateway.CreateRefund(ctx, acquirer.SecretKey, gateway.RefundRequest{
		Charge:    original.AcquirerReference,
		Amount:    refund.Amount,
		Currency:  refund.Currency,
		Reference: refund.Reference,
	})
	if err != nil {
		logger.Error("vnpay: refund failed", err)
		s.cancelUnsentRefund(ctx, refund, err)
		return nil, false, model.NewGatewayFailureError(err)
	}

	// Step 4: Validate
	validated, err := s.ValidateTree(ctx, refund, result)
	if err != nil {
		return nil, false, err
	}

	logger.Info("vnpay: refund processed", map[string]interface{}{
		"transaction_id": original.ID,
		"refund_id":      refund.ID,
		"validated":      validated,
	})

	return refund, validated, nil
}

// checkNoActiveRefund refuses a second refund while one is draft or done
func (s *paymentService) checkNoActiveRefund(ctx context.Context, original *model.Transaction) error {
	refunds, err := s.txRepo.FindRefunds(ctx, original.ID)
	if err != nil {
		return fmt.Errorf("failed to find refunds: %w", err)
	}

	for _, refund := range refunds {
		if refund.State == model.TxStateDraft || refund.State == model.TxStateDone {
			return model.NewRefundNotAllowedError(
				fmt.Sprintf("transaction %s already has refund %s (%s)", original.Reference, refund.Reference, refund.State),
			)
		}
	}
	return nil
}

// cancelUnsentRefund closes a refund whose request never reached the gateway
func (s *paymentService) cancelUnsentRefund(ctx context.Context, refund *model.Transaction, cause error) {
	now := s.now()
	message := fmt.Sprintf("Vnpay: refund request failed: %v", cause)

	ok, err := s.txRepo.MarkCancelled(ctx, refund.ID, "", message, now)
	if err != nil {
		logger.ErrorWithFields("failed to cancel unsent refund", err, map[string]interface{}{
			"refund_id": refund.ID,
		})
		return
	}
	if ok {
		refund.State = model.TxStateCancel
		refund.StateMessage = message
		refund.Date = &now
	}
}

// =====================================================
// CHECKOUT CHARGE
// =====================================================

// CreateCharge charges the card token obtained by the checkout
//
// Business Logic Flow:
// 1. Find the transaction by tx_ref (must be draft)
// 2. Charge with card = tokenid, receipt email = email
// 3. Record and process the answer as feedback
// 4. Redirect to return_url (default "/")
func (s *paymentService) CreateCharge(
	ctx context.Context,
	req model.CreateChargeRequest,
) (*model.CreateChargeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidInputError(err)
	}

	// Step 1: Find transaction
	tx, err := s.findByReference(ctx, req.TxRef)
	if err != nil {
		return nil, err
	}
	if !tx.IsDraft() {
		return nil, model.NewTransactionNotDraftError(tx.Reference, tx.State)
	}

	acquirer, err := s.loadAcquirer(ctx, tx.AcquirerID)
	if err != nil {
		return nil, err
	}

	// Step 2: Charge
	result, err := s.gateway.CreateCharge(ctx, acquirer.SecretKey, gateway.ChargeRequest{
		Amount:       tx.Amount,
		Currency:     tx.Currency,
		Reference:    tx.Reference,
		Card:         req.TokenID,
		ReceiptEmail: req.Email,
	})
	if err != nil {
		logger.Error("vnpay: charge failed", err)
		return nil, model.NewGatewayFailureError(err)
	}

	// Step 3: Feedback
	validated, err := s.HandleFeedback(ctx, result)
	if err != nil {
		return nil, err
	}

	// Step 4: Redirect
	redirect := req.ReturnURL
	if redirect == "" {
		redirect = model.DefaultReturnURL
	}

	return &model.CreateChargeResponse{
		RedirectURL:   redirect,
		TransactionID: tx.ID,
		Validated:     validated,
	}, nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *paymentService) loadAcquirer(ctx context.Context, id uuid.UUID) (*acquirerModel.Acquirer, error) {
	acquirer, err := s.acquirerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, acquirerModel.ErrAcquirerNotFound) {
			return nil, model.NewAcquirerNotConfiguredError(acquirerModel.NewAcquirerNotFoundError(id.String()))
		}
		return nil, fmt.Errorf("failed to get acquirer: %w", err)
	}
	if !acquirer.IsVnpay() {
		return nil, model.NewAcquirerNotConfiguredError(acquirerModel.NewUnsupportedProviderError(acquirer.Provider))
	}
	if acquirer.SecretKey == "" {
		return nil, model.NewAcquirerNotConfiguredError(acquirerModel.NewMissingCredentialsError(acquirer.Name))
	}
	return acquirer, nil
}

// activeAcquirer is the vnpay acquirer whose secret key signs feedback
func (s *paymentService) activeAcquirer(ctx context.Context) (*acquirerModel.Acquirer, error) {
	acquirer, err := s.acquirerRepo.GetByProvider(ctx, acquirerModel.ProviderVnpay)
	if err != nil {
		if errors.Is(err, acquirerModel.ErrAcquirerNotFound) {
			return nil, model.NewAcquirerNotConfiguredError(acquirerModel.NewAcquirerNotFoundError(acquirerModel.ProviderVnpay))
		}
		return nil, fmt.Errorf("failed to get acquirer: %w", err)
	}
	if !acquirer.IsActive {
		return nil, model.NewAcquirerNotConfiguredError(acquirerModel.NewAcquirerInactiveError(acquirer.Name))
	}
	if acquirer.SecretKey == "" {
		return nil, model.NewAcquirerNotConfiguredError(acquirerModel.NewMissingCredentialsError(acquirer.Name))
	}
	return acquirer, nil
}

func (s *paymentService) loadToken(ctx context.Context, id uuid.UUID) (*tokenModel.PaymentToken, error) {
	token, err := s.tokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, tokenModel.ErrTokenNotFound) {
			return nil, model.NewInvalidInputError(fmt.Errorf("payment token not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get payment token: %w", err)
	}
	return token, nil
}
