package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acquirerModel "vnpay-acquirer/internal/domains/acquirer/model"
	"vnpay-acquirer/internal/domains/payment/gateway"
	"vnpay-acquirer/internal/domains/payment/gateway/mock"
	"vnpay-acquirer/internal/domains/payment/gateway/vnpay"
	"vnpay-acquirer/internal/domains/payment/model"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
)

var fixedNow = time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *paymentService
	gw        *mock.MockGateway
	txs       *memTxRepo
	feedback  *memFeedbackRepo
	tokens    *memTokenRepo
	scheduler *recordingScheduler
	sender    *recordingSender
	acquirer  *acquirerModel.Acquirer
}

func newFixture() *fixture {
	acquirer := &acquirerModel.Acquirer{
		ID:             uuid.New(),
		Name:           "Vnpay",
		Provider:       acquirerModel.ProviderVnpay,
		SecretKey:      "sk_test_KJtHgNwt2KS3xM7QJPr4O5E8",
		PublishableKey: "pk_test_QSPnimmb4ZhtkEy3Uhdm4S6J",
		IsActive:       true,
	}

	f := &fixture{
		gw:        mock.NewMockGateway(),
		feedback:  newMemFeedbackRepo(),
		tokens:    newMemTokenRepo(),
		scheduler: &recordingScheduler{},
		sender:    &recordingSender{},
		acquirer:  acquirer,
	}
	f.txs = newMemTxRepo(f.tokens)

	svc := NewPaymentService(
		f.txs,
		f.feedback,
		&memAcquirerRepo{acquirers: map[uuid.UUID]*acquirerModel.Acquirer{acquirer.ID: acquirer}},
		f.tokens,
		f.gw,
		f.scheduler,
		f.sender,
	).(*paymentService)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc

	return f
}

// draft adds a draft transaction of 115.00 EUR
func (f *fixture) draft(t *testing.T, reference string, opts ...func(*model.Transaction)) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{
		ID:           uuid.New(),
		Reference:    reference,
		AcquirerID:   f.acquirer.ID,
		Amount:       decimal.RequireFromString("115.00"),
		Currency:     "EUR",
		State:        model.TxStateDraft,
		Type:         model.TxTypeForm,
		PartnerEmail: "norbert.buyer@example.com",
	}
	for _, opt := range opts {
		opt(tx)
	}
	require.NoError(t, f.txs.Create(context.Background(), tx))
	return tx
}

func (f *fixture) savedToken(t *testing.T) *tokenModel.PaymentToken {
	t.Helper()
	token := &tokenModel.PaymentToken{
		ID:          uuid.New(),
		AcquirerID:  f.acquirer.ID,
		PartnerID:   uuid.New(),
		AcquirerRef: "cus_9jNoXMUw6AvnxB",
		Name:        "XXXXXXXXXXXX4242 - Johndoe",
		Active:      true,
	}
	require.NoError(t, f.tokens.Create(context.Background(), token))
	return token
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *model.Transaction {
	t.Helper()
	tx, err := f.txs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tx
}

func succeededFeedback(reference string) *gateway.Object {
	return &gateway.Object{
		ID:       "ch_172xfnGMfVJxozLwEjSfpfxD",
		Object:   gateway.ObjectCharge,
		Status:   gateway.StatusSucceeded,
		Currency: "eur",
		Metadata: map[string]interface{}{"reference": reference},
	}
}

func failedFeedback(reference, message string) *gateway.Object {
	return &gateway.Object{
		ID:       "ch_failed",
		Object:   gateway.ObjectCharge,
		Status:   "failed",
		Metadata: map[string]interface{}{"reference": reference},
		Error:    &gateway.APIError{Type: "card_error", Message: message},
	}
}

// =====================================================
// FORM FEEDBACK
// =====================================================

func TestFormFeedback_Succeeded(t *testing.T) {
	f := newFixture()
	token := f.savedToken(t)
	tx := f.draft(t, "SO100-1", func(tx *model.Transaction) {
		tx.PaymentTokenID = &token.ID
		tx.CallbackURL = "https://erp.example.com/callback"
	})

	validated, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)
	assert.True(t, validated)

	got := f.reload(t, tx.ID)
	assert.Equal(t, model.TxStateDone, got.State)
	assert.Equal(t, "ch_172xfnGMfVJxozLwEjSfpfxD", got.AcquirerReference)
	require.NotNil(t, got.Date)
	assert.Equal(t, fixedNow, *got.Date)

	stored, err := f.tokens.GetByID(context.Background(), token.ID)
	require.NoError(t, err)
	assert.True(t, stored.Verified)

	assert.Equal(t, []uuid.UUID{tx.ID}, f.scheduler.scheduled)
}

func TestFormFeedback_Failed(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")

	validated, err := f.svc.FormFeedback(context.Background(),
		failedFeedback("SO100-1", "Your card's expiration year is invalid."))
	require.NoError(t, err)
	assert.False(t, validated)

	got := f.reload(t, tx.ID)
	assert.Equal(t, model.TxStateCancel, got.State)
	assert.Equal(t, "Your card's expiration year is invalid.", got.StateMessage)
	assert.Equal(t, "ch_failed", got.AcquirerReference)
	require.NotNil(t, got.Date)
	assert.Empty(t, f.scheduler.scheduled)
}

func TestFormFeedback_TerminalTransactionUnchanged(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")

	validated, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)
	require.True(t, validated)

	// a late failure for the same reference changes nothing
	validated, err = f.svc.FormFeedback(context.Background(), failedFeedback("SO100-1", "Your card was declined."))
	require.NoError(t, err)
	assert.True(t, validated)

	got := f.reload(t, tx.ID)
	assert.Equal(t, model.TxStateDone, got.State)
	assert.Empty(t, got.StateMessage)
	assert.Equal(t, "ch_172xfnGMfVJxozLwEjSfpfxD", got.AcquirerReference)
}

func TestFormFeedback_CancelledTransactionUnchanged(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")

	_, err := f.svc.FormFeedback(context.Background(), failedFeedback("SO100-1", "Your card was declined."))
	require.NoError(t, err)

	validated, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, model.TxStateCancel, f.reload(t, tx.ID).State)
}

func TestGetTxFromData_Errors(t *testing.T) {
	f := newFixture()
	f.draft(t, "SO100-1")
	f.txs.put(&model.Transaction{ID: uuid.New(), Reference: "DUP", State: model.TxStateDraft})
	f.txs.put(&model.Transaction{ID: uuid.New(), Reference: "DUP", State: model.TxStateDraft})

	tests := []struct {
		name    string
		data    *gateway.Object
		code    string
		message string
	}{
		{
			name: "no reference with gateway error",
			data: &gateway.Object{Error: &gateway.APIError{Message: "Your card was declined."}},
			code: model.ErrCodeNoReference,
			message: "We're sorry to report that the transaction has failed. " +
				"Vnpay gave us the following info about the problem: 'Your card was declined.' " +
				"Perhaps the problem can be solved by double-checking your credit card details, or contacting your bank?",
		},
		{
			name: "no reference without gateway error",
			data: &gateway.Object{},
			code: model.ErrCodeNoReference,
			message: "We're sorry to report that the transaction has failed. " +
				"Perhaps the problem can be solved by double-checking your credit card details, or contacting your bank?",
		},
		{
			name:    "unknown reference",
			data:    succeededFeedback("SO404"),
			code:    model.ErrCodeReferenceNotFound,
			message: "Vnpay: no order found for reference SO404",
		},
		{
			name:    "duplicated reference",
			data:    succeededFeedback("DUP"),
			code:    model.ErrCodeMultipleTransactions,
			message: "Vnpay: 2 orders found for reference DUP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GetTxFromData(context.Background(), tt.data)
			var payErr *model.PaymentError
			require.True(t, errors.As(err, &payErr))
			assert.Equal(t, tt.code, payErr.Code)
			assert.Equal(t, tt.message, payErr.Message)
		})
	}
}

func TestGetInvalidParameters(t *testing.T) {
	f := newFixture()
	tx := &model.Transaction{Reference: "SO100-1"}

	assert.Empty(t, f.svc.GetInvalidParameters(tx, succeededFeedback("SO100-1")))

	invalid := f.svc.GetInvalidParameters(tx, succeededFeedback("SO100-2"))
	require.Len(t, invalid, 1)
	assert.Equal(t, model.InvalidParameter{Name: "Reference", Received: "SO100-2", Expected: "SO100-1"}, invalid[0])
}

func TestValidateTree_NoErrorMessage(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")

	validated, err := f.svc.ValidateTree(context.Background(), tx, &gateway.Object{ID: "ch_1", Status: "pending"})
	require.NoError(t, err)
	assert.False(t, validated)
	assert.Equal(t, "Vnpay: transaction not completed (status: pending)", tx.StateMessage)
	assert.Equal(t, model.TxStateCancel, f.reload(t, tx.ID).State)
}

func TestValidateTree_StaleDraftCopy(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	stale := *tx

	validated, err := f.svc.ValidateTree(context.Background(), tx, succeededFeedback("SO100-1"))
	require.NoError(t, err)
	require.True(t, validated)

	// the stored row is no longer draft, the second writer loses
	validated, err = f.svc.ValidateTree(context.Background(), &stale, failedFeedback("SO100-1", "late"))
	require.NoError(t, err)
	assert.True(t, validated)

	got := f.reload(t, tx.ID)
	assert.Equal(t, model.TxStateDone, got.State)
	assert.Empty(t, got.StateMessage)
}

// =====================================================
// HANDLE FEEDBACK & RETRY
// =====================================================

func TestHandleFeedback_RecordsLog(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")

	validated, err := f.svc.HandleFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)
	assert.True(t, validated)

	log := f.feedback.only()
	require.NotNil(t, log)
	assert.True(t, log.IsProcessed)
	assert.Equal(t, 1, log.Attempts)
	assert.Equal(t, "SO100-1", log.Reference)
	require.NotNil(t, log.TransactionID)
	assert.Equal(t, tx.ID, *log.TransactionID)
	assert.Equal(t, "succeeded", log.Body["status"])

	logs, err := f.svc.ListFeedback(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestReceiveFeedback_Signed(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100")
	body := []byte(`{"id": "ch_172xfnGMfVJxozLwEjSfpfxD", "object": "charge", "status": "succeeded", "metadata": {"reference": "SO100"}}`)

	data, validated, err := f.svc.ReceiveFeedback(context.Background(), body, vnpay.GenerateSignature(body, f.acquirer.SecretKey))
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, "SO100", data.Reference())
	assert.Equal(t, model.TxStateDone, f.reload(t, tx.ID).State)
	require.NotNil(t, f.feedback.only())
}

func TestReceiveFeedback_ForgedLeavesDraft(t *testing.T) {
	forged := []byte(`{"id": "ch_forged", "status": "succeeded", "metadata": {"reference": "SO100"}}`)

	tests := []struct {
		name      string
		signature func(secret string) string
	}{
		{"unsigned", func(string) string { return "" }},
		{"garbage", func(string) string { return "deadbeef" }},
		{"other secret", func(string) string { return vnpay.GenerateSignature(forged, "sk_test_someoneelse") }},
		{"signed other body", func(secret string) string {
			return vnpay.GenerateSignature([]byte(`{"status": "failed", "metadata": {"reference": "SO100"}}`), secret)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tx := f.draft(t, "SO100", func(tx *model.Transaction) {
				tx.CallbackURL = "https://erp.example.com/callback"
			})

			_, validated, err := f.svc.ReceiveFeedback(context.Background(), forged, tt.signature(f.acquirer.SecretKey))
			assert.ErrorIs(t, err, model.ErrInvalidSignature)
			assert.False(t, validated)

			reloaded := f.reload(t, tx.ID)
			assert.Equal(t, model.TxStateDraft, reloaded.State)
			assert.Empty(t, reloaded.AcquirerReference)
			assert.Nil(t, f.feedback.only())
			assert.Empty(t, f.scheduler.scheduled)
		})
	}
}

func TestReceiveFeedback_AcquirerNotConfigured(t *testing.T) {
	f := newFixture()
	f.acquirer.IsActive = false
	body := []byte(`{"status": "succeeded", "metadata": {"reference": "SO100"}}`)

	_, _, err := f.svc.ReceiveFeedback(context.Background(), body, vnpay.GenerateSignature(body, f.acquirer.SecretKey))
	assert.ErrorIs(t, err, model.ErrAcquirerNotConfigured)
	assert.Nil(t, f.feedback.only())
}

func TestReceiveFeedback_SignedButNotJSON(t *testing.T) {
	f := newFixture()
	body := []byte(`not json`)

	_, _, err := f.svc.ReceiveFeedback(context.Background(), body, vnpay.GenerateSignature(body, f.acquirer.SecretKey))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Nil(t, f.feedback.only())
}

func TestHandleFeedback_UnknownReferenceIsRetried(t *testing.T) {
	f := newFixture()

	_, err := f.svc.HandleFeedback(context.Background(), succeededFeedback("SO200"))
	require.Error(t, err)

	log := f.feedback.only()
	require.NotNil(t, log)
	assert.False(t, log.IsProcessed)
	assert.Equal(t, 1, log.Attempts)
	require.NotNil(t, log.ProcessingError)
	assert.Equal(t, "PAY003: Vnpay: no order found for reference SO200 (no transaction for reference)", *log.ProcessingError)

	// the transaction shows up later, the retry job resolves the log
	tx := f.draft(t, "SO200")
	processed, err := f.svc.RetryFailedFeedback(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	log = f.feedback.only()
	assert.True(t, log.IsProcessed)
	assert.Equal(t, 2, log.Attempts)
	assert.Equal(t, model.TxStateDone, f.reload(t, tx.ID).State)
}

func TestRetryFailedFeedback_RespectsLimits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	exhausted := &model.FeedbackLog{
		ID:         uuid.New(),
		Body:       map[string]interface{}{"status": "succeeded", "metadata": map[string]interface{}{"reference": "SO1"}},
		Attempts:   model.MaxFeedbackAttempts,
		ReceivedAt: fixedNow.Add(-time.Hour),
	}
	expired := &model.FeedbackLog{
		ID:         uuid.New(),
		Body:       map[string]interface{}{"status": "succeeded", "metadata": map[string]interface{}{"reference": "SO1"}},
		ReceivedAt: fixedNow.Add(-25 * time.Hour),
	}
	require.NoError(t, f.feedback.Create(ctx, exhausted))
	require.NoError(t, f.feedback.Create(ctx, expired))
	f.draft(t, "SO1")

	processed, err := f.svc.RetryFailedFeedback(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	assert.False(t, exhausted.CanRetry(fixedNow))
	assert.False(t, expired.CanRetry(fixedNow))
}

// =====================================================
// SERVER TO SERVER
// =====================================================

func TestDoTransaction(t *testing.T) {
	f := newFixture()
	token := f.savedToken(t)
	tx := f.draft(t, "SO100-1", func(tx *model.Transaction) { tx.PaymentTokenID = &token.ID })

	got, validated, err := f.svc.DoTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, model.TxStateDone, got.State)
	assert.Equal(t, "ch_mock_1", got.AcquirerReference)

	require.Len(t, f.gw.Charges, 1)
	charge := f.gw.Charges[0]
	assert.Equal(t, "SO100-1", charge.Reference)
	assert.Equal(t, "cus_9jNoXMUw6AvnxB", charge.Customer)
	assert.Equal(t, "norbert.buyer@example.com", charge.ReceiptEmail)
	assert.Empty(t, charge.Card)
	assert.True(t, decimal.RequireFromString("115").Equal(charge.Amount))
	assert.Equal(t, []string{f.acquirer.SecretKey}, f.gw.SecretKeys)

	_, _, err = f.svc.DoTransaction(context.Background(), tx.ID)
	assert.ErrorIs(t, err, model.ErrTransactionNotDraft)
	assert.Len(t, f.gw.Charges, 1)
}

func TestDoTransaction_Declined(t *testing.T) {
	f := newFixture()
	token := f.savedToken(t)
	tx := f.draft(t, "SO100-1", func(tx *model.Transaction) { tx.PaymentTokenID = &token.ID })
	f.gw.SetFailCharge("Your card was declined.")

	got, validated, err := f.svc.DoTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.False(t, validated)
	assert.Equal(t, model.TxStateCancel, got.State)
	assert.Equal(t, "Your card was declined.", got.StateMessage)

	stored, err := f.tokens.GetByID(context.Background(), token.ID)
	require.NoError(t, err)
	assert.False(t, stored.Verified)
}

func TestDoTransaction_Errors(t *testing.T) {
	f := newFixture()
	noToken := f.draft(t, "SO-NOTOKEN")

	_, _, err := f.svc.DoTransaction(context.Background(), noToken.ID)
	assert.ErrorIs(t, err, model.ErrMissingPaymentToken)

	_, _, err = f.svc.DoTransaction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrTransactionNotFound)

	token := f.savedToken(t)
	tx := f.draft(t, "SO-TRANSPORT", func(tx *model.Transaction) { tx.PaymentTokenID = &token.ID })
	f.gw.SetTransportError(errors.New("dial tcp: connection refused"))
	_, _, err = f.svc.DoTransaction(context.Background(), tx.ID)
	assert.ErrorIs(t, err, model.ErrGatewayFailure)
	assert.Equal(t, model.TxStateDraft, f.reload(t, tx.ID).State)
}

func TestDoRefund(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	refund, validated, err := f.svc.DoRefund(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, model.TxTypeRefund, refund.Type)
	assert.Equal(t, model.TxStateDone, refund.State)
	assert.Equal(t, "re_mock_1", refund.AcquirerReference)
	require.NotNil(t, refund.RefundOf)
	assert.Equal(t, tx.ID, *refund.RefundOf)
	assert.True(t, strings.HasPrefix(refund.Reference, "SO100-1-R"))

	require.Len(t, f.gw.Refunds, 1)
	assert.Equal(t, "ch_172xfnGMfVJxozLwEjSfpfxD", f.gw.Refunds[0].Charge)
	assert.Equal(t, refund.Reference, f.gw.Refunds[0].Reference)
	assert.Equal(t, "EUR", f.gw.Refunds[0].Currency)

	// the original stays done
	assert.Equal(t, model.TxStateDone, f.reload(t, tx.ID).State)

	_, _, err = f.svc.DoRefund(context.Background(), refund.ID)
	assert.ErrorIs(t, err, model.ErrRefundNotAllowed)
}

func TestDoRefund_NotAllowed(t *testing.T) {
	f := newFixture()
	draft := f.draft(t, "SO-DRAFT")
	noRef := f.draft(t, "SO-NOREF", func(tx *model.Transaction) { tx.State = model.TxStateDone })

	_, _, err := f.svc.DoRefund(context.Background(), draft.ID)
	assert.ErrorIs(t, err, model.ErrRefundNotAllowed)

	_, _, err = f.svc.DoRefund(context.Background(), noRef.ID)
	assert.ErrorIs(t, err, model.ErrRefundNotAllowed)
	assert.Empty(t, f.gw.Refunds)
}

func TestDoRefund_Failed(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)
	f.gw.SetFailRefund("Charge ch_172xfnGMfVJxozLwEjSfpfxD has already been refunded.")

	refund, validated, err := f.svc.DoRefund(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.False(t, validated)
	assert.Equal(t, model.TxStateCancel, refund.State)
	assert.Equal(t, "Charge ch_172xfnGMfVJxozLwEjSfpfxD has already been refunded.", refund.StateMessage)
}

func TestDoRefund_TransportErrorCancelsRefund(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	f.gw.SetTransportError(errors.New("dial tcp: i/o timeout"))
	_, _, err = f.svc.DoRefund(context.Background(), tx.ID)
	assert.ErrorIs(t, err, model.ErrGatewayFailure)

	refunds := f.txs.refundsOf(tx.ID)
	require.Len(t, refunds, 1)
	assert.Equal(t, model.TxStateCancel, refunds[0].State)
	assert.Equal(t, "Vnpay: refund request failed: dial tcp: i/o timeout", refunds[0].StateMessage)

	// a cancelled refund does not block the next attempt
	f.gw.SetTransportError(nil)
	refund, validated, err := f.svc.DoRefund(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, model.TxStateDone, refund.State)
	assert.Len(t, f.txs.refundsOf(tx.ID), 2)
}

func TestDoRefund_OnlyOneActiveRefund(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	_, validated, err := f.svc.DoRefund(context.Background(), tx.ID)
	require.NoError(t, err)
	require.True(t, validated)

	for i := 0; i < 2; i++ {
		_, _, err = f.svc.DoRefund(context.Background(), tx.ID)
		assert.ErrorIs(t, err, model.ErrRefundNotAllowed)
	}
	assert.Len(t, f.gw.Refunds, 1)
	assert.Len(t, f.txs.refundsOf(tx.ID), 1)
}

func TestDoRefund_DraftRefundBlocks(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	f.draft(t, "SO100-1-Rpending", func(refund *model.Transaction) {
		refund.Type = model.TxTypeRefund
		refund.RefundOf = &tx.ID
	})

	_, _, err = f.svc.DoRefund(context.Background(), tx.ID)
	assert.ErrorIs(t, err, model.ErrRefundNotAllowed)
	assert.Empty(t, f.gw.Refunds)
}

func TestDoRefund_DeclinedRefundCanBeRetried(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	f.gw.SetFailRefund("Your card issuer is unavailable.")
	_, validated, err := f.svc.DoRefund(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.False(t, validated)

	f.gw.SetFailRefund("")
	_, validated, err = f.svc.DoRefund(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, validated)
}

// =====================================================
// CHECKOUT CHARGE
// =====================================================

func TestCreateCharge(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")

	res, err := f.svc.CreateCharge(context.Background(), model.CreateChargeRequest{
		TokenID: "tok_visa",
		Email:   " norbert.buyer@example.com ",
		TxRef:   "SO100-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "/", res.RedirectURL)
	assert.True(t, res.Validated)
	assert.Equal(t, tx.ID, res.TransactionID)

	require.Len(t, f.gw.Charges, 1)
	assert.Equal(t, "tok_visa", f.gw.Charges[0].Card)
	assert.Empty(t, f.gw.Charges[0].Customer)

	assert.Equal(t, model.TxStateDone, f.reload(t, tx.ID).State)
	assert.True(t, f.feedback.only().IsProcessed)
}

func TestCreateCharge_DeclinedRedirects(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1")
	f.gw.SetFailCharge("Your card's expiration year is invalid.")

	res, err := f.svc.CreateCharge(context.Background(), model.CreateChargeRequest{
		TokenID:   "tok_visa",
		TxRef:     "SO100-1",
		ReturnURL: "/shop/payment/validate",
	})
	require.NoError(t, err)
	assert.False(t, res.Validated)
	assert.Equal(t, "/shop/payment/validate", res.RedirectURL)
	assert.Equal(t, model.TxStateCancel, f.reload(t, tx.ID).State)
}

func TestCreateCharge_Errors(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateCharge(context.Background(), model.CreateChargeRequest{TxRef: "SO1"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = f.svc.CreateCharge(context.Background(), model.CreateChargeRequest{TokenID: "tok_visa", TxRef: "SO404"})
	assert.ErrorIs(t, err, model.ErrReferenceNotFound)
	assert.Empty(t, f.gw.Charges)
}

// =====================================================
// CREATE TRANSACTION
// =====================================================

func TestCreateTransaction(t *testing.T) {
	f := newFixture()

	tx, err := f.svc.CreateTransaction(context.Background(), model.CreateTransactionRequest{
		AcquirerID: f.acquirer.ID,
		Reference:  "SO100",
		Amount:     decimal.RequireFromString("115.00"),
		Currency:   "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "SO100", tx.Reference)
	assert.Equal(t, "EUR", tx.Currency)
	assert.Equal(t, model.TxStateDraft, tx.State)
	assert.Equal(t, model.TxTypeForm, tx.Type)

	_, err = f.svc.CreateTransaction(context.Background(), model.CreateTransactionRequest{
		AcquirerID: f.acquirer.ID,
		Reference:  "SO100",
		Amount:     decimal.NewFromInt(1),
		Currency:   "EUR",
	})
	assert.ErrorIs(t, err, model.ErrDuplicateReference)
}

func TestCreateTransaction_GeneratedReference(t *testing.T) {
	f := newFixture()

	tx, err := f.svc.CreateTransaction(context.Background(), model.CreateTransactionRequest{
		AcquirerID: f.acquirer.ID,
		Amount:     decimal.NewFromInt(4700),
		Currency:   "JPY",
		Type:       model.TxTypeServer2Server,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tx.Reference, "VNP-"))
	assert.Len(t, tx.Reference, len("VNP-")+27)
}

func TestCreateTransaction_Invalid(t *testing.T) {
	f := newFixture()
	unknownToken := uuid.New()

	tests := []struct {
		name string
		req  model.CreateTransactionRequest
		want error
	}{
		{"negative amount", model.CreateTransactionRequest{AcquirerID: f.acquirer.ID, Amount: decimal.NewFromInt(-1), Currency: "EUR"}, model.ErrInvalidInput},
		{"bad type", model.CreateTransactionRequest{AcquirerID: f.acquirer.ID, Amount: decimal.NewFromInt(1), Currency: "EUR", Type: "refund"}, model.ErrInvalidInput},
		{"bad callback", model.CreateTransactionRequest{AcquirerID: f.acquirer.ID, Amount: decimal.NewFromInt(1), Currency: "EUR", CallbackURL: "not a url"}, model.ErrInvalidInput},
		{"unknown acquirer", model.CreateTransactionRequest{AcquirerID: uuid.New(), Amount: decimal.NewFromInt(1), Currency: "EUR"}, model.ErrAcquirerNotConfigured},
		{"unknown token", model.CreateTransactionRequest{AcquirerID: f.acquirer.ID, Amount: decimal.NewFromInt(1), Currency: "EUR", PaymentTokenID: &unknownToken}, model.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTransaction(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// =====================================================
// CALLBACK
// =====================================================

func TestExecuteCallback(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1", func(tx *model.Transaction) {
		tx.CallbackURL = "https://erp.example.com/callback"
	})

	// not done yet: nothing sent
	require.NoError(t, f.svc.ExecuteCallback(context.Background(), tx.ID))
	assert.Empty(t, f.sender.sent)

	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.ExecuteCallback(context.Background(), tx.ID))
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "https://erp.example.com/callback", f.sender.sent[0].url)
	assert.Equal(t, model.CallbackPayload{
		Reference:         "SO100-1",
		State:             model.TxStateDone,
		AcquirerReference: "ch_172xfnGMfVJxozLwEjSfpfxD",
	}, f.sender.sent[0].payload)
	assert.True(t, f.reload(t, tx.ID).CallbackDone)

	// executed once
	require.NoError(t, f.svc.ExecuteCallback(context.Background(), tx.ID))
	assert.Len(t, f.sender.sent, 1)
}

func TestExecuteCallback_SendFailure(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1", func(tx *model.Transaction) {
		tx.CallbackURL = "https://erp.example.com/callback"
	})
	_, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)

	f.sender.err = errors.New("503 Service Unavailable")
	err = f.svc.ExecuteCallback(context.Background(), tx.ID)
	require.Error(t, err)
	assert.False(t, f.reload(t, tx.ID).CallbackDone)
}

func TestRetryPendingCallbacks_AfterQueueFailure(t *testing.T) {
	f := newFixture()
	tx := f.draft(t, "SO100-1", func(tx *model.Transaction) {
		tx.CallbackURL = "https://erp.example.com/callback"
	})
	f.draft(t, "SO100-2")

	f.scheduler.fail(errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))
	validated, err := f.svc.FormFeedback(context.Background(), succeededFeedback("SO100-1"))
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, model.TxStateDone, f.reload(t, tx.ID).State)
	assert.Empty(t, f.scheduler.scheduled)

	// still down: nothing queued, nothing lost
	scheduled, err := f.svc.RetryPendingCallbacks(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, scheduled)

	f.scheduler.fail(nil)
	scheduled, err = f.svc.RetryPendingCallbacks(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, scheduled)
	assert.Equal(t, []uuid.UUID{tx.ID}, f.scheduler.scheduled)

	require.NoError(t, f.svc.ExecuteCallback(context.Background(), tx.ID))
	scheduled, err = f.svc.RetryPendingCallbacks(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, scheduled)
}
