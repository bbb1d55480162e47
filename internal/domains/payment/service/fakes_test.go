package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	acquirerModel "vnpay-acquirer/internal/domains/acquirer/model"
	"vnpay-acquirer/internal/domains/payment/model"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
)

// =====================================================
// IN-MEMORY REPOSITORIES
// =====================================================

type memTxRepo struct {
	mu     sync.Mutex
	txs    map[uuid.UUID]*model.Transaction
	tokens *memTokenRepo
}

func newMemTxRepo(tokens *memTokenRepo) *memTxRepo {
	return &memTxRepo{txs: map[uuid.UUID]*model.Transaction{}, tokens: tokens}
}

func (r *memTxRepo) Create(ctx context.Context, tx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.Reference == tx.Reference {
			return model.ErrDuplicateReference
		}
		if tx.RefundOf != nil && existing.RefundOf != nil && *existing.RefundOf == *tx.RefundOf &&
			existing.State != model.TxStateCancel {
			return model.ErrRefundNotAllowed
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	r.put(tx)
	return nil
}

// put stores a copy without any uniqueness check
func (r *memTxRepo) put(tx *model.Transaction) {
	cp := *tx
	r.txs[tx.ID] = &cp
}

func (r *memTxRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return nil, model.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTxRepo) FindByReference(ctx context.Context, reference string) ([]*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Transaction
	for _, t := range r.txs {
		if t.Reference == reference {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTxRepo) FindRefunds(ctx context.Context, originalID uuid.UUID) ([]*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Transaction
	for _, t := range r.txs {
		if t.RefundOf != nil && *t.RefundOf == originalID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memTxRepo) ListPendingCallbacks(ctx context.Context, limit int) ([]*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Transaction
	for _, t := range r.txs {
		if t.State == model.TxStateDone && t.CallbackURL != "" && !t.CallbackDone {
			cp := *t
			out = append(out, &cp)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// refundsOf lists the refunds of a charge in any state
func (r *memTxRepo) refundsOf(originalID uuid.UUID) []*model.Transaction {
	refunds, _ := r.FindRefunds(context.Background(), originalID)
	return refunds
}

func (r *memTxRepo) MarkDone(ctx context.Context, id uuid.UUID, acquirerReference string, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok || t.State != model.TxStateDraft {
		return false, nil
	}
	t.State = model.TxStateDone
	t.AcquirerReference = acquirerReference
	t.Date = &date
	if t.PaymentTokenID != nil {
		r.tokens.verify(*t.PaymentTokenID)
	}
	return true, nil
}

func (r *memTxRepo) MarkCancelled(ctx context.Context, id uuid.UUID, acquirerReference, stateMessage string, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok || t.State != model.TxStateDraft {
		return false, nil
	}
	t.State = model.TxStateCancel
	t.AcquirerReference = acquirerReference
	t.StateMessage = stateMessage
	t.Date = &date
	return true, nil
}

func (r *memTxRepo) MarkCallbackDone(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return model.ErrTransactionNotFound
	}
	t.CallbackDone = true
	return nil
}

type memFeedbackRepo struct {
	mu   sync.Mutex
	logs map[uuid.UUID]*model.FeedbackLog
}

func newMemFeedbackRepo() *memFeedbackRepo {
	return &memFeedbackRepo{logs: map[uuid.UUID]*model.FeedbackLog{}}
}

func (r *memFeedbackRepo) Create(ctx context.Context, log *model.FeedbackLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs[log.ID] = &cp
	return nil
}

func (r *memFeedbackRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.FeedbackLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, model.ErrFeedbackLogNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memFeedbackRepo) MarkProcessed(ctx context.Context, id uuid.UUID, transactionID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return model.ErrFeedbackLogNotFound
	}
	now := time.Now()
	l.IsProcessed = true
	l.ProcessingError = nil
	l.Attempts++
	l.ProcessedAt = &now
	if transactionID != nil {
		l.TransactionID = transactionID
	}
	return nil
}

func (r *memFeedbackRepo) MarkProcessingError(ctx context.Context, id uuid.UUID, transactionID *uuid.UUID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return model.ErrFeedbackLogNotFound
	}
	l.ProcessingError = &errorMsg
	l.Attempts++
	if transactionID != nil {
		l.TransactionID = transactionID
	}
	return nil
}

func (r *memFeedbackRepo) GetRetryable(ctx context.Context, since time.Time, maxAttempts, limit int) ([]*model.FeedbackLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.FeedbackLog
	for _, l := range r.logs {
		if !l.IsProcessed && l.Attempts < maxAttempts && !l.ReceivedAt.Before(since) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memFeedbackRepo) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.FeedbackLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.FeedbackLog
	for _, l := range r.logs {
		if l.TransactionID != nil && *l.TransactionID == transactionID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// only returns the single log of a test that recorded one
func (r *memFeedbackRepo) only() *model.FeedbackLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		return l
	}
	return nil
}

type memAcquirerRepo struct {
	acquirers map[uuid.UUID]*acquirerModel.Acquirer
}

func (r *memAcquirerRepo) GetByID(ctx context.Context, id uuid.UUID) (*acquirerModel.Acquirer, error) {
	a, ok := r.acquirers[id]
	if !ok {
		return nil, acquirerModel.ErrAcquirerNotFound
	}
	return a, nil
}

func (r *memAcquirerRepo) GetByProvider(ctx context.Context, provider string) (*acquirerModel.Acquirer, error) {
	for _, a := range r.acquirers {
		if a.Provider == provider {
			return a, nil
		}
	}
	return nil, acquirerModel.ErrAcquirerNotFound
}

func (r *memAcquirerRepo) UpdateCredentials(ctx context.Context, id uuid.UUID, secretKey, publishableKey string, imageURL *string) error {
	return nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*tokenModel.PaymentToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[uuid.UUID]*tokenModel.PaymentToken{}}
}

func (r *memTokenRepo) Create(ctx context.Context, token *tokenModel.PaymentToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.ID] = &cp
	return nil
}

func (r *memTokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*tokenModel.PaymentToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, tokenModel.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*tokenModel.PaymentToken, error) {
	return nil, nil
}

func (r *memTokenRepo) verify(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok {
		t.Verified = true
	}
}

// =====================================================
// CALLBACK FAKES
// =====================================================

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
	err       error
}

func (s *recordingScheduler) ScheduleCallback(ctx context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, tx.ID)
	return nil
}

func (s *recordingScheduler) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type sentCallback struct {
	url     string
	payload model.CallbackPayload
}

type recordingSender struct {
	sent []sentCallback
	err  error
}

func (s *recordingSender) Send(ctx context.Context, url string, payload model.CallbackPayload) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentCallback{url: url, payload: payload})
	return nil
}
