package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu       sync.RWMutex
	wallets  map[string]*domain.Wallet
	txns     map[string][]domain.WalletTransaction
	applied  map[string]bool  // walletRef + referenceID dedup guard
	failNext map[string]error // one-shot ApplyDelta fault per wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets:  make(map[string]*domain.Wallet),
		txns:     make(map[string][]domain.WalletTransaction),
		applied:  make(map[string]bool),
		failNext: make(map[string]error),
	}
}

// failNextApply makes the next ApplyDelta against ref fail once, simulating
// a transient store fault mid-settlement.
func (r *inMemoryWalletRepo) failNextApply(ref domain.WalletRef, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext[ref.String()] = err
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := w.Ref().String()
	if _, ok := r.wallets[key]; ok {
		return apperror.ErrWalletExists()
	}
	cp := *w
	r.wallets[key] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByRef(ctx context.Context, ref domain.WalletRef) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[ref.String()]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) ApplyDelta(ctx context.Context, ref domain.WalletRef, delta int64, referenceID string, txType domain.TransactionType) (*domain.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ref.String()
	if err, ok := r.failNext[key]; ok {
		delete(r.failNext, key)
		return nil, err
	}
	w, ok := r.wallets[key]
	if !ok {
		return nil, apperror.ErrWalletNotFound(ref.String())
	}
	guard := key + "|" + referenceID
	if r.applied[guard] {
		return nil, apperror.ErrDuplicateReference(referenceID)
	}

	w.Balance += delta
	w.UpdatedAt = time.Now().UTC()
	txn := domain.WalletTransaction{
		ID:              uuid.New(),
		WalletID:        w.ID,
		Amount:          delta,
		BalanceAfter:    w.Balance,
		TransactionType: txType,
		ReferenceID:     referenceID,
		CreatedAt:       w.UpdatedAt,
	}
	r.txns[key] = append(r.txns[key], txn)
	r.applied[guard] = true
	return &txn, nil
}

func (r *inMemoryWalletRepo) PeriodSpend(ctx context.Context, ref domain.WalletRef, periodStart time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, txn := range r.txns[ref.String()] {
		if txn.Amount < 0 && !txn.CreatedAt.Before(periodStart) {
			total -= txn.Amount
		}
	}
	return total, nil
}

func (r *inMemoryWalletRepo) Deactivate(ctx context.Context, ref domain.WalletRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ref.String()]
	if !ok {
		return apperror.ErrWalletNotFound(ref.String())
	}
	w.IsActive = false
	return nil
}

// --- In-Memory WAL Repo ---

type inMemoryWALRepo struct {
	mu      sync.RWMutex
	entries map[string]*domain.WALEntry
}

func newInMemoryWALRepo() *inMemoryWALRepo {
	return &inMemoryWALRepo{entries: make(map[string]*domain.WALEntry)}
}

func (r *inMemoryWALRepo) Record(ctx context.Context, entry *domain.WALEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.TraceID]; ok {
		return apperror.ErrDuplicateReference(entry.TraceID)
	}
	cp := *entry
	r.entries[entry.TraceID] = &cp
	return nil
}

func (r *inMemoryWALRepo) GetByTraceID(ctx context.Context, traceID string) (*domain.WALEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[traceID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryWALRepo) Confirm(ctx context.Context, traceID string, actualAmount int64) (*domain.WALEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[traceID]
	if !ok {
		return nil, apperror.ErrEntryNotFound(traceID)
	}
	if e.Status != domain.WALStatusPending {
		return nil, apperror.ErrEntryStateConflict(traceID, string(e.Status))
	}
	e.Status = domain.WALStatusConfirmed
	e.ActualAmount = &actualAmount
	e.UpdatedAt = time.Now().UTC()
	cp := *e
	return &cp, nil
}

func (r *inMemoryWALRepo) Fail(ctx context.Context, traceID string, reason string) (*domain.WALEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[traceID]
	if !ok {
		return nil, apperror.ErrEntryNotFound(traceID)
	}
	if e.Status != domain.WALStatusPending {
		return nil, apperror.ErrEntryStateConflict(traceID, string(e.Status))
	}
	e.Status = domain.WALStatusFailed
	e.Reason = &reason
	e.UpdatedAt = time.Now().UTC()
	cp := *e
	return &cp, nil
}

func (r *inMemoryWALRepo) MarkSettled(ctx context.Context, traceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[traceID]
	if !ok || e.Status != domain.WALStatusConfirmed {
		return false, nil
	}
	e.Status = domain.WALStatusSettled
	e.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *inMemoryWALRepo) ListUnsettled(ctx context.Context, olderThan time.Duration) ([]domain.WALEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var out []domain.WALEntry
	for _, e := range r.entries {
		if e.ReviewFlagged {
			continue
		}
		if e.Status != domain.WALStatusPending && e.Status != domain.WALStatusConfirmed {
			continue
		}
		if e.CreatedAt.After(cutoff) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryWALRepo) RecordAttempt(ctx context.Context, traceID string, flagForReview bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[traceID]
	if !ok {
		return apperror.ErrEntryNotFound(traceID)
	}
	e.Attempts++
	e.ReviewFlagged = e.ReviewFlagged || flagForReview
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// backdate rewinds an entry's creation time, simulating a charge whose
// caller vanished long ago.
func (r *inMemoryWALRepo) backdate(traceID string, age time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[traceID]; ok {
		e.CreatedAt = e.CreatedAt.Add(-age)
	}
}
