package ports

import (
	"context"
	"time"

	"agentshield-ledger/internal/core/domain"
)

// WalletRepository is the durable wallet store: source of truth for settled
// balances plus the append-only transaction ledger.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByRef(ctx context.Context, ref domain.WalletRef) (*domain.Wallet, error)
	// ApplyDelta atomically applies one signed delta to a wallet and appends
	// the matching ledger row. The same referenceID is applied at most once
	// per wallet; a repeat returns apperror.ErrDuplicateReference. This is
	// the idempotency guard that makes settlement safe to re-run.
	ApplyDelta(ctx context.Context, ref domain.WalletRef, delta int64, referenceID string, txType domain.TransactionType) (*domain.WalletTransaction, error)
	// PeriodSpend sums settled spend (negative deltas) since periodStart,
	// used to rebuild hot counters after a cache wipe.
	PeriodSpend(ctx context.Context, ref domain.WalletRef, periodStart time.Time) (int64, error)
	Deactivate(ctx context.Context, ref domain.WalletRef) error
}

// WALRepository is the durable write-ahead ledger of provisional charges,
// keyed by trace id.
type WALRepository interface {
	// Record persists a new PENDING entry. It must be durable before the
	// authorizer reports ALLOW; this is the crash-safety boundary.
	Record(ctx context.Context, entry *domain.WALEntry) error
	GetByTraceID(ctx context.Context, traceID string) (*domain.WALEntry, error)
	// Confirm moves PENDING -> CONFIRMED and records the true execution cost.
	Confirm(ctx context.Context, traceID string, actualAmount int64) (*domain.WALEntry, error)
	// Fail moves PENDING -> FAILED with a reason.
	Fail(ctx context.Context, traceID string, reason string) (*domain.WALEntry, error)
	// MarkSettled moves CONFIRMED -> SETTLED. Returns false when the entry
	// was not in CONFIRMED state, i.e. a concurrent worker got there first.
	MarkSettled(ctx context.Context, traceID string) (bool, error)
	// ListUnsettled returns PENDING and CONFIRMED entries older than the
	// threshold, excluding entries parked for manual review.
	ListUnsettled(ctx context.Context, olderThan time.Duration) ([]domain.WALEntry, error)
	// RecordAttempt bumps the settlement attempt counter, optionally
	// parking the entry for manual review.
	RecordAttempt(ctx context.Context, traceID string, flagForReview bool) error
}
