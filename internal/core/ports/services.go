package ports

import (
	"context"

	"agentshield-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// ReserveStatus reports how a hot-cache reservation attempt ended.
type ReserveStatus int

const (
	// ReserveOK means the amount was atomically added to the period counter.
	ReserveOK ReserveStatus = iota
	// ReserveDenied means the wallet lacked availability; nothing was written.
	ReserveDenied
	// ReserveUnseeded means the cache has no balance for the wallet yet;
	// the caller must seed it from the wallet store and retry.
	ReserveUnseeded
)

// ReserveResult carries the outcome of one per-wallet reservation.
type ReserveResult struct {
	Status    ReserveStatus
	Remaining int64 // availability left after the reservation (ReserveOK)
	Shortfall int64 // amount by which the request exceeded availability (ReserveDenied)
}

// SpendCache is the low-latency store of current-period spend counters and
// read-through balances used for authorization checks. It is not
// authoritative: counters are rebuilt from the wallet store and unsettled
// WAL entries when missing.
type SpendCache interface {
	// Reserve performs the atomic check-then-deduct for one wallet:
	// deny if spent+amount exceeds the cached balance, otherwise add
	// amount to the period counter. Single atomic operation per wallet.
	Reserve(ctx context.Context, ref domain.WalletRef, period string, amount int64) (*ReserveResult, error)
	// Release returns a previously reserved amount to the counter.
	Release(ctx context.Context, ref domain.WalletRef, period string, amount int64) error
	// SeedBalance installs the settled balance for a wallet, plus any
	// already-reserved spend carried by unsettled WAL entries.
	SeedBalance(ctx context.Context, ref domain.WalletRef, period string, balance, reservedSpend int64) error
	// ApplySettlement releases the reservation and moves the cached
	// balance to its new settled value in one round trip.
	ApplySettlement(ctx context.Context, ref domain.WalletRef, period string, reserved, newBalance int64) error
	// PeriodSpend reads the current counter; zero when absent.
	PeriodSpend(ctx context.Context, ref domain.WalletRef, period string) (int64, error)
}

// VelocityLimiter caps request rates per user ahead of budget checks.
type VelocityLimiter interface {
	// Allow returns false when the user exceeded the per-minute budget.
	Allow(ctx context.Context, userID uuid.UUID, limit int64) (bool, error)
}

// ReceiptEmitter consumes confirmed charges for signed-receipt generation.
// Implementations sign and persist downstream; the ledger core only hands
// off the confirmed tuple.
type ReceiptEmitter interface {
	Emit(ctx context.Context, receipt domain.Receipt) error
}

// AuthorizeRequest is the inbound contract from the request-handling layer.
type AuthorizeRequest struct {
	Chain   domain.ScopeChain
	Amount  int64  // estimated cost, micro-units, >= 0
	TraceID string // idempotency key, unique per logical request
}

// BudgetAuthorizer is the waterfall authorization entry point.
type BudgetAuthorizer interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*domain.Decision, error)
	// Confirm records the actual execution cost for an authorized charge.
	Confirm(ctx context.Context, traceID string, actualAmount int64) error
	// Fail voids an authorized charge and releases its reservation.
	Fail(ctx context.Context, traceID string, reason string) error
}

// WalletAdminService covers provisioning-time operations: these run from
// administrative surfaces, never from the request-handling hot path.
type WalletAdminService interface {
	CreateWallet(ctx context.Context, ref domain.WalletRef, initialBalance int64, currency string) (*domain.Wallet, error)
	Topup(ctx context.Context, ref domain.WalletRef, amount int64, referenceID string) (*domain.WalletTransaction, error)
	// GetBalance returns the settled balance and the hot-period spend.
	GetBalance(ctx context.Context, ref domain.WalletRef) (balance int64, periodSpend int64, err error)
	// Deactivate soft-deletes a wallet; authorization denies on it afterwards.
	Deactivate(ctx context.Context, ref domain.WalletRef) error
}
