package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScopeType identifies the budget level a wallet belongs to.
type ScopeType string

const (
	ScopeUser       ScopeType = "user"
	ScopeDepartment ScopeType = "department"
	ScopeTenant     ScopeType = "tenant"
)

// rank orders scopes from most specific to least specific.
func (s ScopeType) rank() int {
	switch s {
	case ScopeUser:
		return 0
	case ScopeDepartment:
		return 1
	case ScopeTenant:
		return 2
	}
	return -1
}

// Valid reports whether the scope type is one of the known levels.
func (s ScopeType) Valid() bool {
	return s.rank() >= 0
}

// WalletRef identifies exactly one wallet: one per scope per tenant.
type WalletRef struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Scope    ScopeType `json:"scope"`
	ScopeID  uuid.UUID `json:"scope_id"`
}

// String renders a stable identifier used in cache keys and logs.
func (r WalletRef) String() string {
	return fmt.Sprintf("%s:%s:%s", r.TenantID, r.Scope, r.ScopeID)
}

// ScopeChain is the ordered set of wallets a request is checked against,
// most specific first (user, department, tenant).
type ScopeChain []WalletRef

// Validate checks ordering and tenant consistency. Chains may be shorter
// than three entries (e.g. a tenant without departments) but must always
// narrow from specific to broad and stay within one tenant.
func (c ScopeChain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("scope chain is empty")
	}
	for i, ref := range c {
		if !ref.Scope.Valid() {
			return fmt.Errorf("unknown scope type %q at position %d", ref.Scope, i)
		}
		if ref.TenantID != c[0].TenantID {
			return fmt.Errorf("scope chain spans multiple tenants")
		}
		if i > 0 && ref.Scope.rank() <= c[i-1].Scope.rank() {
			return fmt.Errorf("scope chain not ordered most-specific-first at position %d", i)
		}
	}
	return nil
}

// UserID returns the scope id of the user-level wallet, if the chain has one.
func (c ScopeChain) UserID() (uuid.UUID, bool) {
	for _, ref := range c {
		if ref.Scope == ScopeUser {
			return ref.ScopeID, true
		}
	}
	return uuid.Nil, false
}

// Wallet is the durable balance record for one scope. Balance holds the
// last settled value in micro-units of Currency; in-flight reservations
// live in the hot spend cache, not here.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Scope     ScopeType `json:"scope"`
	ScopeID   uuid.UUID `json:"scope_id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref returns the scope identity of this wallet.
func (w *Wallet) Ref() WalletRef {
	return WalletRef{TenantID: w.TenantID, Scope: w.Scope, ScopeID: w.ScopeID}
}

// PeriodLabel formats the accounting window a timestamp falls into.
// period is "monthly" or "daily"; labels are UTC-based so that all
// replicas agree on window boundaries.
func PeriodLabel(period string, t time.Time) string {
	t = t.UTC()
	if period == "daily" {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// PeriodStart returns the UTC instant the accounting window containing t
// opened.
func PeriodStart(period string, t time.Time) time.Time {
	t = t.UTC()
	if period == "daily" {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
