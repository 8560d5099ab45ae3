package domain

import (
	"time"

	"github.com/google/uuid"
)

// WALStatus is the lifecycle state of a provisional charge.
type WALStatus string

const (
	WALStatusPending   WALStatus = "PENDING"   // authorized, execution in flight
	WALStatusConfirmed WALStatus = "CONFIRMED" // actual cost known, awaiting settlement
	WALStatusFailed    WALStatus = "FAILED"    // execution failed or abandoned, reservation released
	WALStatusSettled   WALStatus = "SETTLED"   // durably applied to the wallet store
)

// WALEntry is one authorized-but-not-yet-settled spend, written durably
// before the authorizer reports ALLOW. TraceID is the caller's idempotency
// key, globally unique per logical request.
type WALEntry struct {
	ID              uuid.UUID  `json:"id"`
	TraceID         string     `json:"trace_id"`
	ScopeChain      ScopeChain `json:"scope_chain"`
	EstimatedAmount int64      `json:"estimated_amount"`
	ActualAmount    *int64     `json:"actual_amount,omitempty"`
	Status          WALStatus  `json:"status"`
	Reason          *string    `json:"reason,omitempty"`
	Attempts        int        `json:"attempts"`
	ReviewFlagged   bool       `json:"review_flagged"`
	// Unreserved marks a charge admitted without a cache reservation
	// (fail-open while the cache was unreachable). Settlement and reversal
	// must not release what was never reserved.
	Unreserved bool      `json:"unreserved,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChargeAmount is the amount settlement applies: the actual execution cost
// when known, otherwise the estimate.
func (e *WALEntry) ChargeAmount() int64 {
	if e.ActualAmount != nil {
		return *e.ActualAmount
	}
	return e.EstimatedAmount
}

// IsTerminal reports whether the entry has reached a final state.
func (e *WALEntry) IsTerminal() bool {
	return e.Status == WALStatusSettled || e.Status == WALStatusFailed
}
