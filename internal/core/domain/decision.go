package domain

import "github.com/google/uuid"

// DecisionOutcome is the authorization verdict.
type DecisionOutcome string

const (
	DecisionAllow DecisionOutcome = "ALLOW"
	DecisionDeny  DecisionOutcome = "DENY"
)

// Decision is the typed result of a waterfall authorization. A deny always
// names the first exhausted scope and the shortfall, so the caller can pick
// a cheaper execution path or reject outright.
type Decision struct {
	Outcome     DecisionOutcome `json:"outcome"`
	WALEntryID  uuid.UUID       `json:"wal_entry_id,omitempty"`
	TraceID     string          `json:"trace_id"`
	FailedScope ScopeType       `json:"failed_scope,omitempty"`
	Shortfall   int64           `json:"shortfall,omitempty"`
}

// Allowed reports whether the request may proceed.
func (d *Decision) Allowed() bool {
	return d.Outcome == DecisionAllow
}

// NewAllow builds an approval carrying the durable WAL entry id.
func NewAllow(traceID string, walEntryID uuid.UUID) *Decision {
	return &Decision{Outcome: DecisionAllow, TraceID: traceID, WALEntryID: walEntryID}
}

// NewDeny builds a denial naming the exhausted scope and the amount by
// which the request exceeded its availability.
func NewDeny(traceID string, scope ScopeType, shortfall int64) *Decision {
	return &Decision{Outcome: DecisionDeny, TraceID: traceID, FailedScope: scope, Shortfall: shortfall}
}
