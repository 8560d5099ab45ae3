package domain

import "time"

// Receipt is the handoff payload for signed-receipt generation, emitted
// once a WAL entry is confirmed with its actual cost. Signing and storage
// of the final record happen downstream.
type Receipt struct {
	TraceID      string     `json:"trace_id"`
	ActualAmount int64      `json:"actual_amount"`
	ScopeChain   ScopeChain `json:"scope_chain"`
	ConfirmedAt  time.Time  `json:"confirmed_at"`
}
