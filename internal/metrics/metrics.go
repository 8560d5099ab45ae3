// Package metrics exposes Prometheus collectors for the budget ledger
// core. Collectors are registered on the default registry and served by
// the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthorizationsTotal counts authorization decisions by outcome; denials
// additionally carry the exhausted scope.
var AuthorizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agentshield",
	Subsystem: "authorizer",
	Name:      "decisions_total",
	Help:      "Authorization decisions by outcome and exhausted scope.",
}, []string{"outcome", "scope"})

// CacheFailures counts authorize calls that hit an unreachable spend cache.
var CacheFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "agentshield",
	Subsystem: "authorizer",
	Name:      "cache_failures_total",
	Help:      "Authorization attempts made while the spend cache was unreachable.",
})

// SettlementsTotal counts settlement pass outcomes per WAL entry.
var SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agentshield",
	Subsystem: "settlement",
	Name:      "entries_total",
	Help:      "WAL entries processed by the settlement worker, by result.",
}, []string{"result"})

// UnsettledEntries reports the WAL backlog observed by the latest pass.
var UnsettledEntries = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "agentshield",
	Subsystem: "settlement",
	Name:      "unsettled_entries",
	Help:      "Unsettled WAL entries seen at the start of the latest recovery pass.",
})

// Settlement result label values.
const (
	ResultSettled  = "settled"
	ResultReversed = "reversed"
	ResultConflict = "conflict"
	ResultFlagged  = "flagged"
	ResultError    = "error"
)
