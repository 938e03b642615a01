// Package metrics exposes Prometheus instruments for ledger operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for LedgerOperations.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// LedgerOperations counts ledger mutations by operation and outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finjournal",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total ledger operations by operation and result.",
}, []string{"op", "result"})

// LedgerInconsistencies counts mutations that could not be applied atomically.
var LedgerInconsistencies = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finjournal",
	Subsystem: "ledger",
	Name:      "inconsistencies_total",
	Help:      "Total ledger integrity incidents.",
})

// StorageTimeouts counts operations that failed with a transient storage error.
var StorageTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "finjournal",
	Subsystem: "storage",
	Name:      "timeouts_total",
	Help:      "Total storage calls that timed out or lost their connection.",
})

// BalanceDelta observes the absolute size of applied balance deltas, in minor units.
var BalanceDelta = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "finjournal",
	Subsystem: "balance",
	Name:      "delta_minor_units",
	Help:      "Absolute balance delta applied per account adjustment, in minor units.",
	Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
})

// ObserveOperation records the outcome of a ledger operation. Caller-side
// problems (bad input, not found) count as rejected, not as errors.
func ObserveOperation(op string, result string) {
	LedgerOperations.WithLabelValues(op, result).Inc()
}
