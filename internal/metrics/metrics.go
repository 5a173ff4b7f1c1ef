// Package metrics accumulates process-wide request counters and latency
// percentiles. Counters are fine-grained atomics so concurrent requests do not
// serialize; the same record path also feeds Prometheus mirrors for scraping.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector accumulates counters for the life of the process
type Collector struct {
	total     atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64

	mu        sync.Mutex
	perOp     map[string]*opCounters
	byKind    map[string]int64
	latencies *reservoir

	promRequests *prometheus.CounterVec
	promLatency  *prometheus.HistogramVec
}

type opCounters struct {
	total     atomic.Int64
	successes atomic.Int64
}

// New creates a collector and registers its Prometheus mirrors with reg
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		perOp:     make(map[string]*opCounters),
		byKind:    make(map[string]int64),
		latencies: newReservoir(2048),
		promRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediapreproc_requests_total",
			Help: "Total operation invocations by operation and outcome.",
		}, []string{"op", "outcome"}),
		promLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediapreproc_request_duration_seconds",
			Help:    "Operation latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(c.promRequests, c.promLatency)
	}
	return c
}

// Record accumulates one completed request. errKind is empty on success and
// names the error taxonomy entry on failure.
func (c *Collector) Record(op string, ok bool, errKind string, latency time.Duration) {
	c.total.Add(1)
	if ok {
		c.successes.Add(1)
	} else {
		c.failures.Add(1)
	}

	c.opCounters(op).record(ok)

	c.mu.Lock()
	if !ok && errKind != "" {
		c.byKind[errKind]++
	}
	c.latencies.add(latency.Seconds() * 1000)
	c.mu.Unlock()

	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	c.promRequests.WithLabelValues(op, outcome).Inc()
	c.promLatency.WithLabelValues(op).Observe(latency.Seconds())
}

func (c *Collector) opCounters(op string) *opCounters {
	c.mu.Lock()
	defer c.mu.Unlock()
	oc, ok := c.perOp[op]
	if !ok {
		oc = &opCounters{}
		c.perOp[op] = oc
	}
	return oc
}

func (oc *opCounters) record(ok bool) {
	oc.total.Add(1)
	if ok {
		oc.successes.Add(1)
	}
}

// Snapshot is a point-in-time summary of accumulated metrics
type Snapshot struct {
	TotalRequests      int64              `json:"total_requests"`
	SuccessfulRequests int64              `json:"successful_requests"`
	FailedRequests     int64              `json:"failed_requests"`
	SuccessRate        float64            `json:"success_rate"`
	FailuresByKind     map[string]int64   `json:"failures_by_kind"`
	Operations         map[string]OpStats `json:"operations"`
	LatencyMs          LatencyStats       `json:"latency_ms"`
}

// OpStats summarizes one operation's counters
type OpStats struct {
	Total     int64 `json:"total"`
	Successes int64 `json:"successes"`
}

// LatencyStats carries percentile estimates in milliseconds
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Summary returns a consistent-enough read of current totals. Reads are not
// linearizable with concurrent writers; recent-but-slightly-stale is fine.
func (c *Collector) Summary() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.total.Load()
	successes := c.successes.Load()

	snap := Snapshot{
		TotalRequests:      total,
		SuccessfulRequests: successes,
		FailedRequests:     c.failures.Load(),
		FailuresByKind:     make(map[string]int64, len(c.byKind)),
		Operations:         make(map[string]OpStats, len(c.perOp)),
	}
	if total > 0 {
		snap.SuccessRate = float64(successes) / float64(total)
	}
	for kind, n := range c.byKind {
		snap.FailuresByKind[kind] = n
	}
	for op, oc := range c.perOp {
		snap.Operations[op] = OpStats{Total: oc.total.Load(), Successes: oc.successes.Load()}
	}
	snap.LatencyMs = LatencyStats{
		P50: c.latencies.quantile(0.50),
		P95: c.latencies.quantile(0.95),
		P99: c.latencies.quantile(0.99),
	}
	return snap
}
