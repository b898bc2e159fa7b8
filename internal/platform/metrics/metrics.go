package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates HTTP traffic and ledger decision counters in process.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu        sync.Mutex
	decisions map[string]map[string]uint64
}

func New() *Collector {
	return &Collector{decisions: make(map[string]map[string]uint64)}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordDecision counts one ledger call by operation and outcome.
func (c *Collector) RecordDecision(operation, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byOutcome, ok := c.decisions[operation]
	if !ok {
		byOutcome = make(map[string]uint64)
		c.decisions[operation] = byOutcome
	}
	byOutcome[outcome]++
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	decisions := make(map[string]map[string]uint64, len(c.decisions))
	for op, byOutcome := range c.decisions {
		copied := make(map[string]uint64, len(byOutcome))
		for outcome, n := range byOutcome {
			copied[outcome] = n
		}
		decisions[op] = copied
	}
	c.mu.Unlock()

	return map[string]any{
		"requests_total":     total,
		"errors_total":       errs,
		"rate_limited_total": limited,
		"avg_duration_ms":    avg,
		"total_duration_ms":  totalMs,
		"ledger_decisions":   decisions,
	}
}
