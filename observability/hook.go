// Package observability exposes engine activity as metrics through a
// pluggable MetricFactory, so the host can bind whatever metrics
// system it already runs.
package observability

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jesssevilleja/facegate/engagement"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
	"github.com/jesssevilleja/facegate/types"
)

// Counter is a monotonically increasing metric.
type Counter interface {
	Inc()
	Add(delta float64)
}

// Histogram records observations of a distribution.
type Histogram interface {
	Observe(value float64)
}

// MetricFactory creates named instruments. Label values are fixed at
// creation, one instrument per label combination.
type MetricFactory interface {
	Counter(name string, labels map[string]string) Counter
	Histogram(name string, labels map[string]string) Histogram
}

// Hook publishes engine events as metrics. Register it with
// facegate.WithHook.
type Hook struct {
	creditsTotal    Counter
	debitsTotal     Counter
	rejectionsTotal Counter
	chargedViews    Counter
	freeViews       Counter
	likesTotal      Counter
	unlikesTotal    Counter
	flushedEvents   Counter
	flushDuration   Histogram
}

// New creates a metrics hook on the factory.
func New(factory MetricFactory) *Hook {
	return &Hook{
		creditsTotal:    factory.Counter("facegate_wallet_credits_total", nil),
		debitsTotal:     factory.Counter("facegate_wallet_debits_total", nil),
		rejectionsTotal: factory.Counter("facegate_wallet_rejections_total", nil),
		chargedViews:    factory.Counter("facegate_access_granted_total", map[string]string{"charged": "true"}),
		freeViews:       factory.Counter("facegate_access_granted_total", map[string]string{"charged": "false"}),
		likesTotal:      factory.Counter("facegate_likes_total", map[string]string{"liked": "true"}),
		unlikesTotal:    factory.Counter("facegate_likes_total", map[string]string{"liked": "false"}),
		flushedEvents:   factory.Counter("facegate_events_flushed_total", nil),
		flushDuration:   factory.Histogram("facegate_event_flush_seconds", nil),
	}
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "observability" }

// OnWalletCredited counts credits.
func (h *Hook) OnWalletCredited(ctx context.Context, userID id.UserID, amount, balance types.Credits) error {
	h.creditsTotal.Add(float64(amount.Int64()))
	return nil
}

// OnWalletDebited counts debits.
func (h *Hook) OnWalletDebited(ctx context.Context, userID id.UserID, amount, balance types.Credits) error {
	h.debitsTotal.Add(float64(amount.Int64()))
	return nil
}

// OnInsufficientFunds counts rejected charges.
func (h *Hook) OnInsufficientFunds(ctx context.Context, userID id.UserID, price, balance types.Credits) error {
	h.rejectionsTotal.Inc()
	return nil
}

// OnAccessGranted counts grants, split by whether they charged.
func (h *Hook) OnAccessGranted(ctx context.Context, userID id.UserID, decision *gate.Decision) error {
	if decision.Charged {
		h.chargedViews.Inc()
	} else {
		h.freeViews.Inc()
	}
	return nil
}

// OnLikeToggled counts like flips by direction.
func (h *Hook) OnLikeToggled(ctx context.Context, userID id.UserID, result *engagement.LikeResult) error {
	if result.Liked {
		h.likesTotal.Inc()
	} else {
		h.unlikesTotal.Inc()
	}
	return nil
}

// OnEventsFlushed counts flushed events and observes flush latency.
func (h *Hook) OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	h.flushedEvents.Add(float64(count))
	h.flushDuration.Observe(elapsed.Seconds())
	return nil
}

// ──────────────────────────────────────────────────
// In-process instruments
// ──────────────────────────────────────────────────

// SimpleFactory is a MetricFactory over in-process instruments, for
// tests and for hosts without a metrics backend. Instruments are
// inspectable via CounterValue.
type SimpleFactory struct {
	mu       sync.Mutex
	counters map[string]*simpleCounter
}

// NewSimpleFactory creates an empty factory.
func NewSimpleFactory() *SimpleFactory {
	return &SimpleFactory{counters: make(map[string]*simpleCounter)}
}

// Counter returns the counter for the name and label set, creating it
// on first use.
func (f *SimpleFactory) Counter(name string, labels map[string]string) Counter {
	key := instrumentKey(name, labels)
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[key]
	if !ok {
		c = &simpleCounter{}
		f.counters[key] = c
	}
	return c
}

// Histogram returns a histogram that tracks count and sum.
func (f *SimpleFactory) Histogram(name string, labels map[string]string) Histogram {
	return &simpleHistogram{}
}

// CounterValue reads a counter's current value, 0 if it was never
// created.
func (f *SimpleFactory) CounterValue(name string, labels map[string]string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.counters[instrumentKey(name, labels)]
	if !ok {
		return 0
	}
	return c.value()
}

func instrumentKey(name string, labels map[string]string) string {
	key := name
	for _, k := range []string{"charged", "liked"} {
		if v, ok := labels[k]; ok {
			key += "{" + k + "=" + v + "}"
		}
	}
	return key
}

type simpleCounter struct {
	bits atomic.Uint64
}

func (c *simpleCounter) Inc() { c.Add(1) }

func (c *simpleCounter) Add(delta float64) {
	for {
		old := c.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func (c *simpleCounter) value() float64 {
	return math.Float64frombits(c.bits.Load())
}

type simpleHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
}

func (h *simpleHistogram) Observe(value float64) {
	h.mu.Lock()
	h.count++
	h.sum += value
	h.mu.Unlock()
}
