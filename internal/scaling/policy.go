package scaling

import (
	"fmt"
	"sync"
	"time"
)

// Default policy values.
const (
	defaultMinSlots           = 1
	defaultMaxSlots           = 64
	defaultScaleUpThreshold   = 4
	defaultScaleDownThreshold = 1
	defaultCooldownPeriod     = 30 * time.Second
)

// Option configures a Policy.
type Option func(*Policy)

// WithMinSlots sets the floor for the slot ceiling.
func WithMinSlots(n int) Option {
	return func(p *Policy) { p.minSlots = n }
}

// WithMaxSlots sets the cap for the slot ceiling.
func WithMaxSlots(n int) Option {
	return func(p *Policy) { p.maxSlots = n }
}

// WithScaleUpThreshold sets the queued-attempt count above which the
// ceiling should grow. Growth is only recommended while the backlog
// exceeds the number of attempts currently running.
func WithScaleUpThreshold(n int) Option {
	return func(p *Policy) { p.scaleUpThreshold = n }
}

// WithScaleDownThreshold sets the dispatched-attempt count at or below
// which, with an empty backlog, the ceiling should shrink.
func WithScaleDownThreshold(n int) Option {
	return func(p *Policy) { p.scaleDownThreshold = n }
}

// WithCooldownPeriod sets the minimum time between scaling decisions.
func WithCooldownPeriod(d time.Duration) Option {
	return func(p *Policy) { p.cooldownPeriod = d }
}

// Policy defines the rules for slot ceiling adjustments.
// It is safe for concurrent use.
type Policy struct {
	mu                 sync.Mutex
	minSlots           int
	maxSlots           int
	scaleUpThreshold   int
	scaleDownThreshold int
	cooldownPeriod     time.Duration
	lastDecisionTime   time.Time
}

// NewPolicy creates a Policy with the given options. Unset options use
// defaults.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		minSlots:           defaultMinSlots,
		maxSlots:           defaultMaxSlots,
		scaleUpThreshold:   defaultScaleUpThreshold,
		scaleDownThreshold: defaultScaleDownThreshold,
		cooldownPeriod:     defaultCooldownPeriod,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate inspects the current load and returns a scaling decision.
// The cooldown period prevents rapid thrash around a threshold.
func (p *Policy) Evaluate(load Load) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()

	if !p.lastDecisionTime.IsZero() && now.Sub(p.lastDecisionTime) < p.cooldownPeriod {
		return Decision{Action: ActionNone, Reason: "cooldown period active"}
	}

	// Grow: sustained backlog beyond what the running set will absorb.
	if load.Queued > p.scaleUpThreshold && load.Queued > load.Dispatched && load.Capacity < p.maxSlots {
		delta := load.Queued - load.Dispatched
		if load.Capacity+delta > p.maxSlots {
			delta = p.maxSlots - load.Capacity
		}
		if delta > 0 {
			p.lastDecisionTime = now
			return Decision{
				Action: ActionScaleUp,
				Delta:  delta,
				Reason: fmt.Sprintf("%d queued with %d dispatched (threshold: %d)", load.Queued, load.Dispatched, p.scaleUpThreshold),
			}
		}
	}

	// Shrink: nothing waiting and barely anything running. One slot at
	// a time, to be conservative.
	if load.Queued == 0 && load.Dispatched <= p.scaleDownThreshold && load.Capacity > p.minSlots {
		p.lastDecisionTime = now
		return Decision{
			Action: ActionScaleDown,
			Delta:  -1,
			Reason: fmt.Sprintf("no queued attempts with %d dispatched (threshold: %d)", load.Dispatched, p.scaleDownThreshold),
		}
	}

	return Decision{Action: ActionNone, Reason: "no scaling needed"}
}
