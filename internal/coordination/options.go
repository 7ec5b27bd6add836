package coordination

import (
	"github.com/halverson/dispatch/internal/metrics"
	"github.com/halverson/dispatch/internal/scaling"
)

// hubConfig holds optional configuration for a Hub.
type hubConfig struct {
	scalingPolicy   *scaling.Policy
	scalingDisabled bool
	emitter         metrics.Emitter
	minSlots        int
	maxSlots        int
}

// Option configures a Hub.
type Option func(*hubConfig)

// WithScalingPolicy sets the scaling policy used by the scaling
// monitor. If nil, a default policy is created.
func WithScalingPolicy(p *scaling.Policy) Option {
	return func(c *hubConfig) { c.scalingPolicy = p }
}

// WithScalingDisabled turns off the scaling monitor entirely; the slot
// ceiling then only changes through explicit SetParallelism calls.
func WithScalingDisabled() Option {
	return func(c *hubConfig) { c.scalingDisabled = true }
}

// WithEmitter sets the gauge emitter passed to the executor. If nil,
// gauges are written through the hub's logger.
func WithEmitter(e metrics.Emitter) Option {
	return func(c *hubConfig) { c.emitter = e }
}

// WithMinSlots sets the slot floor for the default scaling policy.
// A value of 0 uses the policy default.
func WithMinSlots(n int) Option {
	return func(c *hubConfig) { c.minSlots = n }
}

// WithMaxSlots sets the slot cap for the default scaling policy.
// A value of 0 uses the policy default.
func WithMaxSlots(n int) Option {
	return func(c *hubConfig) { c.maxSlots = n }
}
