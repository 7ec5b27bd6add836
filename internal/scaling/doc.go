// Package scaling provides queue-depth-based recommendations for the
// coordinator's slot ceiling.
//
// A long backlog with idle capacity elsewhere suggests the ceiling is
// too low; a drained queue with an almost-empty running set suggests it
// is too high. The scaling package watches queue depth events and
// applies a configurable policy to recommend ceiling changes. It never
// changes the ceiling itself — a registered handler decides whether to
// apply the delta via the executor's SetParallelism.
//
// The core types are:
//
//   - [Policy]: scaling rules (thresholds, cooldown, slot limits)
//   - [Monitor]: watches depth events on the event bus and applies the policy
//   - [Decision]: the output of policy evaluation
//
// # Usage
//
//	policy := scaling.NewPolicy(
//	    scaling.WithMaxSlots(64),
//	    scaling.WithCooldownPeriod(30 * time.Second),
//	)
//
//	monitor := scaling.NewMonitor(bus, policy)
//	monitor.OnDecision(func(d scaling.Decision) {
//	    ex.SetParallelism(ex.Capacity() + d.Delta)
//	})
//	go monitor.Start(ctx)
//	defer monitor.Stop()
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package scaling
