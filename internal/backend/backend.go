// Package backend defines the capability boundary between the
// coordinator and whatever actually runs task attempts. The coordinator
// only ever talks to a Backend; process spawning, containers, or remote
// submission live behind this interface.
//
// Base provides the conservative default adoption policy (adopt
// nothing). Concrete backends embed it and override TryAdopt only when
// they can genuinely interrogate their live state for ownership.
package backend

import (
	"context"

	"github.com/halverson/dispatch/internal/task"
)

// Backend is the execution capability required by the coordinator.
type Backend interface {
	// Submit asynchronously starts one attempt. A nil return means the
	// backend has taken ownership; the outcome will eventually appear
	// in PollCompleted. Errors should be classified with faults.Transient
	// or faults.Permanent so the queue's fault policy can act on them.
	Submit(ctx context.Context, ins *task.Instance) error

	// PollCompleted returns attempts that reached a terminal state
	// since the previous poll. Results are consumed: a completion is
	// reported exactly once.
	PollCompleted(ctx context.Context) ([]task.Outcome, error)

	// TryAdopt reconciles attempts believed to be in flight under a
	// previous coordinator against backend truth. It returns the subset
	// it did NOT adopt; those must be rescheduled from scratch. Every
	// candidate ends up either silently adopted or in the returned
	// slice, never both and never neither.
	TryAdopt(ctx context.Context, candidates []*task.Instance) []*task.Instance
}

// Base supplies the default adoption policy for backends that cannot
// confirm ownership: adopt nothing and hand every candidate back for
// rescheduling.
type Base struct{}

// TryAdopt returns candidates unchanged.
func (Base) TryAdopt(_ context.Context, candidates []*task.Instance) []*task.Instance {
	return candidates
}
