package executor

import (
	"context"
	"errors"
	"os"

	"github.com/halverson/dispatch/internal/queue"
	"github.com/halverson/dispatch/internal/task"
)

// TryAdoptTaskInstances reconciles attempts believed to have been in
// flight under a previous coordinator. It asks the backend which
// candidates it can confirm ownership of; confirmed attempts are
// silently restored to the dispatched set (consuming slots) and will
// complete through the normal synchronize path. The rest are returned
// and must be rescheduled from scratch.
//
// Every candidate ends up in exactly one of the two outcomes. When the
// backend claims more attempts than this coordinator has slots, the
// excess is returned un-adopted rather than overrunning the ceiling.
//
// Call this once at startup, before the first Heartbeat.
func (ex *Executor) TryAdoptTaskInstances(ctx context.Context, candidates []*task.Instance) []*task.Instance {
	if len(candidates) == 0 {
		return nil
	}

	notAdopted := ex.backend.TryAdopt(ctx, candidates)

	rejected := make(map[task.InstanceKey]struct{}, len(notAdopted))
	for _, ins := range notAdopted {
		rejected[ins.Key] = struct{}{}
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	returned := make([]*task.Instance, 0, len(notAdopted))
	adopted := 0
	for _, ins := range candidates {
		if _, ok := rejected[ins.Key]; ok {
			returned = append(returned, ins)
			continue
		}
		if ex.slots.Available() == 0 {
			ex.logger.Warn("no slot for adopted attempt; returning for reschedule",
				"key", ins.Key.String())
			returned = append(returned, ins)
			continue
		}
		ex.slots.Acquire()
		ex.running[ins.Key] = ins
		adopted++
	}

	ex.logger.Info("adoption complete",
		"candidates", len(candidates), "adopted", adopted, "returned", len(returned))
	return returned
}

// Recover loads a previous coordinator's state snapshot from dir,
// re-enqueues its undispatched attempts, and runs adoption over its
// dispatched set, re-enqueueing whatever comes back un-adopted. A
// missing snapshot is not an error; it just means a fresh start.
func (ex *Executor) Recover(ctx context.Context, dir string) error {
	st, err := queue.LoadState(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	ex.logger.Info("recovering previous run",
		"previous_run_id", st.RunID,
		"queued", len(st.Queued), "dispatched", len(st.Dispatched))

	for _, ins := range st.Queued {
		if err := ex.Enqueue(ins); err != nil {
			ex.logger.Warn("skipping recovered attempt", "key", ins.Key.String(), "error", err)
		}
	}
	for _, ins := range ex.TryAdoptTaskInstances(ctx, st.Dispatched) {
		// Returned un-adopted: reschedule from scratch.
		if err := ex.Enqueue(ins); err != nil {
			ex.logger.Warn("skipping recovered attempt", "key", ins.Key.String(), "error", err)
		}
	}
	return nil
}
