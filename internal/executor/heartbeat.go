package executor

import (
	"context"

	"github.com/halverson/dispatch/internal/event"
	"github.com/halverson/dispatch/internal/faults"
	"github.com/halverson/dispatch/internal/metrics"
	"github.com/halverson/dispatch/internal/queue"
	"github.com/halverson/dispatch/internal/task"
)

// Heartbeat runs one coordination tick: synchronize backend outcomes,
// dispatch queued attempts into the freed capacity, then report
// gauges. The steps run in exactly that order so completions observed
// this tick free slots for this tick's dispatch decision, not the next
// one.
//
// External faults never halt the tick; they are logged and retried on
// the next invocation. The loop has no internal timer — callers drive
// it by invoking Heartbeat once per scheduling iteration.
func (ex *Executor) Heartbeat(ctx context.Context) {
	ex.mu.Lock()

	// Bus handlers may call back into the executor (the scaling
	// monitor does), so events collected during the tick are published
	// only after the lock is released.
	var events []event.Event

	synced := ex.synchronize(ctx, &events)
	dispatched := ex.dispatch(ctx, &events)

	events = append(events, ex.sinkEvents...)
	ex.sinkEvents = nil

	openSlots := ex.slots.Available()
	queued := ex.queue.Len()
	running := len(ex.running)
	capacity := ex.slots.Capacity()

	if ex.cfg.StateDir != "" {
		ex.saveStateLocked()
	}

	ex.mu.Unlock()

	ex.stats.Gauge(metrics.GaugeOpenSlots, float64(openSlots))
	ex.stats.Gauge(metrics.GaugeQueuedTasks, float64(queued))
	ex.stats.Gauge(metrics.GaugeRunningTasks, float64(running))

	events = append(events,
		event.NewQueueDepthChangedEvent(queued, running, openSlots, capacity),
		event.NewHeartbeatCompletedEvent(synced, dispatched),
	)
	for _, e := range events {
		ex.bus.Publish(e)
	}
}

// synchronize pulls terminal outcomes from the backend and applies each
// one individually: record into the buffer, release the slot, forget
// the running entry. Application is per-attempt rather than
// all-or-nothing so a partial backend response still advances state.
// Caller must hold ex.mu.
func (ex *Executor) synchronize(ctx context.Context, events *[]event.Event) int {
	outs, err := ex.backend.PollCompleted(ctx)
	if err != nil {
		// Whatever did come back is still applied below.
		ex.logger.Warn("outcome poll failed; retrying next tick", "error", err)
	}

	applied := 0
	for _, out := range outs {
		if !out.State.IsTerminal() {
			ex.logger.Error("backend reported non-terminal outcome; ignoring",
				"key", out.Key.String(), "state", out.State.String())
			continue
		}

		if _, ok := ex.running[out.Key]; ok {
			delete(ex.running, out.Key)
			ex.slots.Release()
		} else {
			// Terminal truth about an attempt we never dispatched this
			// run. Record it anyway so the result is not lost, but
			// there is no slot to release.
			ex.logger.Warn("outcome for unknown attempt", "key", out.Key.String())
		}

		ex.buffer.Record(out.Key, out.State, out.Info)
		*events = append(*events, event.NewTaskFinishedEvent(out.Key, out.State, out.Info))
		applied++
	}
	return applied
}

// dispatch drains the queue into the available slots. Caller must hold
// ex.mu.
func (ex *Executor) dispatch(ctx context.Context, events *[]event.Event) int {
	open := ex.slots.Available()
	if open == 0 {
		return 0
	}

	submit := func(ins *task.Instance) error {
		err := ex.backend.Submit(ctx, ins)
		// The queue only requeues transient faults under the requeue
		// policy; mirror that condition for the event.
		if err != nil && ex.cfg.FaultPolicy == queue.FaultPolicyRequeue && faults.IsTransient(err) {
			ex.logger.Warn("transient submission fault; requeueing",
				"key", ins.Key.String(), "error", err)
			*events = append(*events, event.NewTaskRequeuedEvent(ins.Key, err.Error()))
		}
		return err
	}

	dispatched := ex.queue.DispatchReady(open, submit)
	for _, ins := range dispatched {
		ex.slots.Acquire()
		ex.running[ins.Key] = ins
		*events = append(*events, event.NewTaskDispatchedEvent(ins.Key, ins.Queue))
		ex.logger.Debug("dispatched", "key", ins.Key.String(), "queue", ins.Queue)
	}
	return len(dispatched)
}

// saveStateLocked snapshots the queue and dispatched set to the
// configured state directory. Best effort: a failed snapshot is logged,
// never fatal. Caller must hold ex.mu.
func (ex *Executor) saveStateLocked() {
	dispatched := make([]*task.Instance, 0, len(ex.running))
	for _, ins := range ex.running {
		dispatched = append(dispatched, ins)
	}
	if err := ex.queue.SaveState(ex.cfg.StateDir, ex.runID, dispatched); err != nil {
		ex.logger.Warn("state snapshot failed", "dir", ex.cfg.StateDir, "error", err)
	}
}
