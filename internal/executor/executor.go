package executor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/halverson/dispatch/internal/backend"
	"github.com/halverson/dispatch/internal/event"
	"github.com/halverson/dispatch/internal/metrics"
	"github.com/halverson/dispatch/internal/outcome"
	"github.com/halverson/dispatch/internal/queue"
	"github.com/halverson/dispatch/internal/slots"
	"github.com/halverson/dispatch/internal/task"
)

// Sentinel errors returned by executor operations.
var (
	// ErrAlreadyRunning indicates the attempt is currently dispatched.
	ErrAlreadyRunning = errors.New("attempt already dispatched")
)

// DefaultParallelism is used when Config.Parallelism is zero.
const DefaultParallelism = 32

// Config holds the coordinator's construction-time settings.
type Config struct {
	// Parallelism is the slot ceiling: the maximum number of attempts
	// dispatched and not yet confirmed terminal at any one time.
	Parallelism int

	// FaultPolicy selects submission failure recovery. Defaults to
	// requeue-on-transient.
	FaultPolicy queue.FaultPolicy

	// StateDir, when non-empty, makes the executor snapshot its queue
	// and dispatched set there after every heartbeat, enabling the
	// restart/adoption flow.
	StateDir string
}

// Executor coordinates attempt dispatch against a backend. Enqueue,
// Heartbeat, Drain, and TryAdoptTaskInstances may be called from
// different goroutines; a single internal mutex keeps one mutator
// active at a time.
type Executor struct {
	mu      sync.Mutex
	runID   string
	cfg     Config
	backend backend.Backend
	stats   metrics.Emitter
	bus     *event.Bus
	logger  *slog.Logger

	slots   *slots.Counter
	queue   *queue.Queue
	buffer  *outcome.Buffer
	running map[task.InstanceKey]*task.Instance

	// sinkEvents accumulates task.finished events for submissions the
	// queue failed permanently mid-dispatch; the heartbeat publishes
	// them once it releases the lock.
	sinkEvents []event.Event
}

// New creates an Executor. The backend is required; emitter, bus, and
// logger fall back to no-op or default implementations when nil.
func New(cfg Config, be backend.Backend, stats metrics.Emitter, bus *event.Bus, logger *slog.Logger) *Executor {
	if be == nil {
		panic("executor: nil backend")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	if cfg.FaultPolicy == "" {
		cfg.FaultPolicy = queue.FaultPolicyRequeue
	}
	if stats == nil {
		stats = metrics.Discard{}
	}
	if bus == nil {
		bus = event.NewBus()
	}
	if logger == nil {
		logger = slog.Default()
	}

	runID := uuid.NewString()
	ex := &Executor{
		runID:   runID,
		cfg:     cfg,
		backend: be,
		stats:   stats,
		bus:     bus,
		logger:  logger.With("run_id", runID),
		slots:   slots.NewCounter(cfg.Parallelism),
		buffer:  outcome.NewBuffer(),
		running: make(map[task.InstanceKey]*task.Instance),
	}
	ex.queue = queue.New(cfg.FaultPolicy, ex.sinkFailure)
	return ex
}

// RunID returns the identity of this coordinator process, stamped into
// logs and state snapshots.
func (ex *Executor) RunID() string {
	return ex.runID
}

// StateDir returns the configured snapshot directory, empty when
// persistence is disabled.
func (ex *Executor) StateDir() string {
	return ex.cfg.StateDir
}

// Enqueue accepts a ready-to-run attempt from the scheduler. The
// attempt stays queued until a heartbeat's dispatch step finds a free
// slot for it.
func (ex *Executor) Enqueue(ins *task.Instance) error {
	ex.mu.Lock()
	if _, ok := ex.running[ins.Key]; ok {
		ex.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, ins.Key)
	}
	err := ex.queue.Enqueue(ins)
	ex.mu.Unlock()
	if err != nil {
		return err
	}

	ex.bus.Publish(event.NewTaskQueuedEvent(ins.Key, ins.Priority))
	return nil
}

// Remove deletes a queued attempt. Dispatched attempts cannot be
// removed; there is no cancellation primitive once work has been
// submitted.
func (ex *Executor) Remove(key task.InstanceKey) bool {
	return ex.queue.Remove(key)
}

// Drain removes and returns buffered terminal outcomes. With no
// arguments everything is returned; with workflow IDs, only matching
// entries are returned and the rest stay buffered.
func (ex *Executor) Drain(workflowIDs ...string) map[task.InstanceKey]outcome.Entry {
	return ex.buffer.Drain(workflowIDs...)
}

// QueuedCount returns the number of attempts waiting for dispatch.
func (ex *Executor) QueuedCount() int {
	return ex.queue.Len()
}

// RunningCount returns the number of attempts dispatched and not yet
// confirmed terminal.
func (ex *Executor) RunningCount() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return len(ex.running)
}

// OpenSlots returns the currently free capacity.
func (ex *Executor) OpenSlots() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.slots.Available()
}

// Capacity returns the configured slot ceiling.
func (ex *Executor) Capacity() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.slots.Capacity()
}

// SetParallelism adjusts the slot ceiling between ticks. Lowering it
// below the current dispatched count interrupts nothing; dispatch just
// stays starved until enough attempts finish.
func (ex *Executor) SetParallelism(n int) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.slots.SetCapacity(n)
	ex.logger.Info("parallelism changed", "capacity", n, "in_use", ex.slots.Used())
}

// sinkFailure records a permanently failed submission where the
// scheduler will collect it. Called by the queue during DispatchReady,
// so ex.mu is already held; the bus event is only staged here and
// published by the heartbeat after unlock.
func (ex *Executor) sinkFailure(key task.InstanceKey, info string) {
	ex.buffer.Record(key, task.StateFailed, info)
	ex.sinkEvents = append(ex.sinkEvents, event.NewTaskFinishedEvent(key, task.StateFailed, info))
	ex.logger.Warn("submission failed permanently", "key", key.String(), "info", info)
}
