package coordination

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/halverson/dispatch/internal/backend"
	"github.com/halverson/dispatch/internal/event"
	"github.com/halverson/dispatch/internal/executor"
	"github.com/halverson/dispatch/internal/metrics"
	"github.com/halverson/dispatch/internal/scaling"
	"github.com/halverson/dispatch/internal/spool"
)

// Config holds required dependencies for creating a Hub.
type Config struct {
	Bus     *event.Bus
	Backend backend.Backend
	Logger  *slog.Logger

	// Executor settings passed through to executor.New.
	Executor executor.Config

	// SpoolDir, when non-empty, enables manifest ingestion from the
	// given directory.
	SpoolDir string
}

// Hub wires the executor, scaling monitor, and spool watcher together
// for a single coordinator run. It owns their lifecycles.
type Hub struct {
	mu      sync.RWMutex
	started bool
	cancel  context.CancelFunc

	// spoolDone is closed when the watcher goroutine exits.
	spoolDone chan struct{}

	bus      *event.Bus
	executor *executor.Executor
	monitor  *scaling.Monitor
	watcher  *spool.Watcher
	logger   *slog.Logger
}

// NewHub creates a Hub and constructs the executor it coordinates.
func NewHub(cfg Config, opts ...Option) (*Hub, error) {
	if cfg.Bus == nil {
		return nil, errors.New("coordination: Bus is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("coordination: Backend is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	hc := &hubConfig{}
	for _, opt := range opts {
		opt(hc)
	}

	emitter := hc.emitter
	if emitter == nil {
		emitter = metrics.NewLogEmitter(cfg.Logger)
	}

	policy := hc.scalingPolicy
	if policy == nil {
		var policyOpts []scaling.Option
		if hc.minSlots > 0 {
			policyOpts = append(policyOpts, scaling.WithMinSlots(hc.minSlots))
		}
		if hc.maxSlots > 0 {
			policyOpts = append(policyOpts, scaling.WithMaxSlots(hc.maxSlots))
		}
		policy = scaling.NewPolicy(policyOpts...)
	}

	ex := executor.New(cfg.Executor, cfg.Backend, emitter, cfg.Bus, cfg.Logger)

	var monitor *scaling.Monitor
	if !hc.scalingDisabled {
		monitor = scaling.NewMonitor(cfg.Bus, policy)
		monitor.OnDecision(func(d scaling.Decision) {
			next := ex.Capacity() + d.Delta
			cfg.Logger.Info("applying scaling decision",
				"action", d.Action.String(), "delta", d.Delta, "reason", d.Reason)
			ex.SetParallelism(next)
		})
	}

	h := &Hub{
		bus:      cfg.Bus,
		executor: ex,
		monitor:  monitor,
		logger:   cfg.Logger,
	}

	if cfg.SpoolDir != "" {
		w, err := spool.NewWatcher(cfg.SpoolDir, ex.Enqueue, cfg.Logger)
		if err != nil {
			return nil, err
		}
		h.watcher = w
	}

	return h, nil
}

// Executor returns the coordinator this hub drives.
func (h *Hub) Executor() *executor.Executor { return h.executor }

// Monitor returns the scaling monitor, nil when scaling is disabled.
func (h *Hub) Monitor() *scaling.Monitor { return h.monitor }

// Start runs recovery and adoption against the executor's state
// directory, then begins the scaling monitor and spool watcher.
// Returns an error if the hub is already started.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return errors.New("coordination: hub already started")
	}

	// Adoption must complete before the first heartbeat.
	if dir := h.executor.StateDir(); dir != "" {
		if err := h.executor.Recover(ctx, dir); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.started = true

	// The monitor's subscription must be live before the first
	// heartbeat publishes a depth event.
	if h.monitor != nil {
		h.monitor.Start(ctx)
	}

	if h.watcher != nil {
		h.spoolDone = make(chan struct{})
		go func() {
			defer close(h.spoolDone)
			if err := h.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				h.logger.Error("spool watcher exited", "error", err)
			}
		}()
	}

	return nil
}

// Stop stops all components in reverse start order. It is idempotent.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return nil
	}

	h.cancel()

	if h.spoolDone != nil {
		<-h.spoolDone
	}

	if h.monitor != nil {
		h.monitor.Stop()
	}

	h.started = false
	return nil
}

// Running returns whether the hub is currently started.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}
