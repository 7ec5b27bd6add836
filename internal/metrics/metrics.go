// Package metrics defines the gauge emission boundary for the
// coordinator. The executor reports three gauges per heartbeat through
// an injected Emitter, so tests and embedders can substitute their own
// sink without touching global state.
package metrics

import "log/slog"

// Gauge names reported once per heartbeat.
const (
	GaugeOpenSlots    = "executor.open_slots"
	GaugeQueuedTasks  = "executor.queued_tasks"
	GaugeRunningTasks = "executor.running_tasks"
)

// Emitter receives gauge values. Implementations must be safe for use
// from the goroutine driving the heartbeat; the executor never calls
// Gauge concurrently with itself.
type Emitter interface {
	Gauge(name string, value float64)
}

// LogEmitter writes gauges as structured log records. It is the default
// sink when no external metrics system is wired in.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter writing through the given logger.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Gauge implements Emitter.
func (e *LogEmitter) Gauge(name string, value float64) {
	e.logger.Debug("gauge", "name", name, "value", value)
}

// Discard is an Emitter that drops every gauge.
type Discard struct{}

// Gauge implements Emitter.
func (Discard) Gauge(string, float64) {}
