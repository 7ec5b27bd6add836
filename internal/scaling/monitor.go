package scaling

import (
	"context"
	"sync"

	"github.com/halverson/dispatch/internal/event"
)

// Monitor watches queue depth events on the event bus and applies a
// scaling policy to recommend slot ceiling changes.
//
// The monitor only recommends: the executor's ceiling changes when a
// registered decision handler applies the delta.
type Monitor struct {
	mu       sync.Mutex
	bus      *event.Bus
	policy   *Policy
	handlers []func(Decision)
	subID    string
	cancel   context.CancelFunc
}

// NewMonitor creates a Monitor that evaluates the given policy whenever
// a QueueDepthChangedEvent is received on the bus.
func NewMonitor(bus *event.Bus, policy *Policy) *Monitor {
	return &Monitor{
		bus:    bus,
		policy: policy,
	}
}

// OnDecision registers a callback invoked for every non-none scaling
// decision. Multiple handlers may be registered.
func (m *Monitor) OnDecision(handler func(Decision)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Start subscribes to queue depth events and begins evaluating the
// policy. The subscription is live when Start returns, so depth events
// from the very first heartbeat are seen. The monitor unsubscribes when
// the context is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	subID := m.bus.Subscribe("queue.depth_changed", func(e event.Event) {
		de, ok := e.(event.QueueDepthChangedEvent)
		if !ok {
			return
		}

		m.mu.Lock()
		handlers := make([]func(Decision), len(m.handlers))
		copy(handlers, m.handlers)
		m.mu.Unlock()

		decision := m.policy.Evaluate(Load{
			Queued:     de.Queued,
			Dispatched: de.Dispatched,
			Capacity:   de.Capacity,
		})
		if decision.Action != ActionNone {
			m.bus.Publish(event.NewScalingDecisionEvent(
				string(decision.Action), decision.Delta, decision.Reason, de.Capacity,
			))
			for _, h := range handlers {
				h(decision)
			}
		}
	})

	m.mu.Lock()
	m.subID = subID
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.bus.Unsubscribe(subID)
	}()
}

// Stop unsubscribes from events and cancels the monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	subID := m.subID
	m.mu.Unlock()

	if subID != "" {
		m.bus.Unsubscribe(subID)
	}
	if cancel != nil {
		cancel()
	}
}
