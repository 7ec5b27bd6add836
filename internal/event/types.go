package event

import (
	"time"

	"github.com/halverson/dispatch/internal/task"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.dispatched").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events. Embed it in concrete
// event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskQueuedEvent is emitted when an attempt is accepted into the queue.
type TaskQueuedEvent struct {
	baseEvent
	Key      task.InstanceKey
	Priority int
}

// NewTaskQueuedEvent creates a TaskQueuedEvent.
func NewTaskQueuedEvent(key task.InstanceKey, priority int) TaskQueuedEvent {
	return TaskQueuedEvent{
		baseEvent: newBaseEvent("task.queued"),
		Key:       key,
		Priority:  priority,
	}
}

// TaskDispatchedEvent is emitted when an attempt has been submitted to
// the backend.
type TaskDispatchedEvent struct {
	baseEvent
	Key   task.InstanceKey
	Queue string // backend target queue name
}

// NewTaskDispatchedEvent creates a TaskDispatchedEvent.
func NewTaskDispatchedEvent(key task.InstanceKey, queue string) TaskDispatchedEvent {
	return TaskDispatchedEvent{
		baseEvent: newBaseEvent("task.dispatched"),
		Key:       key,
		Queue:     queue,
	}
}

// TaskRequeuedEvent is emitted when a submission failed transiently and
// the attempt went back to the queue.
type TaskRequeuedEvent struct {
	baseEvent
	Key    task.InstanceKey
	Reason string
}

// NewTaskRequeuedEvent creates a TaskRequeuedEvent.
func NewTaskRequeuedEvent(key task.InstanceKey, reason string) TaskRequeuedEvent {
	return TaskRequeuedEvent{
		baseEvent: newBaseEvent("task.requeued"),
		Key:       key,
		Reason:    reason,
	}
}

// TaskFinishedEvent is emitted when a terminal outcome for an attempt
// has been recorded into the outcome buffer.
type TaskFinishedEvent struct {
	baseEvent
	Key   task.InstanceKey
	State task.State
	Info  string
}

// NewTaskFinishedEvent creates a TaskFinishedEvent.
func NewTaskFinishedEvent(key task.InstanceKey, state task.State, info string) TaskFinishedEvent {
	return TaskFinishedEvent{
		baseEvent: newBaseEvent("task.finished"),
		Key:       key,
		State:     state,
		Info:      info,
	}
}

// -----------------------------------------------------------------------------
// Coordinator Events
// -----------------------------------------------------------------------------

// QueueDepthChangedEvent is emitted whenever queue or slot occupancy
// changes. The scaling monitor keys its policy off these.
type QueueDepthChangedEvent struct {
	baseEvent
	Queued     int // attempts waiting for dispatch
	Dispatched int // attempts running on the backend
	OpenSlots  int // free capacity
	Capacity   int // configured ceiling
}

// NewQueueDepthChangedEvent creates a QueueDepthChangedEvent.
func NewQueueDepthChangedEvent(queued, dispatched, openSlots, capacity int) QueueDepthChangedEvent {
	return QueueDepthChangedEvent{
		baseEvent:  newBaseEvent("queue.depth_changed"),
		Queued:     queued,
		Dispatched: dispatched,
		OpenSlots:  openSlots,
		Capacity:   capacity,
	}
}

// HeartbeatCompletedEvent is emitted at the end of every coordination
// tick, after gauges have been reported.
type HeartbeatCompletedEvent struct {
	baseEvent
	Synced     int // outcomes applied this tick
	Dispatched int // attempts submitted this tick
}

// NewHeartbeatCompletedEvent creates a HeartbeatCompletedEvent.
func NewHeartbeatCompletedEvent(synced, dispatched int) HeartbeatCompletedEvent {
	return HeartbeatCompletedEvent{
		baseEvent:  newBaseEvent("heartbeat.completed"),
		Synced:     synced,
		Dispatched: dispatched,
	}
}

// ScalingDecisionEvent is emitted when the scaling monitor recommends a
// change to the slot ceiling.
type ScalingDecisionEvent struct {
	baseEvent
	Action   string // "scale_up", "scale_down"
	Delta    int
	Reason   string
	Capacity int // ceiling at decision time
}

// NewScalingDecisionEvent creates a ScalingDecisionEvent.
func NewScalingDecisionEvent(action string, delta int, reason string, capacity int) ScalingDecisionEvent {
	return ScalingDecisionEvent{
		baseEvent: newBaseEvent("scaling.decision"),
		Action:    action,
		Delta:     delta,
		Reason:    reason,
		Capacity:  capacity,
	}
}
