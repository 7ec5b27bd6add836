// Package event provides a pub-sub event bus for decoupled
// inter-component communication in dispatch.
//
// The bus lets the executor, scaling monitor, and other observers
// communicate through events rather than direct method calls.
// Components publish events without knowing who will receive them, and
// subscribe without knowing who produces them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Task lifecycle:
//   - [TaskQueuedEvent]: An attempt was accepted into the queue
//   - [TaskDispatchedEvent]: An attempt was submitted to the backend
//   - [TaskRequeuedEvent]: A transient submission fault put an attempt back in the queue
//   - [TaskFinishedEvent]: A terminal outcome was recorded
//
// Coordinator:
//   - [QueueDepthChangedEvent]: Queue or slot occupancy changed
//   - [HeartbeatCompletedEvent]: One coordination tick finished
//   - [ScalingDecisionEvent]: The scaling monitor recommended a ceiling change
//
// # Usage
//
// Subscribe to a specific event type:
//
//	bus := event.NewBus()
//	id := bus.Subscribe("task.finished", func(e event.Event) {
//		fe := e.(event.TaskFinishedEvent)
//		fmt.Println("finished:", fe.Key, fe.State)
//	})
//	defer bus.Unsubscribe(id)
//
// Publication is synchronous: Publish returns after every handler has
// run. Handlers that call back into the publisher must be prepared for
// that reentrancy; the executor publishes only after releasing its own
// lock for this reason.
package event
