// Package queue provides the priority queue of task attempts that are
// ready to run but not yet dispatched to a backend.
//
// Selection order is highest priority first, with stable FIFO ordering
// within a priority. The core type is [Queue]; [DispatchReady] pulls up
// to a caller-supplied number of attempts and submits each one through
// a backend submission function, applying the configured fault policy
// when submission fails.
//
// The queue itself knows nothing about the event bus; the coordinator
// publishes queue transitions after its tick releases the lock. Queue
// contents can be snapshotted to disk and restored, which is how a
// restarted coordinator reconstructs both its pending work and its
// adoption candidates.
//
// Usage:
//
//	q := queue.New(queue.FaultPolicyRequeue, sink)
//	q.Enqueue(instance)
//
//	// once per heartbeat
//	dispatched := q.DispatchReady(openSlots, backendSubmit)
package queue
