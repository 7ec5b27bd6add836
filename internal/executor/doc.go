// Package executor implements the task-execution coordinator that sits
// between a workflow scheduler and a backend. It accepts ready-to-run
// attempts, enforces a concurrency ceiling, dispatches attempts to the
// backend, buffers their terminal outcomes for collection, and can
// recover ownership of in-flight attempts after a restart.
//
// The coordinator is driven entirely from outside: the scheduler calls
// Enqueue as attempts become ready, Heartbeat once per scheduling
// iteration, and Drain to collect outcomes. Each heartbeat runs a fixed
// three-step tick — synchronize, dispatch, report — and the ordering is
// deliberate: outcomes synchronized at the top of a tick free slots
// that the same tick's dispatch step may use.
//
// Usage:
//
//	ex := executor.New(executor.Config{Parallelism: 8}, be, emitter, bus, logger)
//
//	// at startup, before the first heartbeat
//	unadopted := ex.TryAdoptTaskInstances(ctx, candidates)
//
//	// per scheduling iteration
//	ex.Enqueue(instance)
//	ex.Heartbeat(ctx)
//	outcomes := ex.Drain()
package executor
