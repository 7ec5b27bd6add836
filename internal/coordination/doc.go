// Package coordination provides a Hub that wires the coordinator's
// components together for a single run.
//
// The Hub creates and manages:
//
//   - the Executor (queue, slots, outcome buffer, backend dispatch)
//   - the Scaling Monitor (slot ceiling recommendations off the bus)
//   - the Spool Watcher (manifest ingestion, standalone mode only)
//
// and runs snapshot recovery plus adoption before the first heartbeat.
//
// Usage:
//
//	hub, err := coordination.NewHub(coordination.Config{
//	    Bus:     bus,
//	    Backend: be,
//	    Logger:  logger,
//	    Executor: executor.Config{Parallelism: 8, StateDir: dir},
//	})
//	if err != nil {
//	    return err
//	}
//	if err := hub.Start(ctx); err != nil {
//	    return err
//	}
//	defer hub.Stop()
//
//	// caller drives ticks
//	hub.Executor().Heartbeat(ctx)
package coordination
