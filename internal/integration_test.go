// Package internal contains integration tests that verify the packages
// work together correctly: spool ingestion feeding the executor, the
// heartbeat loop against the local backend, and scaling reacting to
// queue depth over the event bus.
package internal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/halverson/dispatch/internal/backend"
	"github.com/halverson/dispatch/internal/coordination"
	"github.com/halverson/dispatch/internal/event"
	"github.com/halverson/dispatch/internal/executor"
	"github.com/halverson/dispatch/internal/logging"
	"github.com/halverson/dispatch/internal/scaling"
	"github.com/halverson/dispatch/internal/task"
)

// TestLocalBackendEndToEnd runs real commands through the full
// enqueue → heartbeat → dispatch → collect cycle.
func TestLocalBackendEndToEnd(t *testing.T) {
	be := backend.NewLocal()
	ex := executor.New(executor.Config{Parallelism: 2}, be, nil, event.NewBus(), logging.Nop())

	runAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ok := &task.Instance{
		Key:     task.NewInstanceKey("wf", "ok", runAt, 1),
		Command: []string{"true"},
	}
	bad := &task.Instance{
		Key:     task.NewInstanceKey("wf", "bad", runAt, 1),
		Command: []string{"false"},
	}
	if err := ex.Enqueue(ok); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := ex.Enqueue(bad); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	outcomes := make(map[task.InstanceKey]task.State)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && len(outcomes) < 2 {
		ex.Heartbeat(context.Background())
		for key, entry := range ex.Drain() {
			outcomes[key] = entry.State
		}
		time.Sleep(10 * time.Millisecond)
	}
	be.Wait()

	if outcomes[ok.Key] != task.StateSuccess {
		t.Errorf("Expected success for 'true', got %s", outcomes[ok.Key])
	}
	if outcomes[bad.Key] != task.StateFailed {
		t.Errorf("Expected failure for 'false', got %s", outcomes[bad.Key])
	}
}

// TestHubSpoolToCompletion drives a manifest through the hub: dropped
// file → spool watcher → executor queue → local backend → outcome.
func TestHubSpoolToCompletion(t *testing.T) {
	spoolDir := t.TempDir()

	be := backend.NewLocal()
	hub, err := coordination.NewHub(coordination.Config{
		Bus:     event.NewBus(),
		Backend: be,
		Logger:  logging.Nop(),
		Executor: executor.Config{
			Parallelism: 4,
		},
		SpoolDir: spoolDir,
	}, coordination.WithScalingDisabled())
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hub.Stop()

	manifest := `
workflow_id: nightly
run_at: 2026-03-01T02:00:00Z
tasks:
  - task_id: step-one
    command: ["true"]
  - task_id: step-two
    command: ["true"]
`
	if err := os.WriteFile(filepath.Join(spoolDir, "run.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	ex := hub.Executor()
	collected := 0
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && collected < 2 {
		ex.Heartbeat(context.Background())
		collected += len(ex.Drain("nightly"))
		time.Sleep(10 * time.Millisecond)
	}

	if collected != 2 {
		t.Errorf("Expected 2 outcomes collected, got %d", collected)
	}
}

// TestScalingReactsToBacklog verifies the event-bus path from heartbeat
// depth reporting to an applied ceiling change.
func TestScalingReactsToBacklog(t *testing.T) {
	bus := event.NewBus()
	be := backend.NewLocal()

	policy := scaling.NewPolicy(
		scaling.WithCooldownPeriod(0),
		scaling.WithScaleUpThreshold(2),
		scaling.WithMaxSlots(16),
	)
	hub, err := coordination.NewHub(coordination.Config{
		Bus:     bus,
		Backend: be,
		Logger:  logging.Nop(),
		Executor: executor.Config{
			Parallelism: 1,
		},
	}, coordination.WithScalingPolicy(policy))
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hub.Stop()

	var mu sync.Mutex
	var decisions []event.ScalingDecisionEvent
	bus.Subscribe("scaling.decision", func(e event.Event) {
		mu.Lock()
		decisions = append(decisions, e.(event.ScalingDecisionEvent))
		mu.Unlock()
	})

	ex := hub.Executor()
	runAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		ex.Enqueue(&task.Instance{
			Key:     task.NewInstanceKey("wf", "sleepy", runAt, i+1),
			Command: []string{"sleep", "1"},
		})
	}

	ex.Heartbeat(context.Background())

	if ex.Capacity() <= 1 {
		t.Errorf("Expected the ceiling raised under backlog, capacity=%d", ex.Capacity())
	}

	mu.Lock()
	n := len(decisions)
	mu.Unlock()
	if n == 0 {
		t.Error("Expected a scaling.decision event on the bus")
	}
}
