package coordination

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/halverson/dispatch/internal/backend"
	"github.com/halverson/dispatch/internal/event"
	"github.com/halverson/dispatch/internal/executor"
	"github.com/halverson/dispatch/internal/logging"
	"github.com/halverson/dispatch/internal/scaling"
	"github.com/halverson/dispatch/internal/task"
)

var testRunAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func instance(id string, priority int) *task.Instance {
	return &task.Instance{
		Key:      task.NewInstanceKey("wf", id, testRunAt, 1),
		Priority: priority,
	}
}

// stubBackend accepts every submission and never completes anything.
type stubBackend struct {
	backend.Base

	mu        sync.Mutex
	submitted int
}

func (s *stubBackend) Submit(context.Context, *task.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted++
	return nil
}

func (s *stubBackend) PollCompleted(context.Context) ([]task.Outcome, error) {
	return nil, nil
}

func testConfig(be backend.Backend) Config {
	return Config{
		Bus:     event.NewBus(),
		Backend: be,
		Logger:  logging.Nop(),
		Executor: executor.Config{
			Parallelism: 4,
		},
	}
}

func TestNewHub_RequiresBus(t *testing.T) {
	cfg := testConfig(&stubBackend{})
	cfg.Bus = nil
	if _, err := NewHub(cfg); err == nil {
		t.Error("Expected an error for a nil bus")
	}
}

func TestNewHub_RequiresBackend(t *testing.T) {
	cfg := testConfig(nil)
	if _, err := NewHub(cfg); err == nil {
		t.Error("Expected an error for a nil backend")
	}
}

func TestHub_StartStop(t *testing.T) {
	hub, err := NewHub(testConfig(&stubBackend{}))
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}

	if hub.Running() {
		t.Error("Hub should not be running before Start")
	}

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !hub.Running() {
		t.Error("Hub should be running after Start")
	}

	if err := hub.Start(context.Background()); err == nil {
		t.Error("Second Start should fail")
	}

	if err := hub.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if hub.Running() {
		t.Error("Hub should not be running after Stop")
	}

	// Stop is idempotent.
	if err := hub.Stop(); err != nil {
		t.Errorf("Second Stop should be a no-op, got %v", err)
	}
}

func TestHub_ScalingDisabled(t *testing.T) {
	hub, err := NewHub(testConfig(&stubBackend{}), WithScalingDisabled())
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}

	if hub.Monitor() != nil {
		t.Error("Monitor should be nil when scaling is disabled")
	}

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hub.Stop()

	// Heartbeats with deep backlogs must not move the ceiling.
	ex := hub.Executor()
	for i := 0; i < 20; i++ {
		ex.Enqueue(&task.Instance{Key: task.NewInstanceKey("wf", "t", testRunAt, i+1)})
	}
	ex.Heartbeat(context.Background())

	if ex.Capacity() != 4 {
		t.Errorf("Ceiling should be untouched with scaling disabled, got %d", ex.Capacity())
	}
}

func TestHub_ScalingAppliesDecision(t *testing.T) {
	policy := scaling.NewPolicy(
		scaling.WithCooldownPeriod(0),
		scaling.WithScaleUpThreshold(2),
		scaling.WithMaxSlots(32),
	)
	hub, err := NewHub(testConfig(&stubBackend{}), WithScalingPolicy(policy))
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hub.Stop()

	ex := hub.Executor()
	for i := 0; i < 20; i++ {
		ex.Enqueue(&task.Instance{Key: task.NewInstanceKey("wf", "t", testRunAt, i+1)})
	}

	// The monitor is subscribed by the time Start returns, so even the
	// first tick's depth event reaches it; its decision lands
	// synchronously during the publish.
	ex.Heartbeat(context.Background())

	if ex.Capacity() <= 4 {
		t.Errorf("Expected the ceiling raised under backlog, got %d", ex.Capacity())
	}
}

func TestHub_SpoolFeedsExecutor(t *testing.T) {
	spoolDir := t.TempDir()

	cfg := testConfig(&stubBackend{})
	cfg.SpoolDir = spoolDir
	hub, err := NewHub(cfg, WithScalingDisabled())
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}

	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hub.Stop()

	manifest := `
workflow_id: wf
run_at: 2026-03-01T02:00:00Z
tasks:
  - task_id: extract
    command: ["true"]
`
	if err := os.WriteFile(filepath.Join(spoolDir, "m.yaml"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Executor().QueuedCount() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Manifest attempt never reached the executor queue")
}

func TestHub_RecoversStateOnStart(t *testing.T) {
	stateDir := t.TempDir()

	// First hub run: dispatch one attempt, leave one queued, snapshot.
	cfg1 := testConfig(&stubBackend{})
	cfg1.Executor.Parallelism = 1
	cfg1.Executor.StateDir = stateDir
	hub1, err := NewHub(cfg1, WithScalingDisabled())
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	if err := hub1.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	hub1.Executor().Enqueue(instance("a", 2))
	hub1.Executor().Enqueue(instance("b", 1))
	hub1.Executor().Heartbeat(context.Background())
	hub1.Stop()

	// Second hub: recovery runs inside Start, before any heartbeat. The
	// stub backend adopts nothing, so both attempts must be queued.
	cfg2 := testConfig(&stubBackend{})
	cfg2.Executor.Parallelism = 1
	cfg2.Executor.StateDir = stateDir
	hub2, err := NewHub(cfg2, WithScalingDisabled())
	if err != nil {
		t.Fatalf("NewHub failed: %v", err)
	}
	if err := hub2.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hub2.Stop()

	if got := hub2.Executor().QueuedCount(); got != 2 {
		t.Errorf("Expected both attempts recovered into the queue, got %d", got)
	}
	if got := hub2.Executor().RunningCount(); got != 0 {
		t.Errorf("Nothing should be adopted, running=%d", got)
	}
}
