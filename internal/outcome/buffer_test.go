package outcome

import (
	"sync"
	"testing"
	"time"

	"github.com/halverson/dispatch/internal/task"
)

func key(wf, id string) task.InstanceKey {
	runAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return task.NewInstanceKey(wf, id, runAt, 1)
}

func TestBuffer_DrainIsDestructive(t *testing.T) {
	b := NewBuffer()
	b.Record(key("wf", "a"), task.StateSuccess, "")
	b.Record(key("wf", "b"), task.StateFailed, "exit 1")

	drained := b.Drain()
	if len(drained) != 2 {
		t.Fatalf("Expected 2 entries drained, got %d", len(drained))
	}
	if b.Len() != 0 {
		t.Errorf("Buffer should be empty after drain, has %d", b.Len())
	}

	again := b.Drain()
	if len(again) != 0 {
		t.Errorf("Second drain should return nothing, got %d", len(again))
	}
}

func TestBuffer_LastWriteWins(t *testing.T) {
	b := NewBuffer()
	k := key("wf", "a")

	b.Record(k, task.StateSuccess, "")
	b.Record(k, task.StateFailed, "superseded")

	drained := b.Drain()
	if len(drained) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(drained))
	}
	if drained[k].State != task.StateFailed {
		t.Errorf("Expected last recorded state to win, got %s", drained[k].State)
	}
	if drained[k].Info != "superseded" {
		t.Errorf("Expected info 'superseded', got %q", drained[k].Info)
	}
}

func TestBuffer_DrainFiltered(t *testing.T) {
	b := NewBuffer()
	b.Record(key("wf1", "a"), task.StateSuccess, "")
	b.Record(key("wf1", "b"), task.StateFailed, "")
	b.Record(key("wf2", "c"), task.StateSuccess, "")

	drained := b.Drain("wf1")
	if len(drained) != 2 {
		t.Fatalf("Expected 2 wf1 entries, got %d", len(drained))
	}
	for k := range drained {
		if k.WorkflowID != "wf1" {
			t.Errorf("Drained entry for wrong workflow: %s", k.WorkflowID)
		}
	}

	// wf2's entry stays buffered for a later collection.
	if b.Len() != 1 {
		t.Fatalf("Expected 1 entry left, got %d", b.Len())
	}
	rest := b.Drain()
	for k := range rest {
		if k.WorkflowID != "wf2" {
			t.Errorf("Remaining entry should belong to wf2, got %s", k.WorkflowID)
		}
	}
}

func TestBuffer_DrainFilterNoMatches(t *testing.T) {
	b := NewBuffer()
	b.Record(key("wf1", "a"), task.StateSuccess, "")

	drained := b.Drain("other")
	if len(drained) != 0 {
		t.Errorf("Expected no entries for unknown workflow, got %d", len(drained))
	}
	if b.Len() != 1 {
		t.Errorf("Unmatched entries should stay buffered, have %d", b.Len())
	}
}

func TestBuffer_RecordNonTerminalPanics(t *testing.T) {
	b := NewBuffer()

	defer func() {
		if recover() == nil {
			t.Error("Recording a non-terminal state should panic")
		}
	}()
	b.Record(key("wf", "a"), task.StateDispatched, "")
}

func TestBuffer_ConcurrentRecordDrain(t *testing.T) {
	b := NewBuffer()
	runAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		k := task.NewInstanceKey("wf", "t", runAt, i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Record(k, task.StateSuccess, "")
		}()
	}
	wg.Wait()

	total := 0
	var mu sync.Mutex
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := len(b.Drain())
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every outcome delivered exactly once across all drains.
	if total != 50 {
		t.Errorf("Expected 50 entries delivered exactly once, got %d", total)
	}
}
