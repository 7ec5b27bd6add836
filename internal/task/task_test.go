package task

import (
	"testing"
	"time"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		terminal bool
	}{
		{StateQueued, false},
		{StateDispatched, false},
		{StateSuccess, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestNewInstanceKey_Comparable(t *testing.T) {
	runAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Same logical run expressed in a different location and with a
	// monotonic reading must compare equal.
	loc := time.FixedZone("UTC+2", 2*3600)
	k1 := NewInstanceKey("wf", "extract", runAt, 1)
	k2 := NewInstanceKey("wf", "extract", runAt.In(loc), 1)

	if k1 != k2 {
		t.Errorf("Keys for the same logical run should be equal: %v != %v", k1, k2)
	}

	m := map[InstanceKey]int{k1: 42}
	if m[k2] != 42 {
		t.Error("Equal keys should index the same map entry")
	}
}

func TestNewInstanceKey_StripsMonotonic(t *testing.T) {
	now := time.Now() // carries a monotonic reading
	k1 := NewInstanceKey("wf", "load", now, 1)
	k2 := NewInstanceKey("wf", "load", now.Round(0), 1)

	if k1 != k2 {
		t.Error("Monotonic clock reading should not affect key equality")
	}
}

func TestInstanceKey_DistinctAttempts(t *testing.T) {
	runAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	k1 := NewInstanceKey("wf", "extract", runAt, 1)
	k2 := NewInstanceKey("wf", "extract", runAt, 2)

	if k1 == k2 {
		t.Error("Different attempts of the same task should have distinct keys")
	}
}

func TestInstanceKey_String(t *testing.T) {
	runAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	k := NewInstanceKey("wf", "extract", runAt, 2)

	want := "wf/extract@2026-03-01T12:00:00Z#2"
	if got := k.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
