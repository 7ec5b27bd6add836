// Package task defines the core data model for the coordinator: the
// instance key that uniquely identifies one execution attempt, the
// instance itself, and the states an attempt moves through.
//
// An attempt's lifecycle under the coordinator is:
//
//	QUEUED → DISPATCHED → {SUCCESS, FAILED}
//
// On restart, a previously DISPATCHED attempt becomes an adoption
// candidate and either returns to DISPATCHED (adopted) or to QUEUED
// (handed back for rescheduling).
package task

import (
	"strconv"
	"time"
)

// State represents the execution state of a task attempt.
type State string

const (
	// StateQueued indicates the attempt is held by the coordinator but
	// not yet submitted to a backend.
	StateQueued State = "queued"

	// StateDispatched indicates the attempt has been submitted to a
	// backend and its outcome has not yet been observed.
	StateDispatched State = "dispatched"

	// StateSuccess indicates the backend reported the attempt finished
	// successfully.
	StateSuccess State = "success"

	// StateFailed indicates the backend reported the attempt failed, or
	// submission failed permanently.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if this state represents a final outcome.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFailed
}

// InstanceKey uniquely identifies one execution attempt of one task
// within one workflow run. It is a comparable value type and is the
// sole lookup key throughout the coordinator.
type InstanceKey struct {
	WorkflowID string    `json:"workflow_id" yaml:"workflow_id"`
	TaskID     string    `json:"task_id" yaml:"task_id"`
	RunAt      time.Time `json:"run_at" yaml:"run_at"`
	Attempt    int       `json:"attempt" yaml:"attempt"`
}

// NewInstanceKey builds a key with RunAt normalized to UTC and stripped
// of its monotonic reading, so two keys for the same logical run compare
// equal under == and as map keys.
func NewInstanceKey(workflowID, taskID string, runAt time.Time, attempt int) InstanceKey {
	return InstanceKey{
		WorkflowID: workflowID,
		TaskID:     taskID,
		RunAt:      runAt.UTC().Round(0),
		Attempt:    attempt,
	}
}

// String renders the key in a compact human-readable form used in logs.
func (k InstanceKey) String() string {
	return k.WorkflowID + "/" + k.TaskID + "@" + k.RunAt.Format(time.RFC3339) + "#" + strconv.Itoa(k.Attempt)
}

// Instance is one ready-to-run execution attempt handed to the
// coordinator by the scheduler. The command is opaque to the
// coordinator; only the backend interprets it.
type Instance struct {
	Key InstanceKey `json:"key" yaml:"key"`

	// Priority orders dispatch: higher values dispatch first.
	Priority int `json:"priority" yaml:"priority"`

	// Queue is the backend target queue name, if the backend supports
	// routing. The coordinator passes it through untouched.
	Queue string `json:"queue,omitempty" yaml:"queue,omitempty"`

	// Command is the opaque execution command for the backend.
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`
}

// Outcome is a terminal result for one attempt as reported by a backend.
type Outcome struct {
	Key   InstanceKey
	State State
	// Info carries optional auxiliary detail (exit reason, message).
	Info string
}
