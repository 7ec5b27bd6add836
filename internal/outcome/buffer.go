// Package outcome provides the buffer that holds terminal results of
// dispatched attempts until the scheduler collects them.
//
// The buffer is drain-on-read: collecting an entry removes it. That
// semantic is load-bearing for the scheduler contract — an outcome must
// be delivered exactly once — so Drain always deletes what it returns.
package outcome

import (
	"sync"

	"github.com/halverson/dispatch/internal/task"
)

// Entry is one buffered terminal result.
type Entry struct {
	State task.State
	Info  string
}

// Buffer maps attempt keys to terminal outcomes. All methods are safe
// for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	entries map[task.InstanceKey]Entry
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		entries: make(map[task.InstanceKey]Entry),
	}
}

// Record stores a terminal outcome for the given key. If an unread
// entry already exists for the key it is overwritten; the last recorded
// state wins. Recording a non-terminal state is a coordination bug and
// panics, because a buffered entry must always describe a finished
// attempt.
func (b *Buffer) Record(key task.InstanceKey, state task.State, info string) {
	if !state.IsTerminal() {
		panic("outcome: recorded non-terminal state " + state.String())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = Entry{State: state, Info: info}
}

// Drain removes and returns buffered outcomes. With no arguments every
// entry is returned and the buffer is left empty. With workflow IDs,
// only entries whose key belongs to one of the given workflows are
// removed and returned; the rest stay buffered for a later call.
func (b *Buffer) Drain(workflowIDs ...string) map[task.InstanceKey]Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	drained := make(map[task.InstanceKey]Entry)

	if len(workflowIDs) == 0 {
		for k, e := range b.entries {
			drained[k] = e
		}
		b.entries = make(map[task.InstanceKey]Entry)
		return drained
	}

	wanted := make(map[string]struct{}, len(workflowIDs))
	for _, id := range workflowIDs {
		wanted[id] = struct{}{}
	}
	for k, e := range b.entries {
		if _, ok := wanted[k.WorkflowID]; ok {
			drained[k] = e
			delete(b.entries, k)
		}
	}
	return drained
}

// Len returns the number of unread entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
