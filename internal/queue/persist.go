package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/halverson/dispatch/internal/task"
)

const stateFileName = "dispatch-state.json"

// PersistedState is the serializable snapshot of a coordinator's work:
// the attempts still waiting for dispatch and the attempts believed to
// be running on the backend. After a restart, Queued seeds the new
// queue and Dispatched becomes the adoption candidate set.
type PersistedState struct {
	// RunID identifies the coordinator process that wrote the snapshot.
	RunID string `json:"run_id"`

	Queued     []*task.Instance `json:"queued"`
	Dispatched []*task.Instance `json:"dispatched"`
}

// SaveState writes a snapshot of the queue plus the given dispatched
// set to a JSON file in dir. The write is atomic (temp file + rename)
// and a file lock is held for cross-process safety.
func (q *Queue) SaveState(dir, runID string, dispatched []*task.Instance) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	fl := NewFileLock(dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	st := PersistedState{
		RunID:      runID,
		Queued:     q.Snapshot(),
		Dispatched: dispatched,
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	target := filepath.Join(dir, stateFileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LoadState reads a previously saved snapshot from dir. A file lock is
// held during the read. Returns os.ErrNotExist (wrapped) when no
// snapshot has ever been written.
func LoadState(dir string) (*PersistedState, error) {
	fl := NewFileLock(dir)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}
