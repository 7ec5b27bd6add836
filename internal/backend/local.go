package backend

import (
	"context"
	"os/exec"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/halverson/dispatch/internal/faults"
	"github.com/halverson/dispatch/internal/task"
)

// Local runs attempts as child processes of the coordinator. It exists
// so the binary is useful standalone and so tests have a realistic
// backend; clustered backends are expected to replace it.
//
// Local embeds Base and therefore adopts nothing: a restarted
// coordinator cannot reattach to child processes of its predecessor.
type Local struct {
	Base

	mu        sync.Mutex
	completed []task.Outcome
	wg        conc.WaitGroup
	closed    bool
}

// NewLocal creates a Local backend.
func NewLocal() *Local {
	return &Local{}
}

// Submit starts the attempt's command as a child process. The command
// runs detached from the submit context: dispatched work has no
// cancellation primitive, matching the coordinator contract.
func (l *Local) Submit(_ context.Context, ins *task.Instance) error {
	if len(ins.Command) == 0 {
		return faults.Permanent(faults.New("empty command"))
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return faults.Transient(faults.New("backend shutting down"))
	}
	l.mu.Unlock()

	key := ins.Key
	argv := append([]string(nil), ins.Command...)

	l.wg.Go(func() {
		cmd := exec.Command(argv[0], argv[1:]...)
		err := cmd.Run()

		out := task.Outcome{Key: key, State: task.StateSuccess}
		if err != nil {
			out.State = task.StateFailed
			out.Info = err.Error()
		}

		l.mu.Lock()
		l.completed = append(l.completed, out)
		l.mu.Unlock()
	})
	return nil
}

// PollCompleted drains and returns outcomes of attempts that finished
// since the last poll.
func (l *Local) PollCompleted(_ context.Context) ([]task.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.completed
	l.completed = nil
	return out, nil
}

// Wait blocks until every submitted process has exited. New submissions
// are refused (transiently) once Wait has been called.
func (l *Local) Wait() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}
