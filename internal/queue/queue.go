package queue

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/halverson/dispatch/internal/faults"
	"github.com/halverson/dispatch/internal/task"
)

// Sentinel errors returned by queue operations.
var (
	ErrDuplicateKey = errors.New("attempt already queued")
)

// FaultPolicy selects how a failed submission is recovered.
type FaultPolicy string

const (
	// FaultPolicyRequeue re-enqueues attempts whose submission failed
	// transiently and fails only permanent faults.
	FaultPolicyRequeue FaultPolicy = "requeue"

	// FaultPolicyFail records any submission fault as a failed attempt,
	// transient or not.
	FaultPolicyFail FaultPolicy = "fail"
)

// Valid reports whether p is a known policy.
func (p FaultPolicy) Valid() bool {
	return p == FaultPolicyRequeue || p == FaultPolicyFail
}

// SubmitFunc submits one attempt to a backend. A nil return means the
// attempt is now running under the backend's ownership.
type SubmitFunc func(*task.Instance) error

// FailureSink receives attempts that the queue gave up on, so their
// failure can be recorded where the scheduler will collect it.
type FailureSink func(key task.InstanceKey, info string)

// item is one queued attempt plus the bookkeeping the heap needs.
type item struct {
	ins *task.Instance
	seq uint64 // insertion order; lower dispatches first within a priority
}

// Queue holds ready-to-run attempts ordered by priority, FIFO within a
// priority. All methods are safe for concurrent use via an internal
// mutex.
type Queue struct {
	mu     sync.Mutex
	items  pq
	keys   map[task.InstanceKey]struct{}
	seq    uint64
	policy FaultPolicy
	sink   FailureSink
}

// New creates an empty Queue with the given submission fault policy.
// The sink receives permanently failed attempts; it must not be nil.
func New(policy FaultPolicy, sink FailureSink) *Queue {
	if !policy.Valid() {
		panic("queue: unknown fault policy " + string(policy))
	}
	if sink == nil {
		panic("queue: nil failure sink")
	}
	return &Queue{
		keys:   make(map[task.InstanceKey]struct{}),
		policy: policy,
		sink:   sink,
	}
}

// Enqueue adds an attempt to the queue. Enqueueing a key that is
// already queued returns ErrDuplicateKey; the scheduler re-offering an
// attempt it already handed over is a caller bug worth surfacing.
func (q *Queue) Enqueue(ins *task.Instance) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.push(ins)
}

// push adds an attempt at the tail of its priority class.
// Caller must hold q.mu.
func (q *Queue) push(ins *task.Instance) error {
	if _, ok := q.keys[ins.Key]; ok {
		return ErrDuplicateKey
	}
	q.seq++
	heap.Push(&q.items, &item{ins: ins, seq: q.seq})
	q.keys[ins.Key] = struct{}{}
	return nil
}

// DispatchReady pulls at most max attempts in selection order and
// submits each through submit. It returns the attempts that were
// accepted by the backend.
//
// A failed submission counts against max for this call. Under
// FaultPolicyRequeue a transient fault puts the attempt back at the
// tail of its priority class for a later call; any other fault goes to
// the failure sink. The queue never aborts the pull early: one bad
// attempt must not starve the ones behind it.
func (q *Queue) DispatchReady(max int, submit SubmitFunc) []*task.Instance {
	q.mu.Lock()
	defer q.mu.Unlock()

	var dispatched []*task.Instance
	var requeue []*task.Instance

	for i := 0; i < max && q.items.Len() > 0; i++ {
		it := heap.Pop(&q.items).(*item)
		delete(q.keys, it.ins.Key)

		err := submit(it.ins)
		if err == nil {
			dispatched = append(dispatched, it.ins)
			continue
		}

		if q.policy == FaultPolicyRequeue && faults.IsTransient(err) {
			requeue = append(requeue, it.ins)
		} else {
			q.sink(it.ins.Key, err.Error())
		}
	}

	// Re-add transient failures only after the pull loop so a flapping
	// backend cannot make a single tick spin on the same attempt.
	for _, ins := range requeue {
		_ = q.push(ins)
	}

	return dispatched
}

// Remove deletes a queued attempt by key. Returns true if the attempt
// was present. Attempts already dispatched cannot be removed.
func (q *Queue) Remove(key task.InstanceKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.keys[key]; !ok {
		return false
	}
	for i, it := range q.items {
		if it.ins.Key == key {
			heap.Remove(&q.items, i)
			delete(q.keys, key)
			return true
		}
	}
	return false
}

// Len returns the number of queued, undispatched attempts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Snapshot returns the queued attempts in selection order without
// removing them. Used for persistence and status reporting.
func (q *Queue) Snapshot() []*task.Instance {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Copy the heap and pop it down to get a sorted view without
	// disturbing the live queue.
	tmp := make(pq, len(q.items))
	for i, it := range q.items {
		cp := *it
		tmp[i] = &cp
	}
	heap.Init(&tmp)

	out := make([]*task.Instance, 0, len(tmp))
	for tmp.Len() > 0 {
		out = append(out, heap.Pop(&tmp).(*item).ins)
	}
	return out
}

// pq implements heap.Interface: higher priority first, then lower
// sequence number (earlier insertion).
type pq []*item

func (p pq) Len() int { return len(p) }

func (p pq) Less(i, j int) bool {
	if p[i].ins.Priority != p[j].ins.Priority {
		return p[i].ins.Priority > p[j].ins.Priority
	}
	return p[i].seq < p[j].seq
}

func (p pq) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p *pq) Push(x any) { *p = append(*p, x.(*item)) }

func (p *pq) Pop() any {
	old := *p
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*p = old[:n-1]
	return it
}
