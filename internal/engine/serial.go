package engine

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/san-kum/pendulab/internal/clock"
	"go.uber.org/zap"
)

// Scheduler is what simulation components schedule their callbacks on.
type Scheduler interface {
	Now() time.Time
	After(name string, d time.Duration, fn func(now time.Time)) *Task
}

// Serial runs tasks one after another in deadline order.
//
// After may be called from any goroutine; callbacks only ever run
// on the goroutine calling Run or RunDue.
type Serial struct {
	clock  clock.Clock
	logger *zap.Logger

	mu    sync.Mutex
	queue taskHeap
	seq   uint64
	wake  chan struct{}

	runLock sync.Mutex
}

func NewSerial(c clock.Clock, logger *zap.Logger) *Serial {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Serial{
		clock:  c,
		logger: logger,
		queue:  make(taskHeap, 0),
		wake:   make(chan struct{}, 1),
	}
	heap.Init(&e.queue)
	return e
}

func (e *Serial) Now() time.Time { return e.clock.Now() }

// After schedules fn to run d after the current clock time.
func (e *Serial) After(name string, d time.Duration, fn func(now time.Time)) *Task {
	if d < 0 {
		d = 0
	}
	e.mu.Lock()
	e.seq++
	t := &Task{
		name: name,
		at:   e.clock.Now().Add(d),
		seq:  e.seq,
		fn:   fn,
	}
	heap.Push(&e.queue, t)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return t
}

// Len returns the number of tasks that will still run.
func (e *Serial) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.queue {
		if t.Pending() {
			n++
		}
	}
	return n
}

// NextDeadline returns the deadline of the earliest pending task.
func (e *Serial) NextDeadline() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropCanceledLocked()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].at, true
}

func (e *Serial) dropCanceledLocked() {
	for len(e.queue) > 0 && !e.queue[0].Pending() {
		heap.Pop(&e.queue)
	}
}

// RunDue runs every task due at the current clock time and returns how many
// ran. Tasks scheduled by a callback for the same instant wait for the next
// call, so a zero-delay reschedule cannot spin forever.
func (e *Serial) RunDue() int {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	now := e.clock.Now()
	e.mu.Lock()
	limit := e.seq
	e.mu.Unlock()

	ran := 0
	for {
		t := e.popDue(now, limit)
		if t == nil {
			return ran
		}
		t.done = true
		t.fn(now)
		ran++
	}
}

func (e *Serial) popDue(now time.Time, limit uint64) *Task {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.dropCanceledLocked()
	if len(e.queue) == 0 {
		return nil
	}
	head := e.queue[0]
	if head.at.After(now) || head.seq > limit {
		return nil
	}
	heap.Pop(&e.queue)
	return head
}

// Run drives the queue against the wall clock until it empties or ctx is
// done. It returns ctx.Err() on cancellation and nil once idle.
func (e *Serial) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.RunDue()

		deadline, ok := e.NextDeadline()
		if !ok {
			e.logger.Debug("engine idle")
			return nil
		}

		wait := deadline.Sub(e.clock.Now())
		if wait <= 0 {
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-e.wake:
		}
	}
}
