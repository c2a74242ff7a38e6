package engine

import "time"

// Task is one scheduled callback.
type Task struct {
	name     string
	at       time.Time
	seq      uint64
	fn       func(now time.Time)
	canceled bool
	done     bool
	index    int
}

func (t *Task) Name() string { return t.name }

// Deadline is the instant the task becomes due.
func (t *Task) Deadline() time.Time { return t.at }

// Pending reports whether the task will still run.
func (t *Task) Pending() bool { return t != nil && !t.canceled && !t.done }

// Cancel prevents the task from running. It returns true if the call
// stopped the task, false if it had already run or been canceled.
// Canceling a nil task is allowed.
func (t *Task) Cancel() bool {
	if t == nil || t.canceled || t.done {
		return false
	}
	t.canceled = true
	return true
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[0 : n-1]
	return t
}
