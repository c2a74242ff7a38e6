// Package dispatch runs fire-and-forget work on a background worker.
//
// The simulation must never wait on the network, so calls to the trial
// store are handed to a Dispatcher and forgotten. Each job gets its own
// timeout; its outcome is only logged.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultQueueSize = 64
	DefaultTimeout   = 5 * time.Second
)

type job struct {
	name    string
	fn      func(ctx context.Context) error
	barrier chan struct{}
}

// Dispatcher executes jobs one at a time, in submission order, on a single
// worker goroutine. A store clear submitted after an add therefore reaches
// the store after it.
type Dispatcher struct {
	jobs    chan job
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	onDone func(name string, err error)
}

type Option func(*Dispatcher)

// WithQueueSize bounds how many jobs may wait. Submissions beyond it are dropped.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan job, n)
		}
	}
}

// WithTimeout sets the per-job deadline.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithCompletion registers a callback run on the worker after every job.
func WithCompletion(fn func(name string, err error)) Option {
	return func(d *Dispatcher) { d.onDone = fn }
}

func New(logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		jobs:    make(chan job, DefaultQueueSize),
		timeout: DefaultTimeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Go queues fn without blocking. It returns false if the dispatcher is
// closed or its queue is full.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.jobs <- job{name: name, fn: fn}:
		return true
	default:
		d.logger.Warn("dispatch queue full", zap.String("job", name))
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.execute(j)
	}
}

func (d *Dispatcher) execute(j job) {
	if j.barrier != nil {
		close(j.barrier)
		return
	}
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := j.fn(ctx)
	if err != nil {
		d.logger.Warn("background job failed",
			zap.String("job", j.name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	} else {
		d.logger.Debug("background job done",
			zap.String("job", j.name),
			zap.Duration("took", time.Since(start)))
	}
	if d.onDone != nil {
		d.onDone(j.name, err)
	}
}

// Wait blocks until every job queued before the call has finished or ctx is
// done. Unlike Go it may block while the queue is full.
func (d *Dispatcher) Wait(ctx context.Context) error {
	barrier := make(chan struct{})

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return nil
	}
	select {
	case d.jobs <- job{name: "barrier", barrier: barrier}:
	case <-ctx.Done():
		d.mu.RUnlock()
		return ctx.Err()
	}
	d.mu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to finish. Pending
// jobs still see their own timeout; Abort cuts them short.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// Abort cancels in-flight work, then closes.
func (d *Dispatcher) Abort() {
	d.cancel()
	d.Close()
}
