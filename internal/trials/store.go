package trials

import "context"

// Store is the external trial store. Every call may fail; the engine never
// depends on one succeeding.
type Store interface {
	Add(ctx context.Context, t Trial) error
	Average(ctx context.Context) (Summary, error)
	Clear(ctx context.Context) error
}

// Summary is the store's view of the trials it holds.
type Summary struct {
	Status  string
	Average float64
	Count   int
}

// StatusSuccess is the only status under which a Summary is trusted.
const StatusSuccess = "success"

// Dispatcher runs fire-and-forget work off the caller's goroutine. Go must
// never block; it reports whether the work was accepted.
type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error) bool
}
