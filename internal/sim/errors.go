package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotResumable indicates Resume with no paused trial.
	ErrNotResumable = errors.New("sim: no paused trial to resume")

	// ErrRunning indicates an operation that requires an idle loop.
	ErrRunning = errors.New("sim: trial is running")
)

// CommitError wraps a recorder failure with the trial that was lost.
type CommitError struct {
	Oscillations float64
	Elapsed      float64
	Wrapped      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("sim: commit %.1f oscillations in %.3fs: %v", e.Oscillations, e.Elapsed, e.Wrapped)
}

func (e *CommitError) Unwrap() error {
	return e.Wrapped
}
