package clock

import "time"

// ClockState is the externally visible state of a Reference.
type ClockState struct {
	StartEpoch        time.Time
	PausedAccumulated time.Duration
	Running           bool
}

// Reference is the single zero instant shared by the stopwatch and the
// simulation clock, together with the pause accumulator subtracted from
// both. It is owned by one goroutine (the engine's) and is not locked.
type Reference struct {
	state    ClockState
	pausedAt time.Time
	started  bool
}

func NewReference() *Reference {
	return &Reference{}
}

// Start sets the zero instant to now and clears any accumulated pause.
func (r *Reference) Start(now time.Time) {
	r.state = ClockState{StartEpoch: now, Running: true}
	r.pausedAt = time.Time{}
	r.started = true
}

// Pause freezes elapsed time at now. Pausing a stopped reference is a no-op.
func (r *Reference) Pause(now time.Time) {
	if !r.state.Running {
		return
	}
	if now.Before(r.state.StartEpoch) {
		now = r.state.StartEpoch
	}
	r.pausedAt = now
	r.state.Running = false
}

// Resume continues from the frozen elapsed value. The time spent paused is
// added to the accumulator, which is the same quantity both sources
// subtract.
func (r *Reference) Resume(now time.Time) {
	if r.state.Running || !r.started {
		return
	}
	if now.After(r.pausedAt) {
		r.state.PausedAccumulated += now.Sub(r.pausedAt)
	}
	r.pausedAt = time.Time{}
	r.state.Running = true
}

// Reset returns the reference to the never-started state.
func (r *Reference) Reset() {
	*r = Reference{}
}

// Elapsed is the wall-clock delta since Start minus all paused time. It is
// monotonic in now and never negative.
func (r *Reference) Elapsed(now time.Time) time.Duration {
	if !r.started {
		return 0
	}
	if !r.state.Running {
		now = r.pausedAt
	}
	d := now.Sub(r.state.StartEpoch) - r.state.PausedAccumulated
	if d < 0 {
		return 0
	}
	return d
}

func (r *Reference) Started() bool { return r.started }

func (r *Reference) Running() bool { return r.state.Running }

func (r *Reference) State() ClockState { return r.state }
