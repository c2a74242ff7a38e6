package sim

import "github.com/san-kum/pendulab/internal/physics"

// Step is the pure per-frame transition. It never mutates s; the returned
// state shares nothing writable with it.
func Step(s State, f Frame) (State, Action) {
	if !s.Running {
		return s, ActionIdle
	}
	if s.FrameCap > 0 && !s.LastFrameAt.IsZero() && f.Now.Sub(s.LastFrameAt) < s.FrameCap {
		return s, ActionSkip
	}

	next := s
	next.LastFrameAt = f.Now
	next.Elapsed = f.Elapsed
	next.CurrentAngleDeg = physics.Angle(f.Elapsed, s.InitialAngleDeg, s.Period)
	next.Phase = physics.Phase(f.Elapsed, s.Period)

	d := NewDetector(s.Params.TargetOscillations, s.Params.SettleThresholdDeg)
	if d.Observe(&next, f.Elapsed, next.CurrentAngleDeg) {
		next.Running = false
		return next, ActionComplete
	}
	return next, ActionContinue
}

// Begin builds the fresh running state for a trial. p must be sanitized.
func Begin(p Params, profile Profile) State {
	return State{
		Running:         true,
		Params:          p,
		Period:          physics.Period(p.LengthMeters()),
		CurrentAngleDeg: p.InitialAngleDeg,
		InitialAngleDeg: p.InitialAngleDeg,
		PrevSign:        sign(p.InitialAngleDeg),
		FrameCap:        profile.FrameCap,
	}
}
