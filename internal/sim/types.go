package sim

import (
	"math"
	"time"
)

const (
	DefaultOscillations       = 5
	DefaultLengthCm           = 50
	DefaultInitialAngleDeg    = 15.0
	MaxAngleDeg               = 60.0
	DefaultSettleThresholdDeg = 2.0
)

// Params are the inputs of one trial.
type Params struct {
	TargetOscillations float64
	LengthCm           int
	InitialAngleDeg    float64
	SettleThresholdDeg float64
}

func DefaultParams() Params {
	return Params{
		TargetOscillations: DefaultOscillations,
		LengthCm:           DefaultLengthCm,
		InitialAngleDeg:    DefaultInitialAngleDeg,
		SettleThresholdDeg: DefaultSettleThresholdDeg,
	}
}

// Sanitize replaces missing or invalid values with defaults. It never fails.
func (p Params) Sanitize() Params {
	// Below half an oscillation there is no crossing to time.
	if !(p.TargetOscillations >= minTarget) || math.IsInf(p.TargetOscillations, 0) {
		p.TargetOscillations = DefaultOscillations
	}
	if p.LengthCm <= 0 {
		p.LengthCm = DefaultLengthCm
	}
	if math.IsNaN(p.InitialAngleDeg) || p.InitialAngleDeg == 0 {
		p.InitialAngleDeg = DefaultInitialAngleDeg
	}
	p.InitialAngleDeg = ClampAngle(p.InitialAngleDeg)
	if !(p.SettleThresholdDeg > 0) || p.SettleThresholdDeg >= MaxAngleDeg {
		p.SettleThresholdDeg = DefaultSettleThresholdDeg
	}
	return p
}

// LengthMeters converts the centimetre input used by the UI.
func (p Params) LengthMeters() float64 { return float64(p.LengthCm) / 100 }

// ClampAngle limits a dragged angle to [-MaxAngleDeg, MaxAngleDeg].
func ClampAngle(deg float64) float64 {
	if math.IsNaN(deg) {
		return 0
	}
	return math.Max(-MaxAngleDeg, math.Min(MaxAngleDeg, deg))
}

// Profile describes the host's throughput.
type Profile struct {
	Name string
	// FrameInterval is how often the host offers a frame.
	FrameInterval time.Duration
	// FrameCap is the minimum spacing between processed frames; zero is uncapped.
	FrameCap time.Duration
	// StopwatchResolution is both the polling interval and display resolution.
	StopwatchResolution time.Duration
}

var (
	ProfileStandard = Profile{
		Name:                "standard",
		FrameInterval:       16 * time.Millisecond,
		StopwatchResolution: 10 * time.Millisecond,
	}
	ProfileConstrained = Profile{
		Name:                "constrained",
		FrameInterval:       16 * time.Millisecond,
		FrameCap:            33 * time.Millisecond,
		StopwatchResolution: 50 * time.Millisecond,
	}
)

// ProfileByName returns the named profile, falling back to standard.
func ProfileByName(name string) Profile {
	if name == ProfileConstrained.Name {
		return ProfileConstrained
	}
	return ProfileStandard
}

// Action is what the scheduler must do after a frame.
type Action int

const (
	// ActionIdle means the state is not running; nothing is rescheduled.
	ActionIdle Action = iota
	// ActionSkip means the frame was throttled; reschedule without rendering.
	ActionSkip
	// ActionContinue means render and reschedule.
	ActionContinue
	// ActionComplete means render, stop the stopwatch and commit the trial.
	ActionComplete
)

func (a Action) String() string {
	switch a {
	case ActionIdle:
		return "idle"
	case ActionSkip:
		return "skip"
	case ActionContinue:
		return "continue"
	case ActionComplete:
		return "complete"
	}
	return "unknown"
}

// Frame is one tick of the host scheduler.
type Frame struct {
	Now     time.Time
	Elapsed float64
}

// State is the single live simulation state. Loop owns it; Step returns
// updated copies.
type State struct {
	Running          bool
	Params           Params
	Period           float64
	CurrentAngleDeg  float64
	InitialAngleDeg  float64
	OscillationCount float64
	LastZeroCrossing float64
	PeriodSamples    []float64
	Elapsed          float64
	Phase            float64
	Settled          bool

	// PrevSign is the sign of the previous angle sample, zero before any.
	PrevSign    int
	LastFrameAt time.Time
	FrameCap    time.Duration
}

// Idle returns the state shown before any trial.
func Idle() State {
	return State{
		InitialAngleDeg: DefaultInitialAngleDeg,
		Params:          DefaultParams(),
	}
}

// Clone copies the state including its period samples.
func (s State) Clone() State {
	c := s
	c.PeriodSamples = append([]float64(nil), s.PeriodSamples...)
	return c
}
