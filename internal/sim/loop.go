package sim

import (
	"time"

	"github.com/san-kum/pendulab/internal/clock"
	"github.com/san-kum/pendulab/internal/engine"
	"github.com/san-kum/pendulab/internal/trials"
	"go.uber.org/zap"
)

// Recorder takes completed trials.
type Recorder interface {
	Commit(m trials.Measurement) (trials.Trial, error)
	Reset()
}

// Observer receives what the loop would render.
type Observer interface {
	OnFrame(s State)
	OnStopwatch(d time.Duration)
	OnTrial(t trials.Trial)
}

type nopObserver struct{}

func (nopObserver) OnFrame(State)             {}
func (nopObserver) OnStopwatch(time.Duration) {}
func (nopObserver) OnTrial(trials.Trial)      {}

// Loop is the single non-reentrant simulation loop. All of its methods and
// callbacks must run on the scheduler's goroutine.
type Loop struct {
	sched    engine.Scheduler
	profile  Profile
	recorder Recorder
	observer Observer
	logger   *zap.Logger

	ref       *clock.Reference
	stopwatch *clock.Source
	simclock  *clock.Source

	state     State
	frame     *engine.Task
	poll      *engine.Task
	resumable bool
	dragging  bool
	lastErr   error
}

func NewLoop(sched engine.Scheduler, profile Profile, recorder Recorder, observer Observer, logger *zap.Logger) *Loop {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ref := clock.NewReference()
	stopwatch, simclock := clock.NewPair(ref, profile.StopwatchResolution)
	return &Loop{
		sched:     sched,
		profile:   profile,
		recorder:  recorder,
		observer:  observer,
		logger:    logger.With(zap.String("profile", profile.Name)),
		ref:       ref,
		stopwatch: stopwatch,
		simclock:  simclock,
		state:     Idle(),
	}
}

// Snapshot returns a copy of the live state.
func (l *Loop) Snapshot() State { return l.state.Clone() }

func (l *Loop) Running() bool { return l.state.Running }

func (l *Loop) Dragging() bool { return l.dragging }

func (l *Loop) Resumable() bool { return l.resumable }

// Stopwatch is the last displayed stopwatch value.
func (l *Loop) Stopwatch() time.Duration { return l.stopwatch.Last() }

// Clock exposes the shared reference state.
func (l *Loop) Clock() clock.ClockState { return l.ref.State() }

// Err returns the last commit failure, if any.
func (l *Loop) Err() error { return l.lastErr }

// Start begins a fresh trial. Starting while running is a no-op and
// returns false.
func (l *Loop) Start(p Params) bool {
	if l.state.Running {
		return false
	}
	l.cancel()

	p = p.Sanitize()
	now := l.sched.Now()
	l.state = Begin(p, l.profile)
	l.resumable = false
	l.dragging = false
	l.lastErr = nil
	l.stopwatch.Clear()
	l.ref.Start(now)

	l.logger.Info("trial started",
		zap.Float64("oscillations", p.TargetOscillations),
		zap.Int("length_cm", p.LengthCm),
		zap.Float64("initial_angle", p.InitialAngleDeg),
		zap.Float64("period", l.state.Period))

	l.schedule()
	l.observer.OnFrame(l.state.Clone())
	return true
}

// Resume continues a stopped or drag-interrupted trial from where its
// clocks froze.
func (l *Loop) Resume() error {
	if l.state.Running {
		return ErrRunning
	}
	if !l.resumable {
		return ErrNotResumable
	}
	l.ref.Resume(l.sched.Now())
	l.state.Running = true
	l.state.LastFrameAt = time.Time{}
	l.resumable = false
	l.dragging = false

	l.logger.Debug("trial resumed", zap.Duration("paused", l.ref.State().PausedAccumulated))
	l.schedule()
	return nil
}

// Stop interrupts a running trial. The trial stays resumable.
func (l *Loop) Stop() {
	l.interrupt("stop")
}

// BeginDrag interrupts like Stop and lets Drag set the initial angle.
func (l *Loop) BeginDrag() {
	l.interrupt("drag")
	l.dragging = true
}

// Drag sets the initial and current angle. It only has an effect while the
// loop is not running.
func (l *Loop) Drag(angleDeg float64) bool {
	if l.state.Running {
		return false
	}
	a := ClampAngle(angleDeg)
	l.state.InitialAngleDeg = a
	l.state.CurrentAngleDeg = a
	if s := sign(a); s != 0 {
		l.state.PrevSign = s
	}
	l.observer.OnFrame(l.state.Clone())
	return true
}

func (l *Loop) EndDrag() { l.dragging = false }

// Reset cancels everything, clears the clocks and the trial log. Calling it
// twice is the same as calling it once.
func (l *Loop) Reset() {
	l.cancel()
	l.ref.Reset()
	l.stopwatch.Clear()
	l.simclock.Clear()
	l.state = Idle()
	l.resumable = false
	l.dragging = false
	l.lastErr = nil
	if l.recorder != nil {
		l.recorder.Reset()
	}
	l.observer.OnStopwatch(0)
	l.observer.OnFrame(l.state.Clone())
}

func (l *Loop) interrupt(reason string) {
	l.cancel()
	if !l.state.Running {
		return
	}
	now := l.sched.Now()
	l.ref.Pause(now)
	l.state.Running = false
	l.resumable = true
	l.observer.OnStopwatch(l.stopwatch.Sample(now))
	l.logger.Debug("trial interrupted",
		zap.String("reason", reason),
		zap.Float64("oscillations", l.state.OscillationCount))
}

// cancel drops both pending tasks. It must run before any state transition.
func (l *Loop) cancel() {
	l.frame.Cancel()
	l.poll.Cancel()
	l.frame = nil
	l.poll = nil
}

func (l *Loop) schedule() {
	l.scheduleFrame()
	l.schedulePoll()
}

func (l *Loop) scheduleFrame() {
	var task *engine.Task
	task = l.sched.After("frame", l.profile.FrameInterval, func(now time.Time) {
		l.onFrame(task, now)
	})
	l.frame = task
}

func (l *Loop) schedulePoll() {
	var task *engine.Task
	task = l.sched.After("stopwatch", l.profile.StopwatchResolution, func(now time.Time) {
		l.onPoll(task, now)
	})
	l.poll = task
}

func (l *Loop) onFrame(task *engine.Task, now time.Time) {
	if task != l.frame || !l.state.Running {
		return
	}
	l.frame = nil

	next, action := Step(l.state, Frame{Now: now, Elapsed: l.simclock.Seconds(now)})
	l.state = next

	switch action {
	case ActionSkip:
		l.scheduleFrame()
	case ActionContinue:
		l.observer.OnFrame(l.state.Clone())
		l.scheduleFrame()
	case ActionComplete:
		l.observer.OnFrame(l.state.Clone())
		l.complete(now)
	}
}

func (l *Loop) onPoll(task *engine.Task, now time.Time) {
	if task != l.poll || !l.ref.Running() {
		return
	}
	l.poll = nil
	l.observer.OnStopwatch(l.stopwatch.Sample(now))
	l.schedulePoll()
}

func (l *Loop) complete(now time.Time) {
	l.poll.Cancel()
	l.poll = nil
	l.ref.Pause(now)
	l.resumable = false
	l.observer.OnStopwatch(l.stopwatch.Sample(now))

	m := trials.Measurement{
		Oscillations:   l.state.Params.TargetOscillations,
		ElapsedSeconds: l.state.Elapsed,
		LengthCm:       l.state.Params.LengthCm,
	}
	if l.recorder == nil {
		return
	}
	t, err := l.recorder.Commit(m)
	if err != nil {
		l.lastErr = &CommitError{Oscillations: m.Oscillations, Elapsed: m.ElapsedSeconds, Wrapped: err}
		l.logger.Error("trial commit failed", zap.Error(err))
		return
	}
	l.observer.OnTrial(t)
}
