package trials

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/xid"
)

var (
	// ErrInvalidTarget indicates a commit with a non-positive oscillation target.
	ErrInvalidTarget = errors.New("trials: oscillation target must be positive")

	// ErrInvalidElapsed indicates a negative or non-finite elapsed time.
	ErrInvalidElapsed = errors.New("trials: elapsed time must be non-negative")
)

// Trial is one completed timed run. Immutable once appended.
type Trial struct {
	Number       int     `json:"number"`
	Oscillations float64 `json:"oscillations"`
	TotalTime    float64 `json:"total_time"`
	Period       float64 `json:"period"`
	LengthCm     int     `json:"length_cm"`
	SessionID    string  `json:"session_id"`
}

// Measurement is what the simulation hands over when a trial completes.
type Measurement struct {
	Oscillations   float64
	ElapsedSeconds float64
	LengthCm       int
}

// Point is one (length, T²) pair of the length-vs-period-squared series.
type Point struct {
	LengthM  float64 `json:"length_m"`
	TSquared float64 `json:"t_squared"`
}

// Log is the ordered, append-only trial log. Numbers start at 1 and are
// never reused until Reset, which also starts a new session.
type Log struct {
	mu      sync.RWMutex
	trials  []Trial
	next    int
	session xid.ID
}

func NewLog() *Log {
	return &Log{
		trials:  make([]Trial, 0),
		next:    1,
		session: xid.New(),
	}
}

// Append derives the period, assigns the next number and stores the trial.
func (l *Log) Append(m Measurement) (Trial, error) {
	if !(m.Oscillations > 0) {
		return Trial{}, fmt.Errorf("%w: got %v", ErrInvalidTarget, m.Oscillations)
	}
	if !(m.ElapsedSeconds >= 0) {
		return Trial{}, fmt.Errorf("%w: got %v", ErrInvalidElapsed, m.ElapsedSeconds)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := Trial{
		Number:       l.next,
		Oscillations: m.Oscillations,
		TotalTime:    m.ElapsedSeconds,
		Period:       m.ElapsedSeconds / m.Oscillations,
		LengthCm:     m.LengthCm,
		SessionID:    l.session.String(),
	}
	l.trials = append(l.trials, t)
	l.next++
	return t, nil
}

// Trials returns a copy of the log in commit order.
func (l *Log) Trials() []Trial {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Trial, len(l.trials))
	copy(out, l.trials)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trials)
}

func (l *Log) Periods() []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]float64, len(l.trials))
	for i, t := range l.trials {
		out[i] = t.Period
	}
	return out
}

// Series returns the (L, T²) points of every trial that carries a length.
func (l *Log) Series() []Point {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return SeriesOf(l.trials)
}

// SeriesOf is Series over an arbitrary slice of trials.
func SeriesOf(ts []Trial) []Point {
	out := make([]Point, 0, len(ts))
	for _, t := range ts {
		if t.LengthCm <= 0 {
			continue
		}
		out = append(out, Point{LengthM: float64(t.LengthCm) / 100, TSquared: t.Period * t.Period})
	}
	return out
}

// EstimateGravity fits T² = (4π²/g)·L through the origin by least squares
// and returns g. It reports false when the points cannot determine a slope.
func EstimateGravity(points []Point) (float64, bool) {
	var sxy, sxx float64
	for _, p := range points {
		sxy += p.LengthM * p.TSquared
		sxx += p.LengthM * p.LengthM
	}
	if sxx == 0 || sxy <= 0 {
		return 0, false
	}
	return 4 * math.Pi * math.Pi * sxx / sxy, true
}

func (l *Log) Session() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.session.String()
}

// Reset empties the log, restarts numbering at 1 and opens a new session.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trials = l.trials[:0:0]
	l.next = 1
	l.session = xid.New()
}
