package clock

import (
	"fmt"
	"time"
)

// Source is one view over a shared Reference. A zero resolution reports
// the raw elapsed time; a positive resolution truncates to a multiple of it.
type Source struct {
	name       string
	ref        *Reference
	resolution time.Duration
	last       time.Duration
}

func NewSource(name string, ref *Reference, resolution time.Duration) *Source {
	return &Source{name: name, ref: ref, resolution: resolution}
}

// NewPair builds the stopwatch and simulation sources over one reference.
func NewPair(ref *Reference, stopwatchResolution time.Duration) (stopwatch, simulation *Source) {
	return NewSource("stopwatch", ref, stopwatchResolution), NewSource("simulation", ref, 0)
}

func (s *Source) Name() string { return s.name }

func (s *Source) Resolution() time.Duration { return s.resolution }

// Sample reads the elapsed time at now and remembers it as the last
// displayed value.
func (s *Source) Sample(now time.Time) time.Duration {
	d := s.ref.Elapsed(now)
	if s.resolution > 0 {
		d = d.Truncate(s.resolution)
	}
	s.last = d
	return d
}

// Seconds is Sample expressed in seconds.
func (s *Source) Seconds(now time.Time) float64 {
	return s.Sample(now).Seconds()
}

// Last returns the most recently sampled value.
func (s *Source) Last() time.Duration { return s.last }

// Clear zeroes the displayed value.
func (s *Source) Clear() { s.last = 0 }

// FormatStopwatch renders d as mm:ss.cc the way the stopwatch displays it.
func FormatStopwatch(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	centis := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
}
