package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepIdle(t *testing.T) {
	s := Idle()
	next, action := Step(s, Frame{Now: time.Unix(1, 0), Elapsed: 1})
	assert.Equal(t, ActionIdle, action)
	assert.Equal(t, s, next)
}

func TestStepDoesNotMutateInput(t *testing.T) {
	s := Begin(DefaultParams(), ProfileStandard)
	s.PeriodSamples = make([]float64, 0, 8)

	// Walk to the first whole oscillation.
	var last State
	action := ActionContinue
	cur := s
	base := time.Unix(0, 0)
	for i := 1; action == ActionContinue && len(cur.PeriodSamples) == 0; i++ {
		elapsed := float64(i) * 0.001
		last = cur
		cur, action = Step(cur, Frame{Now: base.Add(time.Duration(i) * time.Millisecond), Elapsed: elapsed})
	}
	require.Len(t, cur.PeriodSamples, 1)
	assert.Empty(t, last.PeriodSamples)
	assert.Empty(t, s.PeriodSamples)
	assert.Zero(t, s.OscillationCount)
	assert.True(t, s.LastFrameAt.IsZero())
}

func TestStepFrameCap(t *testing.T) {
	s := Begin(DefaultParams(), ProfileConstrained)
	base := time.Unix(100, 0)

	s, action := Step(s, Frame{Now: base, Elapsed: 0.016})
	require.Equal(t, ActionContinue, action)

	skipped, action := Step(s, Frame{Now: base.Add(16 * time.Millisecond), Elapsed: 0.032})
	assert.Equal(t, ActionSkip, action)
	assert.Equal(t, s, skipped)

	next, action := Step(s, Frame{Now: base.Add(33 * time.Millisecond), Elapsed: 0.049})
	assert.Equal(t, ActionContinue, action)
	assert.InDelta(t, 0.049, next.Elapsed, 1e-12)
}

func TestStepCompletes(t *testing.T) {
	p := DefaultParams()
	p.TargetOscillations = 1
	s := Begin(p, ProfileStandard)
	base := time.Unix(0, 0)

	var action Action
	for i := 1; i < 10000; i++ {
		s, action = Step(s, Frame{Now: base.Add(time.Duration(i) * time.Millisecond), Elapsed: float64(i) / 1000})
		if action == ActionComplete {
			break
		}
	}
	require.Equal(t, ActionComplete, action)
	assert.False(t, s.Running)
	assert.True(t, s.Settled)
	assert.Equal(t, 1.0, s.OscillationCount)
	require.Len(t, s.PeriodSamples, 1)
	// The first whole count lands three quarters of a period in.
	assert.InDelta(t, 0.75*s.Period, s.PeriodSamples[0], 0.002)

	after, action := Step(s, Frame{Now: base.Add(time.Hour), Elapsed: 3600})
	assert.Equal(t, ActionIdle, action)
	assert.Equal(t, s, after)
}

func TestBegin(t *testing.T) {
	p := Params{TargetOscillations: 3, LengthCm: 100, InitialAngleDeg: -20}.Sanitize()
	s := Begin(p, ProfileConstrained)

	assert.True(t, s.Running)
	assert.Equal(t, -20.0, s.CurrentAngleDeg)
	assert.Equal(t, -1, s.PrevSign)
	assert.InDelta(t, 2.007, s.Period, 0.001)
	assert.Equal(t, 33*time.Millisecond, s.FrameCap)
}

func TestParamsSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"zero", Params{}, DefaultParams()},
		{"negative", Params{TargetOscillations: -1, LengthCm: -5, InitialAngleDeg: -90, SettleThresholdDeg: -1},
			Params{TargetOscillations: 5, LengthCm: 50, InitialAngleDeg: -60, SettleThresholdDeg: 2}},
		{"sub-half target", Params{TargetOscillations: 0.2, LengthCm: 30, InitialAngleDeg: 10, SettleThresholdDeg: 1},
			Params{TargetOscillations: 5, LengthCm: 30, InitialAngleDeg: 10, SettleThresholdDeg: 1}},
		{"half target", Params{TargetOscillations: 0.5, LengthCm: 30, InitialAngleDeg: 10, SettleThresholdDeg: 1},
			Params{TargetOscillations: 0.5, LengthCm: 30, InitialAngleDeg: 10, SettleThresholdDeg: 1}},
		{"fractional", Params{TargetOscillations: 2.5, LengthCm: 30, InitialAngleDeg: 10, SettleThresholdDeg: 1},
			Params{TargetOscillations: 2.5, LengthCm: 30, InitialAngleDeg: 10, SettleThresholdDeg: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Sanitize())
		})
	}
}

func TestProfileByName(t *testing.T) {
	assert.Equal(t, ProfileConstrained, ProfileByName("constrained"))
	assert.Equal(t, ProfileStandard, ProfileByName("standard"))
	assert.Equal(t, ProfileStandard, ProfileByName("bogus"))
}
