package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pendulab/internal/clock"
	"github.com/san-kum/pendulab/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	t   *testing.T
	clk *clock.FakeClock
	m   *Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store.URL = ""
	clk := clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m, err := New(Options{Config: cfg, Clock: clk, Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(m.Experiment().Close)
	return &harness{t: t, clk: clk, m: m}
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(*Model)
	return cmd
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		switch k {
		case "enter":
			h.send(tea.KeyMsg{Type: tea.KeyEnter})
		case "tab":
			h.send(tea.KeyMsg{Type: tea.KeyTab})
		case "esc":
			h.send(tea.KeyMsg{Type: tea.KeyEsc})
		case "space":
			h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		case "backspace":
			h.send(tea.KeyMsg{Type: tea.KeyBackspace})
		case "left":
			h.send(tea.KeyMsg{Type: tea.KeyLeft})
		case "right":
			h.send(tea.KeyMsg{Type: tea.KeyRight})
		default:
			h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

// run advances the fake clock in tick-sized steps, pumping the engine.
func (h *harness) run(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += tickInterval {
		h.clk.Advance(tickInterval)
		h.send(tickMsg(h.clk.Now()))
	}
}

func TestStartStopResume(t *testing.T) {
	h := newHarness(t)
	loop := h.m.Experiment().Loop()

	h.press("enter")
	require.True(t, loop.Running())
	h.run(500 * time.Millisecond)
	assert.Contains(t, h.m.View(), "running")
	assert.Equal(t, 500*time.Millisecond, h.m.board.stopwatch)

	h.press("space")
	assert.False(t, loop.Running())
	assert.Contains(t, h.m.View(), "paused")
	h.run(time.Second)
	assert.Equal(t, 500*time.Millisecond, h.m.board.stopwatch)

	h.press("space")
	assert.True(t, loop.Running())
	h.run(100 * time.Millisecond)
	assert.Equal(t, 600*time.Millisecond, h.m.board.stopwatch)
}

func TestTrialCompletesAndAverages(t *testing.T) {
	h := newHarness(t)
	h.press("tab")
	for i := 0; i < 4; i++ {
		h.press("backspace")
	}
	h.press("1", "esc")

	h.press("enter")
	loop := h.m.Experiment().Loop()
	require.Equal(t, 1.0, loop.Snapshot().Params.TargetOscillations)
	h.run(5 * time.Second)
	require.False(t, loop.Running())
	require.Len(t, h.m.board.trials, 1)
	assert.Contains(t, h.m.View(), "complete")

	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	assert.True(t, h.m.averaging)
	h.send(cmd())
	require.NotNil(t, h.m.average)
	assert.Equal(t, 1, h.m.average.Count)
	assert.Contains(t, h.m.View(), "average period")

	h.press("r")
	assert.Nil(t, h.m.average)
	assert.Empty(t, h.m.board.trials)
	assert.Zero(t, h.m.Experiment().Log().Len())
}

func TestStartWhileRunningKeepsTrial(t *testing.T) {
	h := newHarness(t)
	h.press("enter")
	h.run(200 * time.Millisecond)
	before := h.m.Experiment().Loop().Snapshot().Elapsed

	h.press("s")
	assert.Equal(t, before, h.m.Experiment().Loop().Snapshot().Elapsed)
	assert.Contains(t, h.m.View(), "trial already running")
}

func TestDragSetsReleaseAngle(t *testing.T) {
	h := newHarness(t)
	h.press("right", "right", "right")
	loop := h.m.Experiment().Loop()
	assert.Equal(t, 18.0, loop.Snapshot().InitialAngleDeg)
	assert.Contains(t, h.m.View(), "dragging")

	h.press("enter")
	assert.True(t, loop.Running())
	assert.False(t, loop.Dragging())
	assert.Equal(t, 18.0, loop.Snapshot().InitialAngleDeg)
}

func TestOtherKeyEndsDrag(t *testing.T) {
	h := newHarness(t)
	h.press("right", "right")
	loop := h.m.Experiment().Loop()
	require.True(t, loop.Dragging())

	h.press("t")
	assert.False(t, loop.Dragging())
	assert.Equal(t, 17.0, loop.Snapshot().InitialAngleDeg)
	assert.NotContains(t, h.m.View(), "dragging")
	assert.NotContains(t, h.m.View(), dragStatus)

	h.press("left")
	assert.True(t, loop.Dragging())
	assert.Equal(t, 16.0, loop.Snapshot().InitialAngleDeg)
}

func TestEmptyAverage(t *testing.T) {
	h := newHarness(t)
	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	h.send(cmd())
	assert.Contains(t, h.m.View(), "no trials to average")
}

func TestInvalidInputsFallBackToDefaults(t *testing.T) {
	h := newHarness(t)
	h.press("tab")
	for i := 0; i < 4; i++ {
		h.press("backspace")
	}
	h.press("x", "tab")
	for i := 0; i < 4; i++ {
		h.press("backspace")
	}
	h.press("-", "3", "enter")

	p := h.m.Experiment().Loop().Snapshot().Params
	assert.Equal(t, 5.0, p.TargetOscillations)
	assert.Equal(t, 50, p.LengthCm)
	assert.Equal(t, -1, h.m.focus)
}

func TestThemeCycleAndQuit(t *testing.T) {
	h := newHarness(t)
	h.press("t")
	assert.Equal(t, 1, h.m.theme)

	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestConfiguredReleaseAngle(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.URL = ""
	cfg.InitialAngleDeg = 8
	clk := clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m, err := New(Options{Config: cfg, Clock: clk, Logger: zap.NewNop()})
	require.NoError(t, err)
	defer m.Experiment().Close()

	loop := m.Experiment().Loop()
	assert.Equal(t, 8.0, loop.Snapshot().InitialAngleDeg)

	loop.Drag(30)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 8.0, loop.Snapshot().InitialAngleDeg)
}
