package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pendulab/internal/clock"
	"github.com/san-kum/pendulab/internal/config"
	"github.com/san-kum/pendulab/internal/experiment"
	"github.com/san-kum/pendulab/internal/sim"
	"github.com/san-kum/pendulab/internal/trials"
	"go.uber.org/zap"
)

const (
	tickInterval   = 10 * time.Millisecond
	historyLen     = 120
	trailLen       = 12
	dragStepDeg    = 1.0
	maxTrialRows   = 8
	averageTimeout = 10 * time.Second
)

const (
	inputOscillations = iota
	inputLength
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type averageMsg trials.Result

// board collects what the loop publishes. Its callbacks run inside
// Update, on the engine pump.
type board struct {
	stopwatch time.Duration
	history   []float64
	trail     []float64
	trials    []trials.Trial
}

func (b *board) OnFrame(s sim.State) {
	if !s.Running {
		return
	}
	b.history = append(b.history, s.CurrentAngleDeg)
	if len(b.history) > historyLen {
		b.history = b.history[len(b.history)-historyLen:]
	}
	b.trail = append(b.trail, s.CurrentAngleDeg)
	if len(b.trail) > trailLen {
		b.trail = b.trail[len(b.trail)-trailLen:]
	}
}

func (b *board) OnStopwatch(d time.Duration) { b.stopwatch = d }

func (b *board) OnTrial(t trials.Trial) { b.trials = append(b.trials, t) }

func (b *board) clear() {
	b.history = nil
	b.trail = nil
	b.trials = nil
	b.stopwatch = 0
}

type Options struct {
	Config *config.Config
	Clock  clock.Clock
	Logger *zap.Logger
}

type Model struct {
	cfg    *config.Config
	exp    *experiment.Experiment
	board  *board
	keys   keyMap
	help   help.Model
	inputs []textinput.Model
	focus  int
	theme  int
	styles styles

	average   *trials.Result
	averaging bool
	status    string

	width  int
	height int
}

func New(opts Options) (*Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exp, err := experiment.New(experiment.FromConfig(cfg, 1), opts.Clock, logger)
	if err != nil {
		return nil, err
	}
	b := &board{}
	exp.Setup(b)

	params := cfg.Params()
	exp.Loop().Drag(params.InitialAngleDeg)
	osc := newInput("oscillations", fmt.Sprintf("%g", params.TargetOscillations))
	length := newInput("length cm", fmt.Sprintf("%d", params.LengthCm))

	theme := 0
	for i, t := range Themes {
		if t.Name == cfg.Theme {
			theme = i
		}
	}

	return &Model{
		cfg:    cfg,
		exp:    exp,
		board:  b,
		keys:   defaultKeys(),
		help:   help.New(),
		inputs: []textinput.Model{osc, length},
		focus:  -1,
		theme:  theme,
		styles: newStyles(Themes[theme]),
		width:  80,
		height: 24,
	}, nil
}

func newInput(placeholder, value string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 8
	in.Width = 8
	in.Prompt = ""
	in.SetValue(value)
	return in
}

// Experiment exposes the wired session, mostly for Close on exit.
func (m *Model) Experiment() *experiment.Experiment { return m.exp }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.exp.Engine().RunDue()
		return m, tick()
	case averageMsg:
		r := trials.Result(msg)
		m.average = &r
		m.averaging = false
		return m, nil
	case tea.KeyMsg:
		if m.focus >= 0 {
			return m.editKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Blur):
		m.setFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		next := m.focus + 1
		if next >= len(m.inputs) {
			next = -1
		}
		return m, m.setFocus(next)
	case msg.Type == tea.KeyEnter:
		m.setFocus(-1)
		m.start()
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	loop := m.exp.Loop()
	// Any key other than a drag step lets go of the bob.
	if loop.Dragging() && !key.Matches(msg, m.keys.DragLeft, m.keys.DragRight) {
		loop.EndDrag()
		if m.status == dragStatus {
			m.status = ""
		}
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		loop.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		m.start()
	case key.Matches(msg, m.keys.Toggle):
		if loop.Running() {
			loop.Stop()
			m.status = "stopped"
		} else if err := loop.Resume(); err == nil {
			m.status = ""
		}
	case key.Matches(msg, m.keys.Reset):
		loop.Reset()
		loop.Drag(m.cfg.Params().InitialAngleDeg)
		m.board.clear()
		m.average = nil
		m.status = "reset"
	case key.Matches(msg, m.keys.Average):
		m.averaging = true
		return m, m.requestAverage()
	case key.Matches(msg, m.keys.DragLeft):
		m.drag(-dragStepDeg)
	case key.Matches(msg, m.keys.DragRight):
		m.drag(dragStepDeg)
	case key.Matches(msg, m.keys.Focus):
		return m, m.setFocus(inputOscillations)
	case key.Matches(msg, m.keys.Theme):
		m.theme = (m.theme + 1) % len(Themes)
		m.styles = newStyles(Themes[m.theme])
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// start reads the inputs and begins a fresh trial from the current angle.
func (m *Model) start() {
	loop := m.exp.Loop()
	params := m.cfg.Params()
	params.TargetOscillations = config.ParseOscillations(m.inputs[inputOscillations].Value())
	params.LengthCm = config.ParseLength(m.inputs[inputLength].Value())
	params.InitialAngleDeg = loop.Snapshot().InitialAngleDeg

	if !loop.Start(params) {
		m.status = "trial already running"
		return
	}
	m.board.history = nil
	m.board.trail = nil
	m.status = ""
}

const dragStatus = "drag to set the release angle"

func (m *Model) drag(delta float64) {
	loop := m.exp.Loop()
	if !loop.Dragging() {
		loop.BeginDrag()
	}
	loop.Drag(loop.Snapshot().InitialAngleDeg + delta)
	m.board.trail = nil
	m.status = dragStatus
}

func (m *Model) requestAverage() tea.Cmd {
	agg := m.exp.Aggregator()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), averageTimeout)
		defer cancel()
		return averageMsg(agg.Average(ctx))
	}
}

func (m *Model) View() string {
	s := m.styles
	loop := m.exp.Loop()
	st := loop.Snapshot()
	var b strings.Builder

	icon, label := s.muted.Render("○"), s.muted.Render("idle")
	switch {
	case st.Running:
		icon, label = s.success.Render("●"), s.success.Render("running")
	case loop.Dragging():
		icon, label = s.accent.Render("◆"), s.accent.Render("dragging")
	case loop.Resumable():
		icon, label = s.warning.Render("○"), s.warning.Render("paused")
	case st.Settled:
		icon, label = s.primary.Render("✓"), s.primary.Render("complete")
	}
	b.WriteString(fmt.Sprintf("\n  %s %s  %s\n", icon, s.primary.Render("p e n d u l a b"), label))

	b.WriteString("  " + m.inputView(inputOscillations, "oscillations") +
		"  " + m.inputView(inputLength, "length (cm)") + "\n\n")

	cw, ch := m.canvasSize()
	canvas := NewCanvas(cw, ch)
	canvas.DrawPendulum(st.CurrentAngleDeg, m.board.trail)
	for _, line := range strings.Split(canvas.String(), "\n") {
		b.WriteString("  " + s.text.Render(line) + "\n")
	}

	count := fmt.Sprintf("%.1f/%g", st.OscillationCount, st.Params.TargetOscillations)
	b.WriteString(fmt.Sprintf("\n  %s %s   %s %s   %s %s   %s %s\n",
		s.muted.Render("stopwatch"), s.accent.Render(clock.FormatStopwatch(m.board.stopwatch)),
		s.muted.Render("count"), s.text.Render(count),
		s.muted.Render("angle"), s.text.Render(fmt.Sprintf("%+6.2f°", st.CurrentAngleDeg)),
		s.muted.Render("phase"), s.text.Render(fmt.Sprintf("%.2f rad", st.Phase))))

	if len(m.board.history) > 1 {
		bound := math.Max(math.Abs(st.InitialAngleDeg), 1)
		chart := asciigraph.Plot(m.board.history,
			asciigraph.Height(5),
			asciigraph.Width(min(60, max(m.width-12, 20))),
			asciigraph.LowerBound(-bound),
			asciigraph.UpperBound(bound),
			asciigraph.Caption("angle (deg)"))
		b.WriteString("\n" + s.primary.Render(indent(chart, "  ")) + "\n")
	}

	b.WriteString("\n" + m.trialsView())

	switch {
	case m.averaging:
		b.WriteString("  " + s.muted.Render("averaging…") + "\n")
	case m.average != nil && m.average.Empty():
		b.WriteString("  " + s.warning.Render("no trials to average") + "\n")
	case m.average != nil:
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			s.muted.Render("average period"),
			s.accent.Render(fmt.Sprintf("%.2f s", m.average.Average)),
			s.faint.Render(fmt.Sprintf("over %d trials (%s)", m.average.Count, m.average.Source))))
	}

	if err := loop.Err(); err != nil {
		b.WriteString("  " + s.err.Render(err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("  " + s.muted.Render(m.status) + "\n")
	}

	b.WriteString("\n  " + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m *Model) inputView(i int, label string) string {
	s := m.styles
	style := s.faint
	if m.focus == i {
		style = s.accent
	}
	return s.muted.Render(label+" ") + style.Render("[") + m.inputs[i].View() + style.Render("]")
}

func (m *Model) trialsView() string {
	s := m.styles
	if len(m.board.trials) == 0 {
		return "  " + s.faint.Render("no trials yet") + "\n"
	}
	var b strings.Builder
	b.WriteString("  " + s.muted.Render(fmt.Sprintf("%-6s %-12s %-10s %-8s", "trial", "oscillations", "total", "period")) + "\n")
	rows := m.board.trials
	if len(rows) > maxTrialRows {
		rows = rows[len(rows)-maxTrialRows:]
	}
	for _, t := range rows {
		b.WriteString("  " + s.text.Render(fmt.Sprintf("%-6d %-12g %-10s %-8s",
			t.Number, t.Oscillations,
			fmt.Sprintf("%.2f s", t.TotalTime),
			fmt.Sprintf("%.2f s", t.Period))) + "\n")
	}
	return b.String()
}

func (m *Model) canvasSize() (int, int) {
	w := min(max(m.width-6, 20), 60)
	h := min(max(m.height-24, 6), 12)
	return w, h
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Run starts the interactive lab and blocks until the user quits.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.exp.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
