package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ascent/internal/dynamo"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	trailCapacity   = 400
	maxStepsFrame   = 1024
	frameRate       = 30
)

type TickMsg time.Time

type point struct{ x, y float64 }

// StatsSource is implemented by sources whose stepper reports adaptive
// statistics.
type StatsSource interface {
	Stats() (dynamo.AdaptiveStats, bool)
}

// Model is the bubbletea model of the live view. It steps its Source on
// every tick and draws either the mechanism (pendulums) or a phase portrait
// of the first two state components.
type Model struct {
	name          string
	src           Source
	energy        dynamo.Hamiltonian
	duration      float64
	stepsPerFrame int

	canvas *Canvas
	bounds Bounds
	trail  []point

	history    []float64
	energyHist []float64
	dtHist     []float64
	steps      int

	running  bool
	done     bool
	err      error
	showHelp bool
	theme    Theme
	styles   Styles
}

func NewModel(name string, src Source) Model {
	m := Model{
		name:          name,
		src:           src,
		stepsPerFrame: 1,
		canvas:        NewCanvas(width, height),
		bounds:        NewBounds(),
		trail:         make([]point, 0, trailCapacity),
		history:       make([]float64, 0, historyCapacity),
		dtHist:        make([]float64, 0, historyCapacity),
		running:       true,
		theme:         Themes[0],
		styles:        NewStyles(Themes[0]),
	}
	m.observe()
	return m
}

// WithEnergy plots h along the run.
func (m Model) WithEnergy(h dynamo.Hamiltonian) Model {
	m.energy = h
	m.energyHist = append(make([]float64, 0, historyCapacity), h.Energy(m.src.State()))
	return m
}

// WithDuration stops stepping once the source time reaches d.
func (m Model) WithDuration(d float64) Model {
	m.duration = d
	return m
}

func (m Model) WithStepsPerFrame(n int) Model {
	m.stepsPerFrame = max(1, min(n, maxStepsFrame))
	return m
}

func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	m.styles = NewStyles(m.theme)
	return m
}

func (m Model) Steps() int     { return m.steps }
func (m Model) Running() bool  { return m.running }
func (m Model) Done() bool     { return m.done }
func (m Model) Err() error     { return m.err }
func (m Model) Source() Source { return m.src }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "+", "=":
			m.stepsPerFrame = min(m.stepsPerFrame*2, maxStepsFrame)
		case "-", "_":
			m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		if err := m.src.Step(); err != nil {
			m.fail(err)
			return
		}
		if !m.src.State().IsValid() {
			m.fail(dynamo.ErrInvalidState)
			return
		}
		m.steps++
		m.observe()
		if m.duration > 0 && m.src.Time() >= m.duration-1e-9 {
			m.done = true
			m.running = false
			return
		}
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
}

func (m *Model) observe() {
	x := m.src.State()
	if len(x) > 0 {
		m.history = push(m.history, x[0])
	}
	m.dtHist = push(m.dtHist, m.src.Dt())
	if m.energy != nil {
		m.energyHist = push(m.energyHist, m.energy.Energy(x))
	}

	p, ok := m.worldPoint(x)
	if !ok {
		return
	}
	m.bounds.Fit(p.x, p.y)
	if len(m.trail) == trailCapacity {
		m.trail = m.trail[1:]
	}
	m.trail = append(m.trail, p)
}

func push(buf []float64, v float64) []float64 {
	if len(buf) == historyCapacity {
		buf = buf[1:]
	}
	return append(buf, v)
}

// worldPoint is the traced point of x: the pendulum bob, or (x0, x1).
func (m *Model) worldPoint(x dynamo.State) (point, bool) {
	switch {
	case m.name == "pendulum" && len(x) >= 2:
		return point{math.Sin(x[0]), -math.Cos(x[0])}, true
	case m.name == "double_pendulum" && len(x) >= 4:
		return point{math.Sin(x[0]) + math.Sin(x[1]), -math.Cos(x[0]) - math.Cos(x[1])}, true
	case len(x) >= 2:
		return point{x[0], x[1]}, true
	case len(x) == 1:
		return point{m.src.Time(), x[0]}, true
	}
	return point{}, false
}

func (m *Model) reset() {
	if err := m.src.Reset(); err != nil {
		m.fail(err)
		return
	}
	m.err = nil
	m.done = false
	m.running = true
	m.steps = 0
	m.bounds = NewBounds()
	m.trail = m.trail[:0]
	m.history = m.history[:0]
	m.dtHist = m.dtHist[:0]
	if m.energy != nil {
		m.energyHist = m.energyHist[:0]
	}
	m.observe()
}

func (m *Model) draw() {
	m.canvas.Clear()
	w, h := m.canvas.Pixels()

	bounds := m.bounds
	switch m.name {
	case "pendulum":
		bounds = Bounds{MinX: -1.2, MaxX: 1.2, MinY: -1.2, MaxY: 1.2}
	case "double_pendulum":
		bounds = Bounds{MinX: -2.2, MaxX: 2.2, MinY: -2.2, MaxY: 2.2}
	}

	for i, p := range m.trail {
		x1, y1 := bounds.Project(p.x, p.y, w, h)
		if i == 0 {
			m.canvas.Set(x1, y1)
			continue
		}
		x0, y0 := bounds.Project(m.trail[i-1].x, m.trail[i-1].y, w, h)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	x := m.src.State()
	switch {
	case m.name == "pendulum" && len(x) >= 2:
		px, py := bounds.Project(0, 0, w, h)
		bx, by := bounds.Project(math.Sin(x[0]), -math.Cos(x[0]), w, h)
		m.canvas.DrawLine(px, py, bx, by)
	case m.name == "double_pendulum" && len(x) >= 4:
		px, py := bounds.Project(0, 0, w, h)
		mx, my := math.Sin(x[0]), -math.Cos(x[0])
		ax, ay := bounds.Project(mx, my, w, h)
		bx, by := bounds.Project(mx+math.Sin(x[1]), my-math.Cos(x[1]), w, h)
		m.canvas.DrawLine(px, py, ax, ay)
		m.canvas.DrawLine(ax, ay, bx, by)
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Bad.Render("ERROR " + m.err.Error())
	case m.done:
		return m.styles.Good.Render("DONE")
	case !m.running:
		return m.styles.Warn.Render("PAUSED")
	}
	return m.styles.Good.Render("RUNNING")
}

func (m Model) row(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n"
}

func (m Model) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(m.styles.Header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(m.row("Time", fmt.Sprintf("%.4f", m.src.Time())))
	s.WriteString(m.row("dt", fmt.Sprintf("%.3g", m.src.Dt())))
	s.WriteString(m.row("Steps", fmt.Sprintf("%d (x%d/frame)", m.steps, m.stepsPerFrame)))
	if ss, ok := m.src.(StatsSource); ok {
		if stats, ok := ss.Stats(); ok {
			s.WriteString(m.row("Accepted", fmt.Sprintf("%d", stats.Accepted)))
			s.WriteString(m.row("Rejected", fmt.Sprintf("%d", stats.Rejected)))
		}
	}
	if n := len(m.energyHist); n > 0 {
		s.WriteString(m.row("Energy", fmt.Sprintf("%.6g", m.energyHist[n-1])))
	}
	if m.duration > 0 {
		s.WriteString(m.row("Progress", ProgressBar(m.src.Time()/m.duration, 20)))
	}
	s.WriteString(m.row("dt trace", Sparkline(m.dtHist, 20)))

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("x0"))
		s.WriteString(m.styles.Graph.Render(chart) + "\n")
	}
	if len(m.energyHist) > 1 {
		chart := asciigraph.Plot(m.energyHist, asciigraph.Height(3), asciigraph.Width(30), asciigraph.Caption("energy"))
		s.WriteString(m.styles.Graph.Render(chart) + "\n")
	}

	if m.showHelp {
		s.WriteString(m.styles.Help.Render("space pause  r reset  q quit\nt theme: " + m.theme.Name + "\n+/- steps per frame"))
	} else {
		s.WriteString(m.styles.Help.Render("? help  q quit"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.String()), m.styles.Panel.Render(s.String()))
}
