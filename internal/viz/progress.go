package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/rdsweep/internal/sweep"
)

const recentCapacity = 8

type TickMsg time.Time

// PointMsg carries one finished point into the program.
type PointMsg sweep.Event

// DoneMsg ends the program once the sweep has returned.
type DoneMsg struct {
	Rows int
	Err  error
}

// ProgressModel shows sweep progress and the most recent rows.
type ProgressModel struct {
	title    string
	header   []string
	total    int
	done     int
	frame    int
	started  time.Time
	simTime  time.Duration
	recent   []string
	last     string
	finished bool
	rows     int
	err      error
	cancel   func()
}

// NewProgressModel builds the model. cancel is called when the user quits
// before the sweep finishes.
func NewProgressModel(title string, header []string, total int, cancel func()) ProgressModel {
	return ProgressModel{
		title:   title,
		header:  header,
		total:   total,
		started: time.Now(),
		recent:  make([]string, 0, recentCapacity),
		cancel:  cancel,
	}
}

// Forward returns an observer that sends every event to p.
func Forward(p *tea.Program) sweep.Observer {
	return sweep.ObserverFunc(func(ev sweep.Event) { p.Send(PointMsg(ev)) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.finished && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case TickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	case PointMsg:
		m = m.record(sweep.Event(msg))
	case DoneMsg:
		m.finished = true
		m.rows = msg.Rows
		if msg.Err != nil && m.err == nil {
			m.err = msg.Err
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) record(ev sweep.Event) ProgressModel {
	m.simTime += ev.Completion.Duration
	m.last = ev.Point.String()
	if ev.Err != nil {
		m.err = ev.Err
		return m
	}
	m.done++
	line := strings.Join(ev.Row.Strings(), "  ")
	if len(m.recent) == recentCapacity {
		m.recent = append(m.recent[:0], m.recent[1:]...)
	}
	m.recent = append(m.recent, line)
	return m
}

func (m ProgressModel) Done() int { return m.done }

func (m ProgressModel) Err() error { return m.err }

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	fraction := 0.0
	if m.total > 0 {
		fraction = float64(m.done) / float64(m.total)
	}
	status := StatusRunning.Render(Spinner(m.frame) + " running")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("✗ failed")
	case m.finished:
		status = StatusRunning.Render("✓ done")
	}
	fmt.Fprintf(&b, "%s %s %d/%d\n\n", status, ProgressBar(fraction, 40), m.done, m.total)

	fmt.Fprintf(&b, "%s %s\n", MetricLabel.Render("last point"), MetricValue.Render(m.last))
	fmt.Fprintf(&b, "%s %s\n", MetricLabel.Render("elapsed   "), MetricValue.Render(time.Since(m.started).Round(time.Second).String()))
	fmt.Fprintf(&b, "%s %s\n\n", MetricLabel.Render("simulator "), MetricValue.Render(m.simTime.Round(time.Millisecond).String()))

	if len(m.recent) > 0 {
		b.WriteString(HeaderStyle.Render(strings.Join(m.header, "  ")))
		b.WriteString("\n")
		for _, line := range m.recent {
			b.WriteString(Subtle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(StatusFailed.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(KeyHint.Render("q: cancel and quit"))
	b.WriteString("\n")
	return b.String()
}
