// Package ui is the terminal rendition of the panel widget: one label that
// updates every interval and reacts to mouse clicks like the desktop indicator.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vesaa/netspeed/internal/agent"
	"github.com/vesaa/netspeed/internal/models"
)

// Label widths in cells. Split modes carry two figures.
const (
	narrowWidth = 14
	wideWidth   = 26
)

// Model renders live readings from a Monitor.
type Model struct {
	ctx      context.Context
	monitor  *agent.Monitor
	interval time.Duration
	latest   agent.Reading
	status   string
	width    int
}

func New(ctx context.Context, mon *agent.Monitor, interval time.Duration) *Model {
	return &Model{
		ctx:      ctx,
		monitor:  mon,
		interval: interval,
		latest:   mon.Latest(),
		width:    80,
	}
}

// Messages
type (
	tickMsg    struct{}
	readingMsg agent.Reading
)

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) sampleCmd() tea.Cmd {
	return func() tea.Msg { return readingMsg(m.monitor.Tick(m.ctx)) }
}

func (m *Model) Init() tea.Cmd { return m.sampleCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "m":
			m.apply(m.monitor.CycleMode())
		case "f":
			m.apply(m.monitor.CycleFontMode())
		case "r":
			m.apply(m.monitor.Click(m.ctx, agent.ButtonRight))
		}
	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseLeft:
			m.apply(m.monitor.Click(m.ctx, agent.ButtonLeft))
		case tea.MouseMiddle:
			m.apply(m.monitor.Click(m.ctx, agent.ButtonMiddle))
		case tea.MouseRight:
			m.apply(m.monitor.Click(m.ctx, agent.ButtonRight))
		}
	case tickMsg:
		return m, m.sampleCmd()
	case readingMsg:
		m.latest = agent.Reading(msg)
		return m, m.tickCmd()
	}
	return m, nil
}

// apply shows the reading produced by a gesture. A persistence failure does
// not undo the gesture; it is only reported under the label.
func (m *Model) apply(r agent.Reading, err error) {
	m.latest = r
	m.status = ""
	if err != nil {
		m.status = err.Error()
	}
}

// Styles
var (
	labelBase = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
	errorColor  = lipgloss.Color("203")
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor)
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	// one variant per font mode, largest emphasis first
	fontStyles = [...]func(lipgloss.Style) lipgloss.Style{
		func(s lipgloss.Style) lipgloss.Style { return s.Bold(true) },
		func(s lipgloss.Style) lipgloss.Style { return s },
		func(s lipgloss.Style) lipgloss.Style { return s.Italic(true) },
		func(s lipgloss.Style) lipgloss.Style { return s.Faint(true) },
		func(s lipgloss.Style) lipgloss.Style { return s.Faint(true).Italic(true) },
	}
)

// LabelStyle returns the label style for a display mode and font mode. The
// width depends only on whether the mode shows one figure or two, so the
// label does not jitter as values change.
func LabelStyle(mode models.DisplayMode, fontMode int) lipgloss.Style {
	width := narrowWidth
	if mode.IsSplit() {
		width = wideWidth
	}
	s := labelBase.Width(width)
	if fontMode >= 0 && fontMode < len(fontStyles) {
		s = fontStyles[fontMode](s)
	}
	return s
}

func (m *Model) View() string {
	r := m.latest
	text := r.Text
	if text == "" {
		text = "…"
	}
	label := LabelStyle(r.Mode, r.FontMode).Render(text)
	if r.Err != nil || r.Error != "" {
		label = LabelStyle(r.Mode, r.FontMode).Foreground(errorColor).Render(text)
	}

	lines := []string{
		label,
		subtleStyle.Render(r.Mode.Description()),
	}
	if m.status != "" {
		lines = append(lines, errorStyle.Render(m.status))
	}
	lines = append(lines, subtleStyle.Render(helpText(r.Mode)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func helpText(mode models.DisplayMode) string {
	if mode == models.ModeTotalDownloaded {
		return "left/m: mode  middle/f: font  right/r: reset total  q: quit"
	}
	return "left/m: mode  middle/f: font  q: quit"
}

// RunTUI starts the Bubble Tea program and blocks until the user quits or ctx is done.
func RunTUI(ctx context.Context, mon *agent.Monitor, interval time.Duration) error {
	prog := tea.NewProgram(New(ctx, mon, interval),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := prog.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
