package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vesaa/netspeed/internal/agent"
	"github.com/vesaa/netspeed/internal/collector"
	"github.com/vesaa/netspeed/internal/config"
	"github.com/vesaa/netspeed/internal/models"
)

const netDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
  eth0: 1000 12 0 0 0 0 0 0 500 7 0 0 0 0 0 0
`

func newTestModel(t *testing.T) (*Model, *agent.Monitor) {
	t.Helper()
	dir := t.TempDir()
	devPath := filepath.Join(dir, "dev")
	require.NoError(t, os.WriteFile(devPath, []byte(netDev), 0o644))

	log := zaptest.NewLogger(t).Sugar()
	mon := agent.New(agent.Options{
		Source:   collector.NewProcReader(devPath),
		Settings: config.Open(filepath.Join(dir, "config.json"), log),
		Clock:    clock.NewMock(),
		Logger:   log,
	})
	return New(context.Background(), mon, time.Second), mon
}

func TestInitSamplesThenSchedulesTick(t *testing.T) {
	m, _ := newTestModel(t)

	msg := m.Init()()
	r, ok := msg.(readingMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(1500), r.Totals.TotalBytes)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, "0bps", m.latest.Text)
	assert.Contains(t, m.View(), m.latest.Text)
}

func TestKeysCycleModeAndFont(t *testing.T) {
	m, mon := newTestModel(t)
	m.Update(m.Init()())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.Equal(t, models.ModeTotalBytes, mon.Mode())
	assert.Equal(t, models.ModeTotalBytes, m.latest.Mode)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.Equal(t, 1, m.latest.FontMode)
	assert.Empty(t, m.status)
}

func TestMouseClicksRouteLikeWidget(t *testing.T) {
	m, mon := newTestModel(t)
	m.Update(m.Init()())

	for i := 0; i < 4; i++ {
		m.Update(tea.MouseMsg{Type: tea.MouseLeft})
	}
	require.Equal(t, models.ModeTotalDownloaded, mon.Mode())
	assert.Equal(t, "∑ 1.50KB", m.latest.Text)
	assert.Contains(t, m.View(), "reset total")

	m.Update(tea.MouseMsg{Type: tea.MouseRight})
	assert.Equal(t, uint64(0), m.latest.TotalSinceReset)
	assert.Equal(t, "∑ 0B", m.latest.Text)

	m.Update(tea.MouseMsg{Type: tea.MouseMiddle})
	assert.Equal(t, 1, m.latest.FontMode)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTickRequestsSample(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd)
	_, ok := cmd().(readingMsg)
	assert.True(t, ok)
}

func TestErrorReadingIsShown(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(readingMsg(agent.Reading{Text: "Error", Error: "no such file"}))
	assert.Contains(t, m.View(), "Error")
}

func TestLabelStyleWidth(t *testing.T) {
	for _, mode := range models.AllModes() {
		want := narrowWidth
		if mode.IsSplit() {
			want = wideWidth
		}
		for font := 0; font < 5; font++ {
			assert.Equal(t, want, LabelStyle(mode, font).GetWidth(), "mode %d font %d", mode, font)
		}
	}
	assert.True(t, LabelStyle(models.ModeTotalBits, 0).GetBold())
	assert.True(t, LabelStyle(models.ModeTotalBits, 3).GetFaint())
	assert.False(t, LabelStyle(models.ModeTotalBits, 1).GetBold())

	// out of range font modes fall back to the plain label
	assert.Equal(t, LabelStyle(models.ModeTotalBits, 1).GetBold(), LabelStyle(models.ModeTotalBits, 9).GetBold())
	assert.Equal(t, narrowWidth, lipgloss.Width(LabelStyle(models.ModeTotalBits, 1).Render("x")))
}
