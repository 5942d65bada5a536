// Package agent drives the sampling loop: it ties a counter source to the rate
// calculator and formatter, and routes user gestures to mode changes.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vesaa/netspeed/internal/collector"
	"github.com/vesaa/netspeed/internal/format"
	"github.com/vesaa/netspeed/internal/models"
	"github.com/vesaa/netspeed/internal/rate"
)

// Settings is the part of the config store the monitor needs.
type Settings interface {
	Mode() models.DisplayMode
	FontMode() int
	SetMode(models.DisplayMode) error
	CycleFontMode() (int, error)
}

// BaselineStore persists the cumulative-counter baseline.
type BaselineStore interface {
	Baseline() (uint64, bool, error)
	SaveBaseline(total uint64, at time.Time) error
}

// Reading is the outcome of one tick.
type Reading struct {
	Text            string                  `json:"text"`
	Mode            models.DisplayMode      `json:"mode"`
	FontMode        int                     `json:"font_mode"`
	Stats           models.SpeedStats       `json:"stats"`
	Totals          models.AggregatedTotals `json:"totals"`
	TotalSinceReset uint64                  `json:"total_since_reset"`
	At              time.Time               `json:"at"`
	Error           string                  `json:"error,omitempty"`
	Err             error                   `json:"-"`
}

// Options configures a Monitor. Source and Settings are required.
type Options struct {
	Source    collector.Source
	Settings  Settings
	Baselines BaselineStore // optional
	Clock     clock.Clock   // defaults to the wall clock
	Logger    *zap.SugaredLogger
}

// Monitor owns the stateful calculator and formatter. Every method takes the
// same lock, so drivers may call it from several goroutines.
type Monitor struct {
	mu sync.Mutex

	source    collector.Source
	settings  Settings
	baselines BaselineStore
	clock     clock.Clock
	log       *zap.SugaredLogger

	calc *rate.Calculator
	fmt  *format.Formatter

	mode   models.DisplayMode
	totals models.AggregatedTotals
	last   Reading
}

// New builds a Monitor starting in the stored display mode.
func New(opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	m := &Monitor{
		source:    opts.Source,
		settings:  opts.Settings,
		baselines: opts.Baselines,
		clock:     opts.Clock,
		log:       opts.Logger.Named("monitor"),
		calc:      rate.NewCalculator(),
		fmt:       format.New(),
		mode:      opts.Settings.Mode(),
	}
	m.syncBaseline()
	return m
}

// Tick samples the counters once and renders the result. A failed sample
// yields a Reading whose Text is format.ErrorText; the next tick proceeds normally.
func (m *Monitor) Tick(ctx context.Context) Reading {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	totals, err := m.source.Sample(ctx)
	if err != nil {
		m.log.Warnw("reading network stats failed", "error", err)
		m.last = Reading{
			Text:     format.ErrorText,
			Mode:     m.mode,
			FontMode: m.settings.FontMode(),
			At:       now,
			Error:    err.Error(),
			Err:      err,
		}
		return m.last
	}

	stats := m.calc.Update(totals, now)
	m.totals = totals
	if m.mode == models.ModeTotalDownloaded {
		m.syncBaseline()
	}
	m.last = m.render(stats, now)
	return m.last
}

// render formats stats in the current mode. Callers hold m.mu.
func (m *Monitor) render(stats models.SpeedStats, now time.Time) Reading {
	total := m.calc.TotalSinceReset(m.totals)
	return Reading{
		Text:            m.fmt.Format(stats, m.mode, total),
		Mode:            m.mode,
		FontMode:        m.settings.FontMode(),
		Stats:           stats,
		Totals:          m.totals,
		TotalSinceReset: total,
		At:              now,
	}
}

// rerender refreshes the last reading after a mode or font change without
// advancing the formatter's activity state. Callers hold m.mu.
func (m *Monitor) rerender() Reading {
	if m.last.Err != nil || m.last.At.IsZero() {
		m.last.Mode = m.mode
		m.last.FontMode = m.settings.FontMode()
		return m.last
	}
	total := m.calc.TotalSinceReset(m.totals)
	m.last.Text = m.fmt.Redraw(m.last.Stats, m.mode, total)
	m.last.Mode = m.mode
	m.last.FontMode = m.settings.FontMode()
	m.last.TotalSinceReset = total
	return m.last
}

// syncBaseline pulls a baseline recorded by any netspeed process. Callers hold
// m.mu or have exclusive access.
func (m *Monitor) syncBaseline() {
	if m.baselines == nil {
		return
	}
	total, ok, err := m.baselines.Baseline()
	if err != nil {
		m.log.Warnw("reading baseline failed", "error", err)
		return
	}
	if ok {
		m.calc.RestoreBaseline(total)
	}
}

// Latest returns the most recent reading.
func (m *Monitor) Latest() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Mode returns the display mode in use.
func (m *Monitor) Mode() models.DisplayMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode switches the display mode for this session only.
func (m *Monitor) SetMode(mode models.DisplayMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %d, must be 0-4", mode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.rerender()
	return nil
}

// CycleMode advances to the next mode and persists it. A failed save is
// returned but the new mode stays active.
func (m *Monitor) CycleMode() (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mode = m.mode.Next()
	err := m.settings.SetMode(m.mode)
	if err != nil {
		m.log.Warnw("persisting mode failed", "mode", m.mode, "error", err)
	}
	if m.mode == models.ModeTotalDownloaded {
		m.syncBaseline()
	}
	m.log.Infow("mode changed", "mode", m.mode, "description", m.mode.Description())
	return m.rerender(), err
}

// CycleFontMode advances the persisted font mode.
func (m *Monitor) CycleFontMode() (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	font, err := m.settings.CycleFontMode()
	if err != nil {
		m.log.Warnw("persisting font mode failed", "font_mode", font, "error", err)
	}
	m.log.Infow("font mode changed", "font_mode", font)
	return m.rerender(), err
}

// ResetTotal takes a fresh sample and makes it the zero point of the
// cumulative total, persisting it when a BaselineStore is configured.
func (m *Monitor) ResetTotal(ctx context.Context) (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	totals, err := m.source.Sample(ctx)
	if err != nil {
		return m.last, fmt.Errorf("resetting total: %w", err)
	}
	m.totals = totals
	m.calc.ResetBaseline(totals)
	m.log.Infow("total counter reset", "baseline", totals.TotalBytes)

	var saveErr error
	if m.baselines != nil {
		if saveErr = m.baselines.SaveBaseline(totals.TotalBytes, m.clock.Now()); saveErr != nil {
			m.log.Warnw("persisting baseline failed", "error", saveErr)
		}
	}
	return m.rerender(), saveErr
}

// Click routes a pointer button the way the panel widget does: left cycles
// the display mode, middle cycles the font, right resets the cumulative total
// (only while that mode is shown).
func (m *Monitor) Click(ctx context.Context, b Button) (Reading, error) {
	switch b {
	case ButtonLeft:
		return m.CycleMode()
	case ButtonMiddle:
		return m.CycleFontMode()
	case ButtonRight:
		if m.Mode() == models.ModeTotalDownloaded {
			return m.ResetTotal(ctx)
		}
		return m.Latest(), nil
	default:
		return m.Latest(), fmt.Errorf("unknown button %d", b)
	}
}
