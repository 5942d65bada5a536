package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vesaa/netspeed/internal/models"
)

// Button is a pointer button as delivered by the host widget.
type Button int

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

// ParseButton accepts "left", "middle", "right" or the numbers 1-3.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "1":
		return ButtonLeft, nil
	case "middle", "2":
		return ButtonMiddle, nil
	case "right", "3":
		return ButtonRight, nil
	default:
		return 0, fmt.Errorf("unknown button %q (use left, middle or right)", s)
	}
}

// Run ticks immediately and then once per interval until ctx is done, passing
// every reading to emit. Sampling failures do not stop the loop.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, emit func(Reading)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}
	ticker := m.clock.Ticker(interval)
	defer ticker.Stop()

	m.log.Infow("monitoring started", "interval", interval, "mode", m.Mode())
	emit(m.Tick(ctx))
	for {
		select {
		case <-ctx.Done():
			m.log.Infow("monitoring stopped")
			return nil
		case <-ticker.C:
			emit(m.Tick(ctx))
		}
	}
}

// Once takes two samples wait apart and returns the second reading, so the
// rate covers a real interval. In cumulative mode a single sample suffices.
func (m *Monitor) Once(ctx context.Context, wait time.Duration) Reading {
	first := m.Tick(ctx)
	if m.Mode() == models.ModeTotalDownloaded || wait <= 0 {
		return first
	}
	timer := m.clock.Timer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return first
	case <-timer.C:
		return m.Tick(ctx)
	}
}

// LinePrinter returns an emit func writing one line per reading, prefixed
// with the local time when timestamps is set.
func LinePrinter(w io.Writer, timestamps bool) func(Reading) {
	return func(r Reading) {
		if timestamps {
			fmt.Fprintf(w, "[%s] %s\n", r.At.Local().Format("15:04:05"), r.Text)
			return
		}
		fmt.Fprintln(w, r.Text)
	}
}
