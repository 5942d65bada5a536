// Package format renders rates and totals as short display strings.
package format

import (
	"math"
	"math/big"

	"github.com/vesaa/netspeed/internal/models"
)

const (
	// ActivityGlyph prefixes total-speed modes when throughput rose since the last call.
	ActivityGlyph = "⇅"
	// ErrorText replaces the speed text when sampling failed.
	ErrorText = "Error"

	downArrow = "↓"
	upArrow   = " ↑"
	sumPrefix = "∑ "
)

var (
	bitUnits   = []string{"bps", "Kbps", "Mbps", "Gbps"}
	byteUnits  = []string{"B/s", "K/s", "M/s", "G/s"}
	totalUnits = []string{"B", "KB", "MB", "GB"}
)

func unitsFor(mode models.DisplayMode) []string {
	switch mode {
	case models.ModeTotalBits, models.ModeSplitBits:
		return bitUnits
	case models.ModeTotalDownloaded:
		return totalUnits
	default:
		return byteUnits
	}
}

// Scale renders amount (bytes or bytes/s) in the unit table of mode, stepping
// by 1000 up to the G unit. Bit modes multiply by 8 first.
func Scale(amount float64, mode models.DisplayMode) string {
	units := unitsFor(mode)
	if amount == 0 || amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0" + units[0]
	}
	if mode.IsBits() {
		amount *= 8
	}

	unit := 0
	for amount >= 1000 && unit < len(units)-1 {
		amount /= 1000
		unit++
	}

	digits := 2
	switch {
	case amount >= 100:
		digits = 0
	case amount >= 10:
		digits = 1
	}
	return toFixed(amount, digits) + units[unit]
}

// toFixed rounds halves away from zero using the exact binary value of x.
func toFixed(x float64, digits int) string {
	return new(big.Rat).SetFloat64(x).FloatString(digits)
}

// Formatter builds the display string. It keeps the last total speed for the
// activity glyph and is not safe for concurrent use.
type Formatter struct {
	lastSpeed float64
	rising    bool
}

// New returns a Formatter with no previous speed.
func New() *Formatter {
	return &Formatter{}
}

// Format renders stats for mode. totalSinceReset is only used by the
// cumulative mode.
func (f *Formatter) Format(stats models.SpeedStats, mode models.DisplayMode, totalSinceReset uint64) string {
	f.rising = stats.TotalSpeed > f.lastSpeed
	f.lastSpeed = stats.TotalSpeed
	return f.render(stats, mode, totalSinceReset)
}

// Redraw renders the stats of the last Format call again, e.g. after a mode
// change, keeping that call's activity glyph decision.
func (f *Formatter) Redraw(stats models.SpeedStats, mode models.DisplayMode, totalSinceReset uint64) string {
	return f.render(stats, mode, totalSinceReset)
}

func (f *Formatter) render(stats models.SpeedStats, mode models.DisplayMode, totalSinceReset uint64) string {
	glyph := ""
	if f.rising {
		glyph = ActivityGlyph
	}

	switch mode {
	case models.ModeTotalBits, models.ModeTotalBytes:
		return glyph + Scale(stats.TotalSpeed, mode)
	case models.ModeSplitBits, models.ModeSplitBytes:
		return downArrow + Scale(stats.DownloadSpeed, mode) + upArrow + Scale(stats.UploadSpeed, mode)
	case models.ModeTotalDownloaded:
		return sumPrefix + Scale(float64(totalSinceReset), mode)
	default:
		return Scale(stats.TotalSpeed, models.ModeTotalBytes)
	}
}

// Reset forgets the last recorded speed.
func (f *Formatter) Reset() {
	f.lastSpeed = 0
	f.rising = false
}
