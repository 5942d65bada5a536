// Package rate turns successive counter totals into per-second throughput.
package rate

import (
	"time"

	"github.com/vesaa/netspeed/internal/models"
)

// minElapsed guards the division when two samples share a timestamp.
const minElapsed = time.Millisecond

// Calculator remembers the previous sample and the cumulative-total baseline.
// It is not safe for concurrent use; callers serialize access.
type Calculator struct {
	previous *models.RateSample
	baseline uint64
}

// NewCalculator returns a calculator with no previous sample.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Update computes rates between the stored sample and current, then stores
// current. The first call only establishes the starting point and reports zeros.
func (c *Calculator) Update(current models.AggregatedTotals, now time.Time) models.SpeedStats {
	if c.previous == nil {
		c.previous = &models.RateSample{Totals: current, Timestamp: now}
		return models.SpeedStats{Timestamp: now}
	}

	elapsed := now.Sub(c.previous.Timestamp)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	seconds := elapsed.Seconds()

	prev := c.previous.Totals
	total := (float64(current.TotalBytes) - float64(prev.TotalBytes)) / seconds
	upload := (float64(current.UploadBytes) - float64(prev.UploadBytes)) / seconds
	download := total - upload

	c.previous = &models.RateSample{Totals: current, Timestamp: now}

	// Counters go backwards on interface reset or wraparound.
	return models.SpeedStats{
		TotalSpeed:    clamp(total),
		UploadSpeed:   clamp(upload),
		DownloadSpeed: clamp(download),
		Timestamp:     now,
	}
}

// TotalSinceReset returns the bytes moved since the last ResetBaseline.
// Counters below the baseline (after a reboot) yield 0.
func (c *Calculator) TotalSinceReset(current models.AggregatedTotals) uint64 {
	if current.TotalBytes < c.baseline {
		return 0
	}
	return current.TotalBytes - c.baseline
}

// ResetBaseline makes current the new zero point of the cumulative total.
func (c *Calculator) ResetBaseline(current models.AggregatedTotals) {
	c.baseline = current.TotalBytes
}

// RestoreBaseline sets a baseline recorded earlier, e.g. by another process.
func (c *Calculator) RestoreBaseline(totalBytes uint64) {
	c.baseline = totalBytes
}

// Baseline returns the current zero point of the cumulative total.
func (c *Calculator) Baseline() uint64 {
	return c.baseline
}

// Previous returns the stored sample, if any.
func (c *Calculator) Previous() (models.RateSample, bool) {
	if c.previous == nil {
		return models.RateSample{}, false
	}
	return *c.previous, true
}

// Reset forgets the previous sample and the baseline.
func (c *Calculator) Reset() {
	c.previous = nil
	c.baseline = 0
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
