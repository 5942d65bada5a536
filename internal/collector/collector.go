// Package collector reads cumulative interface byte counters and folds them
// into host wide totals, leaving loopback and virtual devices out.
package collector

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/vesaa/netspeed/internal/models"
)

// ErrSourceUnreadable is returned when the counter source cannot be read.
var ErrSourceUnreadable = errors.New("network statistics unreadable")

// Source kinds accepted by NewSource.
const (
	SourceAuto   = "auto"
	SourceProc   = "proc"
	SourcePsutil = "psutil"
)

// Source produces one aggregated sample per call.
type Source interface {
	Sample(ctx context.Context) (models.AggregatedTotals, error)
}

// NewSource picks a Source by kind. "auto" uses the kernel table on Linux and
// gopsutil elsewhere. path only applies to the proc source.
func NewSource(kind, path string) (Source, error) {
	switch kind {
	case SourceProc:
		return NewProcReader(path), nil
	case SourcePsutil:
		return NewPsutilReader(), nil
	case SourceAuto, "":
		if runtime.GOOS == "linux" {
			return NewProcReader(path), nil
		}
		return NewPsutilReader(), nil
	default:
		return nil, fmt.Errorf("unknown source %q (use auto, proc or psutil)", kind)
	}
}

// Aggregate sums every sample that passes the interface filter.
func Aggregate(samples []models.InterfaceSample) models.AggregatedTotals {
	var totals models.AggregatedTotals
	for _, s := range samples {
		if Excluded(s.Name) {
			continue
		}
		totals.TotalBytes += s.ReceivedBytes + s.TransmittedBytes
		totals.UploadBytes += s.TransmittedBytes
	}
	totals.DownloadBytes = totals.TotalBytes - totals.UploadBytes
	return totals
}
