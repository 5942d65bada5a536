package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vesaa/netspeed/internal/models"
)

const (
	// ProcNetDev is the kernel interface statistics table.
	ProcNetDev = "/proc/net/dev"

	// Counter positions after the interface name; see
	// https://www.kernel.org/doc/html/latest/filesystems/proc.html (1.3 Networking info).
	rxBytesCol  = 0
	txBytesCol  = 8
	minCounters = txBytesCol + 1
)

// ProcReader samples the kernel statistics table from a file.
type ProcReader struct {
	Path string
}

// NewProcReader returns a reader for path, or /proc/net/dev when path is empty.
func NewProcReader(path string) *ProcReader {
	if path == "" {
		path = ProcNetDev
	}
	return &ProcReader{Path: path}
}

// Sample reads the whole table and aggregates the interfaces that pass the filter.
func (r *ProcReader) Sample(ctx context.Context) (models.AggregatedTotals, error) {
	if err := ctx.Err(); err != nil {
		return models.AggregatedTotals{}, err
	}
	f, err := os.Open(r.Path)
	if err != nil {
		return models.AggregatedTotals{}, fmt.Errorf("%w: opening %s: %v", ErrSourceUnreadable, r.Path, err)
	}
	defer f.Close()

	samples, err := ParseNetDev(f)
	if err != nil {
		return models.AggregatedTotals{}, fmt.Errorf("%w: reading %s: %v", ErrSourceUnreadable, r.Path, err)
	}
	return Aggregate(samples), nil
}

// ParseNetDev parses a /proc/net/dev style table. Lines without an interface
// name, with too few counters or with non numeric byte counters are skipped,
// which drops the two header lines.
func ParseNetDev(rd io.Reader) ([]models.InterfaceSample, error) {
	var samples []models.InterfaceSample
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := scanner.Text()
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := strings.TrimSpace(line[:colon])
		counters := strings.Fields(line[colon+1:])
		if name == "" || len(counters) < minCounters {
			continue
		}

		rx, err := strconv.ParseUint(counters[rxBytesCol], 10, 64)
		if err != nil {
			continue
		}
		tx, err := strconv.ParseUint(counters[txBytesCol], 10, 64)
		if err != nil {
			continue
		}
		samples = append(samples, models.InterfaceSample{
			Name:             name,
			ReceivedBytes:    rx,
			TransmittedBytes: tx,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
