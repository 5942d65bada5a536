package collector

import (
	"context"
	"fmt"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/vesaa/netspeed/internal/models"
)

// PsutilReader samples per-interface counters through gopsutil, for hosts
// without /proc/net/dev.
type PsutilReader struct {
	counters func(ctx context.Context, pernic bool) ([]psnet.IOCountersStat, error)
}

// NewPsutilReader returns a reader backed by gopsutil.
func NewPsutilReader() *PsutilReader {
	return &PsutilReader{counters: psnet.IOCountersWithContext}
}

// Sample collects per-NIC counters and applies the same filter as ProcReader.
func (r *PsutilReader) Sample(ctx context.Context) (models.AggregatedTotals, error) {
	stats, err := r.counters(ctx, true)
	if err != nil {
		return models.AggregatedTotals{}, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	samples := make([]models.InterfaceSample, 0, len(stats))
	for _, st := range stats {
		samples = append(samples, models.InterfaceSample{
			Name:             st.Name,
			ReceivedBytes:    st.BytesRecv,
			TransmittedBytes: st.BytesSent,
		})
	}
	return Aggregate(samples), nil
}
