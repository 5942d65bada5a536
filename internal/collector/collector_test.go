package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaa/netspeed/internal/models"
)

const netDevHeader = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
`

func writeNetDev(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev")
	require.NoError(t, os.WriteFile(path, []byte(netDevHeader+body), 0o644))
	return path
}

func TestExcluded(t *testing.T) {
	for _, name := range []string{"lo", "virbr0", "tap3", "ifb0", "lxdbr12", "br0", "vnet7", "tun0"} {
		assert.True(t, Excluded(name), name)
	}
	for _, name := range []string{"eth0", "wlan0", "enp3s0", "br-4f1a", "tunnel", "lo0", "bridge", "wlp2s0"} {
		assert.False(t, Excluded(name), name)
	}
}

func TestParseNetDev(t *testing.T) {
	table := netDevHeader +
		"    lo: 999999 10 0 0 0 0 0 0 999999 10 0 0 0 0 0 0\n" +
		"  eth0: 1000 12 0 0 0 0 0 0 500 7 0 0 0 0 0 0\n" +
		" short: 1 2 3\n" +
		"  bad0: abc 1 0 0 0 0 0 0 22 1 0 0 0 0 0 0\n" +
		"wlan0:2048 3 0 0 0 0 0 0 1024 2 0 0 0 0 0 0\n"

	samples, err := ParseNetDev(strings.NewReader(table))
	require.NoError(t, err)
	assert.Equal(t, []models.InterfaceSample{
		{Name: "lo", ReceivedBytes: 999999, TransmittedBytes: 999999},
		{Name: "eth0", ReceivedBytes: 1000, TransmittedBytes: 500},
		{Name: "wlan0", ReceivedBytes: 2048, TransmittedBytes: 1024},
	}, samples)
}

func TestAggregateFiltersVirtualInterfaces(t *testing.T) {
	totals := Aggregate([]models.InterfaceSample{
		{Name: "eth0", ReceivedBytes: 1000, TransmittedBytes: 500},
		{Name: "lo", ReceivedBytes: 999999, TransmittedBytes: 999999},
		{Name: "virbr0", ReceivedBytes: 7, TransmittedBytes: 7},
		{Name: "tap3", ReceivedBytes: 9, TransmittedBytes: 9},
		{Name: "wlan0", ReceivedBytes: 200, TransmittedBytes: 100},
	})
	assert.Equal(t, models.AggregatedTotals{TotalBytes: 1800, UploadBytes: 600, DownloadBytes: 1200}, totals)
	assert.Equal(t, totals.TotalBytes, totals.DownloadBytes+totals.UploadBytes)
}

func TestProcReaderSample(t *testing.T) {
	path := writeNetDev(t,
		"  eth0: 1000 12 0 0 0 0 0 0 500 7 0 0 0 0 0 0\n"+
			"    lo: 999999 10 0 0 0 0 0 0 999999 10 0 0 0 0 0 0\n")

	totals, err := NewProcReader(path).Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AggregatedTotals{TotalBytes: 1500, UploadBytes: 500, DownloadBytes: 1000}, totals)
}

func TestProcReaderMissingFile(t *testing.T) {
	_, err := NewProcReader(filepath.Join(t.TempDir(), "missing")).Sample(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnreadable))
}

func TestProcReaderDefaultPath(t *testing.T) {
	assert.Equal(t, ProcNetDev, NewProcReader("").Path)
}

func TestPsutilReaderSample(t *testing.T) {
	r := &PsutilReader{counters: func(ctx context.Context, pernic bool) ([]psnet.IOCountersStat, error) {
		assert.True(t, pernic)
		return []psnet.IOCountersStat{
			{Name: "en0", BytesRecv: 300, BytesSent: 100},
			{Name: "lo", BytesRecv: 50, BytesSent: 50},
		}, nil
	}}
	totals, err := r.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AggregatedTotals{TotalBytes: 400, UploadBytes: 100, DownloadBytes: 300}, totals)
}

func TestPsutilReaderError(t *testing.T) {
	r := &PsutilReader{counters: func(context.Context, bool) ([]psnet.IOCountersStat, error) {
		return nil, errors.New("boom")
	}}
	_, err := r.Sample(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(SourceProc, "/tmp/x")
	require.NoError(t, err)
	assert.IsType(t, &ProcReader{}, src)

	src, err = NewSource(SourcePsutil, "")
	require.NoError(t, err)
	assert.IsType(t, &PsutilReader{}, src)

	_, err = NewSource("snmp", "")
	assert.Error(t, err)
}
