package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 999999 10 0 0 0 0 0 0 999999 10 0 0 0 0 0 0
  eth0: 1000 12 0 0 0 0 0 0 500 7 0 0 0 0 0 0
 virbr0: 77 1 0 0 0 0 0 0 77 1 0 0 0 0 0 0
`

type cli struct {
	dir    string
	netDev string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	dir := t.TempDir()
	dev := filepath.Join(dir, "dev")
	require.NoError(t, os.WriteFile(dev, []byte(netDev), 0o644))
	return cli{dir: dir, netDev: dev}
}

func (c cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{
		"--config", filepath.Join(c.dir, "config.json"),
		"--state", filepath.Join(c.dir, "state.db"),
		"--source", "proc",
		"--net-dev", c.netDev,
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestStopWhenNotRunning(t *testing.T) {
	out, err := newCLI(t).run(t, "stop")
	require.NoError(t, err)
	assert.Equal(t, "Monitoring is not running.\n", out)
}

func TestModesMarksCurrent(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "config", "-m", "3")
	require.NoError(t, err)

	out, err := c.run(t, "modes")
	require.NoError(t, err)
	assert.Contains(t, out, "Available display modes:\n")
	assert.Contains(t, out, "  0: Total net speed in bits per second\n")
	assert.Contains(t, out, "  3: Up & down speed in Bytes per second (current)\n")
	assert.Equal(t, 1, strings.Count(out, "(current)"))
}

func TestConfigShowAndSet(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Current configuration:\n")
	assert.Contains(t, out, "  Mode: 0 (Total net speed in bits per second)\n")
	assert.Contains(t, out, "  Refresh Interval: 3 seconds\n")

	out, err = c.run(t, "config", "-m", "0", "-f", "2", "-i", "10")
	require.NoError(t, err)
	assert.Equal(t, "Mode set to: 0 (Total net speed in bits per second)\n"+
		"Font mode set to: 2\n"+
		"Refresh interval set to: 10 seconds\n", out)

	out, err = c.run(t, "config", "-s")
	require.NoError(t, err)
	assert.Contains(t, out, "  Font Mode: 2\n")
	assert.Contains(t, out, "  Refresh Interval: 10 seconds\n")
}

func TestConfigRejectsOutOfRange(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "config", "-m", "7", "-f", "1", "-i", "61")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode 7")
	assert.Contains(t, err.Error(), "refresh interval 61")
	assert.Equal(t, "Font mode set to: 1\n", out)

	out, err = c.run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "  Mode: 0 ")
	assert.Contains(t, out, "  Refresh Interval: 3 seconds\n")
}

func TestResetIsSeenByLaterMonitor(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "monitor", "-o", "-m", "4", "--no-timestamp")
	require.NoError(t, err)
	assert.Equal(t, "∑ 1.50KB\n", out)

	out, err = c.run(t, "reset")
	require.NoError(t, err)
	assert.Equal(t, "Total download counter reset.\n", out)

	out, err = c.run(t, "-o", "-m", "4", "--no-timestamp")
	require.NoError(t, err)
	assert.Equal(t, "∑ 0B\n", out)
}

func TestMonitorRejectsBadFlags(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "monitor", "-o", "-m", "9")
	assert.Error(t, err)
	_, err = c.run(t, "monitor", "-o", "-i", "0")
	assert.Error(t, err)
	_, err = c.run(t, "--source", "carrier-pigeon", "monitor", "-o")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := newCLI(t).run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "netspeed "+version))
}
