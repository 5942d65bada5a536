package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayModeNextCycles(t *testing.T) {
	for _, start := range AllModes() {
		m := start
		for i := 0; i < 5; i++ {
			m = m.Next()
		}
		assert.Equal(t, start, m)
	}
	assert.Equal(t, ModeTotalBits, ModeTotalDownloaded.Next())
	assert.Equal(t, ModeTotalBits, DisplayMode(9).Next())
}

func TestDisplayModeDescription(t *testing.T) {
	assert.Equal(t, "Total net speed in bits per second", ModeTotalBits.Description())
	assert.Equal(t, "Total downloaded in Bytes", ModeTotalDownloaded.Description())
	assert.Equal(t, "Unknown mode", DisplayMode(-1).Description())
}

func TestDisplayModeKinds(t *testing.T) {
	assert.True(t, ModeSplitBits.IsSplit())
	assert.True(t, ModeSplitBytes.IsSplit())
	assert.False(t, ModeTotalDownloaded.IsSplit())
	assert.True(t, ModeTotalBits.IsBits())
	assert.False(t, ModeTotalBytes.IsBits())
	assert.False(t, DisplayMode(5).Valid())
}
