// Package models defines the data types shared by the netspeed components.
package models

import "time"

// InterfaceSample is one row of the kernel interface statistics table.
type InterfaceSample struct {
	Name             string `json:"name"`
	ReceivedBytes    uint64 `json:"received_bytes"`
	TransmittedBytes uint64 `json:"transmitted_bytes"`
}

// AggregatedTotals sums the counters of every interface that passed the filter.
// TotalBytes == DownloadBytes + UploadBytes always holds.
type AggregatedTotals struct {
	TotalBytes    uint64 `json:"total_bytes"`
	UploadBytes   uint64 `json:"upload_bytes"`
	DownloadBytes uint64 `json:"download_bytes"`
}

// RateSample is the previous observation kept by the rate calculator.
type RateSample struct {
	Totals    AggregatedTotals
	Timestamp time.Time
}

// SpeedStats holds instantaneous rates in bytes per second.
type SpeedStats struct {
	TotalSpeed    float64   `json:"total_speed"`
	UploadSpeed   float64   `json:"upload_speed"`
	DownloadSpeed float64   `json:"download_speed"`
	Timestamp     time.Time `json:"timestamp"`
}

// DisplayMode selects how a sample is rendered.
type DisplayMode int

const (
	ModeTotalBits       DisplayMode = 0 // total speed, bits per second
	ModeTotalBytes      DisplayMode = 1 // total speed, bytes per second
	ModeSplitBits       DisplayMode = 2 // down & up, bits per second
	ModeSplitBytes      DisplayMode = 3 // down & up, bytes per second
	ModeTotalDownloaded DisplayMode = 4 // bytes since the last reset

	modeCount = 5
)

// AllModes returns every display mode in cycling order.
func AllModes() []DisplayMode {
	return []DisplayMode{ModeTotalBits, ModeTotalBytes, ModeSplitBits, ModeSplitBytes, ModeTotalDownloaded}
}

// Valid reports whether m is one of the five known modes.
func (m DisplayMode) Valid() bool {
	return m >= 0 && m < modeCount
}

// Next returns the mode that follows m, wrapping 4 back to 0.
func (m DisplayMode) Next() DisplayMode {
	if !m.Valid() {
		return ModeTotalBits
	}
	return (m + 1) % modeCount
}

// Description is the human readable name shown by `netspeed modes`.
func (m DisplayMode) Description() string {
	switch m {
	case ModeTotalBits:
		return "Total net speed in bits per second"
	case ModeTotalBytes:
		return "Total net speed in Bytes per second"
	case ModeSplitBits:
		return "Up & down speed in bits per second"
	case ModeSplitBytes:
		return "Up & down speed in Bytes per second"
	case ModeTotalDownloaded:
		return "Total downloaded in Bytes"
	default:
		return "Unknown mode"
	}
}

// IsSplit reports whether m renders download and upload separately.
func (m DisplayMode) IsSplit() bool {
	return m == ModeSplitBits || m == ModeSplitBytes
}

// IsBits reports whether m renders rates in bits.
func (m DisplayMode) IsBits() bool {
	return m == ModeTotalBits || m == ModeSplitBits
}
