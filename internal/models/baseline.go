package models

import "time"

// BaselineID is the primary key of the single baseline row.
const BaselineID uint = 1

// Baseline records the aggregated byte total at the last explicit reset of the
// cumulative counter. Only the latest reset is kept.
type Baseline struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	TotalBytes uint64    `gorm:"not null" json:"total_bytes"`
	ResetAt    time.Time `json:"reset_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
