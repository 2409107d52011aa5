package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetalRate holds the current and previous per-gram rate for one grade.
// Invariant: at most one row per grade; PreviousRate always carries the
// value RatePerGram held immediately before the latest write.
type MetalRate struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Grade        MetalGrade      `gorm:"size:10;uniqueIndex;not null" json:"grade"`
	RatePerGram  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"rate_per_gram"`
	PreviousRate decimal.Decimal `gorm:"type:numeric(12,2)" json:"previous_rate"`
	Source       string          `gorm:"size:32" json:"source"` // live, static, manual
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (MetalRate) TableName() string { return "metal_rates" }

// RateSnapshot is a read-only view of all grade rates at one instant
type RateSnapshot map[MetalGrade]decimal.Decimal

// Rate returns the per-gram rate for a grade, and whether it is present
func (s RateSnapshot) Rate(g MetalGrade) (decimal.Decimal, bool) {
	r, ok := s[g]
	return r, ok
}
