package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MetalGrade identifies a metal purity tier, each with its own per-gram rate
type MetalGrade string

const (
	Grade24K    MetalGrade = "24K"
	Grade22K    MetalGrade = "22K"
	Grade18K    MetalGrade = "18K"
	GradeSilver MetalGrade = "SILVER"
)

// IsGold reports whether the grade belongs to the gold family
func (g MetalGrade) IsGold() bool {
	return g == Grade24K || g == Grade22K || g == Grade18K
}

// Purchase-side making charge modes
const (
	PurchaseMCPerGram = "per_gram"
	PurchaseMCFixed   = "fixed"
	PurchaseMCBundled = "bundled"
)

// Retail-side making charge modes
const (
	RetailMCFlat    = "flat"
	RetailMCPerGram = "per_gram"
	RetailMCPercent = "percent"
)

// DiscountWindow is an optional time-boxed discount on the listed price
type DiscountWindow struct {
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Type  string          `json:"type"` // flat, percent
	Value decimal.Decimal `json:"value"`
}

// ActiveAt reports whether the window covers the given instant
func (d DiscountWindow) ActiveAt(t time.Time) bool {
	return !t.Before(d.Start) && !t.After(d.End)
}

// Product is a catalog item. Weights are grams at 3-decimal precision.
type Product struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SKU         string     `gorm:"uniqueIndex;size:64" json:"sku"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Grade       MetalGrade `gorm:"size:10;not null;index" json:"grade"`
	ImageURL    string     `json:"image_url,omitempty"`
	Active      bool       `gorm:"default:true" json:"active"`

	GrossWeight decimal.Decimal `gorm:"type:numeric(12,3)" json:"gross_weight"`
	NetWeight   decimal.Decimal `gorm:"type:numeric(12,3)" json:"net_weight"`
	StoneWeight decimal.Decimal `gorm:"type:numeric(12,3)" json:"stone_weight"`

	// Purchase side (wholesale costing)
	PurchaseTouchPct decimal.Decimal `gorm:"type:numeric(6,2)" json:"purchase_touch_pct"`
	PurchaseMCMode   string          `gorm:"size:16;default:fixed" json:"purchase_mc_mode"`
	PurchaseMCAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"purchase_mc_amount"`

	// Retail side
	WastagePct     decimal.Decimal `gorm:"type:numeric(6,2)" json:"wastage_pct"`
	RetailMCMode   string          `gorm:"size:16;default:flat" json:"retail_mc_mode"`
	RetailMCAmount decimal.Decimal `gorm:"type:numeric(12,2)" json:"retail_mc_amount"`

	// Optional fixed price override (skips rate-derived pricing entirely)
	FixedPrice *decimal.Decimal `gorm:"type:numeric(14,2)" json:"fixed_price,omitempty"`

	// Optional discount window, stored as jsonb
	Discount datatypes.JSON `gorm:"type:jsonb" json:"discount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// DefaultTouchPct is assumed purity at purchase when none is recorded (91.6%)
var DefaultTouchPct = decimal.NewFromFloat(91.6)

// TouchPct returns the purchase touch percentage, defaulting when absent
func (p *Product) TouchPct() decimal.Decimal {
	if p.PurchaseTouchPct.IsZero() {
		return DefaultTouchPct
	}
	return p.PurchaseTouchPct
}

// DiscountWindow decodes the jsonb discount column, if any
func (p *Product) DiscountWindow() (*DiscountWindow, error) {
	if len(p.Discount) == 0 {
		return nil, nil
	}
	var w DiscountWindow
	if err := json.Unmarshal(p.Discount, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
