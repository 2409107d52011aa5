// Package pricing derives wholesale cost, listed retail price and the
// absolute floor price for a product from a snapshot of metal rates.
// All arithmetic is decimal; nothing here touches the database.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)

	// taxLoading is the 3% GST applied on the retail subtotal
	taxLoading = decimal.NewFromFloat(1.03)

	// floorMargin is the 5% minimum margin over wholesale cost. The
	// resulting floor price is never disclosed to the customer and no
	// downstream component may undercut it.
	floorMargin = decimal.NewFromFloat(1.05)
)

// Breakdown is the full price derivation for one product at one rate snapshot
type Breakdown struct {
	WholesaleCost    decimal.Decimal `json:"wholesale_cost"`
	RetailMetalValue decimal.Decimal `json:"retail_metal_value"`
	WastageValue     decimal.Decimal `json:"wastage_value"`
	MakingCharge     decimal.Decimal `json:"making_charge"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	GSTAmount        decimal.Decimal `json:"gst_amount"`
	ListedPrice      decimal.Decimal `json:"listed_price"`
	FloorPrice       decimal.Decimal `json:"floor_price"`

	// Degraded is set when a required rate was missing and treated as
	// zero. Callers must not open a negotiation on a degraded breakdown.
	Degraded bool `json:"degraded,omitempty"`
}

// ListedPriceInt returns the listed price in whole rupees (negotiation unit)
func (b *Breakdown) ListedPriceInt() int64 {
	return b.ListedPrice.Round(0).IntPart()
}

// FloorPriceInt returns the floor in whole rupees, rounded up so that
// integer truncation can never undercut the decimal floor
func (b *Breakdown) FloorPriceInt() int64 {
	return b.FloorPrice.Ceil().IntPart()
}

// Display returns the breakdown with every amount rounded to 2 decimals
func (b Breakdown) Display() Breakdown {
	b.WholesaleCost = b.WholesaleCost.Round(2)
	b.RetailMetalValue = b.RetailMetalValue.Round(2)
	b.WastageValue = b.WastageValue.Round(2)
	b.MakingCharge = b.MakingCharge.Round(2)
	b.Subtotal = b.Subtotal.Round(2)
	b.GSTAmount = b.GSTAmount.Round(2)
	b.ListedPrice = b.ListedPrice.Round(2)
	b.FloorPrice = b.FloorPrice.Round(2)
	return b
}

// rawRate returns the refinable-metal rate used for wholesale costing:
// the 24K rate for gold-family grades, the silver rate otherwise.
func rawRate(grade models.MetalGrade, rates models.RateSnapshot) (decimal.Decimal, bool) {
	if grade.IsGold() {
		return rates.Rate(models.Grade24K)
	}
	return rates.Rate(models.GradeSilver)
}

// ComputeBreakdown derives the full price structure for a product.
// Deterministic and pure: same product + same snapshot = same result.
func ComputeBreakdown(p *models.Product, rates models.RateSnapshot) Breakdown {
	var b Breakdown

	raw, rawOK := rawRate(p.Grade, rates)
	gradeRate, gradeOK := rates.Rate(p.Grade)
	if !rawOK || !gradeOK {
		b.Degraded = true
	}

	// Wholesale: gross weight reduced to pure-metal equivalent at the
	// purchase touch percentage, costed at the raw rate.
	purity := p.TouchPct().Div(hundred)
	pureWeight := p.GrossWeight.Mul(purity)
	b.WholesaleCost = pureWeight.Mul(raw).Add(purchaseMakingCharge(p))

	// Retail: net weight at the product's own grade rate.
	b.RetailMetalValue = p.NetWeight.Mul(gradeRate)
	b.WastageValue = b.RetailMetalValue.Mul(p.WastagePct).Div(hundred)
	b.MakingCharge = retailMakingCharge(p, b.RetailMetalValue)

	b.Subtotal = b.RetailMetalValue.Add(b.WastageValue).Add(b.MakingCharge)
	b.ListedPrice = b.Subtotal.Mul(taxLoading)
	b.GSTAmount = b.ListedPrice.Sub(b.Subtotal)

	if p.FixedPrice != nil && !p.FixedPrice.IsZero() {
		b.ListedPrice = *p.FixedPrice
		b.GSTAmount = decimal.Zero
	}

	b.FloorPrice = b.WholesaleCost.Mul(floorMargin)

	return b
}

// purchaseMakingCharge resolves the purchase-side making charge
func purchaseMakingCharge(p *models.Product) decimal.Decimal {
	switch p.PurchaseMCMode {
	case models.PurchaseMCPerGram:
		return p.PurchaseMCAmount.Mul(p.GrossWeight)
	case models.PurchaseMCBundled:
		// Bundled into the negotiated purchase rate; nothing to add.
		return decimal.Zero
	default:
		return p.PurchaseMCAmount
	}
}

// retailMakingCharge resolves the retail-side making charge
func retailMakingCharge(p *models.Product, retailMetalValue decimal.Decimal) decimal.Decimal {
	switch p.RetailMCMode {
	case models.RetailMCPerGram:
		return p.RetailMCAmount.Mul(p.NetWeight)
	case models.RetailMCPercent:
		return retailMetalValue.Mul(p.RetailMCAmount).Div(hundred)
	default:
		return p.RetailMCAmount
	}
}

// DiscountedListed applies the product's discount window, if active at now,
// to a display listed price. Negotiation always starts from the undiscounted
// listed price; discounts and bargaining do not stack.
func DiscountedListed(p *models.Product, listed decimal.Decimal, now time.Time) decimal.Decimal {
	w, err := p.DiscountWindow()
	if err != nil || w == nil || !w.ActiveAt(now) {
		return listed
	}
	switch w.Type {
	case "percent":
		return listed.Sub(listed.Mul(w.Value).Div(hundred))
	case "flat":
		return listed.Sub(w.Value)
	}
	return listed
}
