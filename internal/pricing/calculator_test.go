package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/models"
)

func testRates() models.RateSnapshot {
	return models.RateSnapshot{
		models.Grade24K:    decimal.NewFromInt(5800),
		models.Grade22K:    decimal.NewFromInt(6000),
		models.Grade18K:    decimal.NewFromInt(4350),
		models.GradeSilver: decimal.NewFromInt(90),
	}
}

func TestComputeBreakdown_RetailSide(t *testing.T) {
	// net 10g at ₹6000/g, wastage 12%, flat making charge ₹1500:
	// rmv=60000, wastage=7200, subtotal=68700, listed=70761
	p := &models.Product{
		Grade:            models.Grade22K,
		GrossWeight:      decimal.NewFromFloat(10.3),
		NetWeight:        decimal.NewFromInt(10),
		PurchaseTouchPct: decimal.NewFromInt(92),
		PurchaseMCMode:   models.PurchaseMCFixed,
		PurchaseMCAmount: decimal.NewFromInt(500),
		WastagePct:       decimal.NewFromInt(12),
		RetailMCMode:     models.RetailMCFlat,
		RetailMCAmount:   decimal.NewFromInt(1500),
	}

	b := ComputeBreakdown(p, testRates())

	if b.Degraded {
		t.Fatal("breakdown should not be degraded with full rate snapshot")
	}
	if !b.RetailMetalValue.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("retail metal value: expected 60000, got %s", b.RetailMetalValue)
	}
	if !b.WastageValue.Equal(decimal.NewFromInt(7200)) {
		t.Errorf("wastage: expected 7200, got %s", b.WastageValue)
	}
	if !b.Subtotal.Equal(decimal.NewFromInt(68700)) {
		t.Errorf("subtotal: expected 68700, got %s", b.Subtotal)
	}
	if got := b.ListedPriceInt(); got != 70761 {
		t.Errorf("listed price: expected 70761, got %d", got)
	}
}

func TestComputeBreakdown_FloorSide(t *testing.T) {
	// gross 10.3g, touch 92%, raw 24K rate ₹5800/g, purchase MC ₹500:
	// wholesale = 10.3*0.92*5800 + 500 = 55460.8, floor = wholesale*1.05
	p := &models.Product{
		Grade:            models.Grade22K,
		GrossWeight:      decimal.NewFromFloat(10.3),
		NetWeight:        decimal.NewFromInt(10),
		PurchaseTouchPct: decimal.NewFromInt(92),
		PurchaseMCMode:   models.PurchaseMCFixed,
		PurchaseMCAmount: decimal.NewFromInt(500),
	}

	b := ComputeBreakdown(p, testRates())

	wantWholesale := decimal.NewFromFloat(55460.8)
	if !b.WholesaleCost.Equal(wantWholesale) {
		t.Errorf("wholesale: expected %s, got %s", wantWholesale, b.WholesaleCost)
	}
	wantFloor := wantWholesale.Mul(decimal.NewFromFloat(1.05))
	if !b.FloorPrice.Equal(wantFloor) {
		t.Errorf("floor: expected %s, got %s", wantFloor, b.FloorPrice)
	}
	// Integer floor rounds up, never down
	if got := b.FloorPriceInt(); got < wantFloor.IntPart() {
		t.Errorf("integer floor %d undercuts decimal floor %s", got, wantFloor)
	}
	// The floor must sit below the listed price for a sane product
	if b.FloorPriceInt() >= b.ListedPriceInt() {
		t.Errorf("floor %d should be below listed %d", b.FloorPriceInt(), b.ListedPriceInt())
	}
}

func TestComputeBreakdown_DefaultTouch(t *testing.T) {
	p := &models.Product{
		Grade:       models.Grade22K,
		GrossWeight: decimal.NewFromInt(10),
		NetWeight:   decimal.NewFromInt(10),
	}

	b := ComputeBreakdown(p, testRates())

	// 10 * 0.916 * 5800 = 53128
	want := decimal.NewFromInt(53128)
	if !b.WholesaleCost.Equal(want) {
		t.Errorf("wholesale with default touch: expected %s, got %s", want, b.WholesaleCost)
	}
}

func TestComputeBreakdown_PercentMakingCharge(t *testing.T) {
	p := &models.Product{
		Grade:          models.Grade22K,
		GrossWeight:    decimal.NewFromInt(10),
		NetWeight:      decimal.NewFromInt(10),
		RetailMCMode:   models.RetailMCPercent,
		RetailMCAmount: decimal.NewFromInt(8),
	}

	b := ComputeBreakdown(p, testRates())

	// 8% of rmv 60000 = 4800
	if !b.MakingCharge.Equal(decimal.NewFromInt(4800)) {
		t.Errorf("percent making charge: expected 4800, got %s", b.MakingCharge)
	}
}

func TestComputeBreakdown_PerGramMakingCharge(t *testing.T) {
	p := &models.Product{
		Grade:          models.Grade22K,
		GrossWeight:    decimal.NewFromInt(10),
		NetWeight:      decimal.NewFromInt(10),
		RetailMCMode:   models.RetailMCPerGram,
		RetailMCAmount: decimal.NewFromInt(120),
	}

	b := ComputeBreakdown(p, testRates())

	if !b.MakingCharge.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("per-gram making charge: expected 1200, got %s", b.MakingCharge)
	}
}

func TestComputeBreakdown_SilverUsesSilverRawRate(t *testing.T) {
	p := &models.Product{
		Grade:       models.GradeSilver,
		GrossWeight: decimal.NewFromInt(100),
		NetWeight:   decimal.NewFromInt(100),
	}

	b := ComputeBreakdown(p, testRates())

	// 100 * 0.916 * 90 = 8244
	want := decimal.NewFromFloat(8244)
	if !b.WholesaleCost.Equal(want) {
		t.Errorf("silver wholesale: expected %s, got %s", want, b.WholesaleCost)
	}
}

func TestComputeBreakdown_MissingRateIsDegraded(t *testing.T) {
	p := &models.Product{
		Grade:       models.Grade18K,
		GrossWeight: decimal.NewFromInt(5),
		NetWeight:   decimal.NewFromInt(5),
	}
	rates := models.RateSnapshot{
		models.Grade24K: decimal.NewFromInt(5800),
		// 18K missing
	}

	b := ComputeBreakdown(p, rates)

	if !b.Degraded {
		t.Error("missing grade rate must flag the breakdown as degraded")
	}
	if !b.RetailMetalValue.IsZero() {
		t.Errorf("missing rate should compute as zero, got %s", b.RetailMetalValue)
	}
}

func TestComputeBreakdown_FixedPriceOverride(t *testing.T) {
	fixed := decimal.NewFromInt(49999)
	p := &models.Product{
		Grade:       models.Grade22K,
		GrossWeight: decimal.NewFromInt(10),
		NetWeight:   decimal.NewFromInt(10),
		FixedPrice:  &fixed,
	}

	b := ComputeBreakdown(p, testRates())

	if got := b.ListedPriceInt(); got != 49999 {
		t.Errorf("fixed price override: expected 49999, got %d", got)
	}
	// Floor still derives from wholesale, not from the override
	if b.FloorPrice.IsZero() {
		t.Error("floor should still be computed under a fixed price override")
	}
}

func TestDisplayRounding(t *testing.T) {
	p := &models.Product{
		Grade:       models.Grade22K,
		GrossWeight: decimal.NewFromFloat(7.123),
		NetWeight:   decimal.NewFromFloat(6.987),
		WastagePct:  decimal.NewFromFloat(11.5),
	}

	d := ComputeBreakdown(p, testRates()).Display()

	for name, v := range map[string]decimal.Decimal{
		"wholesale": d.WholesaleCost,
		"rmv":       d.RetailMetalValue,
		"wastage":   d.WastageValue,
		"listed":    d.ListedPrice,
		"floor":     d.FloorPrice,
	} {
		if v.Exponent() < -2 {
			t.Errorf("%s not rounded to 2 decimals: %s", name, v)
		}
	}
}

func TestDiscountedListed(t *testing.T) {
	now := time.Now()
	listed := decimal.NewFromInt(70761)

	p := &models.Product{
		Discount: []byte(`{"start":"` + now.Add(-time.Hour).Format(time.RFC3339) + `","end":"` + now.Add(time.Hour).Format(time.RFC3339) + `","type":"percent","value":"10"}`),
	}

	got := DiscountedListed(p, listed, now)
	want := decimal.NewFromFloat(63684.9)
	if !got.Equal(want) {
		t.Errorf("discounted listed: expected %s, got %s", want, got)
	}

	// Outside the window the listed price is untouched
	got = DiscountedListed(p, listed, now.Add(48*time.Hour))
	if !got.Equal(listed) {
		t.Errorf("expired discount should not apply, got %s", got)
	}
}
