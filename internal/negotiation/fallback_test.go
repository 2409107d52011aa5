package negotiation

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

// testSession mirrors the worked pricing example: listed 70761, floor 58234
func testSession() *Session {
	return &Session{
		ID:          "test-session",
		ProductID:   1,
		ProductName: "22K Gold Bangle",
		FloorPrice:  58234,
		ListedPrice: 70761,
		lastAsk:     70761,
	}
}

func TestParseOffer(t *testing.T) {
	cases := []struct {
		text  string
		want  int64
		found bool
	}{
		{"I can pay 65000", 65000, true},
		{"how about 65,000 rupees", 65000, true},
		{"65000 for this 22K ring?", 65000, true},
		{"₹68500.50 final", 68500, true},
		{"hi there", 0, false},
		{"is this 22K?", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		got, found := parseOffer(c.text)
		if found != c.found {
			t.Errorf("parseOffer(%q): found=%v, expected %v", c.text, found, c.found)
			continue
		}
		if found && got != c.want {
			t.Errorf("parseOffer(%q): got %d, expected %d", c.text, got, c.want)
		}
	}
}

func TestFallback_NoNumberHoldsAsk(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()
	s.Append(SpeakerCustomer, "hi there")

	d, err := f.Decide(context.Background(), s, TriggerMessage)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.Status != StatusNegotiating {
		t.Errorf("expected negotiating, got %s", d.Status)
	}
	if d.ProposedPrice != s.ListedPrice {
		t.Errorf("no-number message should hold the ask at %d, got %d", s.ListedPrice, d.ProposedPrice)
	}
}

func TestFallback_MidRangeOfferCountersBetween(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()
	s.Append(SpeakerCustomer, "I'll give you 65000")

	d, err := f.Decide(context.Background(), s, TriggerMessage)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.Status != StatusNegotiating {
		t.Fatalf("expected negotiating, got %s", d.Status)
	}
	if d.ProposedPrice <= 65000 || d.ProposedPrice >= 70761 {
		t.Errorf("counter %d must lie strictly between offer 65000 and listed 70761", d.ProposedPrice)
	}
	if d.ProposedPrice < s.FloorPrice {
		t.Errorf("counter %d is below floor %d", d.ProposedPrice, s.FloorPrice)
	}
}

func TestFallback_RepeatedOfferNeverRaisesCounter(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()

	var prev int64 = s.ListedPrice
	for i := 0; i < 10; i++ {
		s.Append(SpeakerCustomer, "65000, that's my offer")
		d, err := f.Decide(context.Background(), s, TriggerMessage)
		if err != nil {
			t.Fatalf("fallback must not error: %v", err)
		}
		if d.ProposedPrice > prev {
			t.Fatalf("round %d: counter rose from %d to %d", i, prev, d.ProposedPrice)
		}
		if d.ProposedPrice < s.FloorPrice {
			t.Fatalf("round %d: counter %d below floor %d", i, d.ProposedPrice, s.FloorPrice)
		}
		prev = d.ProposedPrice
		s.RecordAsk(d.ProposedPrice)
		if d.Status == StatusAccepted {
			if d.ProposedPrice != 65000 {
				t.Fatalf("converged acceptance should land on the offer, got %d", d.ProposedPrice)
			}
			return
		}
	}
	t.Error("repeated workable offers should eventually converge to acceptance")
}

func TestFallback_OverListedGetsCourtesyDiscount(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()
	s.Append(SpeakerCustomer, "I'll pay the full 70761, it's beautiful")

	d, err := f.Decide(context.Background(), s, TriggerMessage)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.Status != StatusAccepted {
		t.Fatalf("offer at listed should be accepted, got %s", d.Status)
	}
	want := s.ListedPrice * 97 / 100
	if d.ProposedPrice != want {
		t.Errorf("courtesy price: expected %d (97%% of listed), got %d", want, d.ProposedPrice)
	}
	if d.ProposedPrice < s.FloorPrice {
		t.Errorf("courtesy price %d below floor %d", d.ProposedPrice, s.FloorPrice)
	}
}

func TestFallback_BelowFloorHoldsAtFloor(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()
	s.Append(SpeakerCustomer, "30000 take it or leave it")

	d, err := f.Decide(context.Background(), s, TriggerMessage)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.Status != StatusNegotiating {
		t.Errorf("below-floor offer must not be accepted, got %s", d.Status)
	}
	if d.ProposedPrice != s.FloorPrice {
		t.Errorf("expected hold at floor %d, got %d", s.FloorPrice, d.ProposedPrice)
	}
}

func TestFallback_OfferAboveDroppedAskClosesAtAsk(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()
	s.RecordAsk(62000) // nudges already brought the ask down
	s.Append(SpeakerCustomer, "fine, 65000 then")

	d, err := f.Decide(context.Background(), s, TriggerMessage)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.Status != StatusAccepted {
		t.Fatalf("offer above the current ask should close, got %s", d.Status)
	}
	if d.ProposedPrice != 62000 {
		t.Errorf("deal must close at the current ask 62000, got %d", d.ProposedPrice)
	}
	if !strings.Contains(d.Message, strconv.FormatInt(d.ProposedPrice, 10)) {
		t.Errorf("message must quote the closing price %d: %q", d.ProposedPrice, d.Message)
	}
}

func TestFallback_CourtesyPriceNeverExceedsDroppedAsk(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()
	s.RecordAsk(62000)
	s.Append(SpeakerCustomer, "I'll pay the full 70761")

	d, err := f.Decide(context.Background(), s, TriggerMessage)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.Status != StatusAccepted {
		t.Fatalf("expected acceptance, got %s", d.Status)
	}
	if d.ProposedPrice != 62000 {
		t.Errorf("courtesy price must not exceed the current ask 62000, got %d", d.ProposedPrice)
	}
	if !strings.Contains(d.Message, strconv.FormatInt(d.ProposedPrice, 10)) {
		t.Errorf("message must quote the closing price %d: %q", d.ProposedPrice, d.Message)
	}
}

func TestFallback_NudgeConcedesSmallStep(t *testing.T) {
	f := NewFallbackNegotiator()
	s := testSession()

	d, err := f.Decide(context.Background(), s, TriggerHesitate)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if d.ProposedPrice != s.ListedPrice-nudgeStep {
		t.Errorf("hesitation nudge: expected %d, got %d", s.ListedPrice-nudgeStep, d.ProposedPrice)
	}

	// A nudge on a session already at floor must not go below it
	s.RecordAsk(s.FloorPrice)
	d, _ = f.Decide(context.Background(), s, TriggerLeaving)
	if d.ProposedPrice != s.FloorPrice {
		t.Errorf("nudge at floor: expected %d, got %d", s.FloorPrice, d.ProposedPrice)
	}
}
