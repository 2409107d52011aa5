package negotiation

import (
	"context"
	"errors"
	"testing"
)

// failingArbiter simulates an unreachable or malformed external service
type failingArbiter struct{}

func (failingArbiter) Decide(context.Context, *Session, Trigger) (Decision, error) {
	return Decision{}, errors.New("service unavailable")
}

// rogueArbiter proposes prices below the floor and tries to re-raise
type rogueArbiter struct {
	price  int64
	status Status
}

func (r rogueArbiter) Decide(context.Context, *Session, Trigger) (Decision, error) {
	return Decision{Message: "trust me", Status: r.status, ProposedPrice: r.price}, nil
}

func testEngine(external Arbiter) *Engine {
	return &Engine{
		external:  external,
		fallback:  NewFallbackNegotiator(),
		safeguard: NewSafeguard(nil),
	}
}

func TestEngine_FallsBackWhenExternalFails(t *testing.T) {
	e := testEngine(failingArbiter{})
	s := testSession()

	d, err := e.Handle(context.Background(), s, TriggerMessage, "I'll pay 65000")
	if err != nil {
		t.Fatalf("fallback path must not surface an error: %v", err)
	}
	if d.Status != StatusNegotiating {
		t.Errorf("expected negotiating, got %s", d.Status)
	}
	if d.ProposedPrice <= 65000 || d.ProposedPrice >= 70761 {
		t.Errorf("fallback counter %d should lie between offer and listed", d.ProposedPrice)
	}
}

func TestEngine_FloorInvariantAcrossConversation(t *testing.T) {
	e := testEngine(failingArbiter{})
	s := testSession()

	msgs := []string{
		"hello",
		"I'll pay 10000",
		"ok 40000?",
		"58000 then",
		"59000 final offer",
		"59000",
		"59000",
		"59000",
	}

	for _, m := range msgs {
		d, err := e.Handle(context.Background(), s, TriggerMessage, m)
		if errors.Is(err, ErrSessionClosed) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error on %q: %v", m, err)
		}
		if d.ProposedPrice < s.FloorPrice {
			t.Fatalf("emitted price %d below floor %d after %q", d.ProposedPrice, s.FloorPrice, m)
		}
	}
}

func TestEngine_MonotonicConcessionAcrossTurns(t *testing.T) {
	e := testEngine(failingArbiter{})
	s := testSession()

	var prev int64 = s.ListedPrice
	for _, m := range []string{"60000", "61000", "59000", "62000", "60000"} {
		d, err := e.Handle(context.Background(), s, TriggerMessage, m)
		if errors.Is(err, ErrSessionClosed) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Status == StatusAccepted {
			break
		}
		if d.ProposedPrice > prev {
			t.Fatalf("seller offer rose from %d to %d", prev, d.ProposedPrice)
		}
		prev = d.ProposedPrice
	}
}

func TestEngine_AcceptanceIsTerminal(t *testing.T) {
	e := testEngine(failingArbiter{})
	s := testSession()

	// Offer the listed price: the fallback accepts with a courtesy discount
	d, err := e.Handle(context.Background(), s, TriggerMessage, "I'll pay 70761")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Status != StatusAccepted {
		t.Fatalf("expected acceptance, got %s", d.Status)
	}
	accepted := d.ProposedPrice

	// Any further message, including nudges, must be rejected
	if _, err := e.Handle(context.Background(), s, TriggerMessage, "actually 1 rupee"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed after acceptance, got %v", err)
	}
	if _, err := e.Handle(context.Background(), s, TriggerHesitate, ""); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("nudge after acceptance must be ignored, got %v", err)
	}
	if got := s.LastAsk(); got != accepted {
		t.Errorf("price changed after acceptance: %d -> %d", accepted, got)
	}
}

func TestEngine_RogueSubFloorDecisionIsClamped(t *testing.T) {
	s := testSession()
	e := testEngine(rogueArbiter{price: s.FloorPrice - 5000, status: StatusAccepted})

	d, err := e.Handle(context.Background(), s, TriggerMessage, "give me your best price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ProposedPrice != s.FloorPrice {
		t.Errorf("rogue sub-floor proposal must be clamped to %d, got %d", s.FloorPrice, d.ProposedPrice)
	}
	if d.Status != StatusNegotiating {
		t.Errorf("sub-floor acceptance must be forced back to negotiating, got %s", d.Status)
	}
	if s.Closed() {
		t.Error("session must stay open after a clamped decision")
	}
}

func TestEngine_HistoryRecordsBothSides(t *testing.T) {
	e := testEngine(nil)
	s := testSession()

	if _, err := e.Handle(context.Background(), s, TriggerMessage, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("expected customer + seller turns, got %d", len(h))
	}
	if h[0].Speaker != SpeakerCustomer || h[1].Speaker != SpeakerSeller {
		t.Errorf("unexpected turn order: %+v", h)
	}
}

func TestParseDecision_RejectsMalformedArgs(t *testing.T) {
	cases := []map[string]any{
		{},
		{"message": "hi"},
		{"message": "hi", "status": "negotiating"},
		{"message": "hi", "status": "maybe", "proposed_price": 65000.0},
		{"message": "hi", "status": "negotiating", "proposed_price": "not-a-number"},
		{"message": "hi", "status": "negotiating", "proposed_price": -10.0},
		{"message": "", "status": "negotiating", "proposed_price": 65000.0},
	}

	for i, args := range cases {
		if _, err := parseDecision(args); err == nil {
			t.Errorf("case %d: expected validation error for %v", i, args)
		}
	}
}

func TestParseDecision_AcceptsWellFormedArgs(t *testing.T) {
	d, err := parseDecision(map[string]any{
		"message":        "how about this",
		"status":         "negotiating",
		"proposed_price": 68999.6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ProposedPrice != 69000 {
		t.Errorf("price should round to whole rupees: got %d", d.ProposedPrice)
	}

	d, err = parseDecision(map[string]any{
		"message":        "deal",
		"status":         "accepted",
		"proposed_price": "66000",
	})
	if err != nil {
		t.Fatalf("string price should parse: %v", err)
	}
	if d.Status != StatusAccepted || d.ProposedPrice != 66000 {
		t.Errorf("unexpected decision: %+v", d)
	}
}
