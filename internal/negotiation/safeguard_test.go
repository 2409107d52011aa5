package negotiation

import (
	"strconv"
	"strings"
	"testing"

	"github.com/zevar-co/zevargo/internal/models"
)

type memAuditor struct {
	entries []models.NegotiationAudit
}

func (m *memAuditor) Record(e models.NegotiationAudit) {
	m.entries = append(m.entries, e)
}

func TestSafeguard_ClampsBelowFloor(t *testing.T) {
	audit := &memAuditor{}
	g := NewSafeguard(audit)
	s := testSession()

	d := g.Enforce(Decision{
		Message:       "special deal just for you",
		Status:        StatusAccepted, // even acceptance below floor is impossible
		ProposedPrice: s.FloorPrice - 1,
	}, s)

	if d.ProposedPrice != s.FloorPrice {
		t.Errorf("expected clamp to floor %d, got %d", s.FloorPrice, d.ProposedPrice)
	}
	if d.Status != StatusNegotiating {
		t.Errorf("clamped decision must be negotiating, got %s", d.Status)
	}
	if s.Closed() {
		t.Error("session must not close on a clamped decision")
	}
	if len(audit.entries) != 1 || audit.entries[0].Event != models.AuditSafeguardClamp {
		t.Errorf("expected one safeguard_clamp audit entry, got %+v", audit.entries)
	}
	// The standard final-offer message must not leak the word "floor"
	if strings.Contains(strings.ToLower(d.Message), "floor") {
		t.Errorf("message leaks the floor concept: %q", d.Message)
	}
}

func TestSafeguard_MonotonicConcession(t *testing.T) {
	g := NewSafeguard(nil)
	s := testSession()
	s.RecordAsk(68000)

	d := g.Enforce(Decision{
		Message:       "actually, the price went up",
		Status:        StatusNegotiating,
		ProposedPrice: 69500,
	}, s)

	if d.ProposedPrice != 68000 {
		t.Errorf("proposal above previous ask must be lowered to %d, got %d", 68000, d.ProposedPrice)
	}
	if !strings.Contains(d.Message, "68000") || strings.Contains(d.Message, "69500") {
		t.Errorf("message must quote the lowered price, not the original: %q", d.Message)
	}
}

func TestSafeguard_LoweredAcceptanceQuotesEmittedPrice(t *testing.T) {
	g := NewSafeguard(nil)
	s := testSession()
	s.RecordAsk(62000)

	d := g.Enforce(Decision{
		Message:       "deal at 69500!",
		Status:        StatusAccepted,
		ProposedPrice: 69500,
	}, s)

	if d.Status != StatusAccepted {
		t.Fatalf("acceptance should survive the lowering, got %s", d.Status)
	}
	if d.ProposedPrice != 62000 {
		t.Errorf("accepted price must be lowered to the previous ask 62000, got %d", d.ProposedPrice)
	}
	if !strings.Contains(d.Message, "62000") || strings.Contains(d.Message, "69500") {
		t.Errorf("message must quote the emitted price, not the original: %q", d.Message)
	}
	if !s.Closed() {
		t.Error("session must close on the lowered acceptance")
	}
}

func TestSafeguard_AcceptanceClosesSessionBeforeEmission(t *testing.T) {
	audit := &memAuditor{}
	g := NewSafeguard(audit)
	s := testSession()

	d := g.Enforce(Decision{
		Message:       "deal!",
		Status:        StatusAccepted,
		ProposedPrice: 66000,
	}, s)

	if d.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", d.Status)
	}
	if !s.Closed() {
		t.Error("session must be closed when the accepted decision is returned")
	}
	if len(audit.entries) != 1 || audit.entries[0].Event != models.AuditDealAccepted {
		t.Errorf("expected one deal_accepted audit entry, got %+v", audit.entries)
	}
}

func TestSafeguard_RecordsAsk(t *testing.T) {
	g := NewSafeguard(nil)
	s := testSession()

	g.Enforce(Decision{Status: StatusNegotiating, ProposedPrice: 69000}, s)
	if got := s.LastAsk(); got != 69000 {
		t.Errorf("expected last ask 69000, got %d", got)
	}
}

func TestSafeguard_NilAuditSinkIsSafe(t *testing.T) {
	g := NewSafeguard(nil)
	s := testSession()

	// Must not panic without a sink
	d := g.Enforce(Decision{Status: StatusNegotiating, ProposedPrice: s.FloorPrice - 100}, s)
	if d.ProposedPrice != s.FloorPrice {
		t.Errorf("expected floor %d, got %d", s.FloorPrice, d.ProposedPrice)
	}
	// Message carries the clamped price, not the original
	if !strings.Contains(d.Message, strconv.FormatInt(s.FloorPrice, 10)) {
		t.Errorf("final-offer message should state the floor amount: %q", d.Message)
	}
}
