package negotiation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zevar-co/zevargo/internal/database"
	"github.com/zevar-co/zevargo/internal/models"
	"github.com/zevar-co/zevargo/internal/pricing"
	"github.com/zevar-co/zevargo/internal/rates"
)

// ErrSessionClosed is returned for any message after a deal was accepted
var ErrSessionClosed = errors.New("negotiation session is closed")

// ErrDegradedPricing is returned when a product's rates are missing; we
// refuse to bargain over a zero-rate item.
var ErrDegradedPricing = errors.New("price breakdown is degraded, rate data missing")

// GormAuditor persists negotiation audit rows
type GormAuditor struct {
	db *database.DB
}

// Record implements AuditSink; audit writes are best-effort
func (a *GormAuditor) Record(entry models.NegotiationAudit) {
	if err := a.db.Create(&entry).Error; err != nil {
		log.Printf("⚠️ Failed to write negotiation audit: %v", err)
	}
}

// Engine wires sessions, arbiters and the safeguard together. The
// external arbiter is optional; the fallback handles everything when it
// is absent or failing.
type Engine struct {
	db        *database.DB
	external  Arbiter // may be nil
	fallback  *FallbackNegotiator
	safeguard *Safeguard
}

// NewEngine creates the negotiation engine. Pass a nil external arbiter
// to run on the deterministic negotiator alone.
func NewEngine(db *database.DB, external Arbiter) *Engine {
	var sink AuditSink
	if db != nil {
		sink = &GormAuditor{db: db}
	}
	return &Engine{
		db:        db,
		external:  external,
		fallback:  NewFallbackNegotiator(),
		safeguard: NewSafeguard(sink),
	}
}

// StartSession prices a product at current rates and opens a session.
// Returns the session and the opening message for the customer.
func (e *Engine) StartSession(productID uint) (*Session, string, error) {
	var product models.Product
	if err := e.db.First(&product, productID).Error; err != nil {
		return nil, "", fmt.Errorf("product %d not found: %w", productID, err)
	}
	if !product.Active {
		return nil, "", fmt.Errorf("product %d is not available", productID)
	}

	snapshot, err := rates.LoadSnapshot(e.db)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load rates: %w", err)
	}

	breakdown := pricing.ComputeBreakdown(&product, snapshot)
	if breakdown.Degraded {
		log.Printf("❌ Refusing negotiation on degraded pricing for product %d (grade %s)", product.ID, product.Grade)
		return nil, "", ErrDegradedPricing
	}

	session := NewSession(&product, &breakdown)
	opening := fmt.Sprintf(
		"Welcome! The %s is priced at ₹%d — and between us, there's always a little room to talk. Make me an offer.",
		product.Name, session.ListedPrice,
	)
	session.Append(SpeakerSeller, opening)

	log.Printf("🤝 Negotiation started: session %s, product %d, listed ₹%d", session.ID, product.ID, session.ListedPrice)
	return session, opening, nil
}

// Handle runs one arbitration round: record the inbound event, obtain a
// decision (external arbiter first, deterministic fallback on any fault),
// pass it through the safeguard, and record the outcome. Callers must
// serialize Handle per session; inbound messages queue while a decision
// is pending.
func (e *Engine) Handle(ctx context.Context, s *Session, trigger Trigger, text string) (Decision, error) {
	if s.Closed() {
		return Decision{}, ErrSessionClosed
	}

	switch trigger {
	case TriggerMessage:
		s.Append(SpeakerCustomer, text)
	case TriggerHesitate:
		s.Append(SpeakerSystem, "customer is hesitating")
	case TriggerLeaving:
		s.Append(SpeakerSystem, "customer is about to leave")
	}

	decision, err := e.decide(ctx, s, trigger)
	if err != nil {
		// The fallback never errors; reaching here means a programming
		// fault, not an arbiter fault.
		return Decision{}, err
	}

	decision = e.safeguard.Enforce(decision, s)
	s.Append(SpeakerSeller, decision.Message)
	return decision, nil
}

func (e *Engine) decide(ctx context.Context, s *Session, trigger Trigger) (Decision, error) {
	if e.external != nil {
		d, err := e.external.Decide(ctx, s, trigger)
		if err == nil {
			return d, nil
		}
		log.Printf("⚠️ External arbiter failed, falling back: %v", err)
		e.safeguard.record(s, models.AuditFallbackEngaged, 0, err.Error())
	}
	return e.fallback.Decide(ctx, s, trigger)
}
