package negotiation

import (
	"fmt"
	"log"

	"github.com/zevar-co/zevargo/internal/models"
)

// AuditSink records negotiation audit events. Nil-safe at the call sites
// so the safeguard works without storage (tests, dry runs).
type AuditSink interface {
	Record(entry models.NegotiationAudit)
}

// Safeguard is the final authority over every arbiter decision. It clamps
// sub-floor proposals, keeps concessions monotonic, and locks the session
// on acceptance before the decision is emitted.
type Safeguard struct {
	audit AuditSink
}

// NewSafeguard creates the enforcer with an optional audit sink
func NewSafeguard(audit AuditSink) *Safeguard {
	return &Safeguard{audit: audit}
}

func (g *Safeguard) record(s *Session, event string, proposed int64, msg string) {
	if g.audit == nil {
		return
	}
	g.audit.Record(models.NegotiationAudit{
		SessionID:     s.ID,
		ProductID:     s.ProductID,
		Event:         event,
		ProposedPrice: proposed,
		FloorPrice:    s.FloorPrice,
		Message:       msg,
	})
}

// Enforce clamps a decision against the session's floor and previous ask.
// An accepted status below floor is never possible: the clamp also forces
// the status back to negotiating.
func (g *Safeguard) Enforce(d Decision, s *Session) Decision {
	if d.ProposedPrice < s.FloorPrice {
		log.Printf("🛡️ Safeguard: clamped %d to floor for session %s", d.ProposedPrice, s.ID)
		g.record(s, models.AuditSafeguardClamp, d.ProposedPrice, d.Message)
		d.ProposedPrice = s.FloorPrice
		d.Status = StatusNegotiating
		d.Message = fmt.Sprintf("I appreciate the enthusiasm, but ₹%d is genuinely my final offer on this piece.", s.FloorPrice)
	}

	// Concessions are monotonic: never revert to a worse-for-buyer price
	// than one already offered. The message is rebuilt so the quoted
	// number always matches the emitted price.
	if lastAsk := s.LastAsk(); d.ProposedPrice > lastAsk {
		d.ProposedPrice = lastAsk
		if d.Status == StatusAccepted {
			d.Message = fmt.Sprintf("Deal — ₹%d, just as I offered. It's yours.", lastAsk)
		} else {
			d.Message = fmt.Sprintf("I'll stand by the ₹%d I already offered you.", lastAsk)
		}
	}

	if d.Status == StatusAccepted {
		// Lock before emission, closing the race with a near-simultaneous
		// follow-up message.
		s.Close()
		g.record(s, models.AuditDealAccepted, d.ProposedPrice, d.Message)
	}

	s.RecordAsk(d.ProposedPrice)
	return d
}
