package models

import "time"

// Negotiation audit events
const (
	AuditSafeguardClamp  = "safeguard_clamp"
	AuditDealAccepted    = "deal_accepted"
	AuditFallbackEngaged = "fallback_engaged"
)

// NegotiationAudit records safeguard triggers, fallback activations and
// accepted deals for after-the-fact review. Sessions themselves are
// ephemeral; this is the only durable trace of a negotiation.
type NegotiationAudit struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     string    `gorm:"size:64;index" json:"session_id"`
	ProductID     uint      `gorm:"index" json:"product_id"`
	Event         string    `gorm:"size:32;index" json:"event"`
	ProposedPrice int64     `json:"proposed_price"`
	FloorPrice    int64     `json:"floor_price"`
	Message       string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (NegotiationAudit) TableName() string { return "negotiation_audits" }
