package negotiation

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/models"
	"github.com/zevar-co/zevargo/internal/pricing"
)

// Speakers in the conversation history
const (
	SpeakerCustomer = "customer"
	SpeakerSeller   = "seller"
	SpeakerSystem   = "system"
)

// Turn is one entry in the conversation history
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Session is the per-connection negotiation state. One connection owns
// one session; no two sessions share mutable state. The floor price is
// never written to any outbound message.
type Session struct {
	ID          string
	ProductID   uint
	ProductName string

	FloorPrice  int64 // whole rupees, absolute minimum
	ListedPrice int64 // whole rupees, opening ask

	BaseMetalValue decimal.Decimal
	WastageValue   decimal.Decimal
	MakingCharge   decimal.Decimal
	GSTAmount      decimal.Decimal

	mu         sync.Mutex
	history    []Turn
	lastAsk    int64 // seller's most recent ask; concessions never go above it
	dealClosed bool
}

// NewSession seeds a session from a computed price breakdown
func NewSession(p *models.Product, b *pricing.Breakdown) *Session {
	listed := b.ListedPriceInt()
	return &Session{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		ProductName:    p.Name,
		FloorPrice:     b.FloorPriceInt(),
		ListedPrice:    listed,
		BaseMetalValue: b.RetailMetalValue,
		WastageValue:   b.WastageValue,
		MakingCharge:   b.MakingCharge,
		GSTAmount:      b.GSTAmount,
		lastAsk:        listed,
	}
}

// Append adds a turn to the conversation history
func (s *Session) Append(speaker, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Turn{Speaker: speaker, Text: text})
}

// History returns a copy of the conversation so far
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// LastAsk returns the seller's most recent ask
func (s *Session) LastAsk() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAsk
}

// RecordAsk updates the seller's most recent ask
func (s *Session) RecordAsk(price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAsk = price
}

// Closed reports whether a deal has been accepted
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dealClosed
}

// Close marks the session terminal. Idempotent; once closed no further
// price mutation is accepted from any source.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dealClosed = true
}
