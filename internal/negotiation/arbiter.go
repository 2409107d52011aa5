package negotiation

import "context"

// Status of a negotiation decision
type Status string

const (
	StatusNegotiating Status = "negotiating"
	StatusAccepted    Status = "accepted"
)

// Trigger identifies what prompted an arbitration round
type Trigger string

const (
	TriggerMessage  Trigger = "message"  // customer sent a message
	TriggerHesitate Trigger = "hesitate" // customer idle, proactive nudge
	TriggerLeaving  Trigger = "leaving"  // customer attempting to exit
)

// Decision is one arbiter output: what to say, whether the deal is done,
// and the machine-readable price in whole rupees.
type Decision struct {
	Message       string `json:"message"`
	Status        Status `json:"status"`
	ProposedPrice int64  `json:"proposed_price"`
}

// Arbiter decides the next offer given the conversation state. The
// external implementation may fail (network, malformed output); the
// fallback never does.
type Arbiter interface {
	Decide(ctx context.Context, s *Session, trigger Trigger) (Decision, error)
}
