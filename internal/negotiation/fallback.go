package negotiation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Fallback negotiation constants, whole rupees
const (
	nudgeStep    = 500 // proactive concession on an idle/leaving nudge
	counterStep  = 900 // concession per counter-offer round
	courtesyPct  = 97  // accept over-listed offers at 97% of listed
	offerFloorIN = 100 // numeric matches below this are noise (karats, percentages)
)

var numberPattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// FallbackNegotiator is the deterministic heuristic used whenever the
// external arbiter is unavailable or returns something unusable. It
// never errors and keeps customer-facing latency flat.
type FallbackNegotiator struct{}

// NewFallbackNegotiator creates the deterministic negotiator
func NewFallbackNegotiator() *FallbackNegotiator {
	return &FallbackNegotiator{}
}

// parseOffer extracts the customer's numeric offer from free text. Takes
// the largest number found so "65000 for this 22K ring" reads as 65000,
// not 22. Returns false when no plausible amount is present.
func parseOffer(text string) (int64, bool) {
	matches := numberPattern.FindAllString(text, -1)
	var best int64
	var found bool
	for _, m := range matches {
		clean := strings.ReplaceAll(m, ",", "")
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			continue
		}
		n := int64(v)
		if n < offerFloorIN {
			continue
		}
		if !found || n > best {
			best = n
			found = true
		}
	}
	return best, found
}

// lastCustomerText returns the newest customer turn, if any
func lastCustomerText(s *Session) string {
	history := s.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Speaker == SpeakerCustomer {
			return history[i].Text
		}
	}
	return ""
}

// Decide implements Arbiter deterministically. All outputs are whole
// rupees and never rise above the seller's previous ask.
func (f *FallbackNegotiator) Decide(_ context.Context, s *Session, trigger Trigger) (Decision, error) {
	lastAsk := s.LastAsk()

	// Proactive nudge: concede a small fixed step, clamped above floor.
	if trigger == TriggerHesitate || trigger == TriggerLeaving {
		ask := lastAsk - nudgeStep
		if ask < s.FloorPrice {
			ask = s.FloorPrice
		}
		msg := fmt.Sprintf("I can see you're thinking it over. Tell you what — I can let the %s go for ₹%d right now.", s.ProductName, ask)
		if trigger == TriggerLeaving {
			msg = fmt.Sprintf("Before you go — ₹%d, and the %s is yours today.", ask, s.ProductName)
		}
		return Decision{Message: msg, Status: StatusNegotiating, ProposedPrice: ask}, nil
	}

	offer, ok := parseOffer(lastCustomerText(s))
	if !ok {
		// No number in the message: hold the ask and request one.
		return Decision{
			Message:       fmt.Sprintf("It's a lovely piece, priced at ₹%d. What would you be comfortable paying?", lastAsk),
			Status:        StatusNegotiating,
			ProposedPrice: lastAsk,
		}, nil
	}

	switch {
	case offer >= s.ListedPrice:
		// Offer clears the listed price: accept with a courtesy discount.
		// Nudges may already have brought the ask below that; a closed deal
		// never costs more than the last quoted price.
		price := s.ListedPrice * courtesyPct / 100
		if price < s.FloorPrice {
			price = s.FloorPrice
		}
		if price > lastAsk {
			price = lastAsk
		}
		return Decision{
			Message:       fmt.Sprintf("You have a deal — and because you didn't haggle, make it ₹%d. Congratulations!", price),
			Status:        StatusAccepted,
			ProposedPrice: price,
		}, nil

	case offer >= s.FloorPrice:
		// Workable offer: step down from the previous ask toward it. An
		// offer above the current ask closes at the ask, not the offer.
		counter := lastAsk - counterStep
		if counter <= offer {
			price := offer
			if price > lastAsk {
				price = lastAsk
			}
			return Decision{
				Message:       fmt.Sprintf("Alright, ₹%d it is. You drive a hard bargain!", price),
				Status:        StatusAccepted,
				ProposedPrice: price,
			}, nil
		}
		if counter < s.FloorPrice {
			counter = s.FloorPrice
		}
		return Decision{
			Message:       fmt.Sprintf("₹%d is tough for me, but I can come down to ₹%d. Shall we?", offer, counter),
			Status:        StatusNegotiating,
			ProposedPrice: counter,
		}, nil

	default:
		// Below floor: hold at the floor without naming it as one.
		price := s.FloorPrice
		if price > lastAsk {
			price = lastAsk
		}
		return Decision{
			Message:       fmt.Sprintf("I wish I could, but at ₹%d I'd be losing on the metal itself. ₹%d is the very best I can do.", offer, price),
			Status:        StatusNegotiating,
			ProposedPrice: price,
		}, nil
	}
}
