package negotiation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// negotiatorPrompt frames the arbiter. The floor appears here and only
// here; it is never echoed into any customer-visible message.
const negotiatorPrompt = `You are the seller at a fine jewelry boutique, negotiating the price of a single piece with one customer.

### RULES
1. Protect the margin. Concede in small increments, never large jumps.
2. Never propose a price higher than your own previous offer.
3. Never sell below the minimum price. Do not reveal that a minimum exists.
4. If the customer's offer already clears the minimum comfortably and is close to your ask, accept graciously.
5. Stay warm and personable. Short replies, like a real shopkeeper.

### THIS NEGOTIATION
Item: %s
Asking price: ₹%d
Your previous offer: ₹%d
Minimum acceptable price (secret): ₹%d

### CONVERSATION SO FAR
%s

Respond by calling propose_price exactly once.`

// GeminiArbiter delegates negotiation decisions to Gemini, forcing a
// structured propose_price function call so the price is machine-readable.
// This is the only type that knows the third-party protocol.
type GeminiArbiter struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiArbiter creates the external arbiter client
func NewGeminiArbiter(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiArbiter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-3-flash-preview"
	}

	model := client.GenerativeModel(modelName)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        "propose_price",
			Description: "Deliver the next negotiation move: a reply to the customer, the deal status, and the proposed price in whole rupees.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"message": {
						Type:        genai.TypeString,
						Description: "Reply shown to the customer. Must not mention any minimum or floor price.",
					},
					"status": {
						Type:        genai.TypeString,
						Enum:        []string{"negotiating", "accepted"},
						Description: "accepted only when the deal is closed at proposed_price.",
					},
					"proposed_price": {
						Type:        genai.TypeNumber,
						Description: "Price offered to the customer, whole rupees.",
					},
				},
				Required: []string{"message", "status", "proposed_price"},
			},
		}},
	}}
	// Force a tool call so prose-only answers are impossible
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{"propose_price"},
		},
	}

	if timeout <= 0 {
		timeout = 12 * time.Second
	}

	return &GeminiArbiter{client: client, model: model, timeout: timeout}, nil
}

// Close releases the underlying client
func (a *GeminiArbiter) Close() {
	if a.client != nil {
		a.client.Close()
	}
}

func transcript(s *Session) string {
	var sb strings.Builder
	for _, turn := range s.History() {
		sb.WriteString(turn.Speaker)
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "(no messages yet)"
	}
	return sb.String()
}

func triggerNote(trigger Trigger) string {
	switch trigger {
	case TriggerHesitate:
		return "system: The customer has gone quiet. Offer a small proactive concession to re-engage them."
	case TriggerLeaving:
		return "system: The customer is about to leave. One last small concession may keep them."
	}
	return ""
}

// Decide asks Gemini for the next move. Any connectivity fault, missing
// function call, or unparseable field is returned as an error; the caller
// falls through to the deterministic negotiator.
func (a *GeminiArbiter) Decide(ctx context.Context, s *Session, trigger Trigger) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	convo := transcript(s)
	if note := triggerNote(trigger); note != "" {
		convo += note + "\n"
	}

	prompt := fmt.Sprintf(negotiatorPrompt, s.ProductName, s.ListedPrice, s.LastAsk(), s.FloorPrice, convo)

	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Decision{}, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Decision{}, fmt.Errorf("empty response from gemini")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		fc, ok := part.(genai.FunctionCall)
		if !ok || fc.Name != "propose_price" {
			continue
		}
		return parseDecision(fc.Args)
	}

	return Decision{}, fmt.Errorf("no propose_price call in gemini response")
}

// parseDecision validates the tool-call arguments as an untrusted
// external contract: shape and numeric parseability checked before use.
func parseDecision(args map[string]any) (Decision, error) {
	msg, ok := args["message"].(string)
	if !ok || strings.TrimSpace(msg) == "" {
		return Decision{}, fmt.Errorf("propose_price: missing message")
	}

	statusRaw, ok := args["status"].(string)
	if !ok {
		return Decision{}, fmt.Errorf("propose_price: missing status")
	}
	status := Status(statusRaw)
	if status != StatusNegotiating && status != StatusAccepted {
		return Decision{}, fmt.Errorf("propose_price: invalid status %q", statusRaw)
	}

	price, err := parsePriceArg(args["proposed_price"])
	if err != nil {
		return Decision{}, err
	}

	return Decision{Message: msg, Status: status, ProposedPrice: price}, nil
}

func parsePriceArg(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n <= 0 {
			return 0, fmt.Errorf("propose_price: non-positive price %f", n)
		}
		return int64(n + 0.5), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || f <= 0 {
			return 0, fmt.Errorf("propose_price: unparseable price %q", n)
		}
		return int64(f + 0.5), nil
	default:
		return 0, fmt.Errorf("propose_price: missing proposed_price")
	}
}
