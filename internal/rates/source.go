package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// SpotQuote holds raw troy-ounce spot prices in INR
type SpotQuote struct {
	GoldOunce   decimal.Decimal
	SilverOunce decimal.Decimal
	FetchedAt   time.Time
	Static      bool // true when these are last-known approximations
}

// SpotSource fetches raw spot prices from an external provider
type SpotSource interface {
	FetchSpot(ctx context.Context) (SpotQuote, error)
}

// Static approximations used when the external source is unreachable.
// Deliberately conservative; a degraded sync beats a failed one.
var (
	staticGoldOunce   = decimal.NewFromInt(221000)
	staticSilverOunce = decimal.NewFromInt(2650)
)

// StaticQuote returns the last-known approximate spot prices
func StaticQuote() SpotQuote {
	return SpotQuote{
		GoldOunce:   staticGoldOunce,
		SilverOunce: staticSilverOunce,
		FetchedAt:   time.Now(),
		Static:      true,
	}
}

// HTTPSource pulls spot prices from a goldapi.io-style JSON endpoint:
// GET {base}/XAU/INR and GET {base}/XAG/INR with an x-access-token header.
type HTTPSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPSource creates a spot source against the given API base URL
func NewHTTPSource(baseURL, apiKey string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type spotResponse struct {
	Price decimal.Decimal `json:"price"`
}

func (s *HTTPSource) fetchSymbol(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/INR", s.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("x-access-token", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("spot fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("spot fetch %s: status %d", symbol, resp.StatusCode)
	}

	var body spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("spot fetch %s: decode: %w", symbol, err)
	}
	if body.Price.IsZero() || body.Price.IsNegative() {
		return decimal.Zero, fmt.Errorf("spot fetch %s: non-positive price %s", symbol, body.Price)
	}

	return body.Price, nil
}

// FetchSpot retrieves gold and silver troy-ounce prices in INR
func (s *HTTPSource) FetchSpot(ctx context.Context) (SpotQuote, error) {
	gold, err := s.fetchSymbol(ctx, "XAU")
	if err != nil {
		return SpotQuote{}, err
	}
	silver, err := s.fetchSymbol(ctx, "XAG")
	if err != nil {
		return SpotQuote{}, err
	}
	return SpotQuote{GoldOunce: gold, SilverOunce: silver, FetchedAt: time.Now()}, nil
}
