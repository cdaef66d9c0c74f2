package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"btc-news-timeline/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	bitcoinID        = "bitcoin"
)

// PriceQuote is the current Bitcoin price in USD and its 24h change in percent.
type PriceQuote struct {
	Price         decimal.Decimal
	PercentChange float64
	FetchedAt     time.Time
}

// CoinGeckoProvider fetches the current Bitcoin quote from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider limited to 8 requests per minute.
// An empty baseURL selects the public endpoint.
func NewCoinGeckoProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchBitcoinQuote returns the current price. Every failure is a price_fetch IngestionError.
func (p *CoinGeckoProvider) FetchBitcoinQuote(ctx context.Context) (*PriceQuote, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-bitcoin-quote")
	defer span.End()

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true", p.baseURL, bitcoinID)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "request bitcoin price", err)
	}

	// Response shape: {"bitcoin": {"usd": 97000.12, "usd_24h_change": 2.34}}
	var raw map[string]map[string]json.Number
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "parse bitcoin price", err)
	}

	fields, ok := raw[bitcoinID]
	if !ok {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "response has no bitcoin entry", nil)
	}
	usd, ok := fields["usd"]
	if !ok {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "response has no usd price", nil)
	}
	price, err := decimal.NewFromString(usd.String())
	if err != nil {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "parse usd price", err)
	}

	rawChange, ok := fields["usd_24h_change"]
	if !ok {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "response has no 24h change", nil)
	}
	change, err := rawChange.Float64()
	if err != nil {
		return nil, domain.NewIngestionError(domain.KindPriceFetch, "parse 24h change", err)
	}

	span.SetAttributes(attribute.String("price", price.String()), attribute.Float64("change_24h_pct", change))

	return &PriceQuote{
		Price:         price,
		PercentChange: change,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("rate_limit_remaining", p.limiter.Available()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
