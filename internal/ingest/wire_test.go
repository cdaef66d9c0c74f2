package ingest

import (
	"testing"
	"time"

	"btc-news-timeline/internal/config"
	"btc-news-timeline/internal/domain"
)

func TestPolicyFromConfig(t *testing.T) {
	cfg := &config.Config{
		NewsThresholdHighPct: 3,
		NewsStalenessHours:   24,
		GlobalNewsBurst:      2,
		GlobalNewsCatchup:    0,
		CryptoNewsBurst:      4,
		CryptoNewsCatchup:    1,
	}
	p := PolicyFromConfig(cfg)
	if p.ThresholdHighPct != 3 || p.Staleness != 24*time.Hour {
		t.Fatalf("unexpected policy: %+v", p)
	}
	d := p.Decide(-3.5, nil, time.Now())
	if d.Required[domain.SourceGlobal] != 2 || d.Required[domain.SourceCrypto] != 4 {
		t.Fatalf("unexpected burst counts: %v", d.Required)
	}
}

func TestNewFromConfigOrdersSources(t *testing.T) {
	cfg := &config.Config{
		CoinGeckoBaseURL: "http://prices.local",
		NewsAPIBaseURL:   "http://news.local/v2",
		HTTPTimeoutSecs:  5,
		NewsMaxAttempts:  3,
		NewsMaxPageSize:  10,
	}
	o := NewFromConfig(testTracer, cfg, &memPriceStore{}, &memNewsStore{})
	if len(o.sources) != 2 {
		t.Fatalf("expected two sources, got %d", len(o.sources))
	}
	if o.sources[0].SourceType() != domain.SourceGlobal || o.sources[1].SourceType() != domain.SourceCrypto {
		t.Fatalf("unexpected source order: %s, %s", o.sources[0].SourceType(), o.sources[1].SourceType())
	}
	if o.sources[1].Endpoint() != "http://news.local/v2/everything" {
		t.Fatalf("unexpected crypto endpoint %s", o.sources[1].Endpoint())
	}
}
