package ingest

import (
	"btc-news-timeline/internal/config"
	"btc-news-timeline/internal/domain"
	"btc-news-timeline/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

// PolicyFromConfig maps the NEWS_* settings onto a Policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		ThresholdHighPct: cfg.NewsThresholdHighPct,
		Staleness:        cfg.NewsStaleness(),
		Counts: map[domain.SourceType]SourceCounts{
			domain.SourceGlobal: {Burst: cfg.GlobalNewsBurst, Catchup: cfg.GlobalNewsCatchup},
			domain.SourceCrypto: {Burst: cfg.CryptoNewsBurst, Catchup: cfg.CryptoNewsCatchup},
		},
	}
}

// NewFromConfig wires the CoinGecko price source and both NewsAPI variants, in the order
// Global then Crypto, against the given stores.
func NewFromConfig(tracer trace.Tracer, cfg *config.Config, priceStore PriceStore, newsStore NewsStore) *Orchestrator {
	timeout := cfg.HTTPTimeout()
	prices := provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoBaseURL, timeout)
	sources := []NewsSource{
		provider.NewGlobalNewsSource(tracer, cfg.NewsAPIBaseURL, cfg.NewsAPIKey, timeout),
		provider.NewCryptoNewsSource(tracer, cfg.NewsAPIBaseURL, cfg.NewsAPIKey, timeout),
	}
	collector := NewCollector(tracer, cfg.NewsMaxAttempts, cfg.NewsMaxPageSize)
	return NewOrchestrator(tracer, prices, priceStore, newsStore, sources, collector, PolicyFromConfig(cfg))
}
