package ingest

import (
	"math"
	"time"

	"btc-news-timeline/internal/domain"
)

// SourceCounts are the article targets for one news variant.
type SourceCounts struct {
	Burst   int
	Catchup int
}

// Policy decides how many articles each source must supply in a cycle.
//
//	required = |change| > ThresholdHighPct ? Burst : (sinceLastNews > Staleness ? Catchup : 0)
//
// A cycle with no stored news at all counts as stale.
type Policy struct {
	ThresholdHighPct float64
	Staleness        time.Duration
	Counts           map[domain.SourceType]SourceCounts
}

func DefaultPolicy() Policy {
	return Policy{
		ThresholdHighPct: 5,
		Staleness:        48 * time.Hour,
		Counts: map[domain.SourceType]SourceCounts{
			domain.SourceGlobal: {Burst: 3, Catchup: 1},
			domain.SourceCrypto: {Burst: 5, Catchup: 2},
		},
	}
}

// Decide builds the cycle's IngestionDecision. lastNews is nil when no news has been stored.
func (p Policy) Decide(percentChange float64, lastNews *time.Time, now time.Time) domain.IngestionDecision {
	d := domain.IngestionDecision{
		PercentChange: percentChange,
		Burst:         math.Abs(percentChange) > p.ThresholdHighPct,
		Required:      make(map[domain.SourceType]int, len(domain.SourceTypes)),
	}
	stale := true
	if lastNews != nil {
		d.HasPriorNews = true
		d.SinceLastNews = now.Sub(*lastNews)
		stale = d.SinceLastNews > p.Staleness
	}

	// Every known variant gets an entry; one without configured counts requires nothing.
	for _, st := range domain.SourceTypes {
		counts := p.Counts[st]
		switch {
		case d.Burst:
			d.Required[st] = max(counts.Burst, 0)
		case stale:
			d.Required[st] = max(counts.Catchup, 0)
		default:
			d.Required[st] = 0
		}
	}
	return d
}
