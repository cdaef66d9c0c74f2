package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshot is one persisted Bitcoin price observation. At most one exists per UTC calendar date.
type PriceSnapshot struct {
	ID            int64           `json:"id"`
	Price         decimal.Decimal `json:"price"`
	PercentChange float64         `json:"percent_change"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Date returns the UTC calendar date of the snapshot at midnight.
func (p PriceSnapshot) Date() time.Time {
	return UTCDate(p.Timestamp)
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentNone     Sentiment = "none"
)

// ParseSentiment maps stored labels back onto the enum. Unknown values become none.
func ParseSentiment(v string) Sentiment {
	switch Sentiment(v) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(v)
	default:
		return SentimentNone
	}
}

type SourceType string

const (
	SourceGlobal SourceType = "global"
	SourceCrypto SourceType = "crypto"
)

// SourceTypes lists the news variants in ingestion order.
var SourceTypes = []SourceType{SourceGlobal, SourceCrypto}

func (s SourceType) IsValid() bool {
	return s == SourceGlobal || s == SourceCrypto
}

// NewsRecord is a normalized article attached to the snapshot recorded in the same cycle.
type NewsRecord struct {
	ID          int64      `json:"id"`
	PriceID     int64      `json:"price_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Timestamp   time.Time  `json:"timestamp"`
	Sentiment   Sentiment  `json:"sentiment"`
	SourceType  SourceType `json:"source_type"`
}

// TitleSet is an immutable view of the titles stored before a cycle began.
type TitleSet map[string]struct{}

func NewTitleSet(titles []string) TitleSet {
	set := make(TitleSet, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set
}

func (s TitleSet) Contains(title string) bool {
	_, ok := s[title]
	return ok
}

// UTCDate truncates t to midnight of its UTC calendar date.
func UTCDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameUTCDate reports whether a and b fall on the same UTC calendar date.
func SameUTCDate(a, b time.Time) bool {
	return UTCDate(a).Equal(UTCDate(b))
}
