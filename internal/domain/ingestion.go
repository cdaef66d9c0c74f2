package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ErrorKind string

const (
	KindPriceFetch  ErrorKind = "price_fetch"
	KindFetch       ErrorKind = "fetch"
	KindUpstreamAPI ErrorKind = "upstream_api"
	KindPersistence ErrorKind = "persistence"
)

// IngestionError is the structured error reported at the cycle and adapter boundaries.
type IngestionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *IngestionError) Unwrap() error { return e.Err }

func NewIngestionError(kind ErrorKind, message string, err error) *IngestionError {
	return &IngestionError{Kind: kind, Message: message, Err: err}
}

// ErrorKindOf returns the kind of the first IngestionError in err's chain.
func ErrorKindOf(err error) (ErrorKind, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie.Kind, true
	}
	return "", false
}

// IngestionDecision is derived once per cycle and never persisted.
type IngestionDecision struct {
	PercentChange float64            `json:"percent_change"`
	SinceLastNews time.Duration      `json:"since_last_news_ns"`
	HasPriorNews  bool               `json:"has_prior_news"`
	Burst         bool               `json:"burst"`
	Required      map[SourceType]int `json:"required"`
}

type RunStatus string

const (
	RunRecorded          RunStatus = "recorded"
	RunSkippedSameDay    RunStatus = "skipped_same_day"
	RunSkippedInProgress RunStatus = "skipped_in_progress"
	RunFailed            RunStatus = "failed"
)

type SourceOutcome struct {
	SourceType SourceType `json:"source_type"`
	Required   int        `json:"required"`
	Collected  int        `json:"collected"`
	Inserted   int        `json:"inserted"`
	Duplicates int        `json:"duplicates"`
	Error      string     `json:"error,omitempty"`
}

// IngestionResult summarizes one cycle.
type IngestionResult struct {
	Status        RunStatus          `json:"status"`
	PriceID       int64              `json:"price_id,omitempty"`
	Price         decimal.Decimal    `json:"price"`
	PercentChange float64            `json:"percent_change"`
	Decision      *IngestionDecision `json:"decision,omitempty"`
	Sources       []SourceOutcome    `json:"sources,omitempty"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
	Error         *IngestionError    `json:"error,omitempty"`
}

// NewsInserted totals inserted records across sources.
func (r IngestionResult) NewsInserted() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Inserted
	}
	return n
}
