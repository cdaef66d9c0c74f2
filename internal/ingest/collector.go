package ingest

import (
	"context"
	"log"

	"btc-news-timeline/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxAttempts = 6
	defaultMaxPageSize = 100
	pageSizeStep       = 2
)

// NewsSource is one news variant able to fetch a page of unseen, normalized articles.
type NewsSource interface {
	SourceType() domain.SourceType
	Endpoint() string
	FetchPage(ctx context.Context, pageSize int, existing domain.TitleSet, priceID int64) ([]domain.NewsRecord, error)
}

// Collection is what one Collect call produced.
type Collection struct {
	Records   []domain.NewsRecord
	Attempts  int
	Exhausted bool
	Err       error
}

// Collector drives a NewsSource with growing page sizes until enough unique articles are found.
type Collector struct {
	tracer      trace.Tracer
	maxAttempts int
	maxPageSize int
}

func NewCollector(tracer trace.Tracer, maxAttempts, maxPageSize int) *Collector {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if maxPageSize <= 0 {
		maxPageSize = defaultMaxPageSize
	}
	return &Collector{tracer: tracer, maxAttempts: maxAttempts, maxPageSize: maxPageSize}
}

// Collect returns at most required articles in fetch order. Page size starts at 1 and grows by 2
// per attempt; the loop stops at maxAttempts or after a page of maxPageSize was requested, returning
// what it has. A source error is logged and yields an empty collection.
func (c *Collector) Collect(ctx context.Context, src NewsSource, required int, existing domain.TitleSet, priceID int64) Collection {
	if required <= 0 {
		return Collection{}
	}

	ctx, span := c.tracer.Start(ctx, "collector.collect")
	defer span.End()
	span.SetAttributes(attribute.String("source_type", string(src.SourceType())), attribute.Int("required", required))

	var (
		acc      = make([]domain.NewsRecord, 0, required)
		seen     = make(map[string]struct{}, required)
		pageSize = 1
		out      Collection
	)

	for out.Attempts < c.maxAttempts {
		if pageSize > c.maxPageSize {
			pageSize = c.maxPageSize
		}
		out.Attempts++

		page, err := src.FetchPage(ctx, pageSize, existing, priceID)
		if err != nil {
			log.Printf("news collection for %s failed on attempt %d (page size %d): %v", src.SourceType(), out.Attempts, pageSize, err)
			span.RecordError(err)
			return Collection{Attempts: out.Attempts, Err: err}
		}
		for _, rec := range page {
			if _, dup := seen[rec.Title]; dup {
				continue
			}
			seen[rec.Title] = struct{}{}
			acc = append(acc, rec)
		}
		if len(acc) >= required || pageSize >= c.maxPageSize {
			break
		}
		pageSize += pageSizeStep
	}

	if len(acc) < required {
		out.Exhausted = true
		log.Printf("news collection for %s exhausted after %d attempts: %d of %d articles", src.SourceType(), out.Attempts, len(acc), required)
	} else {
		acc = acc[:required]
	}
	out.Records = acc
	span.SetAttributes(attribute.Int("collected", len(acc)), attribute.Int("attempts", out.Attempts))
	return out
}
