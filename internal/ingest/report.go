package ingest

import (
	"context"
	"fmt"
	"time"

	"btc-news-timeline/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TimelineReader is the read side of the stores used by the timeline report.
type TimelineReader interface {
	ListSnapshots(ctx context.Context, from, to time.Time) ([]domain.PriceSnapshot, error)
	ListNewsByPriceID(ctx context.Context, priceID int64) ([]domain.NewsRecord, error)
}

// TimelineDay is one stored snapshot with the news attached to it.
type TimelineDay struct {
	Snapshot domain.PriceSnapshot `json:"snapshot"`
	HasNews  bool                 `json:"has_news"`
	News     []domain.NewsRecord  `json:"news,omitempty"`
}

// BuildTimeline returns the snapshots recorded in [from, to], newest first, each with its news.
func BuildTimeline(ctx context.Context, tracer trace.Tracer, reader TimelineReader, from, to time.Time) ([]TimelineDay, error) {
	ctx, span := tracer.Start(ctx, "ingest.build-timeline")
	defer span.End()

	snapshots, err := reader.ListSnapshots(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	days := make([]TimelineDay, 0, len(snapshots))
	for _, snap := range snapshots {
		news, err := reader.ListNewsByPriceID(ctx, snap.ID)
		if err != nil {
			return nil, fmt.Errorf("list news for snapshot %d (%s): %w", snap.ID, snap.Date().Format(time.DateOnly), err)
		}
		days = append(days, TimelineDay{Snapshot: snap, HasNews: len(news) > 0, News: news})
	}
	span.SetAttributes(attribute.Int("days", len(days)))
	return days, nil
}
