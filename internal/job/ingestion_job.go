package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"btc-news-timeline/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type IngestionRunner interface {
	RunIngestion(ctx context.Context) (domain.IngestionResult, error)
}

// IngestionJob runs an ingestion cycle on start and then every pollInterval.
type IngestionJob struct {
	tracer       trace.Tracer
	runner       IngestionRunner
	pollInterval time.Duration
}

func NewIngestionJob(tracer trace.Tracer, runner IngestionRunner, pollInterval time.Duration) *IngestionJob {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Hour
	}
	return &IngestionJob{tracer: tracer, runner: runner, pollInterval: pollInterval}
}

func (j *IngestionJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Ingestion job disabled: no runner")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *IngestionJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "ingestion-job.run-once")
	defer span.End()

	result, err := j.runner.RunIngestion(ctx)
	span.SetAttributes(attribute.String("status", string(result.Status)))
	if err != nil {
		log.Printf("Ingestion cycle error: %v", err)
		return
	}
	log.Println(Summary(result))
}

// Summary renders a one-line description of a cycle for logs.
func Summary(result domain.IngestionResult) string {
	switch result.Status {
	case domain.RunRecorded:
		warnings := 0
		for _, s := range result.Sources {
			if s.Error != "" {
				warnings++
			}
		}
		return fmt.Sprintf(
			"Ingestion cycle complete price_id=%d price=%s change=%.2f%% news=%d warnings=%d",
			result.PriceID, result.Price, result.PercentChange, result.NewsInserted(), warnings,
		)
	case domain.RunSkippedSameDay:
		return fmt.Sprintf("Ingestion cycle skipped: snapshot %d already recorded today", result.PriceID)
	case domain.RunSkippedInProgress:
		return "Ingestion cycle skipped: another cycle is running"
	default:
		return fmt.Sprintf("Ingestion cycle finished with status %s", result.Status)
	}
}
