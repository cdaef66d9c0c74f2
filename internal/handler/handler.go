package handler

import (
	"context"
	"time"

	"btc-news-timeline/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type IngestionService interface {
	RunIngestion(ctx context.Context) (domain.IngestionResult, error)
	LastResult(ctx context.Context) (*domain.IngestionResult, error)
}

type Handler struct {
	tracer         trace.Tracer
	ingestion      IngestionService
	triggerTimeout time.Duration
}

// New builds a handler. triggerTimeout bounds a manually triggered cycle; zero means unbounded.
func New(tracer trace.Tracer, triggerTimeout time.Duration) *Handler {
	return &Handler{tracer: tracer, triggerTimeout: triggerTimeout}
}

func (h *Handler) SetIngestionService(svc IngestionService) {
	h.ingestion = svc
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	ingest := r.Group("/api/ingest")
	ingest.POST("/run", RequestTimeout(h.triggerTimeout), h.TriggerIngestionRun)
	ingest.GET("/status", h.IngestionStatus)
}
