package handler

import (
	"net/http"

	"btc-news-timeline/internal/domain"

	"github.com/gin-gonic/gin"
)

// TriggerIngestionRun godoc
// @Summary      Run one ingestion cycle
// @Description  Fetches the Bitcoin price, records today's snapshot and collects news when the policy requires it
// @Tags         ingest
// @Produce      json
// @Success      200  {object}  domain.IngestionResult
// @Failure      500  {object}  domain.IngestionResult
// @Failure      502  {object}  domain.IngestionResult
// @Failure      503  {object}  map[string]string
// @Router       /api/ingest/run [post]
func (h *Handler) TriggerIngestionRun(c *gin.Context) {
	if h.ingestion == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-ingestion-run")
	defer span.End()

	result, err := h.ingestion.RunIngestion(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(statusForError(err), result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// IngestionStatus godoc
// @Summary      Last ingestion result
// @Description  Returns the outcome of the most recent ingestion cycle
// @Tags         ingest
// @Produce      json
// @Success      200  {object}  domain.IngestionResult
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/ingest/status [get]
func (h *Handler) IngestionStatus(c *gin.Context) {
	if h.ingestion == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.ingestion-status")
	defer span.End()

	result, err := h.ingestion.LastResult(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no ingestion cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func statusForError(err error) int {
	kind, _ := domain.ErrorKindOf(err)
	if kind == domain.KindPriceFetch {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
