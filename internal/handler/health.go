package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service and whether ingestion is wired
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	ingestion := "disabled"
	if h.ingestion != nil {
		ingestion = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "ingestion": ingestion})
}
