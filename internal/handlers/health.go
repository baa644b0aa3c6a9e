package handlers

import (
	"context"
	"net/http"
	"time"

	"escaperooms-directory/pkg/cache"
	"escaperooms-directory/pkg/logger"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	cache   *cache.Manager
	timeout time.Duration
}

func NewHealthHandler(manager *cache.Manager) *HealthHandler {
	return &HealthHandler{cache: manager, timeout: 5 * time.Second}
}

// Health godoc
// @Summary Service health
// @Description Reports "ok", or "degraded" when the cache backend is unavailable. Both answer 200: the directory keeps serving straight from the source.
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.cache.Ping(ctx); err != nil {
		logger.GlobalLogger.Warnf("Cache ping failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "cache": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": "ok"})
}
