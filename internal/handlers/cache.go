package handlers

import (
	"fmt"
	"net/http"

	apperrors "escaperooms-directory/internal/errors"
	"escaperooms-directory/internal/middleware"
	"escaperooms-directory/internal/services"
	"escaperooms-directory/internal/validators"
	"escaperooms-directory/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CacheHandler exposes externally triggered invalidation.
type CacheHandler struct {
	roomService *services.RoomService
	validator   validators.RoomValidator
}

func NewCacheHandler(roomService *services.RoomService, validator validators.RoomValidator) *CacheHandler {
	return &CacheHandler{roomService: roomService, validator: validator}
}

type InvalidateRequest struct {
	Pattern string `json:"pattern"`
	All     bool   `json:"all"`
}

type InvalidateResponse struct {
	Removed int    `json:"removed"`
	Pattern string `json:"pattern,omitempty"`
}

// InvalidateKey godoc
// @Summary Remove one cache entry
// @Tags Cache
// @Produce json
// @Param key path string true "Logical cache key, e.g. rooms:all"
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /cache/{key} [delete]
func (h *CacheHandler) InvalidateKey(c *gin.Context) {
	key := c.Param("key")
	if err := h.validator.ValidateKey(key); err != nil {
		_ = c.Error(apperrors.InvalidParameters(err))
		return
	}
	if err := h.roomService.Invalidate(c.Request.Context(), key); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "status": "invalidated"})
}

// InvalidatePattern godoc
// @Summary Remove every cache entry matching a glob
// @Description Send {"pattern": "room:slug:*"} or {"all": true} to drop every room and statistics entry.
// @Tags Cache
// @Accept json
// @Produce json
// @Param request body InvalidateRequest true "Pattern or all"
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {object} InvalidateResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /cache/invalidate [post]
func (h *CacheHandler) InvalidatePattern(c *gin.Context) {
	var req InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidParameters(err))
		return
	}

	ctx := c.Request.Context()
	if req.All {
		n, err := h.roomService.InvalidateAll(ctx)
		if err != nil {
			_ = c.Error(err)
			return
		}
		logger.GlobalLogger.Printf("Invalidated all room entries: removed=%d, request_id=%s", n, c.GetString(middleware.RequestIDKey))
		c.JSON(http.StatusOK, InvalidateResponse{Removed: n})
		return
	}

	if req.Pattern == "" {
		_ = c.Error(apperrors.InvalidParameters(fmt.Errorf("either pattern or all must be set")))
		return
	}
	if err := h.validator.ValidatePattern(req.Pattern); err != nil {
		_ = c.Error(apperrors.InvalidParameters(err))
		return
	}
	n, err := h.roomService.InvalidatePattern(ctx, req.Pattern)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, InvalidateResponse{Removed: n, Pattern: req.Pattern})
}
