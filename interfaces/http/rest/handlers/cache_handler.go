package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"itravel/application/services"
	"itravel/domain/cachekey"
	pkgcommon "itravel/pkg/common"
	pkgerrors "itravel/pkg/errors"
)

// CacheHandler exposes server-tier statistics and invalidation
type CacheHandler struct {
	gateway *services.GatewayService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(gateway *services.GatewayService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		gateway: gateway,
		errors:  errorHandler,
		logger:  logger,
	}
}

// StatsResponse wraps the gateway statistics
type StatsResponse struct {
	Success bool                  `json:"success"`
	Stats   services.GatewayStats `json:"stats"`
}

// MessageResponse is a plain success acknowledgement
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetStats handles GET /api/cache/stats
func (h *CacheHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gateway.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to collect cache statistics", zap.Error(err))
		h.errors.HandleStatus(w, r, http.StatusInternalServerError, "Failed to read cache statistics")
		return
	}

	pkgcommon.RespondJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// DeleteCache handles DELETE /api/cache/{type}
func (h *CacheHandler) DeleteCache(w http.ResponseWriter, r *http.Request) {
	typ, ok := cachekey.ParseInvalidationType(chi.URLParam(r, "type"))
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInvalidRequestError("Invalid cache type"))
		return
	}

	if _, err := h.gateway.Invalidate(r.Context(), typ); err != nil {
		if pkgerrors.IsType(err, pkgerrors.ErrorTypeInvalidRequest) {
			h.errors.Handle(w, r, err)
			return
		}
		h.logger.Error("Failed to invalidate cache", zap.String("type", string(typ)), zap.Error(err))
		h.errors.HandleStatus(w, r, http.StatusInternalServerError, "Failed to invalidate cache")
		return
	}

	pkgcommon.RespondJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: fmt.Sprintf("Cache %s invalidated", typ),
	})
}
