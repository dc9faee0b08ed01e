package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"itravel/application/services"
	pkgcommon "itravel/pkg/common"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/utils"
)

// TravelHandler serves the server-tier copy of the global travel list
type TravelHandler struct {
	gateway      *services.GatewayService
	errors       *pkgerrors.ErrorHandler
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewTravelHandler creates a new travel handler
func NewTravelHandler(
	gateway *services.GatewayService,
	errorHandler *pkgerrors.ErrorHandler,
	maxBodyBytes int64,
	logger *zap.Logger,
) *TravelHandler {
	return &TravelHandler{
		gateway:      gateway,
		errors:       errorHandler,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// CacheTravelsRequest is the body of POST /api/travels/cache
type CacheTravelsRequest struct {
	Travels []json.RawMessage `json:"travels" validate:"required"`
}

// TravelsResponse is returned on a cache hit
type TravelsResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Cached    bool            `json:"cached"`
	Timestamp string          `json:"timestamp"`
}

// CacheMissResponse tells the caller to read the data backend itself
type CacheMissResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cached  bool   `json:"cached"`
}

// CacheTravelsResponse acknowledges a stored list
type CacheTravelsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
	TTL     int    `json:"ttl"`
}

// GetTravels handles GET /api/travels. It never reads the data backend.
func (h *TravelHandler) GetTravels(w http.ResponseWriter, r *http.Request) {
	data, ok, err := h.gateway.CachedTravels(r.Context())
	if err != nil {
		h.logger.Error("Failed to read travels cache", zap.Error(err))
		h.errors.HandleStatus(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !ok {
		h.logger.Debug("Travels cache miss")
		pkgcommon.RespondJSON(w, http.StatusAccepted, CacheMissResponse{
			Success: false,
			Message: "Cache miss - fetch from database required",
			Cached:  false,
		})
		return
	}

	pkgcommon.RespondJSON(w, http.StatusOK, TravelsResponse{
		Success:   true,
		Data:      data,
		Cached:    true,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// CacheTravels handles POST /api/travels/cache
func (h *TravelHandler) CacheTravels(w http.ResponseWriter, r *http.Request) {
	var req CacheTravelsRequest
	if err := pkgcommon.ParseJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		if errors.Is(err, pkgcommon.ErrBodyTooLarge) {
			h.errors.HandleStatus(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.errors.Handle(w, r, pkgerrors.NewInvalidRequestError("Invalid travels data"))
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInvalidRequestError("Invalid travels data").
			WithDetails(map[string]interface{}{"validation": err.Error()}))
		return
	}

	count, ttl, err := h.gateway.CacheTravels(r.Context(), req.Travels)
	if err != nil {
		h.logger.Error("Failed to store travels cache", zap.Error(err))
		h.errors.HandleStatus(w, r, http.StatusInternalServerError, "Failed to save cache")
		return
	}

	pkgcommon.RespondJSON(w, http.StatusOK, CacheTravelsResponse{
		Success: true,
		Message: "Travels cached",
		Count:   count,
		TTL:     int(ttl / time.Second),
	})
}
