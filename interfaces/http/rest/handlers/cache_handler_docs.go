package handlers

// This file contains OpenAPI/Swagger documentation for CacheHandler endpoints

// GetStats counts the keys held by the server tier
// @Summary Server cache statistics
// @Description Counts the keys held by the server tier.
// @Tags cache
// @Produce json
// @Success 200 {object} handlers.StatsResponse "Statistics"
// @Failure 500 {object} errors.ErrorResponse "Store failure"
// @Router /cache/stats [get]

// DeleteCache drops one server cache family
// @Summary Invalidate a server cache family
// @Description Drops the all-travels key or every search or user key.
// @Tags cache
// @Produce json
// @Param type path string true "Cache family" Enums(all, search, users)
// @Success 200 {object} handlers.MessageResponse "Invalidated"
// @Failure 400 {object} errors.ErrorResponse "Unknown cache type"
// @Failure 500 {object} errors.ErrorResponse "Store failure"
// @Router /cache/{type} [delete]
