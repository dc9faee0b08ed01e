package handlers

// This file contains OpenAPI/Swagger documentation for TravelHandler endpoints

// GetTravels reads the cached global travel list
// @Summary Read cached travels
// @Description Returns the cached global travel list. Never reads the data backend.
// @Tags travels
// @Produce json
// @Success 200 {object} handlers.TravelsResponse "Cached list"
// @Success 202 {object} handlers.CacheMissResponse "Cache miss"
// @Failure 429 {object} errors.ErrorResponse "Rate limited"
// @Failure 500 {object} errors.ErrorResponse "Store failure"
// @Router /travels [get]

// CacheTravels stores the global travel list
// @Summary Cache travels
// @Description Stores the global travel list under the travels TTL.
// @Tags travels
// @Accept json
// @Produce json
// @Param request body handlers.CacheTravelsRequest true "Travel list"
// @Success 200 {object} handlers.CacheTravelsResponse "Stored"
// @Failure 400 {object} errors.ErrorResponse "Missing or malformed travels"
// @Failure 413 {object} errors.ErrorResponse "Body too large"
// @Failure 500 {object} errors.ErrorResponse "Store failure"
// @Router /travels/cache [post]
