package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"itravel/application/services"
	"itravel/interfaces/http/rest/handlers"
	"itravel/interfaces/http/rest/middleware"
	pkgcommon "itravel/pkg/common"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

// readyTimeout bounds the store ping of the readiness probe
const readyTimeout = 2 * time.Second

// Options configure the gateway router
type Options struct {
	FrontendURL  string
	MaxBodyBytes int64

	RateLimitRPS   float64
	RateLimitBurst int

	EnableMetrics bool
}

// Router creates and configures the HTTP router
type Router struct {
	gateway      *services.GatewayService
	errorHandler *pkgerrors.ErrorHandler
	metrics      *observability.Collector
	options      Options
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	gateway *services.GatewayService,
	errorHandler *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	options Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		gateway:      gateway,
		errorHandler: errorHandler,
		metrics:      metrics,
		options:      options,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger, rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{rt.options.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.options.EnableMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}
	router.Get("/swagger/doc.json", handlers.NewDocsHandler(rt.errorHandler, rt.logger).GetDoc)

	limiter := middleware.NewRateLimiter(rt.options.RateLimitRPS, rt.options.RateLimitBurst)

	router.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware(rt.errorHandler))

		r.Route("/travels", func(r chi.Router) {
			travelHandler := handlers.NewTravelHandler(rt.gateway, rt.errorHandler, rt.options.MaxBodyBytes, rt.logger)
			r.Get("/", travelHandler.GetTravels)
			r.Post("/cache", travelHandler.CacheTravels)
		})

		r.Route("/cache", func(r chi.Router) {
			cacheHandler := handlers.NewCacheHandler(rt.gateway, rt.errorHandler, rt.logger)
			r.Get("/stats", cacheHandler.GetStats)
			r.Delete("/{type}", cacheHandler.DeleteCache)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.Handle(w, r, pkgerrors.NewNotFoundError("route"))
	})

	return router
}

// healthCheck handles liveness requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	pkgcommon.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready only while the server store answers
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
	defer cancel()

	if err := rt.gateway.Ping(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		pkgcommon.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "cache store unavailable",
		})
		return
	}
	pkgcommon.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
