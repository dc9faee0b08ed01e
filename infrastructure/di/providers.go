package di

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"itravel/application/ports"
	"itravel/application/services"
	"itravel/infrastructure/cache/memory"
	redisstore "itravel/infrastructure/cache/redis"
	"itravel/infrastructure/config"
	"itravel/infrastructure/gateway"
	"itravel/infrastructure/persistence/supabase"
	"itravel/interfaces/http/rest"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

// metricsNamespace prefixes every exported metric
const metricsNamespace = "itravel"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideRedisStore creates the server-tier store. The cleanup closes the
// connection pool.
func ProvideRedisStore(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (*redisstore.Store, func()) {
	store := redisstore.NewStore(redisstore.Config{
		Host:           cfg.Redis.Host,
		Port:           cfg.Redis.Port,
		Password:       cfg.Redis.Password,
		DB:             cfg.Redis.DB,
		DialTimeout:    cfg.Redis.DialTimeout,
		CommandTimeout: cfg.Redis.CommandTimeout,
		MaxRetries:     cfg.Redis.MaxRetries,
	}, logger, metrics)

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	return store, cleanup
}

// ProvideGatewayTTLs maps configured TTLs onto the gateway policy
func ProvideGatewayTTLs(cfg *config.Config) services.GatewayTTLs {
	return services.GatewayTTLs{
		AllTravels: cfg.Cache.AllTravelsTTL,
		Search:     cfg.Cache.SearchTTL,
		User:       cfg.Cache.UserTTL,
	}
}

// ProvideGatewayService creates the server-tier cache service
func ProvideGatewayService(store ports.ServerStore, ttls services.GatewayTTLs, logger *zap.Logger) *services.GatewayService {
	return services.NewGatewayService(store, ttls, logger)
}

// ProvideErrorHandler creates the HTTP error handler. Causes are only
// exposed outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the gateway router
func ProvideRouter(
	cfg *config.Config,
	gatewayService *services.GatewayService,
	errorHandler *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(gatewayService, errorHandler, metrics, rest.Options{
		FrontendURL:    cfg.FrontendURL,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
		EnableMetrics:  cfg.EnableMetrics,
	}, logger)
}

// ProvideMemoryStore creates the client-tier store. The cleanup stops its sweeper.
func ProvideMemoryStore(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (*memory.Store, func()) {
	storeCfg := memory.DefaultConfig()
	if cfg.Cache.ClientMaxEntries > 0 {
		storeCfg.MaxEntries = cfg.Cache.ClientMaxEntries
	}
	if cfg.Cache.ClientSweepInterval > 0 {
		storeCfg.SweepInterval = cfg.Cache.ClientSweepInterval
	}

	store := memory.NewStore(storeCfg, logger, memory.WithMetrics(metrics))
	return store, func() { _ = store.Close() }
}

// ProvideTravelBackend connects to Supabase
func ProvideTravelBackend(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (ports.TravelBackend, error) {
	if err := cfg.ValidateBackend(); err != nil {
		return nil, err
	}
	return supabase.NewFromConfig(cfg.Supabase.URL, cfg.Supabase.Key, logger, metrics)
}

// ProvideGatewayClient creates the HTTP client of the cache gateway
func ProvideGatewayClient(cfg *config.Config, logger *zap.Logger) *gateway.Client {
	clientCfg := gateway.DefaultConfig(cfg.Gateway.URL)
	if cfg.Gateway.Timeout > 0 {
		clientCfg.Timeout = cfg.Gateway.Timeout
	}
	return gateway.NewClient(clientCfg, nil, logger)
}

// ProvideCachedRepository builds the client-tier read-through repository
// with the gateway as its secondary tier
func ProvideCachedRepository(
	cfg *config.Config,
	store *memory.Store,
	backend ports.TravelBackend,
	gatewayClient *gateway.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.CachedRepository {
	return services.NewCachedRepository(store, backend, logger,
		services.WithSecondaryTier(gatewayClient),
		services.WithRepositoryMetrics(metrics),
		services.WithSearchLimit(cfg.Cache.SearchLimit),
	)
}
