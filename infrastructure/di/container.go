package di

import (
	"go.uber.org/zap"

	"itravel/application/services"
	"itravel/infrastructure/cache/memory"
	redisstore "itravel/infrastructure/cache/redis"
	"itravel/infrastructure/config"
	"itravel/infrastructure/gateway"
	"itravel/interfaces/http/rest"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

// Container holds the dependencies of the cache gateway
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Collector
	RedisStore   *redisstore.Store
	Gateway      *services.GatewayService
	ErrorHandler *pkgerrors.ErrorHandler
	Router       *rest.Router
}

// ClientContainer holds the dependencies of a client-tier process
type ClientContainer struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *observability.Collector
	Store         *memory.Store
	GatewayClient *gateway.Client
	Repository    *services.CachedRepository
}
