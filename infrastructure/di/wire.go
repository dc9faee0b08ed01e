//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"itravel/application/ports"
	redisstore "itravel/infrastructure/cache/redis"
	"itravel/infrastructure/config"
)

// GatewaySet provides the cache gateway
var GatewaySet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideRedisStore,
	wire.Bind(new(ports.ServerStore), new(*redisstore.Store)),
	ProvideGatewayTTLs,
	ProvideGatewayService,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// ClientSet provides a client-tier process
var ClientSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideMemoryStore,
	ProvideTravelBackend,
	ProvideGatewayClient,
	ProvideCachedRepository,
	wire.Struct(new(ClientContainer), "*"),
)

// InitializeContainer creates a fully wired gateway container
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(GatewaySet)
	return nil, nil, nil // Wire will replace this
}

// InitializeClientContainer creates a fully wired client-tier container
func InitializeClientContainer(cfg *config.Config) (*ClientContainer, func(), error) {
	wire.Build(ClientSet)
	return nil, nil, nil // Wire will replace this
}
