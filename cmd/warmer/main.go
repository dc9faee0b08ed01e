// Command warmer reads the global travel list through the client tier so
// that a cold gateway is repopulated from the data backend.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"itravel/application/services"
	"itravel/domain/cachekey"
	"itravel/infrastructure/config"
	"itravel/infrastructure/di"
)

func main() {
	invalidate := flag.String("invalidate", "", "gateway cache type to invalidate first (all, search, users)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeClientContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	code := run(ctx, container, *invalidate)
	cancel()
	cleanup()
	_ = logger.Sync()
	os.Exit(code)
}

func run(ctx context.Context, container *di.ClientContainer, invalidate string) int {
	logger := container.Logger

	if invalidate != "" {
		typ, ok := cachekey.ParseInvalidationType(invalidate)
		if !ok {
			logger.Error("Unknown cache type", zap.String("type", invalidate))
			return 2
		}
		if err := container.GatewayClient.Invalidate(ctx, typ); err != nil {
			logger.Error("Gateway invalidation failed", zap.Error(err))
			return 1
		}
		logger.Info("Gateway cache invalidated", zap.String("type", invalidate))
	}

	result, err := container.Repository.ListTravels(ctx, services.WithForceRefresh())
	if err != nil {
		logger.Error("Failed to read travels", zap.Error(err))
		return 1
	}

	// Wait for the asynchronous gateway push to finish before exiting
	container.Repository.Wait()

	stats, err := container.GatewayClient.Stats(ctx)
	if err != nil {
		logger.Warn("Gateway statistics unavailable", zap.Error(err))
	}

	logger.Info("Travels warmed",
		zap.Int("count", len(result.Value)),
		zap.String("source", string(result.Source)),
		zap.Bool("stale", result.Stale),
		zap.Bool("gateway_populated", stats.AllTravels),
	)
	return 0
}
