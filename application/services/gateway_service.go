package services

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itravel/application/ports"
	"itravel/domain/cachekey"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

// GatewayTTLs are the server-tier lifetimes applied at write time
type GatewayTTLs struct {
	AllTravels time.Duration `yaml:"all_travels"`
	Search     time.Duration `yaml:"search"`
	User       time.Duration `yaml:"user"`
}

// DefaultGatewayTTLs returns 300s, 180s and 600s
func DefaultGatewayTTLs() GatewayTTLs {
	return GatewayTTLs{
		AllTravels: cachekey.ServerTTLAllTravels,
		Search:     cachekey.ServerTTLSearch,
		User:       cachekey.ServerTTLUser,
	}
}

// GatewayStats summarizes the server tier
type GatewayStats struct {
	AllTravels    bool   `json:"allTravels"`
	SearchQueries int    `json:"searchQueries"`
	UserCaches    int    `json:"userCaches"`
	TotalKeys     int    `json:"totalKeys"`
	RedisInfo     string `json:"redisInfo"`
}

// GatewayService is the pure cache tier behind the HTTP gateway. It never
// calls the data backend.
type GatewayService struct {
	store  ports.ServerStore
	ttls   atomic.Pointer[GatewayTTLs]
	logger *zap.Logger
}

// NewGatewayService creates a service using ttls for future writes
func NewGatewayService(store ports.ServerStore, ttls GatewayTTLs, logger *zap.Logger) *GatewayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GatewayService{store: store, logger: logger}
	s.SetTTLs(ttls)
	return s
}

// SetTTLs replaces the lifetimes used by later writes. Entries already
// stored keep the TTL they were written with.
func (s *GatewayService) SetTTLs(ttls GatewayTTLs) {
	defaults := DefaultGatewayTTLs()
	if ttls.AllTravels <= 0 {
		ttls.AllTravels = defaults.AllTravels
	}
	if ttls.Search <= 0 {
		ttls.Search = defaults.Search
	}
	if ttls.User <= 0 {
		ttls.User = defaults.User
	}
	s.ttls.Store(&ttls)
}

// TTLs returns the lifetimes currently in force
func (s *GatewayService) TTLs() GatewayTTLs {
	return *s.ttls.Load()
}

// CachedTravels returns the stored travel list, or false on a miss.
// A corrupt payload counts as a miss.
func (s *GatewayService) CachedTravels(ctx context.Context) (json.RawMessage, bool, error) {
	ctx, span := observability.StartSpan(ctx, "gateway.cached_travels")
	value, ok, err := s.store.Get(ctx, cachekey.ServerAllTravels)
	observability.EndSpan(span, err)
	if err != nil || !ok {
		return nil, false, err
	}

	if !json.Valid(value) {
		s.logger.Warn("Ignoring corrupt cached travels",
			zap.Error(pkgerrors.NewSerializationError(cachekey.ServerAllTravels, nil)))
		return nil, false, nil
	}
	return json.RawMessage(value), true, nil
}

// CacheTravels stores the list and returns its length and TTL
func (s *GatewayService) CacheTravels(ctx context.Context, travels []json.RawMessage) (int, time.Duration, error) {
	if travels == nil {
		travels = []json.RawMessage{}
	}

	payload, err := json.Marshal(travels)
	if err != nil {
		return 0, 0, pkgerrors.NewSerializationError(cachekey.ServerAllTravels, err)
	}

	ttl := s.TTLs().AllTravels
	ctx, span := observability.StartSpan(ctx, "gateway.cache_travels",
		attribute.Int("travels.count", len(travels)))
	err = s.store.SetEX(ctx, cachekey.ServerAllTravels, payload, ttl)
	observability.EndSpan(span, err)
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("Cached travels",
		zap.Int("count", len(travels)),
		zap.Duration("ttl", ttl),
	)
	return len(travels), ttl, nil
}

// Stats gathers key counts and memory usage. The reads run concurrently and
// are not a consistent snapshot.
func (s *GatewayService) Stats(ctx context.Context) (GatewayStats, error) {
	ctx, span := observability.StartSpan(ctx, "gateway.stats")
	var stats GatewayStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		exists, err := s.store.Exists(gctx, cachekey.ServerAllTravels)
		stats.AllTravels = exists
		return err
	})
	g.Go(func() error {
		keys, err := s.store.Keys(gctx, cachekey.ServerSearchPattern)
		stats.SearchQueries = len(keys)
		return err
	})
	g.Go(func() error {
		keys, err := s.store.Keys(gctx, cachekey.ServerUserPattern)
		stats.UserCaches = len(keys)
		return err
	})
	g.Go(func() error {
		keys, err := s.store.Keys(gctx, cachekey.ServerAllPattern)
		stats.TotalKeys = len(keys)
		return err
	})
	g.Go(func() error {
		info, err := s.store.MemoryInfo(gctx)
		stats.RedisInfo = info
		return err
	})

	err := g.Wait()
	observability.EndSpan(span, err)
	if err != nil {
		return GatewayStats{}, err
	}
	return stats, nil
}

// Invalidate drops the literal all-travels key or every key of a family
func (s *GatewayService) Invalidate(ctx context.Context, typ cachekey.InvalidationType) (int64, error) {
	ctx, span := observability.StartSpan(ctx, "gateway.invalidate",
		attribute.String("cache.type", string(typ)))
	deleted, err := s.invalidate(ctx, typ)
	observability.EndSpan(span, err)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Invalidated server cache",
		zap.String("type", string(typ)),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

func (s *GatewayService) invalidate(ctx context.Context, typ cachekey.InvalidationType) (int64, error) {
	var pattern string
	switch typ {
	case cachekey.InvalidateAll:
		return s.store.Delete(ctx, cachekey.ServerAllTravels)
	case cachekey.InvalidateSearch:
		pattern = cachekey.ServerSearchPattern
	case cachekey.InvalidateUsers:
		pattern = cachekey.ServerUserPattern
	default:
		return 0, pkgerrors.NewInvalidRequestError("Invalid cache type")
	}

	keys, err := s.store.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.store.Delete(ctx, keys...)
}

// Ping reports whether the store is reachable
func (s *GatewayService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
