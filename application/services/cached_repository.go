package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"itravel/application/ports"
	"itravel/domain/cachekey"
	"itravel/domain/travel"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

// DefaultSearchLimit caps the number of travels a search returns
const DefaultSearchLimit = 50

// Source tells where a result came from
type Source string

const (
	SourceCache   Source = "cache"
	SourceBackend Source = "backend"
	SourceGateway Source = "gateway"
	SourceStale   Source = "stale"
)

// Result carries a value with its provenance. Stale is set when the
// backend failed and a previously cached value was served instead.
type Result[T any] struct {
	Value     T
	Source    Source
	Stale     bool
	FetchedAt time.Time
}

// ReadOptions tune a single read
type ReadOptions struct {
	// ForceRefresh skips the cache lookup but still writes the fresh value
	ForceRefresh bool
	// BypassCache neither reads nor writes the cache
	BypassCache bool
}

// ReadOption configures ReadOptions
type ReadOption func(*ReadOptions)

// WithForceRefresh skips the cache lookup
func WithForceRefresh() ReadOption {
	return func(o *ReadOptions) { o.ForceRefresh = true }
}

// WithoutCache disables caching for the read
func WithoutCache() ReadOption {
	return func(o *ReadOptions) { o.BypassCache = true }
}

func buildReadOptions(opts []ReadOption) ReadOptions {
	var o ReadOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CachedRepository serves backend reads through the client-tier store.
// Concurrent misses on one key are not coalesced; each reaches the backend.
type CachedRepository struct {
	store       ports.KeyValueStore
	backend     ports.TravelBackend
	secondary   ports.SecondaryTier
	invalidator *Invalidator
	logger      *zap.Logger
	metrics     *observability.Collector
	now         func() time.Time
	searchLimit int

	pending sync.WaitGroup
}

// RepositoryOption customizes a CachedRepository
type RepositoryOption func(*CachedRepository)

// WithSecondaryTier consults a remote cache for the global travel list
func WithSecondaryTier(tier ports.SecondaryTier) RepositoryOption {
	return func(r *CachedRepository) { r.secondary = tier }
}

// WithRepositoryMetrics records hits, misses and backend latency
func WithRepositoryMetrics(c *observability.Collector) RepositoryOption {
	return func(r *CachedRepository) { r.metrics = c }
}

// WithSearchLimit overrides DefaultSearchLimit
func WithSearchLimit(limit int) RepositoryOption {
	return func(r *CachedRepository) {
		if limit > 0 {
			r.searchLimit = limit
		}
	}
}

// WithRepositoryClock replaces time.Now
func WithRepositoryClock(now func() time.Time) RepositoryOption {
	return func(r *CachedRepository) { r.now = now }
}

// NewCachedRepository creates a read-through repository
func NewCachedRepository(store ports.KeyValueStore, backend ports.TravelBackend, logger *zap.Logger, opts ...RepositoryOption) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &CachedRepository{
		store:       store,
		backend:     backend,
		logger:      logger,
		now:         time.Now,
		searchLimit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.invalidator = NewInvalidator(store, r.secondary, logger)

	return r
}

// Invalidator exposes the invalidation table bound to the same store
func (r *CachedRepository) Invalidator() *Invalidator {
	return r.invalidator
}

// Wait blocks until background pushes to the secondary tier have finished
func (r *CachedRepository) Wait() {
	r.pending.Wait()
}

// ListTravels returns every travel, newest first
func (r *CachedRepository) ListTravels(ctx context.Context, opts ...ReadOption) (Result[[]travel.Travel], error) {
	o := buildReadOptions(opts)
	return readThrough[[]travel.Travel](ctx, r, "list_travels", cachekey.AllTravels(), cachekey.KindTravelsList, o,
		func(ctx context.Context) ([]travel.Travel, Source, error) {
			return r.fetchAllTravels(ctx, o)
		})
}

// ListUserTravels returns the travels of one user, newest first
func (r *CachedRepository) ListUserTravels(ctx context.Context, userID string, opts ...ReadOption) (Result[[]travel.Travel], error) {
	return readThrough(ctx, r, "list_user_travels", cachekey.UserTravels(userID), cachekey.KindUserTravels, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) ([]travel.Travel, error) {
			return r.backend.FetchTravelsByUser(ctx, userID)
		}))
}

// GetTravel returns a single travel
func (r *CachedRepository) GetTravel(ctx context.Context, travelID int64, opts ...ReadOption) (Result[*travel.Travel], error) {
	return readThrough(ctx, r, "get_travel", cachekey.Travel(travelID), cachekey.KindTravel, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) (*travel.Travel, error) {
			return r.backend.FetchTravelByID(ctx, travelID)
		}))
}

// ListPages returns the pages of a travel, oldest first
func (r *CachedRepository) ListPages(ctx context.Context, travelID int64, opts ...ReadOption) (Result[[]travel.Page], error) {
	return readThrough(ctx, r, "list_pages", cachekey.Pages(travelID), cachekey.KindPagesList, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) ([]travel.Page, error) {
			return r.backend.FetchPagesByTravel(ctx, travelID)
		}))
}

// GetPage returns a single page
func (r *CachedRepository) GetPage(ctx context.Context, pageID int64, opts ...ReadOption) (Result[*travel.Page], error) {
	return readThrough(ctx, r, "get_page", cachekey.Page(pageID), cachekey.KindPage, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) (*travel.Page, error) {
			return r.backend.FetchPageByID(ctx, pageID)
		}))
}

// ListImages returns the images of a page
func (r *CachedRepository) ListImages(ctx context.Context, pageID int64, opts ...ReadOption) (Result[[]travel.Image], error) {
	return readThrough(ctx, r, "list_images", cachekey.Images(pageID), cachekey.KindImages, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) ([]travel.Image, error) {
			return r.backend.FetchImagesByPage(ctx, pageID)
		}))
}

// GetProfile returns a user profile
func (r *CachedRepository) GetProfile(ctx context.Context, userID string, opts ...ReadOption) (Result[*travel.Profile], error) {
	return readThrough(ctx, r, "get_profile", cachekey.Profile(userID), cachekey.KindProfile, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) (*travel.Profile, error) {
			return r.backend.FetchProfile(ctx, userID)
		}))
}

// SearchTravels returns travels matching query ranked by relevance.
// A blank query returns the full list.
func (r *CachedRepository) SearchTravels(ctx context.Context, query string, opts ...ReadOption) (Result[[]travel.Travel], error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return r.ListTravels(ctx, opts...)
	}

	return readThrough(ctx, r, "search_travels", cachekey.Search(trimmed), cachekey.KindSearchResults, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) ([]travel.Travel, error) {
			results, err := r.backend.FetchSearchResults(ctx, trimmed, r.searchLimit)
			if err != nil {
				return nil, err
			}
			return travel.Rank(results, trimmed), nil
		}))
}

// GetPageNavigation returns the position of a page within its travel
func (r *CachedRepository) GetPageNavigation(ctx context.Context, pageID, travelID int64, opts ...ReadOption) (Result[*travel.PageNavigation], error) {
	return readThrough(ctx, r, "get_page_navigation", cachekey.Navigation(pageID, travelID), cachekey.KindPageNavigation, buildReadOptions(opts),
		fromBackend(func(ctx context.Context) (*travel.PageNavigation, error) {
			return r.backend.FetchPageNavigation(ctx, pageID, travelID)
		}))
}

// fetchAllTravels asks the secondary tier first, then the backend. A list
// fetched from the backend is pushed to the secondary tier in the background.
// ForceRefresh skips the secondary read but still pushes the fresh list;
// BypassCache touches neither.
func (r *CachedRepository) fetchAllTravels(ctx context.Context, opts ReadOptions) ([]travel.Travel, Source, error) {
	useSecondary := r.secondary != nil && !opts.BypassCache

	if useSecondary && !opts.ForceRefresh {
		raw, ok, err := r.secondary.FetchAllTravels(ctx)
		switch {
		case err != nil:
			r.logger.Warn("Secondary cache unavailable, falling back to backend", zap.Error(err))
		case ok:
			var travels []travel.Travel
			if err := json.Unmarshal(raw, &travels); err == nil {
				return travels, SourceGateway, nil
			}
			r.logger.Warn("Discarding undecodable secondary cache payload")
		}
	}

	travels, err := r.backend.FetchAllTravels(ctx)
	if err != nil {
		return nil, SourceBackend, err
	}

	if useSecondary {
		r.pushAllTravels(ctx, travels)
	}
	return travels, SourceBackend, nil
}

func (r *CachedRepository) pushAllTravels(ctx context.Context, travels []travel.Travel) {
	payload, err := json.Marshal(travels)
	if err != nil {
		r.logger.Warn("Cannot encode travels for secondary cache", zap.Error(err))
		return
	}

	pushCtx := context.WithoutCancel(ctx)
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		if err := r.secondary.StoreAllTravels(pushCtx, payload); err != nil {
			r.logger.Warn("Failed to push travels to secondary cache", zap.Error(err))
		}
	}()
}

type fetchFunc[T any] func(ctx context.Context) (T, Source, error)

func fromBackend[T any](f func(ctx context.Context) (T, error)) fetchFunc[T] {
	return func(ctx context.Context) (T, Source, error) {
		v, err := f(ctx)
		return v, SourceBackend, err
	}
}

// readThrough implements lookup, fetch, populate and stale fallback
func readThrough[T any](ctx context.Context, r *CachedRepository, op, key string, kind cachekey.Kind, opts ReadOptions, fetch fetchFunc[T]) (Result[T], error) {
	ctx, span := observability.StartSpan(ctx, "cache."+op,
		attribute.String("cache.key", key),
		attribute.Bool("cache.force_refresh", opts.ForceRefresh),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	useCache := !opts.BypassCache

	if useCache && !opts.ForceRefresh {
		var cached T
		switch lookupErr := r.lookup(ctx, key, false, &cached); {
		case lookupErr == nil:
			r.metrics.RecordHit(observability.TierClient)
			span.SetAttributes(attribute.String("cache.source", string(SourceCache)))
			return Result[T]{Value: cached, Source: SourceCache, FetchedAt: r.now()}, nil
		case pkgerrors.IsCacheMiss(lookupErr):
		case pkgerrors.IsSerialization(lookupErr):
			r.logger.Warn("Treating undecodable cache entry as a miss", zap.Error(lookupErr))
		default:
			r.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(lookupErr))
		}
		r.metrics.RecordMiss(observability.TierClient)
	}

	value, source, fetchErr := fetch(ctx)

	if fetchErr == nil {
		if useCache {
			r.populate(ctx, key, kind, value)
		}
		span.SetAttributes(attribute.String("cache.source", string(source)))
		return Result[T]{Value: value, Source: source, FetchedAt: r.now()}, nil
	}

	r.logger.Error("Backend fetch failed",
		zap.String("operation", op),
		zap.String("key", key),
		zap.Error(fetchErr),
	)

	if useCache {
		var stale T
		if r.lookup(ctx, key, true, &stale) == nil {
			r.metrics.RecordStale()
			span.SetAttributes(attribute.String("cache.source", string(SourceStale)))
			return Result[T]{Value: stale, Source: SourceStale, Stale: true, FetchedAt: r.now()}, nil
		}
	}

	if pkgerrors.GetAppError(fetchErr) == nil {
		fetchErr = pkgerrors.NewBackendFetchError(op, fetchErr)
	}
	err = fetchErr
	var zero Result[T]
	return zero, err
}

// lookup decodes the entry under key into dst without removing it. Expired
// entries count only when allowExpired is set. An absent entry yields
// ErrCacheMiss and an undecodable one a serialization error.
func (r *CachedRepository) lookup(ctx context.Context, key string, allowExpired bool, dst any) error {
	entry, ok, err := r.store.Lookup(ctx, key)
	if err != nil {
		return err
	}
	if !ok || (entry.Expired && !allowExpired) {
		return fmt.Errorf("lookup %s: %w", key, pkgerrors.ErrCacheMiss)
	}
	if err := json.Unmarshal(entry.Value, dst); err != nil {
		return pkgerrors.NewSerializationError(key, err)
	}
	return nil
}

// populate writes value under key. Failures are logged and never surface.
func (r *CachedRepository) populate(ctx context.Context, key string, kind cachekey.Kind, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Skipping cache write",
			zap.Error(pkgerrors.NewSerializationError(key, err)))
		return
	}

	if err := r.store.Set(ctx, key, data, cachekey.TTLFor(kind).Duration()); err != nil {
		r.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
