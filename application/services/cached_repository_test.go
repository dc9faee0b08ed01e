package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"itravel/domain/cachekey"
	"itravel/domain/travel"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

func TestCachedRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()

	t.Run("Should serve the second read from cache", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		pages := []travel.Page{{ID: 1, TravelID: 7, Title: "Day 1"}, {ID: 2, TravelID: 7, Title: "Day 2"}}
		f.backend.On("FetchPagesByTravel", mock.Anything, int64(7)).Return(pages, nil).Once()

		// Act
		first, err := f.repo.ListPages(ctx, 7)
		require.NoError(t, err)
		f.clock.Advance(4 * time.Minute)
		second, err := f.repo.ListPages(ctx, 7)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, SourceBackend, first.Source)
		assert.Equal(t, SourceCache, second.Source)
		assert.Equal(t, pages, second.Value)
		f.backend.AssertNumberOfCalls(t, "FetchPagesByTravel", 1)
	})

	t.Run("Should refetch once the TTL class has elapsed", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchTravelByID", mock.Anything, int64(3)).Return(&travel.Travel{ID: 3, Title: "Lisbon"}, nil)

		_, err := f.repo.GetTravel(ctx, 3)
		require.NoError(t, err)
		f.clock.Advance(cachekey.TTLLong.Duration())
		result, err := f.repo.GetTravel(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, SourceBackend, result.Source)
		f.backend.AssertNumberOfCalls(t, "FetchTravelByID", 2)
	})

	t.Run("Should skip the lookup on force refresh and store the fresh value", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchProfile", mock.Anything, "u1").Return(&travel.Profile{ID: "u1", Username: "old"}, nil).Once()
		f.backend.On("FetchProfile", mock.Anything, "u1").Return(&travel.Profile{ID: "u1", Username: "new"}, nil).Once()

		_, err := f.repo.GetProfile(ctx, "u1")
		require.NoError(t, err)
		refreshed, err := f.repo.GetProfile(ctx, "u1", WithForceRefresh())
		require.NoError(t, err)
		cached, err := f.repo.GetProfile(ctx, "u1")

		require.NoError(t, err)
		assert.Equal(t, "new", refreshed.Value.Username)
		assert.Equal(t, SourceCache, cached.Source)
		assert.Equal(t, "new", cached.Value.Username)
		f.backend.AssertNumberOfCalls(t, "FetchProfile", 2)
	})

	t.Run("Should leave the cache untouched when caching is disabled", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchImagesByPage", mock.Anything, int64(9)).Return([]travel.Image{{ID: 1, PageID: 9}}, nil)

		_, err := f.repo.ListImages(ctx, 9, WithoutCache())
		require.NoError(t, err)

		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("Should isolate callers from cached values", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchPageByID", mock.Anything, int64(4)).Return(&travel.Page{ID: 4, Title: "Beach"}, nil).Once()

		first, err := f.repo.GetPage(ctx, 4)
		require.NoError(t, err)
		first.Value.Title = "mutated"
		second, err := f.repo.GetPage(ctx, 4)

		require.NoError(t, err)
		assert.Equal(t, "Beach", second.Value.Title)
	})
}

func TestCachedRepository_Fallback(t *testing.T) {
	ctx := context.Background()
	backendDown := errors.New("backend unreachable")

	t.Run("Should serve a stale entry when the backend fails", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		travels := []travel.Travel{{ID: 1, Title: "Oslo"}}
		f.backend.On("FetchTravelsByUser", mock.Anything, "u1").Return(travels, nil).Once()
		f.backend.On("FetchTravelsByUser", mock.Anything, "u1").Return(nil, backendDown).Once()

		_, err := f.repo.ListUserTravels(ctx, "u1")
		require.NoError(t, err)
		f.clock.Advance(cachekey.TTLMedium.Duration() + time.Second)

		// Act
		result, err := f.repo.ListUserTravels(ctx, "u1")

		// Assert
		require.NoError(t, err)
		assert.True(t, result.Stale)
		assert.Equal(t, SourceStale, result.Source)
		assert.Equal(t, travels, result.Value)
	})

	t.Run("Should serve the cached entry when a forced refresh fails", func(t *testing.T) {
		f := newFixture(t)
		nav := &travel.PageNavigation{CurrentIndex: 2, TotalPages: 3}
		f.backend.On("FetchPageNavigation", mock.Anything, int64(2), int64(7)).Return(nav, nil).Once()
		f.backend.On("FetchPageNavigation", mock.Anything, int64(2), int64(7)).Return(nil, backendDown).Once()

		_, err := f.repo.GetPageNavigation(ctx, 2, 7)
		require.NoError(t, err)
		result, err := f.repo.GetPageNavigation(ctx, 2, 7, WithForceRefresh())

		require.NoError(t, err)
		assert.True(t, result.Stale)
		assert.Equal(t, 2, result.Value.CurrentIndex)
	})

	t.Run("Should propagate the error when nothing is cached", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchAllTravels", mock.Anything).Return(nil, backendDown)

		_, err := f.repo.ListTravels(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, backendDown)
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeBackendFetch))
	})

	t.Run("Should keep typed backend errors", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchTravelByID", mock.Anything, int64(404)).Return(nil, pkgerrors.NewNotFoundError("travel"))

		_, err := f.repo.GetTravel(ctx, 404)

		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("Should not fall back when caching is disabled", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchPagesByTravel", mock.Anything, int64(1)).Return([]travel.Page{{ID: 1}}, nil).Once()
		f.backend.On("FetchPagesByTravel", mock.Anything, int64(1)).Return(nil, backendDown).Once()

		_, err := f.repo.ListPages(ctx, 1)
		require.NoError(t, err)
		_, err = f.repo.ListPages(ctx, 1, WithoutCache())

		assert.Error(t, err)
	})

	t.Run("Should treat an undecodable entry as a miss", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, cachekey.Travel(5), []byte("not json"), time.Minute))
		f.backend.On("FetchTravelByID", mock.Anything, int64(5)).Return(&travel.Travel{ID: 5}, nil)

		result, err := f.repo.GetTravel(ctx, 5)

		require.NoError(t, err)
		assert.Equal(t, SourceBackend, result.Source)
	})
}

func TestCachedRepository_WriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	store := &rejectingStore{KeyValueStore: f.store}
	repo := NewCachedRepository(store, f.backend, nil)
	f.backend.On("FetchTravelByID", mock.Anything, int64(1)).Return(&travel.Travel{ID: 1, Title: "Kyoto"}, nil)

	result, err := repo.GetTravel(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, "Kyoto", result.Value.Title)
}

func TestCachedRepository_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("Should cache ranked results under the normalized query", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		unranked := []travel.Travel{
			{ID: 1, Title: "Italy", Description: "rome"},
			{ID: 2, Title: "Rome weekend"},
			{ID: 3, Title: "Italy", Place: "Rome"},
		}
		f.backend.On("FetchSearchResults", mock.Anything, "Rome", DefaultSearchLimit).Return(unranked, nil).Once()

		// Act
		first, err := f.repo.SearchTravels(ctx, "Rome ")
		require.NoError(t, err)
		second, err := f.repo.SearchTravels(ctx, " ROME")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 1}, travelIDs(first.Value))
		assert.Equal(t, SourceCache, second.Source)
		assert.Equal(t, []int64{2, 3, 1}, travelIDs(second.Value))
		f.backend.AssertNumberOfCalls(t, "FetchSearchResults", 1)
	})

	t.Run("Should list every travel for a blank query", func(t *testing.T) {
		f := newFixture(t)
		f.backend.On("FetchAllTravels", mock.Anything).Return([]travel.Travel{{ID: 1}}, nil)

		result, err := f.repo.SearchTravels(ctx, "   ")

		require.NoError(t, err)
		assert.Len(t, result.Value, 1)
		f.backend.AssertNotCalled(t, "FetchSearchResults", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should honour a custom limit", func(t *testing.T) {
		f := newFixture(t, WithSearchLimit(5))
		f.backend.On("FetchSearchResults", mock.Anything, "oslo", 5).Return([]travel.Travel{}, nil)

		_, err := f.repo.SearchTravels(ctx, "oslo")

		require.NoError(t, err)
		f.backend.AssertExpectations(t)
	})
}

func TestCachedRepository_SecondaryTier(t *testing.T) {
	ctx := context.Background()
	travels := []travel.Travel{{ID: 1, Title: "Oslo"}}
	payload, err := json.Marshal(travels)
	require.NoError(t, err)

	t.Run("Should use the gateway on a hit", func(t *testing.T) {
		tier := new(MockSecondaryTier)
		tier.On("FetchAllTravels", mock.Anything).Return(json.RawMessage(payload), true, nil)
		f := newFixture(t, WithSecondaryTier(tier))

		result, err := f.repo.ListTravels(ctx)

		require.NoError(t, err)
		assert.Equal(t, SourceGateway, result.Source)
		assert.Equal(t, travels, result.Value)
		f.backend.AssertNotCalled(t, "FetchAllTravels", mock.Anything)

		cached, err := f.repo.ListTravels(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceCache, cached.Source)
	})

	t.Run("Should fetch from the backend and push on a gateway miss", func(t *testing.T) {
		tier := new(MockSecondaryTier)
		tier.On("FetchAllTravels", mock.Anything).Return(nil, false, nil)
		tier.On("StoreAllTravels", mock.Anything, json.RawMessage(payload)).Return(nil)
		f := newFixture(t, WithSecondaryTier(tier))
		f.backend.On("FetchAllTravels", mock.Anything).Return(travels, nil)

		result, err := f.repo.ListTravels(ctx)
		f.repo.Wait()

		require.NoError(t, err)
		assert.Equal(t, SourceBackend, result.Source)
		tier.AssertExpectations(t)
	})

	t.Run("Should fall back to the backend when the gateway fails", func(t *testing.T) {
		tier := new(MockSecondaryTier)
		tier.On("FetchAllTravels", mock.Anything).Return(nil, false, errors.New("timeout"))
		tier.On("StoreAllTravels", mock.Anything, mock.Anything).Return(errors.New("timeout"))
		f := newFixture(t, WithSecondaryTier(tier))
		f.backend.On("FetchAllTravels", mock.Anything).Return(travels, nil)

		result, err := f.repo.ListTravels(ctx)
		f.repo.Wait()

		require.NoError(t, err)
		assert.Equal(t, travels, result.Value)
	})

	t.Run("Should serve the new list after a travel write and refresh the gateway", func(t *testing.T) {
		// Arrange
		fresh := []travel.Travel{{ID: 2, Title: "Rome"}, {ID: 1, Title: "Oslo"}}
		freshPayload, err := json.Marshal(fresh)
		require.NoError(t, err)

		tier := new(MockSecondaryTier)
		tier.On("FetchAllTravels", mock.Anything).Return(json.RawMessage(payload), true, nil).Once()
		tier.On("Invalidate", mock.Anything, cachekey.InvalidateAll).Return(nil).Once()
		tier.On("Invalidate", mock.Anything, cachekey.InvalidateUsers).Return(nil).Once()
		tier.On("Invalidate", mock.Anything, cachekey.InvalidateSearch).Return(nil).Once()
		tier.On("StoreAllTravels", mock.Anything, json.RawMessage(freshPayload)).Return(nil).Once()
		f := newFixture(t, WithSecondaryTier(tier))
		f.backend.On("FetchAllTravels", mock.Anything).Return(fresh, nil).Once()

		first, err := f.repo.ListTravels(ctx)
		require.NoError(t, err)
		require.Equal(t, SourceGateway, first.Source)

		// Act
		require.NoError(t, f.repo.Invalidator().AfterWrite(ctx, cachekey.KindTravel, Scope{TravelID: 2, UserID: "u1"}))
		result, err := f.repo.ListTravels(ctx, WithForceRefresh())
		f.repo.Wait()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, SourceBackend, result.Source)
		assert.Equal(t, []int64{2, 1}, travelIDs(result.Value))
		tier.AssertExpectations(t)
		f.backend.AssertExpectations(t)
	})

	t.Run("Should skip the gateway read on a forced refresh", func(t *testing.T) {
		tier := new(MockSecondaryTier)
		tier.On("StoreAllTravels", mock.Anything, json.RawMessage(payload)).Return(nil)
		f := newFixture(t, WithSecondaryTier(tier))
		f.backend.On("FetchAllTravels", mock.Anything).Return(travels, nil)

		result, err := f.repo.ListTravels(ctx, WithForceRefresh())
		f.repo.Wait()

		require.NoError(t, err)
		assert.Equal(t, SourceBackend, result.Source)
		tier.AssertNotCalled(t, "FetchAllTravels", mock.Anything)
		tier.AssertExpectations(t)
	})

	t.Run("Should leave the gateway untouched when bypassing the cache", func(t *testing.T) {
		tier := new(MockSecondaryTier)
		f := newFixture(t, WithSecondaryTier(tier))
		f.backend.On("FetchAllTravels", mock.Anything).Return(travels, nil)

		result, err := f.repo.ListTravels(ctx, WithoutCache())
		f.repo.Wait()

		require.NoError(t, err)
		assert.Equal(t, SourceBackend, result.Source)
		tier.AssertNotCalled(t, "FetchAllTravels", mock.Anything)
		tier.AssertNotCalled(t, "StoreAllTravels", mock.Anything, mock.Anything)
	})
}

func TestCachedRepository_Metrics(t *testing.T) {
	ctx := context.Background()
	travels := []travel.Travel{{ID: 1, Title: "Oslo"}}
	payload, err := json.Marshal(travels)
	require.NoError(t, err)

	t.Run("Should not count a gateway hit as a backend fetch", func(t *testing.T) {
		metrics := observability.NewCollector("test")
		tier := new(MockSecondaryTier)
		tier.On("FetchAllTravels", mock.Anything).Return(json.RawMessage(payload), true, nil)
		f := newFixture(t, WithSecondaryTier(tier), WithRepositoryMetrics(metrics))

		_, err := f.repo.ListTravels(ctx)
		require.NoError(t, err)
		_, err = f.repo.ListTravels(ctx)
		require.NoError(t, err)

		assert.Equal(t, 0, testutil.CollectAndCount(metrics.BackendFetches))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(observability.TierClient)))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHits.WithLabelValues(observability.TierClient)))
		f.backend.AssertNotCalled(t, "FetchAllTravels", mock.Anything)
	})

	t.Run("Should leave backend fetch accounting to the backend adapter", func(t *testing.T) {
		metrics := observability.NewCollector("test")
		f := newFixture(t, WithRepositoryMetrics(metrics))
		f.backend.On("FetchTravelByID", mock.Anything, int64(3)).Return(&travel.Travel{ID: 3}, nil)

		_, err := f.repo.GetTravel(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, 0, testutil.CollectAndCount(metrics.BackendFetches))
	})
}

func travelIDs(travels []travel.Travel) []int64 {
	out := make([]int64, len(travels))
	for i, t := range travels {
		out[i] = t.ID
	}
	return out
}
