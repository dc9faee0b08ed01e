package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"itravel/application/ports"
	"itravel/domain/cachekey"
	"itravel/domain/travel"
	"itravel/infrastructure/cache/memory"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) FetchAllTravels(ctx context.Context) ([]travel.Travel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]travel.Travel), args.Error(1)
}

func (m *MockBackend) FetchTravelsByUser(ctx context.Context, userID string) ([]travel.Travel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]travel.Travel), args.Error(1)
}

func (m *MockBackend) FetchTravelByID(ctx context.Context, travelID int64) (*travel.Travel, error) {
	args := m.Called(ctx, travelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*travel.Travel), args.Error(1)
}

func (m *MockBackend) FetchPagesByTravel(ctx context.Context, travelID int64) ([]travel.Page, error) {
	args := m.Called(ctx, travelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]travel.Page), args.Error(1)
}

func (m *MockBackend) FetchPageByID(ctx context.Context, pageID int64) (*travel.Page, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*travel.Page), args.Error(1)
}

func (m *MockBackend) FetchImagesByPage(ctx context.Context, pageID int64) ([]travel.Image, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]travel.Image), args.Error(1)
}

func (m *MockBackend) FetchProfile(ctx context.Context, userID string) (*travel.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*travel.Profile), args.Error(1)
}

func (m *MockBackend) FetchSearchResults(ctx context.Context, query string, limit int) ([]travel.Travel, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]travel.Travel), args.Error(1)
}

func (m *MockBackend) FetchPageNavigation(ctx context.Context, pageID, travelID int64) (*travel.PageNavigation, error) {
	args := m.Called(ctx, pageID, travelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*travel.PageNavigation), args.Error(1)
}

type MockSecondaryTier struct {
	mock.Mock
}

func (m *MockSecondaryTier) FetchAllTravels(ctx context.Context) (json.RawMessage, bool, error) {
	args := m.Called(ctx)
	var raw json.RawMessage
	if args.Get(0) != nil {
		raw = args.Get(0).(json.RawMessage)
	}
	return raw, args.Bool(1), args.Error(2)
}

func (m *MockSecondaryTier) StoreAllTravels(ctx context.Context, travels json.RawMessage) error {
	args := m.Called(ctx, travels)
	return args.Error(0)
}

func (m *MockSecondaryTier) Invalidate(ctx context.Context, typ cachekey.InvalidationType) error {
	args := m.Called(ctx, typ)
	return args.Error(0)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store   *memory.Store
	backend *MockBackend
	clock   *fakeClock
	repo    *CachedRepository
}

func newFixture(t *testing.T, opts ...RepositoryOption) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.DefaultConfig(), zap.NewNop(), memory.WithClock(clock.Now))
	t.Cleanup(func() { store.Close() })

	backend := new(MockBackend)
	opts = append([]RepositoryOption{WithRepositoryClock(clock.Now)}, opts...)
	repo := NewCachedRepository(store, backend, zap.NewNop(), opts...)

	return &fixture{store: store, backend: backend, clock: clock, repo: repo}
}

// rejectingStore fails every write
type rejectingStore struct {
	ports.KeyValueStore
}

func (s *rejectingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("store rejected write")
}

var (
	anyCtx    = mock.Anything
	anyString = mock.AnythingOfType("string")
)
