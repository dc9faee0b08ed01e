package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestStore(t *testing.T, cfg Config) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewStore(cfg, zap.NewNop(), WithClock(clock.Now))
	t.Cleanup(func() { store.Close() })
	return store, clock
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()

	t.Run("Should expire entries at their deadline", func(t *testing.T) {
		store, clock := newTestStore(t, DefaultConfig())
		require.NoError(t, store.Set(ctx, "travel_1", []byte(`{"id":1}`), time.Second))

		clock.Advance(500 * time.Millisecond)
		_, ok, _ := store.Get(ctx, "travel_1")
		assert.True(t, ok)

		clock.Advance(600 * time.Millisecond)
		_, ok, _ = store.Get(ctx, "travel_1")
		assert.False(t, ok)
		assert.Equal(t, 0, store.Len(), "expired entry should be removed on read")
	})

	t.Run("Should treat the exact deadline as expired", func(t *testing.T) {
		store, clock := newTestStore(t, DefaultConfig())
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))

		clock.Advance(time.Second)

		assert.False(t, store.Has(ctx, "k"))
	})

	t.Run("Should use the default TTL when none is given", func(t *testing.T) {
		store, clock := newTestStore(t, DefaultConfig())
		require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

		clock.Advance(DefaultTTL - time.Second)
		assert.True(t, store.Has(ctx, "k"))

		clock.Advance(time.Second)
		assert.False(t, store.Has(ctx, "k"))
	})

	t.Run("Should restart the TTL window on overwrite", func(t *testing.T) {
		store, clock := newTestStore(t, DefaultConfig())
		require.NoError(t, store.Set(ctx, "k", []byte("v1"), time.Second))

		clock.Advance(900 * time.Millisecond)
		require.NoError(t, store.Set(ctx, "k", []byte("v2"), time.Second))
		clock.Advance(900 * time.Millisecond)

		value, ok, _ := store.Get(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, []byte("v2"), value)
	})

	t.Run("Should keep expired entries visible to Lookup", func(t *testing.T) {
		store, clock := newTestStore(t, DefaultConfig())
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))

		clock.Advance(2 * time.Second)
		entry, ok, err := store.Lookup(ctx, "k")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, entry.Expired)
		assert.Equal(t, []byte("v"), entry.Value)
		assert.Equal(t, 1, store.Len(), "Lookup must not remove entries")
	})
}

func TestStore_Eviction(t *testing.T) {
	ctx := context.Background()

	t.Run("Should never exceed the capacity", func(t *testing.T) {
		store, clock := newTestStore(t, Config{MaxEntries: 3})

		for i := 0; i < 10; i++ {
			require.NoError(t, store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
			clock.Advance(time.Millisecond)
			assert.LessOrEqual(t, store.Len(), 3)
		}
		assert.Equal(t, []string{"k7", "k8", "k9"}, store.Keys())
	})

	t.Run("Should evict the entry written longest ago", func(t *testing.T) {
		store, clock := newTestStore(t, Config{MaxEntries: 2})
		require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
		clock.Advance(time.Millisecond)
		require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))
		clock.Advance(time.Millisecond)

		// rewriting a makes b the oldest
		require.NoError(t, store.Set(ctx, "a", []byte("1b"), time.Minute))
		clock.Advance(time.Millisecond)
		require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Minute))

		assert.True(t, store.Has(ctx, "a"))
		assert.False(t, store.Has(ctx, "b"))
		assert.True(t, store.Has(ctx, "c"))
	})

	t.Run("Should not evict when overwriting in a full store", func(t *testing.T) {
		store, _ := newTestStore(t, Config{MaxEntries: 2})
		require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
		require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))

		require.NoError(t, store.Set(ctx, "b", []byte("3"), time.Minute))

		assert.Equal(t, 2, store.Len())
		assert.True(t, store.Has(ctx, "a"))
	})

	t.Run("Should hold the default capacity of 100", func(t *testing.T) {
		store, _ := newTestStore(t, DefaultConfig())

		for i := 0; i < 150; i++ {
			require.NoError(t, store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
		}

		stats := store.Stats()
		assert.Equal(t, 100, stats.Size)
		assert.Equal(t, 100, stats.MaxSize)
		assert.Len(t, stats.Keys, 100)
	})
}

func TestStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, DefaultConfig())

	original := []byte(`{"title":"Rome"}`)
	require.NoError(t, store.Set(ctx, "travel_1", original, time.Minute))

	original[2] = 'X'
	first, _, _ := store.Get(ctx, "travel_1")
	first[3] = 'Y'
	second, _, _ := store.Get(ctx, "travel_1")

	assert.Equal(t, `{"title":"Rome"}`, string(second))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, DefaultConfig())

	require.NoError(t, store.Set(ctx, "search_rome", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "search_paris", []byte("2"), time.Minute))
	require.NoError(t, store.Set(ctx, "travel_1", []byte("3"), time.Minute))

	t.Run("Should ignore missing keys", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "nope"))
	})

	t.Run("Should clear by prefix", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, "search_*"))

		assert.Equal(t, []string{"travel_1"}, store.Keys())
	})

	t.Run("Should clear everything", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, "*"))

		assert.Equal(t, 0, store.Len())
	})
}

func TestStore_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Should remove only expired entries", func(t *testing.T) {
		store, clock := newTestStore(t, DefaultConfig())
		require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Second))
		require.NoError(t, store.Set(ctx, "long", []byte("2"), time.Hour))

		clock.Advance(2 * time.Second)

		assert.Equal(t, 1, store.Sweep())
		assert.Equal(t, []string{"long"}, store.Keys())
	})

	t.Run("Should sweep on its own schedule", func(t *testing.T) {
		store := NewStore(Config{SweepInterval: 10 * time.Millisecond}, zap.NewNop())
		defer store.Close()
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Millisecond))

		assert.Eventually(t, func() bool {
			return store.Len() == 0
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Should stop and empty on close", func(t *testing.T) {
		store := NewStore(DefaultConfig(), zap.NewNop())
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		assert.Equal(t, 0, store.Len())
	})
}

func TestStore_Concurrency(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, Config{MaxEntries: 10})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d", (n+j)%15)
				_ = store.Set(ctx, key, []byte("v"), time.Minute)
				_, _, _ = store.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 10)
}
