package ports

import (
	"context"
	"encoding/json"
	"time"

	"itravel/domain/cachekey"
)

// Entry is a stored value together with its write metadata
type Entry struct {
	Value     []byte
	WrittenAt time.Time
	ExpiresAt time.Time
	Expired   bool
}

// KeyValueStore is the client-tier cache. Values are opaque byte snapshots;
// every read returns an independent copy.
type KeyValueStore interface {
	// Get returns the value of a live entry. Expired entries are removed
	// and reported as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Lookup returns the entry even when expired and never removes it.
	Lookup(ctx context.Context, key string) (Entry, bool, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Clear removes every key matching pattern. "*" matches everything and
	// a trailing "*" matches a prefix.
	Clear(ctx context.Context, pattern string) error

	// DeleteFunc removes every key for which match returns true and
	// reports how many were removed.
	DeleteFunc(ctx context.Context, match func(key string) bool) (int, error)
}

// ServerStore is the server-tier cache behind the gateway
type ServerStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns every key matching a glob pattern
	Keys(ctx context.Context, pattern string) ([]string, error)

	MemoryInfo(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

// SecondaryTier is a remote cache consulted for the global travel list
// before the data backend.
type SecondaryTier interface {
	// FetchAllTravels returns the cached list, or false on a miss
	FetchAllTravels(ctx context.Context) (json.RawMessage, bool, error)
	StoreAllTravels(ctx context.Context, travels json.RawMessage) error

	// Invalidate drops one family of server-tier keys
	Invalidate(ctx context.Context, typ cachekey.InvalidationType) error
}
