// Package memory implements the client-tier cache: a bounded in-process map
// with per-entry TTL, lazy expiry and a periodic sweep.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"itravel/application/ports"
	"itravel/pkg/observability"
)

const (
	DefaultMaxEntries    = 100
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 60 * time.Second
)

// Config controls the store bounds
type Config struct {
	MaxEntries    int           `yaml:"max_entries"`
	DefaultTTL    time.Duration `yaml:"default_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultConfig returns the limits the web client has always used
func DefaultConfig() Config {
	return Config{
		MaxEntries:    DefaultMaxEntries,
		DefaultTTL:    DefaultTTL,
		SweepInterval: DefaultSweepInterval,
	}
}

// Stats is a point-in-time view of the store
type Stats struct {
	Size    int      `json:"size"`
	MaxSize int      `json:"maxSize"`
	Keys    []string `json:"keys"`
}

type entry struct {
	key       string
	value     []byte
	writtenAt time.Time
	expiresAt time.Time
	element   *list.Element
}

// Store is safe for concurrent use. Entries are ordered by write time so
// the eviction victim is always at the back of the list.
type Store struct {
	mu      sync.Mutex
	items   map[string]*entry
	order   *list.List
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
	metrics *observability.Collector

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ ports.KeyValueStore = (*Store)(nil)

// Option customizes a Store
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics records hits, misses, evictions and expirations
func WithMetrics(c *observability.Collector) Option {
	return func(s *Store) { s.metrics = c }
}

// NewStore creates a store and starts its sweep task. Call Close to stop it.
func NewStore(cfg Config, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	s := &Store{
		items:  make(map[string]*entry),
		order:  list.New(),
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startSweeper()
	return s
}

// Get returns a copy of the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		s.metrics.RecordMiss(observability.TierClient)
		return nil, false, nil
	}

	if !s.now().Before(e.expiresAt) {
		s.remove(e)
		s.metrics.RecordExpirations(observability.TierClient, 1)
		s.metrics.RecordMiss(observability.TierClient)
		return nil, false, nil
	}

	s.metrics.RecordHit(observability.TierClient)
	return cloneBytes(e.value), true, nil
}

// Lookup returns the entry under key whether or not it has expired
func (s *Store) Lookup(ctx context.Context, key string) (ports.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return ports.Entry{}, false, nil
	}

	return ports.Entry{
		Value:     cloneBytes(e.value),
		WrittenAt: e.writtenAt,
		ExpiresAt: e.expiresAt,
		Expired:   !s.now().Before(e.expiresAt),
	}, true, nil
}

// Has reports whether a live entry exists. Like Get it removes an expired one.
func (s *Store) Has(ctx context.Context, key string) bool {
	_, ok, _ := s.Get(ctx, key)
	return ok
}

// Set stores a copy of value. A non-positive ttl uses the default TTL.
// Inserting a new key into a full store first evicts the entry written longest ago.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if e, ok := s.items[key]; ok {
		e.value = cloneBytes(value)
		e.writtenAt = now
		e.expiresAt = now.Add(ttl)
		s.order.MoveToFront(e.element)
		return nil
	}

	if len(s.items) >= s.cfg.MaxEntries {
		if oldest := s.order.Back(); oldest != nil {
			victim := oldest.Value.(*entry)
			s.remove(victim)
			s.metrics.RecordEviction(observability.TierClient)
			s.logger.Debug("Evicted cache entry",
				zap.String("key", victim.key),
				zap.Time("written_at", victim.writtenAt),
			)
		}
	}

	e := &entry{
		key:       key,
		value:     cloneBytes(value),
		writtenAt: now,
		expiresAt: now.Add(ttl),
	}
	e.element = s.order.PushFront(e)
	s.items[key] = e
	s.metrics.SetEntries(observability.TierClient, len(s.items))

	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok {
		s.remove(e)
	}
	return nil
}

// Clear removes all keys matching pattern
func (s *Store) Clear(ctx context.Context, pattern string) error {
	n, err := s.DeleteFunc(ctx, func(key string) bool {
		return matchPattern(key, pattern)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Cleared cache entries",
		zap.String("pattern", pattern),
		zap.Int("count", n),
	)
	return nil
}

// DeleteFunc removes all keys for which match returns true
func (s *Store) DeleteFunc(ctx context.Context, match func(key string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []*entry
	for key, e := range s.items {
		if match(key) {
			doomed = append(doomed, e)
		}
	}
	for _, e := range doomed {
		s.remove(e)
	}
	return len(doomed), nil
}

// Keys returns the stored keys, oldest write first
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.keysLocked()
}

// Len returns the number of stored entries, expired ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Stats returns size, capacity and keys
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Size:    len(s.items),
		MaxSize: s.cfg.MaxEntries,
		Keys:    s.keysLocked(),
	}
}

func (s *Store) keysLocked() []string {
	keys := make([]string, 0, len(s.items))
	for el := s.order.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}

// remove must be called with the lock held
func (s *Store) remove(e *entry) {
	s.order.Remove(e.element)
	delete(s.items, e.key)
	s.metrics.SetEntries(observability.TierClient, len(s.items))
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// matchPattern supports "*", "prefix*", "*suffix" and exact keys
func matchPattern(str, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if len(pattern) > 0 && pattern[0] == '*' {
		suffix := pattern[1:]
		return len(str) >= len(suffix) && str[len(str)-len(suffix):] == suffix
	}

	if len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(str) >= len(prefix) && str[:len(prefix)] == prefix
	}

	return str == pattern
}
