// Package redis implements the server-tier cache on top of go-redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"itravel/application/ports"
	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

const (
	scanBatchSize   = 100
	deleteBatchSize = 500
	probeKey        = "test:connection"
)

// Config holds the connection settings
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// DefaultConfig returns connect 10s, command 5s and three retries
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           6379,
		DialTimeout:    10 * time.Second,
		CommandTimeout: 5 * time.Second,
		MaxRetries:     3,
	}
}

// Addr returns host:port
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Store is a ports.ServerStore backed by Redis
type Store struct {
	client  goredis.UniversalClient
	logger  *zap.Logger
	metrics *observability.Collector
}

var _ ports.ServerStore = (*Store)(nil)

// NewStore dials lazily; no command is sent until first use
func NewStore(cfg Config, logger *zap.Logger, metrics *observability.Collector) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.CommandTimeout,
		WriteTimeout: cfg.CommandTimeout,
		MaxRetries:   cfg.MaxRetries,
	})
	return NewStoreWithClient(client, logger, metrics)
}

// NewStoreWithClient wraps an existing client
func NewStoreWithClient(client goredis.UniversalClient, logger *zap.Logger, metrics *observability.Collector) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, logger: logger, metrics: metrics}
}

// Get returns the raw value under key, or false when absent
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		s.metrics.RecordMiss(observability.TierServer)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.fail("get", err)
	}

	s.metrics.RecordHit(observability.TierServer)
	return value, true, nil
}

// SetEX writes value with a TTL
func (s *Store) SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return s.fail("setex", err)
	}
	return nil
}

// Delete removes keys in batches and returns how many existed
func (s *Store) Delete(ctx context.Context, keys ...string) (int64, error) {
	var deleted int64
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		n, err := s.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			return deleted, s.fail("del", err)
		}
		deleted += n
	}
	return deleted, nil
}

// Exists reports whether key is present
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, s.fail("exists", err)
	}
	return n > 0, nil
}

// Keys walks the keyspace with SCAN so a large database never blocks the server
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, s.fail("scan", err)
	}
	return keys, nil
}

// MemoryInfo returns the INFO memory section verbatim
func (s *Store) MemoryInfo(ctx context.Context) (string, error) {
	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return "", s.fail("info", err)
	}
	return info, nil
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Probe runs a ping and a write/read/delete round trip against a scratch key
func (s *Store) Probe(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}

	payload := []byte(fmt.Sprintf(`{"timestamp":%d}`, time.Now().UnixMilli()))
	if err := s.client.Set(ctx, probeKey, payload, 0).Err(); err != nil {
		return s.fail("probe set", err)
	}
	got, err := s.client.Get(ctx, probeKey).Bytes()
	if err != nil {
		return s.fail("probe get", err)
	}
	if string(got) != string(payload) {
		return pkgerrors.NewStoreUnavailableError("probe", fmt.Errorf("read back %q, wrote %q", got, payload))
	}
	if err := s.client.Del(ctx, probeKey).Err(); err != nil {
		return s.fail("probe del", err)
	}

	s.logger.Info("Redis connection verified")
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) fail(operation string, err error) error {
	s.metrics.RecordStoreError(operation)
	s.logger.Error("Redis command failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return pkgerrors.NewStoreUnavailableError(operation, err)
}
