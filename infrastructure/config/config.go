package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	FrontendURL   string `yaml:"frontend_url"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes"`

	// Logging
	LogLevel string `yaml:"log_level"`

	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Gateway   GatewayConfig   `yaml:"gateway"`

	// Feature flags
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`

	// ConfigDir holds optional base.yaml and <environment>.yaml overlays
	ConfigDir string `yaml:"-"`
}

// RedisConfig configures the server-tier store
type RedisConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// CacheConfig holds TTLs of the server tier and bounds of the client tier
type CacheConfig struct {
	AllTravelsTTL time.Duration `yaml:"all_travels_ttl"`
	SearchTTL     time.Duration `yaml:"search_ttl"`
	UserTTL       time.Duration `yaml:"user_ttl"`

	ClientMaxEntries    int           `yaml:"client_max_entries"`
	ClientSweepInterval time.Duration `yaml:"client_sweep_interval"`
	SearchLimit         int           `yaml:"search_limit"`
}

// RateLimitConfig configures the per-client limiter of the gateway
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// SupabaseConfig locates the data backend
type SupabaseConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// GatewayConfig locates the cache gateway for client-tier processes
type GatewayConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ServerAddress: ":3001",
		Environment:   "development",
		FrontendURL:   "http://localhost:5173",
		MaxBodyBytes:  10 << 20,
		LogLevel:      "info",
		Redis: RedisConfig{
			Host:           "localhost",
			Port:           6379,
			DialTimeout:    10 * time.Second,
			CommandTimeout: 5 * time.Second,
			MaxRetries:     3,
		},
		Cache: CacheConfig{
			AllTravelsTTL:       300 * time.Second,
			SearchTTL:           180 * time.Second,
			UserTTL:             600 * time.Second,
			ClientMaxEntries:    100,
			ClientSweepInterval: 60 * time.Second,
			SearchLimit:         50,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Gateway: GatewayConfig{
			URL:     "http://localhost:3001",
			Timeout: 5 * time.Second,
		},
		EnableMetrics: true,
		OTLPEndpoint:  "localhost:4317",
		ConfigDir:     "config",
	}
}

// LoadConfig loads defaults, YAML overlays from CONFIG_DIR and then
// environment variables
func LoadConfig() (*Config, error) {
	return NewLoader(getEnv("CONFIG_DIR", "config"), getEnv("ENVIRONMENT", "development")).Load()
}

// applyEnv overlays environment variables, which take precedence over files
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.ServerAddress = ":" + port
	}
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Cache.AllTravelsTTL = getEnvDuration("CACHE_TTL_ALL_TRAVELS", c.Cache.AllTravelsTTL)
	c.Cache.SearchTTL = getEnvDuration("CACHE_TTL_SEARCH", c.Cache.SearchTTL)
	c.Cache.UserTTL = getEnvDuration("CACHE_TTL_USER", c.Cache.UserTTL)
	c.Cache.ClientMaxEntries = getEnvInt("CLIENT_CACHE_MAX_ENTRIES", c.Cache.ClientMaxEntries)
	c.Cache.SearchLimit = getEnvInt("SEARCH_LIMIT", c.Cache.SearchLimit)

	c.RateLimit.RequestsPerSecond = getEnvFloat("RATE_LIMIT_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.Burst)

	c.Supabase.URL = getEnv("SUPABASE_URL", c.Supabase.URL)
	c.Supabase.Key = getEnv("SUPABASE_KEY", c.Supabase.Key)

	c.Gateway.URL = getEnv("GATEWAY_URL", c.Gateway.URL)
	c.Gateway.Timeout = getEnvDuration("GATEWAY_TIMEOUT", c.Gateway.Timeout)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
}

// Validate checks the configuration for values the services cannot run with
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("unknown ENVIRONMENT %q", c.Environment)
	}
	if c.ServerAddress == "" {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("REDIS_PORT %d is out of range", c.Redis.Port)
	}
	if c.Cache.AllTravelsTTL <= 0 || c.Cache.SearchTTL <= 0 || c.Cache.UserTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// ValidateBackend checks the settings needed by processes that read Supabase
func (c *Config) ValidateBackend() error {
	if c.Supabase.URL == "" || c.Supabase.Key == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("300s") or bare seconds ("300")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
