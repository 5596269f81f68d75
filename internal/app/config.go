package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (TROLI_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL; empty serves the embedded catalog with in-memory orders" flag:"database-url"`
	SeedCatalog  bool   `default:"true" usage:"Load the embedded catalog when the products table is empty" flag:"seed-catalog"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product image paths" flag:"image-base-url"`
	Redis        RedisConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// RedisConfig selects the cart snapshot store. An empty Addr keeps snapshots
// in memory.
type RedisConfig struct {
	Addr     string `usage:"Redis address (host:port or redis:// URL)" flag:"redis-addr"`
	Password string `usage:"Redis password" flag:"redis-password"`
	DB       int    `default:"0" usage:"Redis database number" flag:"redis-db"`
}

// SessionConfig controls browsing sessions and their carts.
type SessionConfig struct {
	CookieName    string        `default:"troli_session" usage:"Session cookie name" flag:"session-cookie"`
	TTL           time.Duration `default:"30m" usage:"Idle time before a live session is dropped" flag:"session-ttl"`
	SweepInterval time.Duration `default:"1m" usage:"How often idle sessions are swept" flag:"session-sweep-interval"`
	SnapshotTTL   time.Duration `default:"168h" usage:"Lifetime of persisted cart snapshots and the session cookie" flag:"session-snapshot-ttl"`
	Secure        bool          `default:"false" usage:"Mark the session cookie HTTPS-only" flag:"session-secure"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client" flag:"rate-limit-rps"`
	Burst int     `default:"40" usage:"Request burst per client" flag:"rate-limit-burst"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "TROLI",
		Files:     []string{"config.yaml", "/etc/troli/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL, REDIS_URL and PORT
// to the application's TROLI_-prefixed configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = getenv("REDIS_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch {
	case c.Session.TTL <= 0:
		return errors.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	case c.Session.SweepInterval <= 0:
		return errors.Errorf("session sweep interval must be positive, got %s", c.Session.SweepInterval)
	case c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0:
		return errors.Errorf("rate limit must be positive, got %v rps burst %d", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	return nil
}
