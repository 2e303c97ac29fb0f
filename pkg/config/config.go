// Package config loads the proxy configuration from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/cache"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/fetcher"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/logging"
	"github.com/joho/godotenv"
)

// Config holds the complete process configuration.
type Config struct {
	// Listening address
	Host string
	Port string

	// Outbound fetches
	BaseURL      string
	UserAgent    string
	FetchTimeout time.Duration

	// Caching
	CacheTTL time.Duration

	// Logging
	LogLevel  logging.LogLevel
	LogPretty bool

	// Inbound rate limiting, disabled when RateLimitRPS is 0
	RateLimitRPS   float64
	RateLimitBurst int

	// Warmup
	WarmOrgs        []string
	WarmConcurrency int

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            "8000",
		BaseURL:         fetcher.DefaultBaseURL,
		UserAgent:       fetcher.DefaultUserAgent,
		FetchTimeout:    fetcher.DefaultTimeout,
		CacheTTL:        cache.DefaultTTL,
		LogLevel:        logging.LevelInfo,
		LogPretty:       false,
		RateLimitRPS:    0,
		RateLimitBurst:  10,
		WarmConcurrency: 4,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads .env files when present and then the environment.
// Missing files are not an error; malformed values are.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	env := envReader{lookup: lookup}

	cfg.Host = env.str("HOST", cfg.Host)
	cfg.Port = env.str("PORT", cfg.Port)
	cfg.BaseURL = env.str("HCB_BASE_URL", cfg.BaseURL)
	cfg.UserAgent = env.str("USER_AGENT", cfg.UserAgent)
	cfg.FetchTimeout = env.duration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.CacheTTL = env.duration("CACHE_TTL", cfg.CacheTTL)
	cfg.LogLevel = logging.LogLevel(env.str("LOG_LEVEL", string(cfg.LogLevel)))
	cfg.LogPretty = env.boolean("LOG_PRETTY", cfg.LogPretty)
	cfg.RateLimitRPS = env.float("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = env.integer("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.WarmOrgs = env.list("WARM_ORGS")
	cfg.WarmConcurrency = env.integer("WARM_CONCURRENCY", cfg.WarmConcurrency)
	cfg.ShutdownTimeout = env.duration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if env.err != nil {
		return Config{}, env.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be > 0 (got %s)", c.FetchTimeout)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0 (got %s)", c.CacheTTL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0 (got %g)", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 1 (got %d)", c.RateLimitBurst)
	}
	if c.WarmConcurrency < 1 {
		return fmt.Errorf("WARM_CONCURRENCY must be >= 1 (got %d)", c.WarmConcurrency)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// FetcherConfig returns the page fetcher configuration.
func (c Config) FetcherConfig() fetcher.Config {
	fc := fetcher.DefaultConfig()
	fc.BaseURL = c.BaseURL
	fc.UserAgent = c.UserAgent
	fc.Timeout = c.FetchTimeout
	return fc
}

// LoggingConfig returns the logger configuration.
func (c Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Pretty = c.LogPretty
	return lc
}

// envReader reads typed values and keeps the first parse error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	// Bare integers are seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *envReader) integer(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *envReader) boolean(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) list(key string) []string {
	v, ok := e.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
