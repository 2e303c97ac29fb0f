package ratelimit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for inbound rate limiting.
var (
	rateLimitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcb_rate_limit_rejections_total",
		Help: "Total number of inbound requests rejected by the rate limiter",
	})

	rateLimitClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hcb_rate_limit_clients",
		Help: "Number of clients with a tracked token bucket",
	})
)

// Config holds limiter configuration.
type Config struct {
	// RPS is the sustained request rate allowed per client
	RPS float64

	// Burst is the bucket size per client
	Burst int

	// IdleTTL is how long an unused bucket is kept
	IdleTTL time.Duration
}

// Tracker keeps one token bucket per client key and gates requests.
type Tracker struct {
	mu      sync.Mutex
	clients map[string]*clientState
	config  Config
	logger  zerolog.Logger
	now     func() time.Time
}

// NewTracker creates a new inbound rate limit tracker.
func NewTracker(cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}

	return &Tracker{
		clients: make(map[string]*clientState),
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
func (t *Tracker) Allow(key string) bool {
	now := t.now()

	t.mu.Lock()
	state, ok := t.clients[key]
	if !ok {
		state = &clientState{
			limiter: rate.NewLimiter(rate.Limit(t.config.RPS), t.config.Burst),
		}
		t.clients[key] = state
		rateLimitClients.Set(float64(len(t.clients)))
	}
	state.touch(now)
	allowed := state.limiter.AllowN(now, 1)
	t.mu.Unlock()

	if !allowed {
		rateLimitRejectionsTotal.Inc()
		t.logger.Warn().
			Str("client", key).
			Float64("rps", t.config.RPS).
			Int("burst", t.config.Burst).
			Msg("Inbound request rejected by rate limiter")
	}

	return allowed
}

// Sweep drops buckets of clients idle for longer than IdleTTL and returns
// how many were removed.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, state := range t.clients {
		if state.IsIdle(now, t.config.IdleTTL) {
			delete(t.clients, key)
			removed++
		}
	}
	rateLimitClients.Set(float64(len(t.clients)))

	if removed > 0 {
		t.logger.Debug().
			Int("removed", removed).
			Int("remaining", len(t.clients)).
			Msg("Swept idle rate limit buckets")
	}
	return removed
}

// Run sweeps idle buckets every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Middleware rejects requests over the per-client rate with 429.
// Clients are keyed by remote IP; put chi's RealIP middleware in front when
// running behind a reverse proxy.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	retryAfter := "1"
	if t.config.RPS > 0 {
		retryAfter = strconv.Itoa(int(max(1, 1/t.config.RPS)))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(clientKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey extracts the client IP from the request.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
