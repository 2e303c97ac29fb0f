package warmup

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var warmupOrganizations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hcb_warmup_organizations_total",
	Help: "Total organizations processed by the startup warmup, by result",
}, []string{"result"}) // "ok", "error"

// Config holds warmer configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel lookups
	MaxConcurrency int
	// Timeout per organization lookup
	Timeout time.Duration
}

// DefaultConfig returns the default warmup configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// SnapshotSource resolves one organization to a snapshot, populating the
// cache as a side effect.
type SnapshotSource interface {
	Snapshot(ctx context.Context, orgID string) (donation.Snapshot, error)
}

// Result summarizes a warmup run.
type Result struct {
	Warmed int
	Failed map[string]error
}

// Warmer prefetches a list of organizations in parallel.
type Warmer struct {
	source SnapshotSource
	config Config
}

// NewWarmer creates a new warmer
func NewWarmer(source SnapshotSource, config Config) *Warmer {
	if source == nil {
		panic("snapshot source cannot be nil")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Warmer{
		source: source,
		config: config,
	}
}

// Run looks up every organization with at most MaxConcurrency in flight.
// A failed organization does not stop the others; failures are collected in
// the result. Run only returns an error when ctx is cancelled.
func (w *Warmer) Run(ctx context.Context, orgIDs []string) (Result, error) {
	start := time.Now()
	result := Result{Failed: make(map[string]error)}
	if len(orgIDs) == 0 {
		return result, nil
	}

	log.Info().
		Int("organizations", len(orgIDs)).
		Int("concurrency", w.config.MaxConcurrency).
		Msg("Starting cache warmup")

	errs := make([]error, len(orgIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.MaxConcurrency)

	for i, orgID := range orgIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, w.config.Timeout)
			defer cancel()

			_, err := w.source.Snapshot(lookupCtx, orgID)
			if err != nil {
				warmupOrganizations.WithLabelValues("error").Inc()
				log.Warn().
					Err(err).
					Str("org_id", orgID).
					Msg("Warmup lookup failed")
				errs[i] = err
				return nil
			}
			warmupOrganizations.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	for i, orgID := range orgIDs {
		if errs[i] != nil {
			result.Failed[orgID] = errs[i]
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("warmup cancelled: %w", err)
	}
	result.Warmed = len(orgIDs) - len(result.Failed)

	log.Info().
		Int("warmed", result.Warmed).
		Int("failed", len(result.Failed)).
		Dur("duration", time.Since(start)).
		Msg("Cache warmup complete")

	return result, nil
}
