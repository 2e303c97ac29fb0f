// Package proxy ties the page fetcher, the extractor and the snapshot cache
// together into the donation lookup served over HTTP.
package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/cache"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Prometheus metrics for snapshot lookups.
var (
	snapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcb_snapshot_cache_hits_total",
		Help: "Total snapshot lookups served from a fresh cache entry",
	})

	snapshotCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hcb_snapshot_cache_misses_total",
		Help: "Total snapshot lookups that required a refetch, by reason",
	}, []string{"reason"}) // "absent", "stale"

	snapshotSharedFlights = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcb_snapshot_shared_flights_total",
		Help: "Total lookups that joined a refetch already in flight",
	})

	snapshotRefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcb_snapshot_refresh_errors_total",
		Help: "Total refetches that failed",
	})
)

// PageFetcher retrieves the raw donation page of an organization.
type PageFetcher interface {
	// Fetch returns the page body and the exact URL it was fetched from.
	Fetch(ctx context.Context, orgID string) (body string, sourceURL string, err error)
}

// Config holds service configuration.
type Config struct {
	// TTL is how long a snapshot is served before it is refetched
	TTL time.Duration
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{
		TTL: cache.DefaultTTL,
	}
}

// Service resolves organization ids to donation snapshots.
//
// Fresh snapshots are served from the store. Stale or missing snapshots are
// refetched; concurrent lookups of the same organization share a single
// refetch, while lookups of different organizations never wait on each
// other. The store lock is only held for the lookup and the write, never
// across the fetch.
type Service struct {
	fetcher PageFetcher
	store   *cache.Store
	config  Config
	flights singleflight.Group
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a service backed by fetcher and store.
func NewService(fetcher PageFetcher, store *cache.Store, cfg Config) *Service {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	if store == nil {
		panic("cache store cannot be nil")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}

	return &Service{
		fetcher: fetcher,
		store:   store,
		config:  cfg,
		logger:  log.With().Str("component", "proxy").Logger(),
		now:     time.Now,
	}
}

// Snapshot returns the donation snapshot of orgID, refetching it when the
// cached one is missing or older than the TTL.
//
// Invalid organization ids fail with donation.ErrInvalidOrgID. Fetch
// failures are returned as is and leave any previous entry untouched.
func (s *Service) Snapshot(ctx context.Context, orgID string) (donation.Snapshot, error) {
	if err := donation.ValidateOrgID(orgID); err != nil {
		return donation.Snapshot{}, err
	}

	if snap, ok := s.fresh(orgID, true); ok {
		return snap, nil
	}

	leader := false
	v, err, shared := s.flights.Do(orgID, func() (any, error) {
		leader = true
		// A flight that finished just before this one started has already
		// refreshed the entry.
		if snap, ok := s.fresh(orgID, false); ok {
			return snap, nil
		}
		return s.refresh(ctx, orgID)
	})
	// singleflight reports shared to the leader too once others joined.
	if shared && !leader {
		snapshotSharedFlights.Inc()
	}
	if err != nil {
		return donation.Snapshot{}, err
	}

	return v.(donation.Snapshot), nil
}

// fresh returns the cached snapshot of orgID if it is still within the TTL.
// Metrics are only recorded when record is set so that re-checks inside a
// flight do not double count.
func (s *Service) fresh(orgID string, record bool) (donation.Snapshot, bool) {
	entry, ok := s.store.Lookup(orgID)
	now := s.now()

	switch {
	case !ok:
		if record {
			snapshotCacheMisses.WithLabelValues("absent").Inc()
		}
		return donation.Snapshot{}, false
	case entry.IsStale(s.config.TTL, now):
		if record {
			snapshotCacheMisses.WithLabelValues("stale").Inc()
			s.logger.Debug().
				Str("org_id", orgID).
				Dur("age", entry.Age(now)).
				Msg("Cached snapshot is stale")
		}
		return donation.Snapshot{}, false
	default:
		if record {
			snapshotCacheHits.Inc()
		}
		return entry.Snapshot, true
	}
}

// refresh fetches, extracts and stores a new snapshot of orgID.
//
// The fetch is detached from the caller's cancellation: other lookups may
// be waiting on the same flight, and the fetcher's own timeout bounds it.
func (s *Service) refresh(ctx context.Context, orgID string) (donation.Snapshot, error) {
	startTime := time.Now()

	body, sourceURL, err := s.fetcher.Fetch(context.WithoutCancel(ctx), orgID)
	if err != nil {
		snapshotRefreshErrors.Inc()
		return donation.Snapshot{}, fmt.Errorf("refresh %s: %w", orgID, err)
	}

	now := s.now()
	snap := donation.NewSnapshot(body, sourceURL, now)
	s.store.Put(orgID, cache.Entry{CreatedAt: now, Snapshot: snap})

	s.logger.Info().
		Str("org_id", orgID).
		Str("raised", snap.RaisedText).
		Str("goal", snap.GoalText).
		Float64("progress_percent", snap.ProgressPercent).
		Dur("duration", time.Since(startTime)).
		Msg("Donation snapshot refreshed")

	return snap, nil
}
