package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheEntries tracks the number of cached organizations
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hcb_cache_entries",
			Help: "Number of organizations with a cached donation snapshot",
		},
	)

	// CacheWrites tracks inserts and replacements
	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hcb_cache_writes_total",
			Help: "Total number of donation snapshots written to the cache",
		},
	)
)
