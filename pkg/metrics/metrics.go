// Package metrics exposes the Prometheus registry used by the donation proxy.
// All metrics are defined in their respective packages (cache, fetcher,
// proxy, ratelimit, warmup) via promauto and land in the default registry.
//
// This package provides the /metrics handler and documents every series.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the default Prometheus registry used by the proxy.
	Registry = prometheus.DefaultRegisterer

	// Gatherer collects the series exposed on /metrics.
	Gatherer = prometheus.DefaultGatherer
)

// Handler returns the HTTP handler serving Gatherer in the Prometheus
// exposition format. Scrapes of the handler itself are counted in Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	)
}

// Metrics Documentation
//
// Fetch Metrics (pkg/fetcher):
//   - hcb_fetch_requests_total{status} (Counter): Page fetches by HTTP status or "network_error"
//   - hcb_fetch_duration_seconds (Histogram): Page fetch duration
//   - hcb_fetch_errors_total{class} (Counter): Fetch failures by class (network, timeout, body)
//
// Cache Metrics (pkg/cache):
//   - hcb_cache_entries (Gauge): Organizations with a cached snapshot
//   - hcb_cache_writes_total (Counter): Snapshots written
//
// Snapshot Metrics (pkg/proxy):
//   - hcb_snapshot_cache_hits_total (Counter): Lookups served from a fresh entry
//   - hcb_snapshot_cache_misses_total{reason} (Counter): Lookups needing a refetch (absent, stale)
//   - hcb_snapshot_shared_flights_total (Counter): Lookups that joined an in-flight refetch
//   - hcb_snapshot_refresh_errors_total (Counter): Failed refetches
//
// Inbound Rate Limit Metrics (pkg/ratelimit):
//   - hcb_rate_limit_rejections_total (Counter): Requests rejected with 429
//   - hcb_rate_limit_clients (Gauge): Clients currently tracked
//
// Handler Metrics (this package):
//   - promhttp_metric_handler_requests_total{code} (Counter): Scrapes of /metrics
//   - promhttp_metric_handler_requests_in_flight (Gauge): Scrapes in progress
//
// Warmup Metrics (pkg/warmup):
//   - hcb_warmup_organizations_total{result} (Counter): Warmed organizations (ok, error)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(hcb_snapshot_cache_hits_total[5m]) /
//   (rate(hcb_snapshot_cache_hits_total[5m]) + sum(rate(hcb_snapshot_cache_misses_total[5m])))
//
//   # Upstream Error Rate
//   sum(rate(hcb_fetch_errors_total[5m])) by (class)
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(hcb_fetch_duration_seconds_bucket[5m]))
