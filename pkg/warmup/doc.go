// Package warmup prefetches donation snapshots for a configured list of
// organizations at startup, so the first visitors hit a warm cache.
//
// Example usage:
//
//	w := warmup.NewWarmer(service, warmup.DefaultConfig())
//	result, err := w.Run(ctx, []string{"hq", "bank-demo"})
//
// The warmer:
//   - Looks up organizations through the regular snapshot service
//   - Bounds parallel lookups with errgroup (default 4)
//   - Logs and counts failures without aborting the run
//
// Duplicate ids are harmless: the service coalesces them into one fetch.
package warmup
