// Package cache provides the process-local snapshot store used by the
// donation proxy.
//
// The store maps organization ids to Entries. It has no expiry of its own:
//
// - Lookup reports what is stored, fresh or not
// - Put replaces an entry wholesale
// - Entries are never deleted, a newer Put simply supersedes them
//
// Staleness is decided by the caller with Entry.IsStale, so the TTL policy
// lives next to the code that refetches.
//
// # Basic Usage
//
//	store := cache.NewStore()
//
//	entry, ok := store.Lookup("hq")
//	if !ok || entry.IsStale(60*time.Second, time.Now()) {
//		// fetch and rebuild the snapshot
//		store.Put("hq", cache.Entry{CreatedAt: time.Now(), Snapshot: snap})
//	}
//
// # Concurrency
//
// A single mutex guards every Lookup and Put. The mutex is released with
// defer, so a panic inside a critical section leaves the map in its last
// consistent state and the store usable. Lookup returns a copy of the
// entry; callers never hold references into the map.
//
// # Metrics
//
//   - hcb_cache_entries - Number of organizations currently cached
//   - hcb_cache_writes_total - Entries written (inserts and replacements)
package cache
