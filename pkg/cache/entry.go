package cache

import (
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
)

// DefaultTTL is how long a snapshot is served before it is refetched.
const DefaultTTL = 60 * time.Second

// Entry is a cached snapshot together with the time it was computed.
type Entry struct {
	// CreatedAt is when the snapshot was computed
	CreatedAt time.Time

	// Snapshot is the computed donation progress
	Snapshot donation.Snapshot
}

// Age returns how long ago the entry was created.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// IsStale returns true once ttl or more has elapsed since CreatedAt.
func (e Entry) IsStale(ttl time.Duration, now time.Time) bool {
	return e.Age(now) >= ttl
}
