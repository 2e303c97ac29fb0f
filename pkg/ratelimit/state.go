// Package ratelimit gates inbound requests per client with token buckets.
// It protects the proxy, and through it the upstream donation pages, from a
// single client hammering uncached organization ids.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Defaults for client state housekeeping.
const (
	// DefaultIdleTTL is how long an idle client's bucket is kept.
	DefaultIdleTTL = 10 * time.Minute

	// DefaultSweepInterval is how often idle buckets are swept.
	DefaultSweepInterval = time.Minute
)

// clientState is the token bucket of one client plus its last activity.
type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IsIdle returns true if the client has not been seen for maxIdle.
func (s *clientState) IsIdle(now time.Time, maxIdle time.Duration) bool {
	return now.Sub(s.lastSeen) > maxIdle
}

// touch records activity at now.
func (s *clientState) touch(now time.Time) {
	s.lastSeen = now
}
