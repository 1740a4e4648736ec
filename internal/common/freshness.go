// Package common provides shared utilities for Magnus
package common

import "time"

// Freshness TTLs for cached data. The snapshot cache itself never expires
// entries; callers compare a snapshot's FetchedAt against one of these (or
// a caller-supplied maximum age) and trigger a refresh when stale. This
// keeps freshness policy out of the cache so it can vary by caller
// (dashboard read vs. background refresh).
const (
	// FreshnessPortfolio is the default maximum age of a portfolio snapshot
	// served without refetching from the upstream brokerage API.
	FreshnessPortfolio = 30 * time.Minute

	// FreshnessAllocation bounds how old a snapshot may be when used as the
	// input of an allocation report.
	FreshnessAllocation = 1 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
