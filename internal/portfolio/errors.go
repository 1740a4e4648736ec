// Package portfolio implements the portfolio aggregation core: upstream
// fetching, per-user snapshot caching, and allocation analysis.
package portfolio

import "fmt"

// UpstreamError indicates the upstream portfolio API call failed or
// returned a non-success status. The fetcher never retries; the caller
// decides whether to serve a stale snapshot instead.
type UpstreamError struct {
	StatusCode int // zero for transport failures
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UpstreamFormatError indicates the upstream response body could not be
// normalized into the snapshot shape.
type UpstreamFormatError struct {
	Err error
}

func (e *UpstreamFormatError) Error() string {
	return fmt.Sprintf("upstream payload could not be parsed: %v", e.Err)
}

func (e *UpstreamFormatError) Unwrap() error { return e.Err }

// CacheReadError indicates a backing-store I/O failure on read. A missing
// entry is not an error; it is reported as a normal empty result.
type CacheReadError struct {
	UserID string
	Err    error
}

func (e *CacheReadError) Error() string {
	return fmt.Sprintf("cache read failed for %s: %v", e.UserID, e.Err)
}

func (e *CacheReadError) Unwrap() error { return e.Err }

// CacheWriteError indicates a backing-store I/O failure on write. A missed
// write means the next read returns stale or absent data without warning,
// so it is always surfaced, never swallowed.
type CacheWriteError struct {
	UserID string
	Err    error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write failed for %s: %v", e.UserID, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }
