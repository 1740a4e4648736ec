// Package ratelimit implements per-client fixed-window rate limiting with a
// bounded in-memory store. Denials are ordinary results, never errors, and
// Check performs no I/O.
package ratelimit

import (
	"sync"
	"time"
)

// Result reports the outcome of a single Check call.
type Result struct {
	Allowed   bool
	Remaining int

	// RetryAfter is how long until the client's window resets. Zero when
	// the request was allowed.
	RetryAfter time.Duration
}

// entry tracks one client's window. lastSeen drives idle eviction and the
// least-recently-seen capacity eviction.
type entry struct {
	count       int
	windowStart time.Time
	lastSeen    time.Time
}

// Limiter is a per-client fixed-window request counter. The store is
// bounded: at most maxClients entries are tracked, with the
// least-recently-seen entry dropped under capacity pressure, and idle
// entries swept after idleTTL regardless of count. Both are capacity
// safeguards, not correctness requirements of the window algorithm.
type Limiter struct {
	name    string
	limit   int
	window  time.Duration
	idleTTL time.Duration

	maxClients int

	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time

	// nowFunc allows tests to inject a clock.
	nowFunc func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxClients caps the number of tracked clients.
func WithMaxClients(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxClients = n
		}
	}
}

// WithIdleTTL sets how long an idle entry survives before being swept.
func WithIdleTTL(ttl time.Duration) Option {
	return func(l *Limiter) {
		if ttl > 0 {
			l.idleTTL = ttl
		}
	}
}

// WithClock injects a clock for time-advance tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.nowFunc = now
		}
	}
}

// New creates a limiter admitting at most limit requests per client per window.
func New(name string, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		name:       name,
		limit:      limit,
		window:     window,
		idleTTL:    30 * time.Minute,
		maxClients: 10000,
		entries:    make(map[string]*entry),
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the limiter's configured name ("api", "strict").
func (l *Limiter) Name() string {
	return l.name
}

// Check records a request from clientID and reports whether it is allowed.
// The read-check-write of the counter is a single critical section, so two
// concurrent requests can never both observe a pre-limit count when only
// one slot remains.
func (l *Limiter) Check(clientID string) Result {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeSweep(now)

	e, ok := l.entries[clientID]
	if !ok {
		if len(l.entries) >= l.maxClients {
			l.evictOldest()
		}
		l.entries[clientID] = &entry{count: 1, windowStart: now, lastSeen: now}
		return Result{Allowed: true, Remaining: l.limit - 1}
	}

	e.lastSeen = now

	if now.Sub(e.windowStart) >= l.window {
		e.count = 1
		e.windowStart = now
		return Result{Allowed: true, Remaining: l.limit - 1}
	}

	if e.count >= l.limit {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: e.windowStart.Add(l.window).Sub(now),
		}
	}

	e.count++
	return Result{Allowed: true, Remaining: l.limit - e.count}
}

// Size returns the number of tracked clients.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// maybeSweep drops entries idle for longer than idleTTL. Runs at most once
// per idleTTL interval so steady-state Check stays O(1). Must be called
// with mu held.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for id, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.idleTTL {
			delete(l.entries, id)
		}
	}
}

// evictOldest removes the least-recently-seen entry. Must be called with mu held.
func (l *Limiter) evictOldest() {
	var oldestID string
	var oldest time.Time
	first := true

	for id, e := range l.entries {
		if first || e.lastSeen.Before(oldest) {
			oldest = e.lastSeen
			oldestID = id
			first = false
		}
	}

	if oldestID != "" {
		delete(l.entries, oldestID)
	}
}
