package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLimiter_WindowSequence(t *testing.T) {
	l := New("test", 3, time.Minute)

	wantAllowed := []bool{true, true, true, false}
	wantRemaining := []int{2, 1, 0, 0}

	for i := range wantAllowed {
		result := l.Check("client-a")
		if result.Allowed != wantAllowed[i] {
			t.Errorf("request %d: expected allowed=%v, got %v", i+1, wantAllowed[i], result.Allowed)
		}
		if result.Remaining != wantRemaining[i] {
			t.Errorf("request %d: expected remaining=%d, got %d", i+1, wantRemaining[i], result.Remaining)
		}
	}
}

func TestLimiter_DeniedHasRetryAfter(t *testing.T) {
	l := New("test", 1, time.Minute)

	l.Check("client-a")
	result := l.Check("client-a")

	if result.Allowed {
		t.Fatal("expected second request to be denied")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("expected retry-after within (0, 1m], got %v", result.RetryAfter)
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	now := time.Now()
	l := New("test", 2, time.Minute, WithClock(func() time.Time { return now }))

	l.Check("client-a")
	l.Check("client-a")
	if result := l.Check("client-a"); result.Allowed {
		t.Fatal("expected third request in window to be denied")
	}

	// Advance past the window: the counter resets and the denied client is
	// admitted again with a full allowance.
	now = now.Add(time.Minute)
	result := l.Check("client-a")
	if !result.Allowed {
		t.Fatal("expected request after window reset to be allowed")
	}
	if result.Remaining != 1 {
		t.Errorf("expected remaining=1 after reset, got %d", result.Remaining)
	}
}

func TestLimiter_ClientsIsolated(t *testing.T) {
	l := New("test", 1, time.Minute)

	if result := l.Check("client-a"); !result.Allowed {
		t.Fatal("expected first client to be allowed")
	}
	if result := l.Check("client-b"); !result.Allowed {
		t.Error("expected second client to be unaffected by first client's count")
	}
	if result := l.Check("client-a"); result.Allowed {
		t.Error("expected first client's second request to be denied")
	}
}

func TestLimiter_MaxClientsEviction(t *testing.T) {
	now := time.Now()
	l := New("test", 10, time.Minute,
		WithMaxClients(3),
		WithClock(func() time.Time { return now }))

	for i := 0; i < 3; i++ {
		l.Check(fmt.Sprintf("client-%d", i))
		now = now.Add(time.Second)
	}
	if l.Size() != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", l.Size())
	}

	// A fourth client evicts the least-recently-seen (client-0).
	l.Check("client-3")
	if l.Size() != 3 {
		t.Errorf("expected store to stay at cap 3, got %d", l.Size())
	}

	// client-0 was evicted, so it starts a fresh window.
	result := l.Check("client-0")
	if result.Remaining != 9 {
		t.Errorf("expected evicted client to restart with remaining=9, got %d", result.Remaining)
	}
}

func TestLimiter_IdleSweep(t *testing.T) {
	now := time.Now()
	l := New("test", 10, time.Minute,
		WithIdleTTL(5*time.Minute),
		WithClock(func() time.Time { return now }))

	l.Check("idle-client")
	if l.Size() != 1 {
		t.Fatalf("expected 1 tracked client, got %d", l.Size())
	}

	// After the idle TTL, the next Check sweeps the stale entry.
	now = now.Add(6 * time.Minute)
	l.Check("active-client")

	if l.Size() != 1 {
		t.Errorf("expected idle client to be swept, tracking %d clients", l.Size())
	}
}

func TestLimiter_ConcurrentNoOverAdmission(t *testing.T) {
	const limit = 50
	const workers = 200

	l := New("test", limit, time.Minute)

	var allowed int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if l.Check("shared-client").Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("expected exactly %d admissions under concurrency, got %d", limit, allowed)
	}
}
