package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/models"
)

// fakeClient is an upstream Client with scripted responses.
type fakeClient struct {
	mu       sync.Mutex
	calls    int
	snapshot *models.PortfolioSnapshot
	err      error
	delay    time.Duration
}

func (f *fakeClient) Fetch(ctx context.Context, settings *models.UserSettings) (*models.PortfolioSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot.Clone(), nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func serviceFixture(client Client, store *fakeSnapshotStore) *Service {
	cache := NewSnapshotCache(store, common.NewSilentLogger())
	return NewService(client, cache, common.NewSilentLogger())
}

func TestService_FreshCacheHitSkipsFetch(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["default"] = snapshotAt("default", time.Now().UTC().Add(-time.Minute))
	client := &fakeClient{}
	svc := serviceFixture(client, store)

	got, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), time.Hour)
	require.NoError(t, err)
	assert.False(t, got.Stale)
	assert.Equal(t, 0, client.callCount())
}

func TestService_StaleCacheTriggersRefresh(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["default"] = snapshotAt("default", time.Now().UTC().Add(-2*time.Hour))

	fresh := snapshotAt("default", time.Now().UTC())
	fresh.Pies[0].Name = "Refreshed"
	client := &fakeClient{snapshot: fresh}
	svc := serviceFixture(client, store)

	got, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Refreshed", got.Pies[0].Name)
	assert.Equal(t, 1, client.callCount())

	// The successful fetch must be persisted.
	stored, _, err := svc.cache.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "Refreshed", stored.Pies[0].Name)
}

func TestService_ZeroStalenessForcesRefresh(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["default"] = snapshotAt("default", time.Now().UTC())
	client := &fakeClient{snapshot: snapshotAt("default", time.Now().UTC())}
	svc := serviceFixture(client, store)

	_, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, client.callCount())
}

func TestService_UpstreamFailureServesStale(t *testing.T) {
	store := newFakeSnapshotStore()
	cachedAt := time.Now().UTC().Add(-2 * time.Hour)
	store.snapshots["default"] = snapshotAt("default", cachedAt)
	client := &fakeClient{err: &UpstreamError{StatusCode: 503, Err: errors.New("down")}}
	svc := serviceFixture(client, store)

	got, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), time.Hour)
	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.True(t, got.FetchedAt.Equal(cachedAt))
}

func TestService_UpstreamFailureNoCache(t *testing.T) {
	client := &fakeClient{err: &UpstreamError{StatusCode: 503, Err: errors.New("down")}}
	svc := serviceFixture(client, newFakeSnapshotStore())

	_, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), time.Hour)

	var upstreamErr *UpstreamError
	assert.True(t, errors.As(err, &upstreamErr))
}

func TestService_CacheWriteErrorPropagates(t *testing.T) {
	store := newFakeSnapshotStore()
	store.saveErr = errors.New("disk full")
	client := &fakeClient{snapshot: snapshotAt("default", time.Now().UTC())}
	svc := serviceFixture(client, store)

	_, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), time.Hour)

	var writeErr *CacheWriteError
	assert.True(t, errors.As(err, &writeErr))
}

func TestService_CacheReadErrorPropagates(t *testing.T) {
	store := newFakeSnapshotStore()
	store.getErr = errors.New("disk corrupted")
	client := &fakeClient{snapshot: snapshotAt("default", time.Now().UTC())}
	svc := serviceFixture(client, store)

	_, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), time.Hour)

	var readErr *CacheReadError
	assert.True(t, errors.As(err, &readErr))
}

func TestService_ConcurrentRequestsDeduplicated(t *testing.T) {
	store := newFakeSnapshotStore()
	client := &fakeClient{
		snapshot: snapshotAt("default", time.Now().UTC()),
		delay:    50 * time.Millisecond,
	}
	svc := serviceFixture(client, store)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetPortfolio(context.Background(), "default", models.NewDefaultSettings("default"), 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// All concurrent misses collapse into one upstream call.
	assert.Equal(t, 1, client.callCount())
}

func TestService_GetAllocationReport(t *testing.T) {
	store := newFakeSnapshotStore()
	store.snapshots["default"] = snapshotAt("default", time.Now().UTC())
	svc := serviceFixture(&fakeClient{}, store)

	settings := models.NewDefaultSettings("default")
	settings.Targets = map[string]float64{"Core": 100}

	report, err := svc.GetAllocationReport(context.Background(), "default", settings, 50)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.InDelta(t, 100, report.Entries[0].CurrentPct, 0.001)
	assert.InDelta(t, 50, report.PlannedInvestment["Core"], 0.011)
}
