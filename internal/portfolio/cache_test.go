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
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
)

// fakeSnapshotStore is an in-memory SnapshotStorage with error injection.
type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.PortfolioSnapshot
	getErr    error
	saveErr   error
	saveCalls int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snapshots: make(map[string]*models.PortfolioSnapshot)}
}

func (f *fakeSnapshotStore) GetSnapshot(_ context.Context, userID string) (*models.PortfolioSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.snapshots[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return s.Clone(), nil
}

func (f *fakeSnapshotStore) SaveSnapshot(_ context.Context, snapshot *models.PortfolioSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[snapshot.UserID] = snapshot.Clone()
	return nil
}

func (f *fakeSnapshotStore) DeleteSnapshot(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, userID)
	return nil
}

func snapshotAt(userID string, fetchedAt time.Time) *models.PortfolioSnapshot {
	return &models.PortfolioSnapshot{
		UserID:    userID,
		FetchedAt: fetchedAt,
		Pies:      []models.Pie{{Name: "Core", TotalInvested: 100}},
		Overall:   models.OverallSummary{TotalInvested: 100, TotalInvestedOverall: 100},
	}
}

func TestSnapshotCache_GetMiss(t *testing.T) {
	cache := NewSnapshotCache(newFakeSnapshotStore(), common.NewSilentLogger())

	snapshot, found, err := cache.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, snapshot)
}

func TestSnapshotCache_PutThenGet(t *testing.T) {
	cache := NewSnapshotCache(newFakeSnapshotStore(), common.NewSilentLogger())
	ctx := context.Background()

	original := snapshotAt("default", time.Now().UTC())
	require.NoError(t, cache.Put(ctx, original))

	got, found, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, original.UserID, got.UserID)
	assert.True(t, original.FetchedAt.Equal(got.FetchedAt))
}

func TestSnapshotCache_LastWriteWins(t *testing.T) {
	cache := NewSnapshotCache(newFakeSnapshotStore(), common.NewSilentLogger())
	ctx := context.Background()

	t0 := time.Now().UTC()
	require.NoError(t, cache.Put(ctx, snapshotAt("default", t0)))

	newer := snapshotAt("default", t0.Add(time.Minute))
	newer.Pies[0].Name = "Updated"
	require.NoError(t, cache.Put(ctx, newer))

	got, _, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Pies[0].Name)
}

func TestSnapshotCache_OlderWriteSkipped(t *testing.T) {
	cache := NewSnapshotCache(newFakeSnapshotStore(), common.NewSilentLogger())
	ctx := context.Background()

	t0 := time.Now().UTC()
	require.NoError(t, cache.Put(ctx, snapshotAt("default", t0)))

	// A write carrying an older FetchedAt must not roll the cache back.
	older := snapshotAt("default", t0.Add(-time.Hour))
	older.Pies[0].Name = "Rollback"
	require.NoError(t, cache.Put(ctx, older))

	got, _, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "Core", got.Pies[0].Name)
	assert.True(t, got.FetchedAt.Equal(t0))
}

func TestSnapshotCache_ReadError(t *testing.T) {
	store := newFakeSnapshotStore()
	store.getErr = errors.New("disk corrupted")
	cache := NewSnapshotCache(store, common.NewSilentLogger())

	_, _, err := cache.Get(context.Background(), "default")

	var readErr *CacheReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "default", readErr.UserID)
}

func TestSnapshotCache_WriteError(t *testing.T) {
	store := newFakeSnapshotStore()
	store.saveErr = errors.New("disk full")
	cache := NewSnapshotCache(store, common.NewSilentLogger())

	err := cache.Put(context.Background(), snapshotAt("default", time.Now().UTC()))

	var writeErr *CacheWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "default", writeErr.UserID)
}

func TestSnapshotCache_PutRequiresUser(t *testing.T) {
	cache := NewSnapshotCache(newFakeSnapshotStore(), common.NewSilentLogger())

	var writeErr *CacheWriteError
	err := cache.Put(context.Background(), &models.PortfolioSnapshot{})
	assert.True(t, errors.As(err, &writeErr))
}

func TestSnapshotCache_ConcurrentPuts(t *testing.T) {
	store := newFakeSnapshotStore()
	cache := NewSnapshotCache(store, common.NewSilentLogger())
	ctx := context.Background()

	base := time.Now().UTC()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			cache.Put(ctx, snapshotAt("default", base.Add(time.Duration(offset)*time.Second)))
		}(i)
	}
	wg.Wait()

	got, found, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	require.True(t, found)

	// Whatever interleaving happened, the surviving snapshot is the newest.
	assert.True(t, got.FetchedAt.Equal(base.Add(19*time.Second)))
}
