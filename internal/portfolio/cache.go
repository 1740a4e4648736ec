package portfolio

import (
	"context"
	"errors"
	"sync"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
)

// SnapshotCache persists the latest snapshot per user on top of a durable
// store. The cache never expires entries; freshness is the caller's policy.
// Writes for the same user are serialized (single writer per key) and an
// older snapshot never overwrites a newer one, keeping FetchedAt
// monotonically non-decreasing per user.
type SnapshotCache struct {
	store  interfaces.SnapshotStorage
	logger *common.Logger

	// Per-user write locks. Entries are never removed; the user population
	// is small and bounded by the settings store.
	locks sync.Map // map[string]*sync.Mutex
}

// NewSnapshotCache creates a cache over the given snapshot store.
func NewSnapshotCache(store interfaces.SnapshotStorage, logger *common.Logger) *SnapshotCache {
	return &SnapshotCache{
		store:  store,
		logger: logger,
	}
}

// Get returns the stored snapshot for a user. A missing entry is a normal
// empty result (nil, false, nil); a store I/O failure is a CacheReadError.
func (c *SnapshotCache) Get(ctx context.Context, userID string) (*models.PortfolioSnapshot, bool, error) {
	snapshot, err := c.store.GetSnapshot(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, &CacheReadError{UserID: userID, Err: err}
	}
	return snapshot, true, nil
}

// Put upserts the snapshot for its user (last-write-wins keyed by UserID).
// A write that would move FetchedAt backwards is skipped: the newer
// snapshot stays visible.
func (c *SnapshotCache) Put(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	if snapshot == nil || snapshot.UserID == "" {
		return &CacheWriteError{Err: errors.New("snapshot must have a user id")}
	}

	mu := c.userLock(snapshot.UserID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := c.store.GetSnapshot(ctx, snapshot.UserID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return &CacheWriteError{UserID: snapshot.UserID, Err: err}
	}
	if existing != nil && existing.FetchedAt.After(snapshot.FetchedAt) {
		c.logger.Warn().
			Str("user", snapshot.UserID).
			Msg("skipping snapshot write older than the stored one")
		return nil
	}

	if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
		return &CacheWriteError{UserID: snapshot.UserID, Err: err}
	}
	return nil
}

func (c *SnapshotCache) userLock(userID string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
