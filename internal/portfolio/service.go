package portfolio

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/models"
)

// Service is the read-through orchestration over fetcher and cache: cached
// snapshot when fresh enough, refresh otherwise, stale fallback when the
// upstream is down. The cache is the single source of truth after the first
// fetch: every successful fetch is persisted before it is returned.
type Service struct {
	client Client
	cache  *SnapshotCache
	logger *common.Logger

	// group de-duplicates in-flight fetches per user so a snapshot going
	// stale under many concurrent requests triggers one upstream call.
	group singleflight.Group
}

// NewService creates the portfolio service.
func NewService(client Client, cache *SnapshotCache, logger *common.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// GetPortfolio returns the user's snapshot, refreshing from upstream when
// the cached one is older than maxStaleness. maxStaleness <= 0 forces a
// refresh. On UpstreamError with a cached snapshot available, the stale
// snapshot is returned flagged Stale=true; with no snapshot the error
// propagates. CacheReadError and CacheWriteError always propagate.
func (s *Service) GetPortfolio(ctx context.Context, userID string, settings *models.UserSettings, maxStaleness time.Duration) (*models.PortfolioSnapshot, error) {
	cached, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if found && maxStaleness > 0 && common.IsFresh(cached.FetchedAt, maxStaleness) {
		return cached.Clone(), nil
	}

	fresh, err := s.refresh(ctx, userID, settings)
	if err == nil {
		return fresh, nil
	}

	var writeErr *CacheWriteError
	if errors.As(err, &writeErr) {
		return nil, err
	}

	// Upstream (or format) failure: fall back to the last known snapshot
	// when one exists, explicitly flagged so the caller can surface it.
	if found {
		s.logger.Warn().
			Str("user", userID).
			Str("error", err.Error()).
			Msg("upstream refresh failed, serving stale snapshot")
		stale := cached.Clone()
		stale.Stale = true
		return stale, nil
	}

	return nil, err
}

// refresh fetches from upstream (de-duplicated per user) and persists the
// result. The fetch runs detached from the triggering request's
// cancellation: a fetch that outlives its request still completes and
// populates the cache for subsequent requests. No cache lock is held while
// the network call is in flight.
func (s *Service) refresh(ctx context.Context, userID string, settings *models.UserSettings) (*models.PortfolioSnapshot, error) {
	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)

		snapshot, err := s.client.Fetch(fetchCtx, settings)
		if err != nil {
			return nil, err
		}

		// A fetch that is not cached is a bug, not a supported mode: every
		// later read path depends on the store being authoritative.
		if err := s.cache.Put(fetchCtx, snapshot); err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("user", userID).
			Int("pies", len(snapshot.Pies)).
			Msg("portfolio snapshot refreshed")

		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PortfolioSnapshot).Clone(), nil
}

// GetAllocationReport analyzes the user's snapshot against their targets.
// The snapshot is obtained through the same read-through path using the
// allocation freshness bound, so the report may be computed from a stale
// (flagged) snapshot when the upstream is down.
func (s *Service) GetAllocationReport(ctx context.Context, userID string, settings *models.UserSettings, plannedDeposit float64) (*models.AllocationReport, error) {
	snapshot, err := s.GetPortfolio(ctx, userID, settings, common.FreshnessAllocation)
	if err != nil {
		return nil, err
	}
	return Analyze(snapshot, settings.Targets, plannedDeposit)
}
