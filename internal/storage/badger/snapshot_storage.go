package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
)

// SnapshotStorage implements interfaces.SnapshotStorage using BadgerDB.
// One record per user; SaveSnapshot is an atomic upsert, so a concurrent
// read never observes a partially-written snapshot.
type SnapshotStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewSnapshotStorage creates snapshot storage backed by BadgerDB.
func NewSnapshotStorage(db *BadgerDB, logger *common.Logger) *SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// GetSnapshot retrieves the snapshot for a user.
func (s *SnapshotStorage) GetSnapshot(_ context.Context, userID string) (*models.PortfolioSnapshot, error) {
	var snapshot models.PortfolioSnapshot
	err := s.db.Store().Get(snapshotKey(userID), &snapshot)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", userID, err)
	}
	return &snapshot, nil
}

// SaveSnapshot upserts the snapshot keyed by its UserID.
func (s *SnapshotStorage) SaveSnapshot(_ context.Context, snapshot *models.PortfolioSnapshot) error {
	if snapshot == nil || snapshot.UserID == "" {
		return fmt.Errorf("snapshot must have a user id")
	}
	err := s.db.Store().Upsert(snapshotKey(snapshot.UserID), snapshot)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", snapshot.UserID, err)
	}
	return nil
}

// DeleteSnapshot removes a user's snapshot.
func (s *SnapshotStorage) DeleteSnapshot(_ context.Context, userID string) error {
	err := s.db.Store().Delete(snapshotKey(userID), models.PortfolioSnapshot{})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete snapshot for %s: %w", userID, err)
	}
	return nil
}

func snapshotKey(userID string) string {
	return "snapshot:" + userID
}
