// Package interfaces defines storage and client contracts for Magnus.
package interfaces

import (
	"context"

	"github.com/kazuke353/magnus/internal/models"
)

// StorageManager provides access to domain-specific storage interfaces.
// Implementations can be swapped (BadgerDB now, centralised DB later).
type StorageManager interface {
	SnapshotStorage() SnapshotStorage
	SettingsStorage() SettingsStorage
	Close() error
}

// SnapshotStorage persists the latest portfolio snapshot per user. One
// record per user id: each save replaces the previous snapshot, there is
// no history.
type SnapshotStorage interface {
	// GetSnapshot retrieves the snapshot for a user. Returns ErrNotFound
	// when no snapshot has been stored yet.
	GetSnapshot(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)

	// SaveSnapshot upserts the snapshot keyed by its UserID.
	SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error

	// DeleteSnapshot removes a user's snapshot. Deleting a missing snapshot
	// is not an error.
	DeleteSnapshot(ctx context.Context, userID string) error
}

// SettingsStorage persists per-user settings (fetch parameters and
// allocation targets).
type SettingsStorage interface {
	// GetSettings retrieves settings for a user. Returns ErrNotFound when
	// the user has never saved settings.
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)

	// SaveSettings upserts settings keyed by UserID.
	SaveSettings(ctx context.Context, settings *models.UserSettings) error
}
