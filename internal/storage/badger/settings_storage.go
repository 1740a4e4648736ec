package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
)

// SettingsStorage implements interfaces.SettingsStorage using BadgerDB.
type SettingsStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewSettingsStorage creates settings storage backed by BadgerDB.
func NewSettingsStorage(db *BadgerDB, logger *common.Logger) *SettingsStorage {
	return &SettingsStorage{
		db:     db,
		logger: logger,
	}
}

// GetSettings retrieves settings for a user.
func (s *SettingsStorage) GetSettings(_ context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.Store().Get(settingsKey(userID), &settings)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings for %s: %w", userID, err)
	}
	return &settings, nil
}

// SaveSettings upserts settings keyed by UserID.
func (s *SettingsStorage) SaveSettings(_ context.Context, settings *models.UserSettings) error {
	if settings == nil || settings.UserID == "" {
		return fmt.Errorf("settings must have a user id")
	}
	err := s.db.Store().Upsert(settingsKey(settings.UserID), settings)
	if err != nil {
		return fmt.Errorf("failed to save settings for %s: %w", settings.UserID, err)
	}
	return nil
}

func settingsKey(userID string) string {
	return "settings:" + userID
}
