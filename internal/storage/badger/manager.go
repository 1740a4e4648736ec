package badger

import (
	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/config"
	"github.com/kazuke353/magnus/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db        *BadgerDB
	snapshots interfaces.SnapshotStorage
	settings  interfaces.SettingsStorage
	logger    *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		snapshots: NewSnapshotStorage(db, logger),
		settings:  NewSettingsStorage(db, logger),
		logger:    logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// SnapshotStorage returns the snapshot storage interface.
func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshots
}

// SettingsStorage returns the settings storage interface.
func (m *Manager) SettingsStorage() interfaces.SettingsStorage {
	return m.settings
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
