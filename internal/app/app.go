// Package app wires configuration, storage and the portfolio pipeline into
// the handler set the server exposes.
package app

import (
	"fmt"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/config"
	"github.com/kazuke353/magnus/internal/handlers"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/mcp"
	"github.com/kazuke353/magnus/internal/portfolio"
	"github.com/kazuke353/magnus/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager
	Service *portfolio.Service

	// HTTP handlers
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	PortfolioHandler *handlers.PortfolioHandler
	SettingsHandler  *handlers.SettingsHandler
	MCPHandler       *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = storageManager

	fetcher := portfolio.NewFetcher(cfg.Upstream.URL, cfg.Upstream.Timeout())
	cache := portfolio.NewSnapshotCache(storageManager.SnapshotStorage(), logger)
	a.Service = portfolio.NewService(fetcher, cache, logger)

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	settingsStorage := a.Storage.SettingsStorage()

	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.PortfolioHandler = handlers.NewPortfolioHandler(a.Service, settingsStorage, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(settingsStorage, a.Logger)
	a.MCPHandler = mcp.NewHandler(a.Service, settingsStorage, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
