package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
	"github.com/kazuke353/magnus/internal/portfolio"
)

// PortfolioHandler serves portfolio snapshots and allocation reports.
type PortfolioHandler struct {
	service  *portfolio.Service
	settings interfaces.SettingsStorage
	logger   *common.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(service *portfolio.Service, settings interfaces.SettingsStorage, logger *common.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		service:  service,
		settings: settings,
		logger:   logger,
	}
}

// ServeHTTP handles GET /api/portfolio.
//
// Query parameters:
//   - refresh=true          bypass the cache and fetch from upstream
//   - max_staleness_ms=N    accept a cached snapshot up to N milliseconds old
func (h *PortfolioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	userID := common.ResolveUserID(r)
	settings, err := h.loadSettings(r, userID)
	if err != nil {
		h.logger.Error().Str("user", userID).Err(err).Msg("failed to load user settings")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	maxStaleness := common.FreshnessPortfolio
	if r.URL.Query().Get("refresh") == "true" {
		maxStaleness = 0
	} else if raw := r.URL.Query().Get("max_staleness_ms"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			WriteError(w, http.StatusBadRequest, "max_staleness_ms must be a non-negative integer")
			return
		}
		maxStaleness = time.Duration(ms) * time.Millisecond
	}

	snapshot, err := h.service.GetPortfolio(r.Context(), userID, settings, maxStaleness)
	if err != nil {
		h.logger.Warn().Str("user", userID).Err(err).Msg("portfolio request failed")
		WritePipelineError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// Allocation handles GET /api/portfolio/allocation.
//
// Query parameters:
//   - deposit=N   plan how to split a deposit of N across pies
func (h *PortfolioHandler) Allocation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	userID := common.ResolveUserID(r)
	settings, err := h.loadSettings(r, userID)
	if err != nil {
		h.logger.Error().Str("user", userID).Err(err).Msg("failed to load user settings")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	deposit := 0.0
	if raw := r.URL.Query().Get("deposit"); raw != "" {
		deposit, err = strconv.ParseFloat(raw, 64)
		if err != nil || deposit < 0 {
			WriteError(w, http.StatusBadRequest, "deposit must be a non-negative number")
			return
		}
	}

	report, err := h.service.GetAllocationReport(r.Context(), userID, settings, deposit)
	if err != nil {
		h.logger.Warn().Str("user", userID).Err(err).Msg("allocation request failed")
		WritePipelineError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// loadSettings fetches the user's stored settings, falling back to defaults
// when none have been saved yet.
func (h *PortfolioHandler) loadSettings(r *http.Request, userID string) (*models.UserSettings, error) {
	settings, err := h.settings.GetSettings(r.Context(), userID)
	if err == interfaces.ErrNotFound {
		return models.NewDefaultSettings(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}
