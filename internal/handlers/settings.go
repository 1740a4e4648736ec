package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kazuke353/magnus/internal/common"
	"github.com/kazuke353/magnus/internal/interfaces"
	"github.com/kazuke353/magnus/internal/models"
)

// SettingsHandler serves per-user settings: upstream fetch parameters and
// allocation targets.
type SettingsHandler struct {
	storage interfaces.SettingsStorage
	logger  *common.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(storage interfaces.SettingsStorage, logger *common.Logger) *SettingsHandler {
	return &SettingsHandler{
		storage: storage,
		logger:  logger,
	}
}

// ServeHTTP handles GET and PUT on /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	userID := common.ResolveUserID(r)

	settings, err := h.storage.GetSettings(r.Context(), userID)
	if err == interfaces.ErrNotFound {
		settings = models.NewDefaultSettings(userID)
	} else if err != nil {
		h.logger.Error().Str("user", userID).Err(err).Msg("failed to load settings")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, settings)
}

// settingsUpdate carries the writable fields of a settings record. Absent
// fields keep their stored value.
type settingsUpdate struct {
	Country       *string             `json:"country"`
	Currency      *string             `json:"currency"`
	MonthlyBudget *float64            `json:"monthly_budget"`
	Targets       *map[string]float64 `json:"targets"`
}

func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	userID := common.ResolveUserID(r)

	var update settingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	settings, err := h.storage.GetSettings(r.Context(), userID)
	if err == interfaces.ErrNotFound {
		settings = models.NewDefaultSettings(userID)
	} else if err != nil {
		h.logger.Error().Str("user", userID).Err(err).Msg("failed to load settings")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if update.Country != nil {
		settings.Country = *update.Country
	}
	if update.Currency != nil {
		settings.Currency = *update.Currency
	}
	if update.MonthlyBudget != nil {
		if *update.MonthlyBudget < 0 {
			WriteError(w, http.StatusBadRequest, "monthly_budget must be non-negative")
			return
		}
		settings.MonthlyBudget = *update.MonthlyBudget
	}
	if update.Targets != nil {
		for name, pct := range *update.Targets {
			if pct < 0 {
				WriteError(w, http.StatusBadRequest, "target for "+name+" must be non-negative")
				return
			}
		}
		settings.Targets = *update.Targets
	}
	settings.UpdatedAt = time.Now().UTC()

	if err := h.storage.SaveSettings(r.Context(), settings); err != nil {
		h.logger.Error().Str("user", userID).Err(err).Msg("failed to save settings")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info().Str("user", userID).Msg("settings updated")
	WriteJSON(w, http.StatusOK, settings)
}
