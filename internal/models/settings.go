package models

import "time"

// UserSettings holds the per-user parameters for upstream fetches plus the
// allocation targets used by analysis. One record per user.
type UserSettings struct {
	UserID        string  `json:"user_id"`
	Country       string  `json:"country"`
	Currency      string  `json:"currency"`
	MonthlyBudget float64 `json:"monthly_budget"`

	// Targets maps pie name to a target percentage (0-100). The sum is not
	// validated here; analysis surfaces non-conforming totals.
	Targets map[string]float64 `json:"targets"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewDefaultSettings returns settings for a user that has not saved any.
func NewDefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:   userID,
		Country:  "BG",
		Currency: "BGN",
		Targets:  map[string]float64{},
	}
}
