package models

import "time"

// AllocationReport is the derived output of allocation analysis. It is
// computed on demand from a snapshot and the user's targets, never persisted.
type AllocationReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Entries     []AllocationEntry `json:"entries"`

	// TargetTotal is the sum of the user's target percentages. Targets are
	// expected to sum to at most 100 but non-conforming input is surfaced
	// here rather than rejected.
	TargetTotal float64 `json:"target_total"`

	EstimatedAnnualDividend float64 `json:"estimated_annual_dividend"`

	// PlannedDeposit is the hypothetical new deposit the PlannedInvestment
	// split distributes. Zero when no deposit was requested.
	PlannedDeposit    float64            `json:"planned_deposit"`
	PlannedInvestment map[string]float64 `json:"planned_investment"`
}

// AllocationEntry compares one pie's current allocation against its target.
// Difference is target minus current: positive means the pie is
// under-allocated and should receive more of the next deposit.
type AllocationEntry struct {
	PieName    string  `json:"pie_name"`
	CurrentPct float64 `json:"current_pct"`
	TargetPct  float64 `json:"target_pct"`
	Difference float64 `json:"difference"`
}
