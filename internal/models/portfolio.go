// Package models defines data structures for Magnus
package models

import (
	"fmt"
	"math"
	"time"
)

// InstrumentType categorizes a held instrument
type InstrumentType string

const (
	InstrumentTypeStock InstrumentType = "stock"
	InstrumentTypeFund  InstrumentType = "fund"
)

// SumTolerance is the floating-point tolerance used when checking that the
// overall invested figure matches the per-pie sum.
const SumTolerance = 1e-6

// PortfolioSnapshot is one point-in-time capture of a user's full portfolio
// state: the unit cached per user and versioned by FetchedAt.
type PortfolioSnapshot struct {
	UserID      string         `json:"user_id"`
	FetchedAt   time.Time      `json:"fetched_at"`
	Stale       bool           `json:"stale"` // set when served as a fallback past the caller's freshness bound
	Pies        []Pie          `json:"pies"`
	Overall     OverallSummary `json:"overall"`
	DepositInfo DepositInfo    `json:"deposit_info"`
}

// Pie is a named sub-portfolio grouping a subset of instrument positions,
// mirroring the upstream brokerage's grouping concept.
type Pie struct {
	Name          string               `json:"name"`
	TotalInvested float64              `json:"total_invested"`
	CurrentValue  float64              `json:"current_value"`
	Result        float64              `json:"result"`
	ReturnPct     float64              `json:"return_pct"`
	Positions     []InstrumentPosition `json:"positions"`
}

// InstrumentPosition is one held security within a pie. Owned exclusively by
// its parent pie; it has no independent lifecycle.
type InstrumentPosition struct {
	Ticker        string         `json:"ticker"`
	OwnedQuantity float64        `json:"owned_quantity"`
	InvestedValue float64        `json:"invested_value"`
	CurrentValue  float64        `json:"current_value"`
	ResultValue   float64        `json:"result_value"`
	Currency      string         `json:"currency"`
	Type          InstrumentType `json:"type"`

	// DividendYield is a fraction of current value (0.042 == 4.2% p.a.).
	// Nil means the upstream did not provide one, which is distinct from zero.
	DividendYield *float64 `json:"dividend_yield,omitempty"`

	Performance *PerformanceMetrics `json:"performance,omitempty"`
}

// PerformanceMetrics holds optional trailing return percentages.
type PerformanceMetrics struct {
	Week        *float64 `json:"week,omitempty"`
	Month       *float64 `json:"month,omitempty"`
	ThreeMonths *float64 `json:"three_months,omitempty"`
	Year        *float64 `json:"year,omitempty"`
}

// OverallSummary aggregates invested/result/return across all pies.
// TotalInvestedOverall additionally includes uninvested cash and is the
// denominator for allocation percentages, so per-pie percentages plus cash
// implicitly sum toward 100.
type OverallSummary struct {
	TotalInvested        float64 `json:"total_invested"`
	TotalInvestedOverall float64 `json:"total_invested_overall"`
	TotalResult          float64 `json:"total_result"`
	ReturnPct            float64 `json:"return_pct"`
}

// DepositInfo tracks monthly budget consumption and the next-deposit projection.
type DepositInfo struct {
	MonthlyBudget   float64 `json:"monthly_budget"`
	BudgetSpent     float64 `json:"budget_spent"`
	BudgetRemaining float64 `json:"budget_remaining"`
	NextDeposit     float64 `json:"next_deposit"`
}

// Validate checks snapshot invariants: the overall invested figure must
// equal the per-pie sum within SumTolerance, and no position may hold a
// negative quantity.
func (s *PortfolioSnapshot) Validate() error {
	var sum float64
	for _, pie := range s.Pies {
		sum += pie.TotalInvested
		for _, pos := range pie.Positions {
			if pos.OwnedQuantity < 0 {
				return fmt.Errorf("pie %q position %q has negative quantity %f", pie.Name, pos.Ticker, pos.OwnedQuantity)
			}
		}
	}
	if math.Abs(sum-s.Overall.TotalInvested) > SumTolerance {
		return fmt.Errorf("overall invested %.8f does not match pie sum %.8f", s.Overall.TotalInvested, sum)
	}
	return nil
}

// Clone returns a deep copy of the snapshot. Used when returning cached data
// so callers can flag or mutate their copy without touching shared state.
func (s *PortfolioSnapshot) Clone() *PortfolioSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Pies = make([]Pie, len(s.Pies))
	for i, pie := range s.Pies {
		p := pie
		p.Positions = make([]InstrumentPosition, len(pie.Positions))
		for j, pos := range pie.Positions {
			cp := pos
			if pos.DividendYield != nil {
				y := *pos.DividendYield
				cp.DividendYield = &y
			}
			if pos.Performance != nil {
				perf := clonePerformance(pos.Performance)
				cp.Performance = perf
			}
			p.Positions[j] = cp
		}
		out.Pies[i] = p
	}
	return &out
}

func clonePerformance(p *PerformanceMetrics) *PerformanceMetrics {
	out := &PerformanceMetrics{}
	if p.Week != nil {
		v := *p.Week
		out.Week = &v
	}
	if p.Month != nil {
		v := *p.Month
		out.Month = &v
	}
	if p.ThreeMonths != nil {
		v := *p.ThreeMonths
		out.ThreeMonths = &v
	}
	if p.Year != nil {
		v := *p.Year
		out.Year = &v
	}
	return out
}
