package portfolio

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kazuke353/magnus/internal/models"
)

// ErrNoSnapshot is returned by Analyze when no snapshot is supplied.
var ErrNoSnapshot = errors.New("allocation analysis requires a snapshot")

// Analyze computes an allocation report from a snapshot and the user's
// target percentages. Pure function: it never mutates the snapshot and
// performs no I/O. A pie without a target is treated as target 0% rather
// than failing the computation; target sums over 100 are surfaced on the
// report, not rejected.
func Analyze(snapshot *models.PortfolioSnapshot, targets map[string]float64, plannedDeposit float64) (*models.AllocationReport, error) {
	if snapshot == nil {
		return nil, ErrNoSnapshot
	}

	report := &models.AllocationReport{
		GeneratedAt:       time.Now().UTC(),
		PlannedDeposit:    plannedDeposit,
		PlannedInvestment: map[string]float64{},
	}

	denom := snapshot.Overall.TotalInvestedOverall

	seen := make(map[string]bool, len(snapshot.Pies))
	for _, pie := range snapshot.Pies {
		seen[pie.Name] = true
		current := 0.0
		if denom > 0 {
			current = pie.TotalInvested / denom * 100
		}
		target := targets[pie.Name]
		report.Entries = append(report.Entries, models.AllocationEntry{
			PieName:    pie.Name,
			CurrentPct: current,
			TargetPct:  target,
			Difference: target - current,
		})
	}

	// Targets naming pies the snapshot does not hold still appear in the
	// report: fully under-allocated at 0%.
	var missing []string
	for name := range targets {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		report.Entries = append(report.Entries, models.AllocationEntry{
			PieName:    name,
			CurrentPct: 0,
			TargetPct:  targets[name],
			Difference: targets[name],
		})
	}

	for _, target := range targets {
		report.TargetTotal += target
	}

	report.EstimatedAnnualDividend = estimateAnnualDividend(snapshot)

	if plannedDeposit > 0 {
		report.PlannedInvestment = planInvestment(report.Entries, plannedDeposit)
	}

	return report, nil
}

// estimateAnnualDividend sums each position's dividend yield applied to its
// current value. Positions without a yield contribute zero.
func estimateAnnualDividend(snapshot *models.PortfolioSnapshot) float64 {
	var total float64
	for _, pie := range snapshot.Pies {
		for _, pos := range pie.Positions {
			if pos.DividendYield != nil {
				total += pos.CurrentValue * *pos.DividendYield
			}
		}
	}
	return total
}

// planInvestment splits a deposit across pies in proportion to their
// positive differences. Amounts are rounded to cents; the rounding
// remainder goes to the pie with the largest positive difference so the
// split sums exactly to the deposit. When nothing is under-allocated the
// deposit is split in proportion to the target percentages instead.
func planInvestment(entries []models.AllocationEntry, deposit float64) map[string]float64 {
	weights := make(map[string]decimal.Decimal, len(entries))
	total := decimal.Zero
	largest := ""
	largestWeight := decimal.Zero

	for _, e := range entries {
		if e.Difference <= 0 {
			continue
		}
		w := decimal.NewFromFloat(e.Difference)
		weights[e.PieName] = w
		total = total.Add(w)
		if largest == "" || w.GreaterThan(largestWeight) {
			largest = e.PieName
			largestWeight = w
		}
	}

	// Perfectly allocated (or over): fall back to target weights.
	if total.IsZero() {
		for _, e := range entries {
			if e.TargetPct <= 0 {
				continue
			}
			w := decimal.NewFromFloat(e.TargetPct)
			weights[e.PieName] = w
			total = total.Add(w)
			if largest == "" || w.GreaterThan(largestWeight) {
				largest = e.PieName
				largestWeight = w
			}
		}
	}
	if total.IsZero() {
		return map[string]float64{}
	}

	depositD := decimal.NewFromFloat(deposit)
	allocated := decimal.Zero
	amounts := make(map[string]decimal.Decimal, len(weights))

	// Deterministic iteration so the remainder assignment is stable.
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		amount := depositD.Mul(weights[name]).Div(total).Round(2)
		amounts[name] = amount
		allocated = allocated.Add(amount)
	}

	// Assign the rounding remainder so the split sums exactly to the deposit.
	if remainder := depositD.Sub(allocated); !remainder.IsZero() {
		amounts[largest] = amounts[largest].Add(remainder)
	}

	result := make(map[string]float64, len(amounts))
	for name, amount := range amounts {
		f, _ := amount.Float64()
		result[name] = f
	}
	return result
}
