package simulation

import (
	"cmp"
	"math"
	"slices"

	"retainsim/domain/policy"
)

// Aggregator collects one result per cell in sweep order
type Aggregator struct {
	results []policy.SimulationResult
}

// NewAggregator pre-sizes the collector for a grid
func NewAggregator(cells int) *Aggregator {
	return &Aggregator{results: make([]policy.SimulationResult, 0, cells)}
}

// Add appends a result
func (a *Aggregator) Add(r policy.SimulationResult) {
	a.results = append(a.results, r)
}

// SweepOrder returns the results as they were produced
func (a *Aggregator) SweepOrder() []policy.SimulationResult {
	return slices.Clone(a.results)
}

// Ranked returns a sorted copy; see Rank
func (a *Aggregator) Ranked() []policy.SimulationResult {
	out := slices.Clone(a.results)
	Rank(out)
	return out
}

// Rank sorts by expected delta descending. Ties fall through to treat_roi
// descending (undefined last), target_pct ascending, discount ascending and
// finally sweep position.
func Rank(results []policy.SimulationResult) {
	slices.SortStableFunc(results, compareResults)
}

func compareResults(a, b policy.SimulationResult) int {
	if c := descending(a.DeltaProfitExpectation, b.DeltaProfitExpectation); c != 0 {
		return c
	}
	if c := descending(a.TreatROI, b.TreatROI); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TargetPct, b.TargetPct); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Discount, b.Discount); c != 0 {
		return c
	}
	return cmp.Compare(a.CellIndex, b.CellIndex)
}

// descending orders larger values first and NaN after every number
func descending(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmp.Compare(b, a)
}
