package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"retainsim/domain/policy"
)

func TestRankOrdersByExpectedDeltaThenTieBreaks(t *testing.T) {
	nan := math.NaN()
	agg := NewAggregator(5)
	agg.Add(policy.SimulationResult{CellIndex: 0, TargetPct: 0.2, Discount: 0.1, DeltaProfitExpectation: 1, TreatROI: 0.5})
	agg.Add(policy.SimulationResult{CellIndex: 1, TargetPct: 0.1, Discount: 0.1, DeltaProfitExpectation: 3, TreatROI: 0.2})
	agg.Add(policy.SimulationResult{CellIndex: 2, TargetPct: 0.3, Discount: 0.0, DeltaProfitExpectation: 1, TreatROI: nan})
	agg.Add(policy.SimulationResult{CellIndex: 3, TargetPct: 0.1, Discount: 0.2, DeltaProfitExpectation: 1, TreatROI: 0.5})
	agg.Add(policy.SimulationResult{CellIndex: 4, TargetPct: 0.1, Discount: 0.05, DeltaProfitExpectation: 1, TreatROI: 0.5})

	ranked := agg.Ranked()
	order := make([]int, len(ranked))
	for i, r := range ranked {
		order[i] = r.CellIndex
	}
	assert.Equal(t, []int{1, 4, 3, 0, 2}, order)

	sweep := agg.SweepOrder()
	assert.Equal(t, 0, sweep[0].CellIndex, "collection order is untouched by ranking")
}

func TestDescendingPlacesNaNLast(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, -1, descending(2, 1))
	assert.Equal(t, 1, descending(1, 2))
	assert.Equal(t, -1, descending(-5, nan))
	assert.Equal(t, 1, descending(nan, -5))
	assert.Equal(t, 0, descending(nan, nan))
}
