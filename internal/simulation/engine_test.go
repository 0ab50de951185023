package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"retainsim/domain/core"
	"retainsim/domain/policy"
)

// cellSeeds derives one stream per cell from a base seed
type cellSeeds int64

func (s cellSeeds) ForCell(cell policy.PolicyCell) Source {
	return rand.New(rand.NewSource(core.DeriveCellSeed(int64(s), cell.Index, cell.TargetFraction, cell.Discount)))
}

func scenarioTable() *policy.CustomerTable {
	return tableOf(
		rec("c1", 0.9, 50),
		rec("c2", 0.1, 200),
		rec("c3", 0.5, 0),
		rec("c4", 0.3, 0),
	)
}

func scenarioParams() policy.Params {
	p := policy.DefaultParams()
	p.Margin = 0.25
	p.Beta = 0.5
	p.Trials = 500
	return p
}

func syntheticTable(n int, seed int64) *policy.CustomerTable {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]policy.CustomerRecord, n)
	for i := range rows {
		rows[i] = rec(fmt.Sprintf("cust_%04d", i), rng.Float64(), 10+rng.Float64()*190)
	}
	return tableOf(rows...)
}

func TestSweep_EndToEndScenario(t *testing.T) {
	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)

	grid := policy.Grid{TargetFractions: []float64{0.5}, Discounts: []float64{0.1}}
	results, err := engine.Sweep(scenarioTable(), grid, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 0.5, r.TargetPct)
	assert.Equal(t, 0.1, r.Discount)
	assert.Equal(t, 2, r.NTarget)
	assert.InDelta(t, 25.0, r.AvgAOV, 1e-9, "no fallback: one order value is positive")
	assert.InDelta(t, 0.3, r.AvgP0, 1e-9)
	assert.InDelta(t, 0.335, r.AvgP1, 1e-9)
	assert.InDelta(t, 0.035, r.LiftAbs, 1e-9)
	assert.InDelta(t, -0.1625, r.DeltaProfitExpectation, 1e-9)
	assert.InDelta(t, -0.2241, r.TreatROI, 1e-4)
	assert.LessOrEqual(t, r.DeltaProfitCILo, r.DeltaProfitMCMean)
	assert.GreaterOrEqual(t, r.DeltaProfitCIHi, r.DeltaProfitMCMean)
}

func TestSweep_RanksFullGrid(t *testing.T) {
	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)

	grid := policy.Grid{TargetFractions: []float64{0.25, 0.5, 1.0}, Discounts: []float64{0, 0.05, 0.1}}
	results, err := engine.Sweep(scenarioTable(), grid, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	require.Len(t, results, grid.Size())

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].DeltaProfitExpectation, results[i].DeltaProfitExpectation)
	}
	for _, r := range results {
		if r.Discount == 0 {
			assert.True(t, math.IsNaN(r.TreatROI), "zero discount has zero cost")
		} else {
			assert.False(t, math.IsNaN(r.TreatROI))
		}
	}
}

func TestSweep_Deterministic(t *testing.T) {
	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)
	table := syntheticTable(300, 11)
	grid := policy.Grid{TargetFractions: []float64{0.1, 0.2, 0.3}, Discounts: []float64{0.05, 0.07, 0.1}}

	first, err := engine.Sweep(table, grid, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	second, err := engine.Sweep(table, grid, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("repeated sweep differs (-first +second):\n%s", diff)
	}
}

func TestSweep_SharedStreamDependsOnOrder(t *testing.T) {
	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)
	table := syntheticTable(100, 5)

	forward := policy.Grid{TargetFractions: []float64{0.2, 0.4}, Discounts: []float64{0.1}}
	reversed := policy.Grid{TargetFractions: []float64{0.4, 0.2}, Discounts: []float64{0.1}}

	a, err := engine.Sweep(table, forward, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := engine.Sweep(table, reversed, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	byTarget := func(rs []policy.SimulationResult, tp float64) policy.SimulationResult {
		for _, r := range rs {
			if r.TargetPct == tp {
				return r
			}
		}
		t.Fatalf("no result for tp=%v", tp)
		return policy.SimulationResult{}
	}
	// the analytic columns do not depend on the stream
	assert.Equal(t, byTarget(a, 0.2).DeltaProfitExpectation, byTarget(b, 0.2).DeltaProfitExpectation)
	// the draws do
	assert.NotEqual(t, byTarget(a, 0.2).DeltaProfitMCMean, byTarget(b, 0.2).DeltaProfitMCMean)
}

func TestSweep_EmptyTableUsesSentinels(t *testing.T) {
	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)

	results, err := engine.Sweep(tableOf(), policy.Grid{TargetFractions: []float64{0.5}, Discounts: []float64{0.1}}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 0, r.NTarget)
	assert.Equal(t, 0.0, r.DeltaProfitExpectation)
	assert.Equal(t, 0.0, r.DeltaProfitMCMean)
	assert.True(t, math.IsNaN(r.AvgAOV))
	assert.True(t, math.IsNaN(r.AvgP0))
	assert.True(t, math.IsNaN(r.AvgP1))
	assert.True(t, math.IsNaN(r.LiftAbs))
	assert.True(t, math.IsNaN(r.TreatROI))
}

func TestSweep_FallbackIsPerSlice(t *testing.T) {
	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)
	table := tableOf(
		rec("a", 0.9, 0),
		rec("b", 0.8, 0),
		rec("c", 0.2, 40),
		rec("d", 0.1, 60),
	)
	grid := policy.Grid{TargetFractions: []float64{0.5, 1.0}, Discounts: []float64{0.1}}
	results, err := engine.Sweep(table, grid, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for _, r := range results {
		switch r.TargetPct {
		case 0.5:
			assert.Equal(t, policy.DefaultFallbackAOV, r.AvgAOV)
		case 1.0:
			assert.InDelta(t, 25.0, r.AvgAOV, 1e-9)
		}
	}
}

func TestSweep_ProgressAndValidation(t *testing.T) {
	var calls []int
	engine, err := NewEngine(scenarioParams(), WithProgress(func(done, total int, _ policy.SimulationResult) {
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	}))
	require.NoError(t, err)

	_, err = engine.Sweep(scenarioTable(), policy.Grid{TargetFractions: []float64{0.5, 1}, Discounts: []float64{0.05, 0.1}}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)

	_, err = engine.Sweep(scenarioTable(), policy.Grid{TargetFractions: []float64{1.5}, Discounts: []float64{0.1}}, rand.New(rand.NewSource(1)))
	assert.True(t, core.IsValidationError(err))

	_, err = engine.Sweep(scenarioTable(), policy.Grid{TargetFractions: []float64{0.5}}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, core.ErrEmptyGrid)

	bad := scenarioParams()
	bad.Trials = 0
	_, err = NewEngine(bad)
	assert.True(t, core.IsValidationError(err))
}

func TestSweepParallel_IndependentOfWorkerCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)
	table := syntheticTable(250, 3)
	grid := policy.Grid{TargetFractions: []float64{0.1, 0.25, 0.5, 1}, Discounts: []float64{0.05, 0.07, 0.1}}

	one, err := engine.SweepParallel(context.Background(), table, grid, cellSeeds(42), 1)
	require.NoError(t, err)
	four, err := engine.SweepParallel(context.Background(), table, grid, cellSeeds(42), 4)
	require.NoError(t, err)
	many, err := engine.SweepParallel(context.Background(), table, grid, cellSeeds(42), 32)
	require.NoError(t, err)

	if diff := cmp.Diff(one, four, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("1 vs 4 workers differ:\n%s", diff)
	}
	if diff := cmp.Diff(one, many, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("1 vs 32 workers differ:\n%s", diff)
	}
}

func TestSweepParallel_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine, err := NewEngine(scenarioParams())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.SweepParallel(ctx, scenarioTable(), policy.Grid{TargetFractions: []float64{0.5}, Discounts: []float64{0.1}}, cellSeeds(1), 2)
	assert.ErrorIs(t, err, context.Canceled)
}
