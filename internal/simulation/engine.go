package simulation

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"retainsim/domain/policy"
)

// ProgressFunc is notified after each evaluated cell
type ProgressFunc func(done, total int, result policy.SimulationResult)

// CellStreams hands out an independent random stream per policy cell
type CellStreams interface {
	ForCell(cell policy.PolicyCell) Source
}

// Engine evaluates policy grids against a customer table
type Engine struct {
	params   policy.Params
	progress ProgressFunc
}

// Option configures an Engine
type Option func(*Engine)

// WithProgress installs a per-cell progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine validates params and builds an engine
func NewEngine(params policy.Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{params: params}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EvaluateCell computes the summary row for one cell on a pre-selected slice,
// drawing its Monte Carlo outcomes from rng.
func (e *Engine) EvaluateCell(slice *policy.TargetedSlice, cell policy.PolicyCell, rng Source) policy.SimulationResult {
	p1 := Treat(slice.P0, cell.Discount, e.params.Beta)
	exp := Expect(slice.P0, p1, slice.AOV, e.params.Margin, cell.Discount)
	mc := MonteCarlo(rng, slice.P0, p1, slice.AOV, e.params.Margin, cell.Discount, e.params.Trials)

	return policy.SimulationResult{
		TargetPct:              cell.TargetFraction,
		Discount:               cell.Discount,
		NTarget:                slice.Len(),
		AvgAOV:                 meanOrUndefined(slice.AOV),
		AvgP0:                  meanOrUndefined(slice.P0),
		AvgP1:                  meanOrUndefined(p1),
		LiftAbs:                exp.Lift,
		DeltaProfitExpectation: exp.Delta,
		DeltaProfitMCMean:      mc.Mean,
		DeltaProfitCILo:        mc.CILo,
		DeltaProfitCIHi:        mc.CIHi,
		TreatROI:               exp.ROI,
		CellIndex:              cell.Index,
	}
}

// Sweep evaluates every cell sequentially on one shared stream and returns
// the ranked table.
//
// Cells run target fractions outer and discounts inner, in configured order,
// and each cell consumes a contiguous run of rng. The output is reproducible
// only for the same seed and the same grid order.
func (e *Engine) Sweep(table *policy.CustomerTable, grid policy.Grid, rng Source) ([]policy.SimulationResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("sweep requires a random stream")
	}

	ranked := RankByRisk(table)
	agg := NewAggregator(grid.Size())
	total := grid.Size()
	index := 0
	for _, tp := range grid.TargetFractions {
		slice := selectRanked(table, ranked, tp, e.params.FallbackAOV)
		for _, d := range grid.Discounts {
			cell := policy.PolicyCell{Index: index, TargetFraction: tp, Discount: d}
			result := e.EvaluateCell(slice, cell, rng)
			agg.Add(result)
			index++
			if e.progress != nil {
				e.progress(index, total, result)
			}
		}
	}
	return agg.Ranked(), nil
}

// SweepParallel evaluates cells on up to `workers` goroutines. Each cell draws
// from streams.ForCell(cell), so the output depends on the seed derivation and
// not on scheduling or worker count. The progress callback may be invoked
// from several goroutines at once.
func (e *Engine) SweepParallel(ctx context.Context, table *policy.CustomerTable, grid policy.Grid, streams CellStreams, workers int) ([]policy.SimulationResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if streams == nil {
		return nil, fmt.Errorf("parallel sweep requires per-cell streams")
	}
	if workers < 1 {
		workers = 1
	}

	ranked := RankByRisk(table)
	bySlice := make([]*policy.TargetedSlice, len(grid.TargetFractions))
	for i, tp := range grid.TargetFractions {
		bySlice[i] = selectRanked(table, ranked, tp, e.params.FallbackAOV)
	}

	cells := grid.Cells()
	results := make([]policy.SimulationResult, len(cells))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, cell := range cells {
		slice := bySlice[cell.Index/len(grid.Discounts)]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[cell.Index] = e.EvaluateCell(slice, cell, streams.ForCell(cell))
			if e.progress != nil {
				e.progress(int(done.Add(1)), len(cells), results[cell.Index])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := NewAggregator(len(results))
	for _, r := range results {
		agg.Add(r)
	}
	return agg.Ranked(), nil
}
