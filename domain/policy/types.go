package policy

import (
	"fmt"
	"math"

	"retainsim/domain/core"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// Epsilon keeps baseline return probabilities strictly inside (0,1)
	Epsilon = 1e-6
	// DefaultFallbackAOV replaces order values for a slice with no positive value
	DefaultFallbackAOV = 100.0
	// CILowerPercentile and CIUpperPercentile bound the 95% Monte Carlo interval
	CILowerPercentile = 2.5
	CIUpperPercentile = 97.5
)

// Undefined is the not-a-number sentinel used for quantities that have no
// value: ROI with zero discount cost, and every mean over an empty slice.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v is the undefined sentinel
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// ============================================================================
// INPUT CONTRACT
// ============================================================================

// Prediction is one row of the churn-probability feed
type Prediction struct {
	CustomerID core.CustomerID `json:"customer_id"`
	ChurnProb  float64         `json:"churn_probability"`
}

// OrderValue is one row of the optional order-value feed. Valid=false means
// the cell was empty or null upstream.
type OrderValue struct {
	CustomerID core.CustomerID `json:"customer_id"`
	Value      float64         `json:"average_order_value"`
	Valid      bool            `json:"-"`
}

// CustomerRecord is one normalized customer: exactly one per id
type CustomerRecord struct {
	ID            core.CustomerID `json:"customer_id"`
	ChurnProb     float64         `json:"churn_probability"`
	AvgOrderValue float64         `json:"average_order_value"` // 0 when missing
}

// P0 is the clipped baseline return probability 1 - churn
func (c CustomerRecord) P0() float64 {
	return Clip(1-c.ChurnProb, Epsilon, 1-Epsilon)
}

// CustomerTable is the normalized table in first-occurrence order of ids
type CustomerTable struct {
	Records []CustomerRecord
}

// Len returns the number of distinct customers
func (t *CustomerTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// ============================================================================
// POLICY GRID
// ============================================================================

// PolicyCell is one (target fraction, discount) combination under evaluation
type PolicyCell struct {
	Index          int     `json:"index"` // position in sweep order
	TargetFraction float64 `json:"target_pct"`
	Discount       float64 `json:"discount"`
}

func (c PolicyCell) String() string {
	return fmt.Sprintf("cell[%d](tp=%g,d=%g)", c.Index, c.TargetFraction, c.Discount)
}

// Grid is the configured cross product. Cells are not deduplicated.
type Grid struct {
	TargetFractions []float64 `json:"target_fractions" yaml:"targets"`
	Discounts       []float64 `json:"discounts" yaml:"discounts"`
}

// Size returns the number of policy cells
func (g Grid) Size() int {
	return len(g.TargetFractions) * len(g.Discounts)
}

// Cells enumerates the grid in sweep order: target fractions outer, discounts inner
func (g Grid) Cells() []PolicyCell {
	cells := make([]PolicyCell, 0, g.Size())
	for _, tp := range g.TargetFractions {
		for _, d := range g.Discounts {
			cells = append(cells, PolicyCell{Index: len(cells), TargetFraction: tp, Discount: d})
		}
	}
	return cells
}

// Validate checks every grid value is inside its admissible range
func (g Grid) Validate() error {
	if len(g.TargetFractions) == 0 {
		return fmt.Errorf("%w: no target fractions", core.ErrEmptyGrid)
	}
	if len(g.Discounts) == 0 {
		return fmt.Errorf("%w: no discount levels", core.ErrEmptyGrid)
	}
	for _, tp := range g.TargetFractions {
		if math.IsNaN(tp) || tp <= 0 || tp > 1 {
			return core.NewInvalidParamError("targets", tp, "target fraction must be in (0,1]")
		}
	}
	for _, d := range g.Discounts {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return core.NewInvalidParamError("discounts", d, "discount must be a non-negative number")
		}
	}
	return nil
}

// ============================================================================
// SIMULATION PARAMETERS
// ============================================================================

// Params are the scalars shared by every cell of one sweep
type Params struct {
	Margin      float64 `json:"margin" yaml:"margin"`             // profit fraction before discount
	Beta        float64 `json:"beta" yaml:"beta"`                 // treatment elasticity
	Trials      int     `json:"n_mc" yaml:"n_mc"`                 // Monte Carlo draws per cell
	Seed        int64   `json:"seed" yaml:"seed"`                 // stream seed for the whole sweep
	FallbackAOV float64 `json:"fallback_aov" yaml:"fallback_aov"` // slice-level placeholder order value
}

// DefaultParams mirrors the defaults of the upstream simulation script
func DefaultParams() Params {
	return Params{
		Margin:      0.25,
		Beta:        0.50,
		Trials:      300,
		Seed:        42,
		FallbackAOV: DefaultFallbackAOV,
	}
}

// Validate checks the scalar parameters
func (p Params) Validate() error {
	if math.IsNaN(p.Margin) || math.IsInf(p.Margin, 0) {
		return core.NewInvalidParamError("margin", p.Margin, "must be finite")
	}
	if math.IsNaN(p.Beta) || math.IsInf(p.Beta, 0) {
		return core.NewInvalidParamError("beta", p.Beta, "must be finite")
	}
	if p.Trials < 1 {
		return core.NewInvalidParamError("n-mc", p.Trials, "must be at least 1")
	}
	if math.IsNaN(p.FallbackAOV) || p.FallbackAOV <= 0 {
		return core.NewInvalidParamError("fallback-aov", p.FallbackAOV, "must be positive")
	}
	return nil
}

// ============================================================================
// SLICE AND RESULT
// ============================================================================

// TargetedSlice holds the customers chosen for one target fraction, in rank order
type TargetedSlice struct {
	TargetFraction float64
	Customers      []CustomerRecord
	P0             []float64
	AOV            []float64 // after the slice-level fallback
	FellBack       bool      // true when AOV was replaced by the placeholder
}

// Len returns k, the slice size
func (s *TargetedSlice) Len() int { return len(s.P0) }

// SimulationResult is the immutable summary row for one policy cell
type SimulationResult struct {
	TargetPct              float64 `json:"target_pct"`
	Discount               float64 `json:"discount"`
	NTarget                int     `json:"n_target"`
	AvgAOV                 float64 `json:"avg_aov"`
	AvgP0                  float64 `json:"avg_p0"`
	AvgP1                  float64 `json:"avg_p1"`
	LiftAbs                float64 `json:"lift_abs"`
	DeltaProfitExpectation float64 `json:"delta_profit_expectation"`
	DeltaProfitMCMean      float64 `json:"delta_profit_mc_mean"`
	DeltaProfitCILo        float64 `json:"delta_profit_ci_lo"`
	DeltaProfitCIHi        float64 `json:"delta_profit_ci_hi"`
	TreatROI               float64 `json:"treat_roi"`

	CellIndex int `json:"-"` // sweep position, last-resort tie-break
}

// Columns is the output column order
var Columns = []string{
	"target_pct", "discount", "n_target", "avg_aov", "avg_p0", "avg_p1", "lift_abs",
	"delta_profit_expectation", "delta_profit_mc_mean", "delta_profit_ci_lo",
	"delta_profit_ci_hi", "treat_roi",
}

// Values returns the numeric fields in Columns order
func (r SimulationResult) Values() []float64 {
	return []float64{
		r.TargetPct, r.Discount, float64(r.NTarget), r.AvgAOV, r.AvgP0, r.AvgP1, r.LiftAbs,
		r.DeltaProfitExpectation, r.DeltaProfitMCMean, r.DeltaProfitCILo,
		r.DeltaProfitCIHi, r.TreatROI,
	}
}

// CIWidth is the width of the Monte Carlo interval
func (r SimulationResult) CIWidth() float64 {
	return r.DeltaProfitCIHi - r.DeltaProfitCILo
}

// Clip bounds v to [lo, hi]
func Clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
