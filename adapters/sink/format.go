package sink

import (
	"math"
	"strconv"

	"retainsim/domain/policy"
)

// FormatFloat renders a value for text outputs; the undefined sentinel is "NaN"
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Record renders one result in policy.Columns order
func Record(r policy.SimulationResult) []string {
	values := r.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatFloat(v)
	}
	out[2] = strconv.Itoa(r.NTarget)
	return out
}

// JSONResult mirrors policy.SimulationResult with undefined values as null
type JSONResult struct {
	TargetPct              float64  `json:"target_pct"`
	Discount               float64  `json:"discount"`
	NTarget                int      `json:"n_target"`
	AvgAOV                 *float64 `json:"avg_aov"`
	AvgP0                  *float64 `json:"avg_p0"`
	AvgP1                  *float64 `json:"avg_p1"`
	LiftAbs                *float64 `json:"lift_abs"`
	DeltaProfitExpectation *float64 `json:"delta_profit_expectation"`
	DeltaProfitMCMean      *float64 `json:"delta_profit_mc_mean"`
	DeltaProfitCILo        *float64 `json:"delta_profit_ci_lo"`
	DeltaProfitCIHi        *float64 `json:"delta_profit_ci_hi"`
	TreatROI               *float64 `json:"treat_roi"`
}

// ToJSONResults converts results for encoding/json, which rejects NaN
func ToJSONResults(results []policy.SimulationResult) []JSONResult {
	out := make([]JSONResult, len(results))
	for i, r := range results {
		out[i] = JSONResult{
			TargetPct:              r.TargetPct,
			Discount:               r.Discount,
			NTarget:                r.NTarget,
			AvgAOV:                 nullable(r.AvgAOV),
			AvgP0:                  nullable(r.AvgP0),
			AvgP1:                  nullable(r.AvgP1),
			LiftAbs:                nullable(r.LiftAbs),
			DeltaProfitExpectation: nullable(r.DeltaProfitExpectation),
			DeltaProfitMCMean:      nullable(r.DeltaProfitMCMean),
			DeltaProfitCILo:        nullable(r.DeltaProfitCILo),
			DeltaProfitCIHi:        nullable(r.DeltaProfitCIHi),
			TreatROI:               nullable(r.TreatROI),
		}
	}
	return out
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
