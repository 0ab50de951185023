package simulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"retainsim/domain/policy"
)

// Expectation is the closed-form profit comparison for one slice and discount
type Expectation struct {
	BaseProfit   float64 // sum p0*aov*margin
	TreatProfit  float64 // sum p1*aov*(margin-d)
	Delta        float64 // TreatProfit - BaseProfit
	DiscountCost float64 // sum p1*aov*d
	ROI          float64 // Delta / DiscountCost, undefined when the cost is 0
	Lift         float64 // mean(p1 - p0), undefined for an empty slice
}

// Expect computes the expected profit terms. p0, p1 and aov must have equal length.
func Expect(p0, p1, aov []float64, margin, discount float64) Expectation {
	// p·aov and p1·aov are shared by every term
	baseMass := floats.Dot(p0, aov)
	treatMass := floats.Dot(p1, aov)

	e := Expectation{
		BaseProfit:   baseMass * margin,
		TreatProfit:  treatMass * (margin - discount),
		DiscountCost: treatMass * discount,
		ROI:          policy.Undefined(),
		Lift:         policy.Undefined(),
	}
	e.Delta = e.TreatProfit - e.BaseProfit
	if e.DiscountCost > 0 {
		e.ROI = e.Delta / e.DiscountCost
	}
	if len(p0) > 0 {
		diff := make([]float64, len(p1))
		floats.SubTo(diff, p1, p0)
		e.Lift = stat.Mean(diff, nil)
	}
	return e
}

// meanOrUndefined is the empty-slice-safe mean used for the avg_* columns
func meanOrUndefined(x []float64) float64 {
	if len(x) == 0 {
		return policy.Undefined()
	}
	return stat.Mean(x, nil)
}
