package simulation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"retainsim/domain/policy"
)

// Source is the random stream consumed by the Monte Carlo engine.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// MCSummary is the empirical distribution summary of the realized profit delta
type MCSummary struct {
	Mean   float64
	CILo   float64 // 2.5th percentile
	CIHi   float64 // 97.5th percentile
	StdErr float64 // standard error of Mean
	Trials int
}

// Width is CIHi - CILo
func (s MCSummary) Width() float64 { return s.CIHi - s.CILo }

// MonteCarlo estimates the realized profit-delta distribution over `trials`
// independent draws.
//
// Every trial draws b0 ~ Bernoulli(p0) and b1 ~ Bernoulli(p1) independently for
// each customer. Both arms are treated as observable at once; this is a
// variance approximation, not a paired counterfactual. Within a trial all
// baseline draws come first in slice order, then all treated draws, so a
// cell consumes exactly 2*k*trials values from rng.
func MonteCarlo(rng Source, p0, p1, aov []float64, margin, discount float64, trials int) MCSummary {
	k := len(p0)
	treatGain := make([]float64, k)
	baseGain := make([]float64, k)
	for i := 0; i < k; i++ {
		treatGain[i] = aov[i] * (margin - discount)
		baseGain[i] = aov[i] * margin
	}

	deltas := make([]float64, trials)
	for t := 0; t < trials; t++ {
		var base, treated float64
		for i := 0; i < k; i++ {
			if bernoulli(rng, p0[i]) {
				base += baseGain[i]
			}
		}
		for i := 0; i < k; i++ {
			if bernoulli(rng, p1[i]) {
				treated += treatGain[i]
			}
		}
		deltas[t] = treated - base
	}

	return summarize(deltas)
}

func summarize(deltas []float64) MCSummary {
	if len(deltas) == 0 {
		u := policy.Undefined()
		return MCSummary{Mean: u, CILo: u, CIHi: u, StdErr: u}
	}
	sorted := append([]float64(nil), deltas...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(deltas, nil)
	stdErr := 0.0
	if len(deltas) > 1 {
		stdErr = std / math.Sqrt(float64(len(deltas)))
	}
	return MCSummary{
		Mean:   mean,
		CILo:   Percentile(sorted, policy.CILowerPercentile),
		CIHi:   Percentile(sorted, policy.CIUpperPercentile),
		StdErr: stdErr,
		Trials: len(deltas),
	}
}

func bernoulli(rng Source, p float64) bool {
	return rng.Float64() < p
}

// Percentile interpolates linearly between the closest ranks of an ascending
// slice (the numpy "linear" method). q is in [0,100].
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return policy.Undefined()
	}
	if n == 1 {
		return sorted[0]
	}
	h := (float64(n) - 1) * q / 100
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	if i < 0 {
		return sorted[0]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
