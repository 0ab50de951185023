package simulation

import "retainsim/domain/policy"

// TreatedProbability maps a baseline return probability to its value under a
// discount d: p1 = clip(p0 + beta*d*(1-p0), 0, 1).
func TreatedProbability(p0, discount, beta float64) float64 {
	return policy.Clip(p0+beta*discount*(1-p0), 0, 1)
}

// Treat applies TreatedProbability element-wise
func Treat(p0 []float64, discount, beta float64) []float64 {
	p1 := make([]float64, len(p0))
	for i, p := range p0 {
		p1[i] = TreatedProbability(p, discount, beta)
	}
	return p1
}
