package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreatedProbability(t *testing.T) {
	assert.InDelta(t, 0.145, TreatedProbability(0.1, 0.1, 0.5), 1e-12)
	assert.InDelta(t, 0.525, TreatedProbability(0.5, 0.1, 0.5), 1e-12)
	assert.Equal(t, 0.3, TreatedProbability(0.3, 0, 0.5), "no discount, no lift")
}

func TestTreatedProbabilityIsClipped(t *testing.T) {
	for _, p0 := range []float64{1e-6, 0.2, 0.7, 1 - 1e-6} {
		high := TreatedProbability(p0, 5, 100)
		low := TreatedProbability(p0, 5, -100)
		assert.GreaterOrEqual(t, high, 0.0)
		assert.LessOrEqual(t, high, 1.0)
		assert.GreaterOrEqual(t, low, 0.0)
		assert.LessOrEqual(t, low, 1.0)
	}
	assert.Equal(t, 1.0, TreatedProbability(0.2, 5, 100))
	assert.Equal(t, 0.0, TreatedProbability(0.2, 5, -100))
}

func TestTreatPreservesLength(t *testing.T) {
	p1 := Treat([]float64{0.1, 0.5}, 0.1, 0.5)
	assert.Len(t, p1, 2)
	assert.Empty(t, Treat(nil, 0.1, 0.5))
}
