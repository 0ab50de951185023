package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpect_WorkedScenario(t *testing.T) {
	p0 := []float64{0.1, 0.5}
	p1 := Treat(p0, 0.1, 0.5)
	e := Expect(p0, p1, []float64{50, 0}, 0.25, 0.1)

	assert.InDelta(t, 1.25, e.BaseProfit, 1e-9)
	assert.InDelta(t, 1.0875, e.TreatProfit, 1e-9)
	assert.InDelta(t, -0.1625, e.Delta, 1e-9)
	assert.InDelta(t, 0.725, e.DiscountCost, 1e-9)
	assert.InDelta(t, -0.2241379, e.ROI, 1e-6)
	assert.InDelta(t, 0.035, e.Lift, 1e-9)
}

func TestExpect_ROIUndefinedIffZeroCost(t *testing.T) {
	p0 := []float64{0.3, 0.6}

	zeroDiscount := Expect(p0, Treat(p0, 0, 0.5), []float64{10, 20}, 0.25, 0)
	assert.Equal(t, 0.0, zeroDiscount.DiscountCost)
	assert.True(t, math.IsNaN(zeroDiscount.ROI))

	zeroValue := Expect(p0, Treat(p0, 0.1, 0.5), []float64{0, 0}, 0.25, 0.1)
	assert.True(t, math.IsNaN(zeroValue.ROI))

	priced := Expect(p0, Treat(p0, 0.1, 0.5), []float64{10, 20}, 0.25, 0.1)
	assert.Greater(t, priced.DiscountCost, 0.0)
	assert.False(t, math.IsNaN(priced.ROI))
	assert.False(t, math.IsInf(priced.ROI, 0))
}

func TestExpect_EmptySlice(t *testing.T) {
	e := Expect(nil, nil, nil, 0.25, 0.1)
	assert.Equal(t, 0.0, e.BaseProfit)
	assert.Equal(t, 0.0, e.TreatProfit)
	assert.Equal(t, 0.0, e.Delta)
	assert.True(t, math.IsNaN(e.Lift))
	assert.True(t, math.IsNaN(e.ROI))
}
