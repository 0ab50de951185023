package rng

import (
	"math/rand"

	"retainsim/domain/core"
	"retainsim/domain/policy"
)

// Adapter implements ports.RNGPort on math/rand sources
type Adapter struct{}

// New creates an RNG adapter
func New() *Adapter {
	return &Adapter{}
}

// SweepStream creates the single stream shared by a sequential sweep
func (a *Adapter) SweepStream(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// CellStream creates the stream for one cell of a parallel sweep
func (a *Adapter) CellStream(seed int64, cell policy.PolicyCell) *rand.Rand {
	return rand.New(rand.NewSource(core.DeriveCellSeed(seed, cell.Index, cell.TargetFraction, cell.Discount)))
}
