package ports

import (
	"math/rand"

	"retainsim/domain/policy"
)

// RNGPort provides seeded random number generation for deterministic sweeps
type RNGPort interface {
	// SweepStream creates the single stream shared by every cell of a sequential sweep
	SweepStream(seed int64) *rand.Rand

	// CellStream creates an independent stream for one cell of a parallel sweep.
	// The stream depends only on the base seed and the cell's identity.
	CellStream(seed int64, cell policy.PolicyCell) *rand.Rand
}
