package ports

import (
	"context"

	"retainsim/domain/policy"
)

// ResultSink persists the ranked results of one sweep
type ResultSink interface {
	Write(ctx context.Context, manifest policy.RunManifest, results []policy.SimulationResult) error
	// Location names where the results went, for the completion message
	Location() string
}
