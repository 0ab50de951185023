package policy

import (
	"encoding/json"
	"time"

	"retainsim/domain/core"
)

// RunManifest describes one sweep: what was evaluated and under which settings
type RunManifest struct {
	RunID       core.RunID `json:"run_id"`
	Fingerprint core.Hash  `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
	Grid        Grid       `json:"grid"`
	Params      Params     `json:"params"`
	Customers   int        `json:"customers"`
	Workers     int        `json:"workers"` // 1 is the shared-stream sweep
}

// Fingerprint hashes the inputs that determine a sweep's output. Two runs
// with the same fingerprint over the same table produce identical results.
func Fingerprint(grid Grid, params Params, workers int, tableDigest core.Hash) core.Hash {
	streams := "shared"
	if workers > 1 {
		streams = "per-cell"
	}
	payload, _ := json.Marshal(struct {
		Grid    Grid      `json:"grid"`
		Params  Params    `json:"params"`
		Streams string    `json:"streams"`
		Table   core.Hash `json:"table"`
	}{grid, params, streams, tableDigest})
	return core.NewHash(payload)
}

// Digest hashes the normalized table contents in order
func (t *CustomerTable) Digest() core.Hash {
	payload, _ := json.Marshal(t.recordsOrEmpty())
	return core.NewHash(payload)
}

func (t *CustomerTable) recordsOrEmpty() []CustomerRecord {
	if t == nil || t.Records == nil {
		return []CustomerRecord{}
	}
	return t.Records
}
