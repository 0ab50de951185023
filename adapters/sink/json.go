package sink

import (
	"encoding/json"
	"os"

	"retainsim/domain/policy"
)

// Document is the JSON output layout
type Document struct {
	Run     policy.RunManifest `json:"run"`
	Results []JSONResult       `json:"results"`
}

func encodeJSON(f *os.File, manifest policy.RunManifest, results []policy.SimulationResult) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Run: manifest, Results: ToJSONResults(results)})
}
