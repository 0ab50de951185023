package sink

import (
	"encoding/csv"
	"os"

	"retainsim/domain/policy"
)

func encodeCSV(f *os.File, _ policy.RunManifest, results []policy.SimulationResult) error {
	w := csv.NewWriter(f)
	if err := w.Write(policy.Columns); err != nil {
		return err
	}
	for _, r := range results {
		if err := w.Write(Record(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
