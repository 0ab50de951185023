package sink

import (
	"context"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"retainsim/domain/policy"
	"retainsim/internal/errors"
)

const (
	resultsSheet = "results"
	runSheet     = "run"
)

// WorkbookSink writes results to an XLSX workbook with a results sheet and
// a run sheet holding the manifest.
type WorkbookSink struct {
	path   string
	logger *zap.Logger
}

// Location returns the output path
func (s *WorkbookSink) Location() string { return s.path }

// Write replaces the workbook at the sink path. Undefined values become empty cells.
func (s *WorkbookSink) Write(ctx context.Context, manifest policy.RunManifest, results []policy.SimulationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureDir(s.path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return errors.Wrap(err, "failed to name results sheet")
	}
	header := make([]interface{}, len(policy.Columns))
	for i, c := range policy.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := workbookRow(r)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+2)
		}
	}

	if _, err := f.NewSheet(runSheet); err != nil {
		return errors.Wrap(err, "failed to create run sheet")
	}
	for i, kv := range manifestRows(manifest) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(runSheet, cell, &kv); err != nil {
			return errors.Wrap(err, "failed to write run sheet")
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return errors.Wrapf(err, "failed to save %s", s.path)
	}
	s.logger.Debug("results written", zap.String("path", s.path), zap.Int("rows", len(results)))
	return nil
}

func workbookRow(r policy.SimulationResult) []interface{} {
	values := r.Values()
	row := make([]interface{}, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			row[i] = nil
			continue
		}
		row[i] = v
	}
	row[2] = r.NTarget
	return row
}

func manifestRows(m policy.RunManifest) [][]interface{} {
	return [][]interface{}{
		{"run_id", m.RunID.String()},
		{"fingerprint", m.Fingerprint.String()},
		{"created_at", m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")},
		{"customers", m.Customers},
		{"workers", m.Workers},
		{"targets", joinFloats(m.Grid.TargetFractions)},
		{"discounts", joinFloats(m.Grid.Discounts)},
		{"margin", m.Params.Margin},
		{"beta", m.Params.Beta},
		{"n_mc", m.Params.Trials},
		{"seed", m.Params.Seed},
		{"fallback_aov", m.Params.FallbackAOV},
	}
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatFloat(v)
	}
	return strings.Join(parts, ",")
}
