package tabular

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"retainsim/domain/core"
	"retainsim/domain/policy"
)

// PredictionFile reads the churn-probability feed from CSV or XLSX
type PredictionFile struct {
	reader *DataReader
	path   string
}

// NewPredictionFile creates a prediction source for path
func NewPredictionFile(path string, logger *zap.Logger) *PredictionFile {
	return &PredictionFile{reader: NewDataReader(path, logger), path: path}
}

// LoadPredictions returns every row of the feed in file order
func (p *PredictionFile) LoadPredictions(ctx context.Context) ([]policy.Prediction, error) {
	if !p.reader.Exists() {
		return nil, core.NewNotFoundError("churn predictions", p.path, "the snapshot trainer")
	}
	data, err := p.reader.ReadData()
	if err != nil {
		return nil, err
	}
	if missing := data.MissingColumns(ColumnCustomerID, ColumnChurnProb); len(missing) > 0 {
		return nil, core.NewMissingColumnsError(p.path, missing)
	}

	preds := make([]policy.Prediction, 0, len(data.Rows))
	for i, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := i + 2 // header is line 1
		id, err := core.ParseCustomerID(row[ColumnCustomerID])
		if err != nil {
			return nil, core.NewBadCellError(p.path, line, ColumnCustomerID, row[ColumnCustomerID])
		}
		prob, err := parseProbability(row[ColumnChurnProb])
		if err != nil {
			return nil, core.NewBadCellError(p.path, line, ColumnChurnProb, row[ColumnChurnProb])
		}
		preds = append(preds, policy.Prediction{CustomerID: id, ChurnProb: prob})
	}
	return preds, nil
}

// SnapshotFile reads the optional order-value feed from CSV or XLSX
type SnapshotFile struct {
	reader *DataReader
	path   string
	logger *zap.Logger
}

// NewSnapshotFile creates an order-value source for path
func NewSnapshotFile(path string, logger *zap.Logger) *SnapshotFile {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotFile{reader: NewDataReader(path, logger), path: path, logger: logger}
}

// LoadOrderValues returns the feed rows; a missing file yields none
func (s *SnapshotFile) LoadOrderValues(ctx context.Context) ([]policy.OrderValue, error) {
	if s.path == "" || !s.reader.Exists() {
		s.logger.Info("no customer snapshot, order values default to 0", zap.String("path", s.path))
		return nil, nil
	}
	data, err := s.reader.ReadData()
	if err != nil {
		return nil, err
	}
	if missing := data.MissingColumns(ColumnCustomerID, ColumnOrderValue); len(missing) > 0 {
		return nil, core.NewMissingColumnsError(s.path, missing)
	}

	values := make([]policy.OrderValue, 0, len(data.Rows))
	for i, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := i + 2
		id, err := core.ParseCustomerID(row[ColumnCustomerID])
		if err != nil {
			return nil, core.NewBadCellError(s.path, line, ColumnCustomerID, row[ColumnCustomerID])
		}
		v, valid, err := parseOrderValue(row[ColumnOrderValue])
		if err != nil {
			return nil, core.NewBadCellError(s.path, line, ColumnOrderValue, row[ColumnOrderValue])
		}
		values = append(values, policy.OrderValue{CustomerID: id, Value: v, Valid: valid})
	}
	return values, nil
}

func parseProbability(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// parseOrderValue treats empty and null-like cells as missing
func parseOrderValue(raw string) (float64, bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "nan", "null", "na", "none":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false, err
	}
	if v < 0 || math.IsInf(v, 0) {
		return 0, false, strconv.ErrRange
	}
	return v, true, nil
}
