package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"retainsim/domain/policy"
	"retainsim/internal/errors"
	"retainsim/ports"
)

// encoder writes results to an open file
type encoder func(f *os.File, manifest policy.RunManifest, results []policy.SimulationResult) error

// FileSink writes results to a path, choosing the encoding by extension
type FileSink struct {
	path   string
	encode encoder
	logger *zap.Logger
}

// New returns the sink for path: .xlsx for a workbook, .json for a document
// with run metadata, anything else for CSV.
func New(path string, logger *zap.Logger) (ports.ResultSink, error) {
	if path == "" {
		return nil, errors.ConfigInvalid("output path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return &WorkbookSink{path: path, logger: logger}, nil
	case ".json":
		return &FileSink{path: path, encode: encodeJSON, logger: logger}, nil
	}
	return &FileSink{path: path, encode: encodeCSV, logger: logger}, nil
}

// Location returns the output path
func (s *FileSink) Location() string { return s.path }

// Write creates the parent directory and replaces the file
func (s *FileSink) Write(ctx context.Context, manifest policy.RunManifest, results []policy.SimulationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ensureDir(s.path); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", s.path)
	}
	if err := s.encode(f, manifest, results); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", s.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", s.path)
	}
	s.logger.Debug("results written", zap.String("path", s.path), zap.Int("rows", len(results)))
	return nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}
