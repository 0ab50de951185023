package main

import (
	"go.uber.org/zap"

	"retainsim/adapters/sqlsource"
	"retainsim/adapters/tabular"
	"retainsim/internal/config"
	"retainsim/ports"
)

// feeds holds the configured input sources and releases them on close
type feeds struct {
	predictions ports.PredictionSource
	orderValues ports.OrderValueSource
	close       func() error
}

// openFeeds wires file sources, switching to SQL for whichever feeds name a table
func openFeeds(cfg *config.Config, logger *zap.Logger) (*feeds, error) {
	f := &feeds{
		predictions: tabular.NewPredictionFile(cfg.Paths.Predictions, logger),
		orderValues: tabular.NewSnapshotFile(cfg.Paths.Snapshot, logger),
		close:       func() error { return nil },
	}
	if cfg.Database.URL == "" {
		return f, nil
	}

	db, err := sqlsource.Open(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	f.close = db.Close

	snapshot, err := sqlsource.NewSnapshotTable(db, cfg.Database.SnapshotTable, cfg.Database.Timeout, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	f.orderValues = snapshot

	if cfg.Database.PredictionsTable != "" {
		preds, err := sqlsource.NewPredictionTable(db, cfg.Database.PredictionsTable, cfg.Database.Timeout)
		if err != nil {
			db.Close()
			return nil, err
		}
		f.predictions = preds
	}
	logger.Info("reading order values from database",
		zap.String("table", cfg.Database.SnapshotTable),
		zap.String("predictions_table", cfg.Database.PredictionsTable))
	return f, nil
}
