package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"retainsim/domain/core"
	"retainsim/domain/policy"
	"retainsim/internal/errors"
)

type orderValueRow struct {
	CustomerID string          `db:"cust_uid"`
	Value      sql.NullFloat64 `db:"avg_order_value"`
}

type predictionRow struct {
	CustomerID string          `db:"cust_uid"`
	ChurnProb  sql.NullFloat64 `db:"churn_prob"`
}

// SnapshotTable reads order values from a warehouse snapshot table
type SnapshotTable struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSnapshotTable creates an order-value source over table
func NewSnapshotTable(db *sqlx.DB, table string, timeout time.Duration, logger *zap.Logger) (*SnapshotTable, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotTable{db: db, table: table, timeout: timeout, logger: logger}, nil
}

// LoadOrderValues returns every snapshot row; NULL values are marked missing
func (s *SnapshotTable) LoadOrderValues(ctx context.Context) ([]policy.OrderValue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT cust_uid, avg_order_value FROM %s`, s.table)
	var rows []orderValueRow
	start := time.Now()
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.DatabaseError("failed to load order values from "+s.table, err)
	}
	s.logger.Debug("order values loaded",
		zap.String("table", s.table),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))

	values := make([]policy.OrderValue, 0, len(rows))
	for i, r := range rows {
		id, err := core.ParseCustomerID(r.CustomerID)
		if err != nil {
			return nil, core.NewBadCellError(s.table, i+1, "cust_uid", r.CustomerID)
		}
		v := policy.OrderValue{CustomerID: id}
		if r.Value.Valid && !math.IsNaN(r.Value.Float64) {
			v.Value, v.Valid = r.Value.Float64, true
		}
		values = append(values, v)
	}
	return values, nil
}

// PredictionTable reads churn probabilities from a scored table
type PredictionTable struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

// NewPredictionTable creates a prediction source over table
func NewPredictionTable(db *sqlx.DB, table string, timeout time.Duration) (*PredictionTable, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}
	return &PredictionTable{db: db, table: table, timeout: timeout}, nil
}

// LoadPredictions returns every scored row; a NULL probability is a schema error
func (p *PredictionTable) LoadPredictions(ctx context.Context) ([]policy.Prediction, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT cust_uid, churn_prob FROM %s`, p.table)
	var rows []predictionRow
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.DatabaseError("failed to load predictions from "+p.table, err)
	}

	preds := make([]policy.Prediction, 0, len(rows))
	for i, r := range rows {
		id, err := core.ParseCustomerID(r.CustomerID)
		if err != nil {
			return nil, core.NewBadCellError(p.table, i+1, "cust_uid", r.CustomerID)
		}
		if !r.ChurnProb.Valid {
			return nil, core.NewBadCellError(p.table, i+1, "churn_prob", "NULL")
		}
		preds = append(preds, policy.Prediction{CustomerID: id, ChurnProb: r.ChurnProb.Float64})
	}
	return preds, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
