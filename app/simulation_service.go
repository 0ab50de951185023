package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"retainsim/domain/core"
	"retainsim/domain/policy"
	"retainsim/internal/errors"
	"retainsim/internal/metrics"
	"retainsim/internal/profiling"
	"retainsim/internal/simulation"
	"retainsim/ports"
)

// SimulationService loads the customer feeds, sweeps a policy grid and
// reports ranked results with a run manifest.
type SimulationService struct {
	predictions ports.PredictionSource
	orderValues ports.OrderValueSource
	rngPort     ports.RNGPort
	profiler    *profiling.TableProfiler
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// SimulationRequest defines the inputs for one sweep
type SimulationRequest struct {
	Grid     policy.Grid
	Params   policy.Params
	Workers  int                     // 1 or less is the shared-stream sweep
	RunID    core.RunID              // optional, generated if empty
	Progress simulation.ProgressFunc // optional
}

// SimulationRun contains the complete output of a sweep
type SimulationRun struct {
	Manifest  policy.RunManifest
	Results   []policy.SimulationResult // ranked
	Profile   profiling.TableProfile
	RuntimeMs int64
}

// ServiceOption configures a SimulationService
type ServiceOption func(*SimulationService)

// WithMetrics records sweep counters
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *SimulationService) { s.metrics = m }
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *SimulationService) { s.logger = l }
}

// NewSimulationService creates a simulation service. orderValues may be nil
// when no snapshot is configured.
func NewSimulationService(predictions ports.PredictionSource, orderValues ports.OrderValueSource, rngPort ports.RNGPort, opts ...ServiceOption) *SimulationService {
	s := &SimulationService{
		predictions: predictions,
		orderValues: orderValues,
		rngPort:     rngPort,
		profiler:    profiling.NewTableProfiler(),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadTable reads both feeds and normalizes them into one record per customer
func (s *SimulationService) LoadTable(ctx context.Context) (*policy.CustomerTable, error) {
	return s.TableFrom(ctx, nil, nil)
}

// TableFrom normalizes the given rows into a customer table. A nil feed is
// read from the configured source instead; an empty non-nil feed is used as is.
func (s *SimulationService) TableFrom(ctx context.Context, preds []policy.Prediction, values []policy.OrderValue) (*policy.CustomerTable, error) {
	var err error
	if preds == nil {
		if preds, err = s.LoadPredictions(ctx); err != nil {
			return nil, err
		}
	}
	if values == nil {
		if values, err = s.LoadOrderValues(ctx); err != nil {
			return nil, err
		}
	}

	table, err := simulation.Normalize(preds, values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize customer table")
	}
	s.logger.Info("customer table loaded",
		zap.Int("prediction_rows", len(preds)),
		zap.Int("order_value_rows", len(values)),
		zap.Int("customers", table.Len()))
	return table, nil
}

// LoadPredictions reads the configured churn-score feed
func (s *SimulationService) LoadPredictions(ctx context.Context) ([]policy.Prediction, error) {
	if s.predictions == nil {
		return nil, errors.ConfigInvalid("no prediction source configured")
	}
	preds, err := s.predictions.LoadPredictions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load churn predictions")
	}
	if preds == nil {
		preds = []policy.Prediction{}
	}
	return preds, nil
}

// LoadOrderValues reads the configured snapshot. Without one every customer
// has a missing order value.
func (s *SimulationService) LoadOrderValues(ctx context.Context) ([]policy.OrderValue, error) {
	if s.orderValues == nil {
		return []policy.OrderValue{}, nil
	}
	values, err := s.orderValues.LoadOrderValues(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load order values")
	}
	if values == nil {
		values = []policy.OrderValue{}
	}
	return values, nil
}

// Run loads the feeds and sweeps the grid over them
func (s *SimulationService) Run(ctx context.Context, req SimulationRequest) (*SimulationRun, error) {
	table, err := s.LoadTable(ctx)
	if err != nil {
		return nil, err
	}
	return s.Simulate(ctx, table, req)
}

// Simulate sweeps the grid over an already normalized table
func (s *SimulationService) Simulate(ctx context.Context, table *policy.CustomerTable, req SimulationRequest) (*SimulationRun, error) {
	startTime := time.Now()
	if table == nil {
		table = &policy.CustomerTable{}
	}

	runID := req.RunID
	if runID.IsEmpty() {
		runID = core.NewRunID()
	}
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}

	if err := req.Grid.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid policy grid")
	}
	var opts []simulation.Option
	if req.Progress != nil {
		opts = append(opts, simulation.WithProgress(req.Progress))
	}
	engine, err := simulation.NewEngine(req.Params, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid simulation parameters")
	}

	profile, err := s.profiler.Profile(table)
	if err != nil {
		return nil, errors.Wrap(err, "failed to profile customer table")
	}

	manifest := policy.RunManifest{
		RunID:       runID,
		Fingerprint: policy.Fingerprint(req.Grid, req.Params, workers, table.Digest()),
		CreatedAt:   s.now().UTC(),
		Grid:        req.Grid,
		Params:      req.Params,
		Customers:   table.Len(),
		Workers:     workers,
	}
	logger := s.logger.With(zap.String("run_id", runID.String()), zap.String("fingerprint", manifest.Fingerprint.Short()))
	logger.Info("starting policy sweep", append(profile.Fields(),
		zap.Int("cells", req.Grid.Size()),
		zap.Int("workers", workers),
		zap.Int("n_mc", req.Params.Trials),
		zap.Int64("seed", req.Params.Seed))...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []policy.SimulationResult
	if workers == 1 {
		results, err = engine.Sweep(table, req.Grid, s.rngPort.SweepStream(req.Params.Seed))
	} else {
		streams := portStreams{port: s.rngPort, seed: req.Params.Seed}
		results, err = engine.SweepParallel(ctx, table, req.Grid, streams, workers)
	}
	elapsed := time.Since(startTime)
	s.metrics.ObserveSweep(req.Grid.Size(), elapsed, err)
	if err != nil {
		return nil, errors.Wrap(err, "policy sweep failed")
	}

	if len(results) > 0 {
		best := results[0]
		logger.Info("policy sweep complete",
			zap.Int("cells", len(results)),
			zap.Duration("elapsed", elapsed),
			zap.Float64("best_target_pct", best.TargetPct),
			zap.Float64("best_discount", best.Discount),
			zap.Float64("best_delta_expectation", best.DeltaProfitExpectation))
	}

	return &SimulationRun{
		Manifest:  manifest,
		Results:   results,
		Profile:   profile,
		RuntimeMs: elapsed.Milliseconds(),
	}, nil
}

// portStreams adapts an RNGPort to the engine's per-cell stream interface
type portStreams struct {
	port ports.RNGPort
	seed int64
}

func (p portStreams) ForCell(cell policy.PolicyCell) simulation.Source {
	return p.port.CellStream(p.seed, cell)
}
