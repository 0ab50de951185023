package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"retainsim/adapters/sink"
	"retainsim/app"
	"retainsim/domain/core"
	"retainsim/domain/policy"
	"retainsim/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSimulate runs one sweep. Identical inputs are served from the cache,
// keyed by the run fingerprint, with a fresh run id.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.InvalidInput(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	grid, params, workers := req.settings(s.opts.Grid, s.opts.Params, s.opts.Workers)
	if workers < 1 {
		workers = 1
	}
	if err := grid.Validate(); err != nil {
		s.writeError(w, errors.Wrap(err, "invalid policy grid"))
		return
	}
	if err := params.Validate(); err != nil {
		s.writeError(w, errors.Wrap(err, "invalid simulation parameters"))
		return
	}
	if err := s.checkBudget(grid, params, workers); err != nil {
		s.writeError(w, err)
		return
	}

	table, err := s.table(r, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fingerprint := policy.Fingerprint(grid, params, workers, table.Digest())
	if cached, ok := s.cache.Get(fingerprint); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		cached.RunID = core.NewRunID()
		cached.Cached = true
		cached.RuntimeMs = 0
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	run, err := s.service.Simulate(r.Context(), table, app.SimulationRequest{
		Grid:    grid,
		Params:  params,
		Workers: workers,
	})
	if err != nil {
		s.logger.Warn("simulate request failed", zap.Error(err))
		s.writeError(w, err)
		return
	}

	resp := SimulateResponse{
		RunID:       run.Manifest.RunID,
		Fingerprint: run.Manifest.Fingerprint,
		Customers:   run.Manifest.Customers,
		Grid:        grid,
		Params:      params,
		RuntimeMs:   run.RuntimeMs,
		Results:     sink.ToJSONResults(run.Results),
	}
	s.cache.Add(fingerprint, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// checkBudget bounds the work one request may ask for
func (s *Server) checkBudget(grid policy.Grid, params policy.Params, workers int) error {
	if workers > s.opts.MaxWorkers {
		return errors.ValidationError(fmt.Sprintf("parallel must be at most %d, got %d", s.opts.MaxWorkers, workers))
	}
	cells := grid.Size()
	if s.opts.MaxWork > 0 && cells > 0 && params.Trials > s.opts.MaxWork/cells {
		return errors.ValidationError(fmt.Sprintf("n_mc %d over %d policies exceeds the limit of %d trials per request",
			params.Trials, cells, s.opts.MaxWork))
	}
	return nil
}

// table builds the customer table from inline rows, reading each omitted
// feed from the configured source.
func (s *Server) table(r *http.Request, req SimulateRequest) (*policy.CustomerTable, error) {
	preds, values, err := req.inputs()
	if err != nil {
		return nil, err
	}
	return s.service.TableFrom(r.Context(), preds, values)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, errors.HTTPStatus(err), ErrorBody{Error: ErrorDetail{
		Code:    errors.GetCode(err),
		Message: err.Error(),
	}})
}
