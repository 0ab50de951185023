package api

import (
	"fmt"

	"retainsim/adapters/sink"
	"retainsim/domain/core"
	"retainsim/domain/policy"
)

// PredictionIn is one inline churn-probability row
type PredictionIn struct {
	CustomerID string  `json:"customer_id"`
	ChurnProb  float64 `json:"churn_probability"`
}

// OrderValueIn is one inline order-value row; null means missing
type OrderValueIn struct {
	CustomerID string   `json:"customer_id"`
	Value      *float64 `json:"average_order_value"`
}

// SimulateRequest is the POST /v1/simulate body. Omitted fields take the
// server defaults. An omitted predictions or order_values list is read from
// the configured feed; an explicit empty list means no rows.
type SimulateRequest struct {
	Predictions []PredictionIn `json:"predictions,omitempty"`
	OrderValues []OrderValueIn `json:"order_values,omitempty"`
	Targets     []float64      `json:"targets,omitempty"`
	Discounts   []float64      `json:"discounts,omitempty"`
	Margin      *float64       `json:"margin,omitempty"`
	Beta        *float64       `json:"beta,omitempty"`
	Trials      *int           `json:"n_mc,omitempty"`
	Seed        *int64         `json:"seed,omitempty"`
	FallbackAOV *float64       `json:"fallback_aov,omitempty"`
	Parallel    *int           `json:"parallel,omitempty"`
}

// SimulateResponse carries the ranked results of one sweep
type SimulateResponse struct {
	RunID       core.RunID        `json:"run_id"`
	Fingerprint core.Hash         `json:"fingerprint"`
	Customers   int               `json:"customers"`
	Grid        policy.Grid       `json:"grid"`
	Params      policy.Params     `json:"params"`
	Cached      bool              `json:"cached"`
	RuntimeMs   int64             `json:"runtime_ms"`
	Results     []sink.JSONResult `json:"results"`
}

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the error class and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// inputs converts inline rows into the feed contract. An omitted feed stays
// nil so that the configured source is read for it.
func (r SimulateRequest) inputs() ([]policy.Prediction, []policy.OrderValue, error) {
	var preds []policy.Prediction
	if r.Predictions != nil {
		preds = make([]policy.Prediction, 0, len(r.Predictions))
	}
	for i, p := range r.Predictions {
		id, err := core.ParseCustomerID(p.CustomerID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: predictions[%d]: %v", core.ErrSchema, i, err)
		}
		preds = append(preds, policy.Prediction{CustomerID: id, ChurnProb: p.ChurnProb})
	}
	var values []policy.OrderValue
	if r.OrderValues != nil {
		values = make([]policy.OrderValue, 0, len(r.OrderValues))
	}
	for i, v := range r.OrderValues {
		id, err := core.ParseCustomerID(v.CustomerID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: order_values[%d]: %v", core.ErrSchema, i, err)
		}
		ov := policy.OrderValue{CustomerID: id}
		if v.Value != nil {
			ov.Value, ov.Valid = *v.Value, true
		}
		values = append(values, ov)
	}
	return preds, values, nil
}

// settings overlays the request on the server defaults
func (r SimulateRequest) settings(grid policy.Grid, params policy.Params, workers int) (policy.Grid, policy.Params, int) {
	if len(r.Targets) > 0 {
		grid.TargetFractions = r.Targets
	}
	if len(r.Discounts) > 0 {
		grid.Discounts = r.Discounts
	}
	if r.Margin != nil {
		params.Margin = *r.Margin
	}
	if r.Beta != nil {
		params.Beta = *r.Beta
	}
	if r.Trials != nil {
		params.Trials = *r.Trials
	}
	if r.Seed != nil {
		params.Seed = *r.Seed
	}
	if r.FallbackAOV != nil {
		params.FallbackAOV = *r.FallbackAOV
	}
	if r.Parallel != nil {
		workers = *r.Parallel
	}
	return grid, params, workers
}
