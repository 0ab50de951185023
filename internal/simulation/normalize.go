package simulation

import (
	"fmt"
	"math"

	"retainsim/domain/core"
	"retainsim/domain/policy"
)

// Normalize merges the churn-probability feed with the optional order-value
// feed into one record per customer.
//
// Duplicate prediction ids keep the highest probability; among equal maxima the
// earliest row wins. The output keeps the order in which ids first appear in
// the prediction feed, which is the secondary ranking key for targeting.
// Order values are left-joined: ids absent from the order feed, and null
// cells, get 0. A duplicated id in the order feed keeps its first non-null value.
func Normalize(preds []policy.Prediction, values []policy.OrderValue) (*policy.CustomerTable, error) {
	position := make(map[core.CustomerID]int, len(preds))
	records := make([]policy.CustomerRecord, 0, len(preds))

	for row, p := range preds {
		if p.CustomerID.IsEmpty() {
			return nil, fmt.Errorf("%w: prediction row %d has an empty customer id", core.ErrSchema, row)
		}
		if math.IsNaN(p.ChurnProb) || p.ChurnProb < 0 || p.ChurnProb > 1 {
			return nil, fmt.Errorf("%w: customer %s churn probability %v outside [0,1]",
				core.ErrSchema, p.CustomerID, p.ChurnProb)
		}
		if idx, seen := position[p.CustomerID]; seen {
			// strict comparison keeps the earlier row on ties
			if p.ChurnProb > records[idx].ChurnProb {
				records[idx].ChurnProb = p.ChurnProb
			}
			continue
		}
		position[p.CustomerID] = len(records)
		records = append(records, policy.CustomerRecord{ID: p.CustomerID, ChurnProb: p.ChurnProb})
	}

	assigned := make(map[core.CustomerID]bool, len(values))
	for _, v := range values {
		idx, ok := position[v.CustomerID]
		if !ok || assigned[v.CustomerID] {
			continue
		}
		if !v.Valid || math.IsNaN(v.Value) {
			continue
		}
		if v.Value < 0 || math.IsInf(v.Value, 0) {
			return nil, fmt.Errorf("%w: customer %s average order value %v must be a non-negative number",
				core.ErrSchema, v.CustomerID, v.Value)
		}
		records[idx].AvgOrderValue = v.Value
		assigned[v.CustomerID] = true
	}

	return &policy.CustomerTable{Records: records}, nil
}
