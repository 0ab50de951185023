package simulation

import (
	"cmp"
	"math"
	"slices"

	"retainsim/domain/policy"
)

// TargetCount returns k = ceil(tp * n), bounded by n
func TargetCount(targetFraction float64, n int) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Ceil(targetFraction * float64(n)))
	if k > n {
		k = n
	}
	if k < 0 {
		k = 0
	}
	return k
}

// RankByRisk returns record indices ordered by churn probability descending.
// The sort is stable, so equal probabilities keep table order.
func RankByRisk(table *policy.CustomerTable) []int {
	order := make([]int, table.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(table.Records[b].ChurnProb, table.Records[a].ChurnProb)
	})
	return order
}

// Select takes the k riskiest customers for a target fraction.
// When every order value in the slice is non-positive the whole slice uses
// fallbackAOV instead; the check is per slice.
func Select(table *policy.CustomerTable, targetFraction, fallbackAOV float64) *policy.TargetedSlice {
	return selectRanked(table, RankByRisk(table), targetFraction, fallbackAOV)
}

func selectRanked(table *policy.CustomerTable, ranked []int, targetFraction, fallbackAOV float64) *policy.TargetedSlice {
	k := TargetCount(targetFraction, table.Len())
	slice := &policy.TargetedSlice{
		TargetFraction: targetFraction,
		Customers:      make([]policy.CustomerRecord, k),
		P0:             make([]float64, k),
		AOV:            make([]float64, k),
	}

	anyPositive := false
	for i := 0; i < k; i++ {
		rec := table.Records[ranked[i]]
		slice.Customers[i] = rec
		slice.P0[i] = rec.P0()
		slice.AOV[i] = rec.AvgOrderValue
		if rec.AvgOrderValue > 0 {
			anyPositive = true
		}
	}

	if k > 0 && !anyPositive {
		for i := range slice.AOV {
			slice.AOV[i] = fallbackAOV
		}
		slice.FellBack = true
	}
	return slice
}
