package profiling

import (
	"go.uber.org/zap"

	"retainsim/domain/policy"
)

// TableProfile describes the normalized customer table before a sweep
type TableProfile struct {
	Customers       int           `json:"customers"`
	ChurnProb       ColumnSummary `json:"churn_probability"`
	OrderValue      ColumnSummary `json:"average_order_value"` // positive values only
	ZeroOrderValues int           `json:"zero_order_values"`   // missing or zero upstream
}

// TableProfiler orchestrates profiling of a customer table
type TableProfiler struct {
	analyzer *DistributionAnalyzer
}

// NewTableProfiler creates a new table profiler
func NewTableProfiler() *TableProfiler {
	return &TableProfiler{analyzer: NewDistributionAnalyzer()}
}

// Profile summarizes churn probabilities and order values
func (tp *TableProfiler) Profile(table *policy.CustomerTable) (TableProfile, error) {
	profile := TableProfile{Customers: table.Len()}

	churn := make([]float64, 0, table.Len())
	values := make([]float64, 0, table.Len())
	for _, rec := range table.Records {
		churn = append(churn, rec.ChurnProb)
		if rec.AvgOrderValue > 0 {
			values = append(values, rec.AvgOrderValue)
		} else {
			profile.ZeroOrderValues++
		}
	}

	var err error
	if profile.ChurnProb, err = tp.analyzer.Summarize(churn); err != nil {
		return profile, err
	}
	if profile.OrderValue, err = tp.analyzer.Summarize(values); err != nil {
		return profile, err
	}
	return profile, nil
}

// Fields renders the profile as structured log fields
func (p TableProfile) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("customers", p.Customers),
		zap.Float64("churn_mean", p.ChurnProb.Mean),
		zap.Float64("churn_median", p.ChurnProb.Median),
		zap.Float64("churn_p90", p.ChurnProb.P90),
		zap.Float64("aov_mean", p.OrderValue.Mean),
		zap.Float64("aov_median", p.OrderValue.Median),
		zap.Int("aov_outliers", p.OrderValue.Outliers),
		zap.Int("zero_order_values", p.ZeroOrderValues),
	}
}
