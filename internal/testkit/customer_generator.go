package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"retainsim/domain/core"
	"retainsim/domain/policy"
)

// CustomerGeneratorConfig configures the synthetic churn feed generator
type CustomerGeneratorConfig struct {
	CustomerCount    int     `json:"customer_count"`
	DuplicateRate    float64 `json:"duplicate_rate"`    // share of ids scored twice
	SnapshotCoverage float64 `json:"snapshot_coverage"` // share of ids present in the snapshot
	MissingAOVRate   float64 `json:"missing_aov_rate"`  // share of snapshot rows with an empty value
	MedianAOV        float64 `json:"median_aov"`
	AOVSpread        float64 `json:"aov_spread"` // sigma of log order value
	ChurnBias        float64 `json:"churn_bias"` // logit offset, positive raises churn
	Seed             int64   `json:"seed"`
}

// DefaultCustomerConfig returns defaults shaped like a marketplace snapshot
func DefaultCustomerConfig() CustomerGeneratorConfig {
	return CustomerGeneratorConfig{
		CustomerCount:    1000,
		DuplicateRate:    0.02,
		SnapshotCoverage: 0.95,
		MissingAOVRate:   0.03,
		MedianAOV:        120,
		AOVSpread:        0.6,
		ChurnBias:        1.0,
		Seed:             42,
	}
}

// CustomerDataGenerator produces churn predictions and order values
type CustomerDataGenerator struct {
	config CustomerGeneratorConfig
	rng    *rand.Rand
}

// NewCustomerDataGenerator creates a generator seeded from config
func NewCustomerDataGenerator(config CustomerGeneratorConfig) *CustomerDataGenerator {
	return &CustomerDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns both feeds. Duplicated ids get a second, independent score.
func (g *CustomerDataGenerator) Generate() ([]policy.Prediction, []policy.OrderValue) {
	preds := make([]policy.Prediction, 0, g.config.CustomerCount)
	values := make([]policy.OrderValue, 0, g.config.CustomerCount)

	for i := 0; i < g.config.CustomerCount; i++ {
		id := core.CustomerID(fmt.Sprintf("cust_%06d", i+1))
		preds = append(preds, policy.Prediction{CustomerID: id, ChurnProb: g.churnProbability()})
		if g.rng.Float64() < g.config.DuplicateRate {
			preds = append(preds, policy.Prediction{CustomerID: id, ChurnProb: g.churnProbability()})
		}

		if g.rng.Float64() >= g.config.SnapshotCoverage {
			continue
		}
		if g.rng.Float64() < g.config.MissingAOVRate {
			values = append(values, policy.OrderValue{CustomerID: id})
			continue
		}
		values = append(values, policy.OrderValue{CustomerID: id, Value: g.orderValue(), Valid: true})
	}
	return preds, values
}

// churnProbability draws from a logistic-normal, rounded to 4 places like a scored export
func (g *CustomerDataGenerator) churnProbability() float64 {
	z := g.rng.NormFloat64()*1.5 + g.config.ChurnBias
	p := 1 / (1 + math.Exp(-z))
	return math.Round(p*1e4) / 1e4
}

func (g *CustomerDataGenerator) orderValue() float64 {
	v := g.config.MedianAOV * math.Exp(g.rng.NormFloat64()*g.config.AOVSpread)
	return math.Round(v*100) / 100
}

// WriteFixtures writes the feeds as CSV files in the upstream column spelling
// and returns their paths.
func WriteFixtures(dir string, preds []policy.Prediction, values []policy.OrderValue) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create folder: %w", err)
	}
	predsPath := filepath.Join(dir, "churn_predictions_snapshot.csv")
	snapPath := filepath.Join(dir, "churn_snapshot.csv")

	predRows := [][]string{{"cust_uid", "churn_prob"}}
	for _, p := range preds {
		predRows = append(predRows, []string{p.CustomerID.String(), strconv.FormatFloat(p.ChurnProb, 'f', -1, 64)})
	}
	if err := writeCSV(predsPath, predRows); err != nil {
		return "", "", err
	}

	snapRows := [][]string{{"cust_uid", "avg_order_value"}}
	for _, v := range values {
		cell := ""
		if v.Valid {
			cell = strconv.FormatFloat(v.Value, 'f', -1, 64)
		}
		snapRows = append(snapRows, []string{v.CustomerID.String(), cell})
	}
	if err := writeCSV(snapPath, snapRows); err != nil {
		return "", "", err
	}
	return predsPath, snapPath, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
