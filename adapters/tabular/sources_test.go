package tabular

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retainsim/domain/core"
	"retainsim/domain/policy"
	"retainsim/ports"
)

var (
	_ ports.PredictionSource = (*PredictionFile)(nil)
	_ ports.OrderValueSource = (*SnapshotFile)(nil)
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPredictionsAcceptsUpstreamHeaders(t *testing.T) {
	path := writeFile(t, "preds.csv", "cust_uid,churn_prob,extra\n a ,0.9,x\nb,0.1,y\n\nc,0.5,z\n")

	preds, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []policy.Prediction{
		{CustomerID: "a", ChurnProb: 0.9},
		{CustomerID: "b", ChurnProb: 0.1},
		{CustomerID: "c", ChurnProb: 0.5},
	}, preds)
}

func TestLoadPredictionsCanonicalHeaders(t *testing.T) {
	path := writeFile(t, "preds.csv", "customer_id,churn_probability\nx,0\n")

	preds, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, core.CustomerID("x"), preds[0].CustomerID)
}

func TestLoadPredictionsHeaderOnly(t *testing.T) {
	path := writeFile(t, "preds.csv", "customer_id,churn_probability\n")

	preds, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestLoadPredictionsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")

	_, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "snapshot trainer")
}

func TestLoadPredictionsMissingColumns(t *testing.T) {
	path := writeFile(t, "preds.csv", "id,score\na,0.1\n")

	_, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingColumns)
	assert.Contains(t, err.Error(), "{churn_probability, customer_id}")
}

func TestLoadPredictionsBadCells(t *testing.T) {
	cases := map[string]string{
		"not a number": "customer_id,churn_probability\na,high\n",
		"out of range": "customer_id,churn_probability\na,1.2\n",
		"blank id":     "customer_id,churn_probability\n ,0.3\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "preds.csv", content)
			_, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
			require.Error(t, err)
			assert.True(t, core.IsSchemaError(err))
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestLoadOrderValues(t *testing.T) {
	path := writeFile(t, "snap.csv", "cust_uid,avg_order_value,recency\na,120.5,3\nb,,4\nc,NaN,1\n")

	values, err := NewSnapshotFile(path, nil).LoadOrderValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []policy.OrderValue{
		{CustomerID: "a", Value: 120.5, Valid: true},
		{CustomerID: "b"},
		{CustomerID: "c"},
	}, values)
}

func TestLoadOrderValuesMissingFileIsEmpty(t *testing.T) {
	values, err := NewSnapshotFile(filepath.Join(t.TempDir(), "none.csv"), nil).LoadOrderValues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, values)

	values, err = NewSnapshotFile("", nil).LoadOrderValues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestLoadOrderValuesRejectsNegative(t *testing.T) {
	path := writeFile(t, "snap.csv", "customer_id,average_order_value\na,-3\n")

	_, err := NewSnapshotFile(path, nil).LoadOrderValues(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBadCell)
}

func TestLoadOrderValuesMissingColumn(t *testing.T) {
	path := writeFile(t, "snap.csv", "customer_id,recency\na,3\n")

	_, err := NewSnapshotFile(path, nil).LoadOrderValues(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{average_order_value}")
}

func TestLoadPredictionsFromWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"customer_id", "churn_probability"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"w1", 0.75}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"w2", 0.25}))
	path := filepath.Join(t.TempDir(), "preds.xlsx")
	require.NoError(t, f.SaveAs(path))

	preds, err := NewPredictionFile(path, nil).LoadPredictions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []policy.Prediction{
		{CustomerID: "w1", ChurnProb: 0.75},
		{CustomerID: "w2", ChurnProb: 0.25},
	}, preds)
}

func TestLoadPredictionsHonorsCancellation(t *testing.T) {
	path := writeFile(t, "preds.csv", "customer_id,churn_probability\na,0.1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPredictionFile(path, nil).LoadPredictions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
