package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retainsim/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateThenSimulate(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "generate", "--customers", "120", "--out-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "churn_predictions_snapshot.csv")

	simulate := func(results string, extra ...string) (string, error) {
		return execute(t, append([]string{"simulate",
			"--preds", filepath.Join(dir, "churn_predictions_snapshot.csv"),
			"--snapshot", filepath.Join(dir, "churn_snapshot.csv"),
			"--targets", "0.1,0.5",
			"--discounts", "0.05,0.1",
			"--n-mc", "25",
			"--out", results,
			"--quiet",
		}, extra...)...)
	}

	results := filepath.Join(dir, "results.csv")
	report := filepath.Join(dir, "report.md")
	out, err = simulate(results, "--report", report, "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+results+" (4 rows)")
	assert.Contains(t, out, "delta_profit_expectation")

	raw, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 5)

	md, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Top 3 policies")

	rerun := filepath.Join(dir, "rerun.csv")
	_, err = simulate(rerun)
	require.NoError(t, err)
	again, err := os.ReadFile(rerun)
	require.NoError(t, err)
	assert.Equal(t, raw, again, "same seed and config write byte-identical tables")
}

func TestSimulateFlagOverridesInvalidEnv(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "generate", "--customers", "20", "--out-dir", dir)
	require.NoError(t, err)
	t.Setenv("RETAINSIM_N_MC", "0")

	args := []string{"simulate",
		"--preds", filepath.Join(dir, "churn_predictions_snapshot.csv"),
		"--snapshot", filepath.Join(dir, "churn_snapshot.csv"),
		"--out", filepath.Join(dir, "out.csv"),
		"--quiet",
	}
	_, err = execute(t, args...)
	require.Error(t, err, "the environment value alone is invalid")
	assert.Equal(t, 1, errors.ExitCode(err))

	_, err = execute(t, append(args, "--n-mc", "10")...)
	assert.NoError(t, err)
}

func TestSimulateMissingPredictionsExitCode(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "simulate",
		"--preds", filepath.Join(dir, "absent.csv"),
		"--out", filepath.Join(dir, "out.csv"),
		"--quiet",
	)
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "snapshot trainer")
}

func TestSimulateSchemaExitCode(t *testing.T) {
	dir := t.TempDir()
	preds := filepath.Join(dir, "preds.csv")
	require.NoError(t, os.WriteFile(preds, []byte("cust_uid,score\na,0.2\n"), 0o644))

	_, err := execute(t, "simulate", "--preds", preds, "--out", filepath.Join(dir, "out.csv"), "--quiet")
	require.Error(t, err)
	assert.Equal(t, 3, errors.ExitCode(err))
}

func TestSimulateRejectsMalformedList(t *testing.T) {
	_, err := execute(t, "simulate", "--targets", "0.1,abc", "--quiet")
	require.Error(t, err)
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "targets")
}
