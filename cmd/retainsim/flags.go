package main

import (
	"github.com/spf13/cobra"

	"retainsim/internal/config"
)

// simulationFlags are the sweep settings shared by simulate and serve
type simulationFlags struct {
	targets     string
	discounts   string
	margin      float64
	beta        float64
	trials      int
	seed        int64
	fallbackAOV float64
	parallel    int
	preds       string
	snapshot    string
	databaseURL string
}

func (f *simulationFlags) register(cmd *cobra.Command) {
	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&f.targets, "targets", "0.1,0.2,0.25,0.3", "Comma-separated target fractions in (0,1]")
	flags.StringVar(&f.discounts, "discounts", "0.05,0.07,0.10", "Comma-separated discount levels")
	flags.Float64Var(&f.margin, "margin", defaults.Params.Margin, "Profit margin before discount")
	flags.Float64Var(&f.beta, "beta", defaults.Params.Beta, "Treatment elasticity")
	flags.IntVar(&f.trials, "n-mc", defaults.Params.Trials, "Monte Carlo trials per policy")
	flags.Int64Var(&f.seed, "seed", defaults.Params.Seed, "Random seed")
	flags.Float64Var(&f.fallbackAOV, "fallback-aov", defaults.Params.FallbackAOV, "Order value used when a targeted slice has none")
	flags.IntVar(&f.parallel, "parallel", defaults.Parallel, "Worker count; above 1 uses per-policy random streams")
	flags.StringVar(&f.preds, "preds", defaults.Paths.Predictions, "Churn predictions file (.csv or .xlsx)")
	flags.StringVar(&f.snapshot, "snapshot", defaults.Paths.Snapshot, "Customer snapshot file with order values (optional)")
	flags.StringVar(&f.databaseURL, "database-url", "", "Read order values from a database instead of the snapshot file")
}

// apply overlays explicitly set flags on cfg. The caller validates once all
// of its own flags are applied.
func (f *simulationFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("targets") {
		if cfg.Grid.TargetFractions, err = config.ParseFloatList("targets", f.targets); err != nil {
			return err
		}
	}
	if flags.Changed("discounts") {
		if cfg.Grid.Discounts, err = config.ParseFloatList("discounts", f.discounts); err != nil {
			return err
		}
	}
	if flags.Changed("margin") {
		cfg.Params.Margin = f.margin
	}
	if flags.Changed("beta") {
		cfg.Params.Beta = f.beta
	}
	if flags.Changed("n-mc") {
		cfg.Params.Trials = f.trials
	}
	if flags.Changed("seed") {
		cfg.Params.Seed = f.seed
	}
	if flags.Changed("fallback-aov") {
		cfg.Params.FallbackAOV = f.fallbackAOV
	}
	if flags.Changed("parallel") {
		cfg.Parallel = f.parallel
	}
	if flags.Changed("preds") {
		cfg.Paths.Predictions = f.preds
	}
	if flags.Changed("snapshot") {
		cfg.Paths.Snapshot = f.snapshot
	}
	if flags.Changed("database-url") {
		cfg.Database.URL = f.databaseURL
	}
	return nil
}
