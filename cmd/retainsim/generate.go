package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retainsim/internal/testkit"
)

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultCustomerConfig()
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic churn predictions and a customer snapshot",
		Long: `Write a synthetic churn predictions file and customer snapshot in the
upstream column spelling (cust_uid, churn_prob, avg_order_value).

Example: retainsim generate --customers 5000 --seed 7 --out-dir outputs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			preds, values := testkit.NewCustomerDataGenerator(cfg).Generate()
			predsPath, snapPath, err := testkit.WriteFixtures(outDir, preds, values)
			if err != nil {
				return err
			}
			logger.Info("synthetic feeds written",
				zap.Int("prediction_rows", len(preds)),
				zap.Int("snapshot_rows", len(values)),
				zap.Int64("seed", cfg.Seed))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows)\n", predsPath, len(preds))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows)\n", snapPath, len(values))
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.CustomerCount, "customers", cfg.CustomerCount, "Number of distinct customers")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	cmd.Flags().Float64Var(&cfg.DuplicateRate, "duplicate-rate", cfg.DuplicateRate, "Share of customers scored twice")
	cmd.Flags().Float64Var(&cfg.SnapshotCoverage, "snapshot-coverage", cfg.SnapshotCoverage, "Share of customers present in the snapshot")
	cmd.Flags().Float64Var(&cfg.MissingAOVRate, "missing-aov-rate", cfg.MissingAOVRate, "Share of snapshot rows with an empty order value")
	cmd.Flags().Float64Var(&cfg.MedianAOV, "median-aov", cfg.MedianAOV, "Median average order value")
	cmd.Flags().StringVar(&outDir, "out-dir", "outputs", "Directory for the generated files")

	return cmd
}
