package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retainsim/adapters/rng"
	"retainsim/adapters/sink"
	"retainsim/app"
	"retainsim/domain/policy"
	"retainsim/internal/config"
)

func newSimulateCmd() *cobra.Command {
	var (
		sim    simulationFlags
		out    string
		report string
		top    int
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Sweep target fractions and discounts and rank the policies",
		Long: `Sweep a grid of (target fraction, discount) policies over the churn
predictions, estimate incremental profit analytically and by Monte Carlo,
and write the ranked results.

The output format follows the --out extension: .csv, .xlsx or .json.

Example: retainsim simulate --targets 0.1,0.2 --discounts 0.05,0.1 --n-mc 1000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := sim.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Paths.Out = out
			}
			if cmd.Flags().Changed("report") {
				cfg.Paths.Report = report
			}
			if cmd.Flags().Changed("top") {
				cfg.TopN = top
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSimulate(cmd, cfg, quiet)
		},
	}

	sim.register(cmd)
	defaults := config.Default()
	cmd.Flags().StringVar(&out, "out", defaults.Paths.Out, "Results file (.csv, .xlsx or .json)")
	cmd.Flags().StringVar(&report, "report", "", "Optional summary report (.md or .html)")
	cmd.Flags().IntVar(&top, "top", defaults.TopN, "Number of policies printed after the run")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")

	return cmd
}

func runSimulate(cmd *cobra.Command, cfg *config.Config, quiet bool) error {
	ctx := cmd.Context()

	in, err := openFeeds(cfg, logger)
	if err != nil {
		return err
	}
	defer in.close()

	resultSink, err := sink.New(cfg.Paths.Out, logger)
	if err != nil {
		return err
	}

	service := app.NewSimulationService(in.predictions, in.orderValues, rng.New(), app.WithLogger(logger))
	req := app.SimulationRequest{
		Grid:    cfg.Grid,
		Params:  cfg.Params,
		Workers: cfg.Parallel,
	}
	if !quiet {
		bar := progressbar.NewOptions(cfg.Grid.Size(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("simulating policies"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		req.Progress = func(done, total int, _ policy.SimulationResult) {
			_ = bar.Add(1)
		}
		defer bar.Finish()
	}

	run, err := service.Run(ctx, req)
	if err != nil {
		return err
	}

	if err := resultSink.Write(ctx, run.Manifest, run.Results); err != nil {
		return err
	}
	if cfg.Paths.Report != "" {
		if err := sink.WriteReport(cfg.Paths.Report, run.Manifest, run.Results, cfg.TopN); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", cfg.Paths.Report))
	}

	stdout := cmd.OutOrStdout()
	if cfg.TopN > 0 {
		if err := sink.WriteTop(stdout, run.Results, cfg.TopN); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "Wrote %s (%d rows)\n", resultSink.Location(), len(run.Results))
	return nil
}
