package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"retainsim/internal/config"
	"retainsim/internal/errors"
)

var (
	logger     *zap.Logger
	verbose    bool
	configFile string
	envFile    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "retainsim",
		Short:         "Simulate targeted retention discounts against churn predictions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zapConfig := zap.NewProductionConfig()
			zapConfig.Encoding = "console"
			zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
				level, err := zapcore.ParseLevel(lvl)
				if err != nil {
					return fmt.Errorf("invalid LOG_LEVEL %q: %w", lvl, err)
				}
				zapConfig.Level = zap.NewAtomicLevelAt(level)
			}
			if verbose {
				zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zapConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(
		newSimulateCmd(),
		newGenerateCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// loadConfig reads defaults, the config file, and the environment
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{File: configFile, EnvFile: envFile})
}
