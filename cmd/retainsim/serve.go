package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"retainsim/adapters/api"
	"retainsim/adapters/rng"
	"retainsim/app"
	"retainsim/internal/config"
	"retainsim/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var (
		sim       simulationFlags
		port      string
		rateLimit float64
		cacheSize int
		maxWork   int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP",
		Long: `Serve POST /v1/simulate, GET /healthz and GET /metrics.

Request fields left out take the values configured here. Each feed a request
does not send inline is read from the configured source.

Example: retainsim serve --port 8080 --rate-limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := sim.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("rate-limit") {
				cfg.Server.RateLimitRPS = rateLimit
			}
			if cmd.Flags().Changed("cache-size") {
				cfg.Server.CacheSize = cacheSize
			}
			if cmd.Flags().Changed("max-work") {
				cfg.Server.MaxWork = maxWork
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}

	sim.register(cmd)
	defaults := config.Default()
	cmd.Flags().StringVar(&port, "port", defaults.Server.Port, "Listen port")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", defaults.Server.RateLimitRPS, "Simulate requests per second; 0 disables limiting")
	cmd.Flags().IntVar(&cacheSize, "cache-size", defaults.Server.CacheSize, "Number of cached simulate responses")
	cmd.Flags().IntVar(&maxWork, "max-work", defaults.Server.MaxWork, "Largest n_mc times policy count one request may run; 0 disables the check")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	in, err := openFeeds(cfg, logger)
	if err != nil {
		return err
	}
	defer in.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	service := app.NewSimulationService(in.predictions, in.orderValues, rng.New(),
		app.WithLogger(logger), app.WithMetrics(m))
	server, err := api.NewServer(service, api.Options{
		Grid:         cfg.Grid,
		Params:       cfg.Params,
		Workers:      cfg.Parallel,
		RateLimitRPS: cfg.Server.RateLimitRPS,
		CacheSize:    cfg.Server.CacheSize,
		MaxWork:      cfg.Server.MaxWork,
	}, reg, m, logger)
	if err != nil {
		return err
	}
	return server.ListenAndServe(cmd.Context(), ":"+cfg.Server.Port)
}
