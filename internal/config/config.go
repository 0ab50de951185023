package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"retainsim/domain/core"
	"retainsim/domain/policy"
	"retainsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Grid     policy.Grid    `yaml:"grid"`
	Params   policy.Params  `yaml:"params"`
	Parallel int            `yaml:"parallel"` // >1 switches to per-cell streams
	TopN     int            `yaml:"top_n"`
	Paths    PathConfig     `yaml:"paths"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
}

// PathConfig holds file system paths
type PathConfig struct {
	Predictions string `yaml:"predictions"`
	Snapshot    string `yaml:"snapshot"`
	Out         string `yaml:"out"`
	Report      string `yaml:"report"`
}

// DatabaseConfig holds the optional SQL source for the order-value feed
type DatabaseConfig struct {
	URL              string        `yaml:"url"`
	SnapshotTable    string        `yaml:"snapshot_table"`
	PredictionsTable string        `yaml:"predictions_table"`
	Timeout          time.Duration `yaml:"timeout"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string  `yaml:"port"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	CacheSize    int     `yaml:"cache_size"`
	MaxWork      int     `yaml:"max_work"` // n_mc times grid cells per request, 0 for unbounded
}

// LoadOptions selects the optional configuration layers
type LoadOptions struct {
	File    string // YAML file; empty skips the layer
	EnvFile string // dotenv file; missing file is not an error
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Grid: policy.Grid{
			TargetFractions: []float64{0.1, 0.2, 0.25, 0.3},
			Discounts:       []float64{0.05, 0.07, 0.10},
		},
		Params:   policy.DefaultParams(),
		Parallel: 1,
		TopN:     5,
		Paths: PathConfig{
			Predictions: filepath.Join("outputs", "churn_predictions_snapshot.csv"),
			Snapshot:    filepath.Join("outputs", "churn_snapshot.csv"),
			Out:         filepath.Join("outputs", "ab_sim_results.csv"),
		},
		Database: DatabaseConfig{
			SnapshotTable: "mart.churn_snapshot",
			Timeout:       30 * time.Second,
		},
		Server: ServerConfig{
			Port:         "8080",
			RateLimitRPS: 10,
			CacheSize:    128,
			MaxWork:      2_000_000,
		},
	}
}

// Load layers defaults, the YAML file, then the environment. Flags are applied
// by the caller on top of the returned value, which must then Validate it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load %s", opts.EnvFile)
		}
	}

	if opts.File != "" {
		if err := cfg.mergeFile(opts.File); err != nil {
			return nil, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, errors.Wrap(err, "failed to load environment configuration")
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(core.NewNotFoundError("config file", path, ""), "failed to read configuration")
		}
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var err error
	if raw := os.Getenv("RETAINSIM_TARGETS"); raw != "" {
		if c.Grid.TargetFractions, err = ParseFloatList("targets", raw); err != nil {
			return err
		}
	}
	if raw := os.Getenv("RETAINSIM_DISCOUNTS"); raw != "" {
		if c.Grid.Discounts, err = ParseFloatList("discounts", raw); err != nil {
			return err
		}
	}

	if c.Params.Margin, err = getEnvFloatOrDefault("RETAINSIM_MARGIN", c.Params.Margin); err != nil {
		return err
	}
	if c.Params.Beta, err = getEnvFloatOrDefault("RETAINSIM_BETA", c.Params.Beta); err != nil {
		return err
	}
	if c.Params.FallbackAOV, err = getEnvFloatOrDefault("RETAINSIM_FALLBACK_AOV", c.Params.FallbackAOV); err != nil {
		return err
	}
	if c.Params.Trials, err = getEnvIntOrDefault("RETAINSIM_N_MC", c.Params.Trials); err != nil {
		return err
	}
	seed, err := getEnvIntOrDefault("RETAINSIM_SEED", int(c.Params.Seed))
	if err != nil {
		return err
	}
	c.Params.Seed = int64(seed)
	if c.Parallel, err = getEnvIntOrDefault("RETAINSIM_PARALLEL", c.Parallel); err != nil {
		return err
	}

	c.Paths.Predictions = getEnvOrDefault("RETAINSIM_PREDS", c.Paths.Predictions)
	c.Paths.Snapshot = getEnvOrDefault("RETAINSIM_SNAPSHOT", c.Paths.Snapshot)
	c.Paths.Out = getEnvOrDefault("RETAINSIM_OUT", c.Paths.Out)
	c.Paths.Report = getEnvOrDefault("RETAINSIM_REPORT", c.Paths.Report)

	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)
	if c.Database.URL == "" && os.Getenv("PG_HOST") != "" {
		c.Database.URL = postgresURLFromEnv()
	}

	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	if c.Server.RateLimitRPS, err = getEnvFloatOrDefault("RATE_LIMIT_RPS", c.Server.RateLimitRPS); err != nil {
		return err
	}
	if c.Server.CacheSize, err = getEnvIntOrDefault("CACHE_SIZE", c.Server.CacheSize); err != nil {
		return err
	}
	if c.Server.MaxWork, err = getEnvIntOrDefault("MAX_WORK", c.Server.MaxWork); err != nil {
		return err
	}
	return nil
}

// Validate checks the grid, the simulation scalars and the ambient settings
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Parallel < 1 {
		return core.NewInvalidParamError("parallel", c.Parallel, "must be at least 1")
	}
	if c.TopN < 0 {
		return core.NewInvalidParamError("top", c.TopN, "must not be negative")
	}
	if c.Server.CacheSize < 1 {
		return core.NewInvalidParamError("cache-size", c.Server.CacheSize, "must be at least 1")
	}
	if c.Server.MaxWork < 0 {
		return core.NewInvalidParamError("max-work", c.Server.MaxWork, "must not be negative")
	}
	return nil
}

// ParseFloatList parses a comma-delimited list of finite floats. Blank items
// are skipped; any other unparseable item fails the whole list.
func ParseFloatList(param, raw string) ([]float64, error) {
	var out []float64
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseFloat(item, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewInvalidListError(param, raw)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, core.NewInvalidListError(param, raw)
	}
	return out, nil
}

// postgresURLFromEnv builds a DSN from the PG_* variables used by the upstream loaders
func postgresURLFromEnv() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnvOrDefault("PG_USER", "olist"), getEnvOrDefault("PG_PASSWORD", "olist")),
		Host:     getEnvOrDefault("PG_HOST", "localhost") + ":" + getEnvOrDefault("PG_PORT", "5432"),
		Path:     "/" + getEnvOrDefault("PG_DB", "olist"),
		RawQuery: "sslmode=" + getEnvOrDefault("SSL_MODE", "disable"),
	}
	return u.String()
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, core.NewInvalidParamError(key, value, "not an integer")
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, core.NewInvalidParamError(key, value, "not a number")
	}
	return floatValue, nil
}
