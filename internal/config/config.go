package config

import (
	"fmt"
	"os"
	"strconv"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/composite"
	"gaussapprox/internal/dailymean"
	"gaussapprox/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths   PathConfig
	Sweep   SweepConfig
	Runtime RuntimeConfig
	Reduce  ReduceConfig
}

// PathConfig holds input files and output locations
type PathConfig struct {
	OutputRoot string
	FieldFile  string
	FieldVar   string
	IndexFile  string
	IndexVar   string
	LedgerDSN  string
	ReportFile string
	SweepFile  string
}

// SweepConfig is the parameter grid of the composite sweep. It can be
// overridden by a YAML file with the same keys.
type SweepConfig struct {
	climate.Window `yaml:",inline"`
	Ts             []int     `yaml:"Ts"`
	Taus           []int     `yaml:"taus"`
	Percents       []float64 `yaml:"percents"`
}

// RuntimeConfig holds execution settings
type RuntimeConfig struct {
	Workers  int
	LogLevel string
}

// ReduceConfig holds the daily-mean reducer settings
type ReduceConfig struct {
	RawPrefix string
	RawVar    string
	YearFrom  int
	YearTo    int
	Output    string
}

// Load reads configuration from environment variables and validates it.
// A .env file, if wanted, must be loaded by the caller first.
func Load() (*Config, error) {
	cfg := &Config{
		Paths: loadPathConfig(),
		Sweep: DefaultSweep(),
	}

	runtime, err := loadRuntimeConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load runtime configuration")
	}
	cfg.Runtime = *runtime

	reduce, err := loadReduceConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load reducer configuration")
	}
	cfg.Reduce = *reduce

	if cfg.Paths.SweepFile != "" {
		sweep, err := LoadSweepFile(cfg.Paths.SweepFile)
		if err != nil {
			return nil, err
		}
		cfg.Sweep = *sweep
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// DefaultSweep is the ERA5 summer sweep.
func DefaultSweep() SweepConfig {
	opts := composite.DefaultOptions()
	return SweepConfig{
		Window:   opts.Window,
		Ts:       opts.Ts,
		Taus:     opts.Taus,
		Percents: opts.Percents,
	}
}

// LoadSweepFile reads a YAML sweep definition. Keys missing from the file
// keep their defaults.
func LoadSweepFile(path string) (*SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.MissingInput("sweep file "+path, err)
	}
	sweep := DefaultSweep()
	if err := yaml.Unmarshal(data, &sweep); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse sweep file %s", path))
	}
	return &sweep, nil
}

// Options converts the sweep and runtime sections to engine options.
func (c *Config) Options() composite.Options {
	return composite.Options{
		Window:   c.Sweep.Window,
		Ts:       c.Sweep.Ts,
		Taus:     c.Sweep.Taus,
		Percents: c.Sweep.Percents,
		Workers:  c.Runtime.Workers,
	}
}

// Validate checks the sweep grid and the reducer year range.
func (c *Config) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if c.Paths.OutputRoot == "" {
		return errors.ConfigInvalid("GA_OUTPUT_ROOT must not be empty")
	}
	if c.Reduce.YearTo < c.Reduce.YearFrom {
		return errors.ConfigInvalid(fmt.Sprintf("GA_YEAR_TO (%d) is before GA_YEAR_FROM (%d)", c.Reduce.YearTo, c.Reduce.YearFrom))
	}
	switch c.Runtime.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.ConfigInvalid("GA_LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

func loadPathConfig() PathConfig {
	return PathConfig{
		OutputRoot: getEnvOrDefault("GA_OUTPUT_ROOT", "ERA5/y83"),
		FieldFile:  getEnvOrDefault("GA_FIELD_FILE", "zg_MJJA_fullres.nc"),
		FieldVar:   getEnvOrDefault("GA_FIELD_VAR", "z"),
		IndexFile:  getEnvOrDefault("GA_INDEX_FILE", "t2m_MJJA_fullres.nc"),
		IndexVar:   getEnvOrDefault("GA_INDEX_VAR", "t2m"),
		LedgerDSN:  getEnvOrDefault("GA_LEDGER_DSN", ""),
		ReportFile: getEnvOrDefault("GA_REPORT_FILE", ""),
		SweepFile:  getEnvOrDefault("GA_SWEEP_FILE", ""),
	}
}

func loadRuntimeConfig() (*RuntimeConfig, error) {
	workers, err := getEnvInt("GA_WORKERS", 1)
	if err != nil {
		return nil, err
	}
	return &RuntimeConfig{
		Workers:  workers,
		LogLevel: getEnvOrDefault("GA_LOG_LEVEL", "info"),
	}, nil
}

func loadReduceConfig() (*ReduceConfig, error) {
	from, err := getEnvInt("GA_YEAR_FROM", dailymean.DefaultFirstYear)
	if err != nil {
		return nil, err
	}
	to, err := getEnvInt("GA_YEAR_TO", dailymean.DefaultLastYear)
	if err != nil {
		return nil, err
	}
	return &ReduceConfig{
		RawPrefix: getEnvOrDefault("GA_RAW_PREFIX", "raw/t2m/t2m_0N-90N_MJJA_"),
		RawVar:    getEnvOrDefault("GA_RAW_VAR", "t2m"),
		YearFrom:  from,
		YearTo:    to,
		Output:    getEnvOrDefault("GA_REDUCE_OUT", "t2m_MJJA_fullres.nc"),
	}, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s=%q is not an integer", key, value))
	}
	return v, nil
}
