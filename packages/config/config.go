package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Output modes for printing a sheet
const (
	OutputPlain = "plain"
	OutputTable = "table"
)

// Print modes select what is printed for each cell
const (
	PrintValues = "values"
	PrintTexts  = "texts"
)

// Config holds all runtime configuration for sheetcalc.
// Values are populated from .sheetcalc.yaml, SHEETCALC_* env vars, and CLI
// flags.
type Config struct {
	LogLevel    string `mapstructure:"log_level"`
	Output      string `mapstructure:"output"`
	Print       string `mapstructure:"print"`
	Metrics     bool   `mapstructure:"metrics"`
	StopOnError bool   `mapstructure:"stop_on_error"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("log_level", "error")
	viper.SetDefault("output", OutputPlain)
	viper.SetDefault("print", PrintValues)
	viper.SetDefault("metrics", false)
	viper.SetDefault("stop_on_error", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Output = strings.ToLower(cfg.Output)
	cfg.Print = strings.ToLower(cfg.Print)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings
func (c Config) Validate() error {
	switch c.Output {
	case OutputPlain, OutputTable:
	default:
		return fmt.Errorf("invalid output %q: want %s or %s", c.Output, OutputPlain, OutputTable)
	}
	switch c.Print {
	case PrintValues, PrintTexts:
	default:
		return fmt.Errorf("invalid print mode %q: want %s or %s", c.Print, PrintValues, PrintTexts)
	}
	return nil
}
