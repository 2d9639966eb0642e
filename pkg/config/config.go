// Package config loads the pipeline configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cltv-segments/pkg/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a run.
type Config struct {
	Input        InputConfig  `yaml:"input"`
	AnalysisDate string       `yaml:"analysis_date"` // YYYY-MM-DD, empty → latest purchase + 2 days
	Model        ModelConfig  `yaml:"model"`
	Output       OutputConfig `yaml:"output"`
	Log          LogConfig    `yaml:"log"`
	Progress     *bool        `yaml:"progress"`
}

// InputConfig selects where customer records come from.
type InputConfig struct {
	Source string `yaml:"source"` // "csv" or "sql"
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// ModelConfig holds the model and projection constants. Penalizers and the
// discount rate are pointers so that an explicit 0 survives applyDefaults.
type ModelConfig struct {
	BetaGeoPenalizer    *float64 `yaml:"bg_penalizer"`
	GammaGammaPenalizer *float64 `yaml:"gg_penalizer"`
	ShortHorizonMonths  int      `yaml:"short_horizon_months"`
	LongHorizonMonths   int      `yaml:"long_horizon_months"`
	CLVMonths           int      `yaml:"clv_months"`
	DiscountRate        *float64 `yaml:"discount_rate"`
}

// OutputConfig controls exports of the scored table.
type OutputConfig struct {
	Dir      string   `yaml:"dir"`
	Formats  []string `yaml:"formats"` // csv, json, parquet
	Table    string   `yaml:"table"`   // SQL results table, empty → no SQL export
	S3Bucket string   `yaml:"s3_bucket"`
	S3Prefix string   `yaml:"s3_prefix"`
	S3Region string   `yaml:"s3_region"`
	TopN     int      `yaml:"top_n"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads a .env file if present, then the configuration file, then
// applies CLTV_* environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLTV_INPUT"); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv("CLTV_SOURCE"); v != "" {
		cfg.Input.Source = v
	}
	if v := os.Getenv("CLTV_DSN"); v != "" {
		cfg.Input.DSN = v
	}
	if v := os.Getenv("CLTV_ANALYSIS_DATE"); v != "" {
		cfg.AnalysisDate = v
	}
	if v := os.Getenv("CLTV_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("CLTV_S3_BUCKET"); v != "" {
		cfg.Output.S3Bucket = v
	}
	if v := os.Getenv("CLTV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Input.Source == "" {
		c.Input.Source = "csv"
	}
	if c.Input.Table == "" {
		c.Input.Table = "flo_customers"
	}
	d := models.DefaultModelConfig()
	if c.Model.BetaGeoPenalizer == nil {
		c.Model.BetaGeoPenalizer = &d.BetaGeoPenalizer
	}
	if c.Model.GammaGammaPenalizer == nil {
		c.Model.GammaGammaPenalizer = &d.GammaGammaPenalizer
	}
	if c.Model.ShortHorizonMonths == 0 {
		c.Model.ShortHorizonMonths = d.ShortHorizonMonths
	}
	if c.Model.LongHorizonMonths == 0 {
		c.Model.LongHorizonMonths = d.LongHorizonMonths
	}
	if c.Model.CLVMonths == 0 {
		c.Model.CLVMonths = d.CLVMonths
	}
	if c.Model.DiscountRate == nil {
		c.Model.DiscountRate = &d.DiscountRate
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "reports"
	}
	if c.Output.TopN == 0 {
		c.Output.TopN = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Progress == nil {
		on := true
		c.Progress = &on
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Input.Source {
	case "csv":
		if c.Input.Path == "" {
			return fmt.Errorf("input.path is required for csv source")
		}
	case "sql":
		if c.Input.DSN == "" {
			return fmt.Errorf("input.dsn is required for sql source")
		}
	default:
		return fmt.Errorf("input.source %q: want csv or sql", c.Input.Source)
	}
	if value(c.Model.BetaGeoPenalizer) < 0 || value(c.Model.GammaGammaPenalizer) < 0 {
		return fmt.Errorf("model penalizers must be >= 0")
	}
	if c.Model.ShortHorizonMonths < 0 || c.Model.LongHorizonMonths < 0 || c.Model.CLVMonths < 0 {
		return fmt.Errorf("model horizons must be positive")
	}
	if value(c.Model.DiscountRate) <= -1 {
		return fmt.Errorf("model.discount_rate must be > -1")
	}
	for _, f := range c.Output.Formats {
		switch strings.ToLower(f) {
		case "csv", "json", "parquet":
		default:
			return fmt.Errorf("output format %q: want csv, json or parquet", f)
		}
	}
	if c.Output.Table != "" && c.Input.DSN == "" {
		return fmt.Errorf("output.table needs input.dsn")
	}
	if c.Output.S3Bucket != "" && len(c.Output.Formats) == 0 {
		return fmt.Errorf("output.s3_bucket needs at least one output format")
	}
	if _, err := c.ParseAnalysisDate(); err != nil {
		return err
	}
	return nil
}

// ParseAnalysisDate returns the configured analysis date, or the zero time
// when none is set.
func (c *Config) ParseAnalysisDate() (time.Time, error) {
	if strings.TrimSpace(c.AnalysisDate) == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(c.AnalysisDate), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("analysis_date %q: want YYYY-MM-DD", c.AnalysisDate)
	}
	return t, nil
}

// Pipeline converts the file configuration into calculator parameters.
func (c *Config) Pipeline(verbose bool) (models.Config, error) {
	date, err := c.ParseAnalysisDate()
	if err != nil {
		return models.Config{}, err
	}
	return models.Config{
		AnalysisDate: date,
		Model: models.ModelConfig{
			BetaGeoPenalizer:    value(c.Model.BetaGeoPenalizer),
			GammaGammaPenalizer: value(c.Model.GammaGammaPenalizer),
			ShortHorizonMonths:  c.Model.ShortHorizonMonths,
			LongHorizonMonths:   c.Model.LongHorizonMonths,
			CLVMonths:           c.Model.CLVMonths,
			DiscountRate:        value(c.Model.DiscountRate),
		},
		Progress: c.Progress != nil && *c.Progress,
		Verbose:  verbose,
	}, nil
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
