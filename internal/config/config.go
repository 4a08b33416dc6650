package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Classifier holds the tunable thresholds of the center-window flood test.
type Classifier struct {
	SampleHalfExtent int     `yaml:"sample_half_extent"` // pixels from center in each direction
	FloodThreshold   float64 `yaml:"flood_threshold"`    // blue ratio strictly above this is flooded
	MinBlue          float64 `yaml:"min_blue"`
	RedRatio         float64 `yaml:"red_ratio"`
	GreenRatio       float64 `yaml:"green_ratio"`
}

// Naming describes the screenshot file naming conventions and summary files.
type Naming struct {
	ScenarioPrefix   string `yaml:"scenario_prefix"`
	ElevationPrefix  string `yaml:"elevation_prefix"`
	UnitSuffix       string `yaml:"unit_suffix"`
	ScenarioSummary  string `yaml:"scenario_summary"`
	ElevationSummary string `yaml:"elevation_summary"`
}

type Config struct {
	Classifier Classifier `yaml:"classifier"`
	Naming     Naming     `yaml:"naming"`

	Dir         string `yaml:"dir"`
	Workers     int    `yaml:"workers"`
	ShowStats   bool   `yaml:"show_stats"`
	DBPath      string `yaml:"db_path"`
	MetricsFile string `yaml:"metrics_file"`
	RunLog      string `yaml:"run_log"`
	PlanPath    string `yaml:"plan_path"`
	Verbose     bool   `yaml:"verbose"`

	BuildVersion string `yaml:"-"`
}

func DefaultClassifier() Classifier {
	return Classifier{
		SampleHalfExtent: 50,
		FloodThreshold:   0.1,
		MinBlue:          100,
		RedRatio:         1.3,
		GreenRatio:       1.1,
	}
}

func DefaultNaming() Naming {
	return Naming{
		ScenarioPrefix:   "zoom_",
		ElevationPrefix:  "elevation_",
		UnitSuffix:       "ft",
		ScenarioSummary:  "zoom_analysis.json",
		ElevationSummary: "analysis_results.json",
	}
}

// Default returns the configuration the screenshot tooling has always used.
func Default() *Config {
	return &Config{
		Classifier: DefaultClassifier(),
		Naming:     DefaultNaming(),
		Dir:        "test_screenshots",
		Workers:    1,
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Write stores the configuration as YAML.
func Write(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Classifier) Validate() error {
	var errs []error
	if c.SampleHalfExtent <= 0 {
		errs = append(errs, fmt.Errorf("sample_half_extent must be positive, got %d", c.SampleHalfExtent))
	}
	if c.FloodThreshold < 0 || c.FloodThreshold > 1 {
		errs = append(errs, fmt.Errorf("flood_threshold must be within [0,1], got %g", c.FloodThreshold))
	}
	if c.MinBlue < 0 || c.RedRatio < 0 || c.GreenRatio < 0 {
		errs = append(errs, fmt.Errorf("blue predicate coefficients must not be negative"))
	}
	return errors.Join(errs...)
}

func (n Naming) Validate() error {
	var errs []error
	if n.ScenarioPrefix == "" || n.ElevationPrefix == "" {
		errs = append(errs, fmt.Errorf("file prefixes must not be empty"))
	} else if n.ScenarioPrefix == n.ElevationPrefix {
		errs = append(errs, fmt.Errorf("scenario and elevation prefixes must differ, both are %q", n.ScenarioPrefix))
	}
	if n.ScenarioSummary == "" || n.ElevationSummary == "" {
		errs = append(errs, fmt.Errorf("summary filenames must not be empty"))
	}
	return errors.Join(errs...)
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Classifier.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Naming.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
