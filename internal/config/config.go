package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the GUGiK bulk endpoint serving the nationwide
// address archive.
const DefaultSourceURL = "https://integracja.gugik.gov.pl/PRG/pobierz.php?adresy_zbiorcze_gml"

// Config holds the global configuration for a pipeline run
type Config struct {
	// Input settings
	XMLDir  string `yaml:"xml_dir"`
	ZipPath string `yaml:"zip_path"`

	// Download settings
	SourceURL string `yaml:"source_url"`

	// Output settings
	Mode       string `yaml:"mode"`
	OutputPath string `yaml:"output_path"`

	// Processing settings
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`

	// Logging and metrics
	Verbose         bool          `yaml:"verbose"`
	LogFile         string        `yaml:"log_file"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		XMLDir:     "./data_xml",
		ZipPath:    "./data_zip/prg.zip",
		SourceURL:  DefaultSourceURL,
		OutputPath: "./data_geoparquet/addresses.parquet",
		Workers:    runtime.NumCPU(),
		BatchSize:  100000,

		Verbose:         false,
		LogFile:         "",
		MetricsInterval: 30 * time.Second,
	}
}

// LoadFile overlays settings from a YAML file onto the config. Fields not
// present in the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid. Mode validation is
// separate: the legal mode set belongs to the projection stage.
func (c *Config) Validate() error {
	if c.XMLDir == "" {
		return fmt.Errorf("XML directory is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	return nil
}
