//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for retail-bi.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for retail-bi.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Serve holds configuration for the serve subcommand.
	Serve ServeConfig `mapstructure:"serve"`

	// Sample holds configuration for the sample subcommand.
	Sample SampleConfig `mapstructure:"sample"`
}

// LoadConfig holds configuration for the CSV loader.
type LoadConfig struct {
	// File is the path of the superstore-format CSV to import.
	File string `mapstructure:"file"`

	// BatchSize is the number of fact rows buffered per bulk insert.
	BatchSize int `mapstructure:"batch_size"`
}

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	// Listen is the address the API server binds to.
	Listen string `mapstructure:"listen"`

	// PageSize is the number of products returned per listing page.
	PageSize int `mapstructure:"page_size"`
}

// SampleConfig holds configuration for sample CSV generation.
type SampleConfig struct {
	// Rows is the number of data rows to generate.
	Rows int `mapstructure:"rows"`

	// Out is the file the sample CSV is written to.
	Out string `mapstructure:"out"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Load: LoadConfig{
			BatchSize: 500,
		},
		Serve: ServeConfig{
			Listen:   ":8080",
			PageSize: 20,
		},
		Sample: SampleConfig{
			Rows: 1000,
			Out:  "superstore-sample.csv",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./retail-bi.yaml
// 3. ~/.config/retail-bi/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("retail-bi")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "retail-bi"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.File == "" {
		return fmt.Errorf("input file is required for load")
	}
	if c.Load.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}
	return nil
}

// ValidateServe checks configuration required for the serve command.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Serve.Listen == "" {
		return fmt.Errorf("listen address is required for serve")
	}
	if c.Serve.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1")
	}
	return nil
}

// ValidateSample checks configuration required for the sample command.
// Generation does not touch the database, so no connection is needed.
func (c *Config) ValidateSample() error {
	if c.Sample.Rows < 1 {
		return fmt.Errorf("rows must be at least 1")
	}
	if c.Sample.Out == "" {
		return fmt.Errorf("output file is required for sample")
	}
	return nil
}
