// Package config provides configuration loading and management for the QAP
// utilities. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the pipeline configuration loaded from YAML
type Config struct {
	// S3 parameters for moving participant data to/from object storage
	S3 struct {
		// BucketName is the name of the Amazon S3 bucket
		BucketName string `yaml:"bucketName"`

		// BucketPrefix is the root directory of the data on the bucket
		BucketPrefix string `yaml:"bucketPrefix"`

		// CredsPath is the filepath to the AWS credentials file; empty uses
		// the ambient credential chain
		CredsPath string `yaml:"credsPath"`

		// LocalPrefix is the local directory that mirrors BucketPrefix
		LocalPrefix string `yaml:"localPrefix"`

		// Region is the AWS region of the bucket
		Region string `yaml:"region"`
	} `yaml:"s3"`

	// Pipeline parameters
	Pipeline struct {
		// OutputDirectory is where per-scan output records are written
		OutputDirectory string `yaml:"outputDirectory"`

		// RMax is the brain-sphere radius in mm for framewise displacement
		RMax float64 `yaml:"rmax"`

		// OutlierFraction reports 3dToutcount values as fractions of the
		// masked voxel count rather than raw counts
		OutlierFraction bool `yaml:"outlierFraction"`
	} `yaml:"pipeline"`

	// Sublist parameters for custom data directory layouts
	Sublist struct {
		// DirectoryFormat positionally describes a custom layout, e.g.
		// "/{site}/{participant}/{session}/{series}"
		DirectoryFormat string `yaml:"directoryFormat"`

		// AnatomicalKeywords mark a file as an anatomical scan
		AnatomicalKeywords []string `yaml:"anatomicalKeywords"`

		// FunctionalKeywords mark a file as a functional scan
		FunctionalKeywords []string `yaml:"functionalKeywords"`
	} `yaml:"sublist"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.S3.LocalPrefix = "."
	cfg.S3.Region = "us-east-1"

	cfg.Pipeline.OutputDirectory = "qap_output"
	cfg.Pipeline.RMax = 80.0
	cfg.Pipeline.OutlierFraction = true

	cfg.Sublist.AnatomicalKeywords = []string{"anat", "mprage"}
	cfg.Sublist.FunctionalKeywords = []string{"rest", "func"}

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
