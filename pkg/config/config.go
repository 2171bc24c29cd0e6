// Package config provides configuration loading and management for
// sarflood. It handles loading configuration from YAML files and provides
// defaults matching the flood service paper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Processing parameters for the statistics and threshold stages.
	Processing struct {
		// TileSize is the edge length in pixels of the statistics tiles.
		TileSize int `yaml:"tileSize"`

		// Workers is the number of parallel tile workers.
		Workers int `yaml:"workers"`

		// DemSubsample is the decimation factor for image-wide elevation
		// statistics.
		DemSubsample int `yaml:"demSubsample"`
	} `yaml:"processing"`

	// Fuzzy parameters bound the evidence channels and the consolidation
	// thresholds.
	Fuzzy struct {
		// StrictThreshold seeds water regions in the fused score map.
		StrictThreshold float64 `yaml:"strictThreshold"`

		// GrowThreshold is the lower hysteresis bound.
		GrowThreshold float64 `yaml:"growThreshold"`

		// SlopeLowDeg and SlopeHighDeg bound the slope channel in degrees.
		SlopeLowDeg  float64 `yaml:"slopeLowDeg"`
		SlopeHighDeg float64 `yaml:"slopeHighDeg"`

		// MinBlobMeters and MaxBlobMeters bound the plausible water body
		// size in meters.
		MinBlobMeters float64 `yaml:"minBlobMeters"`
		MaxBlobMeters float64 `yaml:"maxBlobMeters"`
	} `yaml:"fuzzy"`

	// Input parameters describe the source rasters.
	Input struct {
		// RadarNodata is the nodata sentinel of the radar raster.
		RadarNodata float64 `yaml:"radarNodata"`

		// DemNodata is the nodata sentinel of the elevation raster.
		DemNodata float64 `yaml:"demNodata"`
	} `yaml:"input"`

	// Output parameters.
	Output struct {
		// SaveDebugRasters writes the intermediate rasters next to the
		// final classification.
		SaveDebugRasters bool `yaml:"saveDebugRasters"`

		// DebugDir is where debug rasters are written.
		DebugDir string `yaml:"debugDir"`

		// Verbose raises the log level to debug.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.TileSize = 512
	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.DemSubsample = 10

	cfg.Fuzzy.StrictThreshold = 0.6
	cfg.Fuzzy.GrowThreshold = 0.45
	cfg.Fuzzy.SlopeLowDeg = 0
	cfg.Fuzzy.SlopeHighDeg = 15
	cfg.Fuzzy.MinBlobMeters = 250
	cfg.Fuzzy.MaxBlobMeters = 1000

	cfg.Input.RadarNodata = 0
	cfg.Input.DemNodata = -3.4028234663852886e+38

	cfg.Output.SaveDebugRasters = false
	cfg.Output.DebugDir = "debug_rasters"
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
