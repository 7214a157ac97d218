package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the seqgen configuration file (~/.config/seqgen/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Ensemble string `yaml:"ensemble"`

	// Search defaults
	BeamSize  *int64 `yaml:"beam_size"`
	KBest     *int64 `yaml:"kbest"`
	MaxLength *int64 `yaml:"max_length"`
	Workers   *int64 `yaml:"workers"`
	Pool      *int64 `yaml:"pool"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "seqgen", "config.yaml")
}

// applyEnsembleConfig applies config file defaults to the ensemble flags
// that were not set explicitly.
func applyEnsembleConfig(c *cli.Command, cfg Config) {
	if cfg.Ensemble != "" && !c.IsSet("ensemble") {
		ensemblePath = cfg.Ensemble
	}
	if cfg.MaxLength != nil && !c.IsSet("max-length") {
		maxLength = *cfg.MaxLength
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.Pool != nil && !c.IsSet("pool") {
		poolSize = *cfg.Pool
	}
}

// applySearchConfig applies config file defaults to beam and k-best.
func applySearchConfig(c *cli.Command, cfg Config) {
	if cfg.BeamSize != nil && !c.IsSet("beam-size") {
		beamSize = *cfg.BeamSize
	}
	if cfg.KBest != nil && !c.IsSet("kbest") {
		kBest = *cfg.KBest
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
