package main

import (
	"fmt"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"example.com/ndagate"
	"example.com/ndagate/internal/common"
)

// Config is the optional ndactl configuration file.
type Config struct {
	Decode struct {
		SoftwareCycleNumber *bool  `yaml:"softwareCycleNumber"`
		CycleMode           string `yaml:"cycleMode"`
	} `yaml:"decode"`
	Logging struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMb"`
		MaxBackups int    `yaml:"maxBackups"`
		MaxAgeDays int    `yaml:"maxAgeDays"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLogging redirects the shared logger into a rotating file when the
// config asks for one.
func applyLogging(cfg Config) {
	if cfg.Logging.File == "" {
		return
	}
	common.SetLogOutput(&lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
}

// decodeOptions merges the config file defaults with per-command flags.
// Flag values win when the flag was set.
func decodeOptions(cfg Config, cycleMode string, rawCycles bool) ndagate.Options {
	opts := ndagate.DefaultOptions()
	if cfg.Decode.SoftwareCycleNumber != nil {
		opts.SoftwareCycleNumber = *cfg.Decode.SoftwareCycleNumber
	}
	if cfg.Decode.CycleMode != "" {
		opts.CycleMode = ndagate.CycleMode(cfg.Decode.CycleMode)
	}
	if cycleMode != "" {
		opts.CycleMode = ndagate.CycleMode(cycleMode)
	}
	if rawCycles {
		opts.SoftwareCycleNumber = false
	}
	return opts
}
