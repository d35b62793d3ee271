package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/scrub"
	"github.com/hazyhaar/lexpipe/similarity"
	"github.com/hazyhaar/lexpipe/textqual"
)

// fileConfig is the YAML configuration surface. Everything has a working
// default; a missing config file runs the pipeline with stock thresholds.
type fileConfig struct {
	DBPath      string `yaml:"db_path"`
	StagingRoot string `yaml:"staging_root"`
	ArchiveDir  string `yaml:"archive_dir"`

	// Rasterization and recognition.
	DPI            float64 `yaml:"dpi"`
	MaxPages       int     `yaml:"max_pages"`
	Language       string  `yaml:"language"`
	TessdataPrefix string  `yaml:"tessdata_prefix"`

	// Intake limits.
	MaxFileMB             int64   `yaml:"max_file_mb"`
	MinNativeCharsPerPage float64 `yaml:"min_native_chars_per_page"`

	// Threshold overrides, passed through to the respective packages.
	Quality    textqual.Config    `yaml:"quality"`
	Similarity similarity.Config  `yaml:"similarity"`
	Detection  boilerplate.Config `yaml:"detection"`
	Scrub      scrub.Config       `yaml:"scrub"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		DBPath:      "db/lexpipe.db",
		StagingRoot: "data",
		Language:    "eng",
	}
}

// loadConfig reads a YAML config. A missing file is only an error when the
// path was set explicitly.
func loadConfig(path string, explicit bool) (fileConfig, error) {
	cfg := defaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "db/lexpipe.db"
	}
	if cfg.StagingRoot == "" {
		cfg.StagingRoot = "data"
	}
	return cfg, nil
}
