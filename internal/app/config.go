package app

import (
	"errors"
	"path/filepath"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BookPath     string // hcl file or directory
	OutDir       string
	ManifestPath string
	BaseName     string
	Force        bool

	LogFormat   string
	LogLevel    string
	NotifyURL   string
	PreviewPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.BookPath == "" {
		return nil, errors.New("BookPath is a required configuration field and cannot be empty")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "dist"
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = filepath.Join(cfg.OutDir, "manifest.json")
	}
	if cfg.BaseName == "" {
		cfg.BaseName = "report"
	}

	return &cfg, nil
}
