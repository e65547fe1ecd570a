// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads docuflow.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Khan/docuflow/services/docs/discovery"
	"github.com/Khan/docuflow/services/docs/graph"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "docuflow.yaml"

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the settings of a documentation run.
//
// Description:
//
//	Loaded from docuflow.yaml. Every field is optional in the file; absent
//	fields keep the values of Default. Command-line flags override the file.
//
// Thread Safety: Safe for concurrent reads after construction.
type Config struct {
	// Root is the analysis root. Only files under it are followed for
	// type-only imports.
	Root string `yaml:"root" validate:"required"`

	// Packages is the manifest glob relative to Root.
	Packages string `yaml:"packages" validate:"required"`

	// Output is the afs URL the document is written to.
	Output string `yaml:"output" validate:"required"`

	// BadgerDir, when set, mirrors the document into a BadgerDB store.
	BadgerDir string `yaml:"badger_dir"`

	// MaxHops bounds the length of a resolution chain.
	MaxHops int `yaml:"max_hops" validate:"gte=1"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat is text or json.
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	// TraceExporter is none, stdout or otlp.
	TraceExporter string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Root:          ".",
		Packages:      discovery.DefaultPattern,
		Output:        filepath.Join("data", "data.json"),
		MaxHops:       graph.DefaultMaxHops,
		LogLevel:      "info",
		LogFormat:     "text",
		TraceExporter: "none",
	}
}

// Load reads the configuration file at path.
//
// Description:
//
//	A missing file is not an error and yields Default. Only returns an
//	error if the file exists but cannot be read, parsed or validated.
//
// Inputs:
//
//	path - The file to read. Empty means FileName in the working directory.
//
// Outputs:
//
//	Config - The parsed configuration layered over Default.
//	error  - Non-nil for unreadable or invalid files.
func Load(path string) (Config, error) {
	if path == "" {
		path = FileName
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns LogLevel as a slog level. Unknown values map to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
