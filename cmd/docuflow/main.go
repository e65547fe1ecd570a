// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command docuflow generates and serves cross-file documentation data for
// JavaScript component monorepos.
//
// Usage:
//
//	docuflow generate --root wonder-blocks --output data/data.json
//	docuflow generate --watch
//	docuflow serve --input data/data.json --addr :8080
//	docuflow mcp --badger .docuflow
//	docuflow show @khanacademy/wonder-blocks-button
//	docuflow components @khanacademy/wonder-blocks-button
//
// Settings are read from docuflow.yaml in the working directory when it
// exists; flags override it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Khan/docuflow/services/docs/config"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger

	shutdownTracing func(context.Context) error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel, logFormat, traceExporter string

	root := &cobra.Command{
		Use:           "docuflow",
		Short:         "Cross-file documentation data for JavaScript monorepos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if cmd.Flags().Changed("trace-exporter") {
				cfg.TraceExporter = traceExporter
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg)
			slog.SetDefault(a.logger)

			shutdown, err := setupTracing(cmd.Context(), cfg.TraceExporter, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.shutdownTracing = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdownTracing == nil {
				return nil
			}
			return a.shutdownTracing(context.Background())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.FileName, "Configuration file")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVar(&traceExporter, "trace-exporter", "none", "Trace exporter: none, stdout or otlp")

	root.AddCommand(
		newGenerateCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newShowCmd(a),
		newComponentsCmd(a),
	)
	return root
}

// newLogger builds the process logger. Logs always go to w so that stdout
// stays free for command output and the MCP protocol.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
