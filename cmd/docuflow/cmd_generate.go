// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"

	"github.com/Khan/docuflow/services/docs"
	"github.com/Khan/docuflow/services/docs/store"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		root, packages, output, badgerDir string
		maxHops                           int
		watch                             bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the documentation data document",
		Long: `Discovers every package under the root, resolves the exports of each
package entry file across files and packages, and writes one JSON document.
A syntax error or unreadable file aborts the run without writing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			f := cmd.Flags()
			if f.Changed("root") {
				cfg.Root = root
			}
			if f.Changed("packages") {
				cfg.Packages = packages
			}
			if f.Changed("output") {
				cfg.Output = output
			}
			if f.Changed("badger") {
				cfg.BadgerDir = badgerDir
			}
			if f.Changed("max-hops") {
				cfg.MaxHops = maxHops
			}

			opts := []docs.ServiceOption{docs.WithLogger(a.logger)}
			if cfg.BadgerDir != "" {
				db, err := badger.Open(badger.DefaultOptions(cfg.BadgerDir).WithLogger(nil))
				if err != nil {
					return fmt.Errorf("opening badger at %s: %w", cfg.BadgerDir, err)
				}
				defer db.Close()
				mirror, err := store.NewBadgerStore(db, a.logger)
				if err != nil {
					return err
				}
				opts = append(opts, docs.WithMirror(mirror))
			}

			svc, err := docs.NewService(cfg, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watch {
				return svc.Watch(ctx, docs.WatchOptions{
					OnRun: func(res *docs.RunResult, err error) {
						if err == nil {
							printRunSummary(cmd, res)
						}
					},
				})
			}
			res, err := svc.Generate(ctx)
			if err != nil {
				return err
			}
			printRunSummary(cmd, res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&root, "root", "", "Analysis root (default from config)")
	f.StringVar(&packages, "packages", "", "Manifest glob relative to the root")
	f.StringVar(&output, "output", "", "Output URL: a path, file:// or mem:// location")
	f.StringVar(&badgerDir, "badger", "", "Also mirror the document into this BadgerDB directory")
	f.IntVar(&maxHops, "max-hops", 0, "Maximum resolution chain length")
	f.BoolVar(&watch, "watch", false, "Regenerate whenever sources change")
	return cmd
}

func printRunSummary(cmd *cobra.Command, res *docs.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "documented %d packages (%d files) to %s in %s\n",
		len(res.Document), res.Files, res.OutputURL, res.Duration.Round(time.Millisecond))
	for _, f := range res.Failures {
		fmt.Fprintf(out, "  skipped %s: %v\n", f.Path, f.Err)
	}
	slog.Debug("run summary printed", slog.String("run_id", res.RunID))
}
