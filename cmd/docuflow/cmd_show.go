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
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
)

func newShowCmd(a *app) *cobra.Command {
	var input, badgerDir string
	cmd := &cobra.Command{
		Use:   "show [package]",
		Short: "Print the documented packages, or the exports of one package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reader, err := openReader(ctx, a, input, badgerDir)
			if err != nil {
				return err
			}
			defer reader.Close()

			r := newRenderer(stdoutIsTerminal())
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				names, err := reader.PackageNames(ctx)
				if err != nil {
					return err
				}
				records := make([]*pkgdoc.PackageRecord, 0, len(names))
				for _, name := range names {
					rec, err := reader.GetPackage(ctx, name)
					if err != nil {
						return err
					}
					records = append(records, rec)
				}
				fmt.Fprint(out, r.packageList(records))
				return nil
			}

			rec, err := reader.GetPackage(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(out, r.packageDetail(rec))
			return nil
		},
	}
	inputFlags(cmd, &input, &badgerDir)
	return cmd
}

func newComponentsCmd(a *app) *cobra.Command {
	var input, badgerDir string
	cmd := &cobra.Command{
		Use:   "components <package>",
		Short: "Describe the component classes a package exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reader, err := openReader(ctx, a, input, badgerDir)
			if err != nil {
				return err
			}
			defer reader.Close()

			rec, err := reader.GetPackage(ctx, args[0])
			if err != nil {
				return err
			}
			components := pkgdoc.InspectComponents(rec, a.logger)
			fmt.Fprint(cmd.OutOrStdout(), newRenderer(stdoutIsTerminal()).components(rec.Name, components))
			return nil
		},
	}
	inputFlags(cmd, &input, &badgerDir)
	return cmd
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
