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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Khan/docuflow/services/docs/api"
	"github.com/Khan/docuflow/services/docs/mcpserver"
)

func newServeCmd(a *app) *cobra.Command {
	var input, badgerDir, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a documentation document over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reader, err := openReader(ctx, a, input, badgerDir)
			if err != nil {
				return err
			}
			defer reader.Close()

			if a.cfg.Level() > slog.LevelDebug {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(api.NewHandlers(reader)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting docuflow server", slog.String("address", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serving on %s: %w", addr, err)
			case <-ctx.Done():
				a.logger.Info("shutting down docuflow server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	inputFlags(cmd, &input, &badgerDir)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	var input, badgerDir string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve a documentation document to MCP clients on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, err := openReader(cmd.Context(), a, input, badgerDir)
			if err != nil {
				return err
			}
			defer reader.Close()

			s, err := mcpserver.NewServer(reader, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("starting MCP server on stdio")
			return s.Serve()
		},
	}
	inputFlags(cmd, &input, &badgerDir)
	return cmd
}
