// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mcpserver exposes a documentation document to MCP clients over
// stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
)

const (
	// ServerName is the MCP server name.
	ServerName = "docuflow"

	// ServerVersion is the MCP server version.
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with a documentation reader.
//
// Thread Safety: Safe for concurrent use when the Reader is.
type Server struct {
	mcp    *server.MCPServer
	reader pkgdoc.Reader
	logger *slog.Logger
}

// NewServer creates a server with every tool registered.
func NewServer(reader pkgdoc.Reader, logger *slog.Logger) (*Server, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		reader: reader,
		logger: logger,
	}
	s.mcp.AddTool(listPackagesTool(), s.handleListPackages)
	s.mcp.AddTool(getPackageTool(), s.handleGetPackage)
	s.mcp.AddTool(getComponentsTool(), s.handleGetComponents)
	s.mcp.AddTool(getFileTool(), s.handleGetFile)
	return s, nil
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleListPackages(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.reader.PackageNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	return textResult(map[string]interface{}{"packages": names})
}

func (s *Server) handleGetPackage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := stringArg(request, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.reader.GetPackage(ctx, name)
	if errors.Is(err, pkgdoc.ErrPackageNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading package %s: %w", name, err)
	}
	return textResult(map[string]interface{}{"name": rec.Name, "record": rec})
}

func (s *Server) handleGetComponents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := stringArg(request, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.reader.GetPackage(ctx, name)
	if errors.Is(err, pkgdoc.ErrPackageNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading package %s: %w", name, err)
	}
	components := pkgdoc.InspectComponents(rec, s.logger)
	if components == nil {
		components = []pkgdoc.Component{}
	}
	return textResult(map[string]interface{}{"package": rec.Name, "components": components})
}

func (s *Server) handleGetFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := stringArg(request, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	table, err := s.reader.GetFile(ctx, path)
	if errors.Is(err, pkgdoc.ErrFileNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading file %s: %w", path, err)
	}
	return textResult(map[string]interface{}{"path": path, "table": table})
}

// stringArg returns a required, non-empty string argument.
func stringArg(request mcp.CallToolRequest, key string) (string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid arguments")
	}
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	return v, nil
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
