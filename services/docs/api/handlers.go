// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api serves a documentation document over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
)

// requestIDHeader carries the request ID in and out.
const requestIDHeader = "X-Request-ID"

// Handlers serves read requests from a pkgdoc.Reader.
//
// Thread Safety: Safe for concurrent use when the Reader is.
type Handlers struct {
	reader pkgdoc.Reader
}

// NewHandlers creates handlers over reader.
func NewHandlers(reader pkgdoc.Reader) *Handlers {
	return &Handlers{reader: reader}
}

// HandleListPackages handles GET /v1/docs/packages.
//
// Response:
//
//	200 OK: ListPackagesResponse
//	500 Internal Server Error: The reader failed
func (h *Handlers) HandleListPackages(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleListPackages")
	ctx := c.Request.Context()

	names, err := h.reader.PackageNames(ctx)
	if err != nil {
		logger.Error("listing packages failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to list packages: " + err.Error(),
			Code:  "READ_FAILED",
		})
		return
	}

	resp := ListPackagesResponse{Packages: make([]PackageSummary, 0, len(names))}
	for _, name := range names {
		rec, err := h.reader.GetPackage(ctx, name)
		if err != nil {
			logger.Warn("skipping unreadable package",
				slog.String("package", name),
				slog.Any("error", err))
			continue
		}
		resp.Packages = append(resp.Packages, PackageSummary{
			Name:         name,
			Version:      rec.Version,
			Entry:        rec.Entry,
			Files:        len(rec.Files),
			Declarations: len(rec.Declarations),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetPackage handles GET /v1/docs/packages/:name.
//
// Description:
//
//	Scoped names contain a slash and must be sent escaped, e.g.
//	/v1/docs/packages/@khanacademy%2Fwonder-blocks-core.
//
// Response:
//
//	200 OK: PackageResponse
//	404 Not Found: Unknown package
//	500 Internal Server Error: The reader failed
func (h *Handlers) HandleGetPackage(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetPackage")

	rec, ok := h.loadPackage(c, logger)
	if !ok {
		return
	}

	summary := make([]DeclarationSummary, 0, len(rec.Declarations))
	for _, d := range rec.Declarations {
		summary = append(summary, DeclarationSummary{
			Name:     d.Name,
			Source:   d.Source,
			Category: pkgdoc.Classify(d.Declaration.Node),
		})
	}
	c.JSON(http.StatusOK, PackageResponse{Name: rec.Name, Summary: summary, Record: rec})
}

// HandleGetComponents handles GET /v1/docs/packages/:name/components.
//
// Response:
//
//	200 OK: ComponentsResponse
//	404 Not Found: Unknown package
func (h *Handlers) HandleGetComponents(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetComponents")

	rec, ok := h.loadPackage(c, logger)
	if !ok {
		return
	}
	components := pkgdoc.InspectComponents(rec, logger)
	if components == nil {
		components = []pkgdoc.Component{}
	}
	c.JSON(http.StatusOK, ComponentsResponse{Package: rec.Name, Components: components})
}

// HandleGetFile handles GET /v1/docs/files?path=.
//
// Query Parameters:
//
//	path: Absolute path of a documented file (required)
//
// Response:
//
//	200 OK: FileResponse
//	400 Bad Request: Missing path
//	404 Not Found: The file is in no package
func (h *Handlers) HandleGetFile(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGetFile")

	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "path parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	table, err := h.reader.GetFile(c.Request.Context(), path)
	if errors.Is(err, pkgdoc.ErrFileNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "file not found",
			Code:  "FILE_NOT_FOUND",
		})
		return
	}
	if err != nil {
		logger.Error("file lookup failed", slog.String("path", path), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to read file: " + err.Error(),
			Code:  "READ_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, FileResponse{Path: path, Table: table})
}

// HandleHealth handles GET /v1/docs/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	getOrCreateRequestID(c)
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// loadPackage reads the :name package and writes the error response when it
// cannot.
func (h *Handlers) loadPackage(c *gin.Context, logger *slog.Logger) (*pkgdoc.PackageRecord, bool) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "package name is required",
			Code:  "MISSING_PARAMETER",
		})
		return nil, false
	}

	rec, err := h.reader.GetPackage(c.Request.Context(), name)
	if errors.Is(err, pkgdoc.ErrPackageNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "package not found",
			Code:  "PACKAGE_NOT_FOUND",
		})
		return nil, false
	}
	if err != nil {
		logger.Error("package lookup failed", slog.String("package", name), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to read package: " + err.Error(),
			Code:  "READ_FAILED",
		})
		return nil, false
	}
	return rec, true
}

// getOrCreateRequestID returns the caller's X-Request-ID or a new one, and
// echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header(requestIDHeader, requestID)
	return requestID
}
