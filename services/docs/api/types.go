// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/Khan/docuflow/services/docs/pkgdoc"
	"github.com/Khan/docuflow/services/docs/symbols"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PackageSummary is one entry of ListPackagesResponse.
type PackageSummary struct {
	Name         string `json:"name"`
	Version      string `json:"version,omitempty"`
	Entry        string `json:"entry"`
	Files        int    `json:"files"`
	Declarations int    `json:"declarations"`
}

// ListPackagesResponse is returned by GET /v1/docs/packages.
type ListPackagesResponse struct {
	Packages []PackageSummary `json:"packages"`
}

// DeclarationSummary names one export and its category.
type DeclarationSummary struct {
	Name     string          `json:"name"`
	Source   string          `json:"source"`
	Category pkgdoc.Category `json:"category"`
}

// PackageResponse is returned by GET /v1/docs/packages/:name.
type PackageResponse struct {
	Name    string                `json:"name"`
	Summary []DeclarationSummary  `json:"summary"`
	Record  *pkgdoc.PackageRecord `json:"record"`
}

// ComponentsResponse is returned by GET /v1/docs/packages/:name/components.
type ComponentsResponse struct {
	Package    string             `json:"package"`
	Components []pkgdoc.Component `json:"components"`
}

// FileResponse is returned by GET /v1/docs/files.
type FileResponse struct {
	Path  string         `json:"path"`
	Table *symbols.Table `json:"table"`
}
