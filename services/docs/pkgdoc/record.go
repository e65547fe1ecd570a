// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pkgdoc assembles per-package documentation records and the
// documentation data document that collects them.
package pkgdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/symbols"
)

var (
	// ErrInvalidManifest indicates a manifest without a name or entry file.
	ErrInvalidManifest = errors.New("invalid package manifest")

	// ErrPackageNotFound indicates a lookup of a package absent from the document.
	ErrPackageNotFound = errors.New("package not found")

	// ErrFileNotFound indicates a lookup of a file absent from every package.
	ErrFileNotFound = errors.New("file not found")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manifest identifies one package to document.
type Manifest struct {
	// Name is the package name from package.json.
	Name string `json:"name" validate:"required"`

	// Version is the package version, if declared.
	Version string `json:"version,omitempty"`

	// Entry is the absolute path of the entry file.
	Entry string `json:"entry" validate:"required"`

	// Dir is the directory holding package.json.
	Dir string `json:"dir,omitempty"`
}

// Validate checks the required fields.
func (m Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidManifest, m.Dir, err)
	}
	return nil
}

// Declaration is one resolved export of a package.
type Declaration struct {
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Declaration ast.Ref `json:"declaration"`
}

// PackageRecord is the documentation of one package.
//
// Description:
//
//	Files holds the symbol table of every file reachable from Entry.
//	Declarations lists each exported name of the entry file that resolved,
//	sorted by name. A record is not modified after assembly.
type PackageRecord struct {
	Name         string                    `json:"-"`
	Version      string                    `json:"version,omitempty"`
	Files        map[string]*symbols.Table `json:"files"`
	Entry        string                    `json:"entry"`
	Declarations []Declaration             `json:"declarations"`
}

// Declaration returns the resolved declaration exported as name.
func (r *PackageRecord) Declaration(name string) (Declaration, bool) {
	i := sort.Search(len(r.Declarations), func(i int) bool {
		return r.Declarations[i].Name >= name
	})
	if i < len(r.Declarations) && r.Declarations[i].Name == name {
		return r.Declarations[i], true
	}
	return Declaration{}, false
}

// Reader is the read interface consumers use to query documentation.
type Reader interface {
	// GetPackage returns the record of the named package.
	GetPackage(ctx context.Context, name string) (*PackageRecord, error)

	// GetFile returns the symbol table of a file from any package.
	GetFile(ctx context.Context, path string) (*symbols.Table, error)

	// PackageNames lists the documented packages in sorted order.
	PackageNames(ctx context.Context) ([]string, error)
}

// Document maps package names to records. It is the output of a run.
type Document map[string]*PackageRecord

var _ Reader = Document(nil)

// Marshal serializes the document with four-space indentation and a
// trailing newline. Map keys are emitted in sorted order, so equal documents
// serialize to identical bytes.
func (d Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalDocument decodes a serialized document and restores the fields
// that are implied by map keys.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	if d == nil {
		d = Document{}
	}
	for name, rec := range d {
		if rec == nil {
			delete(d, name)
			continue
		}
		rec.restore(name)
	}
	return d, nil
}

// UnmarshalRecord decodes one serialized record of the named package.
func UnmarshalRecord(name string, data []byte) (*PackageRecord, error) {
	var rec PackageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling package %s: %w", name, err)
	}
	rec.restore(name)
	return &rec, nil
}

// restore sets Name and table paths after decoding.
func (r *PackageRecord) restore(name string) {
	r.Name = name
	for path, t := range r.Files {
		if t != nil {
			t.Path = path
		}
	}
}

// GetPackage implements Reader.
func (d Document) GetPackage(_ context.Context, name string) (*PackageRecord, error) {
	rec, ok := d[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}
	return rec, nil
}

// GetFile implements Reader. Packages are searched in name order.
func (d Document) GetFile(ctx context.Context, path string) (*symbols.Table, error) {
	names, _ := d.PackageNames(ctx)
	for _, name := range names {
		if t, ok := d[name].Files[path]; ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
}

// PackageNames implements Reader.
func (d Document) PackageNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
