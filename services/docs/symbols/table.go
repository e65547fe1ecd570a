// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbols partitions one file's top-level bindings into the six
// tables the resolvers walk: exported, imported and private, for values and
// for types.
package symbols

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Khan/docuflow/services/docs/ast"
)

// DefaultExport is the export name of `export default`.
const DefaultExport = "default"

// Table holds the top-level bindings of one file.
//
// Thread Safety:
//
//	A Table is built by FromProgram and never mutated afterwards. Concurrent
//	reads are safe.
type Table struct {
	// Path is the normalized absolute path of the file. It is the key of
	// the table in the module graph and is not serialized.
	Path string `json:"-"`

	ExportedValues map[string]Entry     `json:"exportedValues"`
	ImportedValues map[string]ImportRef `json:"importedValues"`
	PrivateValues  map[string]ast.Ref   `json:"privateValues"`
	ExportedTypes  map[string]Entry     `json:"exportedTypes"`
	ImportedTypes  map[string]ImportRef `json:"importedTypes"`
	PrivateTypes   map[string]ast.Ref   `json:"privateTypes"`
}

// NewTable returns an empty table for filePath.
func NewTable(filePath string) *Table {
	return &Table{
		Path:           filePath,
		ExportedValues: make(map[string]Entry),
		ImportedValues: make(map[string]ImportRef),
		PrivateValues:  make(map[string]ast.Ref),
		ExportedTypes:  make(map[string]Entry),
		ImportedTypes:  make(map[string]ImportRef),
		PrivateTypes:   make(map[string]ast.Ref),
	}
}

// SourceResolver maps an import specifier written in fromFile to the path
// used as a module graph key.
type SourceResolver func(fromFile, specifier string) string

// RelativeSource joins relative specifiers against the importing file's
// directory and leaves bare specifiers untouched.
func RelativeSource(fromFile, specifier string) string {
	if strings.HasPrefix(specifier, ".") {
		return filepath.Join(filepath.Dir(fromFile), specifier)
	}
	return specifier
}

// FromProgram builds the symbol table of one parsed file.
//
// Description:
//
//	Walks the top-level statements once. Exports of declarations become
//	direct entries; export specifiers become aliases; imports, type aliases,
//	interfaces and plain top-level declarations fill the imported and
//	private tables. An interface binds its body, like a type alias binds
//	its right-hand side.
//	A local name is bound either as a private declaration or as an import;
//	the first binding seen wins and a conflict is logged.
//
// Inputs:
//
//	filePath - Normalized absolute path of the file.
//	prog     - The parsed program. Must not be nil.
//	resolve  - Maps import specifiers to graph keys. RelativeSource if nil.
//	logger   - Logger for binding conflicts. slog.Default() if nil.
//
// Outputs:
//
//	*Table - The populated table. Never nil.
func FromProgram(filePath string, prog *ast.Program, resolve SourceResolver, logger *slog.Logger) *Table {
	if resolve == nil {
		resolve = RelativeSource
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &tableBuilder{
		table:   NewTable(filePath),
		resolve: resolve,
		logger:  logger.With(slog.String("file", filePath)),
	}
	for _, stmt := range prog.Body {
		b.statement(stmt.Node)
	}
	return b.table
}

type tableBuilder struct {
	table   *Table
	resolve SourceResolver
	logger  *slog.Logger
}

func (b *tableBuilder) statement(n ast.Node) {
	switch s := n.(type) {
	case *ast.ExportNamedDeclaration:
		b.exportNamed(s)
	case *ast.ExportDefaultDeclaration:
		if s.Declaration.Node != nil {
			b.table.ExportedValues[DefaultExport] = Direct(s.Declaration.Node)
		}
	case *ast.ExportAllDeclaration:
		b.logger.Debug("skipping export * declaration", slog.String("source", s.Source))
	case *ast.ImportDeclaration:
		b.importDeclaration(s)
	case *ast.TypeAlias:
		if s.ID != nil {
			b.bindPrivateType(s.ID.Name, s.Right.Node)
		}
	case *ast.InterfaceDeclaration:
		if s.ID != nil {
			b.bindPrivateType(s.ID.Name, s.Body.Node)
		}
	case *ast.VariableDeclaration:
		for _, d := range s.Declarations {
			if name := d.Name(); name != "" {
				b.bindPrivateValue(name, d)
			}
		}
	case *ast.ClassDeclaration:
		if s.ID != nil {
			b.bindPrivateValue(s.ID.Name, s)
		}
	case *ast.FunctionDeclaration:
		if s.ID != nil {
			b.bindPrivateValue(s.ID.Name, s)
		}
	}
}

func (b *tableBuilder) exportNamed(s *ast.ExportNamedDeclaration) {
	switch d := s.Declaration.Node.(type) {
	case *ast.VariableDeclaration:
		for _, declarator := range d.Declarations {
			if name := declarator.Name(); name != "" {
				b.table.ExportedValues[name] = Direct(declarator)
			}
		}
	case *ast.TypeAlias:
		if d.ID != nil && d.Right.Node != nil {
			b.table.ExportedTypes[d.ID.Name] = Direct(d.Right.Node)
		}
	case *ast.InterfaceDeclaration:
		if d.ID != nil && d.Body.Node != nil {
			b.table.ExportedTypes[d.ID.Name] = Direct(d.Body.Node)
		}
	case *ast.ClassDeclaration:
		if d.ID != nil {
			b.table.ExportedValues[d.ID.Name] = Direct(d)
		}
	case *ast.FunctionDeclaration:
		if d.ID != nil {
			b.table.ExportedValues[d.ID.Name] = Direct(d)
		}
	}

	var source string
	if s.Source != "" {
		source = b.resolve(b.table.Path, s.Source)
	}
	for _, spec := range s.Specifiers {
		isType := s.ExportKind == ast.ImportKindType || spec.ExportKind == ast.ImportKindType
		exported, imported := b.table.ExportedValues, b.bindImportValue
		if isType {
			exported, imported = b.table.ExportedTypes, b.bindImportType
		}

		if s.Source == "" {
			exported[spec.Exported] = Alias(spec.Local)
			continue
		}
		// A re-export from another file aliases a synthetic import bound
		// under the exported name.
		exported[spec.Exported] = Alias(spec.Exported)
		imported(spec.Exported, ImportRef{Source: source, Imported: spec.Local})
	}
}

func (b *tableBuilder) importDeclaration(s *ast.ImportDeclaration) {
	source := b.resolve(b.table.Path, s.Source)
	for _, spec := range s.Specifiers {
		kind := s.ImportKind
		if spec.ImportKind != "" {
			kind = spec.ImportKind
		}
		ref := ImportRef{Source: source, Imported: spec.Imported}
		if kind == ast.ImportKindValue || kind == "" {
			b.bindImportValue(spec.Local, ref)
		} else {
			b.bindImportType(spec.Local, ref)
		}
	}
}

func (b *tableBuilder) bindPrivateValue(name string, n ast.Node) {
	if _, ok := b.table.ImportedValues[name]; ok {
		b.conflict(name, "value")
		return
	}
	b.table.PrivateValues[name] = ast.Wrap(n)
}

func (b *tableBuilder) bindImportValue(name string, ref ImportRef) {
	if _, ok := b.table.PrivateValues[name]; ok {
		b.conflict(name, "value")
		return
	}
	b.table.ImportedValues[name] = ref
}

func (b *tableBuilder) bindPrivateType(name string, n ast.Node) {
	if n == nil {
		return
	}
	if _, ok := b.table.ImportedTypes[name]; ok {
		b.conflict(name, "type")
		return
	}
	b.table.PrivateTypes[name] = ast.Wrap(n)
}

func (b *tableBuilder) bindImportType(name string, ref ImportRef) {
	if _, ok := b.table.PrivateTypes[name]; ok {
		b.conflict(name, "type")
		return
	}
	b.table.ImportedTypes[name] = ref
}

func (b *tableBuilder) conflict(name, space string) {
	b.logger.Warn("local name bound twice, keeping first binding",
		slog.String("name", name),
		slog.String("namespace", space))
}

// ValueDependencies returns the sources the value resolver may hop to: the
// non-namespace imports named by alias entries of ExportedValues. Sorted,
// deduplicated.
func (t *Table) ValueDependencies() []string {
	seen := make(map[string]struct{})
	for _, e := range t.ExportedValues {
		if !e.IsAlias() {
			continue
		}
		if ref, ok := t.ImportedValues[e.Local()]; ok && !ref.IsNamespace() {
			seen[ref.Source] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// TypeDependencies returns the sources of every imported type. Sorted,
// deduplicated.
func (t *Table) TypeDependencies() []string {
	seen := make(map[string]struct{})
	for _, ref := range t.ImportedTypes {
		seen[ref.Source] = struct{}{}
	}
	return sortedKeys(seen)
}

// Dependencies returns the sources of every import, value or type. Sorted,
// deduplicated.
func (t *Table) Dependencies() []string {
	seen := make(map[string]struct{})
	for _, ref := range t.ImportedValues {
		seen[ref.Source] = struct{}{}
	}
	for _, ref := range t.ImportedTypes {
		seen[ref.Source] = struct{}{}
	}
	return sortedKeys(seen)
}

// ExportedNames returns the keys of ExportedValues in sorted order.
func (t *Table) ExportedNames() []string {
	names := make([]string, 0, len(t.ExportedValues))
	for name := range t.ExportedValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
