// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pkgdoc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/graph"
	"github.com/Khan/docuflow/services/docs/symbols"
)

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithAssemblerLogger sets the assembler's logger.
func WithAssemblerLogger(logger *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Assembler turns package manifests into PackageRecords.
//
// Thread Safety:
//
//	Safe for concurrent use when the builder and resolver share one cache,
//	which is the normal setup.
type Assembler struct {
	builder  *graph.Builder
	resolver *graph.Resolver
	logger   *slog.Logger
}

// NewAssembler creates an Assembler.
//
// Inputs:
//
//	builder  - Builds entry tables into the run's cache. Must not be nil.
//	resolver - Resolves names over the same cache. Must not be nil.
//
// Outputs:
//
//	*Assembler - The configured assembler.
//	error      - Non-nil if builder or resolver is nil.
func NewAssembler(builder *graph.Builder, resolver *graph.Resolver, opts ...AssemblerOption) (*Assembler, error) {
	if builder == nil {
		return nil, fmt.Errorf("builder must not be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver must not be nil")
	}
	a := &Assembler{
		builder:  builder,
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assemble builds the record of one package.
//
// Description:
//
//	Builds the entry file's table (recursively populating the shared
//	cache), resolves every exported value name in sorted order and collects
//	the files reachable from the entry. Names that do not resolve are logged
//	and left out; this never fails the package.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	m   - The package manifest. Must carry a name and an entry path.
//
// Outputs:
//
//	*PackageRecord - The assembled record.
//	error          - ErrInvalidManifest, or a build error (parse failure,
//	                 unreadable source) which is fatal to the run.
func (a *Assembler) Assemble(ctx context.Context, m Manifest) (*PackageRecord, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	ctx, span := startAssembleSpan(ctx, m.Name, m.Entry)
	defer span.End()
	start := time.Now()

	logger := a.logger.With(slog.String("package", m.Name))

	entry, err := a.builder.Build(ctx, m.Entry)
	if err != nil {
		setAssembleSpanError(span, err)
		recordAssembly(false, 0, 0)
		return nil, fmt.Errorf("building %s: %w", m.Name, err)
	}

	names := entry.ExportedNames()
	declarations := make([]Declaration, 0, len(names))
	skipped := 0
	for _, name := range names {
		res, err := a.resolver.ResolveValue(name, entry.Path)
		if err != nil {
			skipped++
			logger.Warn("export not resolved",
				slog.String("name", name),
				slog.String("entry", entry.Path),
				slog.String("error", err.Error()))
			continue
		}
		declarations = append(declarations, Declaration{
			Name:        name,
			Source:      res.Source,
			Declaration: ast.Wrap(res.Declaration),
		})
	}

	cache := a.builder.Cache()
	files := make(map[string]*symbols.Table)
	for _, path := range a.builder.Reachable(entry.Path) {
		if t, ok := cache.Get(path); ok {
			files[path] = t
		}
	}

	rec := &PackageRecord{
		Name:         m.Name,
		Version:      m.Version,
		Files:        files,
		Entry:        entry.Path,
		Declarations: declarations,
	}

	setAssembleSpanResult(span, len(declarations), skipped, len(files))
	recordAssembly(true, len(declarations), skipped)
	logger.Info("package assembled",
		slog.Int("declarations", len(declarations)),
		slog.Int("unresolved", skipped),
		slog.Int("files", len(files)),
		slog.Duration("duration", time.Since(start)))
	return rec, nil
}
