// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/symbols"
)

// ErrSourceRead indicates an in-scope source file could not be read.
var ErrSourceRead = errors.New("source read failed")

// probeSuffixes are tried, in order, for relative specifiers that do not
// name an existing file.
var probeSuffixes = []string{
	".js",
	".jsx",
	".ts",
	".tsx",
	string(filepath.Separator) + "index.js",
}

// SourceParser parses one source file. *ast.Parser implements it.
type SourceParser interface {
	Parse(ctx context.Context, filePath string, content []byte) (*ast.Program, error)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRoots limits eager type-import recursion to files under the given
// directories. Relative roots are made absolute.
func WithRoots(roots ...string) BuilderOption {
	return func(b *Builder) {
		for _, root := range roots {
			if abs, err := filepath.Abs(root); err == nil {
				b.roots = append(b.roots, abs)
			}
		}
	}
}

// WithPackages maps bare package names to their entry files so that
// imports between packages under analysis resolve to real files.
func WithPackages(entries map[string]string) BuilderOption {
	return func(b *Builder) {
		for name, entry := range entries {
			b.packages[name] = filepath.Clean(entry)
		}
	}
}

// WithBuilderLogger sets the builder's logger.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder fills a Cache with symbol tables, parsing each file at most once.
//
// Description:
//
//	Build materializes the table of one file and, transitively, of every
//	file an export alias or an in-scope type import points at, so that the
//	resolvers never need to parse. Work is driven by an explicit worklist;
//	files already in the cache are skipped, which bounds cyclic graphs to
//	one parse per file.
//
// Thread Safety:
//
//	Safe for concurrent use. Two goroutines racing on the same file may
//	both parse it; the cache keeps the first table inserted.
type Builder struct {
	cache    *Cache
	parser   SourceParser
	roots    []string
	packages map[string]string
	logger   *slog.Logger
	builds   atomic.Int64
}

// NewBuilder creates a Builder over cache.
//
// Inputs:
//
//	cache  - The run's module graph cache. Must not be nil.
//	parser - The source parser. Must not be nil.
//	opts   - Optional configuration.
//
// Outputs:
//
//	*Builder - The configured builder.
//	error    - Non-nil if cache or parser is nil.
func NewBuilder(cache *Cache, parser SourceParser, opts ...BuilderOption) (*Builder, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache must not be nil")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser must not be nil")
	}
	b := &Builder{
		cache:    cache,
		parser:   parser,
		packages: make(map[string]string),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Cache returns the builder's cache.
func (b *Builder) Cache() *Cache {
	return b.cache
}

// Builds returns how many files this builder has parsed.
func (b *Builder) Builds() int64 {
	return b.builds.Load()
}

// Build returns the table for filePath, building it and its export
// dependencies if needed.
//
// Inputs:
//
//	ctx      - Context for cancellation. Checked between files.
//	filePath - Path of the file. Made absolute and cleaned.
//
// Outputs:
//
//	*symbols.Table - The file's table.
//	error          - ErrSourceRead wrapping the OS error for unreadable
//	                 files, the parser's error (ast.ErrParse for syntax
//	                 errors), or a context error. All are fatal to the run.
func (b *Builder) Build(ctx context.Context, filePath string) (*symbols.Table, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", filePath, err)
	}
	abs = filepath.Clean(abs)

	if t, ok := b.cache.Get(abs); ok {
		return t, nil
	}

	ctx, span := startBuildSpan(ctx, abs)
	defer span.End()

	start := time.Now()
	queued := map[string]struct{}{abs: {}}
	worklist := []string{abs}
	built := 0

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		if _, ok := b.cache.Get(current); ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build canceled at %s: %w", current, err)
		}

		table, err := b.buildFile(ctx, current)
		if err != nil {
			setBuildSpanError(span, err)
			return nil, err
		}
		if err := b.cache.Put(table); err != nil && !errors.Is(err, ErrAlreadyCached) {
			return nil, err
		}
		built++

		for _, dep := range b.dependencies(table) {
			if _, ok := queued[dep]; ok {
				continue
			}
			queued[dep] = struct{}{}
			worklist = append(worklist, dep)
		}
	}

	setBuildSpanResult(span, built, b.cache.Len())
	b.logger.Debug("module graph built",
		slog.String("entry", abs),
		slog.Int("files_built", built),
		slog.Int("cache_size", b.cache.Len()),
		slog.Duration("duration", time.Since(start)))

	t, ok := b.cache.Get(abs)
	if !ok {
		return nil, fmt.Errorf("table for %s missing after build", abs)
	}
	return t, nil
}

// Reachable returns the cached files Build visits from entry, in sorted
// order. It follows the same edges as Build, so the result does not depend
// on which other entries were built into the shared cache first.
func (b *Builder) Reachable(entry string) []string {
	return b.cache.Reachable(entry, b.dependencies)
}

// buildFile reads, parses and partitions one file.
func (b *Builder) buildFile(ctx context.Context, path string) (*symbols.Table, error) {
	start := time.Now()
	content, err := os.ReadFile(path)
	if err != nil {
		recordBuild(time.Since(start), false)
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceRead, path, err)
	}

	prog, err := b.parser.Parse(ctx, path, content)
	if err != nil {
		recordBuild(time.Since(start), false)
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	table := symbols.FromProgram(path, prog, b.ResolveSource, b.logger)
	b.builds.Add(1)
	recordBuild(time.Since(start), true)

	b.logger.Debug("symbol table built",
		slog.String("file", path),
		slog.Int("exported_values", len(table.ExportedValues)),
		slog.Int("exported_types", len(table.ExportedTypes)))
	return table, nil
}

// dependencies lists the files that must be built after table: sources of
// import bindings used by export aliases, and in-scope type import sources.
// Bare specifiers are external and never followed.
func (b *Builder) dependencies(table *symbols.Table) []string {
	var deps []string
	for _, dep := range table.ValueDependencies() {
		if filepath.IsAbs(dep) {
			deps = append(deps, dep)
		}
	}
	for _, dep := range table.TypeDependencies() {
		if filepath.IsAbs(dep) && b.inRoots(dep) {
			deps = append(deps, dep)
		}
	}
	return deps
}

// inRoots reports whether path lies under an analysis root. With no roots
// configured every absolute path is in scope.
func (b *Builder) inRoots(path string) bool {
	if len(b.roots) == 0 {
		return true
	}
	for _, root := range b.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)) {
			return true
		}
	}
	return false
}

// ResolveSource maps an import specifier written in fromFile to a graph key.
//
// Description:
//
//	Relative specifiers are joined against fromFile's directory and, when
//	they do not name an existing file, probed with the usual extensions and
//	an index.js. A bare specifier naming a package under analysis maps to
//	that package's entry file. Other bare specifiers are returned verbatim.
func (b *Builder) ResolveSource(fromFile, specifier string) string {
	if strings.HasPrefix(specifier, ".") {
		joined := filepath.Join(filepath.Dir(fromFile), specifier)
		if isFile(joined) {
			return joined
		}
		for _, suffix := range probeSuffixes {
			if candidate := joined + suffix; isFile(candidate) {
				return candidate
			}
		}
		return joined
	}
	if entry, ok := b.packages[specifier]; ok {
		return entry
	}
	if filepath.IsAbs(specifier) {
		return filepath.Clean(specifier)
	}
	return specifier
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
