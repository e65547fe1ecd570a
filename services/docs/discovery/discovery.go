// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery finds the packages of a monorepo by their package.json
// manifests and decides the entry file of each.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/Khan/docuflow/services/docs/pkgdoc"
)

// DefaultPattern matches the manifests of a packages/ monorepo layout.
const DefaultPattern = "packages/*/package.json"

// defaultConcurrency bounds the manifests read at once.
const defaultConcurrency = 8

// ErrInvalidManifest indicates a manifest that cannot be documented. It is
// fatal to that package only.
var ErrInvalidManifest = pkgdoc.ErrInvalidManifest

// packageJSON is the subset of package.json read by discovery.
type packageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Source  string `json:"source"`
	Module  string `json:"module"`
	Main    string `json:"main"`
}

// Failure records a manifest that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of a discovery run.
type Result struct {
	// Manifests are the loadable packages, sorted by name.
	Manifests []pkgdoc.Manifest

	// Failures are the manifests that were skipped, sorted by path.
	Failures []Failure
}

// Option configures Discover.
type Option func(*options)

type options struct {
	concurrency int
	logger      *slog.Logger
}

// WithConcurrency bounds the number of manifests read in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger for skipped manifests.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Discover loads every manifest matching pattern under root.
//
// Description:
//
//	The pattern is a filepath.Match glob relative to root. Manifests are read
//	concurrently. A manifest that is unreadable, malformed or without a
//	resolvable entry file lands in Result.Failures and the rest continue.
//	Two manifests declaring the same name keep the one with the smaller path.
//
// Inputs:
//
//	ctx     - Cancels the run between manifests.
//	root    - The analysis root.
//	pattern - Manifest glob; empty means DefaultPattern.
//
// Outputs:
//
//	*Result - The loaded manifests and the failures.
//	error   - Non-nil only for a bad pattern or a canceled context.
func Discover(ctx context.Context, root, pattern string, opts ...Option) (*Result, error) {
	o := options{concurrency: defaultConcurrency, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	paths, err := filepath.Glob(filepath.Join(absRoot, pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", pattern, err)
	}
	sort.Strings(paths)

	var (
		mu        sync.Mutex
		manifests = make(map[string]pkgdoc.Manifest, len(paths))
		result    Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := Load(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.Warn("skipping package",
					slog.String("manifest", path),
					slog.String("error", err.Error()))
				result.Failures = append(result.Failures, Failure{Path: path, Err: err})
				return nil
			}
			if !ValidVersion(m.Version) {
				o.logger.Warn("package version is not semantic",
					slog.String("package", m.Name),
					slog.String("version", m.Version))
			}
			if prev, ok := manifests[m.Name]; ok {
				// Lowest directory wins, whatever order loads finish in.
				kept, ignored := m, prev
				if prev.Dir < m.Dir {
					kept, ignored = prev, m
				}
				o.logger.Warn("duplicate package name",
					slog.String("package", m.Name),
					slog.String("kept", kept.Dir),
					slog.String("ignored", ignored.Dir))
				manifests[m.Name] = kept
				return nil
			}
			manifests[m.Name] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovering packages: %w", err)
	}

	result.Manifests = make([]pkgdoc.Manifest, 0, len(manifests))
	for _, m := range manifests {
		result.Manifests = append(result.Manifests, m)
	}
	sort.Slice(result.Manifests, func(i, j int) bool {
		return result.Manifests[i].Name < result.Manifests[j].Name
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Path < result.Failures[j].Path
	})
	return &result, nil
}

// Load reads one package.json and decides its entry file.
//
// Description:
//
//	The entry is the first of: the `source` field, index.js beside the
//	manifest, the `module` field, the `main` field. The chosen file must
//	exist. A version that is not semantic does not fail the load.
//
// Outputs:
//
//	pkgdoc.Manifest - The manifest with absolute Entry and Dir.
//	error           - Wraps ErrInvalidManifest for malformed JSON, a missing
//	                  name or a missing entry file; read errors are returned
//	                  as is.
func Load(path string) (pkgdoc.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pkgdoc.Manifest{}, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return pkgdoc.Manifest{}, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}

	dir := filepath.Dir(path)
	m := pkgdoc.Manifest{
		Name:    pj.Name,
		Version: pj.Version,
		Dir:     dir,
		Entry:   entryFile(dir, pj),
	}
	if err := m.Validate(); err != nil {
		return pkgdoc.Manifest{}, err
	}
	if info, err := os.Stat(m.Entry); err != nil || info.IsDir() {
		return pkgdoc.Manifest{}, fmt.Errorf("%w: %s: entry file %s does not exist",
			ErrInvalidManifest, path, m.Entry)
	}
	return m, nil
}

// ValidVersion reports whether v is a semantic version. An empty version is
// valid; private packages often omit it.
func ValidVersion(v string) bool {
	if v == "" {
		return true
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v)
}

func entryFile(dir string, pj packageJSON) string {
	if pj.Source != "" {
		return filepath.Join(dir, pj.Source)
	}
	index := filepath.Join(dir, "index.js")
	if _, err := os.Stat(index); err == nil {
		return index
	}
	if pj.Module != "" {
		return filepath.Join(dir, pj.Module)
	}
	if pj.Main != "" {
		return filepath.Join(dir, pj.Main)
	}
	return ""
}
