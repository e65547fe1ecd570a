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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/symbols"
)

// DefaultMaxHops bounds the length of one alias chain.
const DefaultMaxHops = 256

var (
	// ErrUnresolved indicates a name that no table along the chain declares.
	ErrUnresolved = errors.New("symbol not found")

	// ErrExternalModule indicates the chain left the module graph, e.g. an
	// import from a package outside the analysis roots.
	ErrExternalModule = errors.New("symbol lives in an external module")

	// ErrCircularReexport indicates an alias chain that revisits a
	// (name, file) pair.
	ErrCircularReexport = errors.New("circular re-export")
)

// Hop is one (name, file) step of an alias chain.
type Hop struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// String returns "name@file".
func (h Hop) String() string {
	return h.Name + "@" + h.File
}

// CircularReexportError carries the chain that closed a cycle. The last
// hop equals an earlier one.
type CircularReexportError struct {
	Chain []Hop
}

// Error implements error.
func (e *CircularReexportError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, h := range e.Chain {
		parts[i] = h.String()
	}
	return fmt.Sprintf("%s: %s", ErrCircularReexport, strings.Join(parts, " -> "))
}

// Unwrap lets errors.Is match ErrCircularReexport.
func (e *CircularReexportError) Unwrap() error {
	return ErrCircularReexport
}

// Resolution is the terminal declaration of an exported name.
type Resolution struct {
	// Name is the name the resolution started from.
	Name string

	// Declaration is the declaring node. For types it is the right-hand
	// side of the alias.
	Declaration ast.Node

	// Source is the file holding Declaration.
	Source string

	// Hops is the number of files visited, the starting file included.
	Hops int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxHops overrides DefaultMaxHops. Non-positive values are ignored.
func WithMaxHops(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxHops = n
		}
	}
}

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver follows export chains through a Cache to terminal declarations.
//
// Description:
//
//	Resolution is a loop, not recursion. Each iteration looks the current
//	name up in the current file's exported table; a direct entry ends the
//	walk, an alias either hops through an import binding to another file or
//	ends at a private binding. Visited (name, file) pairs are remembered so
//	that cyclic re-exports fail with *CircularReexportError.
//
// Thread Safety:
//
//	Safe for concurrent use. The resolver only reads the cache.
type Resolver struct {
	cache   *Cache
	maxHops int
	logger  *slog.Logger
}

// NewResolver creates a Resolver over cache.
func NewResolver(cache *Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:   cache,
		maxHops: DefaultMaxHops,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// namespace selects the value or the type tables of a symbol table.
type namespace struct {
	label    string
	exported func(*symbols.Table) map[string]symbols.Entry
	imported func(*symbols.Table) map[string]symbols.ImportRef
	private  func(*symbols.Table) map[string]ast.Ref
}

var (
	valueSpace = namespace{
		label:    "value",
		exported: func(t *symbols.Table) map[string]symbols.Entry { return t.ExportedValues },
		imported: func(t *symbols.Table) map[string]symbols.ImportRef { return t.ImportedValues },
		private:  func(t *symbols.Table) map[string]ast.Ref { return t.PrivateValues },
	}
	typeSpace = namespace{
		label:    "type",
		exported: func(t *symbols.Table) map[string]symbols.Entry { return t.ExportedTypes },
		imported: func(t *symbols.Table) map[string]symbols.ImportRef { return t.ImportedTypes },
		private:  func(t *symbols.Table) map[string]ast.Ref { return t.PrivateTypes },
	}
)

// ResolveValue finds the declaration of the value exported as name by file.
//
// Inputs:
//
//	name - Exported name, "default" for the default export.
//	file - Graph key of the exporting file.
//
// Outputs:
//
//	Resolution - The terminal declaration and its file.
//	error      - ErrUnresolved, ErrExternalModule or *CircularReexportError.
//	             None of them are fatal; callers log and skip the name.
func (r *Resolver) ResolveValue(name, file string) (Resolution, error) {
	return r.resolve(valueSpace, name, file)
}

// ResolveType finds the declaration of the type exported as name by file.
// It walks the type tables exactly as ResolveValue walks the value tables.
func (r *Resolver) ResolveType(name, file string) (Resolution, error) {
	return r.resolve(typeSpace, name, file)
}

// LookupLocalType resolves a type name as written inside file: a private
// type alias, an imported type followed to its declaration, or a type the
// file exports itself.
func (r *Resolver) LookupLocalType(name, file string) (Resolution, error) {
	table, ok := r.cache.Get(file)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrExternalModule, file)
	}
	if n, ok := table.PrivateTypes[name]; ok && n.Node != nil {
		recordResolution(typeSpace.label, outcomeResolved)
		return Resolution{Name: name, Declaration: n.Node, Source: file, Hops: 1}, nil
	}
	if ref, ok := table.ImportedTypes[name]; ok {
		res, err := r.resolve(typeSpace, ref.Imported, ref.Source)
		if err != nil {
			return Resolution{}, err
		}
		res.Name = name
		res.Hops++
		return res, nil
	}
	if _, ok := table.ExportedTypes[name]; ok {
		return r.resolve(typeSpace, name, file)
	}
	recordResolution(typeSpace.label, outcomeUnresolved)
	return Resolution{}, fmt.Errorf("%w: type %s in %s", ErrUnresolved, name, file)
}

func (r *Resolver) resolve(space namespace, name, file string) (Resolution, error) {
	res, err := r.walk(space, name, file)
	switch {
	case err == nil:
		recordResolution(space.label, outcomeResolved)
	case errors.Is(err, ErrCircularReexport):
		recordResolution(space.label, outcomeCircular)
	case errors.Is(err, ErrExternalModule):
		recordResolution(space.label, outcomeExternal)
	default:
		recordResolution(space.label, outcomeUnresolved)
	}
	return res, err
}

func (r *Resolver) walk(space namespace, name, file string) (Resolution, error) {
	origin := name
	visited := make(map[Hop]struct{})
	var chain []Hop

	for {
		hop := Hop{Name: name, File: file}
		if _, seen := visited[hop]; seen {
			return Resolution{}, &CircularReexportError{Chain: append(chain, hop)}
		}
		if len(chain) >= r.maxHops {
			return Resolution{}, fmt.Errorf("%w: %s chain from %s exceeds %d hops",
				ErrUnresolved, space.label, origin, r.maxHops)
		}
		visited[hop] = struct{}{}
		chain = append(chain, hop)

		table, ok := r.cache.Get(file)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %s %s from %s", ErrExternalModule, space.label, name, file)
		}

		entry, ok := space.exported(table)[name]
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %s %s in %s", ErrUnresolved, space.label, name, file)
		}
		if !entry.IsAlias() {
			return Resolution{Name: origin, Declaration: entry.Node(), Source: file, Hops: len(chain)}, nil
		}

		local := entry.Local()
		if ref, ok := space.imported(table)[local]; ok {
			if ref.IsNamespace() {
				return Resolution{}, fmt.Errorf("%w: %s %s is a namespace import in %s",
					ErrUnresolved, space.label, local, file)
			}
			r.logger.Debug("following re-export",
				slog.String("namespace", space.label),
				slog.String("name", name),
				slog.String("file", file),
				slog.String("to_name", ref.Imported),
				slog.String("to_file", ref.Source))
			name, file = ref.Imported, ref.Source
			continue
		}
		if n, ok := space.private(table)[local]; ok && n.Node != nil {
			return Resolution{Name: origin, Declaration: n.Node, Source: file, Hops: len(chain)}, nil
		}
		return Resolution{}, fmt.Errorf("%w: %s alias %s -> %s in %s", ErrUnresolved, space.label, name, local, file)
	}
}
