// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph holds the module graph of one documentation run: the cache
// of per-file symbol tables, the builder that fills it, and the resolvers
// that chase export chains through it.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Khan/docuflow/services/docs/symbols"
)

// ErrAlreadyCached indicates a second insertion for the same path.
var ErrAlreadyCached = errors.New("file already cached")

// Cache maps normalized absolute file paths to symbol tables.
//
// Description:
//
//	The cache is shared by every build and resolution call of a run. It only
//	grows: a path is inserted once and its table is never replaced.
//
// Thread Safety:
//
//	Safe for concurrent use. Insertion takes the write lock; lookups take
//	the read lock.
type Cache struct {
	mu     sync.RWMutex
	tables map[string]*symbols.Table
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{tables: make(map[string]*symbols.Table)}
}

// NewCacheFrom creates a cache over already-built tables, e.g. the files of
// a decoded documentation document. Each table's Path is set to its key.
func NewCacheFrom(tables map[string]*symbols.Table) *Cache {
	c := &Cache{tables: make(map[string]*symbols.Table, len(tables))}
	for path, t := range tables {
		if t == nil {
			continue
		}
		if t.Path != path {
			t.Path = path
		}
		c.tables[path] = t
	}
	return c
}

// Get returns the table for path.
func (c *Cache) Get(path string) (*symbols.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[path]
	return t, ok
}

// Put inserts a table under its Path.
//
// Outputs:
//
//	error - ErrAlreadyCached if a table for the path exists. The existing
//	        table is kept.
func (c *Cache) Put(t *symbols.Table) error {
	if t == nil {
		return fmt.Errorf("table must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[t.Path]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyCached, t.Path)
	}
	c.tables[t.Path] = t
	return nil
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Paths returns every cached path in sorted order.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.tables))
	for p := range c.tables {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reachable returns the cached files reachable from entry, entry included,
// in sorted order. edges lists a table's outgoing edges; nil follows every
// import (symbols.Table.Dependencies). Edges to files that are not cached
// are skipped.
func (c *Cache) Reachable(entry string, edges func(*symbols.Table) []string) []string {
	if edges == nil {
		edges = (*symbols.Table).Dependencies
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.tables[entry]; !ok {
		return nil
	}
	seen := map[string]struct{}{entry: {}}
	queue := []string{entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range edges(c.tables[current]) {
			if _, ok := c.tables[dep]; !ok {
				continue
			}
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
