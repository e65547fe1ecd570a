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
	"path/filepath"
	"testing"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/symbols"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph writes files, builds entry and returns a resolver over the cache.
func buildGraph(t *testing.T, files map[string]string, entry string) (*Resolver, string) {
	t.Helper()
	dir := writeFiles(t, t.TempDir(), files)
	b, _ := newTestBuilder(t)
	_, err := b.Build(context.Background(), filepath.Join(dir, entry))
	require.NoError(t, err)
	return NewResolver(b.Cache(), WithResolverLogger(testLogger())), dir
}

func TestResolveValue_DirectDeclaration(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"index.js": `export function foo() {}`,
	}, "index.js")

	res, err := r.ResolveValue("foo", filepath.Join(dir, "index.js"))
	require.NoError(t, err)
	fn, ok := res.Declaration.(*ast.FunctionDeclaration)
	require.True(t, ok, "got %T", res.Declaration)
	assert.Equal(t, "foo", fn.ID.Name)
	assert.Equal(t, filepath.Join(dir, "index.js"), res.Source)
	assert.Equal(t, "foo", res.Name)
	assert.Equal(t, 1, res.Hops)
}

func TestResolveValue_PrivateAlias(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"a.js": `const bar = 1; export { bar };`,
	}, "a.js")

	res, err := r.ResolveValue("bar", filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	decl, ok := res.Declaration.(*ast.VariableDeclarator)
	require.True(t, ok, "got %T", res.Declaration)
	assert.Equal(t, "bar", decl.Name())
	assert.Equal(t, filepath.Join(dir, "a.js"), res.Source)
}

func TestResolveValue_CrossFileDefaultReexport(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"a.js":      `export { default as Widget } from "./widget.js";`,
		"widget.js": `export default class Widget {}`,
	}, "a.js")

	res, err := r.ResolveValue("Widget", filepath.Join(dir, "a.js"))
	require.NoError(t, err)
	cls, ok := res.Declaration.(*ast.ClassDeclaration)
	require.True(t, ok, "got %T", res.Declaration)
	assert.Equal(t, "Widget", cls.ID.Name)
	assert.Equal(t, filepath.Join(dir, "widget.js"), res.Source)
	assert.Equal(t, "Widget", res.Name)
	assert.Equal(t, 2, res.Hops)
}

func TestResolveValue_ImportThenExport(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"index.js": `import Button from "./button.js"; export {Button};`,
		"button.js": `
const Button = () => null;
export default Button;
`,
	}, "index.js")

	res, err := r.ResolveValue("Button", filepath.Join(dir, "index.js"))
	require.NoError(t, err)
	// export default of an identifier stores the identifier itself.
	id, ok := res.Declaration.(*ast.Identifier)
	require.True(t, ok, "got %T", res.Declaration)
	assert.Equal(t, "Button", id.Name)
	assert.Equal(t, filepath.Join(dir, "button.js"), res.Source)
}

func TestResolveValue_Unresolved(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"index.js": `export function foo() {} export {missing};`,
	}, "index.js")
	file := filepath.Join(dir, "index.js")

	_, err := r.ResolveValue("nope", file)
	assert.ErrorIs(t, err, ErrUnresolved)

	_, err = r.ResolveValue("missing", file)
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveValue_ExternalModule(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"index.js": `export {default as React} from "react";`,
	}, "index.js")

	_, err := r.ResolveValue("React", filepath.Join(dir, "index.js"))
	assert.ErrorIs(t, err, ErrExternalModule)
}

func TestResolveValue_CircularReexportTerminates(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"a.js": `export {X} from "./b.js";`,
		"b.js": `export {X} from "./a.js";`,
	}, "a.js")

	_, err := r.ResolveValue("X", filepath.Join(dir, "a.js"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircularReexport))

	var circ *CircularReexportError
	require.True(t, errors.As(err, &circ))
	require.Len(t, circ.Chain, 3)
	assert.Equal(t, circ.Chain[0], circ.Chain[2])
	assert.Contains(t, circ.Error(), "X@"+filepath.Join(dir, "b.js"))
}

func TestResolveValue_NamespaceImportIsUnresolved(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"index.js": `import * as utils from "./utils.js"; export {utils};`,
	}, "index.js")

	_, err := r.ResolveValue("utils", filepath.Join(dir, "index.js"))
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveValue_MaxHops(t *testing.T) {
	cache := NewCache()
	for _, name := range []string{"/a.js", "/b.js", "/c.js"} {
		require.NoError(t, cache.Put(symbols.NewTable(name)))
	}
	link := func(from, to string) {
		table, _ := cache.Get(from)
		table.ExportedValues["X"] = symbols.Alias("X")
		table.ImportedValues["X"] = symbols.ImportRef{Source: to, Imported: "X"}
	}
	link("/a.js", "/b.js")
	link("/b.js", "/c.js")
	c, _ := cache.Get("/c.js")
	c.ExportedValues["X"] = symbols.Direct(ast.New(ast.KindNullLiteral))

	_, err := NewResolver(cache, WithMaxHops(2)).ResolveValue("X", "/a.js")
	assert.ErrorIs(t, err, ErrUnresolved)

	res, err := NewResolver(cache, WithMaxHops(3)).ResolveValue("X", "/a.js")
	require.NoError(t, err)
	assert.Equal(t, "/c.js", res.Source)
}

func TestResolveType_FollowsImportsAcrossFiles(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"index.js": `export type {Props} from "./types.js";`,
		"types.js": `export type Props = {label: string};`,
	}, "index.js")

	res, err := r.ResolveType("Props", filepath.Join(dir, "index.js"))
	require.NoError(t, err)
	_, ok := res.Declaration.(*ast.ObjectTypeAnnotation)
	assert.True(t, ok, "got %T", res.Declaration)
	assert.Equal(t, filepath.Join(dir, "types.js"), res.Source)
}

func TestResolveType_TwoHops(t *testing.T) {
	cache := NewCacheFrom(map[string]*symbols.Table{
		"/a.js": {
			ExportedTypes: map[string]symbols.Entry{"T": symbols.Alias("T")},
			ImportedTypes: map[string]symbols.ImportRef{"T": {Source: "/b.js", Imported: "T"}},
		},
		"/b.js": {
			ExportedTypes: map[string]symbols.Entry{"T": symbols.Alias("Inner")},
			ImportedTypes: map[string]symbols.ImportRef{"Inner": {Source: "/c.js", Imported: "Real"}},
		},
		"/c.js": {
			ExportedTypes: map[string]symbols.Entry{"Real": symbols.Direct(ast.New(ast.KindKeywordTypeAnnotation))},
		},
	})

	res, err := NewResolver(cache).ResolveType("T", "/a.js")
	require.NoError(t, err)
	assert.Equal(t, "/c.js", res.Source)
	assert.Equal(t, 3, res.Hops)
}

func TestLookupLocalType(t *testing.T) {
	r, dir := buildGraph(t, map[string]string{
		"button.js": `
import type {Props} from "./types.js";
type State = {pressed: boolean};
export class Button {}
`,
		"types.js": `export type Props = {label: string};`,
	}, "button.js")
	file := filepath.Join(dir, "button.js")

	res, err := r.LookupLocalType("Props", file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "types.js"), res.Source)
	assert.Equal(t, "Props", res.Name)

	res, err = r.LookupLocalType("State", file)
	require.NoError(t, err)
	assert.Equal(t, file, res.Source)

	_, err = r.LookupLocalType("Missing", file)
	assert.ErrorIs(t, err, ErrUnresolved)

	_, err = r.LookupLocalType("Props", "/not/cached.js")
	assert.ErrorIs(t, err, ErrExternalModule)
}
