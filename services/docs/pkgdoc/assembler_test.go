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
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packageFixture is a small component library with a re-export chain.
var packageFixture = map[string]string{
	"index.js": `
export {default as Button} from "./components/button.js";
export {default as Icon} from "./components/icon.js";
export {Spacing} from "./util/spacing.js";
export {missing};
export type {ButtonProps} from "./components/button.js";
`,
	"components/button.js": `
import * as React from "react";
import type {Theme} from "../util/theme.js";

export type ButtonProps = {
    /** Text to show. */
    label: string,
    theme?: Theme,
};

/** A clickable button. */
export default class Button extends React.Component<ButtonProps> {
    static defaultProps = {
        theme: "light",
        disabled: false,
    };

    render() {
        return null;
    }
}
`,
	"components/icon.js": `
import * as React from "react";
import type {IconProps} from "./icon-types.js";

const shared = {size: 16};

export default class Icon extends React.PureComponent<IconProps> {
    static defaultProps = shared;
}
`,
	"components/icon-types.js": `export type IconProps = {size: number};`,
	"util/spacing.js": `
const Spacing = {small: 4, large: 16};
export {Spacing};
`,
	"util/theme.js": `export type Theme = "light" | "dark";`,
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAssembler(t *testing.T, root string) *Assembler {
	t.Helper()
	cache := graph.NewCache()
	builder, err := graph.NewBuilder(cache, ast.NewParser(),
		graph.WithRoots(root), graph.WithBuilderLogger(quietLogger()))
	require.NoError(t, err)
	resolver := graph.NewResolver(cache, graph.WithResolverLogger(quietLogger()))
	a, err := NewAssembler(builder, resolver, WithAssemblerLogger(quietLogger()))
	require.NoError(t, err)
	return a
}

func assembleFixture(t *testing.T) (*PackageRecord, string) {
	t.Helper()
	dir := writeFixture(t, packageFixture)
	a := newTestAssembler(t, dir)
	rec, err := a.Assemble(context.Background(), Manifest{
		Name:    "@demo/ui",
		Version: "1.0.0",
		Entry:   filepath.Join(dir, "index.js"),
		Dir:     dir,
	})
	require.NoError(t, err)
	return rec, dir
}

func TestNewAssembler_NilArguments(t *testing.T) {
	cache := graph.NewCache()
	builder, err := graph.NewBuilder(cache, ast.NewParser())
	require.NoError(t, err)

	_, err = NewAssembler(nil, graph.NewResolver(cache))
	assert.Error(t, err)
	_, err = NewAssembler(builder, nil)
	assert.Error(t, err)
}

func TestAssemble_ResolvesExports(t *testing.T) {
	rec, dir := assembleFixture(t)

	assert.Equal(t, "@demo/ui", rec.Name)
	assert.Equal(t, filepath.Join(dir, "index.js"), rec.Entry)

	names := make([]string, 0, len(rec.Declarations))
	for _, d := range rec.Declarations {
		names = append(names, d.Name)
	}
	// "missing" does not resolve and is left out.
	assert.Equal(t, []string{"Button", "Icon", "Spacing"}, names)

	button, ok := rec.Declaration("Button")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "components", "button.js"), button.Source)
	cls, ok := button.Declaration.Node.(*ast.ClassDeclaration)
	require.True(t, ok)
	assert.Equal(t, "Button", cls.ID.Name)

	spacing, ok := rec.Declaration("Spacing")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "util", "spacing.js"), spacing.Source)
	_, ok = spacing.Declaration.Node.(*ast.VariableDeclarator)
	assert.True(t, ok)

	_, ok = rec.Declaration("missing")
	assert.False(t, ok)
}

func TestAssemble_CollectsReachableFiles(t *testing.T) {
	rec, dir := assembleFixture(t)

	for _, rel := range []string{
		"index.js",
		"components/button.js",
		"components/icon.js",
		"components/icon-types.js",
		"util/spacing.js",
		"util/theme.js",
	} {
		assert.Contains(t, rec.Files, filepath.Join(dir, rel))
	}
	assert.Len(t, rec.Files, 6)
}

func TestAssemble_InvalidManifest(t *testing.T) {
	a := newTestAssembler(t, t.TempDir())
	_, err := a.Assemble(context.Background(), Manifest{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestAssemble_ParseFailureIsFatal(t *testing.T) {
	dir := writeFixture(t, map[string]string{"index.js": `export const = ;`})
	a := newTestAssembler(t, dir)
	_, err := a.Assemble(context.Background(), Manifest{Name: "bad", Entry: filepath.Join(dir, "index.js")})
	assert.ErrorIs(t, err, ast.ErrParse)
}

func TestDocument_ByteIdenticalAcrossRuns(t *testing.T) {
	dir := writeFixture(t, packageFixture)

	run := func() []byte {
		a := newTestAssembler(t, dir)
		rec, err := a.Assemble(context.Background(), Manifest{Name: "@demo/ui", Entry: filepath.Join(dir, "index.js")})
		require.NoError(t, err)
		data, err := Document{rec.Name: rec}.Marshal()
		require.NoError(t, err)
		return data
	}

	first := run()
	second := run()
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, byte('\n'), first[len(first)-1])
}

func TestDocument_RoundTripAndReader(t *testing.T) {
	rec, dir := assembleFixture(t)
	data, err := Document{rec.Name: rec}.Marshal()
	require.NoError(t, err)

	doc, err := UnmarshalDocument(data)
	require.NoError(t, err)
	ctx := context.Background()

	names, err := doc.PackageNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@demo/ui"}, names)

	got, err := doc.GetPackage(ctx, "@demo/ui")
	require.NoError(t, err)
	assert.Equal(t, "@demo/ui", got.Name)
	assert.Equal(t, rec.Entry, got.Entry)
	assert.Len(t, got.Declarations, 3)

	buttonFile := filepath.Join(dir, "components", "button.js")
	table, err := doc.GetFile(ctx, buttonFile)
	require.NoError(t, err)
	assert.Equal(t, buttonFile, table.Path)
	assert.Contains(t, table.ExportedTypes, "ButtonProps")

	_, err = doc.GetPackage(ctx, "nope")
	assert.ErrorIs(t, err, ErrPackageNotFound)
	_, err = doc.GetFile(ctx, "/nope.js")
	assert.ErrorIs(t, err, ErrFileNotFound)

	again, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}
