// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symbols

import (
	"encoding/json"
	"testing"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ident(name string) *ast.Identifier {
	id := ast.New(ast.KindIdentifier).(*ast.Identifier)
	id.Name = name
	return id
}

func class(name string) *ast.ClassDeclaration {
	c := ast.New(ast.KindClassDeclaration).(*ast.ClassDeclaration)
	c.ID = ident(name)
	return c
}

func function(name string) *ast.FunctionDeclaration {
	f := ast.New(ast.KindFunctionDeclaration).(*ast.FunctionDeclaration)
	f.ID = ident(name)
	return f
}

func constDecl(names ...string) *ast.VariableDeclaration {
	v := ast.New(ast.KindVariableDeclaration).(*ast.VariableDeclaration)
	v.DeclarationKind = "const"
	for _, name := range names {
		d := ast.New(ast.KindVariableDeclarator).(*ast.VariableDeclarator)
		d.ID = ast.Wrap(ident(name))
		v.Declarations = append(v.Declarations, d)
	}
	return v
}

func typeAlias(name string) (*ast.TypeAlias, ast.Node) {
	right := ast.New(ast.KindObjectTypeAnnotation)
	t := ast.New(ast.KindTypeAlias).(*ast.TypeAlias)
	t.ID = ident(name)
	t.Right = ast.Wrap(right)
	return t, right
}

func exportDecl(kind string, decl ast.Node) *ast.ExportNamedDeclaration {
	e := ast.New(ast.KindExportNamedDeclaration).(*ast.ExportNamedDeclaration)
	e.ExportKind = kind
	e.Declaration = ast.Wrap(decl)
	return e
}

func exportSpecs(source string, specs ...ast.ExportSpecifier) *ast.ExportNamedDeclaration {
	e := ast.New(ast.KindExportNamedDeclaration).(*ast.ExportNamedDeclaration)
	e.ExportKind = ast.ImportKindValue
	e.Source = source
	e.Specifiers = specs
	return e
}

func importDecl(kind, source string, specs ...ast.ImportSpecifier) *ast.ImportDeclaration {
	i := ast.New(ast.KindImportDeclaration).(*ast.ImportDeclaration)
	i.ImportKind = kind
	i.Source = source
	i.Specifiers = specs
	return i
}

func program(stmts ...ast.Node) *ast.Program {
	p := ast.New(ast.KindProgram).(*ast.Program)
	p.Body = ast.Refs(stmts)
	return p
}

func TestFromProgram_DirectExports(t *testing.T) {
	fn := function("foo")
	cls := class("Bar")
	vars := constDecl("a", "b")
	alias, right := typeAlias("Props")

	table := FromProgram("/pkg/index.js", program(
		exportDecl(ast.ImportKindValue, fn),
		exportDecl(ast.ImportKindValue, cls),
		exportDecl(ast.ImportKindValue, vars),
		exportDecl(ast.ImportKindType, alias),
	), nil, nil)

	assert.Equal(t, "/pkg/index.js", table.Path)
	require.Len(t, table.ExportedValues, 4)
	assert.Same(t, fn, table.ExportedValues["foo"].Node())
	assert.Same(t, cls, table.ExportedValues["Bar"].Node())
	assert.Same(t, vars.Declarations[0], table.ExportedValues["a"].Node())
	assert.Same(t, vars.Declarations[1], table.ExportedValues["b"].Node())
	assert.Same(t, right, table.ExportedTypes["Props"].Node())

	// Exported declarators are not private bindings.
	assert.Empty(t, table.PrivateValues)
}

func TestFromProgram_Interfaces(t *testing.T) {
	exportedBody := ast.New(ast.KindObjectTypeAnnotation)
	exported := ast.New(ast.KindInterfaceDeclaration).(*ast.InterfaceDeclaration)
	exported.ID = ident("Props")
	exported.Body = ast.Wrap(exportedBody)

	privateBody := ast.New(ast.KindObjectTypeAnnotation)
	private := ast.New(ast.KindInterfaceDeclaration).(*ast.InterfaceDeclaration)
	private.ID = ident("State")
	private.Body = ast.Wrap(privateBody)

	table := FromProgram("/pkg/index.js", program(
		exportDecl(ast.ImportKindType, exported),
		private,
	), nil, nil)

	require.Contains(t, table.ExportedTypes, "Props")
	assert.False(t, table.ExportedTypes["Props"].IsAlias())
	assert.Same(t, exportedBody, table.ExportedTypes["Props"].Node())
	assert.Same(t, privateBody, table.PrivateTypes["State"].Node)
	assert.Empty(t, table.ExportedValues)
}

func TestFromProgram_DefaultExport(t *testing.T) {
	cls := class("Widget")
	def := ast.New(ast.KindExportDefaultDeclaration).(*ast.ExportDefaultDeclaration)
	def.Declaration = ast.Wrap(cls)

	table := FromProgram("/pkg/widget.js", program(def), nil, nil)

	entry, ok := table.ExportedValues[DefaultExport]
	require.True(t, ok)
	assert.False(t, entry.IsAlias())
	assert.Same(t, cls, entry.Node())
}

func TestFromProgram_ReExportDefault(t *testing.T) {
	table := FromProgram("/pkg/index.js", program(
		exportSpecs("./widget.js", ast.ExportSpecifier{Local: "default", Exported: "Widget"}),
	), nil, nil)

	entry := table.ExportedValues["Widget"]
	require.True(t, entry.IsAlias())
	assert.Equal(t, "Widget", entry.Local())
	assert.Equal(t, ImportRef{Source: "/pkg/widget.js", Imported: "default"}, table.ImportedValues["Widget"])
	assert.Equal(t, []string{"/pkg/widget.js"}, table.ValueDependencies())
}

func TestFromProgram_ReExportNamed(t *testing.T) {
	table := FromProgram("/pkg/index.js", program(
		exportSpecs("./util.js", ast.ExportSpecifier{Local: "helper", Exported: "help"}),
	), nil, nil)

	assert.Equal(t, "help", table.ExportedValues["help"].Local())
	assert.Equal(t, ImportRef{Source: "/pkg/util.js", Imported: "helper"}, table.ImportedValues["help"])
}

func TestFromProgram_LocalAlias(t *testing.T) {
	vars := constDecl("bar")
	table := FromProgram("/pkg/a.js", program(
		vars,
		exportSpecs("", ast.ExportSpecifier{Local: "bar", Exported: "bar"}),
	), nil, nil)

	assert.Equal(t, "bar", table.ExportedValues["bar"].Local())
	assert.Equal(t, ast.Wrap(vars.Declarations[0]), table.PrivateValues["bar"])
	assert.Empty(t, table.ValueDependencies())
}

func TestFromProgram_Imports(t *testing.T) {
	table := FromProgram("/pkg/src/a.js", program(
		importDecl(ast.ImportKindValue, "../dep.js",
			ast.ImportSpecifier{Type: ast.SpecifierDefault, Local: "Dep", Imported: "default"},
			ast.ImportSpecifier{Type: ast.SpecifierNamed, Local: "y", Imported: "x"},
			ast.ImportSpecifier{Type: ast.SpecifierNamed, Local: "T", Imported: "T", ImportKind: ast.ImportKindType},
		),
		importDecl(ast.ImportKindType, "react",
			ast.ImportSpecifier{Type: ast.SpecifierNamed, Local: "Node", Imported: "Node"},
		),
		importDecl(ast.ImportKindValue, "react",
			ast.ImportSpecifier{Type: ast.SpecifierNamespace, Local: "React", Imported: "*"},
		),
	), nil, nil)

	assert.Equal(t, ImportRef{Source: "/pkg/dep.js", Imported: "default"}, table.ImportedValues["Dep"])
	assert.Equal(t, ImportRef{Source: "/pkg/dep.js", Imported: "x"}, table.ImportedValues["y"])
	assert.Equal(t, ImportRef{Source: "/pkg/dep.js", Imported: "T"}, table.ImportedTypes["T"])
	assert.Equal(t, ImportRef{Source: "react", Imported: "Node"}, table.ImportedTypes["Node"])
	assert.True(t, table.ImportedValues["React"].IsNamespace())

	assert.Equal(t, []string{"/pkg/dep.js", "react"}, table.TypeDependencies())
	assert.Equal(t, []string{"/pkg/dep.js", "react"}, table.Dependencies())
}

func TestFromProgram_PrivateDeclarations(t *testing.T) {
	alias, right := typeAlias("State")
	cls := class("Helper")
	fn := function("util")

	table := FromProgram("/pkg/a.js", program(alias, cls, fn, constDecl("x")), nil, nil)

	assert.Same(t, right, table.PrivateTypes["State"].Node)
	assert.Same(t, cls, table.PrivateValues["Helper"].Node)
	assert.Same(t, fn, table.PrivateValues["util"].Node)
	assert.Contains(t, table.PrivateValues, "x")
	assert.Empty(t, table.ExportedValues)
}

func TestFromProgram_FirstBindingWins(t *testing.T) {
	table := FromProgram("/pkg/a.js", program(
		importDecl(ast.ImportKindValue, "./b.js",
			ast.ImportSpecifier{Type: ast.SpecifierNamed, Local: "x", Imported: "x"},
		),
		constDecl("x"),
	), nil, nil)

	assert.Contains(t, table.ImportedValues, "x")
	assert.NotContains(t, table.PrivateValues, "x")
}

func TestFromProgram_CustomResolver(t *testing.T) {
	resolve := func(from, spec string) string { return "resolved:" + spec }
	table := FromProgram("/pkg/a.js", program(
		importDecl(ast.ImportKindValue, "./b",
			ast.ImportSpecifier{Type: ast.SpecifierDefault, Local: "B", Imported: "default"},
		),
	), resolve, nil)

	assert.Equal(t, "resolved:./b", table.ImportedValues["B"].Source)
}

func TestTable_JSONRoundTrip(t *testing.T) {
	table := FromProgram("/pkg/index.js", program(
		exportDecl(ast.ImportKindValue, function("foo")),
		exportSpecs("./widget.js", ast.ExportSpecifier{Local: "default", Exported: "Widget"}),
	), nil, nil)

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Widget":"Widget"`)
	assert.NotContains(t, string(data), "/pkg/index.js")

	var decoded Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.ExportedValues["Widget"].IsAlias())
	fn, ok := decoded.ExportedValues["foo"].Node().(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Equal(t, "foo", fn.ID.Name)
	assert.Equal(t, table.ImportedValues, decoded.ImportedValues)
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	var alias Entry
	require.NoError(t, alias.UnmarshalJSON([]byte(`"local"`)))
	assert.True(t, alias.IsAlias())
	assert.Equal(t, "local", alias.Local())

	var direct Entry
	require.NoError(t, direct.UnmarshalJSON([]byte(`{"type":"Identifier","name":"x"}`)))
	assert.False(t, direct.IsAlias())
	assert.Equal(t, "x", direct.Node().(*ast.Identifier).Name)

	var empty Entry
	assert.Error(t, empty.UnmarshalJSON([]byte("null")))
}

func TestTable_ExportedNamesSorted(t *testing.T) {
	table := NewTable("/a.js")
	table.ExportedValues["b"] = Alias("b")
	table.ExportedValues["a"] = Alias("a")
	table.ExportedValues["default"] = Alias("x")
	assert.Equal(t, []string{"a", "b", "default"}, table.ExportedNames())
}
