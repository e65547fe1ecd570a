// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := NewParser().Parse(context.Background(), "/pkg/test.js", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func TestParser_ExportFunction(t *testing.T) {
	prog := parse(t, `export function foo(a, b) { return a + b; }`)
	require.Len(t, prog.Body, 1)

	named, ok := prog.Body[0].Node.(*ExportNamedDeclaration)
	require.True(t, ok, "got %T", prog.Body[0].Node)
	assert.Equal(t, ImportKindValue, named.ExportKind)

	fn, ok := named.Declaration.Node.(*FunctionDeclaration)
	require.True(t, ok, "got %T", named.Declaration.Node)
	require.NotNil(t, fn.ID)
	assert.Equal(t, "foo", fn.ID.Name)
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, KindFunctionDeclaration, fn.Kind())
}

func TestParser_ExportConstDeclarators(t *testing.T) {
	prog := parse(t, `export const a = 1, b = "two";`)
	require.Len(t, prog.Body, 1)

	named := prog.Body[0].Node.(*ExportNamedDeclaration)
	decl, ok := named.Declaration.Node.(*VariableDeclaration)
	require.True(t, ok, "got %T", named.Declaration.Node)
	assert.Equal(t, "const", decl.DeclarationKind)
	require.Len(t, decl.Declarations, 2)

	assert.Equal(t, "a", decl.Declarations[0].Name())
	num, ok := decl.Declarations[0].Init.Node.(*NumericLiteral)
	require.True(t, ok)
	assert.Equal(t, float64(1), num.Value)

	assert.Equal(t, "b", decl.Declarations[1].Name())
	str, ok := decl.Declarations[1].Init.Node.(*StringLiteral)
	require.True(t, ok)
	assert.Equal(t, "two", str.Value)
}

func TestParser_ClassComponent(t *testing.T) {
	src := `
import * as React from "react";

type Props = {
    label: string,
};

/** A button. */
export default class Button extends React.Component<Props> {
    static defaultProps = {
        label: "OK",
    };

    render() {
        return null;
    }
}
`
	prog := parse(t, src)

	var def *ExportDefaultDeclaration
	for _, stmt := range prog.Body {
		if d, ok := stmt.Node.(*ExportDefaultDeclaration); ok {
			def = d
		}
	}
	require.NotNil(t, def)

	cls, ok := def.Declaration.Node.(*ClassDeclaration)
	require.True(t, ok, "got %T", def.Declaration.Node)
	require.NotNil(t, cls.ID)
	assert.Equal(t, "Button", cls.ID.Name)

	super, ok := cls.SuperClass.Node.(*MemberExpression)
	require.True(t, ok, "got %T", cls.SuperClass.Node)
	assert.Equal(t, "Component", super.Property)
	obj, ok := super.Object.Node.(*Identifier)
	require.True(t, ok)
	assert.Equal(t, "React", obj.Name)

	require.Len(t, cls.SuperTypeParameters, 1)
	props, ok := cls.SuperTypeParameters[0].Node.(*GenericTypeAnnotation)
	require.True(t, ok)
	assert.Equal(t, "Props", props.ID)

	var defaults *ClassProperty
	for _, member := range cls.Body {
		if p, ok := member.Node.(*ClassProperty); ok && p.Key == "defaultProps" {
			defaults = p
		}
	}
	require.NotNil(t, defaults)
	assert.True(t, defaults.Static)
	value, ok := defaults.Value.Node.(*ObjectExpression)
	require.True(t, ok)
	require.Len(t, value.Properties, 1)
	assert.Equal(t, "label", value.Properties[0].Node.(*ObjectProperty).Key)

	// The doc comment above the export is copied onto the class.
	require.NotEmpty(t, cls.Comments())
	assert.Equal(t, "CommentBlock", cls.Comments()[0].Type)
	assert.Contains(t, cls.Comments()[0].Value, "A button.")
}

func TestParser_Imports(t *testing.T) {
	prog := parse(t, `
import Default, {a, b as c} from "./dep.js";
import type {Props} from "../types.js";
import * as ns from "lib";
import {type T} from "./t.js";
`)
	require.Len(t, prog.Body, 4)

	first := prog.Body[0].Node.(*ImportDeclaration)
	assert.Equal(t, ImportKindValue, first.ImportKind)
	assert.Equal(t, "./dep.js", first.Source)
	require.Len(t, first.Specifiers, 3)
	assert.Equal(t, ImportSpecifier{Type: SpecifierDefault, Local: "Default", Imported: "default"}, first.Specifiers[0])
	assert.Equal(t, ImportSpecifier{Type: SpecifierNamed, Local: "a", Imported: "a"}, first.Specifiers[1])
	assert.Equal(t, ImportSpecifier{Type: SpecifierNamed, Local: "c", Imported: "b"}, first.Specifiers[2])

	second := prog.Body[1].Node.(*ImportDeclaration)
	assert.Equal(t, ImportKindType, second.ImportKind)
	assert.Equal(t, "../types.js", second.Source)

	third := prog.Body[2].Node.(*ImportDeclaration)
	require.Len(t, third.Specifiers, 1)
	assert.Equal(t, SpecifierNamespace, third.Specifiers[0].Type)
	assert.Equal(t, "*", third.Specifiers[0].Imported)

	fourth := prog.Body[3].Node.(*ImportDeclaration)
	require.Len(t, fourth.Specifiers, 1)
	assert.Equal(t, ImportKindType, fourth.Specifiers[0].ImportKind)
}

func TestParser_ReExports(t *testing.T) {
	prog := parse(t, `
export {default as Widget} from "./widget.js";
export {a as b};
export * from "./all.js";
`)
	require.Len(t, prog.Body, 3)

	reexport := prog.Body[0].Node.(*ExportNamedDeclaration)
	assert.Equal(t, "./widget.js", reexport.Source)
	assert.True(t, reexport.Declaration.IsZero())
	require.Len(t, reexport.Specifiers, 1)
	assert.Equal(t, "default", reexport.Specifiers[0].Local)
	assert.Equal(t, "Widget", reexport.Specifiers[0].Exported)

	local := prog.Body[1].Node.(*ExportNamedDeclaration)
	assert.Empty(t, local.Source)
	require.Len(t, local.Specifiers, 1)
	assert.Equal(t, ExportSpecifier{Local: "a", Exported: "b"}, local.Specifiers[0])

	all := prog.Body[2].Node.(*ExportAllDeclaration)
	assert.Equal(t, "./all.js", all.Source)
}

func TestParser_TypeAlias(t *testing.T) {
	prog := parse(t, `
export type Props = {
    /** The label. */
    label: string,
    onClick?: () => void,
    kind: "primary" | "secondary",
};
`)
	require.Len(t, prog.Body, 1)
	named := prog.Body[0].Node.(*ExportNamedDeclaration)
	assert.Equal(t, ImportKindType, named.ExportKind)

	alias, ok := named.Declaration.Node.(*TypeAlias)
	require.True(t, ok, "got %T", named.Declaration.Node)
	assert.Equal(t, "Props", alias.ID.Name)

	obj, ok := alias.Right.Node.(*ObjectTypeAnnotation)
	require.True(t, ok, "got %T", alias.Right.Node)
	require.Len(t, obj.Properties, 3)

	label := obj.Properties[0].Node.(*ObjectTypeProperty)
	assert.Equal(t, "label", label.Key)
	assert.Equal(t, "string", label.Value.Node.(*KeywordTypeAnnotation).Keyword)
	require.NotEmpty(t, label.Comments())
	assert.Contains(t, label.Comments()[0].Value, "The label.")

	onClick := obj.Properties[1].Node.(*ObjectTypeProperty)
	assert.True(t, onClick.Optional)
	_, isFn := onClick.Value.Node.(*FunctionTypeAnnotation)
	assert.True(t, isFn)

	kind := obj.Properties[2].Node.(*ObjectTypeProperty)
	union, ok := kind.Value.Node.(*UnionTypeAnnotation)
	require.True(t, ok)
	assert.Len(t, union.Types, 2)
}

// aliasRight returns the right-hand side of the last statement, a type alias.
func aliasRight(t *testing.T, prog *Program) Node {
	t.Helper()
	require.NotEmpty(t, prog.Body)
	stmt := prog.Body[len(prog.Body)-1].Node
	if named, ok := stmt.(*ExportNamedDeclaration); ok {
		stmt = named.Declaration.Node
	}
	alias, ok := stmt.(*TypeAlias)
	require.True(t, ok, "got %T", stmt)
	return alias.Right.Node
}

func TestParser_FlowSyntax(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, prog *Program)
	}{
		{
			name: "maybe type",
			src:  `type A = ?string;`,
			check: func(t *testing.T, prog *Program) {
				nt, ok := aliasRight(t, prog).(*NullableTypeAnnotation)
				require.True(t, ok)
				assert.Equal(t, KindNullableTypeAnnotation, nt.Kind())
				assert.Equal(t, "string", nt.TypeAnnotation.Node.(*KeywordTypeAnnotation).Keyword)
			},
		},
		{
			name: "maybe function type",
			src:  `type F = ?() => void;`,
			check: func(t *testing.T, prog *Program) {
				nt, ok := aliasRight(t, prog).(*NullableTypeAnnotation)
				require.True(t, ok)
				_, isFn := nt.TypeAnnotation.Node.(*FunctionTypeAnnotation)
				assert.True(t, isFn, "got %T", nt.TypeAnnotation.Node)
			},
		},
		{
			name: "exact object",
			src:  `type E = {| a: string |};`,
			check: func(t *testing.T, prog *Program) {
				obj, ok := aliasRight(t, prog).(*ObjectTypeAnnotation)
				require.True(t, ok)
				assert.True(t, obj.Exact)
				require.Len(t, obj.Properties, 1)
				assert.Equal(t, "a", obj.Properties[0].Node.(*ObjectTypeProperty).Key)
			},
		},
		{
			name: "inexact object",
			src:  `type E = { a: string };`,
			check: func(t *testing.T, prog *Program) {
				obj, ok := aliasRight(t, prog).(*ObjectTypeAnnotation)
				require.True(t, ok)
				assert.False(t, obj.Exact)
			},
		},
		{
			name: "object type spread",
			src:  `type S = {...Base, b: number};`,
			check: func(t *testing.T, prog *Program) {
				obj, ok := aliasRight(t, prog).(*ObjectTypeAnnotation)
				require.True(t, ok)
				require.Len(t, obj.Properties, 2)
				spread, ok := obj.Properties[0].Node.(*ObjectTypeSpreadProperty)
				require.True(t, ok, "got %T", obj.Properties[0].Node)
				assert.Equal(t, KindObjectTypeSpreadProperty, spread.Kind())
				assert.Equal(t, "Base", spread.Argument.Node.(*GenericTypeAnnotation).ID)
				assert.Equal(t, "b", obj.Properties[1].Node.(*ObjectTypeProperty).Key)
			},
		},
		{
			name: "exact spread with variance",
			src:  `type T = {|...Shared, +label: string, -id: number|};`,
			check: func(t *testing.T, prog *Program) {
				obj, ok := aliasRight(t, prog).(*ObjectTypeAnnotation)
				require.True(t, ok)
				assert.True(t, obj.Exact)
				require.Len(t, obj.Properties, 3)
				_, ok = obj.Properties[0].Node.(*ObjectTypeSpreadProperty)
				assert.True(t, ok)
				label := obj.Properties[1].Node.(*ObjectTypeProperty)
				assert.Equal(t, "label", label.Key)
				assert.Equal(t, "plus", label.Variance)
				id := obj.Properties[2].Node.(*ObjectTypeProperty)
				assert.Equal(t, "id", id.Key)
				assert.Equal(t, "minus", id.Variance)
			},
		},
		{
			name: "covariant property",
			src:  `type P = {+a: string};`,
			check: func(t *testing.T, prog *Program) {
				obj, ok := aliasRight(t, prog).(*ObjectTypeAnnotation)
				require.True(t, ok)
				require.Len(t, obj.Properties, 1)
				prop := obj.Properties[0].Node.(*ObjectTypeProperty)
				assert.Equal(t, "a", prop.Key)
				assert.Equal(t, "plus", prop.Variance)
				assert.Equal(t, "string", prop.Value.Node.(*KeywordTypeAnnotation).Keyword)
			},
		},
		{
			name: "opaque type",
			src:  `export opaque type ID: string = string;`,
			check: func(t *testing.T, prog *Program) {
				require.Len(t, prog.Body, 1)
				named := prog.Body[0].Node.(*ExportNamedDeclaration)
				assert.Equal(t, ImportKindType, named.ExportKind)
				alias, ok := named.Declaration.Node.(*TypeAlias)
				require.True(t, ok, "got %T", named.Declaration.Node)
				assert.Equal(t, "ID", alias.ID.Name)
				assert.True(t, alias.Opaque)
				assert.Equal(t, "string", alias.Right.Node.(*KeywordTypeAnnotation).Keyword)
			},
		},
		{
			name: "import typeof",
			src:  `import typeof T from "./t.js";`,
			check: func(t *testing.T, prog *Program) {
				require.Len(t, prog.Body, 1)
				decl := prog.Body[0].Node.(*ImportDeclaration)
				assert.Equal(t, ImportKindTypeof, decl.ImportKind)
				require.Len(t, decl.Specifiers, 1)
				assert.Equal(t, "T", decl.Specifiers[0].Local)
			},
		},
		{
			name: "unnamed function type params",
			src:  `type H = (string, ?Node) => void;`,
			check: func(t *testing.T, prog *Program) {
				fn, ok := aliasRight(t, prog).(*FunctionTypeAnnotation)
				require.True(t, ok)
				require.Len(t, fn.Params, 2)
				assert.Empty(t, fn.Params[0].Name)
				assert.Equal(t, "string", fn.Params[0].TypeAnnotation.Node.(*KeywordTypeAnnotation).Keyword)
				assert.Empty(t, fn.Params[1].Name)
				nt, ok := fn.Params[1].TypeAnnotation.Node.(*NullableTypeAnnotation)
				require.True(t, ok)
				assert.Equal(t, "Node", nt.TypeAnnotation.Node.(*GenericTypeAnnotation).ID)
			},
		},
		{
			name: "type names in param slots",
			src:  `type G = (Props, State) => void;`,
			check: func(t *testing.T, prog *Program) {
				fn, ok := aliasRight(t, prog).(*FunctionTypeAnnotation)
				require.True(t, ok)
				require.Len(t, fn.Params, 2)
				assert.Empty(t, fn.Params[0].Name)
				assert.Equal(t, "Props", fn.Params[0].TypeAnnotation.Node.(*GenericTypeAnnotation).ID)
				assert.Equal(t, "State", fn.Params[1].TypeAnnotation.Node.(*GenericTypeAnnotation).ID)
			},
		},
		{
			name: "existential type",
			src:  `type X = Array<*>;`,
			check: func(t *testing.T, prog *Program) {
				g, ok := aliasRight(t, prog).(*GenericTypeAnnotation)
				require.True(t, ok)
				assert.Equal(t, "Array", g.ID)
				require.Len(t, g.TypeParameters, 1)
				assert.Equal(t, KindExistsTypeAnnotation, g.TypeParameters[0].Node.Kind())
			},
		},
		{
			name: "checks predicate",
			src:  `export function isString(x: mixed): boolean %checks { return typeof x === "string"; }`,
			check: func(t *testing.T, prog *Program) {
				require.Len(t, prog.Body, 1)
				named := prog.Body[0].Node.(*ExportNamedDeclaration)
				fn, ok := named.Declaration.Node.(*FunctionDeclaration)
				require.True(t, ok, "got %T", named.Declaration.Node)
				assert.Equal(t, "isString", fn.ID.Name)
				assert.Equal(t, "boolean", fn.ReturnType.Node.(*KeywordTypeAnnotation).Keyword)
			},
		},
		{
			name: "covariant class field",
			src:  `class A { +name: string; }`,
			check: func(t *testing.T, prog *Program) {
				require.Len(t, prog.Body, 1)
				cls := prog.Body[0].Node.(*ClassDeclaration)
				require.Len(t, cls.Body, 1)
				prop := cls.Body[0].Node.(*ClassProperty)
				assert.Equal(t, "name", prop.Key)
				assert.Equal(t, "plus", prop.Variance)
			},
		},
		{
			name: "object expression spread",
			src:  `const o = {...defaults, a: 1};`,
			check: func(t *testing.T, prog *Program) {
				decl := prog.Body[0].Node.(*VariableDeclaration)
				obj, ok := decl.Declarations[0].Init.Node.(*ObjectExpression)
				require.True(t, ok)
				require.Len(t, obj.Properties, 2)
				spread, ok := obj.Properties[0].Node.(*SpreadElement)
				require.True(t, ok, "got %T", obj.Properties[0].Node)
				assert.Equal(t, "defaults", spread.Argument.Node.(*Identifier).Name)
				assert.Equal(t, "a", obj.Properties[1].Node.(*ObjectProperty).Key)
			},
		},
		{
			name: "slashes in jsx text",
			src:  `export const C = (x: number) => <div>// {x}</div>;`,
			check: func(t *testing.T, prog *Program) {
				require.Len(t, prog.Body, 1)
				named := prog.Body[0].Node.(*ExportNamedDeclaration)
				decl := named.Declaration.Node.(*VariableDeclaration)
				assert.Equal(t, "C", decl.Declarations[0].Name())
				_, ok := decl.Declarations[0].Init.Node.(*ArrowFunctionExpression)
				assert.True(t, ok)
			},
		},
		{
			name: "exported interface",
			src:  `export interface Props extends Base { label: string }`,
			check: func(t *testing.T, prog *Program) {
				require.Len(t, prog.Body, 1)
				named := prog.Body[0].Node.(*ExportNamedDeclaration)
				assert.Equal(t, ImportKindType, named.ExportKind)
				iface, ok := named.Declaration.Node.(*InterfaceDeclaration)
				require.True(t, ok, "got %T", named.Declaration.Node)
				assert.Equal(t, KindInterfaceDeclaration, iface.Kind())
				assert.Equal(t, "Props", iface.ID.Name)
				require.Len(t, iface.Extends, 1)
				assert.Equal(t, "Base", iface.Extends[0].Node.(*GenericTypeAnnotation).ID)
				body, ok := iface.Body.Node.(*ObjectTypeAnnotation)
				require.True(t, ok)
				require.Len(t, body.Properties, 1)
				assert.Equal(t, "label", body.Properties[0].Node.(*ObjectTypeProperty).Key)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parse(t, tt.src))
		})
	}
}

// A component file in the style of the fixtures: exact props with a spread,
// variance, a maybe callback and a comment-like JSX text child.
func TestParser_FlowComponentFile(t *testing.T) {
	prog := parse(t, `
// @flow
import * as React from "react";
import type {SharedProps} from "./shared.js";

type Props = {|
    ...SharedProps,
    +label: string,
    onClick?: ?(e: SyntheticEvent<>) => mixed,
|};

/** Renders a label. */
export default class Label extends React.Component<Props> {
    render(): React.Node {
        return <span>// {this.props.label}</span>;
    }
}
`)
	require.Len(t, prog.Body, 4)

	alias, ok := prog.Body[2].Node.(*TypeAlias)
	require.True(t, ok, "got %T", prog.Body[2].Node)
	props := alias.Right.Node.(*ObjectTypeAnnotation)
	assert.True(t, props.Exact)
	require.Len(t, props.Properties, 3)
	assert.Equal(t, KindObjectTypeSpreadProperty, props.Properties[0].Node.Kind())
	assert.Equal(t, "plus", props.Properties[1].Node.(*ObjectTypeProperty).Variance)

	onClick := props.Properties[2].Node.(*ObjectTypeProperty)
	assert.True(t, onClick.Optional)
	nt, ok := onClick.Value.Node.(*NullableTypeAnnotation)
	require.True(t, ok, "got %T", onClick.Value.Node)
	fn, ok := nt.TypeAnnotation.Node.(*FunctionTypeAnnotation)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "e", fn.Params[0].Name)

	def, ok := prog.Body[3].Node.(*ExportDefaultDeclaration)
	require.True(t, ok)
	cls := def.Declaration.Node.(*ClassDeclaration)
	assert.Equal(t, "Label", cls.ID.Name)
}

func TestParser_UnmodeledStatementIsUnknown(t *testing.T) {
	prog := parse(t, `if (x) { y(); }`)
	require.Len(t, prog.Body, 1)
	u, ok := prog.Body[0].Node.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, "if_statement", u.NodeType)
	assert.Equal(t, KindUnknown, u.Kind())
}

func TestParser_SyntaxError(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), "/pkg/bad.js", []byte("export const = ;"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/pkg/bad.js", perr.Path)
	assert.Equal(t, 1, perr.Line)
}

func TestParser_SyntaxErrorLocatedInOriginalSource(t *testing.T) {
	src := "type H = (string) => void;\nimport a from \"a\";\nexport const = ;\n"
	_, err := NewParser().Parse(context.Background(), "/pkg/bad.js", []byte(src))
	require.ErrorIs(t, err, ErrParse)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
}

func TestParser_BrokenDeclarationFails(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), "/pkg/bad.js", []byte("export default function f( {\n"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestParser_Limits(t *testing.T) {
	p := NewParser(WithMaxFileSize(8))
	_, err := p.Parse(context.Background(), "/pkg/big.js", []byte("const a = 1;"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = NewParser().Parse(context.Background(), "/pkg/bin.js", []byte{0xff, 0xfe})
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = NewParser(WithFeatureProfile(FeatureProfile{})).Parse(context.Background(), "/pkg/a.js", nil)
	assert.ErrorIs(t, err, ErrUnsupportedProfile)
}

func TestParser_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewParser().Parse(ctx, "/pkg/a.js", []byte("const a = 1;"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeatureProfile_Grammar(t *testing.T) {
	tests := []struct {
		name    string
		profile FeatureProfile
		want    string
	}{
		{"default is tsx", DefaultFeatureProfile(), "tsx"},
		{"types only", FeatureProfile{Modules: true, TypeAnnotations: true}, "typescript"},
		{"plain", FeatureProfile{Modules: true, JSX: true}, "javascript"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := tt.profile.grammar()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 42.0, parseNumber("42"))
	assert.Equal(t, 1.5, parseNumber("1.5"))
	assert.Equal(t, 255.0, parseNumber("0xff"))
	assert.Equal(t, 1000.0, parseNumber("1_000"))
	assert.Equal(t, 0.0, parseNumber("nope"))
}
