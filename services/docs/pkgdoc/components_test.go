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
	"path/filepath"
	"testing"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectComponents(t *testing.T) {
	rec, dir := assembleFixture(t)

	components := InspectComponents(rec, quietLogger())
	require.Len(t, components, 2)

	button := components[0]
	assert.Equal(t, "Button", button.Name)
	assert.Equal(t, []string{"theme", "disabled"}, button.DefaultProps)
	assert.Empty(t, button.Errors)
	assert.Equal(t, "ButtonProps", button.PropsType.Node.(*ast.GenericTypeAnnotation).ID)
	props, ok := button.Props.Node.(*ast.ObjectTypeAnnotation)
	require.True(t, ok, "got %T", button.Props.Node)
	assert.Len(t, props.Properties, 2)
	assert.Equal(t, filepath.Join(dir, "components", "button.js"), button.PropsSource)

	icon := components[1]
	assert.Equal(t, "Icon", icon.Name)
	assert.Nil(t, icon.DefaultProps)
	require.Len(t, icon.Errors, 1)
	assert.Contains(t, icon.Errors[0], ErrDefaultPropsNotObject.Error())
	// Imported props types are followed into the defining file.
	assert.Equal(t, filepath.Join(dir, "components", "icon-types.js"), icon.PropsSource)
}

func TestInspectComponents_DecodedDocument(t *testing.T) {
	rec, _ := assembleFixture(t)
	data, err := Document{rec.Name: rec}.Marshal()
	require.NoError(t, err)
	doc, err := UnmarshalDocument(data)
	require.NoError(t, err)

	components := InspectComponents(doc[rec.Name], quietLogger())
	require.Len(t, components, 2)
	assert.Equal(t, []string{"theme", "disabled"}, components[0].DefaultProps)
	assert.NotNil(t, components[0].Props.Node)
}

func superclass(object, property string) ast.Ref {
	if object == "" {
		id := ast.New(ast.KindIdentifier).(*ast.Identifier)
		id.Name = property
		return ast.Wrap(id)
	}
	obj := ast.New(ast.KindIdentifier).(*ast.Identifier)
	obj.Name = object
	m := ast.New(ast.KindMemberExpression).(*ast.MemberExpression)
	m.Object = ast.Wrap(obj)
	m.Property = property
	return ast.Wrap(m)
}

func TestIsComponent(t *testing.T) {
	tests := []struct {
		name   string
		object string
		prop   string
		want   bool
	}{
		{"React.Component", "React", "Component", true},
		{"React.PureComponent", "React", "PureComponent", true},
		{"bare Component", "", "Component", true},
		{"bare PureComponent", "", "PureComponent", true},
		{"other namespace", "Preact", "Component", false},
		{"other class", "", "Error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := ast.New(ast.KindClassDeclaration).(*ast.ClassDeclaration)
			cls.SuperClass = superclass(tt.object, tt.prop)
			assert.Equal(t, tt.want, IsComponent(cls))
		})
	}

	assert.False(t, IsComponent(ast.New(ast.KindClassDeclaration)))
	assert.False(t, IsComponent(ast.New(ast.KindFunctionDeclaration)))
}

func TestClassify(t *testing.T) {
	component := ast.New(ast.KindClassDeclaration).(*ast.ClassDeclaration)
	component.SuperClass = superclass("React", "Component")

	arrow := ast.New(ast.KindVariableDeclarator).(*ast.VariableDeclarator)
	arrow.Init = ast.Wrap(ast.New(ast.KindArrowFunctionExpression))

	constant := ast.New(ast.KindVariableDeclarator).(*ast.VariableDeclarator)
	constant.Init = ast.Wrap(ast.New(ast.KindNumericLiteral))

	assert.Equal(t, CategoryComponent, Classify(component))
	assert.Equal(t, CategoryClass, Classify(ast.New(ast.KindClassDeclaration)))
	assert.Equal(t, CategoryFunction, Classify(ast.New(ast.KindFunctionDeclaration)))
	assert.Equal(t, CategoryFunction, Classify(arrow))
	assert.Equal(t, CategoryValue, Classify(constant))
	assert.Equal(t, CategoryValue, Classify(ast.New(ast.KindIdentifier)))
}

func TestDefaultProps_NoField(t *testing.T) {
	keys, err := DefaultProps(ast.New(ast.KindClassDeclaration).(*ast.ClassDeclaration))
	assert.NoError(t, err)
	assert.Nil(t, keys)
}
