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
	"errors"
	"fmt"
	"log/slog"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/graph"
)

// ErrDefaultPropsNotObject indicates a `static defaultProps` initializer
// that is not an object literal. Only literal objects are read.
var ErrDefaultPropsNotObject = errors.New("defaultProps initializer is not an object literal")

// Category groups declarations for presentation.
type Category string

const (
	CategoryComponent Category = "component"
	CategoryClass     Category = "class"
	CategoryFunction  Category = "function"
	CategoryValue     Category = "value"
)

// Classify returns the category of a resolved declaration.
func Classify(n ast.Node) Category {
	switch d := n.(type) {
	case *ast.ClassDeclaration:
		if IsComponent(d) {
			return CategoryComponent
		}
		return CategoryClass
	case *ast.FunctionDeclaration, *ast.ArrowFunctionExpression, *ast.FunctionExpression:
		return CategoryFunction
	case *ast.VariableDeclarator:
		switch d.Init.Node.(type) {
		case *ast.ArrowFunctionExpression, *ast.FunctionExpression:
			return CategoryFunction
		case *ast.ClassDeclaration:
			return Classify(d.Init.Node)
		}
	}
	return CategoryValue
}

// IsComponent reports whether n is a class extending React.Component,
// React.PureComponent, Component or PureComponent.
func IsComponent(n ast.Node) bool {
	cls, ok := n.(*ast.ClassDeclaration)
	if !ok {
		return false
	}
	switch super := cls.SuperClass.Node.(type) {
	case *ast.MemberExpression:
		obj, ok := super.Object.Node.(*ast.Identifier)
		return ok && obj.Name == "React" && isComponentBase(super.Property)
	case *ast.Identifier:
		return isComponentBase(super.Name)
	default:
		return false
	}
}

func isComponentBase(name string) bool {
	return name == "Component" || name == "PureComponent"
}

// Component describes a component class export.
type Component struct {
	// Name is the export name.
	Name string `json:"name"`

	// Source is the file declaring the class.
	Source string `json:"source"`

	// PropsType is the first type argument of the superclass, as written.
	PropsType ast.Ref `json:"propsType,omitzero"`

	// Props is PropsType with a named type resolved to its definition.
	Props ast.Ref `json:"props,omitzero"`

	// PropsSource is the file defining Props.
	PropsSource string `json:"propsSource,omitempty"`

	// DefaultProps lists the keys of `static defaultProps`, in source order.
	DefaultProps []string `json:"defaultProps,omitempty"`

	// Errors holds non-fatal inspection problems.
	Errors []string `json:"errors,omitempty"`
}

// InspectComponents describes every component among rec's declarations.
//
// Description:
//
//	Props types written as a name are looked up the way the file sees
//	them: a private type alias, an imported type followed across files, or
//	a type the file exports. Failures are recorded on the component and
//	logged; they never abort the inspection.
func InspectComponents(rec *PackageRecord, logger *slog.Logger) []Component {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := graph.NewResolver(graph.NewCacheFrom(rec.Files), graph.WithResolverLogger(logger))

	var out []Component
	for _, decl := range rec.Declarations {
		cls, ok := decl.Declaration.Node.(*ast.ClassDeclaration)
		if !ok || !IsComponent(cls) {
			continue
		}
		c := Component{Name: decl.Name, Source: decl.Source}

		if len(cls.SuperTypeParameters) > 0 {
			c.PropsType = cls.SuperTypeParameters[0]
			switch props := c.PropsType.Node.(type) {
			case *ast.GenericTypeAnnotation:
				res, err := resolver.LookupLocalType(props.ID, decl.Source)
				if err != nil {
					c.Errors = append(c.Errors, fmt.Sprintf("props type %s: %v", props.ID, err))
				} else {
					c.Props = ast.Wrap(res.Declaration)
					c.PropsSource = res.Source
				}
			case *ast.ObjectTypeAnnotation:
				c.Props = c.PropsType
				c.PropsSource = decl.Source
			}
		}

		keys, err := DefaultProps(cls)
		if err != nil {
			c.Errors = append(c.Errors, err.Error())
		}
		c.DefaultProps = keys

		for _, msg := range c.Errors {
			logger.Warn("component inspection problem",
				slog.String("package", rec.Name),
				slog.String("component", c.Name),
				slog.String("problem", msg))
		}
		out = append(out, c)
	}
	return out
}

// DefaultProps returns the keys of the class's `static defaultProps`
// object literal in source order. A class without the field yields nil.
//
// Outputs:
//
//	[]string - The keys. Spread elements are skipped.
//	error    - ErrDefaultPropsNotObject when the initializer is anything but
//	           an object literal.
func DefaultProps(cls *ast.ClassDeclaration) ([]string, error) {
	for _, member := range cls.Body {
		prop, ok := member.Node.(*ast.ClassProperty)
		if !ok || !prop.Static || prop.Key != "defaultProps" {
			continue
		}
		obj, ok := prop.Value.Node.(*ast.ObjectExpression)
		if !ok {
			kind := "nothing"
			if prop.Value.Node != nil {
				kind = string(prop.Value.Node.Kind())
			}
			return nil, fmt.Errorf("%w: got %s", ErrDefaultPropsNotObject, kind)
		}
		keys := make([]string, 0, len(obj.Properties))
		for _, p := range obj.Properties {
			if op, ok := p.Node.(*ast.ObjectProperty); ok {
				keys = append(keys, op.Key)
			}
		}
		return keys, nil
	}
	return nil, nil
}
