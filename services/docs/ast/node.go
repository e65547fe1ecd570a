// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast defines the closed set of JavaScript/TypeScript syntax nodes the
// documentation engine consumes, and the tree-sitter adapter that produces them.
//
// Node kinds use Babel's names so the serialized documentation data stays
// compatible with renderers written against Babel ASTs. Nodes never carry
// source positions.
package ast

// Kind is the discriminator stored in every node's "type" field.
type Kind string

// Statement and declaration kinds.
const (
	KindProgram                  Kind = "Program"
	KindImportDeclaration        Kind = "ImportDeclaration"
	KindExportNamedDeclaration   Kind = "ExportNamedDeclaration"
	KindExportDefaultDeclaration Kind = "ExportDefaultDeclaration"
	KindExportAllDeclaration     Kind = "ExportAllDeclaration"
	KindVariableDeclaration      Kind = "VariableDeclaration"
	KindVariableDeclarator       Kind = "VariableDeclarator"
	KindFunctionDeclaration      Kind = "FunctionDeclaration"
	KindClassDeclaration         Kind = "ClassDeclaration"
	KindClassProperty            Kind = "ClassProperty"
	KindClassMethod              Kind = "ClassMethod"
	KindTypeAlias                Kind = "TypeAlias"
	KindInterfaceDeclaration     Kind = "InterfaceDeclaration"
)

// Expression kinds.
const (
	KindIdentifier              Kind = "Identifier"
	KindMemberExpression        Kind = "MemberExpression"
	KindObjectExpression        Kind = "ObjectExpression"
	KindObjectProperty          Kind = "ObjectProperty"
	KindSpreadElement           Kind = "SpreadElement"
	KindArrowFunctionExpression Kind = "ArrowFunctionExpression"
	KindFunctionExpression      Kind = "FunctionExpression"
	KindStringLiteral           Kind = "StringLiteral"
	KindNumericLiteral          Kind = "NumericLiteral"
	KindBooleanLiteral          Kind = "BooleanLiteral"
	KindNullLiteral             Kind = "NullLiteral"
)

// Type annotation kinds.
const (
	KindGenericTypeAnnotation        Kind = "GenericTypeAnnotation"
	KindObjectTypeAnnotation         Kind = "ObjectTypeAnnotation"
	KindObjectTypeProperty           Kind = "ObjectTypeProperty"
	KindObjectTypeSpreadProperty     Kind = "ObjectTypeSpreadProperty"
	KindUnionTypeAnnotation          Kind = "UnionTypeAnnotation"
	KindIntersectionTypeAnnotation   Kind = "IntersectionTypeAnnotation"
	KindNullableTypeAnnotation       Kind = "NullableTypeAnnotation"
	KindStringLiteralTypeAnnotation  Kind = "StringLiteralTypeAnnotation"
	KindNumberLiteralTypeAnnotation  Kind = "NumberLiteralTypeAnnotation"
	KindBooleanLiteralTypeAnnotation Kind = "BooleanLiteralTypeAnnotation"
	KindKeywordTypeAnnotation        Kind = "KeywordTypeAnnotation"
	KindFunctionTypeAnnotation       Kind = "FunctionTypeAnnotation"
	KindFunctionTypeParam            Kind = "FunctionTypeParam"
	KindArrayTypeAnnotation          Kind = "ArrayTypeAnnotation"
	KindTupleTypeAnnotation          Kind = "TupleTypeAnnotation"
	KindTypeofTypeAnnotation         Kind = "TypeofTypeAnnotation"
	KindExistsTypeAnnotation         Kind = "ExistsTypeAnnotation"
)

// KindUnknown tags any syntax the engine does not model.
const KindUnknown Kind = "Unknown"

// Import and export kinds, as in Babel's importKind/exportKind.
const (
	ImportKindValue  = "value"
	ImportKindType   = "type"
	ImportKindTypeof = "typeof"
)

// Comment is a comment attached to the node that follows it.
type Comment struct {
	// Type is "CommentBlock" or "CommentLine".
	Type string `json:"type"`

	// Value is the comment text without its delimiters.
	Value string `json:"value"`
}

// Node is implemented by every syntax node in this package.
type Node interface {
	Kind() Kind
	Comments() []Comment
	SetComments(comments []Comment)
	isNode()
}

// Base carries the fields shared by every node.
type Base struct {
	Type            Kind      `json:"type"`
	LeadingComments []Comment `json:"leadingComments,omitempty"`
}

// Kind returns the node's discriminator.
func (b *Base) Kind() Kind { return b.Type }

// Comments returns the comments that precede the node.
func (b *Base) Comments() []Comment { return b.LeadingComments }

// SetComments replaces the node's leading comments.
func (b *Base) SetComments(comments []Comment) { b.LeadingComments = comments }

func (b *Base) isNode() {}

// =============================================================================
// Statements and declarations
// =============================================================================

// Program is the root of a parsed file.
type Program struct {
	Base
	Body []Ref `json:"body"`
}

// ImportSpecifier is one binding introduced by an import declaration.
type ImportSpecifier struct {
	// Type is ImportDefaultSpecifier, ImportSpecifier or ImportNamespaceSpecifier.
	Type string `json:"type"`

	// Local is the name bound in the importing file.
	Local string `json:"local"`

	// Imported is the exported name in the source module. "default" for
	// default imports and "*" for namespace imports.
	Imported string `json:"imported"`

	// ImportKind overrides the declaration's kind for `import {type T}`.
	ImportKind string `json:"importKind,omitempty"`
}

// Import specifier types.
const (
	SpecifierDefault   = "ImportDefaultSpecifier"
	SpecifierNamed     = "ImportSpecifier"
	SpecifierNamespace = "ImportNamespaceSpecifier"
)

// ImportDeclaration is `import ... from "source"`.
type ImportDeclaration struct {
	Base
	ImportKind string            `json:"importKind"`
	Specifiers []ImportSpecifier `json:"specifiers"`
	Source     string            `json:"source"`
}

// ExportSpecifier is one `local as exported` pair of an export clause.
type ExportSpecifier struct {
	Local      string `json:"local"`
	Exported   string `json:"exported"`
	ExportKind string `json:"exportKind,omitempty"`
}

// ExportNamedDeclaration is `export <declaration>` or `export {a as b} [from "s"]`.
type ExportNamedDeclaration struct {
	Base
	ExportKind  string            `json:"exportKind"`
	Declaration Ref               `json:"declaration"`
	Specifiers  []ExportSpecifier `json:"specifiers"`
	Source      string            `json:"source,omitempty"`
}

// ExportDefaultDeclaration is `export default <declaration or expression>`.
type ExportDefaultDeclaration struct {
	Base
	Declaration Ref `json:"declaration"`
}

// ExportAllDeclaration is `export * [as ns] from "source"`.
type ExportAllDeclaration struct {
	Base
	Exported string `json:"exported,omitempty"`
	Source   string `json:"source"`
}

// VariableDeclaration is a var, let or const statement.
type VariableDeclaration struct {
	Base
	DeclarationKind string                `json:"kind"`
	Declarations    []*VariableDeclarator `json:"declarations"`
}

// VariableDeclarator binds one name (or pattern) of a VariableDeclaration.
type VariableDeclarator struct {
	Base
	ID   Ref `json:"id"`
	Init Ref `json:"init"`
}

// Name returns the bound identifier, or "" for destructuring patterns.
func (d *VariableDeclarator) Name() string {
	if id, ok := d.ID.Node.(*Identifier); ok {
		return id.Name
	}
	return ""
}

// FunctionDeclaration is a named (or default-exported anonymous) function.
type FunctionDeclaration struct {
	Base
	ID             *Identifier `json:"id"`
	TypeParameters []string    `json:"typeParameters,omitempty"`
	Params         []Ref       `json:"params"`
	ReturnType     Ref         `json:"returnType,omitzero"`
	Async          bool        `json:"async"`
	Generator      bool        `json:"generator"`
}

// ClassDeclaration is a class declaration or class expression.
type ClassDeclaration struct {
	Base
	ID                  *Identifier `json:"id"`
	TypeParameters      []string    `json:"typeParameters,omitempty"`
	SuperClass          Ref         `json:"superClass"`
	SuperTypeParameters []Ref       `json:"superTypeParameters,omitempty"`
	Body                []Ref       `json:"body"`
}

// ClassProperty is a class field, e.g. `static defaultProps = {...}`.
type ClassProperty struct {
	Base
	Key            string `json:"key"`
	Static         bool   `json:"static"`
	Variance       string `json:"variance,omitempty"`
	TypeAnnotation Ref    `json:"typeAnnotation,omitzero"`
	Value          Ref    `json:"value"`
}

// ClassMethod is a method, getter, setter or constructor.
type ClassMethod struct {
	Base
	Key        string `json:"key"`
	MethodKind string `json:"kind"`
	Static     bool   `json:"static"`
	Async      bool   `json:"async"`
	Params     []Ref  `json:"params"`
	ReturnType Ref    `json:"returnType,omitzero"`
}

// TypeAlias is `type Name = Right`, or `opaque type Name = Right`.
type TypeAlias struct {
	Base
	ID             *Identifier `json:"id"`
	TypeParameters []string    `json:"typeParameters,omitempty"`
	Right          Ref         `json:"right"`
	Opaque         bool        `json:"opaque,omitempty"`
}

// InterfaceDeclaration is `interface Name extends A, B { ... }`. Body is an
// ObjectTypeAnnotation.
type InterfaceDeclaration struct {
	Base
	ID             *Identifier `json:"id"`
	TypeParameters []string    `json:"typeParameters,omitempty"`
	Extends        []Ref       `json:"extends,omitempty"`
	Body           Ref         `json:"body"`
}

// =============================================================================
// Expressions
// =============================================================================

// Identifier is a name, optionally annotated when used as a parameter.
type Identifier struct {
	Base
	Name           string `json:"name"`
	Optional       bool   `json:"optional,omitempty"`
	TypeAnnotation Ref    `json:"typeAnnotation,omitzero"`
}

// MemberExpression is `object.property`.
type MemberExpression struct {
	Base
	Object   Ref    `json:"object"`
	Property string `json:"property"`
	Computed bool   `json:"computed,omitempty"`
}

// ObjectExpression is an object literal.
type ObjectExpression struct {
	Base
	Properties []Ref `json:"properties"`
}

// ObjectProperty is `key: value` (or shorthand/method) inside an object literal.
type ObjectProperty struct {
	Base
	Key       string `json:"key"`
	Value     Ref    `json:"value"`
	Shorthand bool   `json:"shorthand,omitempty"`
	Method    bool   `json:"method,omitempty"`
}

// SpreadElement is `...argument`.
type SpreadElement struct {
	Base
	Argument Ref `json:"argument"`
}

// ArrowFunctionExpression is `(params) => body`.
type ArrowFunctionExpression struct {
	Base
	Params     []Ref `json:"params"`
	ReturnType Ref   `json:"returnType,omitzero"`
	Async      bool  `json:"async"`
}

// FunctionExpression is an anonymous or named function expression.
type FunctionExpression struct {
	Base
	ID         *Identifier `json:"id"`
	Params     []Ref       `json:"params"`
	ReturnType Ref         `json:"returnType,omitzero"`
	Async      bool        `json:"async"`
	Generator  bool        `json:"generator"`
}

// StringLiteral is a string or no-substitution template literal.
type StringLiteral struct {
	Base
	Value string `json:"value"`
}

// NumericLiteral is a number literal; Raw keeps the source spelling.
type NumericLiteral struct {
	Base
	Value float64 `json:"value"`
	Raw   string  `json:"raw"`
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Base
	Value bool `json:"value"`
}

// NullLiteral is null.
type NullLiteral struct {
	Base
}

// =============================================================================
// Type annotations
// =============================================================================

// GenericTypeAnnotation is a named type reference such as `Props` or `React.Node<T>`.
type GenericTypeAnnotation struct {
	Base
	ID             string `json:"id"`
	TypeParameters []Ref  `json:"typeParameters,omitempty"`
}

// ObjectTypeAnnotation is an object type literal.
type ObjectTypeAnnotation struct {
	Base
	Properties []Ref `json:"properties"`
	Exact      bool  `json:"exact"`
}

// ObjectTypeProperty is one member of an object type. Variance is "plus"
// for `+key`, "minus" for `-key` and empty otherwise.
type ObjectTypeProperty struct {
	Base
	Key      string `json:"key"`
	Value    Ref    `json:"value"`
	Optional bool   `json:"optional"`
	Method   bool   `json:"method"`
	Variance string `json:"variance,omitempty"`
}

// ObjectTypeSpreadProperty is `...Other` inside an object type.
type ObjectTypeSpreadProperty struct {
	Base
	Argument Ref `json:"argument"`
}

// UnionTypeAnnotation is `A | B`.
type UnionTypeAnnotation struct {
	Base
	Types []Ref `json:"types"`
}

// IntersectionTypeAnnotation is `A & B`.
type IntersectionTypeAnnotation struct {
	Base
	Types []Ref `json:"types"`
}

// NullableTypeAnnotation is `?T`.
type NullableTypeAnnotation struct {
	Base
	TypeAnnotation Ref `json:"typeAnnotation"`
}

// StringLiteralTypeAnnotation is a string literal used as a type.
type StringLiteralTypeAnnotation struct {
	Base
	Value string `json:"value"`
}

// NumberLiteralTypeAnnotation is a number literal used as a type.
type NumberLiteralTypeAnnotation struct {
	Base
	Value float64 `json:"value"`
}

// BooleanLiteralTypeAnnotation is true or false used as a type.
type BooleanLiteralTypeAnnotation struct {
	Base
	Value bool `json:"value"`
}

// KeywordTypeAnnotation is a built-in type such as string, number or void.
type KeywordTypeAnnotation struct {
	Base
	Keyword string `json:"keyword"`
}

// FunctionTypeAnnotation is `(a: A) => R`.
type FunctionTypeAnnotation struct {
	Base
	Params     []*FunctionTypeParam `json:"params"`
	ReturnType Ref                  `json:"returnType"`
}

// FunctionTypeParam is one parameter of a function type.
type FunctionTypeParam struct {
	Base
	Name           string `json:"name"`
	Optional       bool   `json:"optional"`
	TypeAnnotation Ref    `json:"typeAnnotation"`
}

// ArrayTypeAnnotation is `T[]`.
type ArrayTypeAnnotation struct {
	Base
	ElementType Ref `json:"elementType"`
}

// TupleTypeAnnotation is `[A, B]`.
type TupleTypeAnnotation struct {
	Base
	Types []Ref `json:"types"`
}

// TypeofTypeAnnotation is `typeof value`.
type TypeofTypeAnnotation struct {
	Base
	Argument string `json:"argument"`
}

// ExistsTypeAnnotation is the existential type `*`.
type ExistsTypeAnnotation struct {
	Base
}

// Unknown stands in for syntax the engine does not model.
type Unknown struct {
	Base
	// NodeType is the parser's own name for the node.
	NodeType string `json:"nodeType"`
	// Text is the node's source text.
	Text string `json:"text"`
}

// factories maps each kind to a constructor of its zero node. Decode uses it
// to pick the concrete type for a serialized node.
var factories = map[Kind]func() Node{
	KindProgram:                      func() Node { return &Program{} },
	KindImportDeclaration:            func() Node { return &ImportDeclaration{} },
	KindExportNamedDeclaration:       func() Node { return &ExportNamedDeclaration{} },
	KindExportDefaultDeclaration:     func() Node { return &ExportDefaultDeclaration{} },
	KindExportAllDeclaration:         func() Node { return &ExportAllDeclaration{} },
	KindVariableDeclaration:          func() Node { return &VariableDeclaration{} },
	KindVariableDeclarator:           func() Node { return &VariableDeclarator{} },
	KindFunctionDeclaration:          func() Node { return &FunctionDeclaration{} },
	KindClassDeclaration:             func() Node { return &ClassDeclaration{} },
	KindClassProperty:                func() Node { return &ClassProperty{} },
	KindClassMethod:                  func() Node { return &ClassMethod{} },
	KindTypeAlias:                    func() Node { return &TypeAlias{} },
	KindInterfaceDeclaration:         func() Node { return &InterfaceDeclaration{} },
	KindIdentifier:                   func() Node { return &Identifier{} },
	KindMemberExpression:             func() Node { return &MemberExpression{} },
	KindObjectExpression:             func() Node { return &ObjectExpression{} },
	KindObjectProperty:               func() Node { return &ObjectProperty{} },
	KindSpreadElement:                func() Node { return &SpreadElement{} },
	KindArrowFunctionExpression:      func() Node { return &ArrowFunctionExpression{} },
	KindFunctionExpression:           func() Node { return &FunctionExpression{} },
	KindStringLiteral:                func() Node { return &StringLiteral{} },
	KindNumericLiteral:               func() Node { return &NumericLiteral{} },
	KindBooleanLiteral:               func() Node { return &BooleanLiteral{} },
	KindNullLiteral:                  func() Node { return &NullLiteral{} },
	KindGenericTypeAnnotation:        func() Node { return &GenericTypeAnnotation{} },
	KindObjectTypeAnnotation:         func() Node { return &ObjectTypeAnnotation{} },
	KindObjectTypeProperty:           func() Node { return &ObjectTypeProperty{} },
	KindObjectTypeSpreadProperty:     func() Node { return &ObjectTypeSpreadProperty{} },
	KindUnionTypeAnnotation:          func() Node { return &UnionTypeAnnotation{} },
	KindIntersectionTypeAnnotation:   func() Node { return &IntersectionTypeAnnotation{} },
	KindNullableTypeAnnotation:       func() Node { return &NullableTypeAnnotation{} },
	KindStringLiteralTypeAnnotation:  func() Node { return &StringLiteralTypeAnnotation{} },
	KindNumberLiteralTypeAnnotation:  func() Node { return &NumberLiteralTypeAnnotation{} },
	KindBooleanLiteralTypeAnnotation: func() Node { return &BooleanLiteralTypeAnnotation{} },
	KindKeywordTypeAnnotation:        func() Node { return &KeywordTypeAnnotation{} },
	KindFunctionTypeAnnotation:       func() Node { return &FunctionTypeAnnotation{} },
	KindFunctionTypeParam:            func() Node { return &FunctionTypeParam{} },
	KindArrayTypeAnnotation:          func() Node { return &ArrayTypeAnnotation{} },
	KindTupleTypeAnnotation:          func() Node { return &TupleTypeAnnotation{} },
	KindTypeofTypeAnnotation:         func() Node { return &TypeofTypeAnnotation{} },
	KindExistsTypeAnnotation:         func() Node { return &ExistsTypeAnnotation{} },
	KindUnknown:                      func() Node { return &Unknown{} },
}

// New returns a zero node of the given kind with its discriminator set.
// Unmodeled kinds yield an *Unknown carrying the kind as NodeType.
func New(kind Kind) Node {
	factory, ok := factories[kind]
	if !ok {
		return &Unknown{Base: Base{Type: KindUnknown}, NodeType: string(kind)}
	}
	n := factory()
	setKind(n, kind)
	return n
}

// setKind writes the discriminator through the embedded Base.
func setKind(n Node, kind Kind) {
	type baser interface{ base() *Base }
	if b, ok := n.(baser); ok {
		b.base().Type = kind
	}
}

func (b *Base) base() *Base { return b }
