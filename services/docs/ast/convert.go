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
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// converter turns a tree-sitter tree into Nodes.
//
// The tree is parsed from the lowered text; src is the original file, and
// all text is read from it through flow's offset map.
type converter struct {
	src     []byte
	lowered []byte
	flow    *flowSource
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if c.flow == nil {
		return n.Content(c.src)
	}
	start, end := c.orig(n), c.flow.orig(int(n.EndByte()))
	if start > end || end > len(c.src) {
		return n.Content(c.lowered)
	}
	return string(c.src[start:end])
}

// orig returns n's start offset in the original source.
func (c *converter) orig(n *sitter.Node) int {
	return c.flow.orig(int(n.StartByte()))
}

// markAt returns the Flow mark recorded at the original offset pos.
func (c *converter) markAt(pos int) flowMark {
	return c.flow.mark(pos)
}

// maybeBefore reports whether a blanked `?` precedes n, as in `?() => void`.
func (c *converter) maybeBefore(n *sitter.Node) bool {
	if c.flow == nil {
		return false
	}
	i := c.orig(n) - 1
	for i >= 0 && isSpace(c.src[i]) {
		i--
	}
	return i >= 0 && c.markAt(i) == markMaybe
}

// variance reads the blanked sigil in front of a property key.
func (c *converter) variance(key *sitter.Node) string {
	if key == nil || c.flow == nil {
		return ""
	}
	switch c.markAt(c.orig(key) - 1) {
	case markVariancePlus:
		return "plus"
	case markVarianceMinus:
		return "minus"
	default:
		return ""
	}
}

// isSpread reports whether key is the `$` left by rewriting `...` to `$:`.
func (c *converter) isSpread(key *sitter.Node) bool {
	return key != nil && c.markAt(c.orig(key)) == markSpread
}

// children returns all children, named and anonymous.
func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// namedChildren returns named children, skipping comments and the
// zero-width nodes tree-sitter inserts during error recovery.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == tsComment || child.IsMissing() {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasToken reports whether n has a direct anonymous child of the given type.
func hasToken(n *sitter.Node, token string) bool {
	for _, child := range children(n) {
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

// field returns the first non-nil child among the given field names. The
// JavaScript and TypeScript grammars spell a few fields differently.
func field(n *sitter.Node, names ...string) *sitter.Node {
	for _, name := range names {
		if child := n.ChildByFieldName(name); child != nil {
			return child
		}
	}
	return nil
}

// leadingComments collects the comments directly preceding n.
func (c *converter) leadingComments(n *sitter.Node) []Comment {
	var reversed []Comment
	for prev := n.PrevSibling(); prev != nil && prev.Type() == tsComment; prev = prev.PrevSibling() {
		reversed = append(reversed, parseComment(c.text(prev)))
	}
	if len(reversed) == 0 {
		return nil
	}
	out := make([]Comment, len(reversed))
	for i, cm := range reversed {
		out[len(reversed)-1-i] = cm
	}
	return out
}

func parseComment(raw string) Comment {
	if strings.HasPrefix(raw, "/*") {
		return Comment{Type: "CommentBlock", Value: strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")}
	}
	return Comment{Type: "CommentLine", Value: strings.TrimPrefix(raw, "//")}
}

// attach copies n's leading comments onto node unless it already has some.
func (c *converter) attach(node Node, n *sitter.Node) Node {
	if node == nil || len(node.Comments()) > 0 {
		return node
	}
	if comments := c.leadingComments(n); len(comments) > 0 {
		node.SetComments(comments)
	}
	return node
}

func (c *converter) unknown(n *sitter.Node) Node {
	u := New(KindUnknown).(*Unknown)
	u.NodeType = n.Type()
	u.Text = c.text(n)
	return u
}

// =============================================================================
// Statements
// =============================================================================

func (c *converter) program(root *sitter.Node) *Program {
	prog := New(KindProgram).(*Program)
	for _, child := range namedChildren(root) {
		stmt := c.statement(child)
		if stmt == nil {
			continue
		}
		stmt = c.attach(stmt, child)
		copyExportComments(stmt)
		prog.Body = append(prog.Body, Wrap(stmt))
	}
	return prog
}

// copyExportComments gives an exported declaration the comments written
// above its export statement, so docs survive once the declaration is
// looked up on its own.
func copyExportComments(stmt Node) {
	comments := stmt.Comments()
	if len(comments) == 0 {
		return
	}
	var inner Node
	switch s := stmt.(type) {
	case *ExportNamedDeclaration:
		inner = s.Declaration.Node
	case *ExportDefaultDeclaration:
		inner = s.Declaration.Node
	}
	if inner != nil && len(inner.Comments()) == 0 {
		inner.SetComments(append([]Comment(nil), comments...))
	}
}

func (c *converter) statement(n *sitter.Node) Node {
	switch n.Type() {
	case tsImportStatement:
		return c.importDeclaration(n)
	case tsExportStatement:
		return c.exportStatement(n)
	case tsLexicalDeclaration, tsVariableDeclaration:
		return c.variableDeclaration(n)
	case tsFunctionDeclaration, tsGeneratorFunctionDecl:
		return c.functionDeclaration(n)
	case tsClassDeclaration, tsAbstractClassDeclaration:
		return c.classDeclaration(n)
	case tsTypeAliasDeclaration:
		return c.typeAlias(n)
	case tsInterfaceDeclaration:
		return c.interfaceDeclaration(n)
	default:
		return c.unknown(n)
	}
}

func (c *converter) importDeclaration(n *sitter.Node) Node {
	decl := New(KindImportDeclaration).(*ImportDeclaration)
	decl.ImportKind = ImportKindValue
	decl.Specifiers = []ImportSpecifier{}

	for _, child := range children(n) {
		switch child.Type() {
		case tsKeywordType, tsKeywordTypeof:
			if !child.IsNamed() {
				decl.ImportKind = child.Type()
			}
		case tsImportClause:
			decl.Specifiers = append(decl.Specifiers, c.importClause(child)...)
		case tsString:
			decl.Source = c.stringValue(child)
		}
	}
	return decl
}

func (c *converter) importClause(n *sitter.Node) []ImportSpecifier {
	var specs []ImportSpecifier
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case tsIdentifier:
			specs = append(specs, ImportSpecifier{
				Type:     SpecifierDefault,
				Local:    c.text(child),
				Imported: "default",
			})
		case tsNamespaceImport:
			for _, gc := range namedChildren(child) {
				if gc.Type() == tsIdentifier {
					specs = append(specs, ImportSpecifier{
						Type:     SpecifierNamespace,
						Local:    c.text(gc),
						Imported: "*",
					})
				}
			}
		case tsNamedImports:
			for _, gc := range namedChildren(child) {
				if gc.Type() != tsImportSpecifier {
					continue
				}
				name, alias, kind := c.specifierNames(gc)
				if name == "" {
					continue
				}
				specs = append(specs, ImportSpecifier{
					Type:       SpecifierNamed,
					Local:      alias,
					Imported:   name,
					ImportKind: kind,
				})
			}
		}
	}
	return specs
}

// specifierNames reads `[type] name [as alias]` from an import or export
// specifier. alias equals name when no `as` clause is present.
func (c *converter) specifierNames(n *sitter.Node) (name, alias, kind string) {
	var names []string
	for _, child := range children(n) {
		switch child.Type() {
		case tsKeywordType, tsKeywordTypeof:
			if !child.IsNamed() && len(names) == 0 {
				kind = child.Type()
			}
		case tsIdentifier, tsTypeIdentifier, tsPropertyIdentifier:
			names = append(names, c.text(child))
		case tsString:
			names = append(names, c.stringValue(child))
		case tsKeywordDefault:
			names = append(names, "default")
		}
	}
	switch len(names) {
	case 0:
		return "", "", kind
	case 1:
		return names[0], names[0], kind
	default:
		return names[0], names[1], kind
	}
}

func (c *converter) exportStatement(n *sitter.Node) Node {
	isDefault := false
	typeOnly := false
	star := false
	var clause, source, namespace *sitter.Node

	for _, child := range children(n) {
		switch child.Type() {
		case tsKeywordDefault:
			if !child.IsNamed() {
				isDefault = true
			}
		case tsKeywordType:
			if !child.IsNamed() {
				typeOnly = true
			}
		case tsKeywordStar:
			star = true
		case tsExportClause:
			clause = child
		case tsNamespaceExport:
			namespace = child
		}
	}
	source = n.ChildByFieldName("source")
	declaration := n.ChildByFieldName("declaration")
	value := n.ChildByFieldName("value")

	if star || namespace != nil {
		all := New(KindExportAllDeclaration).(*ExportAllDeclaration)
		all.Source = c.stringValue(source)
		if namespace != nil {
			for _, gc := range namedChildren(namespace) {
				all.Exported = c.text(gc)
			}
		}
		return all
	}

	if isDefault {
		target := declaration
		if target == nil {
			target = value
		}
		def := New(KindExportDefaultDeclaration).(*ExportDefaultDeclaration)
		if target != nil {
			def.Declaration = Wrap(c.defaultExported(target))
		}
		return def
	}

	named := New(KindExportNamedDeclaration).(*ExportNamedDeclaration)
	named.ExportKind = ImportKindValue
	named.Specifiers = []ExportSpecifier{}

	if declaration != nil {
		if declaration.Type() == tsTypeAliasDeclaration || declaration.Type() == tsInterfaceDeclaration {
			named.ExportKind = ImportKindType
		}
		named.Declaration = Wrap(c.attach(c.statement(declaration), declaration))
		return named
	}

	if typeOnly {
		named.ExportKind = ImportKindType
	}
	for _, spec := range namedChildren(clause) {
		if spec.Type() != tsExportSpecifier {
			continue
		}
		local, exported, kind := c.specifierNames(spec)
		if local == "" {
			continue
		}
		named.Specifiers = append(named.Specifiers, ExportSpecifier{
			Local:      local,
			Exported:   exported,
			ExportKind: kind,
		})
	}
	if source != nil {
		named.Source = c.stringValue(source)
	}
	return named
}

// defaultExported converts the target of `export default`. Anonymous
// classes and functions become declarations with a nil ID, as in Babel.
func (c *converter) defaultExported(n *sitter.Node) Node {
	switch n.Type() {
	case tsClassDeclaration, tsAbstractClassDeclaration, tsClass:
		return c.classDeclaration(n)
	case tsFunctionDeclaration, tsGeneratorFunctionDecl, tsFunction, tsFunctionExpression, tsGeneratorFunction:
		return c.functionDeclaration(n)
	default:
		return c.expression(n)
	}
}

func (c *converter) variableDeclaration(n *sitter.Node) Node {
	decl := New(KindVariableDeclaration).(*VariableDeclaration)
	decl.DeclarationKind = "var"
	if kind := n.ChildByFieldName("kind"); kind != nil {
		decl.DeclarationKind = c.text(kind)
	} else if first := n.Child(0); first != nil && !first.IsNamed() {
		decl.DeclarationKind = first.Type()
	}

	for _, child := range namedChildren(n) {
		if child.Type() != tsVariableDeclarator {
			continue
		}
		decl.Declarations = append(decl.Declarations, c.variableDeclarator(child))
	}
	return decl
}

func (c *converter) variableDeclarator(n *sitter.Node) *VariableDeclarator {
	d := New(KindVariableDeclarator).(*VariableDeclarator)
	if name := n.ChildByFieldName("name"); name != nil {
		if name.Type() == tsIdentifier {
			id := c.identifier(name)
			if annotation := n.ChildByFieldName("type"); annotation != nil {
				id.TypeAnnotation = Wrap(c.typeNode(annotation))
			}
			d.ID = Wrap(id)
		} else {
			d.ID = Wrap(c.unknown(name))
		}
	}
	if value := n.ChildByFieldName("value"); value != nil {
		d.Init = Wrap(c.expression(value))
	}
	return d
}

func (c *converter) identifier(n *sitter.Node) *Identifier {
	id := New(KindIdentifier).(*Identifier)
	id.Name = c.text(n)
	return id
}

func (c *converter) functionDeclaration(n *sitter.Node) Node {
	fn := New(KindFunctionDeclaration).(*FunctionDeclaration)
	fn.Async = hasToken(n, tsKeywordAsync)
	fn.Generator = hasToken(n, tsKeywordStar) || strings.HasPrefix(n.Type(), "generator_")
	if name := n.ChildByFieldName("name"); name != nil {
		fn.ID = c.identifier(name)
	}
	fn.TypeParameters = c.typeParameterNames(n.ChildByFieldName("type_parameters"))
	fn.Params = c.params(n.ChildByFieldName("parameters"))
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		fn.ReturnType = Wrap(c.typeNode(ret))
	}
	return fn
}

func (c *converter) typeParameterNames(n *sitter.Node) []string {
	var names []string
	for _, child := range namedChildren(n) {
		if child.Type() != tsTypeParameter {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			names = append(names, c.text(name))
		}
	}
	return names
}

// params converts formal parameters. Plain identifiers carry their
// annotation; destructuring patterns are kept as Unknown.
func (c *converter) params(n *sitter.Node) []Ref {
	var out []Ref
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case tsIdentifier:
			out = append(out, Wrap(c.identifier(child)))
		case tsRequiredParameter, tsOptionalParameter:
			pattern := child.ChildByFieldName("pattern")
			if pattern == nil || pattern.Type() != tsIdentifier {
				out = append(out, Wrap(c.unknown(child)))
				continue
			}
			id := c.identifier(pattern)
			id.Optional = child.Type() == tsOptionalParameter
			if annotation := child.ChildByFieldName("type"); annotation != nil {
				id.TypeAnnotation = Wrap(c.typeNode(annotation))
			}
			out = append(out, Wrap(id))
		default:
			out = append(out, Wrap(c.unknown(child)))
		}
	}
	return out
}

func (c *converter) classDeclaration(n *sitter.Node) Node {
	cls := New(KindClassDeclaration).(*ClassDeclaration)
	if name := n.ChildByFieldName("name"); name != nil {
		cls.ID = c.identifier(name)
	}
	cls.TypeParameters = c.typeParameterNames(n.ChildByFieldName("type_parameters"))

	for _, child := range namedChildren(n) {
		if child.Type() == tsClassHeritage {
			c.classHeritage(child, cls)
		}
	}

	body := field(n, "body")
	cls.Body = []Ref{}
	for _, member := range namedChildren(body) {
		var converted Node
		switch member.Type() {
		case tsMethodDefinition:
			converted = c.classMethod(member)
		case tsPublicFieldDefinition, tsFieldDefinition:
			converted = c.classProperty(member)
		default:
			continue
		}
		cls.Body = append(cls.Body, Wrap(c.attach(converted, member)))
	}
	return cls
}

// classHeritage reads the superclass and its type arguments. The TypeScript
// grammar nests them in an extends_clause; the JavaScript grammar puts the
// expression directly under class_heritage.
func (c *converter) classHeritage(n *sitter.Node, cls *ClassDeclaration) {
	for _, child := range namedChildren(n) {
		if child.Type() != tsExtendsClause {
			if cls.SuperClass.IsZero() && child.Type() != "implements_clause" {
				cls.SuperClass = Wrap(c.expression(child))
			}
			continue
		}
		for _, gc := range namedChildren(child) {
			if gc.Type() == tsTypeArguments {
				for _, arg := range namedChildren(gc) {
					cls.SuperTypeParameters = append(cls.SuperTypeParameters, Wrap(c.typeNode(arg)))
				}
				continue
			}
			if cls.SuperClass.IsZero() {
				cls.SuperClass = Wrap(c.expression(gc))
			}
		}
	}
}

func (c *converter) propertyName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == tsString {
		return c.stringValue(n)
	}
	return c.text(n)
}

func (c *converter) classProperty(n *sitter.Node) Node {
	prop := New(KindClassProperty).(*ClassProperty)
	prop.Key = c.propertyName(field(n, "name", "property"))
	prop.Static = hasToken(n, tsKeywordStatic)
	prop.Variance = c.variance(field(n, "name", "property"))
	if annotation := n.ChildByFieldName("type"); annotation != nil {
		prop.TypeAnnotation = Wrap(c.typeNode(annotation))
	}
	if value := n.ChildByFieldName("value"); value != nil {
		prop.Value = Wrap(c.expression(value))
	}
	return prop
}

func (c *converter) classMethod(n *sitter.Node) Node {
	m := New(KindClassMethod).(*ClassMethod)
	m.Key = c.propertyName(n.ChildByFieldName("name"))
	m.Static = hasToken(n, tsKeywordStatic)
	m.Async = hasToken(n, tsKeywordAsync)
	switch {
	case m.Key == "constructor":
		m.MethodKind = "constructor"
	case hasToken(n, tsKeywordGet):
		m.MethodKind = "get"
	case hasToken(n, tsKeywordSet):
		m.MethodKind = "set"
	default:
		m.MethodKind = "method"
	}
	m.Params = c.params(n.ChildByFieldName("parameters"))
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		m.ReturnType = Wrap(c.typeNode(ret))
	}
	return m
}

func (c *converter) typeAlias(n *sitter.Node) Node {
	alias := New(KindTypeAlias).(*TypeAlias)
	if name := n.ChildByFieldName("name"); name != nil {
		alias.ID = c.identifier(name)
	}
	alias.TypeParameters = c.typeParameterNames(n.ChildByFieldName("type_parameters"))
	if value := n.ChildByFieldName("value"); value != nil {
		alias.Right = Wrap(c.typeNode(value))
	}
	alias.Opaque = c.markAt(c.orig(n)) == markOpaque
	return alias
}

func (c *converter) interfaceDeclaration(n *sitter.Node) Node {
	iface := New(KindInterfaceDeclaration).(*InterfaceDeclaration)
	if name := n.ChildByFieldName("name"); name != nil {
		iface.ID = c.identifier(name)
	}
	iface.TypeParameters = c.typeParameterNames(n.ChildByFieldName("type_parameters"))
	for _, child := range namedChildren(n) {
		if child.Type() != tsExtendsTypeClause {
			continue
		}
		for _, super := range namedChildren(child) {
			iface.Extends = append(iface.Extends, Wrap(c.typeNode(super)))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		iface.Body = Wrap(c.objectType(body))
	}
	return iface
}

// =============================================================================
// Expressions
// =============================================================================

func (c *converter) expression(n *sitter.Node) Node {
	switch n.Type() {
	case tsIdentifier, tsUndefined, tsShorthandPropertyIdent:
		return c.identifier(n)
	case tsMemberExpression:
		m := New(KindMemberExpression).(*MemberExpression)
		if object := n.ChildByFieldName("object"); object != nil {
			m.Object = Wrap(c.expression(object))
		}
		m.Property = c.text(n.ChildByFieldName("property"))
		return m
	case tsObject:
		return c.object(n)
	case tsString:
		s := New(KindStringLiteral).(*StringLiteral)
		s.Value = c.stringValue(n)
		return s
	case tsTemplateString:
		if len(namedChildren(n)) > 0 && !onlyFragments(n) {
			return c.unknown(n)
		}
		s := New(KindStringLiteral).(*StringLiteral)
		s.Value = strings.Trim(c.text(n), "`")
		return s
	case tsNumber:
		return c.number(n)
	case tsTrue, tsFalse:
		b := New(KindBooleanLiteral).(*BooleanLiteral)
		b.Value = n.Type() == tsTrue
		return b
	case tsNull:
		return New(KindNullLiteral)
	case tsArrowFunction:
		fn := New(KindArrowFunctionExpression).(*ArrowFunctionExpression)
		fn.Async = hasToken(n, tsKeywordAsync)
		if params := n.ChildByFieldName("parameters"); params != nil {
			fn.Params = c.params(params)
		} else if param := n.ChildByFieldName("parameter"); param != nil {
			fn.Params = []Ref{Wrap(c.identifier(param))}
		}
		if ret := n.ChildByFieldName("return_type"); ret != nil {
			fn.ReturnType = Wrap(c.typeNode(ret))
		}
		return fn
	case tsFunction, tsFunctionExpression, tsGeneratorFunction:
		fn := New(KindFunctionExpression).(*FunctionExpression)
		fn.Async = hasToken(n, tsKeywordAsync)
		fn.Generator = hasToken(n, tsKeywordStar)
		if name := n.ChildByFieldName("name"); name != nil {
			fn.ID = c.identifier(name)
		}
		fn.Params = c.params(n.ChildByFieldName("parameters"))
		if ret := n.ChildByFieldName("return_type"); ret != nil {
			fn.ReturnType = Wrap(c.typeNode(ret))
		}
		return fn
	case tsClass:
		return c.classDeclaration(n)
	case tsParenthesizedExpression, tsAsExpression, tsSatisfiesExpression:
		if inner := namedChildren(n); len(inner) > 0 {
			return c.expression(inner[0])
		}
		return c.unknown(n)
	default:
		return c.unknown(n)
	}
}

func onlyFragments(n *sitter.Node) bool {
	for _, child := range namedChildren(n) {
		if child.Type() != tsStringFragment && child.Type() != tsEscapeSequence {
			return false
		}
	}
	return true
}

func (c *converter) object(n *sitter.Node) Node {
	obj := New(KindObjectExpression).(*ObjectExpression)
	obj.Properties = []Ref{}
	for _, child := range namedChildren(n) {
		var prop Node
		switch child.Type() {
		case tsPair:
			if key := child.ChildByFieldName("key"); c.isSpread(key) {
				s := New(KindSpreadElement).(*SpreadElement)
				if value := child.ChildByFieldName("value"); value != nil {
					s.Argument = Wrap(c.expression(value))
				}
				prop = s
				break
			}
			p := New(KindObjectProperty).(*ObjectProperty)
			p.Key = c.propertyName(child.ChildByFieldName("key"))
			if value := child.ChildByFieldName("value"); value != nil {
				p.Value = Wrap(c.expression(value))
			}
			prop = p
		case tsShorthandPropertyIdent:
			p := New(KindObjectProperty).(*ObjectProperty)
			p.Key = c.text(child)
			p.Value = Wrap(c.identifier(child))
			p.Shorthand = true
			prop = p
		case tsSpreadElement:
			s := New(KindSpreadElement).(*SpreadElement)
			if inner := namedChildren(child); len(inner) > 0 {
				s.Argument = Wrap(c.expression(inner[0]))
			}
			prop = s
		case tsMethodDefinition:
			p := New(KindObjectProperty).(*ObjectProperty)
			p.Key = c.propertyName(child.ChildByFieldName("name"))
			p.Method = true
			fn := New(KindFunctionExpression).(*FunctionExpression)
			fn.Async = hasToken(child, tsKeywordAsync)
			fn.Params = c.params(child.ChildByFieldName("parameters"))
			p.Value = Wrap(fn)
			prop = p
		default:
			prop = c.unknown(child)
		}
		obj.Properties = append(obj.Properties, Wrap(c.attach(prop, child)))
	}
	return obj
}

func (c *converter) number(n *sitter.Node) Node {
	num := New(KindNumericLiteral).(*NumericLiteral)
	num.Raw = c.text(n)
	num.Value = parseNumber(num.Raw)
	return num
}

// parseNumber accepts decimal, exponent, hex, octal and binary literals.
// Unparseable spellings yield 0; Raw keeps the original text.
func parseNumber(raw string) float64 {
	clean := strings.ReplaceAll(strings.TrimSuffix(raw, "n"), "_", "")
	if v, err := strconv.ParseFloat(clean, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return float64(v)
	}
	return 0
}

// stringValue returns a string literal's contents without quotes.
func (c *converter) stringValue(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	raw := c.text(n)
	if len(raw) >= 2 {
		quote := raw[0]
		if (quote == '"' || quote == '\'') && raw[len(raw)-1] == quote {
			if unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(raw[1:len(raw)-1], `"`, `\"`) + `"`); err == nil {
				return unquoted
			}
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

// =============================================================================
// Types
// =============================================================================

// typeNode converts a type, unwrapping a type_annotation (": T") if present.
func (c *converter) typeNode(n *sitter.Node) Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case tsTypeAnnotation:
		inner := namedChildren(n)
		if len(inner) == 0 {
			return c.unknown(n)
		}
		return c.typeNode(inner[0])
	case tsPredefinedType:
		k := New(KindKeywordTypeAnnotation).(*KeywordTypeAnnotation)
		k.Keyword = c.text(n)
		return k
	case tsTypeIdentifier, tsNestedTypeIdentifier, tsIdentifier:
		g := New(KindGenericTypeAnnotation).(*GenericTypeAnnotation)
		g.ID = compact(c.text(n))
		return g
	case tsGenericType:
		g := New(KindGenericTypeAnnotation).(*GenericTypeAnnotation)
		g.ID = compact(c.text(n.ChildByFieldName("name")))
		for _, arg := range namedChildren(n.ChildByFieldName("type_arguments")) {
			g.TypeParameters = append(g.TypeParameters, Wrap(c.typeNode(arg)))
		}
		return g
	case tsObjectType:
		return c.objectType(n)
	case tsUnionType:
		u := New(KindUnionTypeAnnotation).(*UnionTypeAnnotation)
		u.Types = c.flatten(n, tsUnionType)
		return u
	case tsIntersectionType:
		i := New(KindIntersectionTypeAnnotation).(*IntersectionTypeAnnotation)
		i.Types = c.flatten(n, tsIntersectionType)
		return i
	case tsParenthesizedType:
		if inner := namedChildren(n); len(inner) > 0 {
			return c.typeNode(inner[0])
		}
		return c.unknown(n)
	case tsArrayType:
		a := New(KindArrayTypeAnnotation).(*ArrayTypeAnnotation)
		if inner := namedChildren(n); len(inner) > 0 {
			a.ElementType = Wrap(c.typeNode(inner[0]))
		}
		return a
	case tsTupleType:
		t := New(KindTupleTypeAnnotation).(*TupleTypeAnnotation)
		t.Types = []Ref{}
		for _, elem := range namedChildren(n) {
			t.Types = append(t.Types, Wrap(c.typeNode(elem)))
		}
		return t
	case tsFunctionType:
		fn := c.functionType(n.ChildByFieldName("parameters"), n.ChildByFieldName("return_type"))
		if c.maybeBefore(n) {
			return c.nullable(fn)
		}
		return fn
	case tsFlowMaybeType:
		inner := namedChildren(n)
		if len(inner) == 0 {
			return c.unknown(n)
		}
		return c.nullable(c.typeNode(inner[0]))
	case tsExistentialType:
		return New(KindExistsTypeAnnotation)
	case tsLiteralType:
		return c.literalType(n)
	case tsTypeQuery:
		q := New(KindTypeofTypeAnnotation).(*TypeofTypeAnnotation)
		if inner := namedChildren(n); len(inner) > 0 {
			q.Argument = compact(c.text(inner[0]))
		}
		return q
	default:
		return c.unknown(n)
	}
}

func (c *converter) nullable(inner Node) Node {
	nt := New(KindNullableTypeAnnotation).(*NullableTypeAnnotation)
	nt.TypeAnnotation = Wrap(inner)
	return nt
}

// flatten collects the operands of nested binary union/intersection types.
func (c *converter) flatten(n *sitter.Node, kind string) []Ref {
	var out []Ref
	for _, child := range namedChildren(n) {
		if child.Type() == kind {
			out = append(out, c.flatten(child, kind)...)
			continue
		}
		out = append(out, Wrap(c.typeNode(child)))
	}
	return out
}

// objectType converts an object type or interface body. `{| |}` sets Exact.
func (c *converter) objectType(n *sitter.Node) Node {
	obj := New(KindObjectTypeAnnotation).(*ObjectTypeAnnotation)
	obj.Properties = []Ref{}
	obj.Exact = hasToken(n, tsExactObjectOpen)
	for _, member := range namedChildren(n) {
		var prop Node
		switch member.Type() {
		case tsPropertySignature:
			name := member.ChildByFieldName("name")
			if c.isSpread(name) {
				spread := New(KindObjectTypeSpreadProperty).(*ObjectTypeSpreadProperty)
				if annotation := member.ChildByFieldName("type"); annotation != nil {
					spread.Argument = Wrap(c.typeNode(annotation))
				}
				prop = spread
				break
			}
			p := New(KindObjectTypeProperty).(*ObjectTypeProperty)
			p.Key = c.propertyName(name)
			p.Optional = hasToken(member, tsKeywordQuestion)
			p.Variance = c.variance(name)
			if annotation := member.ChildByFieldName("type"); annotation != nil {
				p.Value = Wrap(c.typeNode(annotation))
			}
			prop = p
		case tsMethodSignature:
			p := New(KindObjectTypeProperty).(*ObjectTypeProperty)
			p.Key = c.propertyName(member.ChildByFieldName("name"))
			p.Optional = hasToken(member, tsKeywordQuestion)
			p.Method = true
			p.Value = Wrap(c.functionType(member.ChildByFieldName("parameters"), member.ChildByFieldName("return_type")))
			prop = p
		default:
			prop = c.unknown(member)
		}
		obj.Properties = append(obj.Properties, Wrap(c.attach(prop, member)))
	}
	return obj
}

func (c *converter) functionType(params, ret *sitter.Node) Node {
	fn := New(KindFunctionTypeAnnotation).(*FunctionTypeAnnotation)
	fn.Params = []*FunctionTypeParam{}
	for _, child := range namedChildren(params) {
		p := New(KindFunctionTypeParam).(*FunctionTypeParam)
		p.Optional = child.Type() == tsOptionalParameter
		pattern := child.ChildByFieldName("pattern")
		if pattern == nil {
			pattern = child
		}
		annotation := child.ChildByFieldName("type")
		switch {
		case c.markAt(c.orig(child)) == markUnnamedParam:
			// `(string) => void`: the name was inserted, the type is real.
		case annotation == nil && pattern.Type() == tsIdentifier:
			// `(A, B) => void` parses with the types in the name slot.
			p.TypeAnnotation = Wrap(c.namedType(c.text(pattern)))
		default:
			p.Name = c.text(pattern)
		}
		if annotation != nil {
			p.TypeAnnotation = Wrap(c.typeNode(annotation))
		}
		fn.Params = append(fn.Params, p)
	}
	if ret != nil {
		fn.ReturnType = Wrap(c.typeNode(ret))
	}
	return fn
}

// namedType converts a bare type name read from a parameter slot.
func (c *converter) namedType(name string) Node {
	if _, ok := keywordTypes[name]; ok {
		k := New(KindKeywordTypeAnnotation).(*KeywordTypeAnnotation)
		k.Keyword = name
		return k
	}
	g := New(KindGenericTypeAnnotation).(*GenericTypeAnnotation)
	g.ID = name
	return g
}

func (c *converter) literalType(n *sitter.Node) Node {
	inner := namedChildren(n)
	if len(inner) == 0 {
		return c.unknown(n)
	}
	lit := inner[0]
	switch lit.Type() {
	case tsString:
		s := New(KindStringLiteralTypeAnnotation).(*StringLiteralTypeAnnotation)
		s.Value = c.stringValue(lit)
		return s
	case tsNumber, tsUnaryExpression:
		num := New(KindNumberLiteralTypeAnnotation).(*NumberLiteralTypeAnnotation)
		num.Value = parseNumber(compact(c.text(lit)))
		return num
	case tsTrue, tsFalse:
		b := New(KindBooleanLiteralTypeAnnotation).(*BooleanLiteralTypeAnnotation)
		b.Value = lit.Type() == tsTrue
		return b
	case tsNull, tsUndefined:
		k := New(KindKeywordTypeAnnotation).(*KeywordTypeAnnotation)
		k.Keyword = lit.Type()
		return k
	default:
		return c.unknown(n)
	}
}

// compact removes whitespace, e.g. "React . Node" -> "React.Node".
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
