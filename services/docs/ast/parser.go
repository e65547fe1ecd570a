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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	// DefaultMaxFileSize is the largest source file Parse accepts.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize triggers a warning log for unusually large sources.
	WarnFileSize = 1024 * 1024
)

var (
	// ErrParse indicates the source contains syntax the grammar rejects.
	ErrParse = errors.New("parse failed")

	// ErrFileTooLarge indicates the source exceeds the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the source is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrUnsupportedProfile indicates a feature profile the parser cannot honor.
	ErrUnsupportedProfile = errors.New("unsupported feature profile")
)

// ParseError locates the first syntax error in a file.
type ParseError struct {
	Path     string
	Line     int
	Column   int
	NodeType string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error near %s", e.Path, e.Line, e.Column, e.NodeType)
}

// Unwrap lets errors.Is match ErrParse.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// FeatureProfile enumerates the language features the parser must accept.
//
// Description:
//
//	Modules, class fields, object spread and dynamic import are always
//	accepted by the tree-sitter grammars. JSX and TypeAnnotations select the
//	grammar: both on selects TSX, annotations only selects TypeScript, and
//	neither selects plain JavaScript.
//
//	With TypeAnnotations on, Flow syntax the TypeScript grammars lack
//	(object type spread, variance, opaque aliases, maybe function types,
//	unnamed function type parameters, %checks) is lowered before parsing.
//	See lowerFlow.
type FeatureProfile struct {
	Modules         bool
	TypeAnnotations bool
	JSX             bool
	ClassFields     bool
	ObjectSpread    bool
	DynamicImport   bool
}

// DefaultFeatureProfile returns the fixed profile used for documentation runs.
func DefaultFeatureProfile() FeatureProfile {
	return FeatureProfile{
		Modules:         true,
		TypeAnnotations: true,
		JSX:             true,
		ClassFields:     true,
		ObjectSpread:    true,
		DynamicImport:   true,
	}
}

// Validate reports whether the profile can be honored.
func (f FeatureProfile) Validate() error {
	if !f.Modules {
		return fmt.Errorf("%w: module syntax is required", ErrUnsupportedProfile)
	}
	return nil
}

// grammar returns the tree-sitter language and its name for the profile.
func (f FeatureProfile) grammar() (*sitter.Language, string) {
	switch {
	case f.TypeAnnotations && f.JSX:
		return tsx.GetLanguage(), "tsx"
	case f.TypeAnnotations:
		return typescript.GetLanguage(), "typescript"
	default:
		return javascript.GetLanguage(), "javascript"
	}
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithFeatureProfile overrides the default feature profile.
func WithFeatureProfile(profile FeatureProfile) ParserOption {
	return func(p *Parser) {
		p.profile = profile
	}
}

// WithMaxFileSize sets the maximum accepted source size in bytes.
func WithMaxFileSize(size int) ParserOption {
	return func(p *Parser) {
		if size > 0 {
			p.maxFileSize = size
		}
	}
}

// WithLogger sets the parser's logger.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser converts JavaScript/TypeScript source into a Program.
//
// Description:
//
//	Parser runs tree-sitter over the source and converts the top-level
//	statements into this package's closed node set. Syntax the engine does
//	not model is preserved as *Unknown nodes carrying the source text.
//
// Thread Safety:
//
//	Parser is safe for concurrent use. Each Parse call creates its own
//	tree-sitter parser instance.
type Parser struct {
	profile     FeatureProfile
	maxFileSize int
	logger      *slog.Logger
}

// NewParser creates a Parser with the default feature profile.
//
// Example:
//
//	p := NewParser()
//	prog, err := p.Parse(ctx, "/src/index.js", content)
//	if err != nil {
//	    return fmt.Errorf("parse: %w", err)
//	}
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		profile:     DefaultFeatureProfile(),
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile returns the parser's feature profile.
func (p *Parser) Profile() FeatureProfile {
	return p.profile
}

// Parse converts one source file into a Program.
//
// Inputs:
//
//	ctx      - Context for cancellation. Checked before and after parsing.
//	filePath - Path used in error messages and spans.
//	content  - Raw source bytes. Must be valid UTF-8.
//
// Outputs:
//
//	*Program - The converted top-level statements. Never nil on success.
//	error    - *ParseError (matching ErrParse) when a syntax error breaks
//	           module structure; ErrFileTooLarge, ErrInvalidContent,
//	           ErrUnsupportedProfile or a context error otherwise.
//
// Limitations:
//
//	Errors confined to a type annotation, type alias body or JSX element are
//	logged and converted to Unknown nodes instead of failing the file.
func (p *Parser) Parse(ctx context.Context, filePath string, content []byte) (*Program, error) {
	language, grammarName := p.profile.grammar()

	ctx, span := startParseSpan(ctx, grammarName, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := p.profile.Validate(); err != nil {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if len(content) > p.maxFileSize {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, filePath, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidContent, filePath)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(language)

	var flow *flowSource
	text := content
	if p.profile.TypeAnnotations {
		flow = lowerFlow(content)
		text = flow.text
	}

	tree, err := parser.ParseCtx(ctx, nil, text)
	if err != nil {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, fmt.Errorf("tree-sitter parse of %s failed: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, &ParseError{Path: filePath, Line: 1, Column: 1, NodeType: "empty tree"}
	}
	if root.HasError() {
		fatal, tolerated := syntaxErrors(root)
		if fatal != nil {
			recordParseMetrics(grammarName, time.Since(start), false)
			setParseSpanError(span, filePath)
			return nil, newParseError(filePath, content, flow, fatal)
		}
		for _, n := range tolerated {
			perr := newParseError(filePath, content, flow, n)
			p.logger.Warn("tolerating syntax error inside type or JSX",
				slog.String("file", filePath),
				slog.Int("line", perr.Line),
				slog.Int("column", perr.Column),
				slog.String("node_type", perr.NodeType))
		}
	}

	c := &converter{src: content, lowered: text, flow: flow}
	prog := c.program(root)

	if err := ctx.Err(); err != nil {
		recordParseMetrics(grammarName, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled after conversion: %w", err)
	}

	setParseSpanResult(span, len(prog.Body))
	recordParseMetrics(grammarName, time.Since(start), true)
	return prog, nil
}

// toleratedContexts are the node types whose subtrees may hold syntax
// errors without failing the file. None of them binds a top-level name, so
// symbol tables stay correct when their contents degrade to Unknown.
var toleratedContexts = map[string]struct{}{
	tsTypeAnnotation:        {},
	tsObjectType:            {},
	tsTypeAliasDeclaration:  {},
	tsInterfaceBody:         {},
	tsFunctionType:          {},
	tsTypeArguments:         {},
	tsTypeParameters:        {},
	tsUnionType:             {},
	tsIntersectionType:      {},
	tsGenericType:           {},
	tsFlowMaybeType:         {},
	tsJSXElement:            {},
	tsJSXSelfClosingElement: {},
	tsJSXOpeningElement:     {},
}

// syntaxErrors collects ERROR and MISSING nodes in document order. The
// first one outside every tolerated context is returned as fatal.
func syntaxErrors(root *sitter.Node) (fatal *sitter.Node, tolerated []*sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || fatal != nil {
			return
		}
		if n.Type() == tsError || n.IsMissing() {
			if insideTolerated(n) {
				tolerated = append(tolerated, n)
			} else {
				fatal = n
			}
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if fatal == nil && len(tolerated) == 0 {
		// HasError with no ERROR or MISSING node found.
		fatal = root
	}
	return fatal, tolerated
}

func insideTolerated(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := toleratedContexts[p.Type()]; ok {
			return true
		}
	}
	return false
}

// newParseError locates n in the original source. Lowering keeps newlines,
// so only the column needs the offset map.
func newParseError(filePath string, content []byte, flow *flowSource, n *sitter.Node) *ParseError {
	nodeType := n.Type()
	if n.IsMissing() {
		nodeType = "missing " + nodeType
	}
	offset := flow.orig(int(n.StartByte()))
	if offset > len(content) {
		offset = len(content)
	}
	line := bytes.Count(content[:offset], []byte("\n")) + 1
	column := offset - bytes.LastIndexByte(content[:offset], '\n')
	return &ParseError{
		Path:     filePath,
		Line:     line,
		Column:   column,
		NodeType: nodeType,
	}
}
