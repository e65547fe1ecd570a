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

// Tree-sitter node types consumed by the converter.
//
// The parser walks nodes directly instead of using tree-sitter queries. Names
// match tree-sitter-typescript's TSX grammar; where the JavaScript grammar
// uses a different spelling both are listed.
//
// Reference: https://github.com/tree-sitter/tree-sitter-typescript
const (
	tsProgram = "program"
	tsComment = "comment"
	tsError   = "ERROR"

	// Modules
	tsImportStatement   = "import_statement"
	tsImportClause      = "import_clause"
	tsNamedImports      = "named_imports"
	tsNamespaceImport   = "namespace_import"
	tsImportSpecifier   = "import_specifier"
	tsExportStatement   = "export_statement"
	tsExportClause      = "export_clause"
	tsExportSpecifier   = "export_specifier"
	tsNamespaceExport   = "namespace_export"
	tsString            = "string"
	tsStringFragment    = "string_fragment"
	tsEscapeSequence    = "escape_sequence"
	tsTemplateString    = "template_string"
	tsKeywordDefault    = "default"
	tsKeywordType       = "type"
	tsKeywordTypeof     = "typeof"
	tsKeywordStatic     = "static"
	tsKeywordAsync      = "async"
	tsKeywordStar       = "*"
	tsKeywordGet        = "get"
	tsKeywordSet        = "set"
	tsKeywordQuestion   = "?"
	tsKeywordOptChain   = "?."
	tsKeywordSpreadDots = "..."

	// Declarations
	tsLexicalDeclaration       = "lexical_declaration"
	tsVariableDeclaration      = "variable_declaration"
	tsVariableDeclarator       = "variable_declarator"
	tsFunctionDeclaration      = "function_declaration"
	tsGeneratorFunctionDecl    = "generator_function_declaration"
	tsClassDeclaration         = "class_declaration"
	tsAbstractClassDeclaration = "abstract_class_declaration"
	tsClass                    = "class"
	tsTypeAliasDeclaration     = "type_alias_declaration"
	tsInterfaceDeclaration     = "interface_declaration"
	tsInterfaceBody            = "interface_body"
	tsExtendsTypeClause        = "extends_type_clause"

	// Classes
	tsClassHeritage         = "class_heritage"
	tsExtendsClause         = "extends_clause"
	tsClassBody             = "class_body"
	tsMethodDefinition      = "method_definition"
	tsPublicFieldDefinition = "public_field_definition"
	tsFieldDefinition       = "field_definition"

	// Functions
	tsFormalParameters   = "formal_parameters"
	tsRequiredParameter  = "required_parameter"
	tsOptionalParameter  = "optional_parameter"
	tsRestPattern        = "rest_pattern"
	tsArrowFunction      = "arrow_function"
	tsFunction           = "function"
	tsFunctionExpression = "function_expression"
	tsGeneratorFunction  = "generator_function"
	tsTypeParameters     = "type_parameters"
	tsTypeParameter      = "type_parameter"

	// Expressions
	tsIdentifier                = "identifier"
	tsPropertyIdentifier        = "property_identifier"
	tsPrivatePropertyIdentifier = "private_property_identifier"
	tsShorthandPropertyIdent    = "shorthand_property_identifier"
	tsMemberExpression          = "member_expression"
	tsSubscriptExpression       = "subscript_expression"
	tsObject                    = "object"
	tsPair                      = "pair"
	tsSpreadElement             = "spread_element"
	tsNumber                    = "number"
	tsTrue                      = "true"
	tsFalse                     = "false"
	tsNull                      = "null"
	tsUndefined                 = "undefined"
	tsParenthesizedExpression   = "parenthesized_expression"
	tsAsExpression              = "as_expression"
	tsSatisfiesExpression       = "satisfies_expression"
	tsComputedPropertyName      = "computed_property_name"

	// Types
	tsTypeAnnotation       = "type_annotation"
	tsTypeArguments        = "type_arguments"
	tsTypeIdentifier       = "type_identifier"
	tsNestedTypeIdentifier = "nested_type_identifier"
	tsGenericType          = "generic_type"
	tsPredefinedType       = "predefined_type"
	tsObjectType           = "object_type"
	tsPropertySignature    = "property_signature"
	tsMethodSignature      = "method_signature"
	tsUnionType            = "union_type"
	tsIntersectionType     = "intersection_type"
	tsParenthesizedType    = "parenthesized_type"
	tsArrayType            = "array_type"
	tsTupleType            = "tuple_type"
	tsFunctionType         = "function_type"
	tsLiteralType          = "literal_type"
	tsTypeQuery            = "type_query"
	tsUnaryExpression      = "unary_expression"
	tsFlowMaybeType        = "flow_maybe_type"
	tsExistentialType      = "existential_type"
	tsExactObjectOpen      = "{|"

	// JSX
	tsJSXElement            = "jsx_element"
	tsJSXSelfClosingElement = "jsx_self_closing_element"
	tsJSXOpeningElement     = "jsx_opening_element"
)
