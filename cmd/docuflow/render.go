// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Khan/docuflow/services/docs/ast"
	"github.com/Khan/docuflow/services/docs/pkgdoc"
)

// renderer formats documents for the terminal. Without styling every style
// is empty and output is plain text.
type renderer struct {
	title lipgloss.Style
	name  lipgloss.Style
	muted lipgloss.Style
	warn  lipgloss.Style
}

func newRenderer(styled bool) renderer {
	if !styled {
		plain := lipgloss.NewStyle()
		return renderer{title: plain, name: plain, muted: plain, warn: plain}
	}
	return renderer{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		name:  lipgloss.NewStyle().Bold(true),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

var categoryOrder = []struct {
	category pkgdoc.Category
	heading  string
}{
	{pkgdoc.CategoryComponent, "Components"},
	{pkgdoc.CategoryClass, "Classes"},
	{pkgdoc.CategoryFunction, "Functions"},
	{pkgdoc.CategoryValue, "Values"},
}

func (r renderer) packageList(records []*pkgdoc.PackageRecord) string {
	var b strings.Builder
	b.WriteString(r.title.Render(fmt.Sprintf("Packages (%d)", len(records))))
	b.WriteString("\n")
	for _, rec := range records {
		version := rec.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			r.name.Render(rec.Name),
			r.muted.Render(version),
			r.muted.Render(fmt.Sprintf("%d exports, %d files", len(rec.Declarations), len(rec.Files))))
	}
	return b.String()
}

func (r renderer) packageDetail(rec *pkgdoc.PackageRecord) string {
	grouped := make(map[pkgdoc.Category][]pkgdoc.Declaration)
	for _, d := range rec.Declarations {
		c := pkgdoc.Classify(d.Declaration.Node)
		grouped[c] = append(grouped[c], d)
	}

	var b strings.Builder
	header := rec.Name
	if rec.Version != "" {
		header += "@" + rec.Version
	}
	b.WriteString(r.title.Render(header))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  entry %s\n", r.muted.Render(rec.Entry))

	base := filepath.Dir(rec.Entry)
	for _, group := range categoryOrder {
		decls := grouped[group.category]
		if len(decls) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", r.title.Render(group.heading))
		for _, d := range decls {
			fmt.Fprintf(&b, "  %s %s\n", r.name.Render(d.Name), r.muted.Render(relative(base, d.Source)))
		}
	}
	return b.String()
}

func (r renderer) components(pkg string, components []pkgdoc.Component) string {
	var b strings.Builder
	b.WriteString(r.title.Render(fmt.Sprintf("%s: %d components", pkg, len(components))))
	b.WriteString("\n")
	for _, c := range components {
		fmt.Fprintf(&b, "\n  %s\n", r.name.Render(c.Name))
		if name := typeName(c.PropsType.Node); name != "" {
			fmt.Fprintf(&b, "    props type  %s\n", name)
		}
		if keys := propKeys(c.Props.Node); len(keys) > 0 {
			fmt.Fprintf(&b, "    props       %s\n", strings.Join(keys, ", "))
		}
		if len(c.DefaultProps) > 0 {
			fmt.Fprintf(&b, "    defaults    %s\n", strings.Join(c.DefaultProps, ", "))
		}
		for _, msg := range c.Errors {
			fmt.Fprintf(&b, "    %s\n", r.warn.Render("! "+msg))
		}
	}
	return b.String()
}

func typeName(n ast.Node) string {
	switch t := n.(type) {
	case *ast.GenericTypeAnnotation:
		return t.ID
	case *ast.ObjectTypeAnnotation:
		return "{...}"
	}
	return ""
}

// propKeys lists the property names of an object type; optional ones carry
// a trailing "?".
func propKeys(n ast.Node) []string {
	obj, ok := n.(*ast.ObjectTypeAnnotation)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj.Properties))
	for _, p := range obj.Properties {
		prop, ok := p.Node.(*ast.ObjectTypeProperty)
		if !ok {
			continue
		}
		key := prop.Key
		if prop.Optional {
			key += "?"
		}
		keys = append(keys, key)
	}
	return keys
}

func relative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
