// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cstyle

import (
	"slices"
	"strings"

	"cogentcore.org/core/base/errors"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	selcss "github.com/ericchiang/css"
	"golang.org/x/net/html"
)

// InlineResolver is a [Resolver] for self-contained documents: it
// compiles the document's <style> elements into per-node rule lists
// and overlays each element's style attribute on top. It does not
// implement inheritance, specificity, or external stylesheets; those
// belong to a full cascade engine supplied by the caller.
type InlineResolver struct {

	// rules are the compiled stylesheet rules for each node,
	// in document order, with the style attribute rule last.
	rules map[*html.Node][]*css.Rule

	// resolved caches the flattened property map per node.
	resolved map[*html.Node]Style
}

// NewInlineResolver compiles the <style> elements and style
// attributes of the document rooted at the given node (usually an
// [html.DocumentNode]) and returns a resolver over them.
func NewInlineResolver(root *html.Node) *InlineResolver {
	ir := &InlineResolver{
		rules:    map[*html.Node][]*css.Rule{},
		resolved: map[*html.Node]Style{},
	}
	ir.compile(root)
	return ir
}

// ComputedStyle returns the flattened style map for the given node.
// Style attribute declarations win over stylesheet rules. The result
// is cached and shared; callers must not modify it.
func (ir *InlineResolver) ComputedStyle(n *html.Node) map[string]string {
	if s, ok := ir.resolved[n]; ok {
		return s
	}
	s := Style{}
	for _, rule := range ir.rules[n] {
		for _, decl := range rule.Declarations {
			s[decl.Property] = decl.Value
		}
	}
	ir.applyAttr(n, s)
	ir.resolved[n] = s
	return s
}

// compile walks the tree, registering stylesheet rules from <style>
// elements against the nodes their selectors match.
func (ir *InlineResolver) compile(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "style" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				ir.addSheet(root, n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// addSheet parses one stylesheet and applies its rules to every
// matching node under root.
func (ir *InlineResolver) addSheet(root *html.Node, style string) {
	ss, err := parser.Parse(style)
	if errors.Log(err) != nil {
		return
	}
	for _, rule := range ss.Rules {
		var sel *selcss.Selector
		if len(rule.Selectors) > 0 {
			s, err := selcss.Parse(strings.Join(rule.Selectors, ","))
			if errors.Log(err) != nil {
				s = &selcss.Selector{}
			}
			sel = s
		} else {
			sel = &selcss.Selector{}
		}
		for _, match := range sel.Select(root) {
			ir.rules[match] = append(ir.rules[match], rule)
		}
	}
}

// applyAttr overlays the node's style attribute onto s.
func (ir *InlineResolver) applyAttr(n *html.Node, s Style) {
	if n.Type != html.ElementNode {
		return
	}
	for _, attr := range n.Attr {
		if attr.Key != "style" {
			continue
		}
		for prop, val := range ParseDeclarations(attr.Val) {
			s[prop] = val
		}
	}
}

// ParseDeclarations parses an inline style attribute value into a
// property map. Unparseable input yields an empty map.
func ParseDeclarations(style string) map[string]string {
	// our CSS parser is strict about semicolons, but
	// they aren't needed in normal inline styles in HTML
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if errors.Log(err) != nil {
		return map[string]string{}
	}
	m := make(map[string]string, len(decls))
	for _, decl := range decls {
		m[decl.Property] = decl.Value
	}
	return m
}

// SerializeDeclarations renders a property map back into an inline
// style attribute value, with properties in sorted order so output
// is deterministic. It is the inverse of [ParseDeclarations] and is
// used by the snapshot isolator's style-copy mode.
func SerializeDeclarations(s map[string]string) string {
	if len(s) == 0 {
		return ""
	}
	props := make([]string, 0, len(s))
	for p := range s {
		props = append(props, p)
	}
	slices.Sort(props)
	var b strings.Builder
	for _, p := range props {
		b.WriteString(p)
		b.WriteString(": ")
		b.WriteString(s[p])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}
