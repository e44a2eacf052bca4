// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dom provides the document model that capture operations run
// against: a parsed [html.Node] tree together with the collaborators
// that resolve styles and geometry for it. The capture pipeline never
// mutates a [Document]; all mutation happens on cloned trees owned by
// a snapshot container.
package dom

import (
	"net/url"

	"cogentcore.org/core/math32"
	"golang.org/x/net/html"
)

// Window is the ambient viewport that a live document is attached to.
// A document without a Window cannot be captured, because isolation
// needs a concrete viewport to materialize the snapshot in.
type Window struct {

	// Width and Height are the inner size of the viewport,
	// in device-independent pixels.
	Width, Height float32

	// ScrollX and ScrollY are the current scroll offsets.
	ScrollX, ScrollY float32
}

// ViewportBounds describes the visible scroll window used to decide
// what a snapshot must materialize. It is computed once per capture
// and not modified afterward.
type ViewportBounds struct {
	Left, Top, Width, Height float32
}

// Bounds returns the viewport as a [math32.Box2].
func (vb ViewportBounds) Bounds() math32.Box2 {
	return math32.B2(vb.Left, vb.Top, vb.Left+vb.Width, vb.Top+vb.Height)
}

// Document wraps a live [html.Node] document tree with the resolver
// collaborators needed to capture it. Root must be a node of type
// [html.DocumentNode].
type Document struct {

	// Root is the document node of the live tree.
	Root *html.Node

	// URL is the document location, used as the origin for
	// cross-origin resource policy decisions. May be nil for
	// synthesized documents, in which case every absolute resource
	// URL is treated as cross-origin.
	URL *url.URL

	// Window is the viewport the document is attached to.
	// A nil Window fails capture preconditions.
	Window *Window

	// Styles resolves computed styles for elements of this document
	// and of snapshots cloned from it.
	Styles StyleSource

	// Geometry resolves box geometry for elements of this document.
	Geometry Geometry
}

// StyleSource resolves the computed style of an element. It is
// implemented by [cogentcore.org/htmlimage/cstyle.Resolver] style
// resolvers; the indirection here avoids a dependency cycle while
// keeping Document self-contained. The returned map has CSS property
// names as keys and resolved value strings as values.
type StyleSource interface {

	// ComputedStyle returns the resolved style properties for the
	// given element node. The result may be shared; callers must
	// not modify it.
	ComputedStyle(n *html.Node) map[string]string
}

// Geometry resolves box geometry for element nodes, in
// device-independent pixels relative to the document origin.
// Implementations are external to this module: a layout engine, a
// measurement sidecar, or a precomputed table ([StaticGeometry]).
type Geometry interface {

	// Bounds returns the border-box bounding box for the element.
	Bounds(n *html.Node) math32.Box2

	// DocumentSize returns the full scrollable extent of the
	// document, which can exceed the viewport in both dimensions.
	DocumentSize() math32.Box2
}

// OwnerDocument returns the document node that n is attached to, or
// nil if n is detached (not reachable from an [html.DocumentNode]).
func OwnerDocument(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.DocumentNode {
			return n
		}
	}
	return nil
}

// RootElement returns the <html> element of the document node, or nil.
func RootElement(doc *html.Node) *html.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "html" {
			return c
		}
	}
	return nil
}

// Body returns the <body> element of the document node, or nil.
func Body(doc *html.Node) *html.Node {
	root := RootElement(doc)
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "body" {
			return c
		}
	}
	return nil
}

// IsRootOrBody reports whether n is the document root element or the
// body element of its owner document. These get special geometry
// treatment: their paint extent is the full scrollable document size,
// not their own box.
func IsRootOrBody(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if n.Data != "html" && n.Data != "body" {
		return false
	}
	doc := OwnerDocument(n)
	if doc == nil {
		return false
	}
	return n == RootElement(doc) || n == Body(doc)
}

// Attr returns the value of the named attribute on n, and whether it
// is present.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute on n, replacing any existing value.
func SetAttr(n *html.Node, name, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}
