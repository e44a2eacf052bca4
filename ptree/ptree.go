// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptree builds the paint tree: an ordered tree mirroring
// visual stacking and paint order (not raw document order), with each
// node carrying resolved geometry, colors, and drawing content. A
// tree is built once per capture and is immutable afterward.
package ptree

import (
	"image"
	"image/color"

	"cogentcore.org/core/math32"
	"golang.org/x/net/html"
)

// Node is one node of the paint tree. The zero value of the color
// fields is the explicit transparent sentinel: a transparent
// background paints nothing.
type Node struct {

	// Element is the snapshot element this node paints, nil for
	// synthesized nodes.
	Element *html.Node

	// Bounds is the border box in device-independent pixels. For
	// the document root and body it is the full scrollable document
	// extent, since the root's own box does not bound its
	// descendants' visible area.
	Bounds math32.Box2

	// Background is the resolved background color.
	Background color.RGBA

	// Foreground is the resolved text color.
	Foreground color.RGBA

	// Image is the resolved drawable for replaced elements, nil
	// when there is none or resolution failed (placeholder).
	Image image.Image

	// Text is the text run content for text nodes.
	Text string

	// FontSize is the resolved font size in device-independent
	// pixels for text nodes.
	FontSize float32

	// ZIndex is the resolved z-index; valid when Positioned.
	ZIndex int

	// Positioned reports a non-static position property.
	Positioned bool

	// StackingContext reports that this node composites its
	// children as one unit relative to its siblings.
	StackingContext bool

	// Clips reports that descendants are clipped to Bounds.
	Clips bool

	// Children are the child nodes, already ordered back-to-front
	// per stacking rules: negative z-index, then in-flow content,
	// then positioned and positive z-index content.
	Children []*Node
}

// Tree is a built paint tree together with the page-level paint
// state resolved for it.
type Tree struct {

	// Root is the root paint node.
	Root *Node

	// Background is the effective page background painted beneath
	// the tree; the zero value means transparent.
	Background color.RGBA

	// Size is the full paintable extent of the tree in
	// device-independent pixels.
	Size math32.Box2
}

// walk calls f on n and its descendants in paint order, skipping a
// subtree when f returns false for its root.
func (n *Node) walk(f func(k *Node) bool) {
	if !f(n) {
		return
	}
	for _, k := range n.Children {
		k.walk(f)
	}
}
