// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptree

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"strings"

	"cogentcore.org/core/colors"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/cstyle"
	"cogentcore.org/htmlimage/dom"
	"cogentcore.org/htmlimage/snapshot"
)

// ImageSource resolves image resource URLs to drawables; it is
// implemented by the capture's resource cache.
type ImageSource interface {
	Resolve(ctx context.Context, url string) (image.Image, error)
}

// Builder constructs a paint [Tree] from a snapshot. Resource images
// are resolved during the build so the finished tree is immutable;
// a resource failure leaves a nil (placeholder) image and never fails
// the build.
type Builder struct {

	// Styles resolves computed styles for snapshot elements, via
	// their live counterparts.
	Styles dom.StyleSource

	// Geometry resolves boxes for snapshot elements.
	Geometry dom.Geometry

	// Images resolves replaced-element resources. May be nil, in
	// which case replaced elements paint as placeholders.
	Images ImageSource

	// Logger receives per-resource failure diagnostics.
	Logger *slog.Logger

	// Background is the caller's background override: empty means
	// unset (opaque white), "transparent" means transparent, any
	// other value is parsed as a CSS color.
	Background string
}

// Build constructs the paint tree for the snapshot's target element.
func (b *Builder) Build(ctx context.Context, snap *snapshot.Snapshot) (*Tree, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	live := snap.Live[snap.Root]
	isRoot := dom.IsRootOrBody(live)

	t := &Tree{}
	t.Background = b.pageBackground(snap, isRoot)
	if isRoot {
		t.Size = b.Geometry.DocumentSize()
	} else {
		t.Size = snap.Geometry.Bounds(snap.Root)
	}

	root := b.node(ctx, snap, snap.Root, color.RGBA{}, logger)
	if root == nil {
		root = &Node{Element: snap.Root, Bounds: t.Size}
	}
	// Suppress double-painting: when the element's own computed
	// background is exactly the resolved page background, painting
	// it again per-element would composite it twice.
	if root.Background == t.Background {
		root.Background = color.RGBA{}
	}
	if isRoot {
		root.Bounds = t.Size
	}
	t.Root = root
	return t, nil
}

// pageBackground resolves the effective page background by fixed
// precedence. For the document root, the root element's own
// background wins unless transparent, then the body's, then the
// caller override. For any other element the override alone decides.
func (b *Builder) pageBackground(snap *snapshot.Snapshot, isRoot bool) color.RGBA {
	if !isRoot {
		return b.override()
	}
	doc := dom.OwnerDocument(snap.Live[snap.Root])
	if doc != nil {
		if c, ok := b.styleOf(snap, nil, dom.RootElement(doc)).Color("background-color"); ok {
			return c
		}
		if c, ok := b.styleOf(snap, nil, dom.Body(doc)).Color("background-color"); ok {
			return c
		}
	}
	return b.override()
}

// override resolves the caller's background override: unset means
// opaque white, "transparent" means transparent, anything else is
// parsed; an unparseable value falls back to white.
func (b *Builder) override() color.RGBA {
	v := strings.TrimSpace(b.Background)
	if v == "" {
		return colors.White
	}
	if cstyle.IsTransparent(v) {
		return color.RGBA{}
	}
	c, err := colors.FromString(v)
	if err != nil {
		return colors.White
	}
	return c
}

// styleOf resolves the computed style for a snapshot node through its
// live counterpart when one exists. Either clone or live may be nil.
func (b *Builder) styleOf(snap *snapshot.Snapshot, clone, live *html.Node) cstyle.Style {
	if b.Styles == nil {
		return nil
	}
	if live == nil && clone != nil {
		live = snap.Live[clone]
		if live == nil {
			live = clone
		}
	}
	if live == nil {
		return nil
	}
	return cstyle.Style(b.Styles.ComputedStyle(live))
}

// node builds a paint node for one snapshot element, or nil when the
// element is not rendered.
func (b *Builder) node(ctx context.Context, snap *snapshot.Snapshot, el *html.Node, inherited color.RGBA, logger *slog.Logger) *Node {
	if el.Type != html.ElementNode {
		return nil
	}
	st := b.styleOf(snap, el, nil)
	if st.Hidden() {
		return nil
	}

	n := &Node{Element: el}
	live := snap.Live[el]
	if dom.IsRootOrBody(live) {
		n.Bounds = b.Geometry.DocumentSize()
	} else {
		n.Bounds = snap.Geometry.Bounds(el)
	}
	n.Background, _ = st.Color("background-color")
	if fg, ok := st.Color("color"); ok {
		n.Foreground = fg
	} else if inherited.A > 0 {
		n.Foreground = inherited
	} else {
		n.Foreground = colors.Black
	}
	n.Positioned = st.Positioned()
	n.ZIndex, _ = st.ZIndex()
	n.StackingContext = st.StackingContext()
	n.Clips = st.ClipsContent()
	n.FontSize = 16
	if fs, ok := st.Px("font-size"); ok {
		n.FontSize = fs
	}
	if el.Data == "img" {
		n.Image = b.resolveImage(ctx, el, logger)
	}

	for c := el.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if k := b.node(ctx, snap, c, n.Foreground, logger); k != nil {
				n.Children = append(n.Children, k)
			}
		case html.TextNode:
			if txt := strings.TrimSpace(c.Data); txt != "" {
				n.Children = append(n.Children, &Node{
					Element:    c,
					Bounds:     n.Bounds,
					Foreground: n.Foreground,
					Text:       txt,
					FontSize:   n.FontSize,
				})
			}
		}
	}
	sortPaintOrder(n.Children)
	return n
}

// resolveImage resolves a replaced element's source through the
// capture's resource cache. Failure substitutes a nil placeholder and
// continues; it never aborts the capture.
func (b *Builder) resolveImage(ctx context.Context, el *html.Node, logger *slog.Logger) image.Image {
	if b.Images == nil {
		return nil
	}
	src, ok := dom.Attr(el, "src")
	if !ok || src == "" {
		return nil
	}
	img, err := b.Images.Resolve(ctx, src)
	if err != nil {
		logger.Debug("image resource unavailable, painting placeholder", "src", src, "err", err)
		return nil
	}
	return img
}

// sortPaintOrder stably reorders siblings into back-to-front
// compositing order within their stacking context: negative z-index
// stacking contexts, then in-flow content, then positioned content,
// then positive z-index, preserving document order within each class.
func sortPaintOrder(kids []*Node) {
	sort.SliceStable(kids, func(i, j int) bool {
		ci, cj := paintClass(kids[i]), paintClass(kids[j])
		if ci != cj {
			return ci < cj
		}
		if ci == 0 || ci == 3 {
			return kids[i].ZIndex < kids[j].ZIndex
		}
		return false
	})
}

// paintClass partitions siblings per the back-to-front rules.
func paintClass(n *Node) int {
	switch {
	case n.StackingContext && n.ZIndex < 0:
		return 0
	case !n.Positioned:
		return 1
	case n.ZIndex <= 0:
		return 2
	default:
		return 3
	}
}
