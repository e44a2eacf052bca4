// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptree

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"cogentcore.org/core/colors"
	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/cstyle"
	"cogentcore.org/htmlimage/dom"
	"cogentcore.org/htmlimage/snapshot"
)

func buildDoc(t *testing.T, src string) *dom.Document {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	sg := dom.NewStaticGeometry()
	sg.DocSize = math32.B2(0, 0, 800, 600)
	return &dom.Document{
		Root:     root,
		Window:   &dom.Window{Width: 800, Height: 600},
		Styles:   cstyle.NewInlineResolver(root),
		Geometry: sg,
	}
}

func isolate(t *testing.T, doc *dom.Document, el *html.Node) *snapshot.Snapshot {
	t.Helper()
	iso := &snapshot.Isolator{
		Doc:      doc,
		Viewport: dom.ViewportBounds{Width: 800, Height: 600},
		Logger:   slog.New(slog.DiscardHandler),
	}
	snap, err := iso.Isolate(context.Background(), el)
	require.NoError(t, err)
	t.Cleanup(func() { snap.Destroy() })
	return snap
}

func find(n *html.Node, idOrTag string) *html.Node {
	if n.Type == html.ElementNode {
		if n.Data == idOrTag {
			return n
		}
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == idOrTag {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if r := find(c, idOrTag); r != nil {
			return r
		}
	}
	return nil
}

func build(t *testing.T, doc *dom.Document, el *html.Node, background string) *Tree {
	t.Helper()
	snap := isolate(t, doc, el)
	b := &Builder{
		Styles:     doc.Styles,
		Geometry:   doc.Geometry,
		Logger:     slog.New(slog.DiscardHandler),
		Background: background,
	}
	tree, err := b.Build(context.Background(), snap)
	require.NoError(t, err)
	return tree
}

func TestPageBackgroundPrecedence(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	// Root element background wins when set.
	doc := buildDoc(t, `<html style="background-color: #00f"><body style="background-color: #f00"></body></html>`)
	tree := build(t, doc, dom.RootElement(doc.Root), "")
	assert.Equal(t, blue, tree.Background)

	// A transparent root defers to the body.
	doc = buildDoc(t, `<html style="background-color: transparent"><body style="background-color: #f00"></body></html>`)
	tree = build(t, doc, dom.RootElement(doc.Root), "")
	assert.Equal(t, red, tree.Background)

	// Neither set: the caller override decides, unset meaning white.
	doc = buildDoc(t, `<html><body></body></html>`)
	tree = build(t, doc, dom.RootElement(doc.Root), "")
	assert.Equal(t, colors.White, tree.Background)

	doc = buildDoc(t, `<html><body></body></html>`)
	tree = build(t, doc, dom.RootElement(doc.Root), "#00f")
	assert.Equal(t, blue, tree.Background)
}

func TestPageBackgroundNonRoot(t *testing.T) {
	// For a non-root capture the override alone decides; element
	// backgrounds never leak into the page background.
	doc := buildDoc(t, `<html><body><div id="a" style="background-color: #f00"></div></body></html>`)
	tree := build(t, doc, find(doc.Root, "a"), "")
	assert.Equal(t, colors.White, tree.Background)

	doc = buildDoc(t, `<html><body><div id="a"></div></body></html>`)
	tree = build(t, doc, find(doc.Root, "a"), "transparent")
	assert.Equal(t, color.RGBA{}, tree.Background)
}

func TestDoublePaintSuppression(t *testing.T) {
	// When the captured element's own background equals the resolved
	// page background, the per-element fill is dropped so the color
	// composites once.
	doc := buildDoc(t, `<html><body style="background-color: #f00"></body></html>`)
	tree := build(t, doc, dom.Body(doc.Root), "")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, tree.Background)
	assert.Equal(t, color.RGBA{}, tree.Root.Background)
}

func TestElementBackgroundKept(t *testing.T) {
	doc := buildDoc(t, `<html><body><div id="a" style="background-color: #f00"></div></body></html>`)
	tree := build(t, doc, find(doc.Root, "a"), "")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, tree.Root.Background)
}

func TestHiddenElementsSkipped(t *testing.T) {
	doc := buildDoc(t, `<html><body>
		<div id="a"></div>
		<div id="b" style="display: none"><span>gone</span></div>
		<div id="c" style="visibility: hidden"></div>
	</body></html>`)
	tree := build(t, doc, dom.Body(doc.Root), "")
	require.Len(t, tree.Root.Children, 1)
	assert.Same(t, find(tree.Root.Element, "a"), tree.Root.Children[0].Element)
}

func TestPaintOrderSorting(t *testing.T) {
	doc := buildDoc(t, `<html><body>
		<div id="pos" style="position: absolute; z-index: 0"></div>
		<div id="high" style="position: absolute; z-index: 5"></div>
		<div id="neg" style="position: absolute; z-index: -1"></div>
		<div id="flow"></div>
		<div id="low" style="position: absolute; z-index: 2"></div>
	</body></html>`)
	tree := build(t, doc, dom.Body(doc.Root), "")
	require.Len(t, tree.Root.Children, 5)

	var order []string
	for _, k := range tree.Root.Children {
		id, _ := dom.Attr(k.Element, "id")
		order = append(order, id)
	}
	// Negative z-index contexts, then in-flow, then positioned
	// (z-index <= 0), then positive z-index ascending.
	assert.Equal(t, []string{"neg", "flow", "pos", "low", "high"}, order)
}

func TestTextInheritance(t *testing.T) {
	doc := buildDoc(t, `<html><body><div id="a" style="color: #f00; font-size: 24px">hello</div></body></html>`)
	tree := build(t, doc, find(doc.Root, "a"), "")
	require.Len(t, tree.Root.Children, 1)
	txt := tree.Root.Children[0]
	assert.Equal(t, "hello", txt.Text)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, txt.Foreground)
	assert.Equal(t, float32(24), txt.FontSize)
}

func TestTextDefaultColor(t *testing.T) {
	doc := buildDoc(t, `<html><body><div id="a">hi</div></body></html>`)
	tree := build(t, doc, find(doc.Root, "a"), "")
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, colors.Black, tree.Root.Children[0].Foreground)
	assert.Equal(t, float32(16), tree.Root.Children[0].FontSize)
}

type fakeImages struct {
	img  image.Image
	err  error
	urls []string
}

func (f *fakeImages) Resolve(ctx context.Context, url string) (image.Image, error) {
	f.urls = append(f.urls, url)
	return f.img, f.err
}

func TestImageResolution(t *testing.T) {
	doc := buildDoc(t, `<html><body><img id="a" src="pic.png"></body></html>`)
	snap := isolate(t, doc, find(doc.Root, "a"))

	src := &fakeImages{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}
	b := &Builder{
		Styles:   doc.Styles,
		Geometry: doc.Geometry,
		Images:   src,
		Logger:   slog.New(slog.DiscardHandler),
	}
	tree, err := b.Build(context.Background(), snap)
	require.NoError(t, err)
	assert.Same(t, src.img, tree.Root.Image)
	assert.Equal(t, []string{"pic.png"}, src.urls)
}

func TestImageFailurePaintsPlaceholder(t *testing.T) {
	doc := buildDoc(t, `<html><body><img id="a" src="missing.png"></body></html>`)
	snap := isolate(t, doc, find(doc.Root, "a"))

	b := &Builder{
		Styles:   doc.Styles,
		Geometry: doc.Geometry,
		Images:   &fakeImages{err: errors.New("fetch failed")},
		Logger:   slog.New(slog.DiscardHandler),
	}
	tree, err := b.Build(context.Background(), snap)
	require.NoError(t, err, "resource failure must not fail the build")
	assert.Nil(t, tree.Root.Image)
}
