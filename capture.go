// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package htmlimage renders a live HTML element subtree to raster
// images without any operating-system or browser screenshot facility:
// it isolates a snapshot of the subtree, builds a style-resolved
// paint tree, and paints it with one of two interchangeable
// strategies. Arbitrarily tall content can be captured in bounded
// memory with [CaptureSegmented], which sweeps a fixed-height window
// down the subtree and emits one raster per window.
package htmlimage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"cogentcore.org/core/math32"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/dom"
	"cogentcore.org/htmlimage/ptree"
	"cogentcore.org/htmlimage/render"
	"cogentcore.org/htmlimage/render/rasterizer"
	"cogentcore.org/htmlimage/render/svgrender"
	"cogentcore.org/htmlimage/snapshot"
)

// ErrNilElement indicates a nil target element or document.
var ErrNilElement = errors.New("nil element")

// Capture renders the element to a single raster covering its full
// computed geometry (or the crop configured in opts). It runs
// isolation, paint-tree construction, and one paint, then tears down
// the isolation container unless opts.RemoveContainer is off.
func Capture(ctx context.Context, doc *dom.Document, el *html.Node, opts *Options) (*image.RGBA, error) {
	op, err := start(ctx, doc, el, opts)
	if err != nil {
		return nil, err
	}
	defer op.finish()

	cfg := op.config()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("capture of %gx%g at scale %g: %w",
			cfg.Width, cfg.Height, cfg.Scale, err)
	}
	rend := op.newRenderer(cfg.PixelSize(), cfg.Target)
	rend.Clear(color.RGBA{})
	rend.Render(op.tree.RenderList(cfg))
	return rend.Image(), nil
}

// operation carries the shared state of one capture: the resolved
// options, the capture context, the snapshot, and the built paint
// tree.
type operation struct {
	doc  *dom.Document
	opts *Options
	cctx *CaptureContext
	snap *snapshot.Snapshot
	tree *ptree.Tree
}

// start validates preconditions and runs the isolation and paint-tree
// stages shared by all entry operations. Any failure here aborts
// before painting.
func start(ctx context.Context, doc *dom.Document, el *html.Node, opts *Options) (*operation, error) {
	if doc == nil || doc.Root == nil || el == nil {
		return nil, ErrNilElement
	}
	if opts == nil {
		opts = NewOptions()
	}
	cctx := NewCaptureContext(doc, opts)

	iso := &snapshot.Isolator{
		Doc:      doc,
		Viewport: viewport(doc, opts),
		Options: snapshot.Options{
			Ignore:         opts.Ignore,
			IgnoreSelector: opts.IgnoreSelector,
			CopyStyles:     opts.CopyStyles,
			InlineImages:   opts.InlineImages,
			OnClone:        opts.OnClone,
		},
		Cache:  cctx.Cache,
		Logger: cctx.Logger,
	}
	snap, err := iso.Isolate(ctx, el)
	if err != nil {
		return nil, fmt.Errorf("isolation: %w", err)
	}

	builder := &ptree.Builder{
		Styles:     doc.Styles,
		Geometry:   doc.Geometry,
		Images:     cctx.Cache,
		Logger:     cctx.Logger,
		Background: opts.Background,
	}
	tree, err := builder.Build(ctx, snap)
	if err != nil {
		snap.Destroy()
		return nil, fmt.Errorf("paint tree: %w", err)
	}
	return &operation{doc: doc, opts: opts, cctx: cctx, snap: snap, tree: tree}, nil
}

// finish tears down the isolation container, honoring the caller's
// opt-out. Teardown failure is reported through the logger rather
// than an error, since the capture itself may already have succeeded.
func (op *operation) finish() {
	if !op.opts.RemoveContainer {
		return
	}
	op.snap.Destroy()
}

// config resolves the render configuration from the computed paint
// tree geometry and the caller's crop overrides.
func (op *operation) config() *render.Config {
	cfg := &render.Config{
		Background: op.tree.Background,
		Scale:      op.opts.scale(),
	}
	sz := op.tree.Size.Size()
	cfg.X = op.tree.Size.Min.X
	cfg.Y = op.tree.Size.Min.Y
	cfg.Width = sz.X
	cfg.Height = sz.Y
	if op.opts.Width > 0 || op.opts.Height > 0 {
		cfg.X = op.opts.X
		cfg.Y = op.opts.Y
		if op.opts.Width > 0 {
			cfg.Width = op.opts.Width
		}
		if op.opts.Height > 0 {
			cfg.Height = op.opts.Height
		}
	}
	return cfg
}

// newRenderer selects the paint strategy once per operation.
func (op *operation) newRenderer(psz image.Point, target *image.RGBA) render.Renderer {
	size := math32.Vec2(float32(psz.X), float32(psz.Y))
	if op.opts.ForeignObjectRendering {
		return svgrender.New(size, target)
	}
	return rasterizer.New(size, target)
}

// viewport computes the visible scroll window used for isolation from
// the document window and the caller's overrides.
func viewport(doc *dom.Document, opts *Options) dom.ViewportBounds {
	vb := dom.ViewportBounds{}
	if doc.Window != nil {
		vb.Left = doc.Window.ScrollX
		vb.Top = doc.Window.ScrollY
		vb.Width = doc.Window.Width
		vb.Height = doc.Window.Height
	}
	if opts.WindowWidth > 0 {
		vb.Width = opts.WindowWidth
	}
	if opts.WindowHeight > 0 {
		vb.Height = opts.WindowHeight
	}
	if opts.ScrollX != 0 {
		vb.Left = opts.ScrollX
	}
	if opts.ScrollY != 0 {
		vb.Top = opts.ScrollY
	}
	return vb
}
