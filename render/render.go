// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render defines the drawing primitives shared by the paint
// strategies: an ordered display list of render [Item]s produced from
// a paint tree, and the [Renderer] interface that raster and vector
// backends implement. Item coordinates are in device pixels; all
// crop translation and scaling has already been applied when a list
// is built.
package render

import (
	"image"
	"image/color"

	"cogentcore.org/core/math32"
)

// Item is a union interface for render items:
// [Rect], [Image], [Text], [ClipPush], and [ClipPop].
type Item interface {
	IsRenderItem()
}

// Render represents an ordered collection of render [Item]s.
// List order is paint order: items are drawn back to front.
type Render []Item

// Add adds item(s) to render.
func (r *Render) Add(item ...Item) Render {
	*r = append(*r, item...)
	return *r
}

// Reset resets back to an empty Render state.
// It preserves the existing slice memory for re-use.
func (r *Render) Reset() Render {
	*r = (*r)[:0]
	return *r
}

// Rect is an axis-aligned solid fill.
type Rect struct {

	// Bounds is the fill region in device pixels.
	Bounds math32.Box2

	// Fill is the fill color. A zero (fully transparent) fill
	// draws nothing.
	Fill color.RGBA
}

func (r *Rect) IsRenderItem() {}

// Image draws a source image scaled into a destination rectangle.
// A nil Source is a placeholder for a failed resource and draws
// nothing.
type Image struct {

	// Bounds is the destination rectangle in device pixels.
	Bounds math32.Box2

	// Source is the drawable resource.
	Source image.Image
}

func (i *Image) IsRenderItem() {}

// Text is a single text run.
type Text struct {

	// Pos is the baseline origin in device pixels.
	Pos math32.Vector2

	// Color is the fill color of the glyphs.
	Color color.RGBA

	// Text is the run content.
	Text string

	// Size is the font size in device pixels, used by vector
	// backends; the software backend draws with its basic face.
	Size float32
}

func (t *Text) IsRenderItem() {}

// ClipPush pushes a rectangular clip region; drawing until the
// matching [ClipPop] is restricted to the intersection of all pushed
// regions.
type ClipPush struct {

	// Bounds is the clip rectangle in device pixels.
	Bounds math32.Box2
}

func (c *ClipPush) IsRenderItem() {}

// ClipPop pops the most recent [ClipPush].
type ClipPop struct{}

func (c *ClipPop) IsRenderItem() {}
