// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package svgrender implements the native-delegated paint strategy:
// the display list is serialized into a self-describing vector
// document and the host's own renderer rasterizes it in one step.
// This trades per-primitive control for the host's typography and
// filter fidelity, and silently inherits whatever gaps the host
// renderer has.
package svgrender

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"cogentcore.org/core/base/stack"
	"cogentcore.org/core/colors"
	"cogentcore.org/core/math32"
	"cogentcore.org/core/paint"
	_ "cogentcore.org/core/paint/renderers"
	"cogentcore.org/core/svg"
	"golang.org/x/image/draw"

	"cogentcore.org/htmlimage/render"
)

// Renderer is the vector-embedding painter.
type Renderer struct {
	size   math32.Vector2
	target *image.RGBA

	// SVG is the vector document built from the last Render call.
	SVG *svg.SVG

	// gpStack is a stack of groups used while building the svg.
	gpStack stack.Stack[*svg.Group]
}

// New returns a native-delegated renderer with the given surface size
// in physical pixels. If img is non-nil, rasterization output is
// copied into it so the caller's surface is reused.
func New(size math32.Vector2, img *image.RGBA) render.Renderer {
	rs := &Renderer{}
	rs.SetSize(size, img)
	return rs
}

func (rs *Renderer) Size() math32.Vector2 { return rs.size }

func (rs *Renderer) SetSize(size math32.Vector2, img *image.RGBA) {
	rs.size = size
	if img != nil {
		psz := size.ToPointCeil()
		if img.Rect.Size() != psz {
			*img = *image.NewRGBA(image.Rectangle{Max: psz})
		}
		rs.target = img
	}
}

// Render builds a fresh vector document from the display list. The
// actual rasterization happens lazily in [Renderer.Image].
func (rs *Renderer) Render(r render.Render) {
	rs.SVG = svg.NewSVG(rs.size)
	rs.SVG.Root.ViewBox.Size = rs.size
	rs.gpStack = nil
	bg := svg.NewGroup(rs.SVG.Root)
	rs.gpStack.Push(bg)
	for _, ri := range r {
		switch x := ri.(type) {
		case *render.Rect:
			rs.RenderRect(x)
		case *render.Image:
			rs.RenderImage(x)
		case *render.Text:
			rs.RenderText(x)
		case *render.ClipPush:
			rs.PushClip(x)
		case *render.ClipPop:
			rs.gpStack.Pop()
		}
	}
}

// Image delegates rasterization of the built document to the host svg
// renderer and returns the surface, reusing the caller's target when
// one was provided.
func (rs *Renderer) Image() *image.RGBA {
	if rs.SVG == nil {
		return rs.target
	}
	pc := rs.SVG.Render(nil)
	ir := paint.NewImageRenderer(rs.size)
	ir.Render(pc.RenderDone())
	img := ir.Image().(*image.RGBA)
	if rs.target == nil {
		return img
	}
	draw.Draw(rs.target, rs.target.Rect, img, image.Point{}, draw.Over)
	return rs.target
}

// Source returns the vector document as XML, or nil if nothing has
// been rendered.
func (rs *Renderer) Source() []byte {
	if rs.SVG == nil {
		return nil
	}
	var b bytes.Buffer
	rs.SVG.WriteXML(&b, true)
	return b.Bytes()
}

// Clear drops the built document and resets the target surface, if
// any, to the given color.
func (rs *Renderer) Clear(bg color.RGBA) {
	rs.SVG = nil
	if rs.target == nil {
		return
	}
	if bg.A == 0 {
		clear(rs.target.Pix)
		return
	}
	draw.Draw(rs.target, rs.target.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
}

// Release drops the built vector document tied to the current
// surface.
func (rs *Renderer) Release() {
	rs.SVG = nil
	rs.gpStack = nil
}

func (rs *Renderer) RenderRect(rt *render.Rect) {
	if rt.Fill.A == 0 {
		return
	}
	cg := rs.gpStack.Peek()
	r := svg.NewRect(cg)
	r.Pos = rt.Bounds.Min
	r.Size = rt.Bounds.Size()
	r.SetProperty("fill", colors.AsHex(rt.Fill))
}

func (rs *Renderer) RenderImage(it *render.Image) {
	if it.Source == nil {
		return
	}
	cg := rs.gpStack.Peek()
	sz := it.Bounds.Size()
	simg := svg.NewImage(cg)
	simg.SetImage(it.Source, sz.X, sz.Y)
	simg.Pos = it.Bounds.Min
}

func (rs *Renderer) RenderText(tx *render.Text) {
	if tx.Text == "" || tx.Color.A == 0 {
		return
	}
	cg := rs.gpStack.Peek()
	st := svg.NewText(cg)
	st.Text = tx.Text
	st.Pos = tx.Pos
	st.SetProperty("fill", colors.AsHex(tx.Color))
	if tx.Size > 0 {
		st.SetProperty("font-size", fmt.Sprintf("%gpx", tx.Size))
	}
}

// PushClip opens a group clipped to the given rectangle.
func (rs *Renderer) PushClip(cp *render.ClipPush) {
	cg := rs.gpStack.Peek()
	g := svg.NewGroup(cg)
	b := cp.Bounds
	g.SetProperty("clip-path", fmt.Sprintf("rect(%g %g %g %g)",
		b.Min.Y, b.Max.X, b.Max.Y, b.Min.X))
	rs.gpStack.Push(g)
}
