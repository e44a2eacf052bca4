// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rasterizer implements the software paint strategy: it walks
// the display list in paint order and issues primitive draw operations
// directly on an [image.RGBA] surface, honoring clip regions and
// stacking order exactly as built.
package rasterizer

import (
	"image"
	"image/color"

	"cogentcore.org/core/math32"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"cogentcore.org/htmlimage/render"
)

// Renderer is the software painter. It owns (or borrows) one RGBA
// surface and a scratch coverage rasterizer that is dropped on
// [Renderer.Release].
type Renderer struct {
	size  math32.Vector2
	image *image.RGBA
	ras   *vector.Rasterizer

	// clips is the active clip stack; drawing is restricted to the
	// intersection of all entries and the surface bounds.
	clips []image.Rectangle
}

// New returns a software renderer with the given surface size in
// physical pixels. If img is non-nil it is used as the target surface
// and reused rather than reallocated.
func New(size math32.Vector2, img *image.RGBA) render.Renderer {
	rs := &Renderer{}
	rs.SetSize(size, img)
	return rs
}

func (rs *Renderer) Size() math32.Vector2 { return rs.size }

func (rs *Renderer) Image() *image.RGBA { return rs.image }

// SetSize resizes the surface. A caller-provided image is adopted as
// the target; otherwise the existing allocation is kept when its
// capacity already fits the requested size.
func (rs *Renderer) SetSize(size math32.Vector2, img *image.RGBA) {
	psz := size.ToPointCeil()
	rs.size = size
	if img != nil {
		if img.Rect.Size() != psz {
			*img = *resized(img, psz)
		}
		rs.image = img
		return
	}
	if rs.image != nil && rs.image.Rect.Size() == psz {
		return
	}
	if rs.image != nil && cap(rs.image.Pix) >= 4*psz.X*psz.Y {
		*rs.image = *resized(rs.image, psz)
		return
	}
	rs.image = image.NewRGBA(image.Rectangle{Max: psz})
}

// Release drops the scratch coverage rasterizer tied to the current
// surface. The surface itself stays, so the renderer can be reused
// for the next segment.
func (rs *Renderer) Release() {
	rs.ras = nil
	rs.clips = rs.clips[:0]
}

// Render draws the display list onto the surface.
func (rs *Renderer) Render(r render.Render) {
	for _, ri := range r {
		switch x := ri.(type) {
		case *render.Rect:
			rs.RenderRect(x)
		case *render.Image:
			rs.RenderImage(x)
		case *render.Text:
			rs.RenderText(x)
		case *render.ClipPush:
			rs.clips = append(rs.clips, rs.clip().Intersect(x.Bounds.ToRect()))
		case *render.ClipPop:
			if n := len(rs.clips); n > 0 {
				rs.clips = rs.clips[:n-1]
			}
		}
	}
}

// clip returns the active clip rectangle.
func (rs *Renderer) clip() image.Rectangle {
	if n := len(rs.clips); n > 0 {
		return rs.clips[n-1]
	}
	return rs.image.Rect
}

// RenderRect fills an axis-aligned rectangle, antialiasing fractional
// edges through the coverage rasterizer.
func (rs *Renderer) RenderRect(rt *render.Rect) {
	if rt.Fill.A == 0 {
		return
	}
	clip := rs.clip()
	b := rt.Bounds
	if isIntegral(b) {
		r := b.ToRect().Intersect(clip)
		if !r.Empty() {
			draw.Draw(rs.image, r, image.NewUniform(rt.Fill), image.Point{}, draw.Over)
		}
		return
	}
	outer := b.ToRect().Intersect(clip)
	if outer.Empty() {
		return
	}
	if rs.ras == nil {
		rs.ras = &vector.Rasterizer{}
	}
	rs.ras.Reset(outer.Dx(), outer.Dy())
	ox, oy := float32(outer.Min.X), float32(outer.Min.Y)
	rs.ras.MoveTo(b.Min.X-ox, b.Min.Y-oy)
	rs.ras.LineTo(b.Max.X-ox, b.Min.Y-oy)
	rs.ras.LineTo(b.Max.X-ox, b.Max.Y-oy)
	rs.ras.LineTo(b.Min.X-ox, b.Max.Y-oy)
	rs.ras.ClosePath()
	rs.ras.DrawOp = draw.Over
	rs.ras.Draw(rs.image, outer, image.NewUniform(rt.Fill), image.Point{})
}

// RenderImage scales the source image into its destination rectangle.
// A nil source is the placeholder for a failed resource: nothing is
// drawn and the area keeps whatever is beneath it.
func (rs *Renderer) RenderImage(it *render.Image) {
	if it.Source == nil {
		return
	}
	dst := it.Bounds.ToRect().Intersect(rs.clip())
	if dst.Empty() {
		return
	}
	sub := rs.image.SubImage(dst).(*image.RGBA)
	draw.BiLinear.Scale(sub, it.Bounds.ToRect(), it.Source, it.Source.Bounds(), draw.Over, nil)
}

// RenderText draws one text run with the basic face. Full shaping and
// typeface fidelity are delegated to the vector strategy.
func (rs *Renderer) RenderText(tx *render.Text) {
	if tx.Text == "" || tx.Color.A == 0 {
		return
	}
	clip := rs.clip()
	sub := rs.image.SubImage(clip).(*image.RGBA)
	d := font.Drawer{
		Dst:  sub,
		Src:  image.NewUniform(tx.Color),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(tx.Pos.X), int(tx.Pos.Y)),
	}
	d.DrawString(tx.Text)
}

// Clear resets every pixel of the surface to the given color,
// with the zero color meaning fully transparent.
func (rs *Renderer) Clear(bg color.RGBA) {
	if bg.A == 0 {
		clear(rs.image.Pix)
		return
	}
	draw.Draw(rs.image, rs.image.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
}

// resized returns an RGBA of the given size sharing pix memory with
// img where capacity allows.
func resized(img *image.RGBA, psz image.Point) *image.RGBA {
	n := 4 * psz.X * psz.Y
	if cap(img.Pix) >= n {
		return &image.RGBA{
			Pix:    img.Pix[:n],
			Stride: 4 * psz.X,
			Rect:   image.Rectangle{Max: psz},
		}
	}
	return image.NewRGBA(image.Rectangle{Max: psz})
}

// isIntegral reports whether the box lies exactly on pixel bounds.
func isIntegral(b math32.Box2) bool {
	return b.Min.X == math32.Floor(b.Min.X) && b.Min.Y == math32.Floor(b.Min.Y) &&
		b.Max.X == math32.Floor(b.Max.X) && b.Max.Y == math32.Floor(b.Max.Y)
}
