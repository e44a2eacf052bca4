// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"errors"
	"image"
	"image/color"

	"cogentcore.org/core/math32"
)

// MaxSurfaceDim is the maximum raster surface dimension, per side, in
// physical pixels. It matches common host raster limits; requesting
// more is a surface error, the condition the segmented capture
// algorithm exists to avoid.
const MaxSurfaceDim = 16384

// ErrNoSurface indicates a raster surface could not be obtained for
// the requested configuration. It is fatal: no painting can proceed.
var ErrNoSurface = errors.New("cannot obtain raster surface")

// Renderer is the interface for the interchangeable paint strategies.
// A renderer is selected once per capture operation and then driven
// with one display list per surface (or per segment).
type Renderer interface {

	// Size returns the current surface size in physical pixels.
	Size() math32.Vector2

	// SetSize resizes the surface. When img is non-nil it becomes
	// the target surface and is reused rather than reallocated;
	// otherwise the renderer allocates (or keeps) its own.
	SetSize(size math32.Vector2, img *image.RGBA)

	// Render draws the display list onto the surface.
	Render(r Render)

	// Image returns the rendered surface pixels.
	Image() *image.RGBA

	// Clear resets every pixel of the surface to the given color,
	// with the zero color meaning fully transparent.
	Clear(bg color.RGBA)

	// Release drops transient per-surface resources (scratch
	// rasterizer state, built vector documents) while keeping the
	// renderer reusable for the next surface.
	Release()
}

// SourceRenderer is implemented by renderers that can also emit their
// self-describing vector form (the native-delegated strategy).
type SourceRenderer interface {
	Renderer

	// Source returns the vector document the host renderer
	// rasterized, or nil if nothing has been rendered.
	Source() []byte
}

// Config is the fully resolved render configuration: it is complete
// before any painter runs.
type Config struct {

	// Target, if non-nil, is a caller-provided surface to reuse.
	Target *image.RGBA

	// Background is the page background painted under the paint
	// tree. The zero value means transparent: untouched pixels
	// remain fully transparent.
	Background color.RGBA

	// Scale is the uniform device scale multiplier applied to both
	// raster dimensions and the coordinate system.
	Scale float32

	// X and Y are the translation applied before any drawing, so
	// the emitted raster is a crop of the full paint tree.
	X, Y float32

	// Width and Height are the crop size in device-independent
	// pixels; together with Scale they define the raster's pixel
	// dimensions.
	Width, Height float32
}

// PixelSize returns the physical pixel dimensions of the surface.
func (c *Config) PixelSize() image.Point {
	return image.Pt(
		int(math32.Ceil(c.Width*c.Scale)),
		int(math32.Ceil(c.Height*c.Scale)),
	)
}

// Validate checks that the configuration describes an obtainable
// surface, returning [ErrNoSurface] otherwise.
func (c *Config) Validate() error {
	sz := c.PixelSize()
	if sz.X <= 0 || sz.Y <= 0 || sz.X > MaxSurfaceDim || sz.Y > MaxSurfaceDim {
		return ErrNoSurface
	}
	return nil
}
