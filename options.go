// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htmlimage

import (
	"context"
	"time"

	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/snapshot"
)

// Options configures one capture operation. The zero value is not
// ready to use; call [Options.Defaults] or start from [NewOptions].
type Options struct {

	// AllowTaint permits drawing cross-origin resources that could
	// not be read back from a same-origin raster surface.
	AllowTaint bool

	// UseCORS attaches an Origin header to resource fetches so
	// cooperating servers can grant cross-origin access.
	UseCORS bool

	// Proxy is a relay endpoint for cross-origin resource fetches;
	// empty means direct fetch.
	Proxy string

	// ImageTimeout bounds each individual resource fetch. Expiry
	// fails that resource only, never the whole capture.
	ImageTimeout time.Duration

	// Logging enables debug logging for the operation; errors are
	// always reported through the returned error values.
	Logging bool

	// Background overrides the page background: empty means unset
	// (opaque white), "transparent" means fully transparent, any
	// other value is parsed as a CSS color string. For captures of
	// the document root, the document's own background colors take
	// precedence over this override.
	Background string

	// ForeignObjectRendering selects the native-delegated painter
	// (vector embedding rasterized by the host renderer) instead of
	// the software painter.
	ForeignObjectRendering bool

	// RemoveContainer tears down the isolation container when the
	// capture finishes. Opting out leaves the snapshot alive for
	// inspection; the caller then owns its destruction.
	RemoveContainer bool

	// Scale is the device scale applied to raster dimensions and
	// coordinates. Zero or negative means 1.
	Scale float32

	// X, Y, Width, Height crop the capture to the given region of
	// the paint tree, in device-independent pixels. They apply when
	// Width or Height is positive; otherwise the target element's
	// computed geometry is used.
	X, Y, Width, Height float32

	// WindowWidth, WindowHeight, ScrollX, ScrollY override the
	// ambient viewport used for isolation; zero values take the
	// document window's.
	WindowWidth, WindowHeight float32
	ScrollX, ScrollY          float32

	// OnClone runs against the snapshot after cloning and is
	// awaited before any painting starts. It may mutate the cloned
	// tree.
	OnClone func(ctx context.Context, snap *snapshot.Snapshot) error

	// Ignore excludes matching elements from the capture.
	Ignore func(n *html.Node) bool

	// IgnoreSelector excludes elements matching this CSS selector.
	IgnoreSelector string

	// CopyStyles freezes computed styles into the snapshot's style
	// attributes at isolation time.
	CopyStyles bool

	// InlineImages rewrites image sources in the snapshot to data:
	// URIs, making it self-contained.
	InlineImages bool
}

// NewOptions returns options with defaults applied.
func NewOptions() *Options {
	o := &Options{}
	o.Defaults()
	return o
}

// Defaults sets the default values: 15 second image timeout, logging
// on, container removal on, scale 1.
func (o *Options) Defaults() {
	o.ImageTimeout = 15 * time.Second
	o.Logging = true
	o.RemoveContainer = true
	o.Scale = 1
}

// scale returns the effective device scale.
func (o *Options) scale() float32 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}
