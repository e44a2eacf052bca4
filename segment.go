// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htmlimage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"cogentcore.org/core/base/iox/imagex"
	"cogentcore.org/core/math32"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/dom"
	"cogentcore.org/htmlimage/render"
)

// ErrSegmentHeight indicates a non-positive segment height.
var ErrSegmentHeight = errors.New("segment height must be positive")

// SegmentFunc consumes one segment raster. The sweep suspends until
// it returns, so no further paint work starts while the consumer is
// still encoding or uploading the previous raster. The raster is a
// scratch buffer owned by the sweep and is cleared after the call
// returns: callers needing to retain pixel data must copy or encode
// it before returning.
type SegmentFunc func(ctx context.Context, seg *image.RGBA) error

// CaptureSegmented renders the element's full scrollable extent as a
// sequence of bounded-height rasters, sweeping a window of
// segmentHeight device-independent pixels from top to bottom. The
// emitted segments partition [0, totalHeight) exactly, in order, with
// the final segment possibly shorter, and at most one segment's
// pixels are resident at any instant.
//
// A fatal error (including an error from onSegment) stops the sweep
// immediately; the scratch buffer is dropped and the isolation
// container is still torn down.
func CaptureSegmented(ctx context.Context, doc *dom.Document, el *html.Node, opts *Options, segmentHeight float32, onSegment SegmentFunc) error {
	if onSegment == nil {
		return errors.New("nil onSegment callback")
	}
	if segmentHeight <= 0 {
		return ErrSegmentHeight
	}
	op, err := start(ctx, doc, el, opts)
	if err != nil {
		return err
	}
	defer op.finish()

	total := op.tree.Size
	totalWidth := total.Size().X
	totalHeight := total.Size().Y
	scale := op.opts.scale()

	full := &render.Config{
		Background: op.tree.Background,
		Scale:      scale,
		X:          total.Min.X,
		Width:      totalWidth,
		Height:     math32.Min(segmentHeight, totalHeight),
	}
	if err := full.Validate(); err != nil {
		return fmt.Errorf("segment %gx%g at scale %g: %w",
			totalWidth, segmentHeight, scale, err)
	}

	// One scratch raster is reused across the whole sweep; painters
	// resize it in place for the final short segment.
	scratch := image.NewRGBA(image.Rectangle{Max: full.PixelSize()})
	rend := op.newRenderer(full.PixelSize(), scratch)

	for curTop := float32(0); curTop < totalHeight; {
		if err := ctx.Err(); err != nil {
			return err
		}
		height := math32.Min(totalHeight-curTop, segmentHeight)
		cfg := &render.Config{
			Background: op.tree.Background,
			Scale:      scale,
			X:          total.Min.X,
			Y:          total.Min.Y + curTop,
			Width:      totalWidth,
			Height:     height,
		}
		rend.SetSize(math32.Vec2(cfg.Width*scale, cfg.Height*scale), scratch)
		rend.Clear(color.RGBA{})
		rend.Render(op.tree.RenderList(cfg))

		if err := onSegment(ctx, rend.Image()); err != nil {
			return fmt.Errorf("segment at %g: %w", curTop, err)
		}

		// The consumer is done with this window: clear the pixels
		// and drop strategy-internal resources before advancing.
		rend.Clear(color.RGBA{})
		rend.Release()
		curTop += height
	}
	return nil
}

// CaptureSegmentedToBlobs runs a segmented capture and encodes each
// segment in the given format, returning the encoded blobs in
// top-to-bottom order. Encoding happens inside the segment callback,
// so peak pixel memory stays bounded to one segment regardless of
// total content height.
func CaptureSegmentedToBlobs(ctx context.Context, doc *dom.Document, el *html.Node, opts *Options, segmentHeight float32, f imagex.Formats) ([][]byte, error) {
	var blobs [][]byte
	err := CaptureSegmented(ctx, doc, el, opts, segmentHeight,
		func(ctx context.Context, seg *image.RGBA) error {
			var b bytes.Buffer
			if err := imagex.Write(seg, &b, f); err != nil {
				return err
			}
			blobs = append(blobs, b.Bytes())
			return nil
		})
	if err != nil {
		return nil, err
	}
	return blobs, nil
}
