// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ptree

import (
	"cogentcore.org/core/math32"

	"cogentcore.org/htmlimage/render"
)

// RenderList flattens the tree into a display list for the given
// configuration, applying the crop translation (cfg.X, cfg.Y) and the
// device scale before any drawing, so the emitted raster is a crop of
// the full paint tree. The page background, when not transparent, is
// the first item.
func (t *Tree) RenderList(cfg *render.Config) render.Render {
	var r render.Render
	surface := math32.B2(0, 0, cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)
	if t.Background.A > 0 {
		r.Add(&render.Rect{Bounds: surface, Fill: t.Background})
	}
	if t.Root == nil {
		return r
	}
	dev := func(b math32.Box2) math32.Box2 {
		return math32.B2(
			(b.Min.X-cfg.X)*cfg.Scale,
			(b.Min.Y-cfg.Y)*cfg.Scale,
			(b.Max.X-cfg.X)*cfg.Scale,
			(b.Max.Y-cfg.Y)*cfg.Scale,
		)
	}

	var flatten func(n *Node)
	flatten = func(n *Node) {
		b := dev(n.Bounds)
		visible := b.IntersectsBox(surface)
		if n.Clips {
			r.Add(&render.ClipPush{Bounds: b})
		}
		if visible {
			if n.Background.A > 0 {
				r.Add(&render.Rect{Bounds: b, Fill: n.Background})
			}
			if n.Image != nil {
				r.Add(&render.Image{Bounds: b, Source: n.Image})
			}
			if n.Text != "" {
				r.Add(&render.Text{
					Pos:   math32.Vec2(b.Min.X, b.Min.Y+n.FontSize*cfg.Scale),
					Color: n.Foreground,
					Text:  n.Text,
					Size:  n.FontSize * cfg.Scale,
				})
			}
		}
		for _, k := range n.Children {
			flatten(k)
		}
		if n.Clips {
			r.Add(&render.ClipPop{})
		}
	}
	flatten(t.Root)
	return r
}
