// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dom

import (
	"cogentcore.org/core/math32"
	"golang.org/x/net/html"
)

// StaticGeometry is a [Geometry] backed by a precomputed table of
// boxes keyed by node. It is the natural form for geometry measured
// out-of-band (for example by a headless measurement pass) and is
// what the test suites use.
type StaticGeometry struct {

	// Boxes maps element nodes to their border boxes.
	Boxes map[*html.Node]math32.Box2

	// DocSize is the full scrollable extent of the document.
	DocSize math32.Box2
}

// NewStaticGeometry returns a new empty [StaticGeometry].
func NewStaticGeometry() *StaticGeometry {
	return &StaticGeometry{Boxes: map[*html.Node]math32.Box2{}}
}

// Set records the box for the given node and returns the geometry for
// chaining.
func (sg *StaticGeometry) Set(n *html.Node, box math32.Box2) *StaticGeometry {
	sg.Boxes[n] = box
	return sg
}

func (sg *StaticGeometry) Bounds(n *html.Node) math32.Box2 {
	return sg.Boxes[n]
}

func (sg *StaticGeometry) DocumentSize() math32.Box2 {
	return sg.DocSize
}

// CloneMapped wraps a [Geometry] so that boxes resolved for live
// nodes can be looked up through their clones. The snapshot isolator
// produces the live-to-clone correspondence; painting then resolves
// geometry for cloned nodes without re-measuring.
type CloneMapped struct {
	Source Geometry

	// Live maps each cloned node back to the live node it copies.
	Live map[*html.Node]*html.Node
}

func (cm *CloneMapped) Bounds(n *html.Node) math32.Box2 {
	if ln, ok := cm.Live[n]; ok {
		return cm.Source.Bounds(ln)
	}
	return cm.Source.Bounds(n)
}

func (cm *CloneMapped) DocumentSize() math32.Box2 {
	return cm.Source.DocumentSize()
}
