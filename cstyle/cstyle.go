// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cstyle provides the computed-style model consumed by the
// paint-tree builder: a resolved property map per element, with typed
// accessors for the properties that painting cares about. The full
// CSS cascade is external to this module; [InlineResolver] covers the
// inline styles and stylesheets of self-contained documents.
package cstyle

import (
	"image/color"
	"strconv"
	"strings"

	"cogentcore.org/core/colors"
	"golang.org/x/net/html"
)

// Style is the resolved style of one element: CSS property names to
// resolved value strings. A nil Style is valid and resolves nothing.
type Style map[string]string

// Resolver resolves the computed style of an element node. One
// resolver serves both the live document and snapshots cloned from
// it, since clones carry the live styles forward.
type Resolver interface {

	// ComputedStyle returns the resolved style properties for the
	// given element node. The result may be shared; callers must
	// not modify it.
	ComputedStyle(n *html.Node) map[string]string
}

// Get returns the raw value for the given property, and whether it is
// present and non-empty.
func (s Style) Get(prop string) (string, bool) {
	v, ok := s[prop]
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Color returns the property parsed as a CSS color. The second return
// value is false if the property is missing, unparseable, or an
// explicit transparent value.
func (s Style) Color(prop string) (color.RGBA, bool) {
	v, ok := s.Get(prop)
	if !ok {
		return color.RGBA{}, false
	}
	if IsTransparent(v) {
		return color.RGBA{}, false
	}
	c, err := colors.FromString(v)
	if err != nil {
		return color.RGBA{}, false
	}
	if c.A == 0 {
		return color.RGBA{}, false
	}
	return c, true
}

// Px returns the property parsed as a pixel length ("12px" or a bare
// number). Returns 0, false when missing or unparseable.
func (s Style) Px(prop string) (float32, bool) {
	v, ok := s.Get(prop)
	if !ok {
		return 0, false
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

// Int returns the property parsed as an integer (e.g. z-index).
func (s Style) Int(prop string) (int, bool) {
	v, ok := s.Get(prop)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float returns the property parsed as a float (e.g. opacity).
func (s Style) Float(prop string) (float32, bool) {
	v, ok := s.Get(prop)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

// ZIndex returns the resolved z-index, and whether it is an explicit
// integer value (auto and missing both return 0, false).
func (s Style) ZIndex() (int, bool) {
	return s.Int("z-index")
}

// Positioned reports whether the element is positioned (its position
// property is anything other than static).
func (s Style) Positioned() bool {
	v, ok := s.Get("position")
	return ok && v != "static"
}

// StackingContext reports whether the element establishes a stacking
// context under the approximated rules used for paint ordering:
// positioned with an explicit z-index, or opacity below one.
func (s Style) StackingContext() bool {
	if _, ok := s.ZIndex(); ok && s.Positioned() {
		return true
	}
	if op, ok := s.Float("opacity"); ok && op < 1 {
		return true
	}
	return false
}

// ClipsContent reports whether the element clips its descendants
// (overflow hidden, clip, or scroll).
func (s Style) ClipsContent() bool {
	v, ok := s.Get("overflow")
	if !ok {
		return false
	}
	switch v {
	case "hidden", "clip", "scroll":
		return true
	}
	return false
}

// Hidden reports whether the element is not rendered at all
// (display none or visibility hidden).
func (s Style) Hidden() bool {
	if v, ok := s.Get("display"); ok && v == "none" {
		return true
	}
	if v, ok := s.Get("visibility"); ok && v == "hidden" {
		return true
	}
	return false
}

// PxString formats a device-independent pixel length as a CSS value.
func PxString(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32) + "px"
}

// IsTransparent reports whether the given CSS color value string is
// an explicit fully-transparent value.
func IsTransparent(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "transparent" || v == "none" || v == "rgba(0,0,0,0)" || v == "rgba(0, 0, 0, 0)"
}
