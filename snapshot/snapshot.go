// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package snapshot isolates a live element subtree into a detached,
// exclusively-owned copy hosted in a secondary viewport container, so
// that measurement and painting can never mutate, or be mutated by,
// the original document. No node is ever shared by reference between
// the live tree and a snapshot.
package snapshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"

	"cogentcore.org/core/base/iox/imagex"
	selcss "github.com/ericchiang/css"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/cstyle"
	"cogentcore.org/htmlimage/dom"
	"cogentcore.org/htmlimage/resource"
)

// Attribute markers used to find snapshot nodes inside the live
// document after cloning and after the caller's OnClone hook ran.
const (
	ContainerAttr = "data-htmlimage-container"
	targetAttr    = "data-htmlimage-target"
)

var (
	// ErrDetached indicates the element is not attached to a
	// document.
	ErrDetached = errors.New("element is not attached to a document")

	// ErrNoWindow indicates the document is not attached to a
	// window, so there is no viewport to isolate into.
	ErrNoWindow = errors.New("document is not attached to a window")

	// ErrCloneNotFound indicates the cloned target element could
	// not be relocated inside the isolation container, which
	// signals a host inconsistency (typically an OnClone hook that
	// removed it).
	ErrCloneNotFound = errors.New("cloned element not found in isolated container")

	// ErrDestroyed indicates the isolation container was already
	// torn down.
	ErrDestroyed = errors.New("isolation container already destroyed")
)

// Options are the clone options for one isolation.
type Options struct {

	// Ignore excludes matching elements (and their subtrees) from
	// the clone. The target element itself is never excluded.
	Ignore func(n *html.Node) bool

	// IgnoreSelector excludes elements matching this CSS selector.
	IgnoreSelector string

	// CopyStyles serializes each live element's computed style into
	// the style attribute of its clone, freezing resolved styles at
	// isolation time.
	CopyStyles bool

	// InlineImages rewrites <img> sources in the clone to data:
	// URIs resolved through the capture's resource cache, making
	// the snapshot self-contained.
	InlineImages bool

	// OnClone runs after the clone is built and inserted, and is
	// awaited before the snapshot is considered ready. It may
	// mutate the cloned tree.
	OnClone func(ctx context.Context, snap *Snapshot) error
}

// Isolator produces snapshots of elements of one live document.
type Isolator struct {

	// Doc is the live document.
	Doc *dom.Document

	// Viewport is the visible scroll window the snapshot
	// materializes within.
	Viewport dom.ViewportBounds

	// Options are the clone options.
	Options Options

	// Cache resolves images when Options.InlineImages is set.
	Cache *resource.Cache

	// Logger receives debug and teardown diagnostics.
	Logger *slog.Logger
}

// Snapshot is an owned, detached copy of a target element plus its
// ancestor chain, hosted inside a secondary viewport container that
// is inserted (invisibly) into the live document so real layout can
// apply to it. The container exclusively owns all cloned nodes;
// destroying it frees them.
type Snapshot struct {

	// Container is the secondary viewport element inserted into the
	// live document body.
	Container *html.Node

	// Root is the clone corresponding 1:1 to the target element.
	Root *html.Node

	// Live maps each cloned node back to the live node it copies,
	// so geometry resolved against the live document applies to the
	// clone.
	Live map[*html.Node]*html.Node

	// Geometry resolves boxes for cloned nodes via the live
	// document's geometry.
	Geometry dom.Geometry

	logger    *slog.Logger
	destroyed bool
}

// Isolate clones el and its ancestor chain into a fresh container
// inserted into the live document, runs the OnClone hook to
// completion, and relocates the target clone. The returned snapshot
// is ready for paint-tree construction.
func (iso *Isolator) Isolate(ctx context.Context, el *html.Node) (*Snapshot, error) {
	logger := iso.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	doc := dom.OwnerDocument(el)
	if doc == nil || doc != iso.Doc.Root {
		return nil, ErrDetached
	}
	if iso.Doc.Window == nil {
		return nil, ErrNoWindow
	}

	ignore, err := iso.ignoreFunc()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Live:   map[*html.Node]*html.Node{},
		logger: logger,
	}
	snap.Container = iso.newContainer()

	// Clone the ancestor chain shallowly so inherited layout
	// context is preserved, then the target subtree deeply.
	chain := ancestorChain(el, doc)
	parent := snap.Container
	for _, anc := range chain {
		c := cloneShallow(anc)
		snap.Live[c] = anc
		parent.AppendChild(c)
		parent = c
	}
	target := iso.cloneDeep(ctx, el, ignore, snap)
	dom.SetAttr(target, targetAttr, "1")
	parent.AppendChild(target)

	if iso.Options.CopyStyles {
		iso.copyStyles(snap)
	}

	// The container has to live inside the real document so the
	// host's layout applies to the isolated content.
	body := dom.Body(iso.Doc.Root)
	if body == nil {
		body = dom.RootElement(iso.Doc.Root)
	}
	if body == nil {
		return nil, ErrDetached
	}
	body.AppendChild(snap.Container)

	if iso.Options.OnClone != nil {
		if err := iso.Options.OnClone(ctx, snap); err != nil {
			snap.Destroy()
			return nil, err
		}
	}

	snap.Root = findMarked(snap.Container)
	if snap.Root == nil {
		snap.Destroy()
		return nil, ErrCloneNotFound
	}
	snap.Geometry = &dom.CloneMapped{Source: iso.Doc.Geometry, Live: snap.Live}

	logger.Debug("isolated snapshot",
		"nodes", len(snap.Live),
		"viewport", iso.Viewport)
	return snap, nil
}

// Destroy removes the isolation container from the live document,
// releasing all cloned nodes. It is idempotent: a second call (or a
// call after the container was already externally detached) reports
// failure through the logger and returns false instead of panicking.
func (sn *Snapshot) Destroy() bool {
	if sn.destroyed || sn.Container == nil || sn.Container.Parent == nil {
		sn.destroyed = true
		if sn.logger != nil {
			sn.logger.Error("snapshot teardown failed", "err", ErrDestroyed)
		}
		return false
	}
	sn.Container.Parent.RemoveChild(sn.Container)
	sn.destroyed = true
	return true
}

// Destroyed reports whether the container has been torn down.
func (sn *Snapshot) Destroyed() bool { return sn.destroyed }

// newContainer builds the secondary viewport element: fixed-position,
// invisible, sized to the capture viewport so layout inside it
// matches the original.
func (iso *Isolator) newContainer() *html.Node {
	c := &html.Node{Type: html.ElementNode, Data: "div"}
	dom.SetAttr(c, ContainerAttr, "1")
	style := cstyle.SerializeDeclarations(map[string]string{
		"position":   "fixed",
		"left":       "-10000px",
		"top":        "0px",
		"width":      cstyle.PxString(iso.Viewport.Width),
		"height":     cstyle.PxString(iso.Viewport.Height),
		"visibility": "hidden",
		"overflow":   "hidden",
	})
	dom.SetAttr(c, "style", style)
	return c
}

// ignoreFunc combines the predicate and selector exclusion options
// into one predicate over live nodes.
func (iso *Isolator) ignoreFunc() (func(*html.Node) bool, error) {
	pred := iso.Options.Ignore
	if iso.Options.IgnoreSelector == "" {
		if pred == nil {
			return func(*html.Node) bool { return false }, nil
		}
		return pred, nil
	}
	sel, err := selcss.Parse(iso.Options.IgnoreSelector)
	if err != nil {
		return nil, err
	}
	matched := map[*html.Node]bool{}
	for _, n := range sel.Select(iso.Doc.Root) {
		matched[n] = true
	}
	return func(n *html.Node) bool {
		if matched[n] {
			return true
		}
		return pred != nil && pred(n)
	}, nil
}

// cloneDeep copies the subtree at n, skipping excluded elements and
// inlining image sources when configured. The target element itself
// is always cloned even if the exclusion predicate matches it.
func (iso *Isolator) cloneDeep(ctx context.Context, n *html.Node, ignore func(*html.Node) bool, snap *Snapshot) *html.Node {
	c := cloneShallow(n)
	snap.Live[c] = n
	if iso.Options.InlineImages && n.Type == html.ElementNode && n.Data == "img" {
		iso.inlineImage(ctx, c)
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		if k.Type == html.ElementNode && ignore(k) {
			continue
		}
		c.AppendChild(iso.cloneDeep(ctx, k, ignore, snap))
	}
	return c
}

// copyStyles freezes the live computed style of every cloned element
// into its clone's style attribute.
func (iso *Isolator) copyStyles(snap *Snapshot) {
	if iso.Doc.Styles == nil {
		return
	}
	for c, live := range snap.Live {
		if c.Type != html.ElementNode {
			continue
		}
		cs := iso.Doc.Styles.ComputedStyle(live)
		if len(cs) == 0 {
			continue
		}
		dom.SetAttr(c, "style", cstyle.SerializeDeclarations(cs))
	}
}

// inlineImage rewrites the clone's src to a PNG data: URI resolved
// through the resource cache. Resolution failure leaves the src
// untouched; the painter will substitute a placeholder later.
func (iso *Isolator) inlineImage(ctx context.Context, c *html.Node) {
	if iso.Cache == nil {
		return
	}
	src, ok := dom.Attr(c, "src")
	if !ok || src == "" {
		return
	}
	img, err := iso.Cache.Resolve(ctx, src)
	if err != nil {
		return
	}
	var b bytes.Buffer
	if err := imagex.Write(img, &b, imagex.PNG); err != nil {
		return
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(b.Bytes())
	dom.SetAttr(c, "src", uri)
}

// ancestorChain returns the element ancestors of el from the document
// root element down to, excluding, el itself.
func ancestorChain(el, doc *html.Node) []*html.Node {
	var chain []*html.Node
	for p := el.Parent; p != nil && p != doc; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, p)
		}
	}
	// reverse: built bottom-up, needed top-down
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// cloneShallow copies one node without children.
func cloneShallow(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	c.Attr = make([]html.Attribute, len(n.Attr))
	copy(c.Attr, n.Attr)
	return c
}

// findMarked locates the target clone by its marker attribute.
func findMarked(root *html.Node) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			if _, ok := dom.Attr(n, targetAttr); ok {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
