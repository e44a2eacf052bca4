// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage/cstyle"
	"cogentcore.org/htmlimage/dom"
)

func testDoc(t *testing.T, src string) *dom.Document {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	sg := dom.NewStaticGeometry()
	sg.DocSize = math32.B2(0, 0, 800, 600)
	return &dom.Document{
		Root:     root,
		Window:   &dom.Window{Width: 800, Height: 600},
		Styles:   cstyle.NewInlineResolver(root),
		Geometry: sg,
	}
}

func testIsolator(doc *dom.Document) *Isolator {
	return &Isolator{
		Doc:      doc,
		Viewport: dom.ViewportBounds{Width: 800, Height: 600},
		Logger:   slog.New(slog.DiscardHandler),
	}
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if r := byID(c, id); r != nil {
			return r
		}
	}
	return nil
}

func countTag(n *html.Node, tag string) int {
	c := 0
	if n.Type == html.ElementNode && n.Data == tag {
		c++
	}
	for k := n.FirstChild; k != nil; k = k.NextSibling {
		c += countTag(k, tag)
	}
	return c
}

func TestIsolateBasics(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="outer"><p id="target"><span>hi</span></p></div></body></html>`)
	el := byID(doc.Root, "target")
	iso := testIsolator(doc)

	snap, err := iso.Isolate(context.Background(), el)
	require.NoError(t, err)
	defer snap.Destroy()

	// The root clone corresponds 1:1 to the target.
	require.NotNil(t, snap.Root)
	assert.NotSame(t, el, snap.Root)
	assert.Same(t, el, snap.Live[snap.Root])
	assert.Equal(t, "p", snap.Root.Data)

	// The deep clone brought the target's subtree along.
	assert.Equal(t, 1, countTag(snap.Root, "span"))

	// The container is parented into the live body, invisibly.
	require.NotNil(t, snap.Container.Parent)
	assert.Same(t, dom.Body(doc.Root), snap.Container.Parent)
	style, _ := dom.Attr(snap.Container, "style")
	assert.Contains(t, style, "visibility: hidden")
	assert.Contains(t, style, "position: fixed")
	assert.Contains(t, style, "width: 800px")
}

func TestIsolateNoNodeSharing(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"><b></b><i></i></div></body></html>`)
	el := byID(doc.Root, "a")
	snap, err := testIsolator(doc).Isolate(context.Background(), el)
	require.NoError(t, err)
	defer snap.Destroy()

	// Every clone is a distinct node; no live node appears in the
	// container tree.
	live := map[*html.Node]bool{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		live[n] = true
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)
	walk = func(n *html.Node) {
		if n != snap.Container {
			assert.False(t, live[n], "clone tree must not share nodes with the live tree")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(snap.Container)
}

func TestIsolateDetached(t *testing.T) {
	doc := testDoc(t, `<html><body></body></html>`)
	other := testDoc(t, `<html><body><div id="x"></div></body></html>`)
	_, err := testIsolator(doc).Isolate(context.Background(), byID(other.Root, "x"))
	assert.ErrorIs(t, err, ErrDetached)

	orphan := &html.Node{Type: html.ElementNode, Data: "div"}
	_, err = testIsolator(doc).Isolate(context.Background(), orphan)
	assert.ErrorIs(t, err, ErrDetached)
}

func TestIsolateNoWindow(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"></div></body></html>`)
	doc.Window = nil
	_, err := testIsolator(doc).Isolate(context.Background(), byID(doc.Root, "a"))
	assert.ErrorIs(t, err, ErrNoWindow)
}

func TestIgnorePredicate(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"><span id="keep"></span><span id="drop"></span></div></body></html>`)
	iso := testIsolator(doc)
	iso.Options.Ignore = func(n *html.Node) bool {
		id, _ := dom.Attr(n, "id")
		return id == "drop"
	}
	snap, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)
	defer snap.Destroy()

	assert.NotNil(t, byID(snap.Root, "keep"))
	assert.Nil(t, byID(snap.Root, "drop"))
}

func TestIgnoreSelector(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"><span class="ad"></span><span class="ok"></span></div></body></html>`)
	iso := testIsolator(doc)
	iso.Options.IgnoreSelector = ".ad"
	snap, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)
	defer snap.Destroy()

	assert.Equal(t, 1, countTag(snap.Root, "span"))
}

func TestIgnoreNeverExcludesTarget(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"></div></body></html>`)
	iso := testIsolator(doc)
	iso.Options.Ignore = func(n *html.Node) bool { return true }
	snap, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)
	defer snap.Destroy()
	assert.NotNil(t, snap.Root)
}

func TestCopyStyles(t *testing.T) {
	doc := testDoc(t, `<html><head><style>#a { color: red; }</style></head><body><div id="a"></div></body></html>`)
	iso := testIsolator(doc)
	iso.Options.CopyStyles = true
	snap, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)
	defer snap.Destroy()

	style, ok := dom.Attr(snap.Root, "style")
	require.True(t, ok, "computed style must be frozen onto the clone")
	assert.Contains(t, style, "color: red")
}

func TestOnCloneMutation(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a">before</div></body></html>`)
	iso := testIsolator(doc)
	iso.Options.OnClone = func(ctx context.Context, snap *Snapshot) error {
		// Mutating the clone must not touch the live document.
		c := findMarked(snap.Container)
		c.FirstChild.Data = "after"
		return nil
	}
	snap, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)
	defer snap.Destroy()

	assert.Equal(t, "after", snap.Root.FirstChild.Data)
	assert.Equal(t, "before", byID(doc.Root, "a").FirstChild.Data)
}

func TestOnCloneErrorDestroys(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"></div></body></html>`)
	iso := testIsolator(doc)
	boom := errors.New("hook failed")
	iso.Options.OnClone = func(ctx context.Context, snap *Snapshot) error { return boom }
	_, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	assert.ErrorIs(t, err, boom)

	// The container must not linger in the live body.
	body := dom.Body(doc.Root)
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if _, ok := dom.Attr(c, ContainerAttr); ok {
			t.Fatal("container left behind after hook failure")
		}
	}
}

func TestOnCloneRemovingTarget(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"></div></body></html>`)
	iso := testIsolator(doc)
	iso.Options.OnClone = func(ctx context.Context, snap *Snapshot) error {
		c := findMarked(snap.Container)
		c.Parent.RemoveChild(c)
		return nil
	}
	_, err := iso.Isolate(context.Background(), byID(doc.Root, "a"))
	assert.ErrorIs(t, err, ErrCloneNotFound)
}

func TestDestroyIdempotent(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"></div></body></html>`)
	snap, err := testIsolator(doc).Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)

	assert.False(t, snap.Destroyed())
	assert.True(t, snap.Destroy())
	assert.True(t, snap.Destroyed())
	assert.False(t, snap.Destroy(), "second teardown must report failure, not panic")
	assert.Nil(t, snap.Container.Parent)
}

func TestDestroyAfterExternalDetach(t *testing.T) {
	doc := testDoc(t, `<html><body><div id="a"></div></body></html>`)
	snap, err := testIsolator(doc).Isolate(context.Background(), byID(doc.Root, "a"))
	require.NoError(t, err)

	snap.Container.Parent.RemoveChild(snap.Container)
	assert.False(t, snap.Destroy())
	assert.True(t, snap.Destroyed())
}

func TestAncestorChainPreserved(t *testing.T) {
	doc := testDoc(t, `<html><body><section id="s"><article id="ar"><p id="t"></p></article></section></body></html>`)
	snap, err := testIsolator(doc).Isolate(context.Background(), byID(doc.Root, "t"))
	require.NoError(t, err)
	defer snap.Destroy()

	// Container > html > body > section > article > p clone chain.
	var tags []string
	for n := snap.Container.FirstChild; n != nil; n = n.FirstChild {
		if n.Type == html.ElementNode {
			tags = append(tags, n.Data)
		}
	}
	assert.Equal(t, []string{"html", "body", "section", "article", "p"}, tags)

	// Siblings of the ancestors are not cloned.
	assert.Equal(t, 1, countTag(snap.Container, "p"))
}
