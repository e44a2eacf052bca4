// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command htmlimage captures an element of an HTML file to raster
// image files. Geometry comes from a JSON sidecar of measured boxes,
// since layout measurement is external to the capture pipeline.
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"cogentcore.org/core/base/iox/imagex"
	"cogentcore.org/core/base/iox/jsonx"
	"cogentcore.org/core/cli"
	"cogentcore.org/core/math32"
	selcss "github.com/ericchiang/css"
	"golang.org/x/net/html"

	"cogentcore.org/htmlimage"
	"cogentcore.org/htmlimage/cstyle"
	"cogentcore.org/htmlimage/dom"
)

// Config is the command configuration.
type Config struct {

	// the HTML file to capture
	Input string `posarg:"0" required:"+" desc:"the HTML file to capture"`

	// the geometry sidecar: JSON mapping CSS selectors to [left, top, width, height] boxes, with a "document" entry for the full scrollable extent
	Geometry string `desc:"the geometry sidecar: JSON mapping CSS selectors to [left, top, width, height] boxes, with a 'document' entry for the full scrollable extent"`

	// the output image file; segmented captures number the files
	Output string `def:"capture.png" desc:"the output image file; segmented captures number the files"`

	// the CSS selector of the element to capture
	Selector string `def:"body" desc:"the CSS selector of the element to capture"`

	// the background override (empty: white; 'transparent'; or a CSS color)
	Background string `desc:"the background override (empty: white; 'transparent'; or a CSS color)"`

	// the device scale factor
	Scale float32 `def:"1" desc:"the device scale factor"`

	// the segment height; if positive, capture segmented, one file per segment
	SegmentHeight float32 `desc:"the segment height; if positive, capture segmented, one file per segment"`

	// use the native-delegated vector painter instead of the software painter
	Foreign bool `desc:"use the native-delegated vector painter instead of the software painter"`

	// the viewport width
	WindowWidth float32 `def:"1280" desc:"the viewport width"`

	// the viewport height
	WindowHeight float32 `def:"800" desc:"the viewport height"`
}

func main() {
	opts := cli.DefaultOptions("htmlimage", "Capture elements of HTML files to raster images, without a browser.")
	opts.DefaultFiles = []string{"htmlimage.toml"}
	cli.Run(opts, &Config{}, Render)
}

// Render captures the configured element to image file(s).
func Render(c *Config) error {
	f, err := os.Open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()
	root, err := html.Parse(f)
	if err != nil {
		return err
	}

	geom, err := loadGeometry(c, root)
	if err != nil {
		return err
	}
	doc := &dom.Document{
		Root:     root,
		Window:   &dom.Window{Width: c.WindowWidth, Height: c.WindowHeight},
		Styles:   cstyle.NewInlineResolver(root),
		Geometry: geom,
	}
	el, err := selectOne(root, c.Selector)
	if err != nil {
		return err
	}

	opts := htmlimage.NewOptions()
	opts.Background = c.Background
	opts.Scale = c.Scale
	opts.ForeignObjectRendering = c.Foreign

	ctx := context.Background()
	if c.SegmentHeight > 0 {
		i := 0
		return htmlimage.CaptureSegmented(ctx, doc, el, opts, c.SegmentHeight,
			func(ctx context.Context, seg *image.RGBA) error {
				name := segmentName(c.Output, i)
				i++
				return imagex.Save(seg, name)
			})
	}
	img, err := htmlimage.Capture(ctx, doc, el, opts)
	if err != nil {
		return err
	}
	return imagex.Save(img, c.Output)
}

// loadGeometry reads the sidecar box table and compiles its selectors
// against the parsed document.
func loadGeometry(c *Config, root *html.Node) (*dom.StaticGeometry, error) {
	sg := dom.NewStaticGeometry()
	if c.Geometry == "" {
		sg.DocSize = math32.B2(0, 0, c.WindowWidth, c.WindowHeight)
		return sg, nil
	}
	boxes := map[string][4]float32{}
	if err := jsonx.Open(&boxes, c.Geometry); err != nil {
		return nil, err
	}
	for sel, b := range boxes {
		box := math32.B2(b[0], b[1], b[0]+b[2], b[1]+b[3])
		if sel == "document" {
			sg.DocSize = box
			continue
		}
		s, err := selcss.Parse(sel)
		if err != nil {
			return nil, fmt.Errorf("geometry selector %q: %w", sel, err)
		}
		for _, n := range s.Select(root) {
			sg.Set(n, box)
		}
	}
	if sg.DocSize == (math32.Box2{}) {
		sg.DocSize = math32.B2(0, 0, c.WindowWidth, c.WindowHeight)
	}
	return sg, nil
}

// selectOne resolves the target element selector to exactly one node.
func selectOne(root *html.Node, selector string) (*html.Node, error) {
	s, err := selcss.Parse(selector)
	if err != nil {
		return nil, err
	}
	matches := s.Select(root)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return matches[0], nil
}

// segmentName numbers the output file per segment:
// capture.png -> capture-000.png.
func segmentName(output string, i int) string {
	ext := ""
	if d := strings.LastIndexByte(output, '.'); d >= 0 {
		output, ext = output[:d], output[d:]
	}
	return fmt.Sprintf("%s-%03d%s", output, i, ext)
}
