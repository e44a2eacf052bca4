// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resource provides the request-scoped cache that resolves
// image-like resource URLs to drawable images for one capture
// operation. A cache is created at operation start with a fixed
// [Policy] and discarded at operation end; it is never shared across
// operations, because policy may differ between them.
package resource

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"cogentcore.org/core/base/iox/imagex"
	"github.com/anthonynsimon/bild/transform"
	"github.com/go-resty/resty/v2"
	"github.com/h2non/filetype"
	"golang.org/x/sync/singleflight"
)

// maxDim is the maximum dimension of a decoded resource; anything
// larger is downscaled to fit, preserving aspect ratio. Larger images
// could not be painted meaningfully and inflate segment memory.
const maxDim = 4096

var (
	// ErrTainted is returned for a cross-origin resource when the
	// policy forbids tainting and provides no CORS or proxy path.
	ErrTainted = errors.New("cross-origin resource would taint the raster surface")

	// ErrNotImage is returned when fetched bytes are not a
	// recognized image format.
	ErrNotImage = errors.New("resource is not a decodable image")

	// ErrFetch is returned when the underlying fetch fails or
	// returns a non-success status.
	ErrFetch = errors.New("resource fetch failed")
)

// Error is the failure of a single resource resolution. It is always
// local: the painter substitutes a placeholder and the capture
// continues.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return "resource " + e.URL + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Policy is the resource policy for one capture operation, fixed at
// operation start.
type Policy struct {

	// AllowTaint permits drawing cross-origin resources that a
	// same-origin consumer could not read back.
	AllowTaint bool

	// UseCORS attaches an Origin header so cooperating servers can
	// grant cross-origin access.
	UseCORS bool

	// Proxy is a relay endpoint; when set, fetches are routed as
	// proxy?url=<resource> instead of hitting the resource host
	// directly. Empty means direct fetch.
	Proxy string

	// Timeout bounds each individual resource fetch. Expiry fails
	// that resource only, never the whole capture.
	Timeout time.Duration
}

// Cache memoizes resource resolution for one capture operation.
// Concurrent callers for the same URL share one in-flight fetch.
type Cache struct {
	policy Policy
	origin *url.URL
	logger *slog.Logger
	client *resty.Client
	group  singleflight.Group

	mu     sync.Mutex
	images map[string]image.Image
}

// NewCache returns a new cache with the given policy and document
// origin. origin may be nil, in which case every absolute URL is
// treated as cross-origin.
func NewCache(policy Policy, origin *url.URL, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client := resty.New()
	if policy.Timeout > 0 {
		client.SetTimeout(policy.Timeout)
	}
	return &Cache{
		policy: policy,
		origin: origin,
		logger: logger,
		client: client,
		images: map[string]image.Image{},
	}
}

// Resolve returns the drawable image for the given URL, fetching it
// on first use and serving the memoized result afterward. Failures
// are reported as [*Error] and also memoized as absent entries so a
// failing URL is only attempted once per operation.
func (c *Cache) Resolve(ctx context.Context, urlStr string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.images[urlStr]
	c.mu.Unlock()
	if ok {
		if img == nil {
			return nil, &Error{URL: urlStr, Err: ErrFetch}
		}
		return img, nil
	}

	v, err, _ := c.group.Do(urlStr, func() (any, error) {
		img, err := c.load(ctx, urlStr)
		c.mu.Lock()
		c.images[urlStr] = img // nil on failure: negative entry
		c.mu.Unlock()
		return img, err
	})
	if err != nil {
		c.logger.Debug("resource resolution failed", "url", urlStr, "err", err)
		return nil, err
	}
	return v.(image.Image), nil
}

// Len returns the number of memoized entries, including negative
// ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

func (c *Cache) load(ctx context.Context, urlStr string) (image.Image, error) {
	if strings.HasPrefix(urlStr, "data:") {
		return c.decodeDataURI(urlStr)
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, &Error{URL: urlStr, Err: err}
	}
	if c.origin != nil && !u.IsAbs() {
		u = c.origin.ResolveReference(u)
	}
	if c.crossOrigin(u) && !c.policy.AllowTaint && !c.policy.UseCORS && c.policy.Proxy == "" {
		return nil, &Error{URL: urlStr, Err: ErrTainted}
	}
	body, err := c.fetch(ctx, u)
	if err != nil {
		return nil, &Error{URL: urlStr, Err: err}
	}
	img, err := decode(body)
	if err != nil {
		return nil, &Error{URL: urlStr, Err: err}
	}
	return img, nil
}

// crossOrigin reports whether u is outside the document origin.
func (c *Cache) crossOrigin(u *url.URL) bool {
	if !u.IsAbs() {
		return false
	}
	if c.origin == nil {
		return true
	}
	return u.Scheme != c.origin.Scheme || u.Host != c.origin.Host
}

// fetch performs one bounded fetch, direct or through the proxy.
func (c *Cache) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}
	req := c.client.R().SetContext(ctx)
	if c.policy.UseCORS && c.origin != nil {
		req.SetHeader("Origin", c.origin.Scheme+"://"+c.origin.Host)
	}
	target := u.String()
	if c.policy.Proxy != "" && c.crossOrigin(u) {
		target = c.policy.Proxy + "?url=" + url.QueryEscape(u.String())
	}
	resp, err := req.Get(target)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.Join(ErrFetch, errors.New(resp.Status()))
	}
	return resp.Body(), nil
}

// decodeDataURI decodes an inline data: resource.
func (c *Cache) decodeDataURI(uri string) (image.Image, error) {
	_, data, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, &Error{URL: uri, Err: ErrNotImage}
	}
	var raw []byte
	if strings.Contains(uri[:len(uri)-len(data)], ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, &Error{URL: uri, Err: err}
		}
		raw = b
	} else {
		s, err := url.QueryUnescape(data)
		if err != nil {
			return nil, &Error{URL: uri, Err: err}
		}
		raw = []byte(s)
	}
	img, err := decode(raw)
	if err != nil {
		return nil, &Error{URL: uri, Err: err}
	}
	return img, nil
}

// decode sniffs and decodes fetched bytes, clamping oversized images.
func decode(body []byte) (image.Image, error) {
	if !filetype.IsImage(body) {
		return nil, ErrNotImage
	}
	img, _, err := imagex.Read(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Join(ErrNotImage, err)
	}
	return clamp(img), nil
}

// clamp downscales img to fit within maxDim on both axes.
func clamp(img image.Image) image.Image {
	sz := img.Bounds().Size()
	if sz.X <= maxDim && sz.Y <= maxDim {
		return img
	}
	w, h := sz.X, sz.Y
	if w > maxDim {
		h = h * maxDim / w
		w = maxDim
	}
	if h > maxDim {
		w = w * maxDim / h
		h = maxDim
	}
	return transform.Resize(img, w, h, transform.Linear)
}
