// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package htmlimage

import (
	"log/slog"

	"cogentcore.org/htmlimage/dom"
	"cogentcore.org/htmlimage/resource"
)

// CaptureContext is the operation-scoped state bundle: the logging
// sink, the resource cache, and the resolved resource policy. It is
// owned exclusively by one capture operation, created at operation
// start and discarded at operation end; it is never shared across
// concurrent operations.
type CaptureContext struct {

	// Logger is the operation's logging sink.
	Logger *slog.Logger

	// Cache is the operation's resource cache.
	Cache *resource.Cache

	// Policy is the resolved resource policy the cache was created
	// with.
	Policy resource.Policy
}

// NewCaptureContext resolves the resource policy from the options and
// creates the operation state for one capture of the given document.
func NewCaptureContext(doc *dom.Document, opts *Options) *CaptureContext {
	logger := slog.Default()
	if !opts.Logging {
		logger = slog.New(slog.DiscardHandler)
	}
	policy := resource.Policy{
		AllowTaint: opts.AllowTaint,
		UseCORS:    opts.UseCORS,
		Proxy:      opts.Proxy,
		Timeout:    opts.ImageTimeout,
	}
	return &CaptureContext{
		Logger: logger,
		Cache:  resource.NewCache(policy, doc.URL, logger),
		Policy: policy,
	}
}
