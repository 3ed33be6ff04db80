// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/bulb"
)

// Renderer defaults.
const (
	DefaultPollInterval  = 250 * time.Microsecond
	DefaultSubmitTimeout = 5 * time.Second
)

// DefaultClearColor is the background the pass clears to before drawing.
var DefaultClearColor = gputypes.Color{R: 0, G: 0, B: 0.4, A: 1}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	format        gputypes.TextureFormat
	clear         gputypes.Color
	width, height int
	kernel        string
	target        Target
	sink          FrameSink
	pollInterval  time.Duration
	submitTimeout time.Duration
}

func defaultOptions() options {
	return options{
		format:        gputypes.TextureFormatBGRA8Unorm,
		clear:         DefaultClearColor,
		width:         bulb.DefaultWidth,
		height:        bulb.DefaultHeight,
		pollInterval:  DefaultPollInterval,
		submitTimeout: DefaultSubmitTimeout,
	}
}

// WithFormat sets the color target format. It must match the format of
// every view passed to Render.
func WithFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithClearColor overrides the background color.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clear = c
	}
}

// WithSize sets the size of the offscreen target created by RenderFrame.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithKernel replaces the built-in kernel source.
func WithKernel(src string) Option {
	return func(o *options) {
		o.kernel = src
	}
}

// WithTarget makes RenderFrame draw into t instead of an offscreen
// target owned by the renderer.
func WithTarget(t Target) Option {
	return func(o *options) {
		o.target = t
	}
}

// WithFrameSink receives a copy of every frame drawn by RenderFrame. The
// target must support readback.
func WithFrameSink(s FrameSink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithPollInterval sets how often completion is polled while awaiting a
// submission.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithSubmitTimeout bounds how long a submission is awaited.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.submitTimeout = d
		}
	}
}
