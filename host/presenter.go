// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bulb"
)

// Drawer renders into a view supplied by the host. *render.Renderer
// implements it.
type Drawer interface {
	Render(ctx context.Context, view hal.TextureView, f bulb.Frame) (time.Duration, error)
	Redraw(ctx context.Context, view hal.TextureView) (time.Duration, error)
}

type result struct {
	latency time.Duration
	err     error
}

type request struct {
	frame bulb.Frame
	done  chan result
}

// Presenter is a bulb.FrameRenderer for hosts that only hand out the
// surface inside their draw callback, such as gogpu with on-demand
// rendering.
//
// RenderFrame queues the frame, asks the window for a redraw and waits.
// The host's draw callback calls Draw with the current surface view, which
// renders the queued frame and wakes RenderFrame.
type Presenter struct {
	drawer   Drawer
	window   gpucontext.WindowProvider
	requests chan *request
}

var _ bulb.FrameRenderer = (*Presenter)(nil)

// NewPresenter creates a presenter drawing with d on window w.
func NewPresenter(d Drawer, w gpucontext.WindowProvider) *Presenter {
	return &Presenter{
		drawer:   d,
		window:   w,
		requests: make(chan *request, 1),
	}
}

// RenderFrame implements bulb.FrameRenderer. Calls must not overlap; the
// scheduler runs one step at a time. If ctx ends before the host draws,
// the frame is withdrawn and never rendered.
func (p *Presenter) RenderFrame(ctx context.Context, f bulb.Frame) (time.Duration, error) {
	req := &request{frame: f, done: make(chan result, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	p.window.RequestRedraw()

	select {
	case res := <-req.done:
		return res.latency, res.err
	case <-ctx.Done():
		p.withdraw(req)
		return 0, ctx.Err()
	}
}

// withdraw removes req from the queue unless Draw already took it.
func (p *Presenter) withdraw(req *request) {
	select {
	case queued := <-p.requests:
		if queued != req {
			p.requests <- queued
		}
	default:
	}
}

// Draw is called from the host's draw callback. It renders the queued
// frame if there is one and otherwise repaints with the last uniforms.
func (p *Presenter) Draw(ctx context.Context, view hal.TextureView) error {
	select {
	case req := <-p.requests:
		latency, err := p.drawer.Render(ctx, view, req.frame)
		req.done <- result{latency: latency, err: err}
		return err
	default:
		_, err := p.drawer.Redraw(ctx, view)
		return err
	}
}
