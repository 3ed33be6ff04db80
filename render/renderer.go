// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/kernel"
)

// ErrClosed is returned by a Renderer after Close.
var ErrClosed = errors.New("render: renderer closed")

// Renderer draws the kernel over a full-screen quad.
//
// Each frame writes the uniforms, encodes one render pass that clears the
// view and draws six vertices, submits it and waits for the GPU to finish.
// Calls are serialized; a Renderer is safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	dev    *Device
	opts   options
	pipe   *pipeline
	sub    *submitter
	target Target
	// uniforms mirrors the GPU uniform buffers for pipeline rebuilds.
	uniforms uniformState
	// offscreen is the target RenderFrame created itself, if any.
	offscreen *OffscreenTarget
	closed    bool
}

var _ bulb.FrameRenderer = (*Renderer)(nil)

// New compiles the kernel and creates the pipeline on dev.
func New(dev *Device, opts ...Option) (*Renderer, error) {
	if dev == nil || dev.Device == nil || dev.Queue == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.kernel == "" {
		o.kernel = kernel.Default()
	}
	if _, err := kernel.Validate(o.kernel); err != nil {
		return nil, err
	}

	u := zeroUniforms()
	pipe, err := newPipeline(dev.Device, dev.Queue, o.kernel, o.format, u)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	return &Renderer{
		dev:      dev,
		opts:     o,
		pipe:     pipe,
		sub:      newSubmitter(dev.Device, dev.Queue, o.pollInterval, o.submitTimeout),
		target:   o.target,
		uniforms: u,
	}, nil
}

// Format returns the color target format views must have.
func (r *Renderer) Format() gputypes.TextureFormat {
	return r.opts.format
}

// Render writes the frame's uniforms and draws into view. The time
// uniform is written only when f.UpdateTime is set; rotation is always
// written. It returns the submission-to-completion latency.
func (r *Renderer) Render(ctx context.Context, view hal.TextureView, f bulb.Frame) (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(view); err != nil {
		return 0, err
	}

	if f.UpdateTime {
		b := PackTime(f.Seconds())
		if err := r.dev.Queue.WriteBuffer(r.pipe.timeBuf, 0, b); err != nil {
			return 0, fmt.Errorf("render: write time: %w", err)
		}
		r.uniforms.time = b
	}
	b := PackRotation(f.Rotation)
	if err := r.dev.Queue.WriteBuffer(r.pipe.rotateBuf, 0, b); err != nil {
		return 0, fmt.Errorf("render: write rotation: %w", err)
	}
	r.uniforms.rotation = b
	return r.drawLocked(ctx, view)
}

// Redraw draws into view with the uniforms of the last frame. Hosts call
// it when the window system asks for a repaint between ticks.
func (r *Renderer) Redraw(ctx context.Context, view hal.TextureView) (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(view); err != nil {
		return 0, err
	}
	return r.drawLocked(ctx, view)
}

// RenderFrame implements bulb.FrameRenderer. It renders into the target
// set with WithTarget, or an offscreen target of the configured size, and
// hands the result to the frame sink if one is set.
func (r *Renderer) RenderFrame(ctx context.Context, f bulb.Frame) (time.Duration, error) {
	t, err := r.frameTarget()
	if err != nil {
		return 0, err
	}
	latency, err := r.Render(ctx, t.View(), f)
	if err != nil || r.opts.sink == nil {
		return latency, err
	}

	rb, ok := t.(Readbacker)
	if !ok {
		return latency, ErrNoReadback
	}
	r.mu.Lock()
	img, err := rb.Readback(ctx)
	r.mu.Unlock()
	if err != nil {
		return latency, err
	}
	if err := r.opts.sink.WriteFrame(f.Index, img); err != nil {
		return latency, fmt.Errorf("render: frame sink: %w", err)
	}
	return latency, nil
}

func (r *Renderer) frameTarget() (Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if r.target != nil {
		return r.target, nil
	}
	t, err := NewOffscreenTarget(r.dev, r.opts.width, r.opts.height, r.opts.format)
	if err != nil {
		return nil, err
	}
	r.offscreen = t
	r.target = t
	return t, nil
}

// ReloadKernel validates src and swaps in a pipeline built from it. On
// error the current pipeline stays in place. The new uniform buffers start
// with the last written time and rotation, so a paused animation stays
// frozen across a reload.
func (r *Renderer) ReloadKernel(src string) error {
	if _, err := kernel.Validate(src); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	pipe, err := newPipeline(r.dev.Device, r.dev.Queue, src, r.opts.format, r.uniforms)
	if err != nil {
		return fmt.Errorf("render: reload: %w", err)
	}
	if err := r.dev.Device.WaitIdle(); err != nil {
		pipe.destroy()
		return fmt.Errorf("render: reload: wait idle: %w", err)
	}
	old := r.pipe
	r.pipe = pipe
	r.opts.kernel = src
	old.destroy()

	bulb.Logger().Info("render: kernel reloaded")
	return nil
}

// Close releases the pipeline and any offscreen target. The device itself
// is left to its owner.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.sub.release()
	if r.offscreen != nil {
		r.offscreen.Destroy()
		r.offscreen = nil
	}
	r.target = nil
	r.pipe.destroy()
}

func (r *Renderer) check(view hal.TextureView) error {
	if r.closed {
		return ErrClosed
	}
	if view == nil {
		return fmt.Errorf("render: nil texture view")
	}
	return nil
}

// drawLocked encodes the clear pass and the quad draw, submits it and
// waits. r.mu must be held.
func (r *Renderer) drawLocked(ctx context.Context, view hal.TextureView) (time.Duration, error) {
	cmd, err := r.encode(view)
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}

	start := time.Now()
	if err := r.sub.submitAndWait(ctx, cmd); err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	return time.Since(start), nil
}

func (r *Renderer) encode(view hal.TextureView) (hal.CommandBuffer, error) {
	encoder, err := r.dev.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "bulb_frame"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("bulb_frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "bulb_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.opts.clear,
		}},
	})
	rp.SetPipeline(r.pipe.pipeline)
	rp.SetBindGroup(kernel.Group, r.pipe.bindGroup, nil)
	rp.SetVertexBuffer(0, r.pipe.vertices, 0)
	rp.Draw(kernel.VertexCount, 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmd, nil
}
