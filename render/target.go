// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoReadback is returned when a frame sink is configured but the
// target cannot be read back.
var ErrNoReadback = errors.New("render: target does not support readback")

// Target is a texture view RenderFrame draws into.
type Target interface {
	View() hal.TextureView
	Size() (width, height int)
}

// Readbacker is a Target whose pixels can be copied to host memory.
type Readbacker interface {
	Target
	Readback(ctx context.Context) (*image.RGBA, error)
}

// FrameSink receives frames read back after RenderFrame.
type FrameSink interface {
	WriteFrame(index uint64, img image.Image) error
}

// OffscreenTarget is a GPU texture usable as a render attachment and as a
// copy source for readback.
type OffscreenTarget struct {
	device hal.Device
	sub    *submitter

	texture hal.Texture
	view    hal.TextureView
	format  gputypes.TextureFormat
	width   int
	height  int
}

// NewOffscreenTarget creates a width x height texture in the given format.
func NewOffscreenTarget(dev *Device, width, height int, format gputypes.TextureFormat) (*OffscreenTarget, error) {
	if dev == nil || dev.Device == nil || dev.Queue == nil {
		return nil, ErrNilDevice
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid target size %dx%d", width, height)
	}

	tex, err := dev.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         "bulb_offscreen",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create offscreen texture: %w", err)
	}
	view, err := dev.Device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "bulb_offscreen_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		dev.Device.DestroyTexture(tex)
		return nil, fmt.Errorf("render: create offscreen view: %w", err)
	}

	return &OffscreenTarget{
		device:  dev.Device,
		sub:     newSubmitter(dev.Device, dev.Queue, DefaultPollInterval, DefaultSubmitTimeout),
		texture: tex,
		view:    view,
		format:  format,
		width:   width,
		height:  height,
	}, nil
}

// View returns the texture view to render into.
func (t *OffscreenTarget) View() hal.TextureView { return t.view }

// Size returns the texture size in pixels.
func (t *OffscreenTarget) Size() (int, int) { return t.width, t.height }

// Format returns the texture format.
func (t *OffscreenTarget) Format() gputypes.TextureFormat { return t.format }

// Readback copies the texture into a new RGBA image. The texture must not
// be written concurrently.
func (t *OffscreenTarget) Readback(ctx context.Context) (*image.RGBA, error) {
	if t.texture == nil {
		return nil, fmt.Errorf("render: readback of destroyed target")
	}
	if !readbackFormat(t.format) {
		return nil, fmt.Errorf("%w: format %v", ErrNoReadback, t.format)
	}

	w, h := uint32(t.width), uint32(t.height)
	pitch := alignedRowPitch(t.width)
	size := uint64(pitch) * uint64(h)

	staging, err := t.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "bulb_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create staging buffer: %w", err)
	}
	defer t.device.DestroyBuffer(staging)

	encoder, err := t.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "bulb_readback"})
	if err != nil {
		return nil, fmt.Errorf("render: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("bulb_readback"); err != nil {
		return nil, fmt.Errorf("render: begin encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.texture, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: pitch, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("render: end encoding: %w", err)
	}
	if err := t.sub.submitAndWait(ctx, cmd); err != nil {
		return nil, fmt.Errorf("render: readback: %w", err)
	}

	mapping, err := t.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("render: map staging buffer: %w", err)
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), size)
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	unpackRows(img, data, int(pitch), t.format)
	if err := t.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("render: unmap staging buffer: %w", err)
	}
	return img, nil
}

// Destroy releases the texture and its view.
func (t *OffscreenTarget) Destroy() {
	if t.texture == nil {
		return
	}
	t.sub.release()
	t.device.DestroyTextureView(t.view)
	t.device.DestroyTexture(t.texture)
	t.view = nil
	t.texture = nil
}
