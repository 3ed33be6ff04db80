// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bulb/kernel"
)

// pipeline holds every GPU object a frame needs. Buffers and the bind
// group are created once and reused; only their contents change per frame.
type pipeline struct {
	device hal.Device
	queue  hal.Queue

	shader      hal.ShaderModule
	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipeline    hal.RenderPipeline

	vertices  hal.Buffer
	timeBuf   hal.Buffer
	rotateBuf hal.Buffer
	bindGroup hal.BindGroup
}

// uniformState holds the packed uniform contents last written for the
// kernel. A rebuilt pipeline starts from it.
type uniformState struct {
	time     []byte
	rotation []byte
}

func zeroUniforms() uniformState {
	return uniformState{time: PackTime(0), rotation: PackRotation([2]float32{})}
}

// newPipeline compiles src and creates the render pipeline, the quad
// vertex buffer, both uniform buffers seeded from u and the bind group.
// On error every object created so far is released.
func newPipeline(device hal.Device, queue hal.Queue, src string, format gputypes.TextureFormat, u uniformState) (*pipeline, error) {
	p := &pipeline{device: device, queue: queue}
	if err := p.createPipeline(src, format); err != nil {
		p.destroy()
		return nil, err
	}
	if err := p.createBuffers(u); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *pipeline) createPipeline(src string, format gputypes.TextureFormat) error {
	if src == "" {
		return fmt.Errorf("kernel source is empty")
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "bulb_kernel",
		Source: hal.ShaderSource{WGSL: src},
	})
	if err != nil {
		return fmt.Errorf("compile kernel: %w", err)
	}
	p.shader = shader

	groupLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "bulb_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    kernel.TimeBinding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    kernel.RotationBinding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	p.groupLayout = groupLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "bulb_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.groupLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	rp, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "bulb_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: kernel.VertexEntryPoint,
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: kernel.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{Format: format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = rp
	return nil
}

func (p *pipeline) createBuffers(u uniformState) error {
	var err error
	p.vertices, err = p.createAndUploadBuffer("bulb_quad", kernel.QuadBytes(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.timeBuf, err = p.createAndUploadBuffer("bulb_time", u.time,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.rotateBuf, err = p.createAndUploadBuffer("bulb_rotation", u.rotation,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	p.bindGroup, err = p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "bulb_uniforms",
		Layout: p.groupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: kernel.TimeBinding, Resource: gputypes.BufferBinding{
				Buffer: p.timeBuf.NativeHandle(), Offset: 0, Size: kernel.TimeSize,
			}},
			{Binding: kernel.RotationBinding, Resource: gputypes.BufferBinding{
				Buffer: p.rotateBuf.NativeHandle(), Offset: 0, Size: kernel.RotationSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *pipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := p.queue.WriteBuffer(buf, 0, data); err != nil {
		p.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

// destroy releases all resources in reverse creation order. Safe to call
// on a partially built pipeline.
func (p *pipeline) destroy() {
	if p.device == nil {
		return
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	for _, b := range []*hal.Buffer{&p.rotateBuf, &p.timeBuf, &p.vertices} {
		if *b != nil {
			p.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.groupLayout != nil {
		p.device.DestroyBindGroupLayout(p.groupLayout)
		p.groupLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// quadVertexLayout is one float32x2 position at location 0.
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: kernel.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}
