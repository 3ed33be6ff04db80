// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// newNoopDevice opens a device on the noop backend.
func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := OpenDeviceOn(noop.API{})
	if err != nil {
		t.Fatalf("OpenDeviceOn(noop): %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

type bufferWrite struct {
	buffer hal.Buffer
	data   []byte
}

// recordingQueue records buffer writes and submissions. It can fail
// submissions or hold them incomplete.
type recordingQueue struct {
	hal.Queue

	mu        sync.Mutex
	writes    []bufferWrite
	submits   int
	submitErr error
	stall     bool
}

func (q *recordingQueue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	q.mu.Lock()
	q.writes = append(q.writes, bufferWrite{buffer: buf, data: bytes.Clone(data)})
	q.mu.Unlock()
	return q.Queue.WriteBuffer(buf, offset, data)
}

func (q *recordingQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.mu.Lock()
	q.submits++
	err := q.submitErr
	q.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return q.Queue.Submit(cmds)
}

func (q *recordingQueue) PollCompleted() uint64 {
	q.mu.Lock()
	stall := q.stall
	q.mu.Unlock()
	if stall {
		return 0
	}
	return q.Queue.PollCompleted()
}

func (q *recordingQueue) reset() {
	q.mu.Lock()
	q.writes = nil
	q.submits = 0
	q.mu.Unlock()
}

func (q *recordingQueue) writesTo(buf hal.Buffer) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]byte
	for _, w := range q.writes {
		if w.buffer == buf {
			out = append(out, w.data)
		}
	}
	return out
}

// passRecord captures what one render pass encoded.
type passRecord struct {
	desc        hal.RenderPassDescriptor
	pipelineSet bool
	bindGroups  []uint32
	draws       [][4]uint32
	ended       bool
}

// recordingDevice hands out encoders that record render passes.
type recordingDevice struct {
	hal.Device

	mu     sync.Mutex
	passes []*passRecord
	freed  int
}

func (d *recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{CommandEncoder: enc, dev: d}, nil
}

func (d *recordingDevice) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.mu.Lock()
	d.freed++
	d.mu.Unlock()
	d.Device.FreeCommandBuffer(cmd)
}

func (d *recordingDevice) lastPass(t *testing.T) *passRecord {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.passes) == 0 {
		t.Fatal("no render pass recorded")
	}
	return d.passes[len(d.passes)-1]
}

type recordingEncoder struct {
	hal.CommandEncoder
	dev *recordingDevice
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	rec := &passRecord{desc: *desc}
	e.dev.mu.Lock()
	e.dev.passes = append(e.dev.passes, rec)
	e.dev.mu.Unlock()
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), rec: rec}
}

type recordingPass struct {
	hal.RenderPassEncoder
	rec *passRecord
}

func (p *recordingPass) SetPipeline(pl hal.RenderPipeline) {
	p.rec.pipelineSet = pl != nil
	p.RenderPassEncoder.SetPipeline(pl)
}

func (p *recordingPass) SetBindGroup(index uint32, g hal.BindGroup, offsets []uint32) {
	p.rec.bindGroups = append(p.rec.bindGroups, index)
	p.RenderPassEncoder.SetBindGroup(index, g, offsets)
}

func (p *recordingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.rec.draws = append(p.rec.draws, [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance})
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *recordingPass) End() {
	p.rec.ended = true
	p.RenderPassEncoder.End()
}

// newRecordingDevice wraps a noop device with recording wrappers.
func newRecordingDevice(t *testing.T) (*Device, *recordingDevice, *recordingQueue) {
	t.Helper()
	base := newNoopDevice(t)
	rd := &recordingDevice{Device: base.Device}
	rq := &recordingQueue{Queue: base.Queue}
	dev, err := NewDevice(rd, rq)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	return dev, rd, rq
}

var errSubmit = errors.New("device lost")
