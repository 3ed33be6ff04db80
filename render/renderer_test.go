// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/kernel"
)

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *recordingDevice, *recordingQueue, hal.TextureView) {
	t.Helper()
	dev, rd, rq := newRecordingDevice(t)
	r, err := New(dev, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)

	target, err := NewOffscreenTarget(dev, 8, 8, r.Format())
	if err != nil {
		t.Fatalf("NewOffscreenTarget: %v", err)
	}
	t.Cleanup(target.Destroy)

	rq.reset()
	return r, rd, rq, target.View()
}

func TestNew(t *testing.T) {
	dev := newNoopDevice(t)

	tests := []struct {
		name    string
		dev     *Device
		opts    []Option
		wantErr error
	}{
		{"default kernel", dev, nil, nil},
		{"nil device", nil, nil, ErrNilDevice},
		{"empty device", &Device{}, nil, ErrNilDevice},
		{"broken kernel", dev, []Option{WithKernel("fn {")}, kernel.ErrInvalidKernel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.dev, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			r.Close()
		})
	}
}

func TestRenderer_RenderWritesUniformsAndDraws(t *testing.T) {
	r, rd, rq, view := newTestRenderer(t)

	f := bulb.Frame{
		Index:      3,
		Elapsed:    1500 * time.Millisecond,
		UpdateTime: true,
		Rotation:   [2]float32{0.25, -0.5},
	}
	latency, err := r.Render(context.Background(), view, f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if latency < 0 {
		t.Errorf("latency = %v, want >= 0", latency)
	}

	timeWrites := rq.writesTo(r.pipe.timeBuf)
	if len(timeWrites) != 1 || !bytes.Equal(timeWrites[0], PackTime(1.5)) {
		t.Errorf("time writes = %v, want one write of %v", timeWrites, PackTime(1.5))
	}
	rotWrites := rq.writesTo(r.pipe.rotateBuf)
	if len(rotWrites) != 1 || !bytes.Equal(rotWrites[0], PackRotation(f.Rotation)) {
		t.Errorf("rotation writes = %v, want one write of %v", rotWrites, PackRotation(f.Rotation))
	}
	if rq.submits != 1 {
		t.Errorf("submits = %d, want 1", rq.submits)
	}

	pass := rd.lastPass(t)
	if len(pass.desc.ColorAttachments) != 1 {
		t.Fatalf("color attachments = %d, want 1", len(pass.desc.ColorAttachments))
	}
	att := pass.desc.ColorAttachments[0]
	if att.View != view {
		t.Error("pass does not target the given view")
	}
	if att.LoadOp != gputypes.LoadOpClear || att.StoreOp != gputypes.StoreOpStore {
		t.Errorf("load/store = %v/%v, want clear/store", att.LoadOp, att.StoreOp)
	}
	if att.ClearValue != (gputypes.Color{R: 0, G: 0, B: 0.4, A: 1}) {
		t.Errorf("clear = %+v, want {0 0 0.4 1}", att.ClearValue)
	}
	if !pass.pipelineSet {
		t.Error("pipeline not set")
	}
	if len(pass.bindGroups) != 1 || pass.bindGroups[0] != kernel.Group {
		t.Errorf("bind groups = %v, want [%d]", pass.bindGroups, kernel.Group)
	}
	if len(pass.draws) != 1 || pass.draws[0] != [4]uint32{6, 1, 0, 0} {
		t.Errorf("draws = %v, want [[6 1 0 0]]", pass.draws)
	}
	if !pass.ended {
		t.Error("render pass not ended")
	}
}

func TestRenderer_PausedFrameLeavesTimeUntouched(t *testing.T) {
	r, _, rq, view := newTestRenderer(t)

	f := bulb.Frame{Elapsed: 5 * time.Second, UpdateTime: false, Rotation: [2]float32{1, 2}}
	if _, err := r.Render(context.Background(), view, f); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w := rq.writesTo(r.pipe.timeBuf); len(w) != 0 {
		t.Errorf("time written %d times while paused", len(w))
	}
	if w := rq.writesTo(r.pipe.rotateBuf); len(w) != 1 {
		t.Errorf("rotation writes = %d, want 1", len(w))
	}
	if rq.submits != 1 {
		t.Errorf("submits = %d, want 1 (paused frames still draw)", rq.submits)
	}
}

func TestRenderer_RedrawSkipsUniforms(t *testing.T) {
	r, rd, rq, view := newTestRenderer(t)

	if _, err := r.Redraw(context.Background(), view); err != nil {
		t.Fatalf("Redraw: %v", err)
	}
	if len(rq.writes) != 0 {
		t.Errorf("Redraw wrote %d buffers, want 0", len(rq.writes))
	}
	if pass := rd.lastPass(t); len(pass.draws) != 1 {
		t.Errorf("draws = %d, want 1", len(pass.draws))
	}
}

func TestRenderer_SubmitFailure(t *testing.T) {
	r, rd, rq, view := newTestRenderer(t)
	rq.submitErr = errSubmit

	_, err := r.Render(context.Background(), view, bulb.Frame{UpdateTime: true})
	if !errors.Is(err, errSubmit) {
		t.Fatalf("Render() error = %v, want %v", err, errSubmit)
	}
	if rd.freed != 1 {
		t.Errorf("freed command buffers = %d, want 1", rd.freed)
	}

	rq.submitErr = nil
	if _, err := r.Render(context.Background(), view, bulb.Frame{UpdateTime: true}); err != nil {
		t.Fatalf("Render after failure: %v", err)
	}
}

func TestRenderer_AwaitAbandoned(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		timeout time.Duration
		wantErr error
	}{
		{"context canceled", nil, 20 * time.Millisecond, context.DeadlineExceeded},
		{"submit timeout", []Option{WithSubmitTimeout(20 * time.Millisecond)}, time.Second, ErrSubmitTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rd, rq, view := newTestRenderer(t, tt.opts...)
			rq.stall = true

			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()
			_, err := r.Render(ctx, view, bulb.Frame{UpdateTime: true})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Render() error = %v, want %v", err, tt.wantErr)
			}
			if rd.freed != 0 {
				t.Errorf("incomplete command buffer was freed")
			}
			if len(r.sub.retired) != 1 {
				t.Errorf("retired = %d, want 1", len(r.sub.retired))
			}

			rq.stall = false
			if _, err := r.Render(context.Background(), view, bulb.Frame{UpdateTime: true}); err != nil {
				t.Fatalf("Render after stall: %v", err)
			}
			if rd.freed != 2 {
				t.Errorf("freed = %d, want 2 after a later completion", rd.freed)
			}
		})
	}
}

type recordingSink struct {
	mu     sync.Mutex
	frames map[uint64]image.Rectangle
	err    error
}

func (s *recordingSink) WriteFrame(index uint64, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames == nil {
		s.frames = make(map[uint64]image.Rectangle)
	}
	s.frames[index] = img.Bounds()
	return s.err
}

func TestRenderer_RenderFrameOffscreen(t *testing.T) {
	dev := newNoopDevice(t)
	sink := &recordingSink{}
	r, err := New(dev, WithSize(5, 3), WithFrameSink(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	for i := uint64(0); i < 3; i++ {
		if _, err := r.RenderFrame(context.Background(), bulb.Frame{Index: i, UpdateTime: true}); err != nil {
			t.Fatalf("RenderFrame(%d): %v", i, err)
		}
	}
	if len(sink.frames) != 3 {
		t.Fatalf("sink got %d frames, want 3", len(sink.frames))
	}
	if got := sink.frames[2]; got != image.Rect(0, 0, 5, 3) {
		t.Errorf("frame bounds = %v, want 5x3", got)
	}

	sink.err = errors.New("disk full")
	if _, err := r.RenderFrame(context.Background(), bulb.Frame{Index: 3}); err == nil {
		t.Error("sink error not reported")
	}
}

type viewOnlyTarget struct{ view hal.TextureView }

func (v viewOnlyTarget) View() hal.TextureView { return v.view }
func (v viewOnlyTarget) Size() (int, int)      { return 1, 1 }

func TestRenderer_SinkNeedsReadback(t *testing.T) {
	dev := newNoopDevice(t)
	off, err := NewOffscreenTarget(dev, 1, 1, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	defer off.Destroy()

	r, err := New(dev, WithTarget(viewOnlyTarget{off.View()}), WithFrameSink(&recordingSink{}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.RenderFrame(context.Background(), bulb.Frame{}); !errors.Is(err, ErrNoReadback) {
		t.Errorf("RenderFrame() error = %v, want %v", err, ErrNoReadback)
	}
}

func TestRenderer_ReloadKernel(t *testing.T) {
	r, _, _, view := newTestRenderer(t)
	before := r.pipe

	if err := r.ReloadKernel("not wgsl"); !errors.Is(err, kernel.ErrInvalidKernel) {
		t.Fatalf("ReloadKernel(invalid) error = %v, want %v", err, kernel.ErrInvalidKernel)
	}
	if r.pipe != before {
		t.Fatal("invalid kernel replaced the pipeline")
	}

	if err := r.ReloadKernel(kernel.Default()); err != nil {
		t.Fatalf("ReloadKernel(default): %v", err)
	}
	if r.pipe == before {
		t.Fatal("pipeline not replaced")
	}
	if _, err := r.Render(context.Background(), view, bulb.Frame{UpdateTime: true}); err != nil {
		t.Fatalf("Render after reload: %v", err)
	}
}

func TestRenderer_ReloadWhilePausedKeepsTime(t *testing.T) {
	r, _, rq, view := newTestRenderer(t)
	ctx := context.Background()
	rot := [2]float32{0.25, -0.5}

	if _, err := r.Render(ctx, view, bulb.Frame{Elapsed: 5 * time.Second, UpdateTime: true, Rotation: rot}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r.ReloadKernel(kernel.Default()); err != nil {
		t.Fatalf("ReloadKernel: %v", err)
	}
	if _, err := r.Render(ctx, view, bulb.Frame{Elapsed: 5 * time.Second, Rotation: rot}); err != nil {
		t.Fatalf("paused Render: %v", err)
	}

	times := rq.writesTo(r.pipe.timeBuf)
	if len(times) != 1 {
		t.Fatalf("time writes to the new buffer = %d, want only the seed", len(times))
	}
	if want := PackTime(5); !bytes.Equal(times[0], want) {
		t.Errorf("time after paused reload = % x, want % x", times[0], want)
	}
	rots := rq.writesTo(r.pipe.rotateBuf)
	if len(rots) == 0 || !bytes.Equal(rots[0], PackRotation(rot)) {
		t.Errorf("rotation seed = % x, want % x", rots, PackRotation(rot))
	}
}

func TestRenderer_Closed(t *testing.T) {
	r, _, _, view := newTestRenderer(t)
	r.Close()
	r.Close()

	if _, err := r.Render(context.Background(), view, bulb.Frame{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Render() error = %v, want %v", err, ErrClosed)
	}
	if _, err := r.RenderFrame(context.Background(), bulb.Frame{}); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderFrame() error = %v, want %v", err, ErrClosed)
	}
	if err := r.ReloadKernel(kernel.Default()); !errors.Is(err, ErrClosed) {
		t.Errorf("ReloadKernel() error = %v, want %v", err, ErrClosed)
	}
}

func TestRenderer_NilView(t *testing.T) {
	r, _, _, _ := newTestRenderer(t)
	if _, err := r.Render(context.Background(), nil, bulb.Frame{}); err == nil {
		t.Error("Render(nil view) succeeded")
	}
}

func TestRenderer_DrivesController(t *testing.T) {
	dev := newNoopDevice(t)
	r, err := New(dev, WithSize(2, 2))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctrl, err := bulb.NewController(r)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := ctrl.Step(context.Background()); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if s := ctrl.Stats(); s.Frames != 4 || s.Failures != 0 {
		t.Errorf("stats = %+v, want 4 frames and no failures", s)
	}
}
