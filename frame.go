package bulb

import (
	"context"
	"time"
)

// Frame is the render state handed to a FrameRenderer on every tick.
type Frame struct {
	// Index counts ticks that reached the renderer, starting at zero.
	Index uint64

	// Elapsed is the active elapsed time from the Clock.
	Elapsed time.Duration

	// UpdateTime is false while paused. Renderers must leave the time
	// uniform untouched so the animation stays frozen.
	UpdateTime bool

	// Rotation is the smoothed rotation in kernel convention,
	// see KernelRotation.
	Rotation [2]float32
}

// Seconds returns Elapsed as the 32-bit float the kernel consumes.
func (f Frame) Seconds() float32 {
	return float32(f.Elapsed.Seconds())
}

// FrameRenderer pushes a Frame to the GPU, submits one draw and waits for
// completion. It returns the submission-to-completion latency.
type FrameRenderer interface {
	RenderFrame(ctx context.Context, f Frame) (time.Duration, error)
}

// FrameRendererFunc adapts a function to FrameRenderer.
type FrameRendererFunc func(ctx context.Context, f Frame) (time.Duration, error)

// RenderFrame calls fn(ctx, f).
func (fn FrameRendererFunc) RenderFrame(ctx context.Context, f Frame) (time.Duration, error) {
	return fn(ctx, f)
}
