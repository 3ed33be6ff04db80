// Package bulb drives a real-time raymarched Mandelbulb.
//
// # Overview
//
// The package holds the animation and interaction control loop: it turns
// wall-clock time and pointer drags into a pausable, smoothly interpolated
// render state and sequences one GPU submission per tick. The fractal
// itself is a WGSL kernel consuming two uniforms (see package kernel);
// the GPU work lives in package render.
//
// # Quick Start
//
//	r, err := render.New(dev, render.WithTarget(target))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctrl, err := bulb.NewController(r, bulb.WithFPS(20))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	host.Bind(ctrl, app.EventSource())
//	ctrl.Run(ctx)
//
// # Architecture
//
//   - Clock: active elapsed time, excluding paused spans
//   - PointerTracker: drag deltas from pointer down/move/up/leave
//   - RotationSmoother: per-tick exponential damping toward the drag target
//   - Scheduler: fixed cadence with at most one frame in flight
//   - FrameStats: running mean of submission latency
//   - Controller: owns all of the above and calls a FrameRenderer per tick
//
// # Logging
//
// bulb is silent by default. Call SetLogger to route log/slog output from
// bulb and its sub-packages to a handler of your choice.
package bulb
