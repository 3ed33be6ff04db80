package bulb

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilRenderer is returned by NewController when no renderer is given.
var ErrNilRenderer = errors.New("bulb: nil frame renderer")

// Controller owns the control loop state: clock, pointer drag, rotation
// smoothing and frame statistics. Input handlers and render ticks share it
// under one mutex; the lock is never held across a GPU wait.
//
// Input events are applied in arrival order and are observed by the next
// tick that samples the state.
type Controller struct {
	renderer FrameRenderer
	sched    *Scheduler
	stats    FrameStats

	mu       sync.Mutex
	clock    *Clock
	pointer  PointerTracker
	rotation *RotationSmoother
	width    float64
	height   float64
	frames   uint64
}

// NewController creates a controller that drives r.
func NewController(r FrameRenderer, opts ...Option) (*Controller, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	sched, err := NewScheduler(o.fps, o.policy)
	if err != nil {
		return nil, err
	}
	return &Controller{
		renderer: r,
		sched:    sched,
		clock:    NewClock(o.source),
		rotation: NewRotationSmoother(o.damping),
		width:    float64(o.width),
		height:   float64(o.height),
	}, nil
}

// PointerDown starts a drag at (x, y) in surface pixels.
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	c.pointer.Down(V2(x, y))
	c.mu.Unlock()
}

// PointerMove moves the pointer to (x, y). While dragging, the delta
// normalized by the surface size is added to the rotation target.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.pointer.Move(V2(x, y))
	if !ok {
		return
	}
	c.rotation.Nudge(d.Scale(c.width, c.height))
}

// PointerUp ends the drag.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	c.pointer.Up()
	c.mu.Unlock()
}

// PointerLeave ends the drag when the pointer leaves the surface.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	c.pointer.Leave()
	c.mu.Unlock()
}

// TogglePause flips the pause flag and returns the new state.
func (c *Controller) TogglePause() bool {
	c.mu.Lock()
	paused := c.clock.Toggle()
	c.mu.Unlock()
	Logger().Info("bulb: pause toggled", "paused", paused)
	return paused
}

// SetPaused sets the pause flag.
func (c *Controller) SetPaused(paused bool) {
	c.mu.Lock()
	c.clock.SetPaused(paused)
	c.mu.Unlock()
}

// Paused reports whether time is frozen.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Paused()
}

// Resize updates the surface size used to normalize pointer deltas.
// Non-positive sizes are ignored.
func (c *Controller) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	c.width = float64(width)
	c.height = float64(height)
	c.mu.Unlock()
}

// Rotation returns the rotation target and the smoothed rotation.
func (c *Controller) Rotation() (target, current Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation.Target(), c.rotation.Current()
}

// Stats returns a snapshot of frame statistics.
func (c *Controller) Stats() StatsSnapshot {
	s := c.stats.Snapshot()
	s.Paused = c.Paused()
	return s
}

// Scheduler returns the scheduler used by Run.
func (c *Controller) Scheduler() *Scheduler {
	return c.sched
}

// Step runs one tick: sample the clock, advance the smoother, render, and
// record latency. While paused the frame is still drawn with the frozen
// time. A render failure is counted and returned; it does not corrupt the
// controller state.
func (c *Controller) Step(ctx context.Context) error {
	c.mu.Lock()
	elapsed := c.clock.Sample()
	paused := c.clock.Paused()
	current := c.rotation.Step()
	f := Frame{
		Index:      c.frames,
		Elapsed:    elapsed,
		UpdateTime: !paused,
		Rotation:   KernelRotation(current),
	}
	c.frames++
	c.mu.Unlock()

	latency, err := c.renderer.RenderFrame(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		c.stats.RecordFailure()
		return fmt.Errorf("frame %d: %w", f.Index, err)
	}
	c.stats.Record(latency)
	Logger().Debug("bulb: frame",
		"index", f.Index,
		"time", f.Seconds(),
		"rotation", f.Rotation,
		"latency", latency)
	return nil
}

// Run drives Step at the configured cadence until ctx is cancelled.
// Frame failures are logged and the loop continues.
func (c *Controller) Run(ctx context.Context) error {
	c.sched.OnError(func(err error) {
		Logger().Warn("bulb: frame failed", "error", err)
	})
	c.sched.OnSkip(func() {
		c.stats.RecordSkipped()
	})
	Logger().Info("bulb: control loop started",
		"interval", c.sched.Interval(),
		"policy", c.sched.Policy().String())
	err := c.sched.Run(ctx, c.Step)
	mean, n := c.stats.Mean()
	Logger().Info("bulb: control loop stopped", "frames", n, "mean_latency", mean)
	return err
}
