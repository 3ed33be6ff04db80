package bulb

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when an option value is out of range.
var ErrInvalidConfig = errors.New("bulb: invalid configuration")

// Default surface size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 1024
)

// Option configures a Controller during creation.
//
// Example:
//
//	ctrl, err := bulb.NewController(renderer,
//	    bulb.WithFPS(30),
//	    bulb.WithOverlapPolicy(bulb.Coalesce),
//	)
type Option func(*options)

type options struct {
	fps     int
	damping float64
	width   int
	height  int
	policy  OverlapPolicy
	source  TimeSource
}

func defaultOptions() options {
	return options{
		fps:     DefaultFPS,
		damping: DefaultDamping,
		width:   DefaultWidth,
		height:  DefaultHeight,
		policy:  SkipIfBusy,
	}
}

func (o options) validate() error {
	if o.fps <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, o.fps)
	}
	if o.damping <= 0 || o.damping > 1 {
		return fmt.Errorf("%w: damping must be in (0, 1], got %v", ErrInvalidConfig, o.damping)
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("%w: surface size must be positive, got %dx%d", ErrInvalidConfig, o.width, o.height)
	}
	return nil
}

// WithFPS sets the scheduler cadence. Default is 20.
func WithFPS(fps int) Option {
	return func(o *options) {
		o.fps = fps
	}
}

// WithDamping sets the rotation smoothing factor k. Default is 0.1.
func WithDamping(k float64) Option {
	return func(o *options) {
		o.damping = k
	}
}

// WithSurfaceSize sets the initial surface size used to normalize pointer
// deltas. Default is 1024x1024.
func WithSurfaceSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithOverlapPolicy sets how ticks are handled while a frame is in flight.
// Default is SkipIfBusy.
func WithOverlapPolicy(p OverlapPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTimeSource replaces the monotonic clock. Intended for tests and for
// deterministic offline rendering.
func WithTimeSource(src TimeSource) Option {
	return func(o *options) {
		o.source = src
	}
}
