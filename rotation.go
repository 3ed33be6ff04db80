package bulb

// DefaultDamping is the fraction of the remaining distance to the target
// that the smoothed rotation covers on each tick.
const DefaultDamping = 0.1

// RotationSmoother damps the displayed rotation toward an accumulated
// drag target.
//
// The filter runs once per scheduler tick and is not scaled by wall time,
// so its response is tied to the frame rate. Neither value is clamped or
// wrapped: repeated drags keep accumulating full turns.
type RotationSmoother struct {
	k       float64
	target  Vec2
	current Vec2
}

// NewRotationSmoother returns a smoother with damping factor k.
func NewRotationSmoother(k float64) *RotationSmoother {
	return &RotationSmoother{k: k}
}

// Nudge adds delta to the target.
func (s *RotationSmoother) Nudge(delta Vec2) {
	s.target = s.target.Add(delta)
}

// Step moves current toward target by the damping factor on each axis
// and returns the new current value.
func (s *RotationSmoother) Step() Vec2 {
	s.current = s.current.Sub(s.current.Sub(s.target).Mul(s.k))
	return s.current
}

// Target returns the accumulated drag target.
func (s *RotationSmoother) Target() Vec2 { return s.target }

// Current returns the smoothed rotation.
func (s *RotationSmoother) Current() Vec2 { return s.current }

// Reset zeroes target and current.
func (s *RotationSmoother) Reset() {
	s.target = Vec2{}
	s.current = Vec2{}
}

// KernelRotation maps a smoothed rotation to the kernel's rotation uniform.
// Vertical drag becomes rotation around the horizontal axis and horizontal
// drag becomes negated rotation around the vertical axis, so the uniform
// is (current.Y, -current.X).
func KernelRotation(v Vec2) [2]float32 {
	return [2]float32{float32(v.Y), float32(-v.X)}
}
