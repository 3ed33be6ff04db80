package bulb

// PointerTracker turns pointer down/move/up events into position deltas.
//
// Deltas are reported in surface pixels only while a drag is active. A move
// without a preceding down is not an error; it is ignored.
type PointerTracker struct {
	down bool
	last Vec2
}

// Down records pos and starts a drag.
func (p *PointerTracker) Down(pos Vec2) {
	p.down = true
	p.last = pos
}

// Move returns the delta from the previously recorded position and records
// pos. The second result is false when no drag is active, in which case
// nothing is recorded.
func (p *PointerTracker) Move(pos Vec2) (Vec2, bool) {
	if !p.down {
		return Vec2{}, false
	}
	delta := pos.Sub(p.last)
	p.last = pos
	return delta, true
}

// Up ends the drag. Calling Up when no drag is active changes nothing.
func (p *PointerTracker) Up() {
	p.down = false
}

// Leave ends the drag when the pointer leaves the surface.
func (p *PointerTracker) Leave() {
	p.Up()
}

// Dragging reports whether a drag is active.
func (p *PointerTracker) Dragging() bool {
	return p.down
}
