// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package host

import (
	"github.com/gogpu/gpucontext"
)

// Input is the controller surface driven by window events.
// *bulb.Controller implements it.
type Input interface {
	PointerDown(x, y float64)
	PointerMove(x, y float64)
	PointerUp()
	PointerLeave()
	TogglePause() bool
	Resize(width, height int)
}

// Bind routes window events to in.
//
// Pointer input uses gpucontext.PointerEventSource when events implements
// it and falls back to mouse callbacks otherwise. Only the primary button
// starts a drag. Space toggles pause. Losing focus ends a drag, as does a
// pointer leaving the window or being cancelled.
func Bind(in Input, events gpucontext.EventSource) {
	if in == nil || events == nil {
		return
	}

	if ps, ok := events.(gpucontext.PointerEventSource); ok {
		ps.OnPointer(func(ev gpucontext.PointerEvent) {
			handlePointer(in, ev)
		})
	} else {
		events.OnMousePress(func(button gpucontext.MouseButton, x, y float64) {
			if button == gpucontext.MouseButtonLeft {
				in.PointerDown(x, y)
			}
		})
		events.OnMouseRelease(func(button gpucontext.MouseButton, _, _ float64) {
			if button == gpucontext.MouseButtonLeft {
				in.PointerUp()
			}
		})
		events.OnMouseMove(in.PointerMove)
	}

	events.OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key == gpucontext.KeySpace {
			in.TogglePause()
		}
	})
	events.OnFocus(func(focused bool) {
		if !focused {
			in.PointerLeave()
		}
	})
	events.OnResize(in.Resize)
}

func handlePointer(in Input, ev gpucontext.PointerEvent) {
	if !ev.IsPrimary {
		return
	}
	switch ev.Type {
	case gpucontext.PointerDown:
		if ev.Button == gpucontext.ButtonLeft {
			in.PointerDown(ev.X, ev.Y)
		}
	case gpucontext.PointerMove:
		in.PointerMove(ev.X, ev.Y)
	case gpucontext.PointerUp:
		if ev.Button == gpucontext.ButtonLeft {
			in.PointerUp()
		}
	case gpucontext.PointerLeave, gpucontext.PointerCancel:
		in.PointerLeave()
	}
}
