// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render draws the Mandelbulb kernel on a wgpu HAL device.
//
// The package either opens its own device or adopts the device of a host
// application. It never owns the window surface.
//
// # Key Principle
//
// A frame is one render pass: clear the view, bind the two uniforms, draw
// the six-vertex quad. The renderer submits the pass and waits for the GPU
// to finish before returning, so frames never overlap on the device.
//
// # Devices
//
//   - OpenDevice: standalone device on the best registered backend
//   - DeviceFromProvider: adopt a host device (gogpu.App.GPUContextProvider)
//   - NewDevice: wrap an existing hal.Device and hal.Queue
//
// # Targets
//
//   - Surface views passed to Renderer.Render by the host
//   - OffscreenTarget: texture with readback, used by RenderFrame
//
// # Usage
//
// Headless:
//
//	dev, err := render.OpenDevice()
//	if err != nil {
//	    return err // errors.Is(err, render.ErrUnsupported)
//	}
//	defer dev.Close()
//
//	r, err := render.New(dev, render.WithSize(512, 512))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	ctrl, _ := bulb.NewController(r)
//	ctrl.Run(ctx)
//
// With gogpu, the host bridge calls Renderer.Render from OnDraw with the
// surface view; see package host.
//
// # Thread Safety
//
// Renderer methods are serialized internally. OffscreenTarget is not safe
// for concurrent use.
package render
