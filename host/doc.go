// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package host connects the control loop to a windowing host through the
// gpucontext interfaces.
//
// Bind feeds window input into a controller. Presenter lets the scheduler
// drive a host that owns the swapchain: frames are drawn from the host's
// draw callback, one per request.
//
//	app := gogpu.NewApp(cfg)
//	presenter := host.NewPresenter(renderer, app)
//	ctrl, _ := bulb.NewController(presenter)
//	host.Bind(ctrl, app.EventSource())
//	app.OnDraw(func(dc *gogpu.Context) {
//	    presenter.Draw(ctx, surfaceView(dc))
//	})
package host
