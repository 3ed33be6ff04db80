package main

import (
	"context"
	"sync"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/host"
	"github.com/gogpu/bulb/render"
)

// windowHost is the part of *gogpu.App the window uses once it runs.
type windowHost interface {
	gpucontext.WindowProvider
	GPUContextProvider() gpucontext.DeviceProvider
	EventSource() gpucontext.EventSource
	Quit()
}

// window owns the GPU objects created once the host has a device.
type window struct {
	cfg  Config
	host windowHost
	src  string

	ctx    context.Context
	cancel context.CancelFunc

	once      sync.Once
	initErr   error
	renderer  *render.Renderer
	presenter *host.Presenter
	done      chan error
}

func newWindow(ctx context.Context, cfg Config, h windowHost, src string) *window {
	w := &window{cfg: cfg, host: h, src: src, done: make(chan error, 1)}
	w.ctx, w.cancel = context.WithCancel(ctx)
	return w
}

// runWindowed opens a gogpu window and drives it with the control loop.
// Rendering is on demand: each tick requests one redraw and the frame is
// drawn from the app's draw callback.
func runWindowed(ctx context.Context, cfg Config) error {
	src, err := kernelSource(cfg)
	if err != nil {
		return err
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("Mandelbulb").
		WithSize(cfg.Width, cfg.Height).
		WithContinuousRender(false))

	w := newWindow(ctx, cfg, app, src)
	defer w.cancel()

	app.OnDraw(func(dc *gogpu.Context) {
		w.draw(surfaceView(dc))
	})
	app.OnClose(w.close)

	if err := app.Run(); err != nil {
		return err
	}
	return w.result()
}

// draw sets up the GPU objects on the first call and then presents into
// view. A setup failure quits the app; runWindowed reports it.
func (w *window) draw(view hal.TextureView) {
	w.once.Do(func() {
		if err := w.start(); err != nil {
			w.initErr = err
			bulb.Logger().Error("bulb: GPU setup failed", "error", err)
			w.host.Quit()
		}
	})
	if w.presenter == nil || view == nil {
		return
	}
	if err := w.presenter.Draw(w.ctx, view); err != nil {
		bulb.Logger().Warn("bulb: draw failed", "error", err)
	}
}

// start adopts the host's device and launches the control loop. Fields
// are set only once every step succeeded.
func (w *window) start() error {
	provider := w.host.GPUContextProvider()
	if provider == nil {
		return render.ErrUnsupported
	}
	dev, err := render.DeviceFromProvider(provider)
	if err != nil {
		return err
	}

	format := provider.SurfaceFormat()
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}

	r, err := render.New(dev, render.WithFormat(format), render.WithKernel(w.src))
	if err != nil {
		return err
	}
	p := host.NewPresenter(r, w.host)
	ctrl, err := bulb.NewController(p, w.cfg.controllerOptions()...)
	if err != nil {
		r.Close()
		return err
	}
	host.Bind(ctrl, w.host.EventSource())

	w.renderer = r
	w.presenter = p
	go func() {
		w.done <- runLoop(w.ctx, w.cfg, ctrl, r)
	}()
	return nil
}

// close stops the loop and releases the pipeline while the host's device
// is still alive.
func (w *window) close() {
	w.cancel()
	if w.renderer == nil {
		return
	}
	err := <-w.done
	w.done <- err
	w.renderer.Close()
}

// result is the setup error, or the loop's error once it has stopped.
func (w *window) result() error {
	if w.initErr != nil {
		return w.initErr
	}
	select {
	case err := <-w.done:
		return err
	default:
		return nil
	}
}

func surfaceView(dc *gogpu.Context) hal.TextureView {
	return halView(dc.SurfaceView())
}

// halView unwraps a surface view to its HAL view. It is nil outside a
// frame.
func halView(sv *wgpu.TextureView) hal.TextureView {
	if sv == nil {
		return nil
	}
	return sv.HalTextureView()
}
