package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/capture"
	"github.com/gogpu/bulb/kernel"
	"github.com/gogpu/bulb/metrics"
	"github.com/gogpu/bulb/render"
)

// kernelSource returns the configured kernel, or the built-in one.
func kernelSource(cfg Config) (string, error) {
	if cfg.Shader == "" {
		return kernel.Default(), nil
	}
	return kernel.Load(cfg.Shader)
}

// runHeadless renders into an offscreen target until ctx is done or the
// frame budget is reached.
func runHeadless(ctx context.Context, cfg Config) error {
	src, err := kernelSource(cfg)
	if err != nil {
		return err
	}

	dev, err := render.OpenDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := []render.Option{
		render.WithSize(cfg.Width, cfg.Height),
		render.WithKernel(src),
	}
	if cfg.OutputDir != "" {
		sink, err := capture.NewPNGSequence(cfg.OutputDir,
			capture.WithScale(cfg.CaptureScale),
			capture.WithLimit(cfg.Frames))
		if err != nil {
			return err
		}
		opts = append(opts, render.WithFrameSink(sink))
	}

	r, err := render.New(dev, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	ctrl, err := bulb.NewController(r, cfg.controllerOptions()...)
	if err != nil {
		return err
	}
	return runLoop(ctx, cfg, ctrl, r)
}

// runLoop runs the control loop with the metrics server and kernel watcher
// until ctx is done or the frame budget is spent.
func runLoop(ctx context.Context, cfg Config, ctrl *bulb.Controller, r *render.Renderer) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(ctrl.Run(ctx))
	})

	if cfg.Frames > 0 {
		g.Go(func() error {
			waitFrames(ctx, ctrl, uint64(cfg.Frames))
			stop()
			return nil
		})
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(ctrl),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			bulb.Logger().Info("metrics: listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Watch {
		g.Go(func() error {
			return ignoreCanceled(kernel.Watch(ctx, cfg.Shader, r.ReloadKernel))
		})
	}

	err := g.Wait()
	s := ctrl.Stats()
	bulb.Logger().Info("bulb: finished",
		"frames", s.Frames,
		"failures", s.Failures,
		"skipped", s.Skipped,
		"mean_latency", s.MeanLatency)
	return err
}

// waitFrames returns once ctrl has attempted n frames or ctx is done.
func waitFrames(ctx context.Context, ctrl *bulb.Controller, n uint64) {
	ticker := time.NewTicker(ctrl.Scheduler().Interval() / 2)
	defer ticker.Stop()
	for {
		s := ctrl.Stats()
		if s.Frames+s.Failures >= n {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func metricsMux(ctrl *bulb.Controller) *http.ServeMux {
	reg := metrics.NewRegistry(metrics.NewCollector(ctrl.Stats))
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	return mux
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
