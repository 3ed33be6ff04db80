// Command bulb renders an interactive Mandelbulb.
//
// Drag with the primary button to rotate, press Space to pause. With
// -headless the fractal is rendered offscreen and optionally written to
// PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/gogpu/wgpu/hal/allbackends" // Register every HAL backend for headless mode

	"github.com/gogpu/bulb"
	"github.com/gogpu/bulb/render"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := ParseConfig(flag.NewFlagSet("bulb", flag.ContinueOnError), args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "bulb:", err)
		return 2
	}
	bulb.SetLogger(newLogger(cfg.level, os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Headless {
		err = runHeadless(ctx, cfg)
	} else {
		err = runWindowed(ctx, cfg)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, render.ErrUnsupported):
		fmt.Fprintln(os.Stderr, "bulb: this system cannot render with the GPU:", err)
		return 1
	default:
		fmt.Fprintln(os.Stderr, "bulb:", err)
		return 1
	}
}
