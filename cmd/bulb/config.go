package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/gogpu/bulb"
)

// Config holds command configuration. Environment variables set the
// defaults and flags override them.
type Config struct {
	FPS          int     `env:"BULB_FPS" envDefault:"20"`
	Damping      float64 `env:"BULB_DAMPING" envDefault:"0.1"`
	Width        int     `env:"BULB_WIDTH" envDefault:"1024"`
	Height       int     `env:"BULB_HEIGHT" envDefault:"1024"`
	Overlap      string  `env:"BULB_OVERLAP" envDefault:"skip"`
	Shader       string  `env:"BULB_SHADER"`
	Watch        bool    `env:"BULB_WATCH"`
	Headless     bool    `env:"BULB_HEADLESS"`
	Frames       int     `env:"BULB_FRAMES"`
	OutputDir    string  `env:"BULB_OUTPUT_DIR"`
	CaptureScale float64 `env:"BULB_CAPTURE_SCALE" envDefault:"1"`
	MetricsAddr  string  `env:"BULB_METRICS_ADDR"`
	LogLevel     string  `env:"BULB_LOG_LEVEL" envDefault:"info"`

	policy bulb.OverlapPolicy
	level  slog.Level
}

// ParseConfig reads the environment, then parses args with fs.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "frames per second")
	fs.Float64Var(&cfg.Damping, "damping", cfg.Damping, "rotation smoothing factor in (0, 1]")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "surface width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "surface height in pixels")
	fs.StringVar(&cfg.Overlap, "overlap", cfg.Overlap, "tick overlap policy (skip|coalesce)")
	fs.StringVar(&cfg.Shader, "shader", cfg.Shader, "WGSL kernel file (default: built-in Mandelbulb)")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload -shader when the file changes")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "render offscreen without a window")
	fs.IntVar(&cfg.Frames, "frames", cfg.Frames, "stop after this many frames (0 = run until interrupted)")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "write frames as PNG into this directory (headless only)")
	fs.Float64Var(&cfg.CaptureScale, "capture-scale", cfg.CaptureScale, "scale factor for captured frames in (0, 1]")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: -fps must be positive, got %d", bulb.ErrInvalidConfig, c.FPS)
	case c.Damping <= 0 || c.Damping > 1:
		return fmt.Errorf("%w: -damping must be in (0, 1], got %v", bulb.ErrInvalidConfig, c.Damping)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size must be positive, got %dx%d", bulb.ErrInvalidConfig, c.Width, c.Height)
	case c.CaptureScale <= 0 || c.CaptureScale > 1:
		return fmt.Errorf("%w: -capture-scale must be in (0, 1], got %v", bulb.ErrInvalidConfig, c.CaptureScale)
	}

	policy, err := bulb.ParseOverlapPolicy(c.Overlap)
	if err != nil {
		return err
	}
	c.policy = policy

	if err := c.level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", bulb.ErrInvalidConfig, c.LogLevel)
	}
	if c.Watch && c.Shader == "" {
		return fmt.Errorf("%w: -watch requires -shader", bulb.ErrInvalidConfig)
	}
	if c.Frames < 0 {
		return fmt.Errorf("%w: negative frame count", bulb.ErrInvalidConfig)
	}
	if c.OutputDir != "" && !c.Headless {
		return errors.New("-out is only supported with -headless")
	}
	return nil
}

// controllerOptions maps the config onto controller options.
func (c Config) controllerOptions() []bulb.Option {
	return []bulb.Option{
		bulb.WithFPS(c.FPS),
		bulb.WithDamping(c.Damping),
		bulb.WithSurfaceSize(c.Width, c.Height),
		bulb.WithOverlapPolicy(c.policy),
	}
}
