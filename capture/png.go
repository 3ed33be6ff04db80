// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/bulb"
)

// Sink receives rendered frames. render.FrameSink has the same method set.
type Sink interface {
	WriteFrame(index uint64, img image.Image) error
}

// FilePattern names captured frames by frame index.
const FilePattern = "frame_%05d.png"

// PNGSequence writes frames as numbered PNG files into a directory.
type PNGSequence struct {
	dir   string
	scale float64
	limit int

	mu      sync.Mutex
	written int
	pending int // writes in progress, counted against limit
}

// Option configures a PNGSequence.
type Option func(*PNGSequence)

// WithScale resizes frames by factor before encoding. Factors outside
// (0, 1] are ignored.
func WithScale(factor float64) Option {
	return func(s *PNGSequence) {
		if factor > 0 && factor <= 1 {
			s.scale = factor
		}
	}
}

// WithLimit stops writing after n frames. Zero means unlimited.
func WithLimit(n int) Option {
	return func(s *PNGSequence) {
		if n >= 0 {
			s.limit = n
		}
	}
}

// NewPNGSequence creates dir if needed and returns a sink writing into it.
func NewPNGSequence(dir string, opts ...Option) (*PNGSequence, error) {
	if dir == "" {
		return nil, errors.New("capture: empty output directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	s := &PNGSequence{dir: dir, scale: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WriteFrame encodes img to dir/frame_<index>.png. Frames past the limit
// are dropped without error.
func (s *PNGSequence) WriteFrame(index uint64, img image.Image) error {
	s.mu.Lock()
	if s.limit > 0 && s.written >= s.limit {
		s.mu.Unlock()
		return nil
	}
	s.written++
	s.mu.Unlock()

	if s.scale != 1 {
		img = scale(img, s.scale)
	}

	path := filepath.Join(s.dir, fmt.Sprintf(FilePattern, index))
	if err := savePNG(path, img); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	bulb.Logger().Debug("capture: frame written", "path", path)
	return nil
}

// Written returns the number of frames written so far.
func (s *PNGSequence) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Dir returns the output directory.
func (s *PNGSequence) Dir() string { return s.dir }

func scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is built from the configured directory
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
