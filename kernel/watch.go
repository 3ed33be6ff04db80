// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package kernel

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/bulb"
)

// DefaultDebounce is the quiet period after the last file event before a
// kernel is reloaded. Editors often emit several events per save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a kernel file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	apply    func(src string) error
}

// NewWatcher creates a watcher for path. apply is called with the new
// source after it passes Validate; invalid edits are logged and skipped so
// the running kernel stays in place.
func NewWatcher(path string, apply func(src string) error) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		apply:    apply,
	}
}

// Watch is shorthand for NewWatcher(path, apply).Run(ctx).
func Watch(ctx context.Context, path string, apply func(src string) error) error {
	return NewWatcher(path, apply).Run(ctx)
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file so that editors replacing the file by rename are
// still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("kernel: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("kernel: watch %s: %w", w.path, err)
	}
	bulb.Logger().Info("kernel: watching", "path", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			bulb.Logger().Warn("kernel: watcher error", "error", err)

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	src, err := Load(w.path)
	if err != nil {
		bulb.Logger().Warn("kernel: reload rejected", "path", w.path, "error", err)
		return
	}
	if err := w.apply(src); err != nil {
		bulb.Logger().Warn("kernel: apply failed", "path", w.path, "error", err)
		return
	}
	bulb.Logger().Info("kernel: reloaded", "path", w.path)
}
