package bulb

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while the render loop is logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for bulb and all its sub-packages.
// By default, bulb produces no log output.
//
// Pass nil to restore the default silent behavior.
//
// Log levels used by bulb:
//   - [slog.LevelDebug]: per-frame detail (uniform values, submission index)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, pause toggled, kernel reloaded)
//   - [slog.LevelWarn]: transient failures (frame submission failed, invalid kernel edit)
//
// Example:
//
//	bulb.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by bulb.
// Sub-packages (render/, kernel/, host/) call this to share the same
// logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
