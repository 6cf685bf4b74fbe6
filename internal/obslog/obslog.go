// Package obslog wraps zap so the rest of the module depends on a small
// logging seam instead of the zap API directly.
package obslog

import (
	"go.uber.org/zap"
)

// Logger is the structured logger threaded through the engine, scheduler
// and search core; the rewriter takes none. It is always passed explicitly as a field, never
// reached through a package global.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a development-style logger (human-readable, colorized level)
// when verbose is true, and a quieter production logger otherwise.
func New(verbose bool) *Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = true
	}
	z, err := cfg.Build()
	if err != nil {
		// Logging must never be the reason a compression step fails to run.
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar()}
}

// Nop returns a logger that discards everything, used by default in tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop().Sugar()}
}

// With returns a child logger with the given component name attached.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With("component", component)}
}

func (l *Logger) Debugw(msg string, kv ...any) { l.z.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...any)   { l.z.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...any)   { l.z.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...any)  { l.z.Errorw(msg, kv...) }

// Sync flushes any buffered log entries. Call once at process exit.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}
