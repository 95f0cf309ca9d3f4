// Package logger wraps a process-wide zap logger behind ctx-first helpers.
// Fields attached with WithFields travel with the context.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init replaces the global logger with a production zap logger at level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set installs l as the global logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

// L returns the global logger without context fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Sync() { _ = L().Sync() }

// WithFields returns a context whose log lines carry fields in addition to
// any already attached.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]zap.Field)
	merged := make([]zap.Field, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	l := L()
	if ctx != nil {
		if fields, ok := ctx.Value(ctxKey{}).([]zap.Field); ok {
			l = l.With(fields...)
		}
	}
	return l.Sugar()
}

func Debugf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Errorf(format, args...)
}

// Infow logs msg with structured key/value pairs.
func Infow(ctx context.Context, msg string, keysAndValues ...any) {
	fromContext(ctx).Infow(msg, keysAndValues...)
}

// Fatal logs err and exits the process.
func Fatal(ctx context.Context, err error) {
	fromContext(ctx).Fatal(err)
}
