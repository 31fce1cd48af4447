package logging

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// current is swapped by the logging component on start and stop. Library
// code (mirror, providers, runner) logs through the helpers below and never
// holds a Logger of its own.
var current atomic.Pointer[Logger]

func init() { SetGlobalLogger(discard{}) }

// discard drops everything; it is in place before the component starts and
// after it stops, so one-shot CLI paths and tests can log unconditionally.
type discard struct{}

func (discard) Debug(context.Context, string, ...zap.Field) {}
func (discard) Info(context.Context, string, ...zap.Field)  {}
func (discard) Warn(context.Context, string, ...zap.Field)  {}
func (discard) Error(context.Context, string, ...zap.Field) {}
func (d discard) With(...zap.Field) Logger                  { return d }
func (discard) Sync() error                                 { return nil }

func SetGlobalLogger(l Logger) {
	if l != nil {
		current.Store(&l)
	}
}

func L() Logger { return *current.Load() }

func Debug(ctx context.Context, msg string, fields ...zap.Field) { L().Debug(ctx, msg, fields...) }
func Info(ctx context.Context, msg string, fields ...zap.Field)  { L().Info(ctx, msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...zap.Field)  { L().Warn(ctx, msg, fields...) }
func Error(ctx context.Context, msg string, fields ...zap.Field) { L().Error(ctx, msg, fields...) }

// The f variants call L() directly so every helper sits at the same caller depth.
func Debugf(ctx context.Context, format string, args ...any) {
	L().Debug(ctx, fmt.Sprintf(format, args...))
}
func Infof(ctx context.Context, format string, args ...any) {
	L().Info(ctx, fmt.Sprintf(format, args...))
}
func Warnf(ctx context.Context, format string, args ...any) {
	L().Warn(ctx, fmt.Sprintf(format, args...))
}
func Errorf(ctx context.Context, format string, args ...any) {
	L().Error(ctx, fmt.Sprintf(format, args...))
}
