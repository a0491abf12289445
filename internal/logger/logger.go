// Package logger is the application's structured logger. Every call takes a
// message followed by alternating keys and values.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes key/value records through zap.
type Logger struct {
	s *zap.SugaredLogger
}

// Options picks the encoder and the minimum level.
type Options struct {
	// Dev selects the console encoder with caller and stack traces on warn.
	// Otherwise records are JSON.
	Dev bool
	// Level is a zap level name ("debug", "info", ...). Empty keeps the
	// encoder's default: debug in dev, info otherwise.
	Level string
}

// New builds a logger from opts.
func New(opts Options) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Dev {
		cfg = zap.NewDevelopmentConfig()
	}
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{s: z.Sugar()}, nil
}

// Nop discards everything. Tests use it.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// Sync flushes buffered records.
func (l *Logger) Sync() {
	_ = l.s.Sync()
}

// Debug, Info, Warn and Error log msg with alternating keys and values.
func (l *Logger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, kv ...any) { l.s.Fatalw(msg, kv...) }

// With returns a child logger that adds kv to every record.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{s: l.s.With(kv...)}
}
