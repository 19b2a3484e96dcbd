// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package logger wraps zap behind a small interface so components take a
// logger through their constructors and tests can swap in an observer core.
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by NewLogger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Field is a structured log field.
type Field = zapcore.Field

// Logger is the logging surface used across the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

type zapLogger struct {
	zap *zap.Logger
}

// NewLogger builds a JSON logger named after the service. Unknown levels
// fall back to info.
func NewLogger(name, level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{zap: l.Named(name)}
}

// New wraps an existing zap logger.
func New(l *zap.Logger) Logger {
	return &zapLogger{zap: l.WithOptions(zap.AddCallerSkip(1))}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zapLogger{zap: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.zap.Fatal(msg, fields...) }
func (l *zapLogger) Sync() error                       { return l.zap.Sync() }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{zap: l.zap.With(fields...)}
}

// Any logs an arbitrary value.
func Any(key string, value interface{}) Field { return zap.Any(key, value) }

// String logs a string value.
func String(key, value string) Field { return zap.String(key, value) }

// Int logs an int value.
func Int(key string, value int) Field { return zap.Int(key, value) }

// Bool logs a bool value.
func Bool(key string, value bool) Field { return zap.Bool(key, value) }

// Duration logs a duration value.
func Duration(key string, value time.Duration) Field { return zap.Duration(key, value) }

// Error logs an error under the "error" key.
func Error(err error) Field { return zap.Error(err) }
