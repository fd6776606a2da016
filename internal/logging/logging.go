// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging wraps the structured logger used across the admin
// circuit service, mirroring the Logger field type threaded through the
// teacher's networking/router and networking/handler packages.
package logging

import (
	"github.com/luxfi/zap"
)

// Logger is the structured logging interface used by every component of
// the admin service. It intentionally mirrors the shape already in wide
// use across the reference consensus stack so call sites read the same
// whether they're logging a consensus event or an intake request.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	// With returns a child logger that always includes the given fields.
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	l *zap.Logger
}

// New builds a production logger.
func New() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l}
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }

func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

// NoOp returns a logger that discards everything, for tests.
func NoOp() Logger {
	return &zapLogger{l: zap.NewNop()}
}
