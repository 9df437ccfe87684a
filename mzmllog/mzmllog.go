// Package mzmllog adapts go.uber.org/zap to the mzml.Logger interface so
// callers can get structured logs out of the core reader without the core
// itself depending on zap.
package mzmllog

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to mzml.Logger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps s for use as an mzml.Logger.
func NewZapLogger(s *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{s: s}
}

func (z *ZapLogger) Debugf(format string, args ...any) {
	z.s.Debugf(format, args...)
}

func (z *ZapLogger) Warnf(format string, args ...any) {
	z.s.Warnf(format, args...)
}
