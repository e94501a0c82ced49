// Package forensiclog provides the narrow structured-logging interface used
// by the engines to report recoverable per-cell/per-record warnings during a
// tree walk or block scan (spec §7's OPTIONAL "skip and warn" behavior).
//
// Library code never constructs a backend itself: NewNop returns a no-op
// Logger so importing this module never forces zap (or any logging
// framework) on a caller that doesn't want one. The CLI wires a real zap
// logger via NewZap.
package forensiclog

import "go.uber.org/zap"

// Logger is the interface the engines depend on.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// zapLogger adapts a *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap builds a Logger backed by zap's production configuration. Intended
// for use by cmd/forensicdb; library callers should not need this.
func NewZap() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: l.Sugar()}, nil
}

func (z *zapLogger) Infof(format string, args ...any)  { z.s.Infof(format, args...) }
func (z *zapLogger) Warnf(format string, args ...any)  { z.s.Warnf(format, args...) }
func (z *zapLogger) Errorf(format string, args ...any) { z.s.Errorf(format, args...) }
