// Package log defines the node's structured logging interface.
package log

import "go.uber.org/zap"

// Logger is the structured logger contract used across the node. Concrete
// implementations wrap zap so call sites never depend on the zap API directly.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With returns a Logger carrying additional structured fields.
	With(args ...interface{}) Logger

	Sync() error

	// GetZapLogger exposes the underlying zap logger for callers that need
	// zap-native fields (e.g. zap.Error) without widening this interface.
	GetZapLogger() *zap.Logger
}
