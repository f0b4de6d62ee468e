// Package logger defines the logging contract shared across the scheduler.
// Core packages depend only on this interface; the zerolog-backed
// implementation lives under infra.
package logger

// Logger exposes formatted logging at the severities the scheduler uses.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
