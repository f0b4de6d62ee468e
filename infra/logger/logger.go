package logger

import corelogger "github.com/kilianp07/pvbess/core/logger"

// Logger aliases the core contract so adapters only import this package.
type Logger = corelogger.Logger

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// New returns the zerolog-backed Logger for the given component. The output
// format follows the APP_ENV variable: "dev" selects the console writer,
// anything else structured JSON.
func New(component string) Logger {
	return NewZerologLogger(component)
}
