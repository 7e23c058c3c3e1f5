package logger

import "context"

// nopLogger discards everything
type nopLogger struct{}

// NewNop returns a Logger that drops all entries. Useful in tests and for
// components constructed without a logger.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field)               {}
func (nopLogger) Info(string, ...Field)                {}
func (nopLogger) Warn(string, ...Field)                {}
func (nopLogger) Error(string, ...Field)               {}
func (n nopLogger) With(...Field) Logger               { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
func (nopLogger) Level() Level                         { return LevelError }
