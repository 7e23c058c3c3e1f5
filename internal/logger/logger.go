// Package logger is the structured logging facade used across daylog. Code
// logs through the Logger interface; the backend (log/slog or zap) is chosen
// once at startup from configuration.
package logger

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[LevelInfo]
}

// ParseLevel maps a configured level name to a Level. Unknown names fall back
// to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one structured key/value pair on a log entry
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field            { return Field{Key: key, Value: value} }
func Strings(key string, values []string) Field { return Field{Key: key, Value: values} }
func Int(key string, value int) Field           { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field   { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field         { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err records an error under the "error" key. A nil error logs as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger is implemented by every backend
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that adds fields to every entry
	With(fields ...Field) Logger
	// WithContext returns a child logger carrying the request and user ids
	// stored in ctx
	WithContext(ctx context.Context) Logger

	Level() Level
}

// Backend names accepted by New
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// Config selects and configures a backend
type Config struct {
	Level Level
	// Format is "json" or "text"
	Format string
	// Backend is BackendSlog or BackendZap
	Backend   string
	AddSource bool
	// Output receives log entries. Nil means stdout.
	Output io.Writer
}

// DefaultConfig returns JSON logs at info level through slog
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Format:  "json",
		Backend: BackendSlog,
	}
}

// New creates a Logger for the configured backend
func New(cfg Config) Logger {
	if cfg.Backend == BackendZap {
		return NewZapLogger(cfg)
	}
	return NewSlogLogger(cfg)
}

// Flush writes out any entries a backend buffers. Call it before exit.
func Flush(l Logger) error {
	if s, ok := l.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

var defaultLogger atomic.Pointer[Logger]

// SetDefault replaces the process-wide logger
func SetDefault(l Logger) {
	defaultLogger.Store(&l)
}

// Default returns the process-wide logger, creating a slog logger with the
// default configuration on first use
func Default() Logger {
	if l := defaultLogger.Load(); l != nil {
		return *l
	}
	l := NewSlogLogger(DefaultConfig())
	defaultLogger.CompareAndSwap(nil, &l)
	return *defaultLogger.Load()
}

func Debug(msg string, fields ...Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { Default().Error(msg, fields...) }
func With(fields ...Field) Logger       { return Default().With(fields...) }
