// Package logger is the process-wide logging facade. Verbosity follows the
// CLI levels: 0 = info and above, 1 = debug logs, 2 = raw switch/provider
// output, 3 = debug logs and raw output.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const Program = "cscc"

var (
	mu        sync.RWMutex
	sugar     *zap.SugaredLogger
	verbosity int
)

func init() {
	sugar = build(zapcore.InfoLevel).Sugar()
}

func build(level zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	l, err := cfg.Build()
	if err != nil {
		return zap.NewExample()
	}
	return l.Named(Program)
}

// SetVerbosity rebuilds the logger for the given verbosity level
func SetVerbosity(level int) {
	mu.Lock()
	defer mu.Unlock()
	verbosity = level
	zl := zapcore.InfoLevel
	if level == 1 || level == 3 {
		zl = zapcore.DebugLevel
	}
	sugar = build(zl).Sugar()
}

// Replace swaps the underlying logger and returns a function restoring the previous one.
// The verbosity level is left untouched.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := sugar
	sugar = l.Sugar()
	mu.Unlock()
	return func() {
		mu.Lock()
		sugar = prev
		mu.Unlock()
	}
}

// IsDebugEnabled returns true if debug logs are enabled
func IsDebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbosity == 1 || verbosity == 3
}

// IsRawOutputEnabled returns true if raw switch output is enabled
func IsRawOutputEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbosity == 2 || verbosity == 3
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs a formatted message at debug level, shown at verbosity 1 and 3
func Debug(format string, v ...interface{}) {
	current().Debugf(format, v...)
}

// Info logs a formatted message at info level
func Info(format string, v ...interface{}) {
	current().Infof(format, v...)
}

// Warn logs a formatted message at warn level
func Warn(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

// Error logs a formatted message at error level
func Error(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

// Raw logs unparsed device or provider output when raw output is enabled
func Raw(label, output string) {
	if !IsRawOutputEnabled() {
		return
	}
	current().Infof("Raw output of '%s':\n%s", label, output)
}

// Sync flushes buffered entries
func Sync() error {
	return current().Sync()
}
