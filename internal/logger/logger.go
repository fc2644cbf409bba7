package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar   = zap.NewNop().Sugar()
	logPath string
)

// Init initializes the process logger. An empty path logs to stderr.
func Init(level, path string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	sugar = l.Sugar()
	logPath = path

	LogInfo("Logger initialized, level=%s file=%q", lvl, path)
	return nil
}

// Use swaps in an existing logger (tests use zaptest/observer loggers)
func Use(l *zap.Logger) {
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Close flushes buffered entries
func Close() {
	_ = sugar.Sync()
}

// LogDebug logs a debug message
func LogDebug(format string, args ...any) {
	sugar.Debugf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...any) {
	sugar.Infof(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...any) {
	sugar.Errorf(format, args...)
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	sugar.Errorw("panic recovered", "panic", r, "stack", string(debug.Stack()))
}

// GetLogPath returns the current log file path
func GetLogPath() string {
	return logPath
}
