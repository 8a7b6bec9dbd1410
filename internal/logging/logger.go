package logging

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// current holds the process logger. Session goroutines log concurrently
// with Initialize, so it is swapped atomically.
var current atomic.Pointer[zap.Logger]

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "DEVGRID_LOG_LEVEL"

// Initialize installs a logger at the given level. An empty level falls
// back to DEVGRID_LOG_LEVEL; if that is empty too, logging is silent.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		current.Store(zap.NewNop())
		return nil
	}

	l, err := newConsoleLogger(parseLevel(level))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	current.Store(l)
	return nil
}

// InitializeFromEnv initializes the logger from the DEVGRID_LOG_LEVEL
// environment variable. CLI commands use this for silent-by-default output.
func InitializeFromEnv() error {
	return Initialize("")
}

// parseLevel maps a level name to a zap level. Unknown names mean info,
// since asking for logs at all should produce some.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// newConsoleLogger builds a colored console logger writing to stderr, which
// keeps the TUI and list output on stdout clean.
func newConsoleLogger(level zapcore.Level) (*zap.Logger, error) {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    enc,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	current.Store(l)
}

// GetLogger returns the global logger, or a nop logger before Initialize.
func GetLogger() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// Fatal logs and exits the process
func Fatal(msg string, fields ...zap.Field) { GetLogger().Fatal(msg, fields...) }

// LogGridEvent logs an event emitted by a grid instance
func LogGridEvent(source string, event string, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("source", source),
		zap.String("event", event),
	}, fields...)
	Debug("Grid event", all...)
}

// LogSession logs a session lifecycle event on the WebSocket server
func LogSession(sessionID string, remoteAddr string, event string) {
	Info("Session event",
		zap.String("session_id", sessionID),
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogScan logs the outcome of an mDNS discovery scan
func LogScan(service string, found int, err error) {
	if err != nil {
		Warn("Discovery scan failed",
			zap.String("service", service),
			zap.Error(err),
		)
		return
	}
	Info("Discovery scan completed",
		zap.String("service", service),
		zap.Int("devices", found),
	)
}

// LogConfigReload logs a configuration file reload
func LogConfigReload(path string, err error) {
	if err != nil {
		Warn("Config reload failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	Info("Config reloaded", zap.String("path", path))
}

// Sync flushes any buffered log entries
func Sync() {
	if l := current.Load(); l != nil {
		_ = l.Sync()
	}
}
