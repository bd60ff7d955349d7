package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls logger verbosity
type Level string

const (
	// LevelDebug enables all logs
	LevelDebug Level = "debug"
	// LevelInfo enables info, progress, warning, and error logs
	LevelInfo Level = "info"
	// LevelProgress enables deploy step progress, warnings, and errors (default)
	LevelProgress Level = "progress"
	// LevelMinimal enables only warning and error logs
	LevelMinimal Level = "minimal"
	// LevelWarn enables only warning and error logs (alias for minimal)
	LevelWarn Level = "warn"
	// LevelError enables only error logs
	LevelError Level = "error"
)

// global logger instance
var (
	globalLogger *zap.SugaredLogger
	globalMutex  sync.RWMutex
)

// Config holds logger configuration
type Config struct {
	Level  Level
	Format string // "console" or "json"
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:  LevelProgress,
		Format: "console",
	}
}

// ParseLevel validates a level name coming from a flag or config file.
// An empty string resolves to the default level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelDebug, LevelInfo, LevelProgress, LevelMinimal, LevelWarn, LevelError:
		return Level(s), nil
	case "":
		return LevelProgress, nil
	}
	return "", fmt.Errorf("unknown log level %q (valid: debug, info, progress, minimal, warn, error)", s)
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	logger, err := build(cfg)
	if err != nil {
		return err
	}

	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalLogger = logger
	return nil
}

// zapLevel maps our level to a zap level
func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelProgress:
		// Progress rides on zap's info level. A dedicated custom level is
		// not worth a custom core yet.
		return zapcore.InfoLevel
	case LevelMinimal, LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// build creates a logger for the given config. Logs go to stderr so that
// generator output and command results own stdout.
func build(cfg Config) (*zap.SugaredLogger, error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: console, json)", cfg.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapLevel(cfg.Level))
	return zap.New(core).Sugar(), nil
}

// Get returns the global logger.
// If not initialized, it initializes with default config.
func Get() *zap.SugaredLogger {
	globalMutex.RLock()
	logger := globalLogger
	globalMutex.RUnlock()

	if logger != nil {
		return logger
	}

	// Build outside the lock; Init also takes it.
	loggerToSet, err := build(DefaultConfig())
	if err != nil {
		// The default config always builds.
		panic(err)
	}

	globalMutex.Lock()
	defer globalMutex.Unlock()

	// Another goroutine may have won the race.
	if globalLogger != nil {
		return globalLogger
	}

	globalLogger = loggerToSet
	return globalLogger
}

// Replace swaps the global logger and returns a function that restores the
// previous one. Intended for tests.
func Replace(l *zap.SugaredLogger) func() {
	globalMutex.Lock()
	prev := globalLogger
	globalLogger = l
	globalMutex.Unlock()

	return func() {
		globalMutex.Lock()
		globalLogger = prev
		globalMutex.Unlock()
	}
}

// Debug logs a debug message with key-value pairs
func Debug(msg string, args ...interface{}) {
	Get().Debugw(msg, args...)
}

// Debugf logs a formatted debug message
func Debugf(template string, args ...interface{}) {
	Get().Debugf(template, args...)
}

// Info logs an info message with key-value pairs
func Info(msg string, args ...interface{}) {
	Get().Infow(msg, args...)
}

// Infof logs a formatted info message
func Infof(template string, args ...interface{}) {
	Get().Infof(template, args...)
}

// Progress logs a deploy step progress message
func Progress(msg string, args ...interface{}) {
	Get().Infow(msg, args...)
}

// Progressf logs a formatted progress message
func Progressf(template string, args ...interface{}) {
	Get().Infof(template, args...)
}

// Warn logs a warning message with key-value pairs
func Warn(msg string, args ...interface{}) {
	Get().Warnw(msg, args...)
}

// Warnf logs a formatted warning message
func Warnf(template string, args ...interface{}) {
	Get().Warnf(template, args...)
}

// Error logs an error message with key-value pairs
func Error(msg string, args ...interface{}) {
	Get().Errorw(msg, args...)
}

// Errorf logs a formatted error message
func Errorf(template string, args ...interface{}) {
	Get().Errorf(template, args...)
}

// With returns a logger with additional fields
func With(args ...interface{}) *zap.SugaredLogger {
	return Get().With(args...)
}

// Sync flushes any buffered log entries
func Sync() error {
	globalMutex.RLock()
	logger := globalLogger
	globalMutex.RUnlock()

	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// Reset resets the global logger (mainly for testing)
func Reset() {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
	globalLogger = nil
}
