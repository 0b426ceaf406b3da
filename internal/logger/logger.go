// Package logger provides a simple logging interface for homestats components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation. The process logger is
// backed by zerolog and writes JSON (or console output when Pretty is set).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Config controls the process logger.
type Config struct {
	// Level is one of zerolog's level names (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`
	// Output is "stderr", "stdout", or a file path.
	Output string `yaml:"output" mapstructure:"output"`
	// Pretty switches to zerolog's human-readable console writer.
	Pretty bool `yaml:"pretty" mapstructure:"pretty"`
}

// zeroLogger implements Logger on top of a zerolog.Logger.
type zeroLogger struct {
	zl zerolog.Logger
}

// NewZerolog wraps an existing zerolog logger.
func NewZerolog(zl zerolog.Logger) Logger {
	return &zeroLogger{zl: zl}
}

// New creates a logger that writes to w at the given level.
func New(w io.Writer, level zerolog.Level) Logger {
	return &zeroLogger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (l *zeroLogger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *zeroLogger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *zeroLogger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *zeroLogger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// noopLogger implements Logger but discards all messages.
// Useful for testing or when logging is not desired.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// Safe for concurrent use since pollers log from several goroutines.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains returns true if any message at level contains substr.
func (l *BufferLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}

var (
	mu         sync.RWMutex
	base       = zerolog.New(os.Stderr).With().Timestamp().Logger()
	defaultLog Logger
	outputFile *os.File
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	defaultLog = NewZerolog(base)
}

// Init configures the process logger. HOMESTATS_DEBUG forces debug level.
func Init(cfg Config) error {
	var output io.Writer = os.Stderr
	var file *os.File

	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		output = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		output = f
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen, NoColor: file != nil}
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			if file != nil {
				_ = file.Close()
			}
			return err
		}
		level = parsed
	}
	if os.Getenv("HOMESTATS_DEBUG") != "" {
		level = zerolog.DebugLevel
	}

	mu.Lock()
	defer mu.Unlock()
	if outputFile != nil {
		_ = outputFile.Close()
	}
	outputFile = file
	base = zerolog.New(output).Level(level).With().Timestamp().Logger()
	defaultLog = NewZerolog(base)
	return nil
}

// Close releases the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if outputFile == nil {
		return nil
	}
	err := outputFile.Close()
	outputFile = nil
	return err
}

// WithComponent returns a child of the process logger tagged with component.
func WithComponent(component string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return NewZerolog(base.With().Str("component", component).Logger())
}

// Default returns the default logger for the package.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLog
}

// SetDefault sets the default logger for the package.
// This is useful for testing or to configure logging globally.
func SetDefault(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLog = l
}
