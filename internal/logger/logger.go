package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
	mu            sync.RWMutex
)

// Init initializes the default logger with a console writer on os.Stderr.
// It ensures that the logger is initialized only once.
func Init() {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		defaultLogger = build(os.Stderr, "text", zerolog.InfoLevel)
	})
}

// Configure replaces the default logger. Format is "text" or "json"; level is
// any zerolog level name. Unknown levels fall back to info.
func Configure(level, format string) {
	Init()
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	defaultLogger = build(os.Stderr, format, lvl)
	mu.Unlock()
}

// SetOutput redirects the default logger, keeping its level. Used by tests.
func SetOutput(w io.Writer) {
	Init()
	mu.Lock()
	defaultLogger = defaultLogger.Output(w)
	mu.Unlock()
}

func build(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Get returns the initialized default logger.
func Get() zerolog.Logger {
	Init()
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// For returns a logger tagged with a component name.
func For(component string) zerolog.Logger {
	l := Get()
	return l.With().Str("component", component).Logger()
}

// Info logs an informational message with optional key/value pairs.
func Info(msg string, args ...any) {
	l := Get()
	l.Info().Fields(args).Msg(msg)
}

// Warn logs a warning message with optional key/value pairs.
func Warn(msg string, args ...any) {
	l := Get()
	l.Warn().Fields(args).Msg(msg)
}

// Error logs an error message using the default logger.
func Error(msg string, err error, args ...any) {
	l := Get()
	l.Error().Err(err).Fields(args).Msg(msg)
}

// Debug logs a debug message with optional key/value pairs.
func Debug(msg string, args ...any) {
	l := Get()
	l.Debug().Fields(args).Msg(msg)
}
