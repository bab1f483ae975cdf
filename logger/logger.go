package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the default logger writing to the console
func Init() {
	level := getLogLevel()
	zerolog.TimeFieldFormat = time.RFC3339
	Default = build(consoleWriter(), level)

	Default.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// AttachFile re-initializes the default logger to write JSON events to path
// as well as the console. Loggers created before the call keep their output.
// The returned closer closes the file.
func AttachFile(path string) (io.Closer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := getLogLevel()
	Default = build(zerolog.MultiLevelWriter(consoleWriter(), f), level)
	Default.Debug().Str("file", path).Msg("Logging to file")
	return f, nil
}

// New creates a logger writing JSON events to w at the given level.
func New(w io.Writer, level zerolog.Level) *Logger {
	return build(w, level)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// Get returns Default, initializing it on first use.
func Get() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

func build(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{logger: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("AUCTION_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// LogError logs err against a named task or component.
func (l *Logger) LogError(name string, err error) {
	l.logger.Error().Str("task", name).Err(err).Msg("task error")
}

// LogInfo logs a printf-style info message.
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func component(name string) *Logger {
	return Get().WithField("component", name)
}

// ForScraper creates a logger for the scrape pipeline
func ForScraper() *Logger { return component("scraper") }

// ForFetcher creates a logger for a document fetcher
func ForFetcher(mode string) *Logger {
	return component("fetcher").WithField("mode", mode)
}

// ForScheduler creates a logger for the scheduler loop
func ForScheduler() *Logger { return component("scheduler") }

// ForMonitor creates a logger for the monitor tasks
func ForMonitor() *Logger { return component("monitor") }

// ForNotifier creates a logger for the notifier
func ForNotifier() *Logger { return component("notifier") }

// ForStore creates a logger for the persistence store
func ForStore() *Logger { return component("store") }

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger { return component("publisher") }

// ForCache creates a logger for the cache
func ForCache() *Logger { return component("cache") }

// ForAPI creates a logger for the status API
func ForAPI() *Logger { return component("api") }
