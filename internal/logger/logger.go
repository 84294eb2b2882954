// Package logger wraps zerolog behind the small interface the rest of
// reviewdeck logs through.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level, format and destination of log output.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string // empty writes to stderr
}

// Logger defines the logging surface used across the application.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error, msg string)
	With(fields map[string]any) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

// New creates a Logger writing to out.
func New(cfg Config, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: true}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
		if err != nil {
			tmp := zerolog.New(out).With().Timestamp().Logger()
			tmp.Warn().Msgf("invalid log level %q, defaulting to info", cfg.Level)
		}
	}

	return &zerologLogger{logger: zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

// Open creates a Logger for cfg, opening cfg.File for append when set. The
// returned closer releases the file.
func Open(cfg Config) (Logger, io.Closer, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return New(cfg, os.Stderr), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(cfg, file), file, nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}

func (l *zerologLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *zerologLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *zerologLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zerologLogger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// With creates a sub-logger with additional fields.
func (l *zerologLogger) With(fields map[string]any) Logger {
	return &zerologLogger{logger: l.logger.With().Fields(fields).Logger()}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
