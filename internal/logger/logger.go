// Package logger builds the structured loggers used by the server.
//
// The MCP stdio transport owns stdout, so every logger defaults to stderr.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps a configured level name to a slog level.
// Valid levels are: debug, info, warn, error
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", level)
	}
}

// NewLogger creates a new JSON structured logger with the specified log level.
func NewLogger(level string, output io.Writer) (*slog.Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if output == nil {
		output = os.Stderr
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler), nil
}

// NewFetchLogger creates the zerolog logger handed to the documentation fetchers.
// It writes human readable console output with timestamps.
func NewFetchLogger(level string, output io.Writer) (zerolog.Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	if output == nil {
		output = os.Stderr
	}

	zlevel := zerolog.InfoLevel
	switch slogLevel {
	case slog.LevelDebug:
		zlevel = zerolog.DebugLevel
	case slog.LevelWarn:
		zlevel = zerolog.WarnLevel
	case slog.LevelError:
		zlevel = zerolog.ErrorLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: output, NoColor: true}).
		Level(zlevel).
		With().
		Timestamp().
		Str("component", "fetcher").
		Logger(), nil
}

// Default creates a logger with info level and stderr output
func Default() *slog.Logger {
	logger, _ := NewLogger("info", os.Stderr)
	return logger
}
