// Package obslog sets up Meridian's structured logger: a size-rotated JSON
// file sink, optionally tee'd to stderr, built on log/slog the way the
// teacher wires its own server logging.
package obslog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation.
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep.
	MaxFiles int
	// WriteToStderr also tees output to stderr.
	WriteToStderr bool
}

// DefaultConfig returns sensible defaults for file logging.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig returns configuration for debug mode.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup initializes file-based logging and returns the logger plus a
// cleanup function that must be called to flush and close the log file.
// With an empty FilePath no file is opened and cleanup does nothing.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if cfg.FilePath == "" {
		var output io.Writer = io.Discard
		if cfg.WriteToStderr {
			output = os.Stderr
		}
		handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
		return slog.New(handler), func() {}, nil
	}

	if err := EnsureLogDir(); err != nil {
		return nil, nil, err
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	logger := slog.New(handler)

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}

	return logger, cleanup, nil
}

// SetupDefault sets up logging with default configuration and installs it
// as the slog default logger. Returns the cleanup function.
func SetupDefault() (func(), error) {
	logger, cleanup, err := Setup(DefaultConfig())
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts a string level to slog.Level.
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}
