// Package logger configures the process-wide slog logger for bindgen.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Format    string // "text" or "json"
	Output    io.Writer
	AddSource bool
	LogFile   string
}

// DefaultConfig logs warnings and errors as text on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// Init installs a logger built from cfg as the slog default. The returned
// closer releases LogFile, if one was opened.
func Init(cfg Config) (io.Closer, error) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		output, closer = file, file
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "", "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		closer.Close()
		return nil, fmt.Errorf("unknown log format %q (want text or json)", cfg.Format)
	}
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// LogPhase records the start of a pipeline phase.
func LogPhase(phase string, args ...any) {
	slog.Info("phase started", append([]any{"phase", phase}, args...)...)
}

// LogPhaseComplete records the end of a pipeline phase.
func LogPhaseComplete(phase string, args ...any) {
	slog.Info("phase complete", append([]any{"phase", phase}, args...)...)
}

// LogEmit records one generated file.
func LogEmit(target, module, path string, size int) {
	slog.Debug("emitted", "target", target, "module", module, "path", path, "bytes", size)
}
