// Package logging provides structured logging with file rotation.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/usestring/replaygraph-mcp/internal/config"
)

// Setup initializes the global slog logger from the server configuration.
// Returns a cleanup function that should be called on shutdown.
//
// With LOG_FILE unset, logs go to stderr; stdout is reserved for the MCP
// stdio transport.
func Setup(cfg *config.Config) (func() error, error) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}

	var writer io.Writer
	cleanup := func() error { return nil }

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, err
		}

		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
			LocalTime:  true,
		}
		writer = lj
		cleanup = lj.Close
	} else {
		writer = os.Stderr
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(writer, opts)))
	return cleanup, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
