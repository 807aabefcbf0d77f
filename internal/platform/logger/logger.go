package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger: JSON to stdout, level from
// NAMEDEX_LOG_LEVEL (debug, info, warn, error; defaults to info).
func New() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("NAMEDEX_LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
