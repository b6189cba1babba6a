package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output keeps log lines consumable by
// the surrounding collector; the level comes from CHAINPASS_LOG_LEVEL.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("CHAINPASS_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
