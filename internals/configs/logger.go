package configs

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger: JSON handler untuk production, text handler untuk dev.
// Level dari LOG_LEVEL (debug|info|warn|error), default info.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(GetEnv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(GetEnv("APP_ENV", AppEnv), "production") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With(slog.String("service", "jadwalku"))
}
