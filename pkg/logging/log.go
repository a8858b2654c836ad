package logging

import (
	"log/slog"
	"os"
)

// Logger defaults to a text handler so packages can log before Init runs
// (tests, one-off tools). Init reconfigures it from the environment.
var Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func Init() {
	level := slog.LevelInfo
	if os.Getenv("LOG_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	env := os.Getenv("APP_ENV")
	if env == "prod" {
		Logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
}
