package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	base  zerolog.Logger
	ready bool
	out   io.Writer = os.Stdout
)

// Init configures the global JSON logger.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
func Init() {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	zerolog.TimeFieldFormat = time.RFC3339Nano
	w := out
	if pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	base = zerolog.New(w).With().Timestamp().Str("service", "flexledger").Logger().Level(level)
	ready = true
}

// L returns the global logger. Call Init() once on startup.
func L() *zerolog.Logger {
	if !ready {
		Init()
	}
	return &base
}

// With returns a child of the global logger tagged with the given component name.
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// Ctx returns the logger carried by ctx (see zerolog.Logger.WithContext), or the
// global one when ctx has none, tagged with the given component name.
func Ctx(ctx context.Context, component string) zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = L()
	}
	return l.With().Str("component", component).Logger()
}

// SetOutput redirects the global logger and re-initializes it. Used by tests to capture lines.
func SetOutput(w io.Writer) {
	out = w
	Init()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
