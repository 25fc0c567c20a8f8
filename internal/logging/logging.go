// Package logging configures the global zerolog logger for the CLI.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is console or json.
	Format string `koanf:"format"`
}

var log zerolog.Logger

func init() {
	Init(Config{Level: "info", Format: "console"})
}

// Init configures the global logger. Safe to call again to reconfigure,
// e.g. when --verbose bumps the level to debug.
func Init(cfg Config) {
	level := parseLevel(cfg.Level)

	out := zerolog.New(os.Stderr)
	if cfg.Format != "json" {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	log = out.Level(level).With().Timestamp().Logger()
}

// WithRunID attaches a correlation id to every subsequent log event.
func WithRunID(runID string) {
	log = log.With().Str("run_id", runID).Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
