// Package logger wraps zerolog behind a small interface the rest of the
// application depends on.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"go-blog-app/internal/config"
)

// Logger defines a standard interface for logging.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error, msg string)
	Fatal(err error, msg string)
	With(fields map[string]interface{}) Logger
}

type zlog struct {
	z zerolog.Logger
}

// New creates a Logger writing to out. Format "console" gives human readable
// lines, anything else JSON. An unknown level falls back to info and says so.
func New(cfg config.LogConfig, out io.Writer) Logger {
	w := out
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stdout, TimeFormat: "15:04:05"}
	}

	level, known := parseLevel(cfg.Level)
	z := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if !known {
		z.Warn().Str("level_name", cfg.Level).Msg("Unknown log level, using info")
	}
	return &zlog{z: z}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zlog{z: zerolog.Nop()}
}

func parseLevel(s string) (zerolog.Level, bool) {
	if s == "" {
		return zerolog.InfoLevel, true
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return level, true
}

func (l *zlog) Debug(msg string) { l.z.Debug().Msg(msg) }

func (l *zlog) Info(msg string) { l.z.Info().Msg(msg) }

func (l *zlog) Warn(msg string) { l.z.Warn().Msg(msg) }

func (l *zlog) Error(err error, msg string) { l.z.Error().Err(err).Msg(msg) }

// Fatal logs and exits the process.
func (l *zlog) Fatal(err error, msg string) { l.z.Fatal().Err(err).Msg(msg) }

// With returns a child logger that adds fields to every entry.
func (l *zlog) With(fields map[string]interface{}) Logger {
	return &zlog{z: l.z.With().Fields(fields).Logger()}
}
