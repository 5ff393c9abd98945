package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger and installs it as the zerolog global.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	logger := newLogger(cfg, os.Stdout)
	log.Logger = logger
	return logger
}

func newLogger(cfg LoggingConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	output := out
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Str("service", "kampuskuevent").Logger()
}
