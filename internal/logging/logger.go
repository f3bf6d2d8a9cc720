// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects log level and output format.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json (default) or text
	Output io.Writer
}

// New builds a zerolog logger from the config. Text format uses the pretty
// console writer for development; everything else emits JSON.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// SetGlobal installs logger as the package-level zerolog logger used by the
// middleware.
func SetGlobal(logger zerolog.Logger) {
	log.Logger = logger
}
