package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/unwind/internal/config"
)

// NewLogger creates a structured zerolog.Logger for the named service.
// The level comes from config and falls back to info when unparseable.
func NewLogger(cfg *config.Config, service string) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if service != "" {
		ctx = ctx.Str("service", service)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
