package borrowecs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option customizes a World built by NewWorldWithConfig.
type Option func(*worldOptions)

type worldOptions struct {
	logger *zerolog.Logger
	output io.Writer
}

// WithLogger makes the World log through l instead of building its own
// logger from the configuration.
func WithLogger(l zerolog.Logger) Option {
	return func(o *worldOptions) { o.logger = &l }
}

// WithLogOutput sends the World's log output to w. The default is stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *worldOptions) { o.output = w }
}

func newLogger(cfg Config, opts worldOptions, worldID uuid.UUID) zerolog.Logger {
	if opts.logger != nil {
		return opts.logger.With().Str("world", worldID.String()).Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.Disabled
	}
	if level == zerolog.Disabled {
		return zerolog.Nop()
	}
	out := opts.output
	if out == nil {
		out = os.Stderr
	}
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("world", worldID.String()).Logger()
}
