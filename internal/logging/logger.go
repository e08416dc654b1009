// Package logging builds the zerolog logger used by the mongol command and
// handed to the driver and the logging hook.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, format and destination of the logs.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
	Output string `yaml:"output"` // stdout, stderr or a file path
}

// New creates a logger from cfg and returns the closer of its destination.
// Closing is a no-op for stdout and stderr; for a file output the caller must
// close it once logging is done.
//
// An unknown level falls back to info. An output file that cannot be opened
// falls back to stdout and the error is logged.
//
// Example:
//
//	logger, closer := logging.New(cfg.Logging)
//	defer closer.Close()
func New(cfg Config) (zerolog.Logger, io.Closer) {
	out, closer, openErr := openOutput(cfg.Output)

	var writer io.Writer = out
	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(writer).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	if openErr != nil {
		logger.Warn().Err(openErr).Str("output", cfg.Output).Msg("log file unavailable, using stdout")
	}
	return logger, closer
}

func parseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openOutput resolves the destination. Standard streams are never closed.
func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nopCloser{}, nil
	case "stderr":
		return os.Stderr, nopCloser{}, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return os.Stdout, nopCloser{}, err
	}
	return f, f, nil
}
