// Package logging configures the process-wide zerolog logger for the
// console and its packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level names accepted in configuration.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written.
	Level string

	// Format is "json" (default) or "console".
	Format string

	// Output defaults to os.Stderr so stdout stays clean for command output.
	Output io.Writer
}

// DefaultConfig returns warn-level console logging on stderr, which keeps
// interactive CLI output readable.
func DefaultConfig() Config {
	return Config{
		Level:  LevelWarn,
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// Validate rejects unknown levels and formats.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", FormatJSON, FormatConsole:
		return nil
	default:
		return fmt.Errorf("unknown log format %q (want json or console)", c.Format)
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if strings.EqualFold(cfg.Format, FormatConsole) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	if err != nil {
		logger.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
	}
	return logger
}

// ParseLevel converts a level name to zerolog.Level. An empty name is info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelDebug:
		return zerolog.DebugLevel, nil
	case LevelInfo, "":
		return zerolog.InfoLevel, nil
	case LevelWarn, "warning":
		return zerolog.WarnLevel, nil
	case LevelError:
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow and cache decisions
//   - Cache hit/miss, conditional requests, invalidations
//   - Page fetch progress
//   - Rate limit state updates while healthy
//
// Info: operator-visible events
//   - Login, logout, credential cleared after a 401
//   - Resources created, deleted, tasks assigned or completed
//   - Requests that succeeded after a retry
//
// Warn: degraded but working
//   - Rate limit warning band (throttling)
//   - Retries, cache errors, partial page fetches
//   - Server-side logout failures
//
// Error: the request did not happen
//   - Critical rate limit blocks
//   - Network failures
//
// Context Fields:
//   - component: package emitting the line (api-client, session, workflow, cli)
//   - resource: workflow collection (customers, tasks, ...)
//   - endpoint: API path
//   - request_id: X-Request-ID sent with the request
//   - status: HTTP status code
//   - error_class: client, auth, server, rate_limit, network
//   - remaining: requests left in the rate limit window
