package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the process-wide logger used by the CLI and as the default
	// for clients created without an explicit logger
	Logger zerolog.Logger
)

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// ParseLevel maps a flag value onto a Level, defaulting to info
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case DebugLevel:
		return DebugLevel
	case WarnLevel:
		return WarnLevel
	case ErrorLevel:
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the global logger
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithProjectID creates a child logger with project_id field
func WithProjectID(l zerolog.Logger, projectID string) zerolog.Logger {
	return l.With().Str("project_id", projectID).Logger()
}

// WithServiceID creates a child logger scoped to a single service.
// Both ids are attached since a service id is only unique within its project.
func WithServiceID(l zerolog.Logger, projectID, serviceID string) zerolog.Logger {
	return l.With().
		Str("project_id", projectID).
		Str("service_id", serviceID).
		Logger()
}

// WithStackName creates a child logger with stack field
func WithStackName(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("stack", name).Logger()
}
