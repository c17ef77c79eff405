// Package logging builds the structured zerolog logger used across DutyFlow.
//
// The TUI owns the terminal, so logs go to <home>/logs/dutyflow.log as JSON
// lines. Components receive a zerolog.Logger; tests pass zerolog.Nop().
//
//	TRACE (-1) → DEBUG (0) → INFO (1) → WARN (2) → ERROR (3)
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FileName is the log file created inside the logs directory.
const FileName = "dutyflow.log"

// Options controls logger construction.
type Options struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	// Defaults to info when empty or unrecognised.
	Level string
	// Pretty switches to zerolog's console writer (useful when piping to a
	// terminal outside the TUI).
	Pretty bool
	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
}

// New builds a logger writing to opts.Output.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("app", "dutyflow").
		Logger()
}

// File is a logger bound to an open log file.
type File struct {
	Logger zerolog.Logger
	file   *os.File
}

// OpenFile creates (or appends to) logs/dutyflow.log under logDir.
func OpenFile(logDir string, opts Options) (*File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	opts.Output = f
	return &File{Logger: New(opts), file: f}, nil
}

// Close releases the file handle.
func (f *File) Close() error {
	if f == nil || f.file == nil {
		return nil
	}
	return f.file.Close()
}

// ParseLevel converts a level name to a zerolog.Level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
