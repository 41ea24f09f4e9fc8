package logging

import (
	"fmt"
	"io"
	"strings"
)

// Logger provides structured logging with redaction support. Output goes to
// an injectable sink so callers can silence a whole call tree by handing in
// io.Discard instead of mutating process-wide streams.
type Logger struct {
	sink    io.Writer
	debug   bool
	noColor bool
}

// New creates a new logger instance writing to sink.
func New(sink io.Writer, debug, noColor bool) *Logger {
	if sink == nil {
		sink = io.Discard
	}
	return &Logger{
		sink:    sink,
		debug:   debug,
		noColor: noColor,
	}
}

// Sink returns the writer this logger emits to.
func (l *Logger) Sink() io.Writer {
	return l.sink
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !l.noColor {
		fmt.Fprintf(l.sink, "\033[32m✓\033[0m %s\n", msg)
	} else {
		fmt.Fprintf(l.sink, "✓ %s\n", msg)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !l.noColor {
		fmt.Fprintf(l.sink, "\033[33m⚠\033[0m %s\n", msg)
	} else {
		fmt.Fprintf(l.sink, "⚠ %s\n", msg)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !l.noColor {
		fmt.Fprintf(l.sink, "\033[31m✗\033[0m %s\n", msg)
	} else {
		fmt.Fprintf(l.sink, "✗ %s\n", msg)
	}
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if !l.noColor {
		fmt.Fprintf(l.sink, "\033[36m[DEBUG]\033[0m %s\n", msg)
	} else {
		fmt.Fprintf(l.sink, "[DEBUG] %s\n", msg)
	}
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED]
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
