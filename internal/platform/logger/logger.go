// Package logger provides structured logging for the clicker server.
// Every simulation notification and persistence failure is traceable through it.
package logger

import (
	"io"
	"log"
	"os"
)

// Logger provides structured logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a logger writing info to stdout and errors to stderr.
func NewLogger() *Logger {
	return New(os.Stdout, os.Stderr)
}

// New creates a logger over arbitrary writers.
func New(out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(out, "[CLICKER-INFO] ", flags),
		warnLogger:  log.New(out, "[CLICKER-WARN] ", flags),
		errorLogger: log.New(errOut, "[CLICKER-ERROR] ", flags),
	}
}

// NewNop discards everything. Used by tests.
func NewNop() *Logger {
	return New(io.Discard, io.Discard)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Output(2, msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Output(2, msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Event logs a simulation event with the id of the entity it concerns.
func (l *Logger) Event(eventType string, subjectID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Subject:%s | %s", eventType, subjectID, details)
}
