package felisp

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/felisp/pkg/felisp/evaluator"
)

// Logger is an alias for evaluator.Logger for convenience
type Logger = evaluator.Logger

// StdoutLogger returns a logger that writes to stdout (default for CLI/REPL)
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, joinValues(values))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, joinValues(values))
}

// WriterLogger returns a logger that writes to an io.Writer
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger captures output for later retrieval. Log without LogLine
// leaves a pending partial line.
type BufferedLogger struct {
	mu      sync.Mutex
	lines   []string
	pending strings.Builder
}

// NewBufferedLogger creates an empty buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.WriteString(joinValues(values))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.pending.String()+joinValues(values))
	l.pending.Reset()
}

// String returns every captured line, newline terminated, followed by any
// pending partial line
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(l.pending.String())
	return sb.String()
}

// Lines returns a copy of the captured lines
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Reset clears all captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.pending.Reset()
}

type nullLogger struct{}

func (nullLogger) Log(values ...any)     {}
func (nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output
func NullLogger() Logger {
	return nullLogger{}
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
