package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Logger prints run progress to the console. Debug lines are only written
// when debug mode is on. Every line written through Debugf is prefixed with
// the run ID so several runs can be told apart in a shared terminal log.
type Logger struct {
	runID string
	debug bool
	out   io.Writer
	mu    sync.Mutex
}

func NewLogger(debug bool) *Logger {
	return &Logger{
		runID: uuid.New().String(),
		debug: debug,
		out:   os.Stdout,
	}
}

func (l *Logger) RunID() string {
	return l.runID
}

// Step prints a numbered pipeline step header.
func (l *Logger) Step(n int, format string, args ...interface{}) {
	l.printf("\n%s Step %d: %s\n", "▶", n, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(msg string) {
	l.printf("%s\n", msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(format+"\n", args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf("⚠️  "+format+"\n", args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.printf("[DEBUG %s] "+format+"\n", append([]interface{}{l.runID[:8]}, args...)...)
}

func (l *Logger) printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format, args...)
}
