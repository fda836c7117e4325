// Package logging is a small leveled logger shared by the readers and the CLI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

type Level int

const (
	// error levels that should almost always be printed
	LevelFatal Level = iota // error that must stop the program
	LevelError              // error that does not need to stop execution

	// debugging levels, okay to disable
	LevelWarn // something may be wrong, but not necessarily an error
	LevelInfo // nothing wrong, informational only

	// Production code by default only shows warnings and above.
	LevelDefault = LevelWarn

	LevelMin = LevelFatal
	LevelMax = LevelInfo
)

var levelToPrefix = []string{
	"FATAL ",
	"ERROR ",
	"WARN ",
	"INFO ",
}

type Logger struct {
	mu     sync.Mutex
	level  Level
	logger *log.Logger
}

func New(w io.Writer) *Logger {
	return &Logger{level: LevelDefault, logger: log.New(w, "", log.LstdFlags)}
}

var std = New(os.Stderr)

// Default returns the process-wide logger used by the readers.
func Default() *Logger { return std }

func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel returns the old level. Out of range levels are clamped.
func (l *Logger) SetLevel(level Level) Level {
	if level < LevelMin {
		level = LevelMin
	}
	if level > LevelMax {
		level = LevelMax
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.level
	l.level = level
	return old
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
}

func (l *Logger) output(level Level, s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}
	l.logger.Output(3, levelToPrefix[level]+s)
}

func (l *Logger) Info(v ...any)                 { l.output(LevelInfo, fmt.Sprintln(v...)) }
func (l *Logger) Infof(format string, v ...any) { l.output(LevelInfo, fmt.Sprintf(format, v...)) }

func (l *Logger) Warn(v ...any)                 { l.output(LevelWarn, fmt.Sprintln(v...)) }
func (l *Logger) Warnf(format string, v ...any) { l.output(LevelWarn, fmt.Sprintf(format, v...)) }

func (l *Logger) Error(v ...any)                 { l.output(LevelError, fmt.Sprintln(v...)) }
func (l *Logger) Errorf(format string, v ...any) { l.output(LevelError, fmt.Sprintf(format, v...)) }

func (l *Logger) Fatalf(format string, v ...any) {
	l.output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// ParseLevel maps a config/CLI name to a level.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "fatal":
		return LevelFatal, nil
	case "error":
		return LevelError, nil
	case "", "warn", "warning":
		return LevelWarn, nil
	case "info", "debug":
		return LevelInfo, nil
	}
	return LevelDefault, fmt.Errorf("unknown log level: %s", name)
}
