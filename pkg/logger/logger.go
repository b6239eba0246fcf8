package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	return [...]string{"DEBUG", "INFO", "WARN", "ERROR"}[l]
}

var (
	mu     sync.Mutex
	level  = LevelInfo
	output io.Writer = os.Stdout

	tags = map[Level]*color.Color{
		LevelDebug: color.New(color.FgCyan),
		LevelInfo:  color.New(color.FgGreen),
		LevelWarn:  color.New(color.FgYellow),
		LevelError: color.New(color.FgRed, color.Bold),
	}
)

// * SetLevel drops every message below l
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// * SetOutput redirects log lines, mostly used by tests to capture output.
// * A nil writer restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	output = w
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }
func Info(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Error(format string, args ...any) { logf(LevelError, format, args...) }

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if l < level {
		return
	}

	tag := tags[l].Sprintf("[%s]", l)
	fmt.Fprintf(output, "%s %s %s\n", time.Now().Format("2006-01-02 15:04:05"), tag, fmt.Sprintf(format, args...))
}
