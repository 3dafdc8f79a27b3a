package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// StderrLogger writes client log lines as "level msg key=value".
type StderrLogger struct {
	out   io.Writer
	debug bool
	mutex sync.Mutex
}

// NewStderrLogger creates a logger writing to out. Debug lines are dropped
// unless debug is set.
func NewStderrLogger(out io.Writer, debug bool) *StderrLogger {
	return &StderrLogger{out: out, debug: debug}
}

func (l *StderrLogger) Debug(msg string, fields map[string]interface{}) {
	if l.debug {
		l.write("debug", msg, fields)
	}
}

func (l *StderrLogger) Info(msg string, fields map[string]interface{}) {
	l.write("info", msg, fields)
}

func (l *StderrLogger) Warn(msg string, fields map[string]interface{}) {
	l.write("warn", msg, fields)
}

func (l *StderrLogger) Error(msg string, fields map[string]interface{}) {
	l.write("error", msg, fields)
}

func (l *StderrLogger) write(level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var sb strings.Builder

	sb.WriteString(level)
	sb.WriteString(" ")
	sb.WriteString(msg)

	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, fields[k])
	}

	sb.WriteString("\n")

	l.mutex.Lock()
	defer l.mutex.Unlock()

	_, _ = io.WriteString(l.out, sb.String())
}
