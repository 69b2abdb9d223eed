package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Package logging writes structured events as one JSON object per line.

// Logger emits JSON-line events. The zero value is not usable; use New.
type Logger struct {
	mu  *sync.Mutex
	w   io.Writer
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: new(sync.Mutex), w: w, loc: loc}
}

// WithLocation returns a Logger sharing l's output with timestamps in loc.
func (l *Logger) WithLocation(loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: l.mu, w: l.w, loc: loc}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(os.Stdout, time.UTC)
)

// Default returns the process-wide logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Location returns the timezone used for timestamps.
func (l *Logger) Location() *time.Location { return l.loc }

// Log writes fields as a single JSON line. A "ts" field is always set and
// "level" defaults to "error" when status is "error", otherwise "info".
func (l *Logger) Log(fields map[string]any) {
	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := entry["level"]; !ok {
		if entry["status"] == "error" {
			entry["level"] = "error"
		} else {
			entry["level"] = "info"
		}
	}

	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{
			"ts":    entry["ts"],
			"level": "error",
			"msg":   "log_marshal_failed",
			"error": err.Error(),
		})
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(b)
}

// Info logs msg at info level with optional fields.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.Log(with(fields, "info", msg))
}

// Error logs msg at error level with optional fields.
func (l *Logger) Error(msg string, fields map[string]any) {
	l.Log(with(fields, "error", msg))
}

func with(fields map[string]any, level, msg string) map[string]any {
	out := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["level"] = level
	out["msg"] = msg
	return out
}
