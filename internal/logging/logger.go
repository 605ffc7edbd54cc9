package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// String returns the lower-case level name.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel parses a level name. Unknown names yield LevelInfo.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// Format is the log line encoding.
type Format int

const (
	// FormatText writes "ts [level] msg key=value ..." lines.
	FormatText Format = iota
	// FormatJSON writes one JSON object per line.
	FormatJSON
)

// ParseFormat parses a format name. Anything but "json" yields FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)
	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)
	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)
	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
	// WithRequestID returns a new logger with the given request ID.
	WithRequestID(requestID string) Logger
	// WithFields returns a new logger with the given fields.
	WithFields(keysAndValues ...any) Logger
}

// Config holds the logger configuration.
type Config struct {
	Level  string
	Format string
	Output string
	// Writer, when set, takes precedence over Output.
	Writer io.Writer
}

// sink is the destination shared by a logger and every logger derived
// from it, so lines from all of them never interleave.
type sink struct {
	mu sync.Mutex
	w  io.Writer
}

type logger struct {
	level     Level
	format    Format
	out       *sink
	fields    map[string]any
	requestID string
}

// New creates a Logger from cfg.
func New(cfg Config) Logger {
	w := cfg.Writer
	if w == nil {
		w = openOutput(cfg.Output)
	}
	return &logger{
		level:  ParseLevel(cfg.Level),
		format: ParseFormat(cfg.Format),
		out:    &sink{w: w},
		fields: map[string]any{},
	}
}

// openOutput resolves "stdout", "stderr" or a file path. A file that
// cannot be opened falls back to stderr.
func openOutput(name string) io.Writer {
	switch name {
	case "stdout":
		return os.Stdout
	case "", "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}

// NewNop creates a logger that discards everything.
func NewNop() Logger {
	return nopLogger{}
}

func (l *logger) Debug(msg string, keysAndValues ...any) { l.log(LevelDebug, msg, keysAndValues) }
func (l *logger) Info(msg string, keysAndValues ...any)  { l.log(LevelInfo, msg, keysAndValues) }
func (l *logger) Warn(msg string, keysAndValues ...any)  { l.log(LevelWarn, msg, keysAndValues) }
func (l *logger) Error(msg string, keysAndValues ...any) { l.log(LevelError, msg, keysAndValues) }

func (l *logger) WithRequestID(requestID string) Logger {
	child := l.derive()
	child.requestID = requestID
	return child
}

func (l *logger) WithFields(keysAndValues ...any) Logger {
	child := l.derive()
	addPairs(child.fields, keysAndValues)
	return child
}

func (l *logger) derive() *logger {
	fields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &logger{
		level:     l.level,
		format:    l.format,
		out:       l.out,
		fields:    fields,
		requestID: l.requestID,
	}
}

// addPairs copies alternating string keys and values into dst. Pairs with
// a non-string key and a trailing lone key are dropped.
func addPairs(dst map[string]any, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			dst[key] = keysAndValues[i+1]
		}
	}
}

func (l *logger) log(level Level, msg string, keysAndValues []any) {
	if level < l.level {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(keysAndValues)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	addPairs(fields, keysAndValues)
	ts := time.Now().UTC().Format(time.RFC3339)

	var line string
	if l.format == FormatJSON {
		line = l.encodeJSON(ts, level, msg, fields)
	} else {
		line = l.encodeText(ts, level, msg, fields)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	io.WriteString(l.out.w, line+"\n")
}

func (l *logger) encodeJSON(ts string, level Level, msg string, fields map[string]any) string {
	fields["ts"] = ts
	fields["level"] = level.String()
	fields["msg"] = msg
	if l.requestID != "" {
		fields["request_id"] = l.requestID
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprintf(`{"ts":%q,"level":"error","msg":"log line not encodable","error":%q}`, ts, err.Error())
	}
	return string(data)
}

func (l *logger) encodeText(ts string, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts)
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)
	if l.requestID != "" {
		b.WriteString(" request_id=")
		b.WriteString(l.requestID)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)          {}
func (nopLogger) Info(string, ...any)           {}
func (nopLogger) Warn(string, ...any)           {}
func (nopLogger) Error(string, ...any)          {}
func (n nopLogger) WithRequestID(string) Logger { return n }
func (n nopLogger) WithFields(...any) Logger    { return n }
