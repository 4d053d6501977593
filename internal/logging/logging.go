// Package logging provides the structured diagnostic logger used across the CLI.
//
// User-facing output never goes through this package; it only carries
// diagnostics. Output defaults to stderr at warn level and can be lowered with
// --debug or TIGRIS_LOG_LEVEL, or mirrored into a rotating file with
// TIGRIS_LOG_FILE.
//
// # Usage
//
//	logger := logging.New(logging.Options{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	    Output: os.Stderr,
//	})
//
//	logger.Debug("resolved credentials", logging.Fields{
//	    "source": "environment",
//	})
//
//	cmdLog := logger.With(logging.Fields{"command": "buckets list"})
//	cmdLog.Info("invoking handler")
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

// Level represents a logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables all logging
	LevelNone
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name. Unknown names fall back to LevelWarn and
// report ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "NONE", "OFF":
		return LevelNone, true
	default:
		return LevelWarn, false
	}
}

// Format represents the output format
type Format int

const (
	// FormatText outputs human-readable text
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured log fields
type Fields map[string]interface{}

// Entry is a single log record as written in JSON format.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Options configures the logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// sink is shared between a logger and the loggers derived from it with With.
type sink struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
	now    func() time.Time
}

// Logger writes leveled, structured entries. Loggers returned by With share
// level, format and output with their parent.
type Logger struct {
	sink   *sink
	preset Fields
}

// DefaultLogger is the process-wide logger configured by the root command.
var DefaultLogger = New(Options{
	Level:  LevelWarn,
	Format: FormatText,
	Output: os.Stderr,
})

// New creates a new Logger with the given options
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Logger{
		sink: &sink{
			level:  opts.Level,
			format: opts.Format,
			output: opts.Output,
			now:    time.Now,
		},
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return New(Options{Level: LevelNone, Output: io.Discard})
}

func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *Logger) SetFormat(format Format) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = format
}

func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level && l.sink.level != LevelNone
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.preset)+len(fields))
	for k, v := range l.preset {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, preset: merged}
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.write(LevelDebug, msg, nil, fields)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.write(LevelInfo, msg, nil, fields)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.write(LevelWarn, msg, nil, fields)
}

func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.write(LevelError, msg, err, fields)
}

func (l *Logger) write(level Level, msg string, err error, fields []Fields) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.level == LevelNone || level < l.sink.level {
		return
	}

	entry := Entry{
		Timestamp: l.sink.now(),
		Level:     level.String(),
		Message:   msg,
	}
	if len(l.preset) > 0 || len(fields) > 0 {
		entry.Fields = make(Fields, len(l.preset))
		for k, v := range l.preset {
			entry.Fields[k] = v
		}
		for _, f := range fields {
			for k, v := range f {
				entry.Fields[k] = v
			}
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}

	var line string
	if l.sink.format == FormatJSON {
		line = encodeJSON(entry)
	} else {
		line = encodeText(entry)
	}
	fmt.Fprintln(l.sink.output, line)
}

func encodeJSON(entry Entry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":"unencodable log entry: %s"}`, err.Error())
	}
	return string(data)
}

// encodeText renders fields in key order so lines are stable across runs.
func encodeText(entry Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", entry.Timestamp.Format("2006-01-02 15:04:05.000"), entry.Level, entry.Message)

	if entry.Error != "" {
		fmt.Fprintf(&sb, " error=%q", entry.Error)
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Fields[k])
	}
	return sb.String()
}

// Package-level helpers using DefaultLogger

func Debug(msg string, fields ...Fields) {
	DefaultLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	DefaultLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	DefaultLogger.Warn(msg, fields...)
}

func Error(msg string, err error, fields ...Fields) {
	DefaultLogger.Error(msg, err, fields...)
}
