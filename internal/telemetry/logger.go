package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
)

// JSONLogger writes one JSON object per line. A nil *JSONLogger is valid
// and discards everything.
type JSONLogger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	log *clog.Logger
}

func NewJSONLogger(path string) (*JSONLogger, error) {
	if path == "" {
		return newJSONLogger(nopCloser{Writer: io.Discard}), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return newJSONLogger(f), nil
}

// NewWriterLogger logs to w. Close does not close w.
func NewWriterLogger(w io.Writer) *JSONLogger {
	return newJSONLogger(nopCloser{Writer: w})
}

func newJSONLogger(w io.WriteCloser) *JSONLogger {
	return &JSONLogger{
		w: w,
		log: clog.NewWithOptions(w, clog.Options{
			Formatter:       clog.JSONFormatter,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339Nano,
			TimeFunction:    func(t time.Time) time.Time { return t.UTC() },
			Level:           clog.DebugLevel,
		}),
	}
}

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	l.write(clog.DebugLevel, msg, fields)
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	l.write(clog.InfoLevel, msg, fields)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	l.write(clog.ErrorLevel, msg, fields)
}

func (l *JSONLogger) write(level clog.Level, msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		kv = append(kv, k, v)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Log(level, msg, kv...)
}

func (l *JSONLogger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
