package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogBuffer collects the records a digestion logs so tests can assert
// on them. Safe for concurrent use; batch digests log from several
// goroutines.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewCaptureLogger returns a logger whose output lands in the returned
// buffer instead of a handler.
func NewCaptureLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(bufferHandler{buf: buf}), buf
}

// Entries returns a copy of everything captured so far, in log order.
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]LogEntry(nil), b.entries...)
}

// AtLevel returns the captured entries of one level.
func (b *LogBuffer) AtLevel(level slog.Level) []LogEntry {
	var out []LogEntry
	for _, e := range b.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasMessage reports whether any entry's message contains substr.
func (b *LogBuffer) HasMessage(substr string) bool {
	for _, e := range b.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// HasAttr reports whether any entry carries the attribute.
func (b *LogBuffer) HasAttr(key string, value any) bool {
	for _, e := range b.Entries() {
		if v, ok := e.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Len returns the number of captured entries.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *LogBuffer) add(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
}

// bufferHandler is the slog.Handler feeding a LogBuffer. Attrs added
// with Logger.With accumulate in the handler and merge into every
// record, so context attributes like trace_id stay visible to tests.
type bufferHandler struct {
	buf   *LogBuffer
	attrs []slog.Attr
}

func (h bufferHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h bufferHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.buf.add(LogEntry{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return bufferHandler{buf: h.buf, attrs: merged}
}

func (h bufferHandler) WithGroup(string) slog.Handler { return h }
