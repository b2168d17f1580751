// Package tracing provides lightweight request spans logged as structured
// slog records. A span times one request through the server loop.
package tracing

import (
	"log/slog"
	"time"
)

// Span represents one timed operation.
type Span struct {
	Name      string
	StartTime time.Time
	attrs     []any
}

// Start begins a new span. attrs are alternating key/value pairs attached
// to the final log record.
func Start(name string, attrs ...any) *Span {
	return &Span{
		Name:      name,
		StartTime: time.Now(),
		attrs:     attrs,
	}
}

// SetAttr appends one attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	s.attrs = append(s.attrs, key, value)
}

// Elapsed returns the time since the span started.
func (s *Span) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// Finish logs the span at debug level with its duration and attributes.
func (s *Span) Finish(logger *slog.Logger) {
	args := append([]any{"span", s.Name, "duration", s.Elapsed()}, s.attrs...)
	logger.Debug("span finished", args...)
}
