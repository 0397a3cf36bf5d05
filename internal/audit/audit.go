package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Event is one security-relevant occurrence: a login, a renewal, a
// rejected replay or a revocation.
type Event struct {
	Kind     string            `json:"kind"`
	At       time.Time         `json:"at"`
	Success  bool              `json:"success"`
	UserID   string            `json:"user_id,omitempty"`
	Username string            `json:"username,omitempty"`
	TokenID  string            `json:"token_id,omitempty"`
	IP       string            `json:"ip,omitempty"`
	Path     string            `json:"path,omitempty"`
	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink hands events to a consumer over a buffered channel. Emit
// blocks while the channel is full unless ctx ends first.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case <-ctx.Done():
	case s.events <- event:
	}
}

// Events is the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink appends events to w as newline-delimited JSON.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	_ = s.enc.Encode(event)
	s.mu.Unlock()
}

// SlogSink logs each event as one structured record. Failed events are
// logged at warn, the rest at info.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Emit(ctx context.Context, event Event) {
	if s.Logger == nil {
		return
	}
	level := slog.LevelWarn
	if event.Success {
		level = slog.LevelInfo
	}

	attrs := make([]slog.Attr, 0, 8+len(event.Metadata))
	attrs = append(attrs, slog.String("event", event.Kind), slog.Bool("success", event.Success))
	for _, f := range [...]struct{ key, val string }{
		{"user_id", event.UserID},
		{"username", event.Username},
		{"token_id", event.TokenID},
		{"ip", event.IP},
		{"path", event.Path},
		{"error", event.Error},
	} {
		if f.val != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	s.Logger.LogAttrs(ctx, level, "audit", attrs...)
}
