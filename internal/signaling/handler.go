package signaling

import (
	"log/slog"
	"sync"
)

// Handler routes incoming relay messages to the callbacks subscribed to
// their event name.
type Handler struct {
	mu   sync.RWMutex
	subs map[string][]func(*Message)
}

// NewHandler creates a new message handler.
func NewHandler() *Handler {
	return &Handler{subs: make(map[string][]func(*Message))}
}

// On subscribes fn to event. Callbacks run on the client's read goroutine
// and must not block.
func (h *Handler) On(event string, fn func(*Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[event] = append(h.subs[event], fn)
}

// Dispatch delivers msg to every subscriber of its event.
func (h *Handler) Dispatch(msg *Message) {
	h.mu.RLock()
	subs := h.subs[msg.Type]
	h.mu.RUnlock()

	if len(subs) == 0 {
		slog.Debug("unhandled relay event", "type", msg.Type)
		return
	}
	for _, fn := range subs {
		fn(msg)
	}
}

// Decoded wraps a typed callback. Messages whose payload does not decode
// into T are dropped with a debug log.
func Decoded[T any](fn func(T)) func(*Message) {
	return func(msg *Message) {
		var v T
		if err := msg.Decode(&v); err != nil {
			slog.Debug("ignoring relay event", "type", msg.Type, "error", err)
			return
		}
		fn(v)
	}
}
