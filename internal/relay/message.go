package relay

import (
	"encoding/json"

	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
)

// Message is the relay's view of an envelope. It is wire compatible with
// signaling.Message.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// client is the client that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

func newMessage(event string, payload any) *Message {
	if payload == nil {
		return &Message{Type: event}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payloads are relay-owned structs; this cannot fail.
		panic(err)
	}
	return &Message{Type: event, Payload: raw}
}

func errorMessage(text string) *Message {
	return newMessage(signaling.EventError, signaling.ErrorPayload{Message: text})
}
