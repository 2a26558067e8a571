package signaling

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Message is the envelope of every frame exchanged with the relay.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client to relay events.
const (
	EventStartShare   = "start-share"
	EventStopShare    = "stop-share"
	EventJoinView     = "join-view"
	EventLeaveView    = "leave-view"
	EventGetAvailable = "get-available"
	EventGetRooms     = "get-rooms"
)

// Relay to client events.
const (
	EventRoomCreated    = "room-created"
	EventViewerJoined   = "viewer-joined"
	EventViewerLeft     = "viewer-left"
	EventSharerLeft     = "sharer-left"
	EventAvailableCount = "available-count"
	EventAvailableRooms = "available-rooms"
	EventError          = "error"
)

// Negotiation events travel in both directions.
const (
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice-candidate"
)

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type OfferPayload struct {
	Offer  webrtc.SessionDescription `json:"offer"`
	RoomID string                    `json:"roomId,omitempty"`
}

type AnswerPayload struct {
	Answer webrtc.SessionDescription `json:"answer"`
	RoomID string                    `json:"roomId,omitempty"`
}

type CandidatePayload struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	RoomID    string                  `json:"roomId,omitempty"`
}

type CountPayload struct {
	Count int `json:"count"`
}

type RoomsPayload struct {
	Rooms []string `json:"rooms"`
}

// ErrorPayload carries a human readable reason from the relay.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage builds an envelope, encoding payload when it is not nil.
func NewMessage(event string, payload any) (*Message, error) {
	msg := &Message{Type: event}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: %w", m.Type, ErrEmptyPayload)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: %w: %v", m.Type, ErrMalformedPayload, err)
	}
	return nil
}
