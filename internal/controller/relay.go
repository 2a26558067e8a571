package controller

import (
	"log/slog"

	"github.com/saiful3278/Screenshare-fronted/internal/session"
	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
)

// Attach routes conn's lifecycle and inbound relay events into the loop.
// Call it before the connection starts running.
func (c *Controller) Attach(conn RelayConn) {
	conn.OnConnect(func() {
		c.Post(session.RelayConnected{})
	})
	conn.OnDisconnect(func(err error) {
		c.Post(session.RelayDisconnected{Err: err})
	})

	h := signaling.NewHandler()
	c.subscribe(h)
	conn.OnMessage(h.Dispatch)
}

// subscribe registers one handler per relay event. Payloads that do not
// decode are dropped by signaling.Decoded and never reach the loop.
func (c *Controller) subscribe(h *signaling.Handler) {
	h.On(signaling.EventRoomCreated, signaling.Decoded(func(p signaling.RoomPayload) {
		c.Post(session.RoomCreated{RoomID: p.RoomID})
	}))
	h.On(signaling.EventViewerJoined, func(*signaling.Message) {
		c.Post(session.ViewerJoined{})
	})
	h.On(signaling.EventViewerLeft, func(*signaling.Message) {
		c.Post(session.ViewerLeft{})
	})
	h.On(signaling.EventSharerLeft, func(*signaling.Message) {
		c.Post(session.SharerLeft{})
	})
	h.On(signaling.EventOffer, signaling.Decoded(func(p signaling.OfferPayload) {
		c.Post(session.OfferReceived{Offer: p.Offer})
	}))
	h.On(signaling.EventAnswer, signaling.Decoded(func(p signaling.AnswerPayload) {
		c.Post(session.AnswerReceived{Answer: p.Answer})
	}))
	h.On(signaling.EventICECandidate, signaling.Decoded(func(p signaling.CandidatePayload) {
		c.Post(session.CandidateReceived{Candidate: p.Candidate})
	}))
	h.On(signaling.EventAvailableCount, signaling.Decoded(func(p signaling.CountPayload) {
		c.Post(session.AvailableCount{Count: p.Count})
	}))
	h.On(signaling.EventAvailableRooms, signaling.Decoded(func(p signaling.RoomsPayload) {
		c.Post(session.AvailableRooms{Rooms: p.Rooms})
	}))
	h.On(signaling.EventError, signaling.Decoded(func(p signaling.ErrorPayload) {
		slog.Warn("relay reported an error", "message", p.Message)
		c.Post(session.RelayError{Message: p.Message})
	}))
}
