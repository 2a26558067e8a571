package controller

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/saiful3278/Screenshare-fronted/internal/media"
	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
	"github.com/saiful3278/Screenshare-fronted/internal/transport"
)

// Relay is the send side of the relay connection.
type Relay interface {
	Send(event string, payload any) error
	Retry()
}

// RelayConn is a relay connection that also reports its lifecycle and
// inbound messages. *signaling.Client satisfies it.
type RelayConn interface {
	Relay
	OnConnect(func())
	OnDisconnect(func(error))
	OnMessage(func(*signaling.Message))
}

// Transport is one negotiated peer connection.
type Transport interface {
	CreateOffer() (pion.SessionDescription, error)
	AcceptOffer(pion.SessionDescription) (pion.SessionDescription, error)
	ApplyAnswer(pion.SessionDescription) error
	AddCandidate(pion.ICECandidateInit) error
	Close() error
}

// Dialer opens transport sessions for either role.
type Dialer interface {
	Sharer(gen uint64, tracks []pion.TrackLocal, hooks transport.Hooks) (Transport, error)
	Viewer(gen uint64, hooks transport.Hooks) (Transport, error)
}

// Surface renders the viewer's inbound video.
type Surface interface {
	Bind(media.Track) error
	Clear()
	Stats() media.Stats
}

// PionDialer opens real pion sessions.
type PionDialer struct {
	Options transport.Options
}

func (d PionDialer) Sharer(gen uint64, tracks []pion.TrackLocal, hooks transport.Hooks) (Transport, error) {
	s, err := transport.NewSharer(d.Options, gen, tracks, hooks)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d PionDialer) Viewer(gen uint64, hooks transport.Hooks) (Transport, error) {
	s, err := transport.NewViewer(d.Options, gen, hooks)
	if err != nil {
		return nil, err
	}
	return s, nil
}
