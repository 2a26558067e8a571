package session

import (
	"github.com/pion/webrtc/v4"

	"github.com/saiful3278/Screenshare-fronted/internal/capture"
	"github.com/saiful3278/Screenshare-fronted/internal/media"
)

// Effect is a side effect the controller must perform, in order.
type Effect interface {
	effect()
}

type (
	// SendRelay emits one relay event.
	SendRelay struct {
		Event   string
		Payload any
	}

	RequestCapture struct{}
	// AdoptCapture hands a granted source to the controller.
	AdoptCapture struct{ Source capture.Source }
	// ReleaseCapture stops every track of the held source.
	ReleaseCapture struct{}
	// DiscardCapture stops a source that arrived when nobody wanted it.
	DiscardCapture struct{ Source capture.Source }

	// OpenSharerSession replaces any transport session with a sharer one and
	// starts an offer.
	OpenSharerSession struct{ RoomID string }
	// OpenViewerSession replaces any transport session with a viewer one.
	OpenViewerSession struct{ RoomID string }
	CloseSession      struct{}

	AcceptOffer  struct{ Offer webrtc.SessionDescription }
	ApplyAnswer  struct{ Answer webrtc.SessionDescription }
	AddCandidate struct{ Candidate webrtc.ICECandidateInit }
	BindSurface  struct{ Track media.Track }

	ReconnectRelay struct{}
)

func (SendRelay) effect()         {}
func (RequestCapture) effect()    {}
func (AdoptCapture) effect()      {}
func (ReleaseCapture) effect()    {}
func (DiscardCapture) effect()    {}
func (OpenSharerSession) effect() {}
func (OpenViewerSession) effect() {}
func (CloseSession) effect()      {}
func (AcceptOffer) effect()       {}
func (ApplyAnswer) effect()       {}
func (AddCandidate) effect()      {}
func (BindSurface) effect()       {}
func (ReconnectRelay) effect()    {}
