package session

import (
	"github.com/pion/webrtc/v4"

	"github.com/saiful3278/Screenshare-fronted/internal/capture"
	"github.com/saiful3278/Screenshare-fronted/internal/media"
	"github.com/saiful3278/Screenshare-fronted/internal/transport"
)

// Event is anything that can move the state machine.
type Event interface {
	event()
}

// User requests.
type (
	ShareRequested   struct{}
	ViewRequested    struct{ RoomID string }
	StopRequested    struct{}
	RefreshRequested struct{}
	RetryRequested   struct{}
)

// Relay connection lifecycle and relay messages.
type (
	RelayConnected    struct{}
	RelayDisconnected struct{ Err error }

	RoomCreated       struct{ RoomID string }
	ViewerJoined      struct{}
	ViewerLeft        struct{}
	SharerLeft        struct{}
	OfferReceived     struct{ Offer webrtc.SessionDescription }
	AnswerReceived    struct{ Answer webrtc.SessionDescription }
	CandidateReceived struct{ Candidate webrtc.ICECandidateInit }
	AvailableCount    struct{ Count int }
	AvailableRooms    struct{ Rooms []string }
	RelayError        struct{ Message string }
)

// Platform reports from the capture source and the transport session.
type (
	CaptureGranted struct{ Source capture.Source }
	CaptureFailed  struct{ Err error }
	CaptureEnded   struct{}

	LocalOffer            struct{ Offer webrtc.SessionDescription }
	LocalAnswer           struct{ Answer webrtc.SessionDescription }
	LocalCandidate        struct{ Candidate webrtc.ICECandidateInit }
	TransportStateChanged struct{ State transport.State }
	NegotiationFailed     struct{ Err error }
	RemoteTrack           struct{ Track media.Track }
)

func (ShareRequested) event()   {}
func (ViewRequested) event()    {}
func (StopRequested) event()    {}
func (RefreshRequested) event() {}
func (RetryRequested) event()   {}

func (RelayConnected) event()    {}
func (RelayDisconnected) event() {}

func (RoomCreated) event()       {}
func (ViewerJoined) event()      {}
func (ViewerLeft) event()        {}
func (SharerLeft) event()        {}
func (OfferReceived) event()     {}
func (AnswerReceived) event()    {}
func (CandidateReceived) event() {}
func (AvailableCount) event()    {}
func (AvailableRooms) event()    {}
func (RelayError) event()        {}

func (CaptureGranted) event()        {}
func (CaptureFailed) event()         {}
func (CaptureEnded) event()          {}
func (LocalOffer) event()            {}
func (LocalAnswer) event()           {}
func (LocalCandidate) event()        {}
func (TransportStateChanged) event() {}
func (NegotiationFailed) event()     {}
func (RemoteTrack) event()           {}
