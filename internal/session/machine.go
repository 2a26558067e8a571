package session

import (
	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
	"github.com/saiful3278/Screenshare-fronted/internal/transport"
)

// Error texts surfaced through State.LastError.
const (
	msgRelayDown    = "relay not connected"
	msgNoRoom       = "room id required"
	msgSharerLeft   = "sharer left the room"
	msgLinkFailed   = "peer connection failed"
	msgLinkLost     = "peer connection lost"
	msgRelayLost    = "relay connection lost"
	msgAlreadyShare = "already sharing"
)

// Transition is the whole session policy. It is pure: it returns the next
// state and the effects to run, and never performs I/O.
func Transition(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {

	case RelayConnected:
		s.RelayUp = true
		if s.Status == StatusIdle || s.Status == StatusDisconnected {
			s.Status = StatusConnected
		}
		return s, refresh()

	case RelayDisconnected:
		s.RelayUp = false
		fx := s.teardown(false)
		s = s.reset(StatusDisconnected)
		s.LastError = msgRelayLost
		return s, fx

	case ShareRequested:
		if s.Role == RoleSharer {
			s.LastError = msgAlreadyShare
			return s, nil
		}
		if !s.RelayUp {
			s.LastError = msgRelayDown
			return s, nil
		}
		fx := s.teardown(true)
		s = s.reset(StatusConnected)
		s.Role = RoleSharer
		return s, append(fx, RequestCapture{})

	case CaptureGranted:
		if s.Role != RoleSharer || s.Capturing {
			return s, []Effect{DiscardCapture{Source: e.Source}}
		}
		s.Capturing = true
		s.Status = StatusSharing
		s.LastError = ""
		return s, []Effect{
			AdoptCapture{Source: e.Source},
			SendRelay{Event: signaling.EventStartShare},
		}

	case CaptureFailed:
		if s.Role != RoleSharer || s.Capturing {
			return s, nil
		}
		s = s.reset(StatusIdle)
		if e.Err != nil {
			s.LastError = e.Err.Error()
		}
		return s, nil

	case CaptureEnded:
		if !s.Capturing {
			return s, nil
		}
		fx := s.teardown(true)
		return s.reset(StatusIdle), fx

	case StopRequested:
		fx := s.teardown(true)
		return s.reset(StatusIdle), fx

	case ViewRequested:
		if e.RoomID == "" {
			s.LastError = msgNoRoom
			return s, nil
		}
		if !s.RelayUp {
			s.LastError = msgRelayDown
			return s, nil
		}
		fx := s.teardown(true)
		s = s.reset(StatusNegotiating)
		s.Role = RoleViewer
		s.RoomID = e.RoomID
		s.SessionOpen = true
		return s, append(fx,
			OpenViewerSession{RoomID: e.RoomID},
			SendRelay{Event: signaling.EventJoinView, Payload: signaling.RoomPayload{RoomID: e.RoomID}},
		)

	case RoomCreated:
		if s.Role != RoleSharer || !s.Capturing || e.RoomID == "" {
			return s, nil
		}
		s.RoomID = e.RoomID
		return s, []Effect{SendRelay{Event: signaling.EventGetRooms}}

	case ViewerJoined:
		if s.Role != RoleSharer || !s.Capturing || s.RoomID == "" {
			return s, nil
		}
		s.Status = StatusNegotiating
		s.SessionOpen = true
		s.Receiving = false
		return s, []Effect{OpenSharerSession{RoomID: s.RoomID}}

	case ViewerLeft:
		if s.Role != RoleSharer || !s.SessionOpen {
			return s, nil
		}
		s.SessionOpen = false
		s.Status = StatusSharing
		return s, []Effect{CloseSession{}}

	case SharerLeft:
		if s.Role != RoleViewer {
			return s, nil
		}
		fx := s.teardown(false)
		s = s.reset(s.restingStatus())
		s.LastError = msgSharerLeft
		return s, fx

	case RelayError:
		s.LastError = e.Message
		// The relay only answers a viewer with an error when the join was refused.
		if s.Role == RoleViewer && s.Status == StatusNegotiating {
			fx := s.teardown(false)
			s = s.reset(s.restingStatus())
			s.LastError = e.Message
			return s, fx
		}
		return s, nil

	case OfferReceived:
		if s.Role != RoleViewer || !s.SessionOpen {
			return s, nil
		}
		return s, []Effect{AcceptOffer{Offer: e.Offer}}

	case AnswerReceived:
		if s.Role != RoleSharer || !s.SessionOpen {
			return s, nil
		}
		return s, []Effect{ApplyAnswer{Answer: e.Answer}}

	case CandidateReceived:
		if !s.SessionOpen {
			return s, nil
		}
		return s, []Effect{AddCandidate{Candidate: e.Candidate}}

	case LocalOffer:
		if s.Role != RoleSharer || !s.SessionOpen || s.RoomID == "" {
			return s, nil
		}
		return s, []Effect{SendRelay{
			Event:   signaling.EventOffer,
			Payload: signaling.OfferPayload{Offer: e.Offer, RoomID: s.RoomID},
		}}

	case LocalAnswer:
		if s.Role != RoleViewer || !s.SessionOpen || s.RoomID == "" {
			return s, nil
		}
		return s, []Effect{SendRelay{
			Event:   signaling.EventAnswer,
			Payload: signaling.AnswerPayload{Answer: e.Answer, RoomID: s.RoomID},
		}}

	case LocalCandidate:
		if !s.SessionOpen || s.RoomID == "" {
			return s, nil
		}
		return s, []Effect{SendRelay{
			Event:   signaling.EventICECandidate,
			Payload: signaling.CandidatePayload{Candidate: e.Candidate, RoomID: s.RoomID},
		}}

	case RemoteTrack:
		if s.Role != RoleViewer || !s.SessionOpen || e.Track == nil {
			return s, nil
		}
		s.Receiving = true
		return s, []Effect{BindSurface{Track: e.Track}}

	case TransportStateChanged:
		if !s.SessionOpen {
			return s, nil
		}
		switch e.State {
		case transport.StateConnected:
			if s.Status == StatusNegotiating {
				s.Status = StatusMediaConnected
				s.LastError = ""
			}
			return s, nil
		case transport.StateFailed:
			return s.linkDown(msgLinkFailed)
		case transport.StateDisconnected:
			return s.linkDown(msgLinkLost)
		}
		return s, nil

	case NegotiationFailed:
		if !s.SessionOpen {
			return s, nil
		}
		next, fx := s.linkDown(msgLinkFailed)
		if e.Err != nil {
			next.LastError = e.Err.Error()
		}
		return next, fx

	case AvailableCount:
		s.Available = e.Count
		return s, nil

	case AvailableRooms:
		s.Rooms = append([]string(nil), e.Rooms...)
		return s, nil

	case RefreshRequested:
		if !s.RelayUp {
			s.LastError = msgRelayDown
			return s, nil
		}
		return s, refresh()

	case RetryRequested:
		if !s.RelayUp {
			return s, []Effect{ReconnectRelay{}}
		}
		if s.Status == StatusDisconnected {
			s.Status = StatusConnected
			s.LastError = ""
		}
		return s, refresh()
	}

	return s, nil
}

// linkDown handles a transport that stopped working. There is no automatic
// renegotiation; the user starts a new cycle or retries.
func (s State) linkDown(reason string) (State, []Effect) {
	fx := s.teardown(true)
	s = s.reset(StatusDisconnected)
	s.LastError = reason
	return s, fx
}

// teardown lists the effects that release everything the current cycle holds.
// notify controls whether the relay is told about it; it is pointless when the
// relay already knows (it is gone, or it told us the other side left).
func (s State) teardown(notify bool) []Effect {
	var fx []Effect
	if s.SessionOpen {
		fx = append(fx, CloseSession{})
	}
	if s.Capturing {
		fx = append(fx, ReleaseCapture{})
	}
	if !notify || !s.RelayUp {
		return fx
	}
	switch {
	case s.Role == RoleSharer && s.Capturing:
		fx = append(fx, SendRelay{Event: signaling.EventStopShare})
	case s.Role == RoleViewer && s.RoomID != "":
		fx = append(fx, SendRelay{Event: signaling.EventLeaveView})
	}
	return fx
}

// reset drops the per-cycle fields and keeps relay-scoped ones.
func (s State) reset(status Status) State {
	return State{
		Status:    status,
		RelayUp:   s.RelayUp,
		Available: s.Available,
		Rooms:     s.Rooms,
	}
}

func refresh() []Effect {
	return []Effect{
		SendRelay{Event: signaling.EventGetAvailable},
		SendRelay{Event: signaling.EventGetRooms},
	}
}
