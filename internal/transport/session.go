package transport

import (
	"errors"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/saiful3278/Screenshare-fronted/internal/media"
)

// Role is the side of the call a session negotiates for.
type Role string

const (
	RoleSharer Role = "sharer"
	RoleViewer Role = "viewer"
)

// State is the coarse connection state reported to the owner.
type State string

const (
	StateNew          State = "new"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
	StateClosed       State = "closed"
)

func stateOf(s pion.PeerConnectionState) State {
	switch s {
	case pion.PeerConnectionStateConnecting:
		return StateConnecting
	case pion.PeerConnectionStateConnected:
		return StateConnected
	case pion.PeerConnectionStateDisconnected:
		return StateDisconnected
	case pion.PeerConnectionStateFailed:
		return StateFailed
	case pion.PeerConnectionStateClosed:
		return StateClosed
	}
	return StateNew
}

// Hooks are called from pion goroutines. They must not block.
type Hooks struct {
	OnCandidate func(pion.ICECandidateInit)
	OnState     func(State)
	OnTrack     func(media.Track)
}

// Session is one peer connection owned by one role instance.
type Session struct {
	role  Role
	gen   uint64
	pc    *pion.PeerConnection
	hooks Hooks

	mu        sync.Mutex
	remoteSet bool
	pending   []pion.ICECandidateInit
	closed    bool
}

// NewSharer opens a session that sends tracks to the viewer.
func NewSharer(opts Options, gen uint64, tracks []pion.TrackLocal, hooks Hooks) (*Session, error) {
	if len(tracks) == 0 {
		return nil, NewError("open sharer session", ErrNoLocalTracks)
	}

	pc, err := NewPeerConnection(opts)
	if err != nil {
		return nil, err
	}

	s := newSession(RoleSharer, gen, pc, hooks)
	for _, track := range tracks {
		sender, err := pc.AddTrack(track)
		if err != nil {
			s.Close()
			return nil, WrapError("add track", err, track.ID())
		}
		go drainRTCP(sender)
	}
	return s, nil
}

// NewViewer opens a receive-only session.
func NewViewer(opts Options, gen uint64, hooks Hooks) (*Session, error) {
	pc, err := NewPeerConnection(opts)
	if err != nil {
		return nil, err
	}

	s := newSession(RoleViewer, gen, pc, hooks)
	_, err = pc.AddTransceiverFromKind(pion.RTPCodecTypeVideo, pion.RTPTransceiverInit{
		Direction: pion.RTPTransceiverDirectionRecvonly,
	})
	if err != nil {
		s.Close()
		return nil, NewError("add transceiver", err)
	}
	return s, nil
}

func newSession(role Role, gen uint64, pc *pion.PeerConnection, hooks Hooks) *Session {
	s := &Session{role: role, gen: gen, pc: pc, hooks: hooks}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil || s.isClosed() || s.hooks.OnCandidate == nil {
			return
		}
		s.hooks.OnCandidate(c.ToJSON())
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		slog.Debug("peer connection state", "role", s.role, "gen", s.gen, "state", state.String())
		if s.isClosed() || s.hooks.OnState == nil {
			return
		}
		s.hooks.OnState(stateOf(state))
	})

	pc.OnTrack(func(track *pion.TrackRemote, _ *pion.RTPReceiver) {
		slog.Info("remote track",
			"role", s.role,
			"gen", s.gen,
			"kind", track.Kind().String(),
			"track", track.ID(),
			"codec", track.Codec().MimeType,
		)
		if s.isClosed() || s.hooks.OnTrack == nil {
			return
		}
		s.hooks.OnTrack(track)
	})

	return s
}

func (s *Session) Role() Role {
	return s.role
}

// Generation identifies this session among the ones its owner has opened.
func (s *Session) Generation() uint64 {
	return s.gen
}

// CreateOffer starts negotiation from the sharer side. Candidates trickle
// through OnCandidate after the offer is returned.
func (s *Session) CreateOffer() (pion.SessionDescription, error) {
	if err := s.check(RoleSharer); err != nil {
		return pion.SessionDescription{}, NewError("create offer", err)
	}

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return pion.SessionDescription{}, NewError("create offer", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return pion.SessionDescription{}, NewError("set local description", err)
	}
	return *s.pc.LocalDescription(), nil
}

// AcceptOffer applies the sharer's offer and returns the answer to send back.
func (s *Session) AcceptOffer(offer pion.SessionDescription) (pion.SessionDescription, error) {
	if err := s.check(RoleViewer); err != nil {
		return pion.SessionDescription{}, NewError("accept offer", err)
	}
	if offer.Type != pion.SDPTypeOffer {
		return pion.SessionDescription{}, WrapError("accept offer", ErrUnexpectedSDP, offer.Type.String())
	}

	if err := s.setRemote(offer); err != nil {
		return pion.SessionDescription{}, err
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return pion.SessionDescription{}, NewError("create answer", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return pion.SessionDescription{}, NewError("set local description", err)
	}
	return *s.pc.LocalDescription(), nil
}

// ApplyAnswer completes the sharer side of negotiation.
func (s *Session) ApplyAnswer(answer pion.SessionDescription) error {
	if err := s.check(RoleSharer); err != nil {
		return NewError("apply answer", err)
	}
	if answer.Type != pion.SDPTypeAnswer {
		return WrapError("apply answer", ErrUnexpectedSDP, answer.Type.String())
	}
	return s.setRemote(answer)
}

// AddCandidate adds a remote candidate. Candidates that arrive before the
// remote description are held and applied once it is set.
func (s *Session) AddCandidate(c pion.ICECandidateInit) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewError("add ICE candidate", ErrClosed)
	}
	if !s.remoteSet {
		s.pending = append(s.pending, c)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.pc.AddICECandidate(c); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

// Pending returns how many remote candidates are waiting for the remote
// description.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close releases the peer connection. Hooks are not called afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	s.mu.Unlock()

	if err := s.pc.Close(); err != nil {
		return NewError("close peer connection", err)
	}
	return nil
}

func (s *Session) setRemote(desc pion.SessionDescription) error {
	if s.isClosed() {
		return NewError("set remote description", ErrClosed)
	}
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return NewError("set remote description", err)
	}

	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var errs []error
	for _, c := range pending {
		if err := s.pc.AddICECandidate(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("buffered ICE candidates rejected", "role", s.role, "error", err)
	}
	return nil
}

func (s *Session) check(role Role) error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.role != role {
		return ErrWrongRole
	}
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// drainRTCP reads incoming RTCP so interceptors like NACK keep working.
func drainRTCP(sender *pion.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}
