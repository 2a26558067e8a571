package controller

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiful3278/Screenshare-fronted/internal/capture"
	"github.com/saiful3278/Screenshare-fronted/internal/media"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
	"github.com/saiful3278/Screenshare-fronted/internal/transport"
)

const waitFor = 2 * time.Second

type sent struct {
	event   string
	payload any
}

type fakeRelay struct {
	mu           sync.Mutex
	sent         []sent
	retries      int
	onConnect    func()
	onDisconnect func(error)
	onMessage    func(*signaling.Message)
}

func (f *fakeRelay) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{event: event, payload: payload})
	return nil
}

func (f *fakeRelay) Retry() {
	f.mu.Lock()
	f.retries++
	f.mu.Unlock()
}

func (f *fakeRelay) OnConnect(fn func()) { f.onConnect = fn }
func (f *fakeRelay) OnDisconnect(fn func(error)) { f.onDisconnect = fn }
func (f *fakeRelay) OnMessage(fn func(*signaling.Message)) { f.onMessage = fn }

func (f *fakeRelay) deliver(t *testing.T, event string, payload any) {
	t.Helper()
	msg, err := signaling.NewMessage(event, payload)
	require.NoError(t, err)
	f.onMessage(msg)
}

func (f *fakeRelay) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.event)
	}
	return out
}

// last returns the payload of the most recent send of event.
func (f *fakeRelay) last(event string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].event == event {
			return f.sent[i].payload, true
		}
	}
	return nil, false
}

type fakeSource struct {
	once    sync.Once
	ended   chan struct{}
	stopped atomic.Bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ended: make(chan struct{})}
}

func (s *fakeSource) Tracks() []pion.TrackLocal { return nil }
func (s *fakeSource) Ended() <-chan struct{} { return s.ended }
func (s *fakeSource) Describe() string { return "fake screen" }

func (s *fakeSource) Stop() error {
	s.stopped.Store(true)
	s.end()
	return nil
}

func (s *fakeSource) end() {
	s.once.Do(func() { close(s.ended) })
}

type fakeTransport struct {
	gen    uint64
	role   transport.Role
	hooks  transport.Hooks
	closed atomic.Bool

	mu         sync.Mutex
	answers    []pion.SessionDescription
	candidates []pion.ICECandidateInit
}

func (t *fakeTransport) CreateOffer() (pion.SessionDescription, error) {
	return pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "offer"}, nil
}

func (t *fakeTransport) AcceptOffer(pion.SessionDescription) (pion.SessionDescription, error) {
	return pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "answer"}, nil
}

func (t *fakeTransport) ApplyAnswer(a pion.SessionDescription) error {
	t.mu.Lock()
	t.answers = append(t.answers, a)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) AddCandidate(c pion.ICECandidateInit) error {
	t.mu.Lock()
	t.candidates = append(t.candidates, c)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) Close() error {
	t.closed.Store(true)
	return nil
}

type fakeDialer struct {
	mu       sync.Mutex
	sessions []*fakeTransport
}

func (d *fakeDialer) add(gen uint64, role transport.Role, hooks transport.Hooks) *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := &fakeTransport{gen: gen, role: role, hooks: hooks}
	d.sessions = append(d.sessions, t)
	return t
}

func (d *fakeDialer) Sharer(gen uint64, _ []pion.TrackLocal, hooks transport.Hooks) (Transport, error) {
	return d.add(gen, transport.RoleSharer, hooks), nil
}

func (d *fakeDialer) Viewer(gen uint64, hooks transport.Hooks) (Transport, error) {
	return d.add(gen, transport.RoleViewer, hooks), nil
}

func (d *fakeDialer) opened() []*fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeTransport(nil), d.sessions...)
}

type fakeSurface struct {
	mu      sync.Mutex
	bound   media.Track
	cleared int
}

func (s *fakeSurface) Bind(t media.Track) error {
	s.mu.Lock()
	s.bound = t
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Clear() {
	s.mu.Lock()
	s.bound = nil
	s.cleared++
	s.mu.Unlock()
}

func (s *fakeSurface) Stats() media.Stats { return media.Stats{TrackID: "video"} }

func (s *fakeSurface) isBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound != nil
}

type fakeTrack struct{}

func (fakeTrack) ID() string { return "video" }
func (fakeTrack) Codec() pion.RTPCodecParameters { return pion.RTPCodecParameters{} }
func (fakeTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	select {}
}

type harness struct {
	ctl     *Controller
	relay   *fakeRelay
	dialer  *fakeDialer
	surface *fakeSurface
	source  *fakeSource
	cancel  context.CancelFunc
	done    chan struct{}
}

func newHarness(t *testing.T, capturer capture.Capturer) *harness {
	t.Helper()
	h := &harness{
		relay:   &fakeRelay{},
		dialer:  &fakeDialer{},
		surface: &fakeSurface{},
		source:  newFakeSource(),
		done:    make(chan struct{}),
	}
	if capturer == nil {
		capturer = capture.CapturerFunc(func(context.Context) (capture.Source, error) {
			return h.source, nil
		})
	}
	h.ctl = New(Options{
		Relay:    h.relay,
		Capturer: capturer,
		Dialer:   h.dialer,
		Surface:  h.surface,
		Link:     func(room string) string { return "http://relay.test/?room=" + room },
	})
	h.ctl.Attach(h.relay)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.ctl.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(h.stop)

	h.relay.onConnect()
	h.waitStatus(t, session.StatusConnected)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func (h *harness) waitStatus(t *testing.T, want session.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.ctl.View().Status == want
	}, waitFor, 5*time.Millisecond, "status never became %s (now %s)", want, h.ctl.View().Status)
}

func (h *harness) waitSent(t *testing.T, event string) any {
	t.Helper()
	var payload any
	require.Eventually(t, func() bool {
		var ok bool
		payload, ok = h.relay.last(event)
		return ok
	}, waitFor, 5*time.Millisecond, "%s never sent", event)
	return payload
}

func (h *harness) waitSessions(t *testing.T, n int) []*fakeTransport {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.dialer.opened()) == n
	}, waitFor, 5*time.Millisecond)
	return h.dialer.opened()
}

// share drives the harness to a sharing room "abc123".
func (h *harness) share(t *testing.T) {
	t.Helper()
	h.ctl.Post(session.ShareRequested{})
	h.waitSent(t, signaling.EventStartShare)
	h.relay.deliver(t, signaling.EventRoomCreated, signaling.RoomPayload{RoomID: "abc123"})
	require.Eventually(t, func() bool {
		return h.ctl.View().RoomID == "abc123"
	}, waitFor, 5*time.Millisecond)
}

func TestRelayConnectRefreshes(t *testing.T) {
	h := newHarness(t, nil)
	h.waitSent(t, signaling.EventGetRooms)
	assert.Equal(t, []string{signaling.EventGetAvailable, signaling.EventGetRooms}, h.relay.events())

	h.relay.deliver(t, signaling.EventAvailableCount, signaling.CountPayload{Count: 3})
	h.relay.deliver(t, signaling.EventAvailableRooms, signaling.RoomsPayload{Rooms: []string{"a", "b"}})
	require.Eventually(t, func() bool {
		v := h.ctl.View()
		return v.Available == 3 && len(v.Rooms) == 2
	}, waitFor, 5*time.Millisecond)
}

func TestMalformedRoomsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.relay.deliver(t, signaling.EventAvailableRooms, signaling.RoomsPayload{Rooms: []string{"a"}})
	require.Eventually(t, func() bool { return len(h.ctl.View().Rooms) == 1 }, waitFor, 5*time.Millisecond)

	h.relay.deliver(t, signaling.EventAvailableRooms, json.RawMessage(`{"rooms":"not-a-list"}`))
	h.relay.deliver(t, signaling.EventAvailableCount, signaling.CountPayload{Count: 7})
	require.Eventually(t, func() bool { return h.ctl.View().Available == 7 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, []string{"a"}, h.ctl.View().Rooms)
}

func TestSharerCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.share(t)

	v := h.ctl.View()
	assert.Equal(t, session.StatusSharing, v.Status)
	assert.True(t, v.Sharing())
	assert.Equal(t, "http://relay.test/?room=abc123", v.Link)
	assert.Equal(t, "fake screen", v.Source)

	h.relay.deliver(t, signaling.EventViewerJoined, nil)
	sessions := h.waitSessions(t, 1)
	assert.Equal(t, transport.RoleSharer, sessions[0].role)

	payload := h.waitSent(t, signaling.EventOffer)
	offer, ok := payload.(signaling.OfferPayload)
	require.True(t, ok)
	assert.Equal(t, "abc123", offer.RoomID)
	assert.Equal(t, "offer", offer.Offer.SDP)
	h.waitStatus(t, session.StatusNegotiating)

	sessions[0].hooks.OnCandidate(pion.ICECandidateInit{Candidate: "candidate:1"})
	cand := h.waitSent(t, signaling.EventICECandidate).(signaling.CandidatePayload)
	assert.Equal(t, "abc123", cand.RoomID)

	h.relay.deliver(t, signaling.EventAnswer, signaling.AnswerPayload{Answer: pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "a"}})
	h.relay.deliver(t, signaling.EventICECandidate, signaling.CandidatePayload{Candidate: pion.ICECandidateInit{Candidate: "candidate:2"}})
	require.Eventually(t, func() bool {
		sessions[0].mu.Lock()
		defer sessions[0].mu.Unlock()
		return len(sessions[0].answers) == 1 && len(sessions[0].candidates) == 1
	}, waitFor, 5*time.Millisecond)

	sessions[0].hooks.OnState(transport.StateConnected)
	h.waitStatus(t, session.StatusMediaConnected)

	h.relay.deliver(t, signaling.EventViewerLeft, nil)
	h.waitStatus(t, session.StatusSharing)
	assert.True(t, sessions[0].closed.Load())
	assert.False(t, h.source.stopped.Load())

	h.ctl.Post(session.StopRequested{})
	h.waitStatus(t, session.StatusIdle)
	h.waitSent(t, signaling.EventStopShare)
	assert.True(t, h.source.stopped.Load())
}

func TestViewerCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Post(session.ViewRequested{RoomID: "abc123"})

	join := h.waitSent(t, signaling.EventJoinView)
	assert.Equal(t, signaling.RoomPayload{RoomID: "abc123"}, join)
	sessions := h.waitSessions(t, 1)
	assert.Equal(t, transport.RoleViewer, sessions[0].role)

	h.relay.deliver(t, signaling.EventOffer, signaling.OfferPayload{Offer: pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "o"}})
	answer := h.waitSent(t, signaling.EventAnswer).(signaling.AnswerPayload)
	assert.Equal(t, "abc123", answer.RoomID)
	assert.Equal(t, "answer", answer.Answer.SDP)

	sessions[0].hooks.OnTrack(fakeTrack{})
	require.Eventually(t, h.surface.isBound, waitFor, 5*time.Millisecond)

	sessions[0].hooks.OnState(transport.StateConnected)
	h.waitStatus(t, session.StatusMediaConnected)
	assert.True(t, h.ctl.View().Receiving)
	assert.Equal(t, "video", h.ctl.View().Stats.TrackID)

	h.relay.deliver(t, signaling.EventSharerLeft, nil)
	h.waitStatus(t, session.StatusConnected)
	assert.Equal(t, "sharer left the room", h.ctl.View().LastError)
	assert.True(t, sessions[0].closed.Load())
	assert.False(t, h.surface.isBound())
}

func TestStaleTransportCallbacksDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Post(session.ViewRequested{RoomID: "first"})
	h.waitSessions(t, 1)
	h.ctl.Post(session.ViewRequested{RoomID: "second"})
	sessions := h.waitSessions(t, 2)

	require.Eventually(t, sessions[0].closed.Load, waitFor, 5*time.Millisecond)
	assert.NotEqual(t, sessions[0].gen, sessions[1].gen)

	sessions[0].hooks.OnState(transport.StateConnected)
	sessions[0].hooks.OnState(transport.StateFailed)
	sessions[0].hooks.OnCandidate(pion.ICECandidateInit{Candidate: "stale"})

	// A later event on the live session proves the stale ones went through the loop.
	h.relay.deliver(t, signaling.EventAvailableCount, signaling.CountPayload{Count: 9})
	require.Eventually(t, func() bool { return h.ctl.View().Available == 9 }, waitFor, 5*time.Millisecond)

	v := h.ctl.View()
	assert.Equal(t, session.StatusNegotiating, v.Status)
	assert.Equal(t, "second", v.RoomID)
	_, sentCandidate := h.relay.last(signaling.EventICECandidate)
	assert.False(t, sentCandidate)

	sessions[1].hooks.OnState(transport.StateConnected)
	h.waitStatus(t, session.StatusMediaConnected)
}

func TestCaptureEndedExternally(t *testing.T) {
	h := newHarness(t, nil)
	h.share(t)

	h.source.end()
	h.waitStatus(t, session.StatusIdle)
	h.waitSent(t, signaling.EventStopShare)
	assert.Empty(t, h.ctl.View().RoomID)
}

func TestCaptureDenied(t *testing.T) {
	denied := capture.CapturerFunc(func(context.Context) (capture.Source, error) {
		return nil, capture.ErrPermissionDenied
	})
	h := newHarness(t, denied)

	h.ctl.Post(session.ShareRequested{})
	require.Eventually(t, func() bool {
		return h.ctl.View().LastError == capture.ErrPermissionDenied.Error()
	}, waitFor, 5*time.Millisecond)

	assert.Equal(t, session.StatusIdle, h.ctl.View().Status)
	assert.NotContains(t, h.relay.events(), signaling.EventStartShare)
	assert.Empty(t, h.dialer.opened())
}

func TestRelayLossAndRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.share(t)

	h.relay.onDisconnect(assert.AnError)
	h.waitStatus(t, session.StatusDisconnected)
	assert.True(t, h.source.stopped.Load())

	h.ctl.Post(session.RetryRequested{})
	require.Eventually(t, func() bool {
		h.relay.mu.Lock()
		defer h.relay.mu.Unlock()
		return h.relay.retries == 1
	}, waitFor, 5*time.Millisecond)

	h.relay.onConnect()
	h.waitStatus(t, session.StatusConnected)
}

func TestShutdownReleases(t *testing.T) {
	h := newHarness(t, nil)
	h.share(t)

	h.stop()
	assert.True(t, h.source.stopped.Load())
	_, ok := h.relay.last(signaling.EventStopShare)
	assert.True(t, ok)

	// Posting after shutdown must not block.
	h.ctl.Post(session.RefreshRequested{})
}

func TestOnChangeListener(t *testing.T) {
	h := newHarness(t, nil)
	var mu sync.Mutex
	var statuses []session.Status
	h.ctl.OnChange(func(v View) {
		mu.Lock()
		statuses = append(statuses, v.Status)
		mu.Unlock()
	})

	h.share(t)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, statuses, session.StatusSharing)
}

func TestUnreachableRelayShowsDisconnected(t *testing.T) {
	client := signaling.NewClient("ws://127.0.0.1:1/ws",
		signaling.WithSystemResolver(), signaling.WithBackoff(10*time.Millisecond, 20*time.Millisecond))
	ctl := New(Options{Relay: client, Dialer: &fakeDialer{}, Surface: &fakeSurface{}})
	ctl.Attach(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)
	go ctl.Run(ctx)

	require.Eventually(t, func() bool {
		return ctl.View().Status == session.StatusDisconnected
	}, waitFor, 5*time.Millisecond)
	v := ctl.View()
	assert.False(t, v.RelayUp)
	assert.NotEmpty(t, v.LastError)

	// Sharing needs the relay.
	ctl.Post(session.ShareRequested{})
	require.Eventually(t, func() bool { return ctl.View().LastError == "relay not connected" }, waitFor, 5*time.Millisecond)
	assert.Equal(t, session.StatusDisconnected, ctl.View().Status)
}
