package transport

import (
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiful3278/Screenshare-fronted/internal/media"
)

var loopback = Options{Loopback: true}

func newTestTrack(t *testing.T) *pion.TrackLocalStaticSample {
	t.Helper()
	track, err := pion.NewTrackLocalStaticSample(
		pion.RTPCodecCapability{MimeType: pion.MimeTypeVP8},
		"screen",
		"screenshare",
	)
	require.NoError(t, err)
	return track
}

func waitState(t *testing.T, states <-chan State, want State) {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestLoopbackNegotiation(t *testing.T) {
	track := newTestTrack(t)

	sharerCandidates := make(chan pion.ICECandidateInit, 64)
	viewerCandidates := make(chan pion.ICECandidateInit, 64)
	sharerStates := make(chan State, 16)
	viewerStates := make(chan State, 16)
	tracks := make(chan media.Track, 1)

	sharer, err := NewSharer(loopback, 1, []pion.TrackLocal{track}, Hooks{
		OnCandidate: func(c pion.ICECandidateInit) { sharerCandidates <- c },
		OnState:     func(s State) { sharerStates <- s },
	})
	require.NoError(t, err)
	defer sharer.Close()

	viewer, err := NewViewer(loopback, 2, Hooks{
		OnCandidate: func(c pion.ICECandidateInit) { viewerCandidates <- c },
		OnState:     func(s State) { viewerStates <- s },
		OnTrack: func(tr media.Track) {
			select {
			case tracks <- tr:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer viewer.Close()

	assert.Equal(t, RoleSharer, sharer.Role())
	assert.EqualValues(t, 2, viewer.Generation())

	offer, err := sharer.CreateOffer()
	require.NoError(t, err)
	assert.Equal(t, pion.SDPTypeOffer, offer.Type)

	answer, err := viewer.AcceptOffer(offer)
	require.NoError(t, err)
	require.NoError(t, sharer.ApplyAnswer(answer))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case c := <-sharerCandidates:
				viewer.AddCandidate(c)
			case c := <-viewerCandidates:
				sharer.AddCandidate(c)
			case <-stop:
				return
			}
		}
	}()
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				track.WriteSample(pionmedia.Sample{Data: []byte{0x10, 0x00, 0x00, 0x9d, 0x01, 0x2a}, Duration: 20 * time.Millisecond})
			case <-stop:
				return
			}
		}
	}()

	waitState(t, sharerStates, StateConnected)
	waitState(t, viewerStates, StateConnected)

	select {
	case tr := <-tracks:
		assert.Equal(t, pion.MimeTypeVP8, tr.Codec().MimeType)
	case <-time.After(10 * time.Second):
		t.Fatal("viewer never received the shared track")
	}
}

func TestCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	viewer, err := NewViewer(loopback, 1, Hooks{})
	require.NoError(t, err)
	defer viewer.Close()

	mid := "0"
	cand := pion.ICECandidateInit{
		Candidate: "candidate:1 1 udp 2130706431 127.0.0.1 50000 typ host",
		SDPMid:    &mid,
	}
	require.NoError(t, viewer.AddCandidate(cand))
	require.NoError(t, viewer.AddCandidate(cand))
	assert.Equal(t, 2, viewer.Pending())

	sharer, err := NewSharer(loopback, 2, []pion.TrackLocal{newTestTrack(t)}, Hooks{})
	require.NoError(t, err)
	defer sharer.Close()

	offer, err := sharer.CreateOffer()
	require.NoError(t, err)
	_, err = viewer.AcceptOffer(offer)
	require.NoError(t, err)
	assert.Zero(t, viewer.Pending())
}

func TestRoleChecks(t *testing.T) {
	viewer, err := NewViewer(loopback, 1, Hooks{})
	require.NoError(t, err)
	defer viewer.Close()

	_, err = viewer.CreateOffer()
	assert.ErrorIs(t, err, ErrWrongRole)
	assert.ErrorIs(t, viewer.ApplyAnswer(pion.SessionDescription{Type: pion.SDPTypeAnswer}), ErrWrongRole)

	_, err = viewer.AcceptOffer(pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0"})
	assert.ErrorIs(t, err, ErrUnexpectedSDP)

	_, err = NewSharer(loopback, 2, nil, Hooks{})
	assert.ErrorIs(t, err, ErrNoLocalTracks)
}

func TestCloseIsIdempotent(t *testing.T) {
	sharer, err := NewSharer(loopback, 1, []pion.TrackLocal{newTestTrack(t)}, Hooks{})
	require.NoError(t, err)

	require.NoError(t, sharer.Close())
	require.NoError(t, sharer.Close())

	_, err = sharer.CreateOffer()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, sharer.AddCandidate(pion.ICECandidateInit{Candidate: "x"}), ErrClosed)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateConnected, stateOf(pion.PeerConnectionStateConnected))
	assert.Equal(t, StateFailed, stateOf(pion.PeerConnectionStateFailed))
	assert.Equal(t, StateDisconnected, stateOf(pion.PeerConnectionStateDisconnected))
	assert.Equal(t, StateClosed, stateOf(pion.PeerConnectionStateClosed))
	assert.Equal(t, StateNew, stateOf(pion.PeerConnectionStateNew))
}
