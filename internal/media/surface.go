package media

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// Track is the read side of an inbound video track. *webrtc.TrackRemote
// satisfies it.
type Track interface {
	ID() string
	Codec() webrtc.RTPCodecParameters
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// Sink consumes the packets of one bound track.
type Sink interface {
	WriteRTP(*rtp.Packet) error
	Close() error
}

// SinkFactory opens a sink for a track of the given codec.
type SinkFactory func(codec webrtc.RTPCodecParameters) (Sink, error)

// Stats describes what the surface has rendered since it was last bound.
type Stats struct {
	TrackID string
	Codec   string
	Packets uint64
	Bytes   uint64
}

// Surface renders at most one inbound track at a time.
type Surface struct {
	newSink SinkFactory

	mu      sync.Mutex
	binding *binding
}

type binding struct {
	track   Track
	sink    Sink
	codec   string
	stop    atomic.Bool
	done    chan struct{}
	packets atomic.Uint64
	bytes   atomic.Uint64
}

// NewSurface returns a surface that opens a sink from newSink on every Bind.
func NewSurface(newSink SinkFactory) *Surface {
	if newSink == nil {
		newSink = DiscardSink
	}
	return &Surface{newSink: newSink}
}

// Bind starts rendering track, detaching whatever was bound before.
func (s *Surface) Bind(track Track) error {
	if track == nil {
		return ErrNoTrack
	}

	codec := track.Codec()
	sink, err := s.newSink(codec)
	if err != nil {
		return err
	}

	b := &binding{
		track: track,
		sink:  sink,
		codec: codec.MimeType,
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	prev := s.binding
	s.binding = b
	s.mu.Unlock()

	if prev != nil {
		prev.stop.Store(true)
	}

	go b.pump()
	return nil
}

// Clear detaches the bound track. The sink is closed once the track's reader
// returns, which happens when its peer connection closes.
func (s *Surface) Clear() {
	s.mu.Lock()
	b := s.binding
	s.binding = nil
	s.mu.Unlock()

	if b != nil {
		b.stop.Store(true)
	}
}

// Bound reports whether a track is currently attached.
func (s *Surface) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binding != nil
}

func (s *Surface) Stats() Stats {
	s.mu.Lock()
	b := s.binding
	s.mu.Unlock()

	if b == nil {
		return Stats{}
	}
	return Stats{
		TrackID: b.track.ID(),
		Codec:   b.codec,
		Packets: b.packets.Load(),
		Bytes:   b.bytes.Load(),
	}
}

// Done returns a channel closed when the currently bound track stops, or nil
// when nothing is bound.
func (s *Surface) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.binding == nil {
		return nil
	}
	return s.binding.done
}

func (b *binding) pump() {
	defer close(b.done)
	defer func() {
		if err := b.sink.Close(); err != nil {
			slog.Warn("close media sink", "track", b.track.ID(), "error", err)
		}
	}()

	for !b.stop.Load() {
		pkt, _, err := b.track.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("track read ended", "track", b.track.ID(), "error", err)
			}
			return
		}
		if b.stop.Load() {
			return
		}
		b.packets.Add(1)
		b.bytes.Add(uint64(len(pkt.Payload)))
		if err := b.sink.WriteRTP(pkt); err != nil {
			slog.Warn("write media sink", "track", b.track.ID(), "error", err)
			return
		}
	}
}
