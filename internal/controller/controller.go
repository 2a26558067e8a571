// Package controller runs the session state machine against the real world.
//
// One goroutine (Run) owns the state, the capture source and the transport
// session. Relay messages, capture endings and transport callbacks are posted
// to it as events; it feeds them to session.Transition and executes the
// effects in order. Effects that produce results (a capture grant, a local
// offer) queue follow-up events that are processed before the next external
// event.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/saiful3278/Screenshare-fronted/internal/capture"
	"github.com/saiful3278/Screenshare-fronted/internal/media"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
	"github.com/saiful3278/Screenshare-fronted/internal/transport"
)

const (
	eventBuffer   = 256
	statsInterval = time.Second
)

// View is a read-only snapshot for presentation.
type View struct {
	session.State

	Link   string
	Source string
	Stats  media.Stats
}

// Sharing reports whether a room is open on this side.
func (v View) Sharing() bool { return v.Role == session.RoleSharer && v.Capturing }

// Viewing reports whether a view cycle is in progress.
func (v View) Viewing() bool { return v.Role == session.RoleViewer }

// Options configures a Controller.
type Options struct {
	Relay    Relay
	Capturer capture.Capturer
	Dialer   Dialer
	Surface  Surface

	// Link builds the share link for a room. Optional.
	Link func(roomID string) string
}

// envelope carries an event plus the scope it belongs to. Scoped events that
// no longer match the controller's current session or source are dropped.
type envelope struct {
	ev  session.Event
	gen uint64
	src capture.Source
}

// Controller is the single owner of session state and platform resources.
type Controller struct {
	relay    Relay
	capturer capture.Capturer
	dialer   Dialer
	surface  Surface
	link     func(string) string

	events  chan envelope
	stopped chan struct{}

	// Owned by the Run goroutine.
	queue  []envelope
	state  session.State
	source capture.Source
	sess   Transport
	gen    uint64

	mu        sync.Mutex
	view      View
	listeners []func(View)
}

// New creates a controller. A nil Capturer refuses every share; a nil Surface
// discards inbound media.
func New(opts Options) *Controller {
	c := &Controller{
		relay:    opts.Relay,
		capturer: opts.Capturer,
		dialer:   opts.Dialer,
		surface:  opts.Surface,
		link:     opts.Link,
		events:   make(chan envelope, eventBuffer),
		stopped:  make(chan struct{}),
		state:    session.Initial(),
	}
	if c.capturer == nil {
		c.capturer = capture.Unavailable
	}
	if c.surface == nil {
		c.surface = media.NewSurface(nil)
	}
	c.view = c.snapshot()
	return c
}

// Post queues an event for the loop. It never blocks once Run has returned.
func (c *Controller) Post(ev session.Event) {
	c.post(envelope{ev: ev})
}

func (c *Controller) post(env envelope) {
	select {
	case c.events <- env:
	case <-c.stopped:
	}
}

// OnChange registers fn to receive a snapshot after every processed event.
// fn runs on the controller goroutine and must not block.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// View returns the latest published snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Run processes events until ctx is cancelled. On the way out it stops the
// current cycle so the relay and the capture source are released.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.stopped)

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	c.publish()
	for {
		select {
		case <-ctx.Done():
			if c.state.Active() || c.source != nil || c.sess != nil {
				c.process(context.Background(), envelope{ev: session.StopRequested{}})
			}
			c.closeSession()
			c.releaseSource()
			return

		case env := <-c.events:
			c.process(ctx, env)

		case <-ticker.C:
			if c.state.Receiving {
				c.publish()
			}
		}
	}
}

// process runs env and every follow-up event it causes, then publishes once.
func (c *Controller) process(ctx context.Context, env envelope) {
	c.queue = append(c.queue, env)
	for len(c.queue) > 0 {
		env := c.queue[0]
		c.queue = c.queue[1:]

		if !c.current(env) {
			slog.Debug("dropping stale event", "event", eventName(env.ev), "gen", env.gen)
			continue
		}

		prev := c.state
		next, effects := session.Transition(c.state, env.ev)
		c.state = next
		if prev.Status != next.Status {
			slog.Info("session status changed", "from", prev.Status, "to", next.Status, "role", next.Role)
		}
		if next.LastError != "" && next.LastError != prev.LastError {
			slog.Warn("session error", "error", next.LastError)
		}

		for _, fx := range effects {
			c.apply(ctx, fx)
		}
	}
	c.publish()
}

func (c *Controller) current(env envelope) bool {
	if env.gen != 0 && (c.sess == nil || env.gen != c.gen) {
		return false
	}
	if env.src != nil && env.src != c.source {
		return false
	}
	return true
}

func (c *Controller) enqueue(ev session.Event) {
	c.queue = append(c.queue, envelope{ev: ev})
}

func (c *Controller) enqueueScoped(ev session.Event) {
	c.queue = append(c.queue, envelope{ev: ev, gen: c.gen})
}

func (c *Controller) apply(ctx context.Context, fx session.Effect) {
	switch e := fx.(type) {

	case session.SendRelay:
		if err := c.relay.Send(e.Event, e.Payload); err != nil {
			slog.Warn("relay send failed", "event", e.Event, "error", err)
		}

	case session.RequestCapture:
		src, err := c.capturer.Request(ctx)
		if err != nil {
			slog.Warn("screen capture refused", "error", err,
				"permission", errors.Is(err, capture.ErrPermissionDenied))
			c.enqueue(session.CaptureFailed{Err: err})
			return
		}
		c.enqueue(session.CaptureGranted{Source: src})

	case session.AdoptCapture:
		c.releaseSource()
		c.source = e.Source
		slog.Debug("capture adopted", "source", e.Source.Describe())
		go c.watch(e.Source)

	case session.ReleaseCapture:
		c.releaseSource()

	case session.DiscardCapture:
		if e.Source != nil {
			if err := e.Source.Stop(); err != nil {
				slog.Debug("discarding capture source", "error", err)
			}
		}

	case session.OpenSharerSession:
		c.closeSession()
		if c.source == nil {
			c.enqueue(session.NegotiationFailed{Err: transport.NewError("open sharer session", transport.ErrNoLocalTracks)})
			return
		}
		if !c.open(func(gen uint64, hooks transport.Hooks) (Transport, error) {
			return c.dialer.Sharer(gen, c.source.Tracks(), hooks)
		}) {
			return
		}
		offer, err := c.sess.CreateOffer()
		if err != nil {
			c.enqueueScoped(session.NegotiationFailed{Err: err})
			return
		}
		c.enqueueScoped(session.LocalOffer{Offer: offer})

	case session.OpenViewerSession:
		c.closeSession()
		c.open(c.dialer.Viewer)

	case session.CloseSession:
		c.closeSession()

	case session.AcceptOffer:
		if c.sess == nil {
			return
		}
		answer, err := c.sess.AcceptOffer(e.Offer)
		if err != nil {
			c.enqueueScoped(session.NegotiationFailed{Err: err})
			return
		}
		c.enqueueScoped(session.LocalAnswer{Answer: answer})

	case session.ApplyAnswer:
		if c.sess == nil {
			return
		}
		if err := c.sess.ApplyAnswer(e.Answer); err != nil {
			c.enqueueScoped(session.NegotiationFailed{Err: err})
		}

	case session.AddCandidate:
		if c.sess == nil {
			return
		}
		if err := c.sess.AddCandidate(e.Candidate); err != nil {
			slog.Debug("remote candidate rejected", "error", err)
		}

	case session.BindSurface:
		if err := c.surface.Bind(e.Track); err != nil {
			slog.Warn("failed to bind video surface", "error", err)
		}

	case session.ReconnectRelay:
		c.relay.Retry()

	default:
		slog.Error("unknown effect", "effect", fx)
	}
}

// open starts a new transport session under a fresh generation. Callbacks from
// older sessions are dropped by current.
func (c *Controller) open(dial func(uint64, transport.Hooks) (Transport, error)) bool {
	c.gen++
	gen := c.gen
	sess, err := dial(gen, c.hooks(gen))
	if err != nil {
		slog.Error("failed to open peer connection", "error", err)
		c.enqueue(session.NegotiationFailed{Err: err})
		return false
	}
	c.sess = sess
	slog.Debug("peer connection opened", "gen", gen)
	return true
}

func (c *Controller) hooks(gen uint64) transport.Hooks {
	return transport.Hooks{
		OnCandidate: func(cand pion.ICECandidateInit) {
			c.post(envelope{ev: session.LocalCandidate{Candidate: cand}, gen: gen})
		},
		OnState: func(s transport.State) {
			c.post(envelope{ev: session.TransportStateChanged{State: s}, gen: gen})
		},
		OnTrack: func(t media.Track) {
			c.post(envelope{ev: session.RemoteTrack{Track: t}, gen: gen})
		},
	}
}

func (c *Controller) closeSession() {
	c.surface.Clear()
	if c.sess == nil {
		return
	}
	if err := c.sess.Close(); err != nil {
		slog.Debug("closing peer connection", "error", err)
	}
	c.sess = nil
}

func (c *Controller) releaseSource() {
	if c.source == nil {
		return
	}
	src := c.source
	c.source = nil
	if err := src.Stop(); err != nil {
		slog.Debug("stopping capture source", "error", err)
	}
	slog.Info("capture released")
}

// watch reports a source that ends on its own. Ended also closes after our
// own Stop; current drops that report because the source is no longer held.
func (c *Controller) watch(src capture.Source) {
	<-src.Ended()
	c.post(envelope{ev: session.CaptureEnded{}, src: src})
}

func (c *Controller) snapshot() View {
	v := View{State: c.state}
	v.Rooms = append([]string(nil), c.state.Rooms...)
	if c.state.RoomID != "" && c.state.Role == session.RoleSharer && c.link != nil {
		v.Link = c.link(c.state.RoomID)
	}
	if c.source != nil {
		v.Source = c.source.Describe()
	}
	if c.state.Receiving {
		v.Stats = c.surface.Stats()
	}
	return v
}

func (c *Controller) publish() {
	v := c.snapshot()
	c.mu.Lock()
	c.view = v
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

func eventName(ev session.Event) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", ev), "session.")
}
