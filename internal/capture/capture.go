package capture

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v4"
)

var (
	// ErrUnavailable means there is nothing to capture on this platform or
	// with this configuration.
	ErrUnavailable = errors.New("screen capture unavailable")

	// ErrPermissionDenied means a capture source exists but access was refused.
	ErrPermissionDenied = errors.New("screen capture permission denied")
)

// Source is a granted capture. It owns its tracks until Stop is called.
type Source interface {
	// Tracks returns the local tracks to attach to a transport session.
	Tracks() []webrtc.TrackLocal
	// Ended is closed when the source stops producing, for any reason.
	Ended() <-chan struct{}
	// Stop releases every underlying track. Safe to call more than once.
	Stop() error
	Describe() string
}

// Capturer asks the platform for a new capture source.
type Capturer interface {
	Request(ctx context.Context) (Source, error)
}

// CapturerFunc adapts a function to Capturer.
type CapturerFunc func(ctx context.Context) (Source, error)

func (f CapturerFunc) Request(ctx context.Context) (Source, error) {
	return f(ctx)
}

// Unavailable is the capturer of a platform without screen capture.
var Unavailable Capturer = CapturerFunc(func(context.Context) (Source, error) {
	return nil, ErrUnavailable
})
