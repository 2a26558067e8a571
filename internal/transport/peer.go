package transport

import (
	"github.com/pion/interceptor"
	pion "github.com/pion/webrtc/v4"

	"github.com/saiful3278/Screenshare-fronted/internal/config"
)

// Options configures the peer connections a session creates.
type Options struct {
	STUNServers []string

	// Loopback allows host candidates on loopback interfaces, so two peers on
	// one machine can connect without any other network.
	Loopback bool
}

// OptionsFrom derives transport options from the app configuration.
func OptionsFrom(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{STUNServers: cfg.STUNServers}
}

// NewPeerConnection builds a STUN-only peer connection with the default
// codecs and interceptors (NACK, RTCP reports, TWCC).
func NewPeerConnection(opts Options) (*pion.PeerConnection, error) {
	m := &pion.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, NewError("register codecs", err)
	}

	ir := &interceptor.Registry{}
	if err := pion.RegisterDefaultInterceptors(m, ir); err != nil {
		return nil, NewError("register interceptors", err)
	}

	se := pion.SettingEngine{}
	if opts.Loopback {
		se.SetIncludeLoopbackCandidate(true)
	}

	api := pion.NewAPI(
		pion.WithMediaEngine(m),
		pion.WithInterceptorRegistry(ir),
		pion.WithSettingEngine(se),
	)

	var iceServers []pion.ICEServer
	if len(opts.STUNServers) > 0 {
		iceServers = []pion.ICEServer{{URLs: opts.STUNServers}}
	}

	pc, err := api.NewPeerConnection(pion.Configuration{
		ICEServers: iceServers,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}
