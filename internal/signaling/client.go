package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saiful3278/Screenshare-fronted/internal/dns"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
	sendBuffer        = 32
)

var (
	ErrNotConnected     = errors.New("not connected to relay")
	ErrSendBufferFull   = errors.New("relay send buffer full")
	ErrEmptyPayload     = errors.New("empty payload")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Client keeps one WebSocket connection to the relay alive for the lifetime
// of the process, reconnecting with bounded exponential backoff.
type Client struct {
	serverURL  string
	dialer     *websocket.Dialer
	minBackoff time.Duration
	maxBackoff time.Duration

	onConnect    func()
	onDisconnect func(error)
	onMessage    func(*Message)

	mu       sync.Mutex
	outgoing chan *Message
	retry    chan struct{}
}

// Option customizes a Client.
type Option func(*Client)

// WithBackoff bounds the delay between reconnection attempts.
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// WithSystemResolver skips the public DNS fallback.
func WithSystemResolver() Option {
	return func(c *Client) {
		c.dialer.NetDialContext = nil
	}
}

// NewClient creates a new signaling client
func NewClient(serverURL string, opts ...Option) *Client {
	c := &Client{
		serverURL:  serverURL,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		retry:      make(chan struct{}, 1),
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
			NetDialContext:   dialWithFallback,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnConnect registers fn to run after every successful (re)connection.
// Hooks must be set before Run.
func (c *Client) OnConnect(fn func()) { c.onConnect = fn }

// OnDisconnect registers fn to run when an established connection drops, or
// when the relay cannot be reached while it was not already reported down.
func (c *Client) OnDisconnect(fn func(error)) { c.onDisconnect = fn }

// OnMessage registers fn to receive every inbound message.
func (c *Client) OnMessage(fn func(*Message)) { c.onMessage = fn }

// Run connects and stays connected until ctx is cancelled. Connection
// failures are logged and retried, never returned.
func (c *Client) Run(ctx context.Context) {
	backoff := c.minBackoff
	down := false
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("relay connect failed", "url", c.serverURL, "retry_in", backoff, "error", err)
			if !down {
				down = true
				if c.onDisconnect != nil {
					c.onDisconnect(err)
				}
			}
			if !c.wait(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}

		backoff = c.minBackoff
		c.serve(ctx, conn)
		down = true
		if ctx.Err() != nil {
			return
		}
		if !c.wait(ctx, backoff) {
			return
		}
	}
}

// Retry cuts the current backoff wait short.
func (c *Client) Retry() {
	select {
	case c.retry <- struct{}{}:
	default:
	}
}

// Connected reports whether a connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outgoing != nil
}

// Send queues an event for the relay.
func (c *Client) Send(event string, payload any) error {
	msg, err := NewMessage(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	out := c.outgoing
	c.mu.Unlock()

	if out == nil {
		return ErrNotConnected
	}
	select {
	case out <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return conn, nil
}

// serve runs one connection until it drops.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	out := make(chan *Message, sendBuffer)
	stop := make(chan struct{})

	c.mu.Lock()
	c.outgoing = out
	c.mu.Unlock()

	slog.Info("relay connected", "url", c.serverURL)
	if c.onConnect != nil {
		c.onConnect()
	}

	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			conn.Close()
		case <-stop:
		}
	}()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		c.writePump(conn, out, stop)
	}()

	err := c.readPump(conn)

	c.mu.Lock()
	c.outgoing = nil
	c.mu.Unlock()

	close(stop)
	conn.Close()
	<-writeDone

	// A retry asked for while connected must not skip the next backoff.
	select {
	case <-c.retry:
	default:
	}

	slog.Info("relay disconnected", "url", c.serverURL, "error", err)
	if c.onDisconnect != nil {
		c.onDisconnect(err)
	}
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				slog.Debug("ignoring malformed relay frame", "error", err)
				continue
			}
			return err
		}
		if c.onMessage != nil {
			c.onMessage(&msg)
		}
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Client) writePump(conn *websocket.Conn, out <-chan *Message, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(message); err != nil {
				slog.Debug("relay write failed", "type", message.Type, "error", err)
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-stop:
			return
		}
	}
}

func (c *Client) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-c.retry:
		return true
	case <-timer.C:
		return true
	}
}

// dialWithFallback resolves the relay host with the public DNS fallback
// before dialing.
func dialWithFallback(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	resolvedIP, err := dns.Lookup(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}

	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(resolvedIP, port))
}
