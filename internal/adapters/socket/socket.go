// Package socket is the websocket transport to the karaoke server. It owns
// connection lifecycle including reconnects; consumers see only the event
// stream and Emit.
package socket

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/api"
	"github.com/openkara/player/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	defaultAttempts  = 5
	defaultBaseDelay = time.Second
	writeWait        = 5 * time.Second
	sendBuffer       = 32
	eventBuffer      = 64
)

type Client struct {
	wsURL string
	token string

	attempts  int
	baseDelay time.Duration

	events chan core.Event
	send   chan []byte
	quit   chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New builds a client for the given server base URL. The session token is
// sent as the keToken cookie on the upgrade request, the same way a browser
// controller authenticates.
func New(serverURL, token string) *Client {
	base := api.NormalizeBaseURL(serverURL)
	wsURL := strings.Replace(base, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	return &Client{
		wsURL:     wsURL + "socket",
		token:     token,
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
		events:    make(chan core.Event, eventBuffer),
		send:      make(chan []byte, sendBuffer),
		quit:      make(chan struct{}),
	}
}

func (c *Client) Events() <-chan core.Event {
	return c.events
}

// Start runs the connect/reconnect loop until ctx is cancelled, Close is
// called, or the attempt budget is spent. Each established connection gets a
// fresh write pump; reads happen on this goroutine so inbound events keep
// arrival order.
func (c *Client) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Client) run(ctx context.Context) {
	defer close(c.events)

	attempt := 0
	for {
		if c.done(ctx) {
			return
		}

		c.emitConn(core.Connecting)
		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			log.Error().Err(err).Str("module", "socket").Int("attempt", attempt).Msg("dial")
			if attempt >= c.attempts {
				c.emitConn(core.ConnError)
				return
			}
			c.emitConn(core.Disconnected)
			if !c.sleep(ctx, c.baseDelay*time.Duration(attempt)) {
				return
			}
			continue
		}

		attempt = 0
		c.setConn(conn)
		c.emitConn(core.Connected)
		log.Info().Str("module", "socket").Str("url", c.wsURL).Msg("connected")

		done := make(chan struct{})
		go c.writePump(conn, done)
		c.readLoop(conn)
		close(done)
		c.setConn(nil)
		conn.Close()

		if c.done(ctx) {
			return
		}
		c.emitConn(core.Disconnected)
		if !c.sleep(ctx, c.baseDelay) {
			return
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Cookie", api.TokenCookie+"="+c.token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, header)
	return conn, err
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) done(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.quit:
		return true
	default:
		return false
	}
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.quit:
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) emitConn(s core.ConnState) {
	select {
	case c.events <- core.ConnEvent(s):
	default:
		log.Warn().Str("module", "socket").Str("state", s.String()).Msg("event buffer full, dropping conn event")
	}
}

// Close stops the reconnect loop and tears down any live connection. Safe to
// call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.quit)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}
