// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
)

const (
	writeWait             = 10 * time.Second
	pongWait              = 60 * time.Second
	pingPeriod            = (pongWait * 9) / 10
	defaultMaxMessageSize = 512 * 1024
	sendQueueSize         = 256
)

// inboundFrame is a client frame before the data payload is decoded.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one socket. The zero value is not usable; use NewClient.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler Handler
	limiter *rate.Limiter
	maxSize int64
	remote  string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	userID string

	closeOnce sync.Once
	done      chan struct{}
}

// ClientOptions tunes a client.
type ClientOptions struct {
	MaxMessageSize  int64
	EventsPerSecond float64
	Burst           int
	RemoteAddr      string
}

// NewClient creates a client with a fresh socket id.
func NewClient(hub *Hub, conn *websocket.Conn, handler Handler, opts ClientOptions) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		handler: handler,
		maxSize: opts.MaxMessageSize,
		remote:  opts.RemoteAddr,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if c.maxSize <= 0 {
		c.maxSize = defaultMaxMessageSize
	}
	if opts.EventsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(opts.EventsPerSecond)
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.EventsPerSecond), burst)
	}
	return c
}

// ID returns the socket id.
func (c *Client) ID() string { return c.id }

// RemoteAddr returns the peer address captured at upgrade.
func (c *Client) RemoteAddr() string { return c.remote }

// Context is canceled when the socket closes.
func (c *Client) Context() context.Context { return c.ctx }

// UserID returns the bound user, empty before login.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetUserID binds the socket to a user.
func (c *Client) SetUserID(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// Emit queues a frame for this socket. It returns false when the socket is
// gone or its queue is full.
func (c *Client) Emit(event string, data any) bool {
	payload, err := encodeFrame(event, data)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return false
	}
	return c.hub.sendTo(c, payload)
}

// Reply emits the result of a verb as gn_<verb>.
func (c *Client) Reply(verb string, res activity.Result) bool {
	return c.Emit(activity.ParseVerb(verb).Event(), res.Reply())
}

// Close asks the write pump to send a close frame and drop the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

// CloseAfter closes the socket after d unless it closes earlier.
func (c *Client) CloseAfter(d time.Duration) {
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			c.Close()
		case <-c.done:
		}
	}()
}

func encodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(activity.Frame{Event: event, Data: data})
}

// readPump hands frames to the handler until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.handler.OnDisconnect(c)
		c.hub.unregister(c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Debug().Err(err).Str("sid", c.id).Msg("unexpected websocket close")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			c.Emit(activity.EventError, activity.Fail(activity.ValidationError, "malformed frame").Reply())
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			metrics.EventsRateLimited.Inc()
			c.Reply(frame.Event, activity.Fail(activity.NotAllowed, "rate limited"))
			continue
		}

		c.handler.OnEvent(c, frame.Event, frame.Data)
	}
}

// writePump drains the send queue and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logging.Debug().Err(err).Str("sid", c.id).Msg("failed to write frame")
				return
			}

		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is already queued so frames emitted right before a
// forced close (for example gn_banned) still reach the peer.
func (c *Client) flush() {
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
