// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Handler receives socket lifecycle callbacks. OnEvent is called from the
// socket's read goroutine, one event at a time.
type Handler interface {
	OnConnect(c *Client)
	OnEvent(c *Client, event string, data []byte)
	OnDisconnect(c *Client)
}

// room is a node-local fan-out set. mu orders emits to the room.
type room struct {
	mu      sync.Mutex
	members map[string]*Client
}

// Hub maintains the set of active clients and the local room index.
type Hub struct {
	clients  map[string]*Client
	rooms    map[string]*room
	sidRooms map[string]map[string]struct{}

	broadcast  chan []byte
	Unregister chan *Client
	stopped    chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]*room),
		sidRooms:   make(map[string]map[string]struct{}),
		broadcast:  make(chan []byte, 256),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// RunWithContext processes unregistrations and broadcasts until ctx is done.
//
// Pending unregistrations are drained before broadcasts so a departed socket
// never receives a late broadcast.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Unregister:
			h.remove(client)
		case payload := <-h.broadcast:
			h.broadcastToClients(payload)
		}
	}
}

// Register adds a client so it can receive frames. It returns false once
// the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.OpenConnections.Set(float64(n))
	logging.Debug().Str("sid", c.id).Int("total_clients", n).Msg("websocket client connected")
	return true
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		h.leaveAllLocked(c.id)
		delete(h.clients, c.id)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.OpenConnections.Set(float64(n))
	logging.Debug().Str("sid", c.id).Int("total_clients", n).Msg("websocket client disconnected")
}

// unregister hands the client to the run loop unless the hub has stopped.
func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.stopped:
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.stopped) })
	count := h.GetClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// sortedClients returns clients ordered by socket id. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) broadcastToClients(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.sortedClients() {
		enqueue(c, payload)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.sortedClients() {
		c.Close()
		close(c.send)
		delete(h.clients, c.id)
	}
	h.rooms = make(map[string]*room)
	h.sidRooms = make(map[string]map[string]struct{})
}

// enqueue drops the frame when the client's queue is full. Caller holds at
// least h.mu.RLock so c.send is open.
func enqueue(c *Client, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		metrics.OutboundDropped.Inc()
		logging.Warn().Str("sid", c.id).Msg("send queue full, dropping frame")
		return false
	}
}

func (h *Hub) sendTo(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if cur, ok := h.clients[c.id]; !ok || cur != c {
		return false
	}
	return enqueue(c, payload)
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Get returns a connected client by socket id.
func (h *Hub) Get(sid string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[sid]
	return c, ok
}

// =============================================================================
// Rooms
// =============================================================================

// Join adds the socket to a local room. Unknown sockets are ignored.
func (h *Hub) Join(sid, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[sid]
	if !ok {
		return false
	}
	r, ok := h.rooms[roomID]
	if !ok {
		r = &room{members: map[string]*Client{}}
		h.rooms[roomID] = r
	}
	r.mu.Lock()
	r.members[sid] = c
	r.mu.Unlock()

	set, ok := h.sidRooms[sid]
	if !ok {
		set = map[string]struct{}{}
		h.sidRooms[sid] = set
	}
	set[roomID] = struct{}{}
	return true
}

// Leave removes the socket from a local room.
func (h *Hub) Leave(sid, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(sid, roomID)
}

func (h *Hub) leaveLocked(sid, roomID string) {
	if r, ok := h.rooms[roomID]; ok {
		r.mu.Lock()
		delete(r.members, sid)
		empty := len(r.members) == 0
		r.mu.Unlock()
		if empty {
			delete(h.rooms, roomID)
		}
	}
	if set, ok := h.sidRooms[sid]; ok {
		delete(set, roomID)
		if len(set) == 0 {
			delete(h.sidRooms, sid)
		}
	}
}

// LeaveAll removes the socket from every room and returns the rooms left.
func (h *Hub) LeaveAll(sid string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveAllLocked(sid)
}

func (h *Hub) leaveAllLocked(sid string) []string {
	var left []string
	for roomID := range h.sidRooms[sid] {
		left = append(left, roomID)
	}
	sort.Strings(left)
	for _, roomID := range left {
		h.leaveLocked(sid, roomID)
	}
	return left
}

// RoomsForSid lists the rooms the socket has joined.
func (h *Hub) RoomsForSid(sid string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.sidRooms[sid]))
	for roomID := range h.sidRooms[sid] {
		out = append(out, roomID)
	}
	sort.Strings(out)
	return out
}

// Members lists socket ids in a local room.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.members))
	for sid := range r.members {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}

// EmitToRoom sends a frame to every socket in the room except those in
// skip. Returns the number of sockets the frame was queued for.
func (h *Hub) EmitToRoom(roomID, event string, data any, skip ...string) int {
	payload, err := encodeFrame(event, data)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	sids := make([]string, 0, len(r.members))
	for sid := range r.members {
		sids = append(sids, sid)
	}
	sort.Strings(sids)

	n := 0
	for _, sid := range sids {
		if contains(skip, sid) {
			continue
		}
		if enqueue(r.members[sid], payload) {
			n++
		}
	}
	return n
}

// EmitToSid sends a frame to one socket.
func (h *Hub) EmitToSid(sid, event string, data any) bool {
	c, ok := h.Get(sid)
	if !ok {
		return false
	}
	return c.Emit(event, data)
}

// Broadcast queues a frame for every connected socket.
func (h *Hub) Broadcast(event string, data any) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		logging.Warn().Str("event", event).Msg("broadcast channel full, dropping frame")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CloseSid closes a local socket after flushing its queue. It returns false
// when the socket is not on this node.
func (h *Hub) CloseSid(sid string) bool {
	c, ok := h.Get(sid)
	if !ok {
		return false
	}
	c.Close()
	return true
}
