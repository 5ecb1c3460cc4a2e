// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package presence

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
	"github.com/tomtom215/dino/internal/models"
)

// StatusRepository persists status transitions.
type StatusRepository interface {
	SetUserStatus(ctx context.Context, userID string, status models.UserStatus) error
	SetLastOnline(ctx context.Context, userID string, at time.Time) error
	UsersInRoom(ctx context.Context, roomID string) (map[string]string, error)
}

// RoomIndex exposes the rooms a local socket has joined. The websocket hub
// implements it.
type RoomIndex interface {
	RoomsForSid(sid string) []string
}

// Tracker is the presence tracker for one node.
type Tracker struct {
	cache *cache.Cache
	repo  StatusRepository
	locks *UserLocks

	mu      sync.RWMutex
	sockets map[string]map[string]struct{} // user -> sids
	owners  map[string]string              // sid -> user
	rooms   RoomIndex

	now func() time.Time
}

// NewTracker creates a tracker.
func NewTracker(c *cache.Cache, repo StatusRepository, locks *UserLocks) *Tracker {
	if locks == nil {
		locks = NewUserLocks(0)
	}
	return &Tracker{
		cache:   c,
		repo:    repo,
		locks:   locks,
		sockets: map[string]map[string]struct{}{},
		owners:  map[string]string{},
		now:     time.Now,
	}
}

// SetRoomIndex attaches the local room index used by IsOnThisNode.
func (t *Tracker) SetRoomIndex(idx RoomIndex) {
	t.mu.Lock()
	t.rooms = idx
	t.mu.Unlock()
}

// Locks returns the per-user lock map shared with the gateway.
func (t *Tracker) Locks() *UserLocks { return t.locks }

// =============================================================================
// Socket binding
// =============================================================================

// Bind records sid as a local socket of userID and mirrors it in the shared
// sid map.
func (t *Tracker) Bind(ctx context.Context, userID, sid string) error {
	unlock := t.locks.Lock(userID)
	defer unlock()

	t.mu.Lock()
	set, ok := t.sockets[userID]
	if !ok {
		set = map[string]struct{}{}
		t.sockets[userID] = set
	}
	set[sid] = struct{}{}
	t.owners[sid] = userID
	n := len(t.owners)
	t.mu.Unlock()

	metrics.ConnectedSockets.Set(float64(n))
	if err := t.cache.AddSid(ctx, userID, sid); err != nil {
		return fmt.Errorf("bind socket %s: %w", sid, err)
	}
	return nil
}

// Unbind forgets sid and returns how many local sockets userID still has.
func (t *Tracker) Unbind(ctx context.Context, userID, sid string) (int, error) {
	unlock := t.locks.Lock(userID)
	defer unlock()
	return t.unbindLocked(ctx, userID, sid)
}

func (t *Tracker) unbindLocked(ctx context.Context, userID, sid string) (int, error) {
	t.mu.Lock()
	remaining := 0
	if set, ok := t.sockets[userID]; ok {
		delete(set, sid)
		remaining = len(set)
		if remaining == 0 {
			delete(t.sockets, userID)
		}
	}
	delete(t.owners, sid)
	n := len(t.owners)
	t.mu.Unlock()

	metrics.ConnectedSockets.Set(float64(n))
	if err := t.cache.RemoveSid(ctx, userID, sid); err != nil {
		return remaining, fmt.Errorf("unbind socket %s: %w", sid, err)
	}
	return remaining, nil
}

// LocalSids returns userID's sockets on this node.
func (t *Tracker) LocalSids(userID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.sockets[userID]))
	for sid := range t.sockets[userID] {
		out = append(out, sid)
	}
	slices.Sort(out)
	return out
}

// UserForSid resolves a local socket.
func (t *Tracker) UserForSid(sid string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.owners[sid]
	return u, ok
}

// LocalUsers lists users with at least one socket on this node.
func (t *Tracker) LocalUsers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.sockets))
	for u := range t.sockets {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// IsOnThisNode reports whether userID has a socket here. When roomID is not
// empty the socket must also have joined that room.
func (t *Tracker) IsOnThisNode(userID, roomID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := t.sockets[userID]
	if len(set) == 0 {
		return false
	}
	if roomID == "" {
		return true
	}
	if t.rooms == nil {
		return false
	}
	for sid := range set {
		if slices.Contains(t.rooms.RoomsForSid(sid), roomID) {
			return true
		}
	}
	return false
}

// =============================================================================
// Status
// =============================================================================

// SetOnline marks the user available.
func (t *Tracker) SetOnline(ctx context.Context, userID string) error {
	return t.setStatus(ctx, userID, models.StatusAvailable)
}

// SetOffline marks the user unavailable and records last-online.
func (t *Tracker) SetOffline(ctx context.Context, userID string) error {
	return t.setStatus(ctx, userID, models.StatusUnavailable)
}

// SetInvisible hides the user from the online set while keeping targeted
// delivery.
func (t *Tracker) SetInvisible(ctx context.Context, userID string) error {
	return t.setStatus(ctx, userID, models.StatusInvisible)
}

// SetStatus applies an arbitrary status.
func (t *Tracker) SetStatus(ctx context.Context, userID string, status models.UserStatus) error {
	return t.setStatus(ctx, userID, status)
}

func (t *Tracker) setStatus(ctx context.Context, userID string, status models.UserStatus) error {
	unlock := t.locks.Lock(userID)
	defer unlock()
	return t.setStatusLocked(ctx, userID, status)
}

func (t *Tracker) setStatusLocked(ctx context.Context, userID string, status models.UserStatus) error {
	if err := t.cache.SetUserStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("set status %s for %s: %w", status, userID, err)
	}
	if t.repo != nil {
		if err := t.repo.SetUserStatus(ctx, userID, status); err != nil {
			return fmt.Errorf("persist status for %s: %w", userID, err)
		}
		if status == models.StatusUnavailable {
			if err := t.repo.SetLastOnline(ctx, userID, t.now()); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to record last online")
			}
		}
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("status", string(status)).Msg("Status changed")
	return nil
}

// Status returns the user's status, StatusUnknown when never set.
func (t *Tracker) Status(ctx context.Context, userID string) models.UserStatus {
	if s, ok := t.cache.GetUserStatus(ctx, userID); ok {
		return s
	}
	return models.StatusUnknown
}

// IsInvisible reports an invisible status.
func (t *Tracker) IsInvisible(ctx context.Context, userID string) bool {
	return t.Status(ctx, userID) == models.StatusInvisible
}

// IsOnline reports membership of the online set.
func (t *Tracker) IsOnline(ctx context.Context, userID string) bool {
	ok, err := t.cache.IsOnline(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Online check failed")
	}
	return ok
}

// MulticastEligible reports whether targeted events may reach the user.
func (t *Tracker) MulticastEligible(ctx context.Context, userID string) bool {
	ok, err := t.cache.IsMulticastEligible(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Multicast check failed")
	}
	return ok
}

// Disconnect unbinds sid and, when it was the user's last socket in the
// cluster and the user is not invisible, sets the user offline. It returns
// true when the user went offline.
func (t *Tracker) Disconnect(ctx context.Context, userID, sid string) (bool, error) {
	unlock := t.locks.Lock(userID)
	defer unlock()

	remaining, err := t.unbindLocked(ctx, userID, sid)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("sid", sid).Msg("Failed to unbind socket")
	}
	if remaining > 0 {
		return false, nil
	}
	// Sockets on other nodes keep the user online.
	if sids, err := t.cache.SidsForUser(ctx, userID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to read cluster sockets")
	} else if len(sids) > 0 {
		return false, nil
	}
	if s, ok := t.cache.GetUserStatus(ctx, userID); ok && s == models.StatusInvisible {
		return false, nil
	}
	if err := t.setStatusLocked(ctx, userID, models.StatusUnavailable); err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// Room views
// =============================================================================

// VisibleUsersInRoom returns user id -> name for members of roomID that
// the requester may see: online users, plus invisible users when the
// requester is a super user. The view is cached per (room, isSuper).
func (t *Tracker) VisibleUsersInRoom(ctx context.Context, roomID string, isSuper bool) (map[string]string, error) {
	if users, ok := t.cache.GetUsersInRoom(roomID, isSuper); ok {
		return users, nil
	}

	members, err := t.repo.UsersInRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("users in room %s: %w", roomID, err)
	}

	visible := make(map[string]string, len(members))
	for id, name := range members {
		switch t.Status(ctx, id) {
		case models.StatusAvailable, models.StatusChat:
			visible[id] = name
		case models.StatusInvisible:
			if isSuper {
				visible[id] = name
			}
		}
	}
	t.cache.SetUsersInRoom(roomID, isSuper, visible)
	return visible, nil
}
