// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/dino/internal/models"
)

type roleKey struct {
	userID  string
	scope   models.ACLScope
	scopeID string
	role    models.Role
}

type aclKey struct {
	scope models.ACLScope
	id    string
}

type banKey struct {
	userID  string
	scope   models.ACLScope
	scopeID string
}

type pairKey struct {
	a, b string
}

// Memory is an in-process Repository. It is safe for concurrent use and is
// used by tests and single-node development setups.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	channels  map[string]*models.Channel
	rooms     map[string]*models.Room
	members   map[string]map[string]string // room -> user -> name
	roles     map[roleKey]struct{}
	acls      map[aclKey]models.ACLs
	bans      map[banKey]models.Ban
	messages  map[string]*models.Message
	msgOrder  []string
	acks      map[pairKey]models.AckState // (message, user)
	lastReads map[pairKey]time.Time       // (room, user)
	blacklist map[string]struct{}
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		users:     map[string]*models.User{},
		channels:  map[string]*models.Channel{},
		rooms:     map[string]*models.Room{},
		members:   map[string]map[string]string{},
		roles:     map[roleKey]struct{}{},
		acls:      map[aclKey]models.ACLs{},
		bans:      map[banKey]models.Ban{},
		messages:  map[string]*models.Message{},
		acks:      map[pairKey]models.AckState{},
		lastReads: map[pairKey]time.Time{},
		blacklist: map[string]struct{}{},
	}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() {}

// --- users ---

// CreateUser inserts the user or refreshes its name.
func (m *Memory) CreateUser(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.userLocked(userID)
	u.Name = name
	return nil
}

func (m *Memory) userLocked(userID string) *models.User {
	u, ok := m.users[userID]
	if !ok {
		u = &models.User{ID: userID, Status: models.StatusUnavailable}
		m.users[userID] = u
	}
	return u
}

// GetUser loads a user with its global roles.
func (m *Memory) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNoSuchUser
	}
	c := *u
	c.Roles = nil
	for k := range m.roles {
		if k.userID == userID && k.scope == models.ScopeGlobal {
			c.Roles = append(c.Roles, k.role)
		}
	}
	return &c, nil
}

// UserExists reports whether the user exists.
func (m *Memory) UserExists(_ context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[userID]
	return ok, nil
}

// GetUserName returns the display name.
func (m *Memory) GetUserName(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return "", ErrNoSuchUser
	}
	return u.Name, nil
}

// GetUserID resolves a display name; the lowest id wins on duplicates.
func (m *Memory) GetUserID(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, u := range m.users {
		if u.Name == name {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", ErrNoSuchUser
	}
	sort.Strings(ids)
	return ids[0], nil
}

// SetUserStatus persists the presence status.
func (m *Memory) SetUserStatus(_ context.Context, userID string, status models.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userLocked(userID).Status = status
	return nil
}

// SetLastOnline records when the user was last seen.
func (m *Memory) SetLastOnline(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userLocked(userID).LastOnline = at
	return nil
}

// GetLastOnline returns when the user was last seen.
func (m *Memory) GetLastOnline(_ context.Context, userID string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return time.Time{}, ErrNoSuchUser
	}
	return u.LastOnline, nil
}

// --- channels ---

// CreateChannel inserts a channel and its owner role.
func (m *Memory) CreateChannel(_ context.Context, ch models.Channel, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[ch.ID]; ok {
		return ErrChannelExists
	}
	c := ch
	c.ACLs = nil
	m.channels[ch.ID] = &c
	if ownerID != "" {
		m.roles[roleKey{ownerID, models.ScopeChannel, ch.ID, models.RoleOwner}] = struct{}{}
	}
	return nil
}

// GetChannel loads a channel with its ACLs.
func (m *Memory) GetChannel(_ context.Context, channelID string) (*models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[channelID]
	if !ok {
		return nil, ErrNoSuchChannel
	}
	c := *ch
	c.ACLs = m.aclsLocked(models.ScopeChannel, channelID)
	return &c, nil
}

// GetChannels lists channels ordered by sort order then name.
func (m *Memory) GetChannels(_ context.Context) ([]models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		out = append(out, *ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ChannelExists reports whether the channel exists.
func (m *Memory) ChannelExists(_ context.Context, channelID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.channels[channelID]
	return ok, nil
}

// ChannelForRoom returns the channel of the room.
func (m *Memory) ChannelForRoom(_ context.Context, roomID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return "", ErrNoSuchRoom
	}
	return r.ChannelID, nil
}

// RemoveChannel deletes the channel and all its rooms.
func (m *Memory) RemoveChannel(_ context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[channelID]; !ok {
		return ErrNoSuchChannel
	}
	for id, r := range m.rooms {
		if r.ChannelID == channelID {
			m.removeRoomLocked(id)
		}
	}
	delete(m.channels, channelID)
	delete(m.acls, aclKey{models.ScopeChannel, channelID})
	for k := range m.roles {
		if k.scope == models.ScopeChannel && k.scopeID == channelID {
			delete(m.roles, k)
		}
	}
	return nil
}

// --- rooms ---

// CreateRoom inserts the room and grants ownership.
func (m *Memory) CreateRoom(_ context.Context, room models.Room, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.channels[room.ChannelID]; !ok {
		return ErrNoSuchChannel
	}
	for _, r := range m.rooms {
		if r.ChannelID == room.ChannelID && r.Name == room.Name {
			return ErrRoomExists
		}
	}
	if _, ok := m.rooms[room.ID]; ok {
		return ErrRoomExists
	}
	r := room
	r.ACLs = nil
	r.Users = 0
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.rooms[room.ID] = &r
	m.members[room.ID] = map[string]string{}
	if ownerID != "" {
		m.roles[roleKey{ownerID, models.ScopeRoom, room.ID, models.RoleOwner}] = struct{}{}
	}
	return nil
}

// GetRoom loads a room with ACLs and member count.
func (m *Memory) GetRoom(_ context.Context, roomID string) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNoSuchRoom
	}
	c := *r
	c.ACLs = m.aclsLocked(models.ScopeRoom, roomID)
	c.Users = len(m.members[roomID])
	return &c, nil
}

// RoomExists reports whether the room exists.
func (m *Memory) RoomExists(_ context.Context, roomID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID]
	return ok, nil
}

// GetRoomName returns the room name.
func (m *Memory) GetRoomName(_ context.Context, roomID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return "", ErrNoSuchRoom
	}
	return r.Name, nil
}

// RoomIDsForName returns rooms carrying name.
func (m *Memory) RoomIDsForName(_ context.Context, channelID, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id, r := range m.rooms {
		if r.Name == name && (channelID == "" || r.ChannelID == channelID) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RoomsForChannel lists rooms of a channel.
func (m *Memory) RoomsForChannel(_ context.Context, channelID string) ([]models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Room
	for id, r := range m.rooms {
		if r.ChannelID != channelID {
			continue
		}
		c := *r
		c.Users = len(m.members[id])
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// RoomsForUser returns room id -> name for each membership.
func (m *Memory) RoomsForUser(_ context.Context, userID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]string{}
	for roomID, users := range m.members {
		if _, ok := users[userID]; ok {
			out[roomID] = m.rooms[roomID].Name
		}
	}
	return out, nil
}

// UsersInRoom returns user id -> name for each member.
func (m *Memory) UsersInRoom(_ context.Context, roomID string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.members[roomID]))
	for id, name := range m.members[roomID] {
		out[id] = name
	}
	return out, nil
}

// JoinRoom adds membership and bumps the join count.
func (m *Memory) JoinRoom(_ context.Context, userID, userName, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return ErrNoSuchRoom
	}
	m.members[roomID][userID] = userName
	r.JoinCount++
	return nil
}

// LeaveRoom removes membership.
func (m *Memory) LeaveRoom(_ context.Context, userID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if users, ok := m.members[roomID]; ok {
		delete(users, userID)
	}
	return nil
}

// RemoveRoom deletes the room with its ACLs, roles and members.
func (m *Memory) RemoveRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return ErrNoSuchRoom
	}
	m.removeRoomLocked(roomID)
	return nil
}

func (m *Memory) removeRoomLocked(roomID string) {
	delete(m.rooms, roomID)
	delete(m.members, roomID)
	delete(m.acls, aclKey{models.ScopeRoom, roomID})
	for k := range m.roles {
		if k.scope == models.ScopeRoom && k.scopeID == roomID {
			delete(m.roles, k)
		}
	}
}

// CountPrivateRooms counts ephemeral rooms owned by the user.
func (m *Memory) CountPrivateRooms(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for id, r := range m.rooms {
		if !r.Ephemeral {
			continue
		}
		if _, ok := m.roles[roleKey{userID, models.ScopeRoom, id, models.RoleOwner}]; ok {
			n++
		}
	}
	return n, nil
}

// AdminRoom returns the oldest room flagged admin.
func (m *Memory) AdminRoom(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.Room
	for _, r := range m.rooms {
		if r.Admin && (found == nil || r.CreatedAt.Before(found.CreatedAt)) {
			found = r
		}
	}
	if found == nil {
		return "", ErrNoAdminRoom
	}
	return found.ID, nil
}

// CountJoins returns join counters for existing rooms.
func (m *Memory) CountJoins(_ context.Context, roomIDs []string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(roomIDs))
	for _, id := range roomIDs {
		if r, ok := m.rooms[id]; ok {
			out[id] = r.JoinCount
		}
	}
	return out, nil
}

// --- roles ---

// GetUserRoles returns the denormalised role view.
func (m *Memory) GetUserRoles(_ context.Context, userID string) (*models.UserRoles, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roles := models.NewUserRoles()
	for k := range m.roles {
		if k.userID == userID {
			roles.Add(k.scope, k.scopeID, k.role)
		}
	}
	return roles, nil
}

// AddRole grants a role.
func (m *Memory) AddRole(_ context.Context, userID string, scope models.ACLScope, scopeID string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[roleKey{userID, scope, globalScopeID(scope, scopeID), role}] = struct{}{}
	return nil
}

// RemoveRole revokes a role.
func (m *Memory) RemoveRole(_ context.Context, userID string, scope models.ACLScope, scopeID string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, roleKey{userID, scope, globalScopeID(scope, scopeID), role})
	return nil
}

// UsersWithRole lists holders of role in a scope instance.
func (m *Memory) UsersWithRole(_ context.Context, scope models.ACLScope, scopeID string, role models.Role) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scopeID = globalScopeID(scope, scopeID)
	var out []string
	for k := range m.roles {
		if k.scope == scope && k.scopeID == scopeID && k.role == role {
			out = append(out, k.userID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func globalScopeID(scope models.ACLScope, scopeID string) string {
	if scope == models.ScopeGlobal {
		return ""
	}
	return scopeID
}

// --- acls ---

func (m *Memory) aclsLocked(scope models.ACLScope, id string) models.ACLs {
	acls, ok := m.acls[aclKey{scope, id}]
	if !ok {
		return models.ACLs{}
	}
	return acls.Clone()
}

// GetACLsForAction returns acl-type -> value for one action.
func (m *Memory) GetACLsForAction(_ context.Context, scope models.ACLScope, id string, action models.ACLAction) (models.ACLSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.acls[aclKey{scope, id}][action]
	if !ok {
		return models.ACLSet{}, nil
	}
	return set.Clone(), nil
}

// GetACLs returns every ACL of the object.
func (m *Memory) GetACLs(_ context.Context, scope models.ACLScope, id string) (models.ACLs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.aclsLocked(scope, id), nil
}

// UpdateACL writes or removes one ACL entry.
func (m *Memory) UpdateACL(_ context.Context, scope models.ACLScope, id string, action models.ACLAction, aclType, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := aclKey{scope, id}
	acls, ok := m.acls[key]
	if !ok {
		acls = models.ACLs{}
		m.acls[key] = acls
	}
	if value == "" {
		delete(acls[action], aclType)
		if len(acls[action]) == 0 {
			delete(acls, action)
		}
		return nil
	}
	set, ok := acls[action]
	if !ok {
		set = models.ACLSet{}
		acls[action] = set
	}
	set[aclType] = value
	return nil
}

// --- bans ---

// BanUser creates or updates the ban.
func (m *Memory) BanUser(_ context.Context, ban models.Ban) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := banKey{ban.UserID, ban.Scope, globalScopeID(ban.Scope, ban.ScopeID)}
	if existing, ok := m.bans[key]; ok {
		ban.CreatedAt = existing.CreatedAt
	} else if ban.CreatedAt.IsZero() {
		ban.CreatedAt = time.Now().UTC()
	}
	ban.ScopeID = key.scopeID
	m.bans[key] = ban
	return nil
}

// RemoveBan lifts a ban.
func (m *Memory) RemoveBan(_ context.Context, userID string, scope models.ACLScope, scopeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bans, banKey{userID, scope, globalScopeID(scope, scopeID)})
	return nil
}

// GetUserBanStatus returns end times per scope.
func (m *Memory) GetUserBanStatus(_ context.Context, roomID, userID string) (models.BanStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var status models.BanStatus
	if b, ok := m.bans[banKey{userID, models.ScopeGlobal, ""}]; ok {
		status.Global = b.ExpiresAt
	}
	if roomID == "" {
		return status, nil
	}
	if b, ok := m.bans[banKey{userID, models.ScopeRoom, roomID}]; ok {
		status.Room = b.ExpiresAt
	}
	if r, ok := m.rooms[roomID]; ok {
		if b, ok := m.bans[banKey{userID, models.ScopeChannel, r.ChannelID}]; ok {
			status.Channel = b.ExpiresAt
		}
	}
	return status, nil
}

// GetBans lists active bans ordered by expiry.
func (m *Memory) GetBans(_ context.Context, now time.Time) ([]models.Ban, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ban
	for _, b := range m.bans {
		if b.Active(now) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

// --- messages ---

// StoreMessage inserts the message; a known id is a no-op.
func (m *Memory) StoreMessage(_ context.Context, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; ok {
		return nil
	}
	c := msg
	c.Deleted = false
	m.messages[msg.ID] = &c
	m.msgOrder = append(m.msgOrder, msg.ID)
	return nil
}

// GetMessage loads a message.
func (m *Memory) GetMessage(_ context.Context, messageID string) (*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, ErrNoSuchMessage
	}
	c := *msg
	return &c, nil
}

// DeleteMessage tombstones a message.
func (m *Memory) DeleteMessage(_ context.Context, messageID string, clearBody bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return ErrNoSuchMessage
	}
	msg.Deleted = true
	if clearBody {
		msg.Body = ""
	}
	return nil
}

func (m *Memory) liveMessagesLocked(match func(*models.Message) bool) []models.Message {
	var out []models.Message
	for _, id := range m.msgOrder {
		msg, ok := m.messages[id]
		if !ok || msg.Deleted || !match(msg) {
			continue
		}
		out = append(out, *msg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.Before(out[j].Published) })
	return out
}

// GetHistory returns the latest limit messages, oldest first.
func (m *Memory) GetHistory(_ context.Context, targetID string, limit int) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.liveMessagesLocked(func(msg *models.Message) bool { return msg.TargetID == targetID })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// GetHistorySince returns messages newer than since, oldest first.
func (m *Memory) GetHistorySince(_ context.Context, targetID string, since time.Time, limit int) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.liveMessagesLocked(func(msg *models.Message) bool {
		return msg.TargetID == targetID && msg.Published.After(since)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// GetUndeletedMessageIDsForUser lists live message ids of the sender.
func (m *Memory) GetUndeletedMessageIDsForUser(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return messageIDs(m.liveMessagesLocked(func(msg *models.Message) bool {
		return msg.FromUserID == userID
	})), nil
}

// GetUndeletedMessageIDsForUserAndRoom narrows the listing to one room.
func (m *Memory) GetUndeletedMessageIDsForUserAndRoom(_ context.Context, userID, roomID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return messageIDs(m.liveMessagesLocked(func(msg *models.Message) bool {
		return msg.FromUserID == userID && msg.TargetID == roomID
	})), nil
}

func messageIDs(msgs []models.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.ID)
	}
	return out
}

// SetAckState raises ack states monotonically; unknown ids are skipped.
func (m *Memory) SetAckState(_ context.Context, userID string, ids []string, state models.AckState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.messages[id]; !ok {
			continue
		}
		key := pairKey{id, userID}
		if current, ok := m.acks[key]; !ok || state > current {
			m.acks[key] = state
		}
	}
	return nil
}

// GetAckStates returns ack states for known (message, user) pairs.
func (m *Memory) GetAckStates(_ context.Context, userID string, ids []string) (map[string]models.AckState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.AckState, len(ids))
	for _, id := range ids {
		if state, ok := m.acks[pairKey{id, userID}]; ok {
			out[id] = state
		}
	}
	return out, nil
}

// SetLastRead records when the user last read the room.
func (m *Memory) SetLastRead(_ context.Context, roomID, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReads[pairKey{roomID, userID}] = at
	return nil
}

// GetLastRead returns when the user last read the room.
func (m *Memory) GetLastRead(_ context.Context, roomID, userID string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReads[pairKey{roomID, userID}], nil
}

// --- blacklist ---

// GetBlacklist returns the sorted word list.
func (m *Memory) GetBlacklist(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.blacklist))
	for w := range m.blacklist {
		out = append(out, w)
	}
	slices.Sort(out)
	return out, nil
}

// AddBlacklistWords stores lowercased words.
func (m *Memory) AddBlacklistWords(_ context.Context, words []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m.blacklist[w] = struct{}{}
		}
	}
	return nil
}

// RemoveBlacklistWord deletes a word.
func (m *Memory) RemoveBlacklistWord(_ context.Context, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blacklist, strings.ToLower(strings.TrimSpace(word)))
	return nil
}
