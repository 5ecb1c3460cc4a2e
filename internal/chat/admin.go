// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// Operations used by the admin REST surface. They skip the socket
// pipeline and trust the caller; the REST layer authenticates it.

// ErrProtectedUser is returned when moderating a user immune to it.
var ErrProtectedUser = errors.New("user cannot be kicked or banned")

// BanFromAdmin validates the target and applies the ban.
func (s *Service) BanFromAdmin(ctx context.Context, b Ban) error {
	if err := s.checkModerationTarget(ctx, b.UserID); err != nil {
		return err
	}
	switch b.Scope {
	case models.ScopeRoom:
		if _, err := s.repo.GetRoom(ctx, b.ScopeID); err != nil {
			return err
		}
	case models.ScopeChannel:
		if _, err := s.repo.GetChannel(ctx, b.ScopeID); err != nil {
			return err
		}
	}
	return s.Ban(ctx, b)
}

// KickFromAdmin validates the target and kicks the user from the room.
func (s *Service) KickFromAdmin(ctx context.Context, k Kick) error {
	if err := s.checkModerationTarget(ctx, k.UserID); err != nil {
		return err
	}
	if _, err := s.repo.GetRoom(ctx, k.RoomID); err != nil {
		return err
	}
	return s.Kick(ctx, k)
}

func (s *Service) checkModerationTarget(ctx context.Context, userID string) error {
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return database.ErrNoSuchUser
	}
	roles, err := s.userRoles(ctx, userID)
	if err != nil {
		return err
	}
	if s.authz.IsProtected(roles) {
		return ErrProtectedUser
	}
	return nil
}

// Bans lists the active bans.
func (s *Service) Bans(ctx context.Context) ([]models.Ban, error) {
	return s.repo.GetBans(ctx, s.now().UTC())
}

// AddBlacklist adds words and drops the cached automaton.
func (s *Service) AddBlacklist(ctx context.Context, words []string) error {
	if err := s.repo.AddBlacklistWords(ctx, words); err != nil {
		return err
	}
	s.cache.ResetBlacklist()
	return nil
}

// RemoveBlacklist removes one word and drops the cached automaton.
func (s *Service) RemoveBlacklist(ctx context.Context, word string) error {
	if err := s.repo.RemoveBlacklistWord(ctx, word); err != nil {
		return err
	}
	s.cache.ResetBlacklist()
	return nil
}

// CreateEphemeralRoom creates a room owned by ownerID with the given
// members and returns its id.
func (s *Service) CreateEphemeralRoom(ctx context.Context, channelID, name, ownerID string, memberIDs []string) (string, error) {
	if _, err := s.repo.GetChannel(ctx, channelID); err != nil {
		return "", err
	}
	members := make(map[string]string, len(memberIDs)+1)
	for _, id := range append([]string{ownerID}, memberIDs...) {
		members[id] = s.userName(ctx, id)
	}
	room := models.Room{ID: uuid.NewString(), ChannelID: channelID, Name: name, Ephemeral: true}
	if err := s.CreateRoom(ctx, room, ownerID, members); err != nil {
		return "", err
	}
	ev := activity.New(activity.VerbCreate)
	ev.Actor.ID = ownerID
	ev.Object = &activity.Entity{URL: channelID}
	ev.Target = &activity.Entity{ID: room.ID, ObjectType: activity.TypeRoom, DisplayName: activity.B64Encode(name)}
	s.publishExternal(ctx, ev)
	return room.ID, nil
}

// DeleteMessages tombstones the user's messages, in one room or in all.
func (s *Service) DeleteMessages(ctx context.Context, userID, roomID string) (int, error) {
	var (
		ids []string
		err error
	)
	if roomID != "" {
		ids, err = s.repo.GetUndeletedMessageIDsForUserAndRoom(ctx, userID, roomID)
	} else {
		ids, err = s.repo.GetUndeletedMessageIDsForUser(ctx, userID)
	}
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, id := range ids {
		msg, err := s.repo.GetMessage(ctx, id)
		if err != nil {
			return deleted, err
		}
		if err := s.repo.DeleteMessage(ctx, id, true); err != nil {
			return deleted, err
		}
		deleted++
		if msg.TargetType == activity.TypeRoom {
			s.emitToRoom(ctx, msg.TargetID, activity.EventMessageDeleted, messageDeleted{MessageID: id, RoomID: msg.TargetID}, "")
		}
	}
	ev := activity.New(activity.VerbDelete)
	ev.Object = &activity.Entity{ID: userID, Summary: fmt.Sprint(deleted)}
	ev.Target = &activity.Entity{ID: roomID, ObjectType: activity.TypeRoom}
	s.publishExternal(ctx, ev)
	return deleted, nil
}

// History returns up to limit messages of roomID, after since when set.
func (s *Service) History(ctx context.Context, roomID string, since time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = s.historyLimit()
	}
	if !since.IsZero() {
		return s.repo.GetHistorySince(ctx, roomID, since, limit)
	}
	return s.repo.GetHistory(ctx, roomID, limit)
}

// UserHistory returns every undeleted message sent by userID.
func (s *Service) UserHistory(ctx context.Context, userID string) ([]models.Message, error) {
	ids, err := s.repo.GetUndeletedMessageIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := s.repo.GetMessage(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *msg)
	}
	return out, nil
}

// CheckACLs validates updates without writing them.
func (s *Service) CheckACLs(scope models.ACLScope, updates []ACLUpdate) activity.Result {
	return s.checkACLUpdates(scope, updates)
}

// AllRooms lists every room grouped by channel id.
func (s *Service) AllRooms(ctx context.Context) (map[string][]models.Room, error) {
	chs, err := s.channels(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.Room, len(chs))
	for _, ch := range chs {
		rooms, err := s.roomsForChannel(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		out[ch.ID] = rooms
	}
	return out, nil
}

// RoomsForUserUnderACL lists, per channel, the rooms userID may list. The
// user's stored session attributes feed the ACL validators.
func (s *Service) RoomsForUserUnderACL(ctx context.Context, userID string) (map[string][]RoomInfo, error) {
	attrs, err := s.auth.Store().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	session := models.NewSession(userID)
	session.Merge(attrs)
	roles, err := s.userRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	chs, err := s.channels(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]RoomInfo, len(chs))
	for _, ch := range chs {
		a := activity.New(activity.VerbListRooms)
		a.Actor.ID = userID
		a.Object = &activity.Entity{URL: ch.ID}
		req := &Request{Ctx: ctx, Activity: a, Session: session, Roles: roles, ChannelID: ch.ID}
		d, err := s.evaluate(req, models.ScopeChannel, ch.ID, ch.ID, models.ActionList)
		if err != nil {
			return nil, err
		}
		if !d.Allowed {
			continue
		}
		rooms, err := s.RoomsVisibleTo(req, ch.ID)
		if err != nil {
			return nil, err
		}
		out[ch.ID] = rooms
	}
	return out, nil
}

// RoomsForUsers returns room id -> name per user.
func (s *Service) RoomsForUsers(ctx context.Context, userIDs []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(userIDs))
	for _, id := range userIDs {
		rooms, err := s.repo.RoomsForUser(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = rooms
	}
	return out, nil
}

// UsersInRooms returns the visible users per room.
func (s *Service) UsersInRooms(ctx context.Context, roomIDs []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(roomIDs))
	for _, id := range roomIDs {
		users, err := s.tracker.VisibleUsersInRoom(ctx, id, false)
		if err != nil {
			return nil, err
		}
		out[id] = users
	}
	return out, nil
}

// CountJoins returns the join counters of the rooms.
func (s *Service) CountJoins(ctx context.Context, roomIDs []string) (map[string]int64, error) {
	return s.repo.CountJoins(ctx, roomIDs)
}

// Roles returns the roles of each user.
func (s *Service) Roles(ctx context.Context, userIDs []string) (map[string]*models.UserRoles, error) {
	out := make(map[string]*models.UserRoles, len(userIDs))
	for _, id := range userIDs {
		roles, err := s.userRoles(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = roles
	}
	return out, nil
}

// SetGlobalModerator grants or revokes the global moderator role.
func (s *Service) SetGlobalModerator(ctx context.Context, userID string, grant bool) error {
	var err error
	if grant {
		err = s.repo.AddRole(ctx, userID, models.ScopeGlobal, "", models.RoleGlobalModerator)
	} else {
		err = s.repo.RemoveRole(ctx, userID, models.ScopeGlobal, "", models.RoleGlobalModerator)
	}
	if err != nil {
		return err
	}
	s.cache.ResetUserRoles(userID)
	return nil
}

// Authenticate stores a session for a user logging in through a frontend
// and refreshes the user's heartbeat.
func (s *Service) Authenticate(ctx context.Context, userID, token string, attrs map[string]string) error {
	if err := s.auth.Register(ctx, userID, token, attrs); err != nil {
		return err
	}
	if name := attrs[models.SessionUserName]; name != "" {
		if err := s.repo.CreateUser(ctx, userID, name); err != nil {
			return err
		}
	}
	s.Heartbeat(ctx, userID)
	return nil
}

// Logout drops the session and closes the user's sockets on every node.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.auth.Logout(ctx, userID); err != nil {
		return err
	}
	ev := activity.New(activity.VerbDisconnect)
	ev.Actor = activity.Entity{ID: userID, Content: "logout"}
	ev.Origin = s.nodeID
	s.applyDisconnect(ctx, ev)
	s.pub.PublishInternal(ctx, ev)
	return nil
}

// LastOnline returns when the user was last seen online.
func (s *Service) LastOnline(ctx context.Context, userID string) (time.Time, error) {
	return s.repo.GetLastOnline(ctx, userID)
}

// FlushCache clears the process-local cache tier.
func (s *Service) FlushCache() {
	s.cache.Flush()
	logging.Info().Msg("Local cache flushed")
}
