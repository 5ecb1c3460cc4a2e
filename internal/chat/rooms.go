// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// RoomInfo summarises a room in listings and replies.
type RoomInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
	Ephemeral bool   `json:"ephemeral"`
	Users     int    `json:"users"`
}

type userInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type joinReply struct {
	Room    RoomInfo         `json:"room"`
	Users   []userInfo       `json:"users"`
	History []models.Message `json:"history"`
}

type roomEvent struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

func userList(users map[string]string) []userInfo {
	out := make([]userInfo, 0, len(users))
	for _, id := range sortedKeys(users) {
		out = append(out, userInfo{ID: id, Name: users[id]})
	}
	return out
}

// =============================================================================
// join / leave
// =============================================================================

func (s *Service) validateJoin(req *Request) activity.Result {
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	if isPrivateRoom(req.Room.ID) {
		return activity.Fail(activity.NotAllowed, "private rooms cannot be joined")
	}
	if !s.tracker.MulticastEligible(req.Ctx, req.UserID()) {
		return activity.Fail(activity.NotOnline, "user is not online")
	}
	if res := s.checkBanned(req.Ctx, req.UserID(), req.Room.ID, req.ChannelID); !res.OK {
		return res
	}
	return s.checkRoomACL(req, req.Room, models.ActionJoin)
}

func (s *Service) onJoin(req *Request) activity.Result {
	ctx, room, userID := req.Ctx, req.Room, req.UserID()
	name := req.Session.Get(models.SessionUserName)

	if err := s.repo.JoinRoom(ctx, userID, name, room.ID); err != nil {
		return s.internalError(ctx, "join room", err)
	}
	s.sockets.Join(req.SID(), room.ID)
	s.cache.ResetUsersInRoom(room.ID)

	ev := roomEvent{RoomID: room.ID, RoomName: room.Name, UserID: userID, UserName: name}
	if s.tracker.IsInvisible(ctx, userID) {
		s.emitToPrivileged(ctx, room, activity.EventUserJoined, ev, req.SID())
	} else {
		s.emitToRoom(ctx, room.ID, activity.EventUserJoined, ev, req.SID())
	}
	s.publishExternal(ctx, req.Activity)

	users, err := s.tracker.VisibleUsersInRoom(ctx, room.ID, req.Roles.IsPrivileged())
	if err != nil {
		return s.internalError(ctx, "users in room", err)
	}
	history, err := s.history(ctx, userID, room.ID)
	if err != nil {
		return s.internalError(ctx, "history", err)
	}
	return activity.Success(joinReply{
		Room: RoomInfo{
			ID:        room.ID,
			Name:      room.Name,
			ChannelID: room.ChannelID,
			Ephemeral: room.Ephemeral,
			Users:     len(users),
		},
		Users:   userList(users),
		History: history,
	})
}

// emitToPrivileged reaches only the sockets in room whose user holds a
// privileged role, on every node. Invisible users' room events go this way.
func (s *Service) emitToPrivileged(ctx context.Context, room *models.Room, event string, data any, skipSid string) {
	s.emitToPrivilegedLocal(ctx, room.ID, room.ChannelID, event, data, skipSid)
	s.sendToNodes(ctx, framePrivileged, room.ID, event, data)
}

func (s *Service) emitToPrivilegedLocal(ctx context.Context, roomID, channelID, event string, data any, skipSid string) {
	for _, sid := range s.sockets.Members(roomID) {
		if sid == skipSid {
			continue
		}
		uid, ok := s.tracker.UserForSid(sid)
		if !ok {
			continue
		}
		roles, err := s.userRoles(ctx, uid)
		if err != nil || !(roles.IsPrivileged() || roles.CanModerateRoom(roomID, channelID)) {
			continue
		}
		s.sockets.EmitToSid(sid, event, data)
	}
}

func (s *Service) onLeave(req *Request) activity.Result {
	ctx := req.Ctx
	s.leaveLocalSockets(req.UserID(), req.Room.ID)

	ev := activity.New(activity.VerbLeave)
	ev.Actor.ID = req.UserID()
	ev.Origin = s.nodeID
	ev.Target = &activity.Entity{ID: req.Room.ID, ObjectType: activity.TypeRoom}
	s.pub.PublishInternal(ctx, ev)

	s.leaveRoom(ctx, req.UserID(), req.Room.ID, s.tracker.IsInvisible(ctx, req.UserID()))
	s.publishExternal(ctx, req.Activity)
	return activity.Success(roomEvent{RoomID: req.Room.ID, RoomName: req.Room.Name})
}

// leaveLocalSockets removes every socket of userID on this node from the
// fan-out set of roomID.
func (s *Service) leaveLocalSockets(userID, roomID string) {
	for _, sid := range s.tracker.LocalSids(userID) {
		s.sockets.Leave(sid, roomID)
	}
}

// leaveRoom drops the membership row, tells the room and removes an
// ephemeral room that became empty.
func (s *Service) leaveRoom(ctx context.Context, userID, roomID string, invisible bool) {
	if err := s.repo.LeaveRoom(ctx, userID, roomID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("room_id", roomID).Msg("Failed to leave room")
		return
	}
	s.cache.ResetUsersInRoom(roomID)
	if !invisible {
		s.emitToRoom(ctx, roomID, activity.EventUserLeft, roomEvent{RoomID: roomID, UserID: userID}, "")
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil || !room.Ephemeral {
		return
	}
	users, err := s.repo.UsersInRoom(ctx, roomID)
	if err != nil || len(users) > 0 {
		return
	}
	if err := s.RemoveRoom(ctx, roomID, ""); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("room_id", roomID).Msg("Failed to remove empty ephemeral room")
	}
}

// =============================================================================
// Listings
// =============================================================================

func (s *Service) validateListRooms(req *Request) activity.Result {
	channelID := req.Activity.ObjectURL()
	if channelID == "" {
		return activity.Fail(activity.MissingObjectURL, "object url (channel id) is required")
	}
	ok, err := s.repo.ChannelExists(req.Ctx, channelID)
	if err != nil {
		return s.internalError(req.Ctx, "channel exists", err)
	}
	if !ok {
		return activity.Failf(activity.NoSuchChannel, "no channel with id %s", channelID)
	}
	req.ChannelID = channelID
	d, err := s.evaluate(req, models.ScopeChannel, channelID, channelID, models.ActionList)
	if err != nil {
		return s.internalError(req.Ctx, "channel acl", err)
	}
	if !d.Allowed {
		return activity.Fail(activity.NotAllowed, d.Reason)
	}
	return activity.Success(nil)
}

func (s *Service) onListRooms(req *Request) activity.Result {
	rooms, err := s.RoomsVisibleTo(req, req.ChannelID)
	if err != nil {
		return s.internalError(req.Ctx, "list rooms", err)
	}
	return activity.Success(rooms)
}

// RoomsVisibleTo lists the rooms of channelID whose list ACL admits the
// requester, with the visible user count of each.
func (s *Service) RoomsVisibleTo(req *Request, channelID string) ([]RoomInfo, error) {
	rooms, err := s.roomsForChannel(req.Ctx, channelID)
	if err != nil {
		return nil, err
	}
	out := make([]RoomInfo, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if room.Admin && !req.Roles.IsPrivileged() {
			continue
		}
		d, err := s.evaluate(req, models.ScopeRoom, room.ID, channelID, models.ActionList)
		if err != nil {
			return nil, err
		}
		if !d.Allowed {
			continue
		}
		users, err := s.tracker.VisibleUsersInRoom(req.Ctx, room.ID, req.Roles.IsPrivileged())
		if err != nil {
			return nil, err
		}
		out = append(out, RoomInfo{
			ID:        room.ID,
			Name:      room.Name,
			ChannelID: channelID,
			Ephemeral: room.Ephemeral,
			Users:     len(users),
		})
	}
	return out, nil
}

type channelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Service) onListChannels(req *Request) activity.Result {
	chs, err := s.channels(req.Ctx)
	if err != nil {
		return s.internalError(req.Ctx, "list channels", err)
	}
	out := make([]channelInfo, 0, len(chs))
	for _, ch := range chs {
		out = append(out, channelInfo{ID: ch.ID, Name: ch.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return activity.Success(out)
}

func (s *Service) onUsersInRoom(req *Request) activity.Result {
	users, err := s.tracker.VisibleUsersInRoom(req.Ctx, req.Room.ID, req.Roles.IsPrivileged())
	if err != nil {
		return s.internalError(req.Ctx, "users in room", err)
	}
	return activity.Success(userList(users))
}

// =============================================================================
// create / invite / remove_room
// =============================================================================

func (s *Service) validateCreate(req *Request) activity.Result {
	a := req.Activity
	channelID := a.ObjectURL()
	if channelID == "" {
		return activity.Fail(activity.MissingObjectURL, "object url (channel id) is required")
	}
	if a.Target == nil || a.Target.DisplayName == "" {
		return activity.Fail(activity.MissingTargetDisplayName, "target display name is required")
	}
	name, err := activity.B64Decode(a.Target.DisplayName)
	if err != nil {
		return activity.Fail(activity.NotBase64, "target display name is not base64")
	}
	name = strings.TrimSpace(name)
	if isPrivateRoom(name) {
		return activity.Failf(activity.RoomNameRestricted, "room name %q is restricted", name)
	}
	ok, err := s.repo.ChannelExists(req.Ctx, channelID)
	if err != nil {
		return s.internalError(req.Ctx, "channel exists", err)
	}
	if !ok {
		return activity.Failf(activity.NoSuchChannel, "no channel with id %s", channelID)
	}
	req.ChannelID = channelID
	req.Body = name

	d, err := s.evaluate(req, models.ScopeChannel, channelID, channelID, models.ActionCreate)
	if err != nil {
		return s.internalError(req.Ctx, "channel acl", err)
	}
	if !d.Allowed {
		return activity.Fail(activity.NotAllowed, d.Reason)
	}
	return activity.Success(nil)
}

func (s *Service) onCreate(req *Request) activity.Result {
	room := models.Room{
		ID:        uuid.NewString(),
		ChannelID: req.ChannelID,
		Name:      req.Body,
		Ephemeral: req.Activity.Target.Summary != "false",
	}
	if err := s.CreateRoom(req.Ctx, room, req.UserID(), nil); err != nil {
		if errors.Is(err, database.ErrRoomExists) {
			return activity.Failf(activity.RoomAlreadyExists, "room %q already exists", room.Name)
		}
		return s.internalError(req.Ctx, "create room", err)
	}
	s.publishExternal(req.Ctx, req.Activity)
	return activity.Success(RoomInfo{ID: room.ID, Name: room.Name, ChannelID: room.ChannelID, Ephemeral: room.Ephemeral})
}

// CreateRoom stores a room owned by ownerID and adds members. Local
// sockets of each member join the room.
func (s *Service) CreateRoom(ctx context.Context, room models.Room, ownerID string, members map[string]string) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = s.now().UTC()
	}
	if err := s.repo.CreateRoom(ctx, room, ownerID); err != nil {
		return err
	}
	s.cache.ResetRoomsForChannel(room.ChannelID)
	s.cache.ResetUserRoles(ownerID)
	s.cache.SetRoomExists(room.ID, true)
	s.cache.SetChannelForRoom(room.ID, room.ChannelID)

	for id, name := range members {
		if err := s.repo.JoinRoom(ctx, id, name, room.ID); err != nil {
			return err
		}
		for _, sid := range s.tracker.LocalSids(id) {
			s.sockets.Join(sid, room.ID)
		}
	}
	s.cache.ResetUsersInRoom(room.ID)
	return nil
}

type invitation struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	ChannelID   string `json:"channel_id"`
	InviterID   string `json:"inviter_id"`
	InviterName string `json:"inviter_name"`
}

func (s *Service) validateInvite(req *Request) activity.Result {
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	invitee := req.Activity.ObjectID()
	if res := s.requireUser(req, invitee, activity.MissingObjectID); !res.OK {
		return res
	}
	in, err := s.inRoom(req.Ctx, req.UserID(), req.Room.ID)
	if err != nil {
		return s.internalError(req.Ctx, "membership", err)
	}
	if !in && !req.Roles.IsPrivileged() {
		return activity.Fail(activity.UserNotInRoom, "inviter is not in the room")
	}
	req.TargetUser = invitee
	return activity.Success(nil)
}

func (s *Service) onInvite(req *Request) activity.Result {
	if !s.tracker.MulticastEligible(req.Ctx, req.TargetUser) {
		return activity.Fail(activity.NotOnline, "invitee is not online")
	}
	s.emitToUser(req.Ctx, req.TargetUser, activity.EventInvitation, invitation{
		RoomID:      req.Room.ID,
		RoomName:    req.Room.Name,
		ChannelID:   req.Room.ChannelID,
		InviterID:   req.UserID(),
		InviterName: req.Session.Get(models.SessionUserName),
	})
	s.publishExternal(req.Ctx, req.Activity)
	return activity.Success(nil)
}

func (s *Service) validateRemoveRoom(req *Request) activity.Result {
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	if req.Room.Admin {
		return activity.Fail(activity.NotAllowed, "the admin room cannot be removed")
	}
	if !s.authz.CanModerate(req.Roles, req.Room.ID, req.ChannelID) {
		return activity.Fail(activity.NotAllowed, "only owners and admins may remove a room")
	}
	return activity.Success(nil)
}

func (s *Service) onRemoveRoom(req *Request) activity.Result {
	reason := ""
	if raw := req.Activity.ObjectContent(); raw != "" {
		if decoded, err := activity.B64Decode(raw); err == nil {
			reason = decoded
		}
	}
	if err := s.RemoveRoom(req.Ctx, req.Room.ID, reason); err != nil {
		return s.internalError(req.Ctx, "remove room", err)
	}
	return activity.Success(roomEvent{RoomID: req.Room.ID, RoomName: req.Room.Name})
}

type roomRemoved struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Reason   string `json:"reason,omitempty"`
}

// RemoveRoom deletes the room, tells its members on every node and drops
// the local fan-out set. Removing a missing room is a no-op.
func (s *Service) RemoveRoom(ctx context.Context, roomID, reason string) error {
	room, err := s.repo.GetRoom(ctx, roomID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	ev := roomRemoved{RoomID: room.ID, RoomName: room.Name, Reason: reason}
	s.emitToRoom(ctx, room.ID, activity.EventRoomRemoved, ev, "")

	if err := s.repo.RemoveRoom(ctx, room.ID); err != nil {
		return err
	}
	if err := s.cache.RemoveRoom(ctx, room.ID, room.ChannelID, room.Name); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to drop cached room")
	}
	s.dropLocalRoom(room.ID)

	internal := activity.New(activity.VerbRemove)
	internal.Actor.ID = s.nodeID
	internal.Origin = s.nodeID
	internal.Target = &activity.Entity{ID: room.ID, ObjectType: activity.TypeRoom, DisplayName: activity.B64Encode(room.Name)}
	internal.Object = &activity.Entity{URL: room.ChannelID}
	s.pub.PublishInternal(ctx, internal)

	ext := internal.Clone()
	ext.Origin = ""
	if reason != "" {
		ext.Object.Content = activity.B64Encode(reason)
	}
	s.publishExternal(ctx, ext)
	return nil
}

// dropLocalRoom removes every local socket from the room's fan-out set.
func (s *Service) dropLocalRoom(roomID string) {
	for _, sid := range s.sockets.Members(roomID) {
		s.sockets.Leave(sid, roomID)
	}
}

// applyRemoteRemove handles a remove event published by another node.
func (s *Service) applyRemoteRemove(ctx context.Context, a *activity.Activity) {
	if a.Origin == s.nodeID {
		return
	}
	roomID := a.TargetID()
	name := ""
	if a.Target != nil {
		name, _ = activity.B64Decode(a.Target.DisplayName)
	}
	if err := s.cache.RemoveRoom(ctx, roomID, a.ObjectURL(), name); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to drop cached room")
	}
	s.dropLocalRoom(roomID)
}
