// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
	"github.com/tomtom215/dino/internal/models"
)

// defaultKickBan is the room ban attached to a kick when none is configured.
const defaultKickBan = 10 * time.Minute

// Ban describes a ban request from a socket or the REST surface.
type Ban struct {
	UserID   string
	Scope    models.ACLScope
	ScopeID  string
	Duration time.Duration
	Reason   string
	BannerID string
}

// Kick describes a kick request.
type Kick struct {
	UserID   string
	RoomID   string
	Reason   string
	KickerID string
}

type moderationEvent struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Seconds  int64  `json:"seconds,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type messageDeleted struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
}

// =============================================================================
// Validators
// =============================================================================

// requireModerationTarget resolves object.id into req.TargetUser and
// rejects protected targets.
func (s *Service) requireModerationTarget(req *Request) activity.Result {
	target := req.Activity.ObjectID()
	if res := s.requireUser(req, target, activity.MissingObjectID); !res.OK {
		return res
	}
	roles, err := s.userRoles(req.Ctx, target)
	if err != nil {
		return s.internalError(req.Ctx, "target roles", err)
	}
	if s.authz.IsProtected(roles) {
		return activity.Fail(activity.NotAllowed, "target user cannot be kicked or banned")
	}
	req.TargetUser = target
	return activity.Success(nil)
}

func (s *Service) validateKick(req *Request) activity.Result {
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	if !s.authz.CanModerate(req.Roles, req.Room.ID, req.ChannelID) {
		return activity.Fail(activity.NotAllowed, "not a moderator of this room")
	}
	if res := s.requireModerationTarget(req); !res.OK {
		return res
	}
	return s.checkRoomACL(req, req.Room, models.ActionKick)
}

func (s *Service) validateBan(req *Request) activity.Result {
	a := req.Activity
	if a.Object == nil || a.Object.Summary == "" {
		return activity.Fail(activity.MissingObjectSummary, "ban duration is required")
	}
	if _, err := models.ParseBanDuration(a.Object.Summary); err != nil {
		return activity.Failf(activity.InvalidBanDuration, "invalid ban duration %q", a.Object.Summary)
	}
	if a.Object.Content != "" && !activity.IsBase64(a.Object.Content) {
		return activity.Fail(activity.NotBase64, "ban reason is not base64")
	}

	switch models.ACLScope(a.TargetType()) {
	case models.ScopeGlobal:
		if !req.Roles.IsPrivileged() {
			return activity.Fail(activity.NotAllowed, "only global moderators may ban globally")
		}
	case models.ScopeChannel:
		channelID := a.TargetID()
		if channelID == "" {
			return activity.Fail(activity.MissingTargetID, "target id is required")
		}
		ok, err := s.repo.ChannelExists(req.Ctx, channelID)
		if err != nil {
			return s.internalError(req.Ctx, "channel exists", err)
		}
		if !ok {
			return activity.Failf(activity.NoSuchChannel, "no channel with id %s", channelID)
		}
		req.ChannelID = channelID
		if !s.authz.CanModerate(req.Roles, "", channelID) {
			return activity.Fail(activity.NotAllowed, "not a moderator of this channel")
		}
		if d, err := s.evaluate(req, models.ScopeChannel, channelID, channelID, models.ActionBan); err != nil {
			return s.internalError(req.Ctx, "channel acl", err)
		} else if !d.Allowed {
			return activity.Fail(activity.NotAllowed, d.Reason)
		}
	case models.ScopeRoom, "":
		if res := s.requireRoom(req); !res.OK {
			return res
		}
		if !s.authz.CanModerate(req.Roles, req.Room.ID, req.ChannelID) {
			return activity.Fail(activity.NotAllowed, "not a moderator of this room")
		}
		if res := s.checkRoomACL(req, req.Room, models.ActionBan); !res.OK {
			return res
		}
	default:
		return activity.Failf(activity.InvalidTargetType, "cannot ban in %q", a.TargetType())
	}
	return s.requireModerationTarget(req)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Service) onKick(req *Request) activity.Result {
	reason, _ := activity.B64Decode(req.Activity.ObjectContent())
	err := s.Kick(req.Ctx, Kick{
		UserID:   req.TargetUser,
		RoomID:   req.Room.ID,
		Reason:   reason,
		KickerID: req.UserID(),
	})
	if err != nil {
		return s.internalError(req.Ctx, "kick", err)
	}
	return activity.Success(nil)
}

func (s *Service) onBan(req *Request) activity.Result {
	a := req.Activity
	d, _ := models.ParseBanDuration(a.Object.Summary)
	reason, _ := activity.B64Decode(a.Object.Content)

	b := Ban{UserID: req.TargetUser, Duration: d, Reason: reason, BannerID: req.UserID()}
	switch {
	case req.Room != nil:
		b.Scope, b.ScopeID = models.ScopeRoom, req.Room.ID
	case req.ChannelID != "":
		b.Scope, b.ScopeID = models.ScopeChannel, req.ChannelID
	default:
		b.Scope = models.ScopeGlobal
	}
	if err := s.Ban(req.Ctx, b); err != nil {
		return s.internalError(req.Ctx, "ban", err)
	}
	return activity.Success(nil)
}

// =============================================================================
// Cluster-wide operations
// =============================================================================

// Ban stores the ban, drops the affected membership rows, tells the rooms
// and the cluster. Repeating a ban only moves its end time.
func (s *Service) Ban(ctx context.Context, b Ban) error {
	if b.Scope == models.ScopeGlobal {
		b.ScopeID = ""
	}
	now := s.now().UTC()
	end := now.Add(b.Duration)
	err := s.repo.BanUser(ctx, models.Ban{
		UserID:    b.UserID,
		UserName:  s.userName(ctx, b.UserID),
		Scope:     b.Scope,
		ScopeID:   b.ScopeID,
		Duration:  b.Duration,
		ExpiresAt: end,
		Reason:    b.Reason,
		BannerID:  b.BannerID,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("store ban: %w", err)
	}
	if err := s.cache.SetBanEnd(ctx, b.UserID, b.Scope, b.ScopeID, end); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to mirror ban")
	}
	rooms, err := s.dropMemberships(ctx, b.UserID, b.Scope, b.ScopeID)
	if err != nil {
		return err
	}
	metrics.ModerationActions.WithLabelValues("ban", string(b.Scope)).Inc()

	ev := activity.New(activity.VerbBan)
	ev.Actor.ID = b.BannerID
	ev.Origin = s.nodeID
	ev.Object = &activity.Entity{
		ID:      b.UserID,
		Summary: formatSeconds(b.Duration),
		Content: activity.B64Encode(b.Reason),
	}
	ev.Target = &activity.Entity{ID: b.ScopeID, ObjectType: string(b.Scope)}

	s.announce(ctx, ev, rooms)
	s.enforce(ctx, ev)
	s.pub.PublishInternal(ctx, ev)
	return nil
}

// Unban lifts the ban of userID in one scope. Lifting a ban that does not
// exist is not an error.
func (s *Service) Unban(ctx context.Context, userID string, scope models.ACLScope, scopeID string) error {
	if scope == models.ScopeGlobal {
		scopeID = ""
	}
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("user exists: %w", err)
	}
	if !ok {
		return database.ErrNoSuchUser
	}
	if err := s.repo.RemoveBan(ctx, userID, scope, scopeID); err != nil {
		return fmt.Errorf("remove ban: %w", err)
	}
	if err := s.cache.ResetBan(ctx, userID, scope, scopeID); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to reset mirrored ban")
	}
	metrics.ModerationActions.WithLabelValues("unban", string(scope)).Inc()

	ev := activity.New(activity.VerbUnban)
	ev.Object = &activity.Entity{ID: userID}
	ev.Target = &activity.Entity{ID: scopeID, ObjectType: string(scope)}
	s.publishExternal(ctx, ev)
	logging.Ctx(ctx).Info().Str("user_id", userID).Str("scope", string(scope)).Str("scope_id", scopeID).Msg("Ban lifted")
	return nil
}

// Kick removes the user from the room and attaches a short room ban so the
// user cannot rejoin right away.
func (s *Service) Kick(ctx context.Context, k Kick) error {
	d := s.cfg.Moderation.KickBanDuration
	if d <= 0 {
		d = defaultKickBan
	}
	now := s.now().UTC()
	err := s.repo.BanUser(ctx, models.Ban{
		UserID:    k.UserID,
		UserName:  s.userName(ctx, k.UserID),
		Scope:     models.ScopeRoom,
		ScopeID:   k.RoomID,
		Duration:  d,
		ExpiresAt: now.Add(d),
		Reason:    k.Reason,
		BannerID:  k.KickerID,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("store kick ban: %w", err)
	}
	if err := s.cache.SetBanEnd(ctx, k.UserID, models.ScopeRoom, k.RoomID, now.Add(d)); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to mirror kick ban")
	}
	if err := s.repo.LeaveRoom(ctx, k.UserID, k.RoomID); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	s.cache.ResetUsersInRoom(k.RoomID)
	metrics.ModerationActions.WithLabelValues("kick", string(models.ScopeRoom)).Inc()

	ev := activity.New(activity.VerbKick)
	ev.Actor.ID = k.KickerID
	ev.Origin = s.nodeID
	ev.Object = &activity.Entity{ID: k.UserID, Content: activity.B64Encode(k.Reason)}
	ev.Target = &activity.Entity{ID: k.RoomID, ObjectType: activity.TypeRoom}

	s.announce(ctx, ev, []string{k.RoomID})
	s.enforce(ctx, ev)
	s.pub.PublishInternal(ctx, ev)
	return nil
}

// dropMemberships removes the membership rows a ban in scope covers and
// returns the rooms it left.
func (s *Service) dropMemberships(ctx context.Context, userID string, scope models.ACLScope, scopeID string) ([]string, error) {
	rooms, err := s.repo.RoomsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rooms for user: %w", err)
	}
	var dropped []string
	for roomID := range rooms {
		if !s.inScope(ctx, roomID, scope, scopeID) {
			continue
		}
		if err := s.repo.LeaveRoom(ctx, userID, roomID); err != nil {
			return dropped, fmt.Errorf("leave room %s: %w", roomID, err)
		}
		s.cache.ResetUsersInRoom(roomID)
		dropped = append(dropped, roomID)
	}
	sort.Strings(dropped)
	return dropped, nil
}

// inScope reports whether roomID is covered by a ban in scope.
func (s *Service) inScope(ctx context.Context, roomID string, scope models.ACLScope, scopeID string) bool {
	if isPrivateRoom(roomID) {
		return false
	}
	switch scope {
	case models.ScopeGlobal:
		return true
	case models.ScopeChannel:
		ch, err := s.channelForRoom(ctx, roomID)
		return err == nil && ch == scopeID
	default:
		return roomID == scopeID
	}
}

// announce tells every node's members of rooms about a kick or ban, applies
// the message policy and mirrors the event externally. It runs once, on the
// node that issued the action, whether or not the user is connected.
func (s *Service) announce(ctx context.Context, ev *activity.Activity, rooms []string) {
	userID := ev.ObjectID()
	reason, _ := activity.B64Decode(ev.ObjectContent())
	isBan := ev.Verb == activity.VerbBan

	event := activity.EventUserKicked
	if isBan {
		event = activity.EventUserBanned
	}
	name := s.userName(ctx, userID)
	for _, roomID := range rooms {
		s.emitToRoom(ctx, roomID, event, moderationEvent{
			UserID:   userID,
			UserName: name,
			RoomID:   roomID,
			Scope:    ev.TargetType(),
			Reason:   reason,
		}, "")
		if isBan && s.cfg.Moderation.DeleteMessagesOnBan {
			s.tombstone(ctx, userID, roomID)
		}
	}
	s.publishExternal(ctx, ev)
}

// enforce applies a kick or ban event to the sockets of the user on this
// node. It reports whether the user had any. A kick only leaves the room;
// a ban of any scope also closes the sockets.
func (s *Service) enforce(ctx context.Context, ev *activity.Activity) bool {
	userID := ev.ObjectID()
	sids := s.tracker.LocalSids(userID)
	if len(sids) == 0 {
		return false
	}

	scope := models.ACLScope(ev.TargetType())
	scopeID := ev.TargetID()
	isBan := ev.Verb == activity.VerbBan

	for _, sid := range sids {
		for _, roomID := range s.sockets.RoomsForSid(sid) {
			if !s.inScope(ctx, roomID, scope, scopeID) {
				continue
			}
			s.sockets.Leave(sid, roomID)
			s.cache.ResetUsersInRoom(roomID)
		}
	}

	if isBan {
		reason, _ := activity.B64Decode(ev.ObjectContent())
		s.sockets.EmitToRoom(privateRoom(userID), activity.EventBanned, moderationEvent{
			UserID:  userID,
			RoomID:  scopeID,
			Scope:   string(scope),
			Seconds: parseSeconds(ev.Object.Summary),
			Reason:  reason,
		})
		for _, sid := range sids {
			s.closeLocalSid(sid, "banned")
		}
		if scope == models.ScopeGlobal {
			if err := s.tracker.SetOffline(ctx, userID); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("Failed to set banned user offline")
			}
		}
	}
	metrics.LocalEnforcements.WithLabelValues(string(ev.Verb)).Inc()
	logging.Ctx(ctx).Info().
		Str("verb", string(ev.Verb)).
		Str("user_id", userID).
		Str("scope", string(scope)).
		Int("sockets", len(sids)).
		Msg("Moderation enforced on local sockets")
	return true
}

// tombstone deletes the user's undeleted messages in roomID and tells the
// room.
func (s *Service) tombstone(ctx context.Context, userID, roomID string) {
	ids, err := s.repo.GetUndeletedMessageIDsForUserAndRoom(ctx, userID, roomID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to list messages to delete")
		return
	}
	for _, id := range ids {
		if err := s.repo.DeleteMessage(ctx, id, true); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("message_id", id).Msg("Failed to delete message")
			continue
		}
		s.emitToRoom(ctx, roomID, activity.EventMessageDeleted, messageDeleted{MessageID: id, RoomID: roomID}, "")
	}
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d.Seconds()))
}

func parseSeconds(s string) int64 {
	d, err := models.ParseBanDuration(s)
	if err != nil {
		return 0
	}
	return int64(d.Seconds())
}
