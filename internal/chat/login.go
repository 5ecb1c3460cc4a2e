// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// clientClaims are the session keys a client may set at login. Everything
// else comes from the auth store.
var clientClaims = map[string]struct{}{
	models.SessionIsApp:     {},
	models.SessionIsMobile:  {},
	models.SessionOS:        {},
	models.SessionUserAgent: {},
}

type loginReply struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	SID      string `json:"sid"`
}

func loginToken(a *activity.Activity) string {
	for _, att := range a.Actor.Attachments {
		if att.ObjectType == models.SessionToken {
			return att.Content
		}
	}
	return ""
}

func (s *Service) validateLogin(req *Request) activity.Result {
	a := req.Activity
	if !models.IsValidUserID(a.Actor.ID) {
		return activity.Failf(activity.InvalidLogin, "user id %q is not numeric", a.Actor.ID)
	}
	if loginToken(a) == "" {
		return activity.Fail(activity.InvalidToken, "token is required")
	}
	return activity.Success(nil)
}

// onLogin authenticates the socket and runs the AUTHENTICATED entry
// actions before entering LIVE.
func (s *Service) onLogin(req *Request) activity.Result {
	a := req.Activity
	peer := req.Conn.Peer()
	userID := a.Actor.ID

	session, err := s.auth.Authenticate(req.Ctx, userID, loginToken(a))
	if err != nil {
		s.scheduleLoginDisconnect(peer)
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			return activity.Fail(activity.InvalidToken, "invalid token")
		case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrInvalidUserID), errors.Is(err, auth.ErrMissingCredentials):
			return activity.Fail(activity.InvalidLogin, "no session for user")
		default:
			return s.internalError(req.Ctx, "authenticate", err)
		}
	}

	if res := s.checkBanned(req.Ctx, userID, "", ""); !res.OK {
		peer.Emit(activity.EventBanned, res.Reply())
		peer.CloseAfter(s.loginDisconnectDelay())
		return res
	}

	claims := map[string]string{}
	for k, v := range a.Actor.AttachmentMap() {
		if _, ok := clientClaims[k]; ok {
			claims[k] = v
		}
	}
	session.Merge(claims)
	session.ResetTemp()

	name := session.Get(models.SessionUserName)
	if name == "" && a.Actor.DisplayName != "" {
		if decoded, err := activity.B64Decode(a.Actor.DisplayName); err == nil {
			name = decoded
			session.Set(models.SessionUserName, name)
		}
	}
	if name != "" {
		if err := s.repo.CreateUser(req.Ctx, userID, name); err != nil {
			return s.internalError(req.Ctx, "create user", err)
		}
	}

	if s.plugins.Enabled(activity.VerbLogin, config.PluginSingleSession) {
		s.closeOtherSessions(req.Ctx, userID, peer.ID())
	}

	if err := s.tracker.Bind(req.Ctx, userID, peer.ID()); err != nil {
		logging.Ctx(req.Ctx).Warn().Err(err).Msg("Failed to mirror socket binding")
	}
	peer.SetUserID(userID)
	s.sockets.Join(peer.ID(), privateRoom(userID))
	if err := req.Conn.authenticate(session); err != nil {
		return activity.Fail(activity.NotAllowed, err.Error())
	}
	req.Session = session
	req.Ctx = logging.ContextWithSession(req.Ctx, userID, peer.ID())

	s.onAuthenticated(req)

	if err := req.Conn.transition(StateLive); err != nil {
		return activity.Fail(activity.NotAllowed, err.Error())
	}
	return activity.Success(loginReply{UserID: userID, UserName: name, SID: peer.ID()})
}

// onAuthenticated runs the entry actions of AUTHENTICATED.
func (s *Service) onAuthenticated(req *Request) {
	ctx := req.Ctx
	userID := req.UserID()

	ext := activity.New(activity.VerbLogin)
	ext.Actor = activity.Entity{ID: userID, DisplayName: activity.B64Encode(req.Session.Get(models.SessionUserName))}
	s.publishExternal(ctx, ext)

	var err error
	if s.tracker.IsInvisible(ctx, userID) {
		err = s.tracker.SetInvisible(ctx, userID)
	} else {
		err = s.tracker.SetOnline(ctx, userID)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to set login status")
	}
	s.beats.Touch(userID)

	s.autojoin(req)
}

// autojoin synthesises a join for every room whose autojoin ACL admits the
// user. Rooms without an autojoin ACL are skipped.
func (s *Service) autojoin(req *Request) {
	ctx := req.Ctx
	roles, err := s.userRoles(ctx, req.UserID())
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Autojoin skipped")
		return
	}
	req.Roles = roles

	channels, err := s.channels(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Autojoin skipped")
		return
	}
	for _, ch := range channels {
		rooms, err := s.roomsForChannel(ctx, ch.ID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("channel_id", ch.ID).Msg("Autojoin channel skipped")
			continue
		}
		for i := range rooms {
			room := rooms[i]
			set, err := s.aclsFor(ctx, models.ScopeRoom, room.ID, models.ActionAutojoin)
			if err != nil || len(set) == 0 {
				continue
			}
			join := activity.New(activity.VerbJoin)
			join.Actor = req.Activity.Actor
			join.Actor.Attachments = nil
			join.Target = &activity.Entity{ID: room.ID, ObjectType: activity.TypeRoom}
			check := &Request{Ctx: ctx, Conn: req.Conn, Activity: join, Session: req.Session, Roles: roles}
			if res := s.checkRoomACL(check, &room, models.ActionAutojoin); !res.OK {
				continue
			}
			res := s.dispatcher.Dispatch(&Request{Ctx: ctx, Conn: req.Conn, Activity: join, Session: req.Session})
			req.Conn.Peer().Reply(string(activity.VerbJoin), res)
		}
	}
}

// closeOtherSessions enforces a single socket per user: local sockets are
// told and closed, remote ones through an internal disconnect event.
func (s *Service) closeOtherSessions(ctx context.Context, userID, keepSid string) {
	sids, err := s.cache.SidsForUser(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Single session check failed")
		return
	}
	for _, sid := range sids {
		if sid == keepSid {
			continue
		}
		if s.closeLocalSid(sid, "another session logged in") {
			continue
		}
		ev := activity.New(activity.VerbDisconnect)
		ev.Actor.ID = userID
		ev.Origin = s.nodeID
		ev.Object = &activity.Entity{ID: sid}
		s.pub.PublishInternal(ctx, ev)
	}
}

type disconnectReply struct {
	Reason string `json:"reason"`
}

// closeLocalSid tells a local socket why and closes it.
func (s *Service) closeLocalSid(sid, reason string) bool {
	if !s.sockets.EmitToSid(sid, activity.EventDisconnect, disconnectReply{Reason: reason}) {
		return false
	}
	return s.sockets.CloseSid(sid)
}

func (s *Service) loginDisconnectDelay() time.Duration {
	if d := s.cfg.Auth.LoginDisconnectDelay; d > 0 {
		return d
	}
	return time.Second
}

func (s *Service) scheduleLoginDisconnect(peer Peer) {
	if s.cfg.Auth.DisconnectOnFailedLogin {
		peer.CloseAfter(s.loginDisconnectDelay())
	}
}

// =============================================================================
// Disconnect
// =============================================================================

func (s *Service) onDisconnectVerb(req *Request) activity.Result {
	req.Conn.Peer().Close()
	return activity.Success(nil)
}

// disconnectSocket unbinds sid. When it was the user's last socket in the
// cluster the membership rows of its rooms are dropped, and when the user
// went offline the external disconnect is published.
func (s *Service) disconnectSocket(ctx context.Context, userID, sid string) {
	rooms := s.sockets.LeaveAll(sid)
	wentOffline, err := s.tracker.Disconnect(ctx, userID, sid)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to update presence on disconnect")
	}

	if remaining, err := s.cache.SidsForUser(ctx, userID); err == nil && len(remaining) == 0 {
		invisible := s.tracker.IsInvisible(ctx, userID)
		for _, roomID := range rooms {
			if isPrivateRoom(roomID) {
				continue
			}
			s.leaveRoom(ctx, userID, roomID, invisible)
		}
	}
	if wentOffline {
		s.beats.Forget(userID)
	}
	ext := activity.New(activity.VerbDisconnect)
	ext.Actor = activity.Entity{ID: userID, Content: sid}
	s.publishExternal(ctx, ext)
}

func isPrivateRoom(roomID string) bool { return strings.HasPrefix(roomID, "user:") }
