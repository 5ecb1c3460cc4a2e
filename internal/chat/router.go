// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
	"github.com/tomtom215/dino/internal/models"
)

// isPrivateTarget reports a user-to-user message.
func isPrivateTarget(a *activity.Activity) bool {
	t := a.TargetType()
	return t == activity.TypePrivate || t == activity.TypeUser
}

func (s *Service) validateMessage(req *Request) activity.Result {
	a := req.Activity
	if a.TargetID() == "" {
		return activity.Fail(activity.MissingTargetID, "target id is required")
	}
	if res := decodeContent(req, false); !res.OK {
		return res
	}
	if isPrivateTarget(a) {
		if res := s.requireUser(req, a.TargetID(), activity.MissingTargetID); !res.OK {
			return res
		}
		req.TargetUser = a.TargetID()
		return s.checkBanned(req.Ctx, req.UserID(), "", "")
	}

	if res := s.requireRoom(req); !res.OK {
		return res
	}
	in, err := s.inRoom(req.Ctx, req.UserID(), req.Room.ID)
	if err != nil {
		return s.internalError(req.Ctx, "membership", err)
	}
	if !in {
		if res := s.checkCrossRoom(req); !res.OK {
			return res
		}
	}
	if res := s.checkBanned(req.Ctx, req.UserID(), req.Room.ID, req.ChannelID); !res.OK {
		return res
	}
	return s.checkRoomACL(req, req.Room, models.ActionMessage)
}

// checkCrossRoom admits a sender who is in actor.url when the channel has
// a crossroom ACL and it allows sending from there to the target room.
func (s *Service) checkCrossRoom(req *Request) activity.Result {
	from := req.Activity.Actor.URL
	if from == "" {
		return activity.Fail(activity.UserNotInRoom, "user is not in the target room")
	}
	in, err := s.inRoom(req.Ctx, req.UserID(), from)
	if err != nil {
		return s.internalError(req.Ctx, "membership", err)
	}
	if !in {
		return activity.Fail(activity.UserNotInRoom, "user is not in the source room")
	}
	set, err := s.aclsFor(req.Ctx, models.ScopeChannel, req.ChannelID, models.ActionCrossroom)
	if err != nil {
		return s.internalError(req.Ctx, "crossroom acl", err)
	}
	if len(set) == 0 {
		return activity.Fail(activity.UserNotInRoom, "cross-room messages are not enabled in this channel")
	}
	d, err := s.evaluate(req, models.ScopeChannel, req.ChannelID, req.ChannelID, models.ActionCrossroom)
	if err != nil {
		return s.internalError(req.Ctx, "crossroom acl", err)
	}
	if !d.Allowed {
		return activity.Fail(activity.NotAllowed, d.Reason)
	}
	return activity.Success(nil)
}

type messageReply struct {
	MessageID string `json:"message_id"`
	Published string `json:"published"`
}

func (s *Service) onMessage(req *Request) activity.Result {
	return s.route(req, nil)
}

// route runs the message pipeline. whisperTo forces whisper delivery to
// the given users; nil means detect from the body.
func (s *Service) route(req *Request, whisperTo []string) activity.Result {
	ctx, a := req.Ctx, req.Activity

	// Blacklist.
	if word, hit := s.blacklist(ctx).Find(req.Body); hit {
		metrics.BlacklistHits.Inc()
		s.deliverFiltered(req)
		ev := a.Clone()
		ev.Verb = activity.VerbBlacklistedWord
		ev.EnsureObject().Summary = activity.B64Encode(word)
		s.publishExternal(ctx, ev)
		return activity.Success(messageReply{MessageID: a.ID, Published: a.Published})
	}

	// Spam.
	if s.spam != nil {
		if spam, err := s.spam.IsSpam(ctx, req.Body); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("Spam classifier unavailable")
		} else if spam {
			ev := a.Clone()
			ev.Verb = activity.VerbSpam
			s.publishExternal(ctx, ev)
		}
	}

	// Whisper.
	if whisperTo == nil && req.Room != nil {
		names := whisperNames(req.Body)
		if len(names) > 0 {
			ids, res := s.resolveWhisperTargets(req, names)
			if !res.OK {
				return res
			}
			whisperTo = ids
		}
	}
	if len(whisperTo) > 0 {
		if res := s.checkWhispers(req, whisperTo); !res.OK {
			return res
		}
	}

	// Persist.
	msg := models.Message{
		ID:         a.ID,
		FromUserID: req.UserID(),
		FromName:   req.Session.Get(models.SessionUserName),
		TargetID:   a.TargetID(),
		ChannelID:  req.ChannelID,
		Body:       req.Body,
		Published:  s.now().UTC(),
	}
	if req.Room != nil {
		msg.TargetType = activity.TypeRoom
		msg.TargetName = req.Room.Name
	} else {
		msg.TargetType = activity.TypePrivate
		msg.TargetName = s.userName(ctx, req.TargetUser)
	}
	if err := s.repo.StoreMessage(ctx, msg); err != nil {
		return s.internalError(ctx, "store message", err)
	}
	if s.cfg.DeliveryGuarantee && req.Room == nil {
		if err := s.repo.SetAckState(ctx, msg.FromUserID, []string{msg.ID}, models.AckRead); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to mark own message read")
		}
		if err := s.repo.SetAckState(ctx, req.TargetUser, []string{msg.ID}, models.AckNotAcked); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to mark message unacked")
		}
	}

	// Fan out.
	switch {
	case len(whisperTo) > 0:
		for _, uid := range whisperTo {
			s.emitToUser(ctx, uid, activity.EventWhisper, a)
		}
	case req.Room != nil:
		s.emitToRoom(ctx, req.Room.ID, activity.EventMessage, a, req.SID())
	default:
		if s.tracker.MulticastEligible(ctx, req.TargetUser) {
			s.emitToUser(ctx, req.TargetUser, activity.EventMessage, a)
		}
	}

	s.publishExternal(ctx, a)
	metrics.MessagesRouted.WithLabelValues(msg.TargetType).Inc()
	return activity.Success(messageReply{MessageID: a.ID, Published: a.Published})
}

// deliverFiltered sends a blacklisted message to the sender and to the
// moderators of the room only.
func (s *Service) deliverFiltered(req *Request) {
	if sid := req.SID(); sid != "" {
		s.sockets.EmitToSid(sid, activity.EventMessage, req.Activity)
	}
	if req.Room != nil {
		s.emitToPrivileged(req.Ctx, req.Room, activity.EventMessage, req.Activity, req.SID())
	}
}

// whisperNames extracts the leading -name tokens of body.
func whisperNames(body string) []string {
	var names []string
	for _, tok := range strings.Fields(body) {
		if len(tok) < 2 || tok[0] != '-' {
			break
		}
		names = append(names, tok[1:])
	}
	return names
}

func (s *Service) resolveWhisperTargets(req *Request, names []string) ([]string, activity.Result) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := s.repo.GetUserID(req.Ctx, name)
		if errors.Is(err, database.ErrNotFound) {
			return nil, activity.Failf(activity.NoSuchUser, "no user named %q", name)
		}
		if err != nil {
			return nil, s.internalError(req.Ctx, "resolve whisper target", err)
		}
		ids = append(ids, id)
	}
	return ids, activity.Success(nil)
}

// checkWhispers applies the whisper rules to every target: the channel
// whisper ACL, the target's presence and the contact policy. Only allowed
// policy decisions are cached.
func (s *Service) checkWhispers(req *Request, targets []string) activity.Result {
	ctx, sender := req.Ctx, req.UserID()
	if req.Room != nil {
		d, err := s.evaluate(req, models.ScopeChannel, req.ChannelID, req.ChannelID, models.ActionWhisper)
		if err != nil {
			return s.internalError(ctx, "whisper acl", err)
		}
		if !d.Allowed {
			metrics.WhisperDenied.WithLabelValues("channel").Inc()
			return activity.Fail(activity.NotAllowedToWhisperChannel, d.Reason)
		}
	}
	for _, target := range targets {
		if !s.tracker.MulticastEligible(ctx, target) {
			metrics.WhisperDenied.WithLabelValues("not_online").Inc()
			return activity.Failf(activity.NotAllowedToWhisperNotOnline, "user %s is not online", target)
		}
		if s.cache.IsWhisperAllowed(sender, target) {
			continue
		}
		decision, err := s.whisper.CanWhisper(ctx, sender, target)
		if err != nil {
			metrics.WhisperDenied.WithLabelValues("remote_error").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("target", target).Msg("Whisper policy lookup failed")
			return activity.Fail(activity.RemoteError, "whisper policy unavailable")
		}
		switch decision {
		case WhisperNotAContact:
			metrics.WhisperDenied.WithLabelValues("not_a_contact").Inc()
			return activity.Failf(activity.NotAllowedToWhisperNotAContact, "user %s does not accept whispers from you", target)
		case WhisperDisabled:
			metrics.WhisperDenied.WithLabelValues("disabled").Inc()
			return activity.Failf(activity.NotAllowedToWhisperDisabled, "user %s has whispers disabled", target)
		}
		s.cache.SetWhisperAllowed(sender, target)
	}
	return activity.Success(nil)
}

// =============================================================================
// whisper verb
// =============================================================================

// validateWhisper accepts an explicit whisper: object.id names the
// recipient and target.id the room it is sent from.
func (s *Service) validateWhisper(req *Request) activity.Result {
	target := req.Activity.ObjectID()
	if res := s.requireUser(req, target, activity.MissingObjectID); !res.OK {
		return res
	}
	req.TargetUser = target
	if res := decodeContent(req, false); !res.OK {
		return res
	}
	if req.Activity.TargetID() == "" {
		return s.checkBanned(req.Ctx, req.UserID(), "", "")
	}
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	in, err := s.inRoom(req.Ctx, req.UserID(), req.Room.ID)
	if err != nil {
		return s.internalError(req.Ctx, "membership", err)
	}
	if !in {
		return activity.Fail(activity.UserNotInRoom, "user is not in the room")
	}
	return s.checkBanned(req.Ctx, req.UserID(), req.Room.ID, req.ChannelID)
}

func (s *Service) onWhisper(req *Request) activity.Result {
	if req.Room == nil {
		req.Activity.EnsureTarget().ID = req.TargetUser
		req.Activity.Target.ObjectType = activity.TypePrivate
	}
	return s.route(req, []string{req.TargetUser})
}

// SendAsAdmin routes a message from fromID without a socket. Used by the
// REST surface.
func (s *Service) SendAsAdmin(ctx context.Context, fromID, fromName, targetType, targetID, body string) activity.Result {
	a := activity.New(activity.VerbMessage)
	a.Actor = activity.Entity{ID: fromID, DisplayName: activity.B64Encode(fromName)}
	a.Object = &activity.Entity{Content: activity.B64Encode(body)}
	a.Target = &activity.Entity{ID: targetID, ObjectType: targetType}

	session := models.NewSession(fromID)
	session.Set(models.SessionUserName, fromName)
	req := &Request{Ctx: ctx, Activity: a, Session: session, Roles: models.NewUserRoles(), Body: body}
	req.Roles.Add(models.ScopeGlobal, "", models.RoleSuperUser)

	if targetType == activity.TypePrivate || targetType == activity.TypeUser {
		if res := s.requireUser(req, targetID, activity.MissingTargetID); !res.OK {
			return res
		}
		req.TargetUser = targetID
		return s.route(req, []string{})
	}
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	return s.route(req, []string{})
}
