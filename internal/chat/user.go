// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// =============================================================================
// status
// =============================================================================

func (s *Service) validateStatus(req *Request) activity.Result {
	a := req.Activity
	if a.Object == nil || a.Object.Summary == "" {
		return activity.Fail(activity.MissingObjectSummary, "status is required")
	}
	switch a.Object.Summary {
	case models.StatusVerbOnline, models.StatusVerbOffline, models.StatusVerbInvisible, models.StatusVerbVisible:
		return activity.Success(nil)
	default:
		return activity.Failf(activity.InvalidStatus, "unknown status %q", a.Object.Summary)
	}
}

type statusChanged struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func (s *Service) onStatus(req *Request) activity.Result {
	status := req.Activity.Object.Summary
	if err := s.SetStatus(req.Ctx, req.UserID(), status); err != nil {
		return s.internalError(req.Ctx, "set status", err)
	}
	return activity.Success(statusChanged{UserID: req.UserID(), Status: status})
}

// SetStatus applies a client status verb and tells the user's rooms unless
// the user is now invisible.
func (s *Service) SetStatus(ctx context.Context, userID, status string) error {
	var err error
	switch status {
	case models.StatusVerbOnline, models.StatusVerbVisible:
		err = s.tracker.SetOnline(ctx, userID)
	case models.StatusVerbOffline:
		err = s.tracker.SetOffline(ctx, userID)
	case models.StatusVerbInvisible:
		err = s.tracker.SetInvisible(ctx, userID)
	default:
		return errors.New("unknown status " + status)
	}
	if err != nil {
		return err
	}

	if status != models.StatusVerbInvisible {
		rooms, err := s.repo.RoomsForUser(ctx, userID)
		if err != nil {
			return err
		}
		ev := statusChanged{UserID: userID, Status: status}
		for _, roomID := range sortedKeys(rooms) {
			s.emitToRoom(ctx, roomID, activity.EventUserStatusChanged, ev, "")
		}
	}

	ext := activity.New(activity.VerbStatus)
	ext.Actor.ID = userID
	ext.Object = &activity.Entity{Summary: status}
	s.publishExternal(ctx, ext)
	return nil
}

// =============================================================================
// request_admin
// =============================================================================

func (s *Service) validateRequestAdmin(req *Request) activity.Result {
	return decodeContent(req, true)
}

type adminRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	RoomID   string `json:"room_id,omitempty"`
	Content  string `json:"content"`
}

func (s *Service) onRequestAdmin(req *Request) activity.Result {
	ctx := req.Ctx
	roomID, err := s.adminRoom(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return activity.Fail(activity.NoAdminRoomFound, "no admin room configured")
	}
	if err != nil {
		return s.internalError(ctx, "admin room", err)
	}
	admins, err := s.tracker.VisibleUsersInRoom(ctx, roomID, true)
	if err != nil {
		return s.internalError(ctx, "admins online", err)
	}
	online := 0
	for id := range admins {
		if s.tracker.MulticastEligible(ctx, id) {
			online++
		}
	}
	if online == 0 {
		return activity.Fail(activity.NoAdminOnline, "no admin is online")
	}
	s.emitToRoom(ctx, roomID, activity.EventRequestAdmin, adminRequest{
		UserID:   req.UserID(),
		UserName: req.Session.Get(models.SessionUserName),
		RoomID:   req.Activity.TargetID(),
		Content:  activity.B64Encode(req.Body),
	}, "")
	return activity.Success(nil)
}

// =============================================================================
// update_user_info
// =============================================================================

// userInfoKeys are the session attributes a user may change about
// themselves.
var userInfoKeys = map[string]struct{}{
	models.SessionAvatar:         {},
	models.SessionAppAvatar:      {},
	models.SessionAppAvatarSafe:  {},
	models.SessionEnabledSafe:    {},
	models.SessionHasWebcam:      {},
	models.SessionSpokenLanguage: {},
	models.SessionImage:          {},
}

func (s *Service) validateUpdateUserInfo(req *Request) activity.Result {
	atts := req.Activity.ObjectAttachments()
	if len(atts) == 0 {
		return activity.Fail(activity.MissingObjectAttachments, "object attachments are required")
	}
	for _, att := range atts {
		if att.ObjectType == "" {
			return activity.Fail(activity.MissingAttachmentType, "attachment object type is required")
		}
		if _, ok := userInfoKeys[att.ObjectType]; !ok {
			return activity.Failf(activity.InvalidObjectType, "%q cannot be updated", att.ObjectType)
		}
		if att.Content == "" {
			return activity.Fail(activity.MissingAttachmentContent, "attachment content is required")
		}
		if !activity.IsBase64(att.Content) {
			return activity.Fail(activity.NotBase64, "attachment content is not base64")
		}
	}
	return activity.Success(nil)
}

type userInfoUpdated struct {
	UserID string            `json:"user_id"`
	Info   map[string]string `json:"info"`
}

func (s *Service) onUpdateUserInfo(req *Request) activity.Result {
	ctx, userID := req.Ctx, req.UserID()
	info := map[string]string{}
	for _, att := range req.Activity.ObjectAttachments() {
		v, _ := activity.B64Decode(att.Content)
		info[att.ObjectType] = v
	}
	req.Session.Merge(info)
	if err := s.auth.Store().Update(ctx, userID, info); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist user info")
	}

	ev := userInfoUpdated{UserID: userID, Info: info}
	for _, roomID := range s.sockets.RoomsForSid(req.SID()) {
		if isPrivateRoom(roomID) {
			continue
		}
		s.emitToRoom(ctx, roomID, activity.EventUserInfoUpdated, ev, req.SID())
	}
	s.publishExternal(ctx, req.Activity)
	return activity.Success(nil)
}

// =============================================================================
// report
// =============================================================================

func (s *Service) validateReport(req *Request) activity.Result {
	id := req.Activity.ObjectID()
	if id == "" {
		return activity.Fail(activity.MissingObjectID, "message id is required")
	}
	if _, err := s.repo.GetMessage(req.Ctx, id); errors.Is(err, database.ErrNotFound) {
		return activity.Failf(activity.NoSuchMessage, "no message with id %s", id)
	} else if err != nil {
		return s.internalError(req.Ctx, "load message", err)
	}
	return decodeContent(req, true)
}

// onReport forwards the report to the external bus.
func (s *Service) onReport(req *Request) activity.Result {
	msg, err := s.repo.GetMessage(req.Ctx, req.Activity.ObjectID())
	if err != nil {
		return s.internalError(req.Ctx, "load message", err)
	}
	ev := req.Activity.Clone()
	ev.Object.Summary = activity.B64Encode(msg.Body)
	ev.EnsureTarget()
	if ev.Target.ID == "" {
		ev.Target.ID = msg.FromUserID
		ev.Target.ObjectType = activity.TypeUser
	}
	s.publishExternal(req.Ctx, ev)
	return activity.Success(nil)
}

// =============================================================================
// heartbeat
// =============================================================================

func (s *Service) onHeartbeat(req *Request) activity.Result {
	s.Heartbeat(req.Ctx, req.UserID())
	return activity.Success(nil)
}

// Heartbeat refreshes the user's liveness locally and in the shared
// store.
func (s *Service) Heartbeat(ctx context.Context, userID string) {
	s.beats.Touch(userID)
	ttl := s.cfg.Auth.HeartbeatTTL
	if ttl <= 0 {
		ttl = s.cfg.Heartbeat.Timeout
	}
	if err := s.cache.SetHeartbeat(ctx, userID, ttl); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to mirror heartbeat")
	}
}
