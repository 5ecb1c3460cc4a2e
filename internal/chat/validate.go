// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"strings"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/models"
)

// maxAttachments bounds id lists on read, received and msg_status.
const maxAttachments = 500

// Validator is a per-verb precondition. It may fill resolved fields of req.
type Validator func(req *Request) activity.Result

// validate runs v before the handler.
func validate(v Validator) Middleware { return guard(v) }

// requireActor rejects activities without actor.id or whose actor is not
// the session user. Login is exempt from the session comparison.
func (s *Service) requireActor(next HandlerFunc) HandlerFunc {
	return func(req *Request) activity.Result {
		a := req.Activity
		if a.Actor.ID == "" {
			return activity.Fail(activity.MissingActorID, "actor id is required")
		}
		if a.Verb != activity.VerbLogin && req.Session != nil && a.Actor.ID != req.Session.UserID {
			return activity.Fail(activity.NotAllowed, "actor does not match session user")
		}
		return next(req)
	}
}

// stamp overwrites id and published with server values.
func (s *Service) stamp(next HandlerFunc) HandlerFunc {
	return func(req *Request) activity.Result {
		req.Activity.Stamp()
		if req.Session != nil && req.Activity.Actor.DisplayName == "" {
			if name := req.Session.Get(models.SessionUserName); name != "" {
				req.Activity.Actor.DisplayName = activity.B64Encode(name)
			}
		}
		return next(req)
	}
}

// loadRoles attaches the session user's roles.
func (s *Service) loadRoles(next HandlerFunc) HandlerFunc {
	return func(req *Request) activity.Result {
		if req.Session != nil && req.Roles == nil {
			roles, err := s.userRoles(req.Ctx, req.Session.UserID)
			if err != nil {
				return s.internalError(req.Ctx, "load roles", err)
			}
			req.Roles = roles
		}
		if req.Roles == nil {
			req.Roles = models.NewUserRoles()
		}
		return next(req)
	}
}

// =============================================================================
// Shared field checks
// =============================================================================

// decodeContent decodes object.content into req.Body.
func decodeContent(req *Request, allowEmpty bool) activity.Result {
	raw := req.Activity.ObjectContent()
	if raw == "" {
		if allowEmpty {
			return activity.Success(nil)
		}
		return activity.Fail(activity.MissingObjectContent, "object content is required")
	}
	body, err := activity.B64Decode(raw)
	if err != nil {
		return activity.Fail(activity.NotBase64, "object content is not base64")
	}
	if !allowEmpty && strings.TrimSpace(body) == "" {
		return activity.Fail(activity.EmptyMessage, "message is empty")
	}
	req.Body = body
	return activity.Success(nil)
}

// attachmentIDs returns object attachment ids, bounded by maxAttachments.
func attachmentIDs(a *activity.Activity) ([]string, activity.Result) {
	atts := a.ObjectAttachments()
	if len(atts) == 0 {
		return nil, activity.Fail(activity.MissingObjectAttachments, "object attachments are required")
	}
	if len(atts) > maxAttachments {
		return nil, activity.Failf(activity.TooManyAttachments, "at most %d attachments", maxAttachments)
	}
	ids := make([]string, 0, len(atts))
	for _, att := range atts {
		if att.ID == "" {
			return nil, activity.Fail(activity.MissingObjectID, "attachment id is required")
		}
		ids = append(ids, att.ID)
	}
	return ids, activity.Success(nil)
}

// requireUser checks that id names an existing user.
func (s *Service) requireUser(req *Request, id string, missing activity.Code) activity.Result {
	if id == "" {
		return activity.Fail(missing, "user id is required")
	}
	if !models.IsValidUserID(id) {
		return activity.Failf(activity.NoSuchUser, "invalid user id %q", id)
	}
	ok, err := s.repo.UserExists(req.Ctx, id)
	if err != nil {
		return s.internalError(req.Ctx, "user exists", err)
	}
	if !ok {
		return activity.Failf(activity.NoSuchUser, "no user with id %s", id)
	}
	return activity.Success(nil)
}

// requireRoom resolves the target room into req.Room.
func (s *Service) requireRoom(req *Request) activity.Result {
	room, res := s.resolveRoom(req.Ctx, req.Activity)
	if !res.OK {
		return res
	}
	req.Room = room
	req.ChannelID = room.ChannelID
	return activity.Success(nil)
}
