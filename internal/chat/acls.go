// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/models"
)

// ACLUpdate is one (action, type, value) write. An empty value removes the
// type from the action.
type ACLUpdate struct {
	Action string
	Type   string
	Value  string
}

// resolveACLTarget fills req.Room or req.ChannelID from target.objectType.
func (s *Service) resolveACLTarget(req *Request) (models.ACLScope, activity.Result) {
	a := req.Activity
	switch a.TargetType() {
	case activity.TypeRoom:
		return models.ScopeRoom, s.requireRoom(req)
	case activity.TypeChannel:
		channelID := a.TargetID()
		if channelID == "" {
			return "", activity.Fail(activity.MissingTargetID, "target id is required")
		}
		ok, err := s.repo.ChannelExists(req.Ctx, channelID)
		if err != nil {
			return "", s.internalError(req.Ctx, "channel exists", err)
		}
		if !ok {
			return "", activity.Failf(activity.NoSuchChannel, "no channel with id %s", channelID)
		}
		req.ChannelID = channelID
		return models.ScopeChannel, activity.Success(nil)
	case "":
		return "", activity.Fail(activity.MissingTargetObjectType, "target object type is required")
	default:
		return "", activity.Failf(activity.InvalidTargetType, "acls cannot be attached to %q", a.TargetType())
	}
}

func aclTargetID(req *Request) string {
	if req.Room != nil {
		return req.Room.ID
	}
	return req.ChannelID
}

// aclUpdates reads object.attachments as objectType=acl type,
// summary=action, content=value.
func aclUpdates(a *activity.Activity) ([]ACLUpdate, activity.Result) {
	atts := a.ObjectAttachments()
	if len(atts) == 0 {
		return nil, activity.Fail(activity.MissingObjectAttachments, "object attachments are required")
	}
	out := make([]ACLUpdate, 0, len(atts))
	for _, att := range atts {
		if att.ObjectType == "" {
			return nil, activity.Fail(activity.MissingAttachmentType, "attachment object type is required")
		}
		out = append(out, ACLUpdate{Action: att.Summary, Type: att.ObjectType, Value: att.Content})
	}
	return out, activity.Success(nil)
}

func (s *Service) validateSetACL(req *Request) activity.Result {
	scope, res := s.resolveACLTarget(req)
	if !res.OK {
		return res
	}
	roomID := ""
	if req.Room != nil {
		roomID = req.Room.ID
	}
	if !s.authz.CanSetACL(req.Roles, roomID, req.ChannelID) {
		return activity.Fail(activity.NotAllowed, "not allowed to edit acls here")
	}
	updates, res := aclUpdates(req.Activity)
	if !res.OK {
		return res
	}
	return s.checkACLUpdates(scope, updates)
}

func (s *Service) checkACLUpdates(scope models.ACLScope, updates []ACLUpdate) activity.Result {
	for _, u := range updates {
		if code, msg := s.acl.Registry().CheckNew(scope, u.Action, u.Type, u.Value); code != activity.OK {
			return activity.Fail(code, msg)
		}
	}
	return activity.Success(nil)
}

func (s *Service) onSetACL(req *Request) activity.Result {
	scope := models.ScopeChannel
	if req.Room != nil {
		scope = models.ScopeRoom
	}
	updates, _ := aclUpdates(req.Activity)
	if err := s.SetACLs(req.Ctx, scope, aclTargetID(req), updates); err != nil {
		return s.internalError(req.Ctx, "set acl", err)
	}
	s.publishExternal(req.Ctx, req.Activity)
	return activity.Success(nil)
}

// SetACLs writes the updates and drops the cached ACLs of the target.
// Callers validate the updates first.
func (s *Service) SetACLs(ctx context.Context, scope models.ACLScope, targetID string, updates []ACLUpdate) error {
	for _, u := range updates {
		if err := s.repo.UpdateACL(ctx, scope, targetID, models.ACLAction(u.Action), u.Type, u.Value); err != nil {
			return err
		}
		s.cache.ResetACLsForAction(scope, targetID, models.ACLAction(u.Action))
	}
	s.cache.ResetACLs(scope, targetID)
	return nil
}

// ACLs returns every ACL on the target, read through the cache.
func (s *Service) ACLs(ctx context.Context, scope models.ACLScope, targetID string) (models.ACLs, error) {
	if acls, ok := s.cache.GetACLs(scope, targetID); ok {
		return acls, nil
	}
	acls, err := s.repo.GetACLs(ctx, scope, targetID)
	if err != nil {
		return nil, err
	}
	s.cache.SetACLs(scope, targetID, acls)
	return acls, nil
}

func (s *Service) validateGetACL(req *Request) activity.Result {
	_, res := s.resolveACLTarget(req)
	return res
}

func (s *Service) onGetACL(req *Request) activity.Result {
	scope := models.ScopeChannel
	if req.Room != nil {
		scope = models.ScopeRoom
	}
	acls, err := s.ACLs(req.Ctx, scope, aclTargetID(req))
	if err != nil {
		return s.internalError(req.Ctx, "get acl", err)
	}
	return activity.Success(acls)
}
