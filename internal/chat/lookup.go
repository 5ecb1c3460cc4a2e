// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/dino/internal/acl"
	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// Read-through helpers. Every getter consults the cache first and falls
// back to the repository, refreshing the cache on the way out.

func (s *Service) userRoles(ctx context.Context, userID string) (*models.UserRoles, error) {
	if roles, ok := s.cache.GetUserRoles(userID); ok {
		return roles, nil
	}
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("roles for %s: %w", userID, err)
	}
	s.cache.SetUserRoles(userID, roles)
	return roles, nil
}

func (s *Service) aclsFor(ctx context.Context, scope models.ACLScope, id string, action models.ACLAction) (models.ACLSet, error) {
	if set, ok := s.cache.GetACLsForAction(scope, id, action); ok {
		return set, nil
	}
	set, err := s.repo.GetACLsForAction(ctx, scope, id, action)
	if err != nil {
		return nil, fmt.Errorf("%s acls for %s %s: %w", action, scope, id, err)
	}
	s.cache.SetACLsForAction(scope, id, action, set)
	return set, nil
}

func (s *Service) channelForRoom(ctx context.Context, roomID string) (string, error) {
	if ch, ok := s.cache.GetChannelForRoom(roomID); ok {
		return ch, nil
	}
	ch, err := s.repo.ChannelForRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	s.cache.SetChannelForRoom(roomID, ch)
	return ch, nil
}

func (s *Service) roomExists(ctx context.Context, roomID string) (bool, error) {
	if exists, ok := s.cache.RoomExists(roomID); ok {
		return exists, nil
	}
	exists, err := s.repo.RoomExists(ctx, roomID)
	if err != nil {
		return false, err
	}
	s.cache.SetRoomExists(roomID, exists)
	return exists, nil
}

func (s *Service) roomName(ctx context.Context, roomID string) (string, error) {
	if name, ok := s.cache.GetRoomName(ctx, roomID); ok {
		return name, nil
	}
	name, err := s.repo.GetRoomName(ctx, roomID)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetRoomName(ctx, roomID, name); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to cache room name")
	}
	return name, nil
}

func (s *Service) userName(ctx context.Context, userID string) string {
	name, err := s.repo.GetUserName(ctx, userID)
	if err != nil {
		return ""
	}
	return name
}

func (s *Service) channels(ctx context.Context) ([]models.Channel, error) {
	if chs, ok := s.cache.GetChannels(); ok {
		return chs, nil
	}
	chs, err := s.repo.GetChannels(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetChannels(chs)
	return chs, nil
}

func (s *Service) roomsForChannel(ctx context.Context, channelID string) ([]models.Room, error) {
	if rooms, ok := s.cache.GetRoomsForChannel(channelID); ok {
		return rooms, nil
	}
	rooms, err := s.repo.RoomsForChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	s.cache.SetRoomsForChannel(channelID, rooms)
	return rooms, nil
}

func (s *Service) blacklist(ctx context.Context) *cache.Keywords {
	if kw, ok := s.cache.GetBlacklist(); ok {
		return kw
	}
	words, err := s.repo.GetBlacklist(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to load blacklist")
		return cache.NewKeywords(nil)
	}
	return s.cache.SetBlacklist(words)
}

func (s *Service) adminRoom(ctx context.Context) (string, error) {
	if id, ok := s.cache.GetAdminRoom(); ok {
		return id, nil
	}
	id, err := s.repo.AdminRoom(ctx)
	if err != nil {
		return "", err
	}
	s.cache.SetAdminRoom(id)
	return id, nil
}

// resolveRoom finds the room by id, or by base64 display name when no id
// was given.
func (s *Service) resolveRoom(ctx context.Context, a *activity.Activity) (*models.Room, activity.Result) {
	id := a.TargetID()
	if id == "" && a.Target != nil && a.Target.DisplayName != "" {
		name, err := activity.B64Decode(a.Target.DisplayName)
		if err != nil {
			return nil, activity.Fail(activity.NotBase64, "target display name is not base64")
		}
		ids, err := s.repo.RoomIDsForName(ctx, a.ProviderURL(), name)
		if err != nil {
			return nil, s.internalError(ctx, "resolve room name", err)
		}
		switch len(ids) {
		case 0:
			return nil, activity.Failf(activity.NoSuchRoom, "no room named %q", name)
		case 1:
			id = ids[0]
			a.EnsureTarget().ID = id
		default:
			return nil, activity.Failf(activity.MultipleRoomsWithName, "%d rooms named %q", len(ids), name)
		}
	}
	if id == "" {
		return nil, activity.Fail(activity.MissingTargetID, "target id is required")
	}

	room, err := s.repo.GetRoom(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		s.cache.SetRoomExists(id, false)
		return nil, activity.Failf(activity.NoSuchRoom, "no room with id %s", id)
	}
	if err != nil {
		return nil, s.internalError(ctx, "load room", err)
	}
	s.cache.SetRoomExists(id, true)
	s.cache.SetChannelForRoom(id, room.ChannelID)
	return room, activity.Success(nil)
}

// inRoom reports the membership row of userID in roomID.
func (s *Service) inRoom(ctx context.Context, userID, roomID string) (bool, error) {
	rooms, err := s.repo.RoomsForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	_, ok := rooms[roomID]
	return ok, nil
}

// =============================================================================
// Bans
// =============================================================================

// banStatus returns the ban end times that apply to userID in roomID. The
// cache mirror is used when every scope is present; otherwise the
// repository answers and the mirror is refreshed.
func (s *Service) banStatus(ctx context.Context, userID, roomID, channelID string) (models.BanStatus, error) {
	var st models.BanStatus
	complete := true
	read := func(scope models.ACLScope, id string, dst *time.Time) {
		end, ok := s.cache.GetBanEnd(ctx, userID, scope, id)
		if !ok {
			complete = false
			return
		}
		*dst = end
	}
	read(models.ScopeGlobal, "", &st.Global)
	if roomID != "" {
		read(models.ScopeRoom, roomID, &st.Room)
		if channelID != "" {
			read(models.ScopeChannel, channelID, &st.Channel)
		} else {
			complete = false
		}
	}
	if complete {
		return st, nil
	}

	st, err := s.repo.GetUserBanStatus(ctx, roomID, userID)
	if err != nil {
		return models.BanStatus{}, fmt.Errorf("ban status for %s: %w", userID, err)
	}
	mirror := func(scope models.ACLScope, id string, end time.Time) {
		if err := s.cache.SetBanEnd(ctx, userID, scope, id, end); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("Failed to mirror ban")
		}
	}
	mirror(models.ScopeGlobal, "", st.Global)
	if roomID != "" {
		mirror(models.ScopeRoom, roomID, st.Room)
		if channelID != "" {
			mirror(models.ScopeChannel, channelID, st.Channel)
		}
	}
	return st, nil
}

// checkBanned returns USER_IS_BANNED with the remaining seconds when any
// scope applies.
func (s *Service) checkBanned(ctx context.Context, userID, roomID, channelID string) activity.Result {
	st, err := s.banStatus(ctx, userID, roomID, channelID)
	if err != nil {
		return s.internalError(ctx, "ban status", err)
	}
	if scope, remaining, banned := st.Banned(s.now()); banned {
		return activity.FailWithData(activity.UserIsBanned, "user is banned", banInfo{
			Scope:   string(scope),
			Seconds: int64(remaining.Seconds()),
		})
	}
	return activity.Success(nil)
}

type banInfo struct {
	Scope   string `json:"scope"`
	Seconds int64  `json:"seconds"`
	Reason  string `json:"reason,omitempty"`
}

// =============================================================================
// ACL evaluation
// =============================================================================

// evaluate runs the ACLs of one (scope, target, action).
func (s *Service) evaluate(req *Request, scope models.ACLScope, targetID, channelID string, action models.ACLAction) (acl.Decision, error) {
	set, err := s.aclsFor(req.Ctx, scope, targetID, action)
	if err != nil {
		return acl.Decision{}, err
	}
	return s.acl.Evaluate(req.Ctx, &acl.Request{
		Activity:  req.Activity,
		Session:   req.Session,
		Roles:     req.Roles,
		Scope:     scope,
		TargetID:  targetID,
		ChannelID: channelID,
		Action:    action,
		ACLs:      set,
	}), nil
}

// checkRoomACL evaluates the channel ACL and then the room ACL for action.
func (s *Service) checkRoomACL(req *Request, room *models.Room, action models.ACLAction) activity.Result {
	if d, err := s.evaluate(req, models.ScopeChannel, room.ChannelID, room.ChannelID, action); err != nil {
		return s.internalError(req.Ctx, "channel acl", err)
	} else if !d.Allowed {
		return activity.Fail(activity.NotAllowed, d.Reason)
	}
	if d, err := s.evaluate(req, models.ScopeRoom, room.ID, room.ChannelID, action); err != nil {
		return s.internalError(req.Ctx, "room acl", err)
	} else if !d.Allowed {
		return activity.Fail(activity.NotAllowed, d.Reason)
	}
	return activity.Success(nil)
}

// internalError logs err and converts it to UNKNOWN_ERROR.
func (s *Service) internalError(ctx context.Context, op string, err error) activity.Result {
	logging.Ctx(ctx).Error().Err(err).Str("op", op).Msg("Request failed")
	return activity.Fail(activity.UnknownError, op+" failed")
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
