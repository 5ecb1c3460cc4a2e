// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"strings"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// heartbeatPrefix marks disconnects synthesised by the reaper.
const heartbeatPrefix = "hb-"

// HandleInternal applies one internal bus event on this node. applied is
// false only for kick and ban events whose user has no socket here; the
// bus delegates those to the other nodes.
func (s *Service) HandleInternal(ctx context.Context, a *activity.Activity) (applied bool, err error) {
	switch a.Verb {
	case activity.VerbBan, activity.VerbKick:
		if a.Origin == s.nodeID {
			return true, nil
		}
		s.forgetModeratedRooms(ctx, a)
		return s.enforce(ctx, a), nil
	case activity.VerbRemove:
		s.applyRemoteRemove(ctx, a)
	case activity.VerbSendToNode:
		s.deliverNodeFrame(ctx, a)
	case activity.VerbDisconnect:
		s.applyDisconnect(ctx, a)
	case activity.VerbLeave:
		if a.Origin != s.nodeID {
			s.leaveLocalSockets(a.Actor.ID, a.TargetID())
		}
	default:
		logging.Ctx(ctx).Debug().Str("verb", string(a.Verb)).Msg("Ignoring internal event")
	}
	return true, nil
}

// forgetModeratedRooms drops cached views a remote kick or ban made stale.
func (s *Service) forgetModeratedRooms(ctx context.Context, a *activity.Activity) {
	userID := a.ObjectID()
	switch models.ACLScope(a.TargetType()) {
	case models.ScopeRoom:
		s.cache.ResetUsersInRoom(a.TargetID())
	default:
		for _, sid := range s.tracker.LocalSids(userID) {
			for _, roomID := range s.sockets.RoomsForSid(sid) {
				s.cache.ResetUsersInRoom(roomID)
			}
		}
	}
	s.cache.ResetUserRoles(userID)
}

// applyDisconnect closes local sockets named by a disconnect event: every
// socket of actor.id for reaper disconnects, or the single socket in
// object.id.
func (s *Service) applyDisconnect(ctx context.Context, a *activity.Activity) {
	if sid := a.ObjectID(); sid != "" {
		s.closeLocalSid(sid, "another session logged in")
		return
	}
	userID := a.Actor.ID
	if userID == "" {
		return
	}
	for _, sid := range s.tracker.LocalSids(userID) {
		s.closeLocalSid(sid, "heartbeat expired")
	}
	if strings.HasPrefix(a.Actor.Content, heartbeatPrefix) {
		if err := s.tracker.SetOffline(ctx, userID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to set expired user offline")
		}
	}
}

// HeartbeatExpired disconnects userID everywhere. Only this node publishes
// the external disconnect.
func (s *Service) HeartbeatExpired(ctx context.Context, userID string) {
	ev := activity.New(activity.VerbDisconnect)
	ev.Actor = activity.Entity{ID: userID, Content: heartbeatPrefix + userID}
	ev.Origin = s.nodeID

	s.applyDisconnect(ctx, ev)
	s.pub.PublishInternal(ctx, ev)

	ext := ev.Clone()
	ext.Origin = ""
	s.publishExternal(ctx, ext)
	logging.Ctx(ctx).Info().Str("user_id", userID).Msg("Heartbeat expired")
}

// HasLiveSocket reports whether userID has a socket open on this node.
func (s *Service) HasLiveSocket(_ context.Context, userID string) bool {
	return len(s.tracker.LocalSids(userID)) > 0
}

// HasHeartbeat reports whether another node refreshed userID recently.
func (s *Service) HasHeartbeat(ctx context.Context, userID string) bool {
	ok, err := s.cache.HasHeartbeat(ctx, userID)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Heartbeat lookup failed")
		return false
	}
	return ok
}

// AnnounceRestart publishes the external restart event of this node.
func (s *Service) AnnounceRestart(ctx context.Context) {
	ev := activity.New(activity.VerbRestart)
	ev.Actor.ID = s.nodeID
	s.publishExternal(ctx, ev)
}

type broadcast struct {
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
}

func broadcastFrame(a *activity.Activity) broadcast {
	return broadcast{Content: a.ObjectContent(), Sender: a.Actor.ID}
}

// Broadcast sends a base64 message to every socket in the cluster.
func (s *Service) Broadcast(ctx context.Context, senderID, body string) {
	ev := activity.New(activity.VerbBroadcast)
	ev.Actor.ID = senderID
	ev.Object = &activity.Entity{Content: activity.B64Encode(body)}

	s.emitEverywhere(ctx, activity.EventBroadcast, broadcastFrame(ev))
	s.publishExternal(ctx, ev)
}
