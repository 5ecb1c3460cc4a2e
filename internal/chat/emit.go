// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/logging"
)

// framePrivileged targets a send_to_node frame at the privileged members
// of a room.
const framePrivileged = "privileged"

// privateRoom is the per-user fan-out set every socket of a user joins at
// login.
func privateRoom(userID string) string { return "user:" + userID }

// emitToRoom emits locally and mirrors the frame to the other nodes.
func (s *Service) emitToRoom(ctx context.Context, roomID, event string, data any, skipSid string) {
	if skipSid != "" {
		s.sockets.EmitToRoom(roomID, event, data, skipSid)
	} else {
		s.sockets.EmitToRoom(roomID, event, data)
	}
	s.sendToNodes(ctx, activity.TypeRoom, roomID, event, data)
}

// emitToUser reaches every socket of userID on every node.
func (s *Service) emitToUser(ctx context.Context, userID, event string, data any) {
	s.sockets.EmitToRoom(privateRoom(userID), event, data)
	s.sendToNodes(ctx, activity.TypePrivate, userID, event, data)
}

// emitEverywhere reaches every socket of the cluster.
func (s *Service) emitEverywhere(ctx context.Context, event string, data any) {
	s.sockets.Broadcast(event, data)
	s.sendToNodes(ctx, activity.TypeGlobal, "", event, data)
}

// sendToNodes wraps a frame in a send_to_node event: the event name in
// object.summary and the JSON payload base64 encoded in object.content.
func (s *Service) sendToNodes(ctx context.Context, targetType, targetID, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("event", event).Msg("Failed to encode node frame")
		return
	}
	a := activity.New(activity.VerbSendToNode)
	a.Actor.ID = s.nodeID
	a.Origin = s.nodeID
	a.Object = &activity.Entity{Summary: event, Content: activity.B64Encode(string(payload))}
	a.Target = &activity.Entity{ID: targetID, ObjectType: targetType}
	s.pub.PublishInternal(ctx, a)
}

// deliverNodeFrame emits a send_to_node frame on this node. Frames that
// originated here were already emitted.
func (s *Service) deliverNodeFrame(ctx context.Context, a *activity.Activity) {
	if a.Origin == s.nodeID || a.Object == nil {
		return
	}
	raw, err := activity.B64Decode(a.Object.Content)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("id", a.ID).Msg("Dropping node frame with bad payload")
		return
	}
	data := json.RawMessage(raw)
	if !json.Valid(data) {
		logging.Ctx(ctx).Warn().Str("id", a.ID).Msg("Dropping node frame with invalid JSON")
		return
	}
	event := a.Object.Summary
	switch a.TargetType() {
	case activity.TypeRoom:
		s.sockets.EmitToRoom(a.TargetID(), event, data)
	case activity.TypePrivate:
		s.sockets.EmitToRoom(privateRoom(a.TargetID()), event, data)
	case activity.TypeGlobal:
		s.sockets.Broadcast(event, data)
	case framePrivileged:
		channelID, err := s.channelForRoom(ctx, a.TargetID())
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("room_id", a.TargetID()).Msg("Dropping privileged frame")
			return
		}
		s.emitToPrivilegedLocal(ctx, a.TargetID(), channelID, event, data, "")
	}
}

// enrich stamps provider and title on activities leaving the cluster.
func (s *Service) enrich(a *activity.Activity) *activity.Activity {
	e := s.cfg.Enrich
	if e.ProviderID != "" || e.ProviderURL != "" {
		p := a.EnsureProvider()
		if p.ID == "" {
			p.ID = e.ProviderID
		}
		if p.URL == "" {
			p.URL = e.ProviderURL
		}
	}
	if e.TitlePrefix != "" && a.Title == "" {
		a.Title = e.TitlePrefix + string(a.Verb)
	}
	if e.TopicPrefix != "" && a.Object != nil && a.Object.Summary == "" {
		a.Object.Summary = e.TopicPrefix + string(a.Verb)
	}
	return a
}

// publishExternal enriches a copy of a and hands it to the external bus.
func (s *Service) publishExternal(ctx context.Context, a *activity.Activity) {
	s.pub.PublishExternal(ctx, s.enrich(a.Clone()))
}
