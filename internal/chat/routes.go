// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"github.com/tomtom215/dino/internal/activity"
)

// registerRoutes binds every client verb to its validator, plugins and
// handler. Global middleware runs first, then the validator, then the
// plugins configured for the verb.
func (s *Service) registerRoutes() {
	s.dispatcher.Use(s.requireActor, s.stamp, s.loadRoles)

	routes := []struct {
		verb     activity.Verb
		validate Validator
		handle   HandlerFunc
	}{
		{activity.VerbLogin, s.validateLogin, s.onLogin},
		{activity.VerbJoin, s.validateJoin, s.onJoin},
		{activity.VerbLeave, s.requireRoom, s.onLeave},
		{activity.VerbMessage, s.validateMessage, s.onMessage},
		{activity.VerbWhisper, s.validateWhisper, s.onWhisper},
		{activity.VerbRead, s.validateAck, s.onRead},
		{activity.VerbReceived, s.validateAck, s.onReceived},
		{activity.VerbHistory, s.validateHistory, s.onHistory},
		{activity.VerbListRooms, s.validateListRooms, s.onListRooms},
		{activity.VerbListChannels, nil, s.onListChannels},
		{activity.VerbUsersInRoom, s.requireRoom, s.onUsersInRoom},
		{activity.VerbCreate, s.validateCreate, s.onCreate},
		{activity.VerbInvite, s.validateInvite, s.onInvite},
		{activity.VerbKick, s.validateKick, s.onKick},
		{activity.VerbBan, s.validateBan, s.onBan},
		{activity.VerbSetACL, s.validateSetACL, s.onSetACL},
		{activity.VerbGetACL, s.validateGetACL, s.onGetACL},
		{activity.VerbStatus, s.validateStatus, s.onStatus},
		{activity.VerbRemoveRoom, s.validateRemoveRoom, s.onRemoveRoom},
		{activity.VerbRequestAdmin, s.validateRequestAdmin, s.onRequestAdmin},
		{activity.VerbUpdateUserInfo, s.validateUpdateUserInfo, s.onUpdateUserInfo},
		{activity.VerbReport, s.validateReport, s.onReport},
		{activity.VerbMsgStatus, s.validateMsgStatus, s.onMsgStatus},
		{activity.VerbHeartbeat, nil, s.onHeartbeat},
		{activity.VerbDisconnect, nil, s.onDisconnectVerb},
	}
	for _, r := range routes {
		var mw []Middleware
		if r.validate != nil {
			mw = append(mw, validate(r.validate))
		}
		mw = append(mw, s.plugins.For(r.verb)...)
		s.dispatcher.Handle(r.verb, r.handle, mw...)
	}
}
