// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package cache

import (
	"strconv"

	"github.com/tomtom215/dino/internal/models"
)

// Local tier keys.
const (
	kRoles       = "roles:"
	kACLAction   = "acl:"
	kACLAll      = "acls:"
	kRoomExists  = "room:exists:"
	kRoomName    = "room:name:"
	kRoomChannel = "room:channel:"
	kRoomForName = "room:for-name:"
	kUsersInRoom = "room:users:"
	kChannelName = "channel:name:"
	kRoomList    = "rooms:channel:"
	kChannelList = "channels"
	kBlacklist   = "blacklist"
	kWhisper     = "whisper:"
	kAdminRoom   = "admin-room"
)

// Shared tier keys, relative to the configured prefix.
const (
	sOnlineSet    = "users:online"
	sOnlineBitmap = "users:online:bitmap"
	sMulticastSet = "users:multicast"
	sStatus       = "user:status:"
	sSids         = "user:sids:"
	sSidUser      = "sid:"
	sBan          = "ban:"
	sLastRead     = "last-read:"
	sHeartbeat    = "heartbeat:"
	sRoomNames    = "names:room"
	sChannelNames = "names:channel"
)

func aclActionKey(scope models.ACLScope, id string, action models.ACLAction) string {
	return kACLAction + string(scope) + ":" + id + ":" + string(action)
}

func aclScopePrefix(scope models.ACLScope, id string) string {
	return kACLAction + string(scope) + ":" + id + ":"
}

func aclAllKey(scope models.ACLScope, id string) string {
	return kACLAll + string(scope) + ":" + id
}

func usersInRoomKey(roomID string, isSuper bool) string {
	return kUsersInRoom + roomID + ":" + strconv.FormatBool(isSuper)
}

func roomForNameKey(channelID, name string) string {
	return kRoomForName + channelID + ":" + name
}

func whisperKey(sender, target string) string {
	return kWhisper + sender + ":" + target
}

func banKey(userID string, scope models.ACLScope, scopeID string) string {
	if scope == models.ScopeGlobal {
		return sBan + string(scope) + ":" + userID
	}
	return sBan + string(scope) + ":" + scopeID + ":" + userID
}

func lastReadKey(roomID string) string {
	return sLastRead + roomID
}
