// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package activity

// Verb identifies the kind of an activity.
type Verb string

// Client verbs.
const (
	VerbLogin          Verb = "login"
	VerbJoin           Verb = "join"
	VerbLeave          Verb = "leave"
	VerbMessage        Verb = "message"
	VerbWhisper        Verb = "whisper"
	VerbRead           Verb = "read"
	VerbReceived       Verb = "received"
	VerbHistory        Verb = "history"
	VerbListRooms      Verb = "list_rooms"
	VerbListChannels   Verb = "list_channels"
	VerbUsersInRoom    Verb = "users_in_room"
	VerbCreate         Verb = "create"
	VerbInvite         Verb = "invite"
	VerbKick           Verb = "kick"
	VerbBan            Verb = "ban"
	VerbSetACL         Verb = "set_acl"
	VerbGetACL         Verb = "get_acl"
	VerbStatus         Verb = "status"
	VerbRemoveRoom     Verb = "remove_room"
	VerbRequestAdmin   Verb = "request_admin"
	VerbUpdateUserInfo Verb = "update_user_info"
	VerbReport         Verb = "report"
	VerbMsgStatus      Verb = "msg_status"
	VerbHeartbeat      Verb = "heartbeat"
	VerbDisconnect     Verb = "disconnect"
)

// verbSend is the ActivityStreams verb clients put on chat messages.
const verbSend Verb = "send"

// Server-side verbs used on the buses and in broadcasts.
const (
	VerbRestart         Verb = "restart"
	VerbBlacklistedWord Verb = "blacklisted_word"
	VerbRemove          Verb = "remove"
	VerbSendToNode      Verb = "send_to_node"
	VerbBroadcast       Verb = "broadcast"
	VerbDelete          Verb = "delete"
	VerbSpam            Verb = "spam"
	VerbUnban           Verb = "unban"
)

// liveVerbs is the full verb set accepted once a session is authenticated.
var liveVerbs = map[Verb]struct{}{
	VerbJoin: {}, VerbLeave: {}, VerbMessage: {}, VerbWhisper: {}, VerbRead: {},
	VerbReceived: {}, VerbHistory: {}, VerbListRooms: {}, VerbListChannels: {},
	VerbUsersInRoom: {}, VerbCreate: {}, VerbInvite: {}, VerbKick: {}, VerbBan: {},
	VerbSetACL: {}, VerbGetACL: {}, VerbStatus: {}, VerbRemoveRoom: {},
	VerbRequestAdmin: {}, VerbUpdateUserInfo: {}, VerbReport: {}, VerbMsgStatus: {},
	VerbHeartbeat: {}, VerbDisconnect: {},
}

// ParseVerb normalises a wire verb. The ActivityStreams "send" verb is an
// alias for message.
func ParseVerb(s string) Verb {
	v := Verb(s)
	if v == verbSend {
		return VerbMessage
	}
	return v
}

// IsLiveVerb reports whether v may be sent by an authenticated session.
func IsLiveVerb(v Verb) bool {
	_, ok := liveVerbs[v]
	return ok
}

// LiveVerbs returns every verb accepted from an authenticated session.
func LiveVerbs() []Verb {
	out := make([]Verb, 0, len(liveVerbs))
	for v := range liveVerbs {
		out = append(out, v)
	}
	return out
}

// Event returns the name of the reply event for a client verb, e.g. gn_join.
func (v Verb) Event() string {
	return "gn_" + string(v)
}

// Broadcast and targeted event names emitted by the server.
const (
	EventUserJoined        = "gn_user_joined"
	EventUserLeft          = "gn_user_left"
	EventUserBanned        = "gn_user_banned"
	EventUserKicked        = "gn_user_kicked"
	EventMessageDeleted    = "gn_message_deleted"
	EventRoomRemoved       = "gn_room_removed"
	EventBanned            = "gn_banned"
	EventDisconnect        = "gn_disconnect"
	EventWhisper           = "gn_whisper"
	EventInvitation        = "gn_invitation"
	EventRequestAdmin      = "gn_request_admin"
	EventUserInfoUpdated   = "gn_user_info_updated"
	EventBroadcast         = "gn_broadcast"
	EventMessageReceived   = "gn_message_received"
	EventMessageRead       = "gn_message_read"
	EventConnect           = "gn_connect"
	EventMessage           = "message"
	EventUserStatusChanged = "gn_user_status_changed"
	EventError             = "gn_error"
)
