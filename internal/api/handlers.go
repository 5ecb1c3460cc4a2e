// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/models"
)

// Chat is the part of the chat service the REST surface drives.
// *chat.Service implements it.
type Chat interface {
	BanFromAdmin(ctx context.Context, b chat.Ban) error
	KickFromAdmin(ctx context.Context, k chat.Kick) error
	Unban(ctx context.Context, userID string, scope models.ACLScope, scopeID string) error
	Bans(ctx context.Context) ([]models.Ban, error)
	AddBlacklist(ctx context.Context, words []string) error
	RemoveBlacklist(ctx context.Context, word string) error
	Broadcast(ctx context.Context, senderID, body string)
	CreateEphemeralRoom(ctx context.Context, channelID, name, ownerID string, memberIDs []string) (string, error)
	DeleteMessages(ctx context.Context, userID, roomID string) (int, error)
	History(ctx context.Context, roomID string, since time.Time, limit int) ([]models.Message, error)
	UserHistory(ctx context.Context, userID string) ([]models.Message, error)
	CheckACLs(scope models.ACLScope, updates []chat.ACLUpdate) activity.Result
	SetACLs(ctx context.Context, scope models.ACLScope, targetID string, updates []chat.ACLUpdate) error
	ACLs(ctx context.Context, scope models.ACLScope, targetID string) (models.ACLs, error)
	AllRooms(ctx context.Context) (map[string][]models.Room, error)
	RoomsForUserUnderACL(ctx context.Context, userID string) (map[string][]chat.RoomInfo, error)
	RoomsForUsers(ctx context.Context, userIDs []string) (map[string]map[string]string, error)
	UsersInRooms(ctx context.Context, roomIDs []string) (map[string]map[string]string, error)
	CountJoins(ctx context.Context, roomIDs []string) (map[string]int64, error)
	Roles(ctx context.Context, userIDs []string) (map[string]*models.UserRoles, error)
	SetGlobalModerator(ctx context.Context, userID string, grant bool) error
	SetStatus(ctx context.Context, userID, status string) error
	SendAsAdmin(ctx context.Context, fromID, fromName, targetType, targetID, body string) activity.Result
	Heartbeat(ctx context.Context, userID string)
	Authenticate(ctx context.Context, userID, token string, attrs map[string]string) error
	LastOnline(ctx context.Context, userID string) (time.Time, error)
	Logout(ctx context.Context, userID string) error
	FlushCache()
}

var _ Chat = (*chat.Service)(nil)

// Handler serves the REST endpoints.
type Handler struct {
	chat Chat
	now  func() time.Time
}

// NewHandler creates the REST handlers over c.
func NewHandler(c Chat) *Handler {
	return &Handler{chat: c, now: time.Now}
}

// adminID is the acting admin: the body field when given, otherwise the
// token subject, otherwise "0".
func adminID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if claims := ClaimsFromContext(r.Context()); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "0"
}

// Ban handles POST /ban.
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, ok := banScope(w, r, req.Type, req.Target)
	if !ok {
		return
	}
	duration, _ := models.ParseBanDuration(req.Duration)
	reason, _ := activity.B64Decode(req.Reason)

	b := chat.Ban{
		UserID:   req.UserID,
		Scope:    scope,
		Duration: duration,
		Reason:   reason,
		BannerID: adminID(r, req.AdminID),
	}
	if scope != models.ScopeGlobal {
		b.ScopeID = req.Target
	}
	if err := h.chat.BanFromAdmin(r.Context(), b); err != nil {
		writeError(w, r, "ban", err)
		return
	}
	writeOK(w, r, nil)
}

// banScope resolves the target_type of a ban or unban body. A target with
// no type is rejected rather than widened to a global ban.
func banScope(w http.ResponseWriter, r *http.Request, typ, target string) (models.ACLScope, bool) {
	scope := models.ACLScope(typ)
	switch {
	case scope == "" && target != "":
		writeFail(w, r, activity.MissingTargetObjectType, "target_type is required when target is set")
		return "", false
	case scope == "":
		scope = models.ScopeGlobal
	case scope != models.ScopeGlobal && target == "":
		writeFail(w, r, activity.MissingTargetID, "target is required for room and channel bans")
		return "", false
	}
	return scope, true
}

// Unban handles POST /unban.
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	var req unbanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, ok := banScope(w, r, req.Type, req.Target)
	if !ok {
		return
	}
	scopeID := ""
	if scope != models.ScopeGlobal {
		scopeID = req.Target
	}
	if err := h.chat.Unban(r.Context(), req.UserID, scope, scopeID); err != nil {
		writeError(w, r, "unban", err)
		return
	}
	writeOK(w, r, nil)
}

// Banned handles GET /banned.
func (h *Handler) Banned(w http.ResponseWriter, r *http.Request) {
	bans, err := h.chat.Bans(r.Context())
	if err != nil {
		writeError(w, r, "bans", err)
		return
	}
	out := map[string][]models.Ban{
		string(models.ScopeGlobal):  {},
		string(models.ScopeChannel): {},
		string(models.ScopeRoom):    {},
	}
	for _, b := range bans {
		out[string(b.Scope)] = append(out[string(b.Scope)], b)
	}
	writeOK(w, r, out)
}

// Kick handles POST /kick.
func (h *Handler) Kick(w http.ResponseWriter, r *http.Request) {
	var req kickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reason, _ := activity.B64Decode(req.Reason)
	k := chat.Kick{UserID: req.UserID, RoomID: req.RoomID, Reason: reason, KickerID: adminID(r, req.AdminID)}
	if err := h.chat.KickFromAdmin(r.Context(), k); err != nil {
		writeError(w, r, "kick", err)
		return
	}
	writeOK(w, r, nil)
}

// AddBlacklist handles POST /blacklist.
func (h *Handler) AddBlacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.chat.AddBlacklist(r.Context(), req.Words); err != nil {
		writeError(w, r, "add blacklist", err)
		return
	}
	writeOK(w, r, nil)
}

// RemoveBlacklist handles DELETE /blacklist?word=.
func (h *Handler) RemoveBlacklist(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	if word == "" {
		writeFail(w, r, activity.MissingObjectContent, "word is required")
		return
	}
	if err := h.chat.RemoveBlacklist(r.Context(), word); err != nil {
		writeError(w, r, "remove blacklist", err)
		return
	}
	writeOK(w, r, nil)
}

// Broadcast handles POST /broadcast.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if !decodeBody(w, r, &req) {
		return
	}
	body, err := activity.B64Decode(req.Body)
	if err != nil || body == "" {
		writeFail(w, r, activity.EmptyMessage, "broadcast body is empty")
		return
	}
	h.chat.Broadcast(r.Context(), adminID(r, req.SenderID), body)
	writeOK(w, r, nil)
}

// Create handles POST /create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}
	roomID, err := h.chat.CreateEphemeralRoom(r.Context(), req.ChannelID, req.RoomName, req.OwnerID, req.Members)
	if err != nil {
		writeError(w, r, "create room", err)
		return
	}
	writeOK(w, r, map[string]string{"room_id": roomID, "channel_id": req.ChannelID})
}

// DeleteMessages handles POST /delete-messages.
func (h *Handler) DeleteMessages(w http.ResponseWriter, r *http.Request) {
	var req deleteMessagesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.chat.DeleteMessages(r.Context(), req.UserID, req.RoomID)
	if err != nil {
		writeError(w, r, "delete messages", err)
		return
	}
	writeOK(w, r, map[string]int{"deleted": n})
}

// History handles GET /history?room_id=&from_time=&limit=.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeFail(w, r, activity.MissingTargetID, "room_id is required")
		return
	}
	since, ok := queryTime(r, "from_time")
	if !ok {
		writeFail(w, r, activity.ValidationError, "from_time must be RFC3339")
		return
	}
	limit, ok := queryLimit(r)
	if !ok {
		writeFail(w, r, activity.ValidationError, "limit must be between 0 and 10000")
		return
	}
	msgs, err := h.chat.History(r.Context(), roomID, since, limit)
	if err != nil {
		writeError(w, r, "history", err)
		return
	}
	writeOK(w, r, msgs)
}

// LatestHistory handles GET /latest-history?room_id=&limit=.
func (h *Handler) LatestHistory(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeFail(w, r, activity.MissingTargetID, "room_id is required")
		return
	}
	limit, ok := queryLimit(r)
	if !ok {
		writeFail(w, r, activity.ValidationError, "limit must be between 0 and 10000")
		return
	}
	msgs, err := h.chat.History(r.Context(), roomID, time.Time{}, limit)
	if err != nil {
		writeError(w, r, "latest history", err)
		return
	}
	writeOK(w, r, msgs)
}

// FullHistory handles POST /full-history.
func (h *Handler) FullHistory(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msgs, err := h.chat.UserHistory(r.Context(), req.UserID)
	if err != nil {
		writeError(w, r, "full history", err)
		return
	}
	writeOK(w, r, msgs)
}

// GetACL handles GET /acl?type=&target=.
func (h *Handler) GetACL(w http.ResponseWriter, r *http.Request) {
	scope := models.ACLScope(r.URL.Query().Get("type"))
	target := r.URL.Query().Get("target")
	switch {
	case scope == "":
		writeFail(w, r, activity.MissingTargetObjectType, "type is required")
		return
	case scope != models.ScopeRoom && scope != models.ScopeChannel:
		writeFail(w, r, activity.InvalidTargetType, "type must be room or channel")
		return
	case target == "":
		writeFail(w, r, activity.MissingTargetID, "target is required")
		return
	}
	acls, err := h.chat.ACLs(r.Context(), scope, target)
	if err != nil {
		writeError(w, r, "get acl", err)
		return
	}
	writeOK(w, r, acls)
}

// SetACL handles POST /acl.
func (h *Handler) SetACL(w http.ResponseWriter, r *http.Request) {
	var req aclRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope := models.ACLScope(req.Type)
	updates := make([]chat.ACLUpdate, 0, len(req.ACLs))
	for _, e := range req.ACLs {
		updates = append(updates, chat.ACLUpdate{Action: e.Action, Type: e.Type, Value: e.Value})
	}
	if res := h.chat.CheckACLs(scope, updates); !res.OK {
		writeResult(w, r, res)
		return
	}
	if err := h.chat.SetACLs(r.Context(), scope, req.Target, updates); err != nil {
		writeError(w, r, "set acl", err)
		return
	}
	writeOK(w, r, nil)
}

// Rooms handles GET /rooms.
func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.chat.AllRooms(r.Context())
	if err != nil {
		writeError(w, r, "rooms", err)
		return
	}
	writeOK(w, r, rooms)
}

// RoomsACL handles GET /rooms-acl?user_id=.
func (h *Handler) RoomsACL(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeFail(w, r, activity.MissingActorID, "user_id is required")
		return
	}
	rooms, err := h.chat.RoomsForUserUnderACL(r.Context(), userID)
	if err != nil {
		writeError(w, r, "rooms acl", err)
		return
	}
	writeOK(w, r, rooms)
}

// RoomsForUsers handles GET /rooms-for-users?users=1,2.
func (h *Handler) RoomsForUsers(w http.ResponseWriter, r *http.Request) {
	users := queryList(r, "users")
	if len(users) == 0 {
		writeFail(w, r, activity.MissingActorID, "users is required")
		return
	}
	out, err := h.chat.RoomsForUsers(r.Context(), users)
	if err != nil {
		writeError(w, r, "rooms for users", err)
		return
	}
	writeOK(w, r, out)
}

// UsersInRooms handles GET /users-in-rooms?rooms=a,b.
func (h *Handler) UsersInRooms(w http.ResponseWriter, r *http.Request) {
	rooms := queryList(r, "rooms")
	if len(rooms) == 0 {
		writeFail(w, r, activity.MissingTargetID, "rooms is required")
		return
	}
	out, err := h.chat.UsersInRooms(r.Context(), rooms)
	if err != nil {
		writeError(w, r, "users in rooms", err)
		return
	}
	writeOK(w, r, out)
}

// CountJoins handles GET /count-joins?rooms=a,b.
func (h *Handler) CountJoins(w http.ResponseWriter, r *http.Request) {
	rooms := queryList(r, "rooms")
	if len(rooms) == 0 {
		writeFail(w, r, activity.MissingTargetID, "rooms is required")
		return
	}
	out, err := h.chat.CountJoins(r.Context(), rooms)
	if err != nil {
		writeError(w, r, "count joins", err)
		return
	}
	writeOK(w, r, out)
}

// Roles handles GET /roles?users=1,2.
func (h *Handler) Roles(w http.ResponseWriter, r *http.Request) {
	users := queryList(r, "users")
	if len(users) == 0 {
		writeFail(w, r, activity.MissingActorID, "users is required")
		return
	}
	out, err := h.chat.Roles(r.Context(), users)
	if err != nil {
		writeError(w, r, "roles", err)
		return
	}
	writeOK(w, r, out)
}

// SetAdmin handles POST /set-admin.
func (h *Handler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	h.setModerator(w, r, true)
}

// RemoveAdmin handles POST /remove-admin.
func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	h.setModerator(w, r, false)
}

func (h *Handler) setModerator(w http.ResponseWriter, r *http.Request, grant bool) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.chat.SetGlobalModerator(r.Context(), req.UserID, grant); err != nil {
		writeError(w, r, "set moderator", err)
		return
	}
	writeOK(w, r, nil)
}

// Status handles POST /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.chat.SetStatus(r.Context(), req.UserID, req.Status); err != nil {
		writeError(w, r, "status", err)
		return
	}
	writeOK(w, r, nil)
}

// Send handles POST /send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	body, err := activity.B64Decode(req.Content)
	if err != nil || body == "" {
		writeFail(w, r, activity.EmptyMessage, "content is empty")
		return
	}
	writeResult(w, r, h.chat.SendAsAdmin(r.Context(), req.UserID, req.UserName, req.ObjectType, req.TargetID, body))
}

// Heartbeat handles POST /heartbeat.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.chat.Heartbeat(r.Context(), req.UserID)
	writeOK(w, r, nil)
}

// Authenticate handles POST /authenticate.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Attributes == nil {
		req.Attributes = map[string]string{}
	}
	if err := h.chat.Authenticate(r.Context(), req.UserID, req.Token, req.Attributes); err != nil {
		writeError(w, r, "authenticate", err)
		return
	}
	writeOK(w, r, nil)
}

// LastOnline handles GET /last-online?user_id=.
func (h *Handler) LastOnline(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeFail(w, r, activity.MissingActorID, "user_id is required")
		return
	}
	t, err := h.chat.LastOnline(r.Context(), userID)
	if err != nil {
		writeError(w, r, "last online", err)
		return
	}
	data := map[string]any{"user_id": userID, "last_online": nil}
	if !t.IsZero() {
		data["last_online"] = t.UTC().Format(activity.TimeFormat)
	}
	writeOK(w, r, data)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.chat.Logout(r.Context(), req.UserID); err != nil {
		writeError(w, r, "logout", err)
		return
	}
	writeOK(w, r, nil)
}

// CacheCleanup handles POST /cache-cleanup.
func (h *Handler) CacheCleanup(w http.ResponseWriter, r *http.Request) {
	h.chat.FlushCache()
	writeOK(w, r, nil)
}
