// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}

// fakeChat records calls and returns canned answers.
type fakeChat struct {
	mu sync.Mutex

	bans       []chat.Ban
	kicks      []chat.Kick
	blacklist  []string
	broadcasts []string
	statuses   map[string]string
	moderators map[string]bool
	acls       map[string][]chat.ACLUpdate
	loggedOut  []string
	beats      []string
	flushed    int

	messages map[string][]models.Message
	rooms    map[string]bool
	users    map[string]bool
	sessions map[string]string
	err      error
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		statuses:   map[string]string{},
		moderators: map[string]bool{},
		acls:       map[string][]chat.ACLUpdate{},
		messages:   map[string][]models.Message{},
		rooms:      map[string]bool{"r1": true},
		users:      map[string]bool{"1": true, "2": true},
		sessions:   map[string]string{},
	}
}

func (f *fakeChat) BanFromAdmin(_ context.Context, b chat.Ban) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.users[b.UserID] {
		return database.ErrNoSuchUser
	}
	if b.Scope == models.ScopeRoom && !f.rooms[b.ScopeID] {
		return database.ErrNoSuchRoom
	}
	if b.UserID == "2" {
		return chat.ErrProtectedUser
	}
	f.bans = append(f.bans, b)
	return nil
}

func (f *fakeChat) KickFromAdmin(_ context.Context, k chat.Kick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.rooms[k.RoomID] {
		return database.ErrNoSuchRoom
	}
	f.kicks = append(f.kicks, k)
	return nil
}

func (f *fakeChat) Unban(_ context.Context, userID string, scope models.ACLScope, scopeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.users[userID] {
		return database.ErrNoSuchUser
	}
	kept := f.bans[:0]
	for _, b := range f.bans {
		if b.UserID == userID && b.Scope == scope && b.ScopeID == scopeID {
			continue
		}
		kept = append(kept, b)
	}
	f.bans = kept
	return nil
}

func (f *fakeChat) Bans(context.Context) ([]models.Ban, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Ban, 0, len(f.bans))
	for _, b := range f.bans {
		out = append(out, models.Ban{UserID: b.UserID, Scope: b.Scope, ScopeID: b.ScopeID, Duration: b.Duration})
	}
	return out, nil
}

func (f *fakeChat) AddBlacklist(_ context.Context, words []string) error {
	f.mu.Lock()
	f.blacklist = append(f.blacklist, words...)
	f.mu.Unlock()
	return nil
}

func (f *fakeChat) RemoveBlacklist(_ context.Context, word string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range f.blacklist {
		if w == word {
			f.blacklist = append(f.blacklist[:i], f.blacklist[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeChat) Broadcast(_ context.Context, senderID, body string) {
	f.mu.Lock()
	f.broadcasts = append(f.broadcasts, senderID+":"+body)
	f.mu.Unlock()
}

func (f *fakeChat) CreateEphemeralRoom(_ context.Context, channelID, name, ownerID string, members []string) (string, error) {
	if channelID != "c1" {
		return "", database.ErrNoSuchChannel
	}
	return "room-" + name, nil
}

func (f *fakeChat) DeleteMessages(_ context.Context, userID, roomID string) (int, error) {
	return len(f.messages[roomID]), nil
}

func (f *fakeChat) History(_ context.Context, roomID string, since time.Time, limit int) ([]models.Message, error) {
	if !f.rooms[roomID] {
		return nil, database.ErrNoSuchRoom
	}
	var out []models.Message
	for _, m := range f.messages[roomID] {
		if !since.IsZero() && !m.Published.After(since) {
			continue
		}
		out = append(out, m)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChat) UserHistory(_ context.Context, userID string) ([]models.Message, error) {
	var out []models.Message
	for _, msgs := range f.messages {
		for _, m := range msgs {
			if m.FromUserID == userID {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (f *fakeChat) CheckACLs(_ models.ACLScope, updates []chat.ACLUpdate) activity.Result {
	for _, u := range updates {
		if u.Action != string(models.ActionJoin) {
			return activity.Fail(activity.InvalidACLAction, "unknown action")
		}
	}
	return activity.Success(nil)
}

func (f *fakeChat) SetACLs(_ context.Context, scope models.ACLScope, target string, updates []chat.ACLUpdate) error {
	f.mu.Lock()
	f.acls[string(scope)+"/"+target] = updates
	f.mu.Unlock()
	return nil
}

func (f *fakeChat) ACLs(_ context.Context, scope models.ACLScope, target string) (models.ACLs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := models.ACLs{}
	for _, u := range f.acls[string(scope)+"/"+target] {
		action := models.ACLAction(u.Action)
		if out[action] == nil {
			out[action] = map[string]string{}
		}
		out[action][u.Type] = u.Value
	}
	return out, nil
}

func (f *fakeChat) AllRooms(context.Context) (map[string][]models.Room, error) {
	return map[string][]models.Room{"c1": {{ID: "r1", ChannelID: "c1", Name: "lobby"}}}, nil
}

func (f *fakeChat) RoomsForUserUnderACL(_ context.Context, userID string) (map[string][]chat.RoomInfo, error) {
	return map[string][]chat.RoomInfo{"c1": {{ID: "r1", Name: "lobby", ChannelID: "c1"}}}, nil
}

func (f *fakeChat) RoomsForUsers(_ context.Context, users []string) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	for _, u := range users {
		out[u] = map[string]string{"r1": "lobby"}
	}
	return out, nil
}

func (f *fakeChat) UsersInRooms(_ context.Context, rooms []string) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	for _, r := range rooms {
		out[r] = map[string]string{"1": "alice"}
	}
	return out, nil
}

func (f *fakeChat) CountJoins(_ context.Context, rooms []string) (map[string]int64, error) {
	out := map[string]int64{}
	for i, r := range rooms {
		out[r] = int64(i + 1)
	}
	return out, nil
}

func (f *fakeChat) Roles(_ context.Context, users []string) (map[string]*models.UserRoles, error) {
	out := map[string]*models.UserRoles{}
	for _, u := range users {
		out[u] = models.NewUserRoles()
	}
	return out, nil
}

func (f *fakeChat) SetGlobalModerator(_ context.Context, userID string, grant bool) error {
	f.mu.Lock()
	f.moderators[userID] = grant
	f.mu.Unlock()
	return nil
}

func (f *fakeChat) SetStatus(_ context.Context, userID, status string) error {
	f.mu.Lock()
	f.statuses[userID] = status
	f.mu.Unlock()
	return nil
}

func (f *fakeChat) SendAsAdmin(_ context.Context, fromID, fromName, targetType, targetID, body string) activity.Result {
	if targetType == activity.TypeRoom && !f.rooms[targetID] {
		return activity.Fail(activity.NoSuchRoom, "no such room")
	}
	return activity.Success(map[string]string{"body": body})
}

func (f *fakeChat) Heartbeat(_ context.Context, userID string) {
	f.mu.Lock()
	f.beats = append(f.beats, userID)
	f.mu.Unlock()
}

func (f *fakeChat) Authenticate(_ context.Context, userID, token string, attrs map[string]string) error {
	f.mu.Lock()
	f.sessions[userID] = token
	f.mu.Unlock()
	return nil
}

func (f *fakeChat) LastOnline(_ context.Context, userID string) (time.Time, error) {
	if userID == "1" {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, nil
}

func (f *fakeChat) Logout(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.loggedOut = append(f.loggedOut, userID)
	f.mu.Unlock()
	return nil
}

func (f *fakeChat) FlushCache() {
	f.mu.Lock()
	f.flushed++
	f.mu.Unlock()
}

// =============================================================================
// helpers
// =============================================================================

type reply struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Msg        string          `json:"msg"`
}

func newTestRouter(c Chat) http.Handler {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true}, nil)
	return NewRouter(NewHandler(c), nil, mw).SetupChi()
}

func do(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var rep reply
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, rep
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, rep reply, want activity.Code, wantHTTP int) {
	t.Helper()
	if rep.StatusCode != int(want) {
		t.Errorf("status_code = %d (%s), want %d; msg %q", rep.StatusCode, activity.Code(rep.StatusCode), want, rep.Msg)
	}
	if rec.Code != wantHTTP {
		t.Errorf("HTTP %d, want %d", rec.Code, wantHTTP)
	}
}

// =============================================================================
// tests
// =============================================================================

func TestBan(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	tests := []struct {
		name     string
		body     map[string]string
		want     activity.Code
		wantHTTP int
	}{
		{"room ban", map[string]string{"user_id": "1", "target_type": "room", "target": "r1", "duration": "10m", "reason": activity.B64Encode("spam")}, activity.OK, 200},
		{"global ban", map[string]string{"user_id": "1", "duration": "1d"}, activity.OK, 200},
		{"missing target", map[string]string{"user_id": "1", "target_type": "room", "duration": "10m"}, activity.MissingTargetID, 400},
		{"target without type", map[string]string{"user_id": "1", "target": "r1", "duration": "1h"}, activity.MissingTargetObjectType, 400},
		{"legacy type key ignored", map[string]string{"user_id": "1", "type": "room", "target": "r1", "duration": "1h"}, activity.MissingTargetObjectType, 400},
		{"bad duration", map[string]string{"user_id": "1", "duration": "soon"}, activity.InvalidBanDuration, 400},
		{"bad type", map[string]string{"user_id": "1", "target_type": "planet", "target": "x", "duration": "1m"}, activity.InvalidTargetType, 400},
		{"missing user", map[string]string{"duration": "1m"}, activity.MissingObjectID, 400},
		{"unknown user", map[string]string{"user_id": "99", "duration": "1m"}, activity.NoSuchUser, 404},
		{"unknown room", map[string]string{"user_id": "1", "target_type": "room", "target": "nope", "duration": "1m"}, activity.NoSuchRoom, 404},
		{"protected user", map[string]string{"user_id": "2", "duration": "1m"}, activity.NotAllowed, 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, rep := do(t, h, http.MethodPost, "/ban", tt.body)
			expectCode(t, rec, rep, tt.want, tt.wantHTTP)
		})
	}

	if len(c.bans) != 2 {
		t.Fatalf("bans = %d, want 2", len(c.bans))
	}
	first := c.bans[0]
	if first.Scope != models.ScopeRoom || first.ScopeID != "r1" || first.Duration != 10*time.Minute || first.Reason != "spam" || first.BannerID != "0" {
		t.Errorf("room ban = %+v", first)
	}
	if c.bans[1].Scope != models.ScopeGlobal || c.bans[1].ScopeID != "" {
		t.Errorf("global ban = %+v", c.bans[1])
	}

	rec, rep := do(t, h, http.MethodGet, "/banned", nil)
	expectCode(t, rec, rep, activity.OK, 200)
	var banned map[string][]models.Ban
	if err := json.Unmarshal(rep.Data, &banned); err != nil {
		t.Fatalf("decode banned: %v", err)
	}
	if len(banned["room"]) != 1 || len(banned["global"]) != 1 || len(banned["channel"]) != 0 {
		t.Errorf("banned = %v", banned)
	}
}

func TestBan_RoomScopeFromTargetType(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	rec, rep := do(t, h, http.MethodPost, "/ban", map[string]string{"user_id": "1", "target_type": "room", "target": "r1", "duration": "1h"})
	expectCode(t, rec, rep, activity.OK, 200)
	if len(c.bans) != 1 {
		t.Fatalf("bans = %d, want 1", len(c.bans))
	}
	if b := c.bans[0]; b.Scope != models.ScopeRoom || b.ScopeID != "r1" || b.Duration != time.Hour {
		t.Errorf("ban = %+v, want room r1 for 1h", b)
	}
}

func TestUnban(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	rec, rep := do(t, h, http.MethodPost, "/ban", map[string]string{"user_id": "1", "target_type": "room", "target": "r1", "duration": "1h"})
	expectCode(t, rec, rep, activity.OK, 200)
	rec, rep = do(t, h, http.MethodPost, "/ban", map[string]string{"user_id": "1", "duration": "1h"})
	expectCode(t, rec, rep, activity.OK, 200)

	rec, rep = do(t, h, http.MethodPost, "/unban", map[string]string{"user_id": "1", "target_type": "room", "target": "r1"})
	expectCode(t, rec, rep, activity.OK, 200)
	if len(c.bans) != 1 || c.bans[0].Scope != models.ScopeGlobal {
		t.Fatalf("bans after room unban = %+v", c.bans)
	}

	rec, rep = do(t, h, http.MethodPost, "/unban", map[string]string{"user_id": "1"})
	expectCode(t, rec, rep, activity.OK, 200)
	if len(c.bans) != 0 {
		t.Errorf("bans after global unban = %+v", c.bans)
	}

	rec, rep = do(t, h, http.MethodPost, "/unban", map[string]string{"user_id": "1", "target": "r1"})
	expectCode(t, rec, rep, activity.MissingTargetObjectType, 400)
	rec, rep = do(t, h, http.MethodPost, "/unban", map[string]string{"user_id": "99"})
	expectCode(t, rec, rep, activity.NoSuchUser, 404)
}

func TestKick(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	rec, rep := do(t, h, http.MethodPost, "/kick", map[string]string{"user_id": "1", "room_id": "r1", "admin_id": "7"})
	expectCode(t, rec, rep, activity.OK, 200)
	if len(c.kicks) != 1 || c.kicks[0].KickerID != "7" {
		t.Errorf("kicks = %+v", c.kicks)
	}

	rec, rep = do(t, h, http.MethodPost, "/kick", map[string]string{"user_id": "1"})
	expectCode(t, rec, rep, activity.MissingTargetID, 400)

	rec, rep = do(t, h, http.MethodPost, "/kick", map[string]string{"user_id": "1", "room_id": "r9"})
	expectCode(t, rec, rep, activity.NoSuchRoom, 404)
}

func TestBlacklist(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	rec, rep := do(t, h, http.MethodPost, "/blacklist", map[string][]string{"words": {"foo", "bar"}})
	expectCode(t, rec, rep, activity.OK, 200)
	rec, rep = do(t, h, http.MethodDelete, "/blacklist?word=foo", nil)
	expectCode(t, rec, rep, activity.OK, 200)
	if len(c.blacklist) != 1 || c.blacklist[0] != "bar" {
		t.Errorf("blacklist = %v", c.blacklist)
	}

	rec, rep = do(t, h, http.MethodPost, "/blacklist", map[string][]string{"words": {}})
	expectCode(t, rec, rep, activity.MissingObjectContent, 400)
	rec, rep = do(t, h, http.MethodDelete, "/blacklist", nil)
	expectCode(t, rec, rep, activity.MissingObjectContent, 400)
}

func TestBroadcastAndSend(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	rec, rep := do(t, h, http.MethodPost, "/broadcast", map[string]string{"body": activity.B64Encode("maintenance at noon")})
	expectCode(t, rec, rep, activity.OK, 200)
	if len(c.broadcasts) != 1 || c.broadcasts[0] != "0:maintenance at noon" {
		t.Errorf("broadcasts = %v", c.broadcasts)
	}
	rec, rep = do(t, h, http.MethodPost, "/broadcast", map[string]string{"body": "not base64!"})
	expectCode(t, rec, rep, activity.NotBase64, 403)

	send := map[string]string{"user_id": "1", "user_name": "admin", "object_type": "room", "target_id": "r1", "content": activity.B64Encode("hi")}
	rec, rep = do(t, h, http.MethodPost, "/send", send)
	expectCode(t, rec, rep, activity.OK, 200)

	send["target_id"] = "r9"
	rec, rep = do(t, h, http.MethodPost, "/send", send)
	expectCode(t, rec, rep, activity.NoSuchRoom, 404)

	send["object_type"] = "channel"
	rec, rep = do(t, h, http.MethodPost, "/send", send)
	expectCode(t, rec, rep, activity.InvalidTargetType, 400)
}

func TestCreate(t *testing.T) {
	h := newTestRouter(newFakeChat())

	rec, rep := do(t, h, http.MethodPost, "/create", map[string]any{"channel_id": "c1", "room_name": "party", "owner_id": "1", "members": []string{"2"}})
	expectCode(t, rec, rep, activity.OK, 200)
	var data map[string]string
	_ = json.Unmarshal(rep.Data, &data)
	if data["room_id"] != "room-party" {
		t.Errorf("data = %v", data)
	}

	rec, rep = do(t, h, http.MethodPost, "/create", map[string]any{"channel_id": "c2", "room_name": "party", "owner_id": "1"})
	expectCode(t, rec, rep, activity.NoSuchChannel, 404)

	rec, rep = do(t, h, http.MethodPost, "/create", map[string]any{"channel_id": "c1", "owner_id": "1"})
	expectCode(t, rec, rep, activity.MissingTargetDisplayName, 400)
}

func TestHistory(t *testing.T) {
	c := newFakeChat()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, body := range []string{"one", "two", "three"} {
		c.messages["r1"] = append(c.messages["r1"], models.Message{
			ID: body, FromUserID: "1", TargetID: "r1", Body: body, Published: base.Add(time.Duration(i) * time.Minute),
		})
	}
	h := newTestRouter(c)

	decode := func(rep reply) []models.Message {
		var msgs []models.Message
		if err := json.Unmarshal(rep.Data, &msgs); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msgs
	}

	rec, rep := do(t, h, http.MethodGet, "/latest-history?room_id=r1&limit=2", nil)
	expectCode(t, rec, rep, activity.OK, 200)
	if msgs := decode(rep); len(msgs) != 2 || msgs[1].Body != "three" {
		t.Errorf("latest = %+v", msgs)
	}

	rec, rep = do(t, h, http.MethodGet, "/history?room_id=r1&from_time="+base.Format(time.RFC3339), nil)
	expectCode(t, rec, rep, activity.OK, 200)
	if msgs := decode(rep); len(msgs) != 2 || msgs[0].Body != "two" {
		t.Errorf("since = %+v", msgs)
	}

	rec, rep = do(t, h, http.MethodGet, "/history?from_time=x", nil)
	expectCode(t, rec, rep, activity.MissingTargetID, 400)
	rec, rep = do(t, h, http.MethodGet, "/history?room_id=r1&from_time=yesterday", nil)
	expectCode(t, rec, rep, activity.ValidationError, 403)
	rec, rep = do(t, h, http.MethodGet, "/latest-history?room_id=r1&limit=-1", nil)
	expectCode(t, rec, rep, activity.ValidationError, 403)
	rec, rep = do(t, h, http.MethodGet, "/latest-history?room_id=zz", nil)
	expectCode(t, rec, rep, activity.NoSuchRoom, 404)

	rec, rep = do(t, h, http.MethodPost, "/full-history", map[string]string{"user_id": "1"})
	expectCode(t, rec, rep, activity.OK, 200)
	if msgs := decode(rep); len(msgs) != 3 {
		t.Errorf("full history = %d messages", len(msgs))
	}
}

func TestACL(t *testing.T) {
	h := newTestRouter(newFakeChat())

	body := map[string]any{"type": "room", "target": "r1", "acls": []aclEntry{{Action: "join", Type: "gender", Value: "f"}}}
	rec, rep := do(t, h, http.MethodPost, "/acl", body)
	expectCode(t, rec, rep, activity.OK, 200)

	rec, rep = do(t, h, http.MethodGet, "/acl?type=room&target=r1", nil)
	expectCode(t, rec, rep, activity.OK, 200)
	var acls models.ACLs
	if err := json.Unmarshal(rep.Data, &acls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if acls[models.ActionJoin]["gender"] != "f" {
		t.Errorf("acls = %v", acls)
	}

	body["acls"] = []aclEntry{{Action: "fly", Type: "gender", Value: "f"}}
	rec, rep = do(t, h, http.MethodPost, "/acl", body)
	expectCode(t, rec, rep, activity.InvalidACLAction, 400)

	body["type"] = "global"
	rec, rep = do(t, h, http.MethodPost, "/acl", body)
	expectCode(t, rec, rep, activity.MissingTargetObjectType, 400)

	rec, rep = do(t, h, http.MethodGet, "/acl?target=r1", nil)
	expectCode(t, rec, rep, activity.MissingTargetObjectType, 400)
	rec, rep = do(t, h, http.MethodGet, "/acl?type=user&target=r1", nil)
	expectCode(t, rec, rep, activity.InvalidTargetType, 400)
}

func TestLookups(t *testing.T) {
	h := newTestRouter(newFakeChat())

	tests := []struct {
		target string
		want   activity.Code
	}{
		{"/rooms", activity.OK},
		{"/rooms-acl?user_id=1", activity.OK},
		{"/rooms-acl", activity.MissingActorID},
		{"/rooms-for-users?users=1,2", activity.OK},
		{"/rooms-for-users?users=", activity.MissingActorID},
		{"/users-in-rooms?rooms=r1", activity.OK},
		{"/users-in-rooms", activity.MissingTargetID},
		{"/count-joins?rooms=r1&rooms=r2", activity.OK},
		{"/roles?users=1", activity.OK},
		{"/last-online?user_id=1", activity.OK},
		{"/last-online", activity.MissingActorID},
	}
	for _, tt := range tests {
		_, rep := do(t, h, http.MethodGet, tt.target, nil)
		if rep.StatusCode != int(tt.want) {
			t.Errorf("GET %s: status_code = %d, want %d", tt.target, rep.StatusCode, tt.want)
		}
	}

	_, rep := do(t, h, http.MethodGet, "/count-joins?rooms=r1&rooms=r2", nil)
	var joins map[string]int64
	_ = json.Unmarshal(rep.Data, &joins)
	if joins["r1"] != 1 || joins["r2"] != 2 {
		t.Errorf("joins = %v", joins)
	}

	_, rep = do(t, h, http.MethodGet, "/last-online?user_id=1", nil)
	var last map[string]string
	_ = json.Unmarshal(rep.Data, &last)
	if last["last_online"] != "2026-03-01T12:00:00Z" {
		t.Errorf("last online = %v", last)
	}
}

func TestUserOperations(t *testing.T) {
	c := newFakeChat()
	h := newTestRouter(c)

	steps := []struct {
		path string
		body any
		want activity.Code
	}{
		{"/set-admin", map[string]string{"user_id": "1"}, activity.OK},
		{"/remove-admin", map[string]string{"user_id": "2"}, activity.OK},
		{"/status", map[string]string{"user_id": "1", "status": "invisible"}, activity.OK},
		{"/status", map[string]string{"user_id": "1", "status": "sleepy"}, activity.InvalidStatus},
		{"/heartbeat", map[string]string{"user_id": "1"}, activity.OK},
		{"/heartbeat", map[string]string{"user_id": "abc"}, activity.MissingActorID},
		{"/authenticate", map[string]any{"user_id": "1", "token": "t", "attributes": map[string]string{"gender": "f"}}, activity.OK},
		{"/authenticate", map[string]any{"user_id": "1"}, activity.InvalidToken},
		{"/logout", map[string]string{"user_id": "1"}, activity.OK},
		{"/cache-cleanup", nil, activity.OK},
	}
	for _, s := range steps {
		_, rep := do(t, h, http.MethodPost, s.path, s.body)
		if rep.StatusCode != int(s.want) {
			t.Errorf("POST %s %v: status_code = %d, want %d (%s)", s.path, s.body, rep.StatusCode, s.want, rep.Msg)
		}
	}

	if !c.moderators["1"] || c.moderators["2"] {
		t.Errorf("moderators = %v", c.moderators)
	}
	if c.statuses["1"] != "invisible" {
		t.Errorf("statuses = %v", c.statuses)
	}
	if len(c.beats) != 1 || c.sessions["1"] != "t" || len(c.loggedOut) != 1 || c.flushed != 1 {
		t.Errorf("beats %v sessions %v logout %v flushed %d", c.beats, c.sessions, c.loggedOut, c.flushed)
	}
}

func TestInfrastructureErrorIsUnknown(t *testing.T) {
	c := newFakeChat()
	c.err = io.ErrUnexpectedEOF
	h := newTestRouter(c)

	rec, rep := do(t, h, http.MethodPost, "/logout", map[string]string{"user_id": "1"})
	expectCode(t, rec, rep, activity.UnknownError, 500)
	if strings.Contains(rep.Msg, "EOF") {
		t.Errorf("internal error leaked: %q", rep.Msg)
	}
}

func TestBadBodies(t *testing.T) {
	h := newTestRouter(newFakeChat())

	req := httptest.NewRequest(http.MethodPost, "/kick", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), `"status_code":706`) {
		t.Errorf("HTTP %d body %s", rec.Code, rec.Body.String())
	}

	big := `{"words":["` + strings.Repeat("a", maxBodyBytes) + `"]}`
	req = httptest.NewRequest(http.MethodPost, "/blacklist", strings.NewReader(big))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Errorf("oversized body accepted: HTTP %d", rec.Code)
	}
}

func jsonUnmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
