// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/models"
)

func TestMessage_RoomFanOut(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	n.mustJoin(p1, "1", "R1")
	n.mustJoin(p2, "2", "R1")

	res := n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "hello"))
	wantCode(t, res, activity.OK)
	id := res.Data.(messageReply).MessageID

	got := p2.events(activity.EventMessage)
	if len(got) != 1 {
		t.Fatalf("bob got %d messages", len(got))
	}
	a := got[0].data.(*activity.Activity)
	if a.ID != id || a.Actor.ID != "1" || a.Actor.DisplayName != activity.B64Encode("alice") {
		t.Errorf("delivered %+v", a)
	}
	if p1.got(activity.EventMessage) {
		t.Error("sender received its own message")
	}

	history, _ := n.cl.repo.GetHistory(context.Background(), "R1", 10)
	if len(history) != 1 || history[0].Body != "hello" || history[0].ID != id {
		t.Errorf("history = %+v", history)
	}
	if ext := n.pub.externalVerb(activity.VerbMessage); len(ext) != 1 {
		t.Errorf("external messages = %d", len(ext))
	}
}

func TestMessage_Validation(t *testing.T) {
	n := newTestNode(t, withConfig(func(c *config.Config) {
		c.Validation.Plugins["message"] = []config.PluginConfig{{Name: config.PluginLimitMsgLength, MaxLength: 10}}
	}))
	n.seedRoom("C1", "R1", "lobby")
	p := n.login("1", "alice", nil)
	n.mustJoin(p, "1", "R1")

	wantCode(t, n.send(p, activity.VerbMessage, messageFrame("1", "R1", "   ")), activity.EmptyMessage)
	wantCode(t, n.send(p, activity.VerbMessage, messageFrame("1", "R1", strings.Repeat("x", 11))), activity.MsgTooLong)

	bad := messageFrame("1", "R1", "")
	bad.Object.Content = "not base64!"
	wantCode(t, n.send(p, activity.VerbMessage, bad), activity.NotBase64)

	noTarget := messageFrame("1", "", "hi")
	wantCode(t, n.send(p, activity.VerbMessage, noTarget), activity.MissingTargetID)
}

func TestMessage_CrossRoom(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "one")
	n.seedRoom("C1", "R2", "two")
	n.seedRoom("C2", "R3", "elsewhere")
	sender := n.login("1", "alice", nil)
	reader := n.login("2", "bob", nil)
	n.mustJoin(sender, "1", "R1")
	n.mustJoin(reader, "2", "R2")

	cross := func(to string) activity.Result {
		a := messageFrame("1", to, "over here")
		a.Actor.URL = "R1"
		return n.send(sender, activity.VerbMessage, a)
	}

	// No crossroom acl on the channel.
	wantCode(t, cross("R2"), activity.UserNotInRoom)

	ctx := context.Background()
	for _, ch := range []string{"C1", "C2"} {
		if err := n.svc.SetACLs(ctx, models.ScopeChannel, ch, []ACLUpdate{{Action: "crossroom", Type: "samechannel", Value: "true"}}); err != nil {
			t.Fatalf("SetACLs: %v", err)
		}
	}
	wantCode(t, cross("R2"), activity.OK)
	if !reader.got(activity.EventMessage) {
		t.Error("target room did not receive the cross-room message")
	}

	wantCode(t, cross("R3"), activity.NotAllowed)

	// Without actor.url the sender must be a member.
	wantCode(t, n.send(sender, activity.VerbMessage, messageFrame("1", "R2", "hi")), activity.UserNotInRoom)
}

func TestMessage_CrossRoomDisallowed(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "one")
	n.seedRoom("C1", "R2", "two")
	p := n.login("1", "alice", nil)
	n.mustJoin(p, "1", "R1")
	_ = n.svc.SetACLs(context.Background(), models.ScopeChannel, "C1", []ACLUpdate{{Action: "crossroom", Type: "disallow", Value: "true"}})

	a := messageFrame("1", "R2", "hi")
	a.Actor.URL = "R1"
	wantCode(t, n.send(p, activity.VerbMessage, a), activity.NotAllowed)
}

func TestMessage_WhisperNotAContact(t *testing.T) {
	var asked []string
	policy := whisperFunc(func(sender, target string) (WhisperDecision, error) {
		asked = append(asked, sender+"->"+target)
		return WhisperNotAContact, nil
	})
	n := newTestNode(t, withWhisper(policy))
	n.seedRoom("C1", "R1", "lobby")
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	n.mustJoin(p1, "1", "R1")
	n.mustJoin(p2, "2", "R1")
	p2.reset()

	res := n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "-bob psst"))
	wantCode(t, res, activity.NotAllowedToWhisperNotAContact)

	if len(asked) != 1 || asked[0] != "1->2" {
		t.Errorf("policy calls = %v", asked)
	}
	if p2.got(activity.EventMessage) || p2.got(activity.EventWhisper) {
		t.Error("denied whisper was delivered")
	}
	if h, _ := n.cl.repo.GetHistory(context.Background(), "R1", 10); len(h) != 0 {
		t.Errorf("denied whisper was stored: %+v", h)
	}

	// Denials are not cached.
	n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "-bob again"))
	if len(asked) != 2 {
		t.Errorf("policy calls = %d, want 2", len(asked))
	}
}

func TestMessage_WhisperDecisions(t *testing.T) {
	tests := []struct {
		name     string
		decision WhisperDecision
		err      error
		want     activity.Code
	}{
		{"disabled", WhisperDisabled, nil, activity.NotAllowedToWhisperDisabled},
		{"remote error", WhisperAllowed, errors.New("down"), activity.RemoteError},
		{"allowed", WhisperAllowed, nil, activity.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNode(t, withWhisper(whisperFunc(func(string, string) (WhisperDecision, error) {
				return tt.decision, tt.err
			})))
			n.seedRoom("C1", "R1", "lobby")
			p1 := n.login("1", "alice", nil)
			p2 := n.login("2", "bob", nil)
			p3 := n.login("3", "carol", nil)
			n.mustJoin(p1, "1", "R1")
			n.mustJoin(p2, "2", "R1")
			n.mustJoin(p3, "3", "R1")

			wantCode(t, n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "-bob psst")), tt.want)
			if tt.want != activity.OK {
				return
			}
			if !p2.got(activity.EventWhisper) {
				t.Error("target did not get the whisper")
			}
			if p3.got(activity.EventWhisper) || p3.got(activity.EventMessage) {
				t.Error("bystander saw the whisper")
			}
			if !n.cache.IsWhisperAllowed("1", "2") {
				t.Error("allowed decision was not cached")
			}
		})
	}
}

func TestMessage_WhisperTargetOffline(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p1 := n.login("1", "alice", nil)
	n.mustJoin(p1, "1", "R1")
	_ = n.cl.repo.CreateUser(context.Background(), "2", "bob")

	wantCode(t, n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "-bob psst")), activity.NotAllowedToWhisperNotOnline)
	wantCode(t, n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "-nobody psst")), activity.NoSuchUser)
}

func TestMessage_WhisperChannelACL(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	_ = n.svc.SetACLs(context.Background(), models.ScopeChannel, "C1", []ACLUpdate{{Action: "whisper", Type: "disallow", Value: "true"}})
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	n.mustJoin(p1, "1", "R1")
	n.mustJoin(p2, "2", "R1")

	wantCode(t, n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "-bob psst")), activity.NotAllowedToWhisperChannel)
}

func TestMessage_Blacklist(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	ctx := context.Background()
	if err := n.svc.AddBlacklist(ctx, []string{"badword"}); err != nil {
		t.Fatalf("AddBlacklist: %v", err)
	}
	_ = n.cl.repo.AddRole(ctx, "3", models.ScopeRoom, "R1", models.RoleModerator)
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	mod := n.login("3", "mod", nil)
	for uid, p := range map[string]*fakePeer{"1": p1, "2": p2, "3": mod} {
		n.mustJoin(p, uid, "R1")
	}

	wantCode(t, n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "this is a badword")), activity.OK)

	if !p1.got(activity.EventMessage) {
		t.Error("sender did not get its filtered message")
	}
	if !mod.got(activity.EventMessage) {
		t.Error("moderator did not get the filtered message")
	}
	if p2.got(activity.EventMessage) {
		t.Error("regular member got a blacklisted message")
	}
	if h, _ := n.cl.repo.GetHistory(ctx, "R1", 10); len(h) != 0 {
		t.Errorf("blacklisted message stored: %+v", h)
	}
	ext := n.pub.externalVerb(activity.VerbBlacklistedWord)
	if len(ext) != 1 || ext[0].Object.Summary != activity.B64Encode("badword") {
		t.Errorf("external blacklist events = %+v", ext)
	}
}

func TestMessage_Private(t *testing.T) {
	n := newTestNode(t, withConfig(func(c *config.Config) { c.DeliveryGuarantee = true }))
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)

	a := &activity.Activity{
		Actor:  activity.Entity{ID: "1"},
		Object: &activity.Entity{Content: activity.B64Encode("hi bob")},
		Target: &activity.Entity{ID: "2", ObjectType: activity.TypePrivate},
	}
	res := n.send(p1, activity.VerbMessage, a)
	wantCode(t, res, activity.OK)
	if !p2.got(activity.EventMessage) {
		t.Error("recipient did not get the message")
	}

	id := res.Data.(messageReply).MessageID
	ctx := context.Background()
	states, _ := n.cl.repo.GetAckStates(ctx, "2", []string{id})
	if states[id] != models.AckNotAcked {
		t.Errorf("recipient ack state = %v", states[id])
	}

	res = n.send(p2, activity.VerbRead, &activity.Activity{
		Actor:  activity.Entity{ID: "2"},
		Object: &activity.Entity{Attachments: []activity.Attachment{{ID: id}}},
	})
	wantCode(t, res, activity.OK)
	if !p1.got(activity.EventMessageRead) {
		t.Error("sender was not told about the read")
	}
	states, _ = n.cl.repo.GetAckStates(ctx, "2", []string{id})
	if states[id] != models.AckRead {
		t.Errorf("after read ack state = %v", states[id])
	}
}

func TestSendAsAdmin(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p := n.login("2", "bob", nil)
	n.mustJoin(p, "2", "R1")

	res := n.svc.SendAsAdmin(context.Background(), "0", "admin", activity.TypeRoom, "R1", "-bob maintenance at noon")
	wantCode(t, res, activity.OK)
	if !p.got(activity.EventMessage) {
		t.Error("room did not get the admin message")
	}
	if p.got(activity.EventWhisper) {
		t.Error("admin message was treated as a whisper")
	}
}
