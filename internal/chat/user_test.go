// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"testing"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/models"
)

func statusFrame(userID, status string) *activity.Activity {
	return &activity.Activity{Actor: activity.Entity{ID: userID}, Object: &activity.Entity{Summary: status}}
}

func TestStatus(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	n.mustJoin(p1, "1", "R1")
	n.mustJoin(p2, "2", "R1")
	ctx := context.Background()

	wantCode(t, n.send(p1, activity.VerbStatus, statusFrame("1", "dancing")), activity.InvalidStatus)
	wantCode(t, n.send(p1, activity.VerbStatus, statusFrame("1", "")), activity.MissingObjectSummary)

	wantCode(t, n.send(p1, activity.VerbStatus, statusFrame("1", "invisible")), activity.OK)
	if !n.tracker.IsInvisible(ctx, "1") {
		t.Error("user is not invisible")
	}
	if p2.got(activity.EventUserStatusChanged) {
		t.Error("going invisible was announced")
	}
	if !n.tracker.MulticastEligible(ctx, "1") {
		t.Error("invisible users stay eligible for targeted events")
	}

	wantCode(t, n.send(p1, activity.VerbStatus, statusFrame("1", "visible")), activity.OK)
	if !n.tracker.IsOnline(ctx, "1") || !p2.got(activity.EventUserStatusChanged) {
		t.Error("visible must set online and tell the room")
	}

	wantCode(t, n.send(p1, activity.VerbStatus, statusFrame("1", "offline")), activity.OK)
	if n.tracker.IsOnline(ctx, "1") {
		t.Error("user still online")
	}
}

func TestUpdateUserInfo(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	n.mustJoin(p1, "1", "R1")
	n.mustJoin(p2, "2", "R1")

	update := func(key, value string) activity.Result {
		return n.send(p1, activity.VerbUpdateUserInfo, &activity.Activity{
			Actor:  activity.Entity{ID: "1"},
			Object: &activity.Entity{Attachments: []activity.Attachment{{ObjectType: key, Content: value}}},
		})
	}
	wantCode(t, update(models.SessionGender, activity.B64Encode("m")), activity.InvalidObjectType)
	wantCode(t, update(models.SessionAvatar, "%%%"), activity.NotBase64)
	wantCode(t, update(models.SessionAvatar, activity.B64Encode("https://img/1.png")), activity.OK)

	if !p2.got(activity.EventUserInfoUpdated) {
		t.Error("room was not told")
	}
	attrs, err := n.cl.sessions.Get(context.Background(), "1")
	if err != nil || attrs[models.SessionAvatar] != "https://img/1.png" {
		t.Errorf("stored attrs = %v, %v", attrs, err)
	}
	c, _ := n.svc.conn(p1.ID())
	if c.Session().Get(models.SessionAvatar) != "https://img/1.png" {
		t.Error("live session not updated")
	}
}

func TestRequestAdmin(t *testing.T) {
	n := newTestNode(t)
	p := n.login("1", "alice", nil)
	frame := &activity.Activity{Actor: activity.Entity{ID: "1"}, Object: &activity.Entity{Content: activity.B64Encode("help")}}

	wantCode(t, n.send(p, activity.VerbRequestAdmin, frame), activity.NoAdminRoomFound)

	ctx := context.Background()
	_ = n.cl.repo.CreateChannel(ctx, models.Channel{ID: "A", Name: "admins"}, "")
	_ = n.cl.repo.CreateRoom(ctx, models.Room{ID: "ADMIN", ChannelID: "A", Name: "admins", Admin: true}, "")
	n.svc.FlushCache()
	wantCode(t, n.send(p, activity.VerbRequestAdmin, frame), activity.NoAdminOnline)

	_ = n.cl.repo.AddRole(ctx, "9", models.ScopeGlobal, "", models.RoleSuperUser)
	admin := n.login("9", "root", nil)
	n.mustJoin(admin, "9", "ADMIN")
	wantCode(t, n.send(p, activity.VerbRequestAdmin, frame), activity.OK)
	if !admin.got(activity.EventRequestAdmin) {
		t.Error("admin room was not told")
	}
}

func TestReport(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	n.mustJoin(p1, "1", "R1")
	n.mustJoin(p2, "2", "R1")
	res := n.send(p1, activity.VerbMessage, messageFrame("1", "R1", "rude"))
	id := res.Data.(messageReply).MessageID

	report := func(msgID string) activity.Result {
		return n.send(p2, activity.VerbReport, &activity.Activity{
			Actor:  activity.Entity{ID: "2"},
			Object: &activity.Entity{ID: msgID, Content: activity.B64Encode("offensive")},
		})
	}
	wantCode(t, report("missing"), activity.NoSuchMessage)
	wantCode(t, report(id), activity.OK)

	ext := n.pub.externalVerb(activity.VerbReport)
	if len(ext) != 1 || ext[0].TargetID() != "1" || ext[0].Object.Summary != activity.B64Encode("rude") {
		t.Errorf("external report = %+v", ext)
	}
}

func TestHistory(t *testing.T) {
	n := newTestNode(t, withConfig(func(c *config.Config) { c.History.Limit = 2 }))
	n.seedRoom("C1", "R1", "lobby")
	p := n.login("1", "alice", nil)
	n.mustJoin(p, "1", "R1")
	for _, body := range []string{"one", "two", "three"} {
		wantCode(t, n.send(p, activity.VerbMessage, messageFrame("1", "R1", body)), activity.OK)
	}

	res := n.send(p, activity.VerbHistory, &activity.Activity{
		Actor:  activity.Entity{ID: "1"},
		Target: &activity.Entity{ID: "R1", ObjectType: activity.TypeRoom},
	})
	wantCode(t, res, activity.OK)
	msgs := res.Data.([]models.Message)
	if len(msgs) != 2 || msgs[0].Body != "two" || msgs[1].Body != "three" {
		t.Errorf("history = %+v", msgs)
	}
}

func TestMsgStatus(t *testing.T) {
	n := newTestNode(t, withConfig(func(c *config.Config) { c.DeliveryGuarantee = true }))
	p1 := n.login("1", "alice", nil)
	p2 := n.login("2", "bob", nil)
	res := n.send(p1, activity.VerbMessage, &activity.Activity{
		Actor:  activity.Entity{ID: "1"},
		Object: &activity.Entity{Content: activity.B64Encode("hi")},
		Target: &activity.Entity{ID: "2", ObjectType: activity.TypePrivate},
	})
	id := res.Data.(messageReply).MessageID

	wantCode(t, n.send(p2, activity.VerbReceived, &activity.Activity{
		Actor:  activity.Entity{ID: "2"},
		Object: &activity.Entity{Attachments: []activity.Attachment{{ID: id}}},
	}), activity.OK)
	if !p1.got(activity.EventMessageReceived) {
		t.Error("sender was not told")
	}

	res = n.send(p1, activity.VerbMsgStatus, &activity.Activity{
		Actor:  activity.Entity{ID: "1"},
		Object: &activity.Entity{Attachments: []activity.Attachment{{ID: id}}},
		Target: &activity.Entity{ID: "2"},
	})
	wantCode(t, res, activity.OK)
	if got := res.Data.(map[string]string)[id]; got != models.AckReceived.String() {
		t.Errorf("status = %q", got)
	}

	wantCode(t, n.send(p1, activity.VerbMsgStatus, &activity.Activity{Actor: activity.Entity{ID: "1"}, Object: &activity.Entity{}}), activity.MissingObjectAttachments)
}

func TestSetAndGetACL(t *testing.T) {
	n := newTestNode(t)
	n.seedRoom("C1", "R1", "lobby")
	ctx := context.Background()
	_ = n.cl.repo.AddRole(ctx, "1", models.ScopeRoom, "R1", models.RoleOwner)
	owner := n.login("1", "alice", nil)
	member := n.login("2", "bob", nil)

	set := func(p *fakePeer, uid, targetType, action, aclType, value string) activity.Result {
		return n.send(p, activity.VerbSetACL, &activity.Activity{
			Actor: activity.Entity{ID: uid},
			Object: &activity.Entity{Attachments: []activity.Attachment{
				{ObjectType: aclType, Summary: action, Content: value},
			}},
			Target: &activity.Entity{ID: "R1", ObjectType: targetType},
		})
	}
	wantCode(t, set(member, "2", "room", "join", "gender", "f"), activity.NotAllowed)
	wantCode(t, set(owner, "1", "", "join", "gender", "f"), activity.MissingTargetObjectType)
	wantCode(t, set(owner, "1", "user", "join", "gender", "f"), activity.InvalidTargetType)
	wantCode(t, set(owner, "1", "room", "fly", "gender", "f"), activity.InvalidACLAction)
	wantCode(t, set(owner, "1", "room", "join", "shoe_size", "42"), activity.InvalidACLType)
	wantCode(t, set(owner, "1", "room", "join", "age", "old"), activity.InvalidACLValue)
	wantCode(t, set(owner, "1", "room", "join", "gender", "f"), activity.OK)

	res := n.send(member, activity.VerbGetACL, &activity.Activity{
		Actor:  activity.Entity{ID: "2"},
		Target: &activity.Entity{ID: "R1", ObjectType: "room"},
	})
	wantCode(t, res, activity.OK)
	acls := res.Data.(models.ACLs)
	if acls[models.ActionJoin]["gender"] != "f" {
		t.Errorf("acls = %+v", acls)
	}
}
