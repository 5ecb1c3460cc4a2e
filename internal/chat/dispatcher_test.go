// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/dino/internal/activity"
)

func newRequest(verb activity.Verb) *Request {
	return &Request{Ctx: context.Background(), Activity: &activity.Activity{Verb: verb}}
}

func TestDispatcher_Order(t *testing.T) {
	d := NewDispatcher()
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(req *Request) activity.Result {
				order = append(order, name)
				return next(req)
			}
		}
	}
	d.Use(mark("global"))
	d.Handle(activity.VerbJoin, func(*Request) activity.Result {
		order = append(order, "handler")
		return activity.Success(nil)
	}, mark("validator"), mark("plugin"))
	d.Subscribe(activity.VerbJoin, "first", func(*Request, activity.Result) error {
		order = append(order, "sub1")
		return nil
	})
	d.Subscribe(activity.VerbJoin, "second", func(*Request, activity.Result) error {
		order = append(order, "sub2")
		return nil
	})

	if res := d.Dispatch(newRequest(activity.VerbJoin)); !res.OK {
		t.Fatalf("Dispatch = %+v", res)
	}
	want := []string{"global", "validator", "plugin", "handler", "sub1", "sub2"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestDispatcher_ShortCircuit(t *testing.T) {
	d := NewDispatcher()
	called := false
	deny := guard(func(*Request) activity.Result { return activity.Fail(activity.NotAllowed, "no") })
	d.Handle(activity.VerbKick, func(*Request) activity.Result {
		called = true
		return activity.Success(nil)
	}, deny)
	d.Subscribe(activity.VerbKick, "never", func(*Request, activity.Result) error {
		t.Error("subscriber ran after a failed validation")
		return nil
	})

	res := d.Dispatch(newRequest(activity.VerbKick))
	if res.Code != activity.NotAllowed || called {
		t.Errorf("res = %+v, handler called = %v", res, called)
	}
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	d := NewDispatcher()
	d.Handle(activity.VerbLeave, func(*Request) activity.Result { panic("boom") })

	res := d.Dispatch(newRequest(activity.VerbLeave))
	if res.Code != activity.UnknownError {
		t.Errorf("code = %d, want %d", res.Code, activity.UnknownError)
	}
}

func TestDispatcher_SubscriberFailuresDoNotChangeResult(t *testing.T) {
	d := NewDispatcher()
	d.Handle(activity.VerbRead, func(*Request) activity.Result { return activity.Success("ok") })
	d.Subscribe(activity.VerbRead, "errors", func(*Request, activity.Result) error { return errors.New("down") })
	d.Subscribe(activity.VerbRead, "panics", func(*Request, activity.Result) error { panic("boom") })
	ran := false
	d.Subscribe(activity.VerbRead, "last", func(*Request, activity.Result) error {
		ran = true
		return nil
	})

	res := d.Dispatch(newRequest(activity.VerbRead))
	if !res.OK || res.Data != "ok" {
		t.Errorf("res = %+v", res)
	}
	if !ran {
		t.Error("later subscribers must still run")
	}
}

func TestDispatcher_UnknownVerb(t *testing.T) {
	d := NewDispatcher()
	res := d.Dispatch(newRequest(activity.Verb("nope")))
	if res.Code != activity.InvalidVerb {
		t.Errorf("code = %d", res.Code)
	}
}

func TestService_RegistersEveryClientVerb(t *testing.T) {
	n := newTestNode(t)
	got := map[activity.Verb]bool{}
	for _, v := range n.svc.Dispatcher().Verbs() {
		got[v] = true
	}
	for _, v := range []activity.Verb{
		activity.VerbLogin, activity.VerbJoin, activity.VerbLeave, activity.VerbMessage,
		activity.VerbWhisper, activity.VerbRead, activity.VerbReceived, activity.VerbHistory,
		activity.VerbListRooms, activity.VerbListChannels, activity.VerbUsersInRoom,
		activity.VerbCreate, activity.VerbInvite, activity.VerbKick, activity.VerbBan,
		activity.VerbSetACL, activity.VerbGetACL, activity.VerbStatus, activity.VerbRemoveRoom,
		activity.VerbRequestAdmin, activity.VerbUpdateUserInfo, activity.VerbReport,
		activity.VerbMsgStatus, activity.VerbHeartbeat, activity.VerbDisconnect,
	} {
		if !got[v] {
			t.Errorf("verb %s is not registered", v)
		}
	}
}
