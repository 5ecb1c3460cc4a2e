// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/metrics"
	"github.com/tomtom215/dino/internal/models"
)

// Request carries one activity through the middleware chain. Validators
// fill the resolved fields so handlers do not repeat lookups.
type Request struct {
	Ctx      context.Context
	Conn     *Conn
	Activity *activity.Activity
	Session  *models.Session
	Roles    *models.UserRoles

	// Room is the resolved target room, ChannelID its channel.
	Room      *models.Room
	ChannelID string
	// TargetUser is the resolved subject of kick, ban, invite and whisper.
	TargetUser string
	// Body is the decoded object content.
	Body string
}

// UserID returns the session user id.
func (r *Request) UserID() string {
	if r.Session == nil {
		return ""
	}
	return r.Session.UserID
}

// SID returns the socket id, empty for server-originated requests.
func (r *Request) SID() string {
	if r.Conn == nil {
		return ""
	}
	return r.Conn.SID()
}

// HandlerFunc handles one verb.
type HandlerFunc func(req *Request) activity.Result

// Middleware wraps a handler. Returning without calling next short-circuits
// the chain with that result.
type Middleware func(next HandlerFunc) HandlerFunc

// Subscriber observes a successful handler result.
type Subscriber func(req *Request, res activity.Result) error

type subscriber struct {
	name string
	fn   Subscriber
}

type route struct {
	handler     HandlerFunc
	middleware  []Middleware
	subscribers []subscriber
}

// Dispatcher routes activities to per-verb middleware chains.
type Dispatcher struct {
	mu     sync.RWMutex
	global []Middleware
	routes map[activity.Verb]*route
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{routes: map[activity.Verb]*route{}}
}

// Use appends middleware applied to every verb, outside the verb chain.
func (d *Dispatcher) Use(mw ...Middleware) {
	d.mu.Lock()
	d.global = append(d.global, mw...)
	d.mu.Unlock()
}

// Handle registers the handler for verb. The first middleware is the
// outermost.
func (d *Dispatcher) Handle(verb activity.Verb, h HandlerFunc, mw ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.routes[verb]
	if !ok {
		r = &route{}
		d.routes[verb] = r
	}
	r.handler = h
	r.middleware = mw
}

// Subscribe adds a subscriber to verb. Subscribers run in registration
// order.
func (d *Dispatcher) Subscribe(verb activity.Verb, name string, fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.routes[verb]
	if !ok {
		r = &route{}
		d.routes[verb] = r
	}
	r.subscribers = append(r.subscribers, subscriber{name: name, fn: fn})
}

// Verbs lists the registered verbs.
func (d *Dispatcher) Verbs() []activity.Verb {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]activity.Verb, 0, len(d.routes))
	for v, r := range d.routes {
		if r.handler != nil {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs the chain for req.Activity.Verb. It never panics.
func (d *Dispatcher) Dispatch(req *Request) (res activity.Result) {
	verb := req.Activity.Verb
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logging.Ctx(req.Ctx).Error().
				Str("verb", string(verb)).
				Str("user_id", req.UserID()).
				Str("panic", fmt.Sprint(p)).
				Bytes("stack", debug.Stack()).
				Msg("Handler panic")
			res = activity.Fail(activity.UnknownError, "internal error")
		}
		metrics.RecordEvent(string(verb), int(res.Code), time.Since(start))
	}()

	d.mu.RLock()
	r, ok := d.routes[verb]
	var (
		chain []Middleware
		subs  []subscriber
		h     HandlerFunc
	)
	if ok && r.handler != nil {
		chain = make([]Middleware, 0, len(d.global)+len(r.middleware))
		chain = append(chain, d.global...)
		chain = append(chain, r.middleware...)
		subs = append(subs, r.subscribers...)
		h = r.handler
	}
	d.mu.RUnlock()

	if h == nil {
		return activity.Failf(activity.InvalidVerb, "unknown verb %q", verb)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}

	res = h(req)
	if !res.OK {
		return res
	}
	for _, s := range subs {
		if err := runSubscriber(req, res, s); err != nil {
			logging.Ctx(req.Ctx).Warn().Err(err).
				Str("verb", string(verb)).
				Str("subscriber", s.name).
				Msg("Subscriber failed")
		}
	}
	return res
}

func runSubscriber(req *Request, res activity.Result, s subscriber) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber %s panicked: %v", s.name, p)
		}
	}()
	return s.fn(req, res)
}
