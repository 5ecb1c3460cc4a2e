// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"unicode/utf8"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/logging"
)

// Plugins holds the configured per-verb validation plugins.
type Plugins struct {
	byVerb map[activity.Verb][]config.PluginConfig
	svc    *Service
}

// NewPlugins indexes the plugin configuration by verb.
func NewPlugins(cfg config.ValidationConfig, svc *Service) *Plugins {
	p := &Plugins{byVerb: map[activity.Verb][]config.PluginConfig{}, svc: svc}
	for verb, list := range cfg.Plugins {
		v := activity.ParseVerb(verb)
		p.byVerb[v] = append(p.byVerb[v], list...)
	}
	return p
}

// Enabled reports whether the named plugin is configured on verb.
func (p *Plugins) Enabled(verb activity.Verb, name string) bool {
	_, ok := p.find(verb, name)
	return ok
}

func (p *Plugins) find(verb activity.Verb, name string) (config.PluginConfig, bool) {
	for _, pc := range p.byVerb[verb] {
		if pc.Name == name {
			return pc, true
		}
	}
	return config.PluginConfig{}, false
}

// For returns the middleware of every plugin configured on verb, in
// configuration order. They run after the verb validator so the request
// fields are already resolved.
func (p *Plugins) For(verb activity.Verb) []Middleware {
	var out []Middleware
	for _, pc := range p.byVerb[verb] {
		check := p.check(pc)
		if check == nil {
			continue
		}
		out = append(out, guard(check))
	}
	return out
}

func (p *Plugins) check(pc config.PluginConfig) func(*Request) activity.Result {
	switch pc.Name {
	case config.PluginNotFull:
		return func(req *Request) activity.Result { return p.notFull(req, pc.MaxUsers) }
	case config.PluginLimitMsgLength:
		return func(req *Request) activity.Result { return limitMsgLength(req, pc.MaxLength) }
	case config.PluginLimitLength:
		return func(req *Request) activity.Result { return limitLength(req, pc.MinLength, pc.MaxLength) }
	case config.PluginLimitAmount:
		return func(req *Request) activity.Result { return p.limitAmount(req, pc.MaxRooms) }
	case config.PluginSingleSession:
		// Applied by the login handler once the user is authenticated.
		return nil
	default:
		logging.Warn().Str("plugin", pc.Name).Msg("Unknown validation plugin ignored")
		return nil
	}
}

// guard turns a check into middleware.
func guard(check func(*Request) activity.Result) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *Request) activity.Result {
			if res := check(req); !res.OK {
				return res
			}
			return next(req)
		}
	}
}

// notFull rejects joins into rooms holding maxUsers members. Privileged
// users are exempt.
func (p *Plugins) notFull(req *Request, maxUsers int) activity.Result {
	if maxUsers <= 0 || req.Room == nil || req.Roles.IsPrivileged() {
		return activity.Success(nil)
	}
	users, err := p.svc.repo.UsersInRoom(req.Ctx, req.Room.ID)
	if err != nil {
		return p.svc.internalError(req.Ctx, "count room users", err)
	}
	if _, already := users[req.UserID()]; !already && len(users) >= maxUsers {
		return activity.Failf(activity.RoomFull, "room is full (%d users)", maxUsers)
	}
	return activity.Success(nil)
}

// limitMsgLength bounds the decoded body in bytes.
func limitMsgLength(req *Request, maxLength int) activity.Result {
	if maxLength > 0 && len(req.Body) > maxLength {
		return activity.Failf(activity.MsgTooLong, "message longer than %d bytes", maxLength)
	}
	return activity.Success(nil)
}

// limitLength bounds room names in characters.
func limitLength(req *Request, minLength, maxLength int) activity.Result {
	n := utf8.RuneCountInString(req.Body)
	if minLength > 0 && n < minLength {
		return activity.Failf(activity.RoomNameTooShort, "room name shorter than %d", minLength)
	}
	if maxLength > 0 && n > maxLength {
		return activity.Failf(activity.RoomNameTooLong, "room name longer than %d", maxLength)
	}
	return activity.Success(nil)
}

// limitAmount bounds the private rooms a user owns.
func (p *Plugins) limitAmount(req *Request, maxRooms int) activity.Result {
	if maxRooms <= 0 || req.Roles.IsPrivileged() {
		return activity.Success(nil)
	}
	n, err := p.svc.repo.CountPrivateRooms(req.Ctx, req.UserID())
	if err != nil {
		return p.svc.internalError(req.Ctx, "count private rooms", err)
	}
	if n >= maxRooms {
		return activity.Failf(activity.TooManyPrivateRooms, "user already owns %d private rooms", n)
	}
	return activity.Success(nil)
}
