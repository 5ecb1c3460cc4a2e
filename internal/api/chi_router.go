// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/middleware"
)

// Router assembles the HTTP surface of a node.
type Router struct {
	handler    *Handler
	health     *Health
	middleware *ChiMiddleware

	// Socket is the websocket gateway, mounted at WSPath when set.
	Socket http.Handler
	WSPath string
	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
}

// NewRouter creates a router. health may be nil.
func NewRouter(handler *Handler, health *Health, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil, nil)
	}
	if health == nil {
		health = NewHealth("")
	}
	return &Router{handler: handler, health: health, middleware: mw, WSPath: "/ws"}
}

// SetupChi builds the chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeFail(w, req, activity.InvalidAPIAction, "unknown endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, activity.Fail(activity.InvalidAPIAction, "method not allowed").Reply())
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", router.health.Live)
		r.Get("/ready", router.health.Ready)
	})
	if router.MetricsPath != "" {
		r.Handle(router.MetricsPath, promhttp.Handler())
	}
	if router.Socket != nil {
		r.Handle(router.WSPath, router.Socket)
	}

	h := router.handler
	r.Group(func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.middleware.AdminAuth())

		r.Post("/ban", h.Ban)
		r.Get("/banned", h.Banned)
		r.Post("/unban", h.Unban)
		r.Post("/kick", h.Kick)
		r.Post("/blacklist", h.AddBlacklist)
		r.Delete("/blacklist", h.RemoveBlacklist)
		r.Post("/broadcast", h.Broadcast)
		r.Post("/create", h.Create)
		r.Post("/delete-messages", h.DeleteMessages)

		r.With(middleware.Compression).Get("/history", h.History)
		r.With(middleware.Compression).Get("/latest-history", h.LatestHistory)
		r.With(middleware.Compression).Post("/full-history", h.FullHistory)

		r.Get("/acl", h.GetACL)
		r.Post("/acl", h.SetACL)
		r.Get("/rooms", h.Rooms)
		r.Get("/rooms-acl", h.RoomsACL)
		r.Get("/rooms-for-users", h.RoomsForUsers)
		r.Get("/users-in-rooms", h.UsersInRooms)
		r.Get("/count-joins", h.CountJoins)
		r.Get("/roles", h.Roles)
		r.Post("/set-admin", h.SetAdmin)
		r.Post("/remove-admin", h.RemoveAdmin)
		r.Post("/status", h.Status)
		r.Post("/send", h.Send)
		r.Post("/heartbeat", h.Heartbeat)
		r.Post("/authenticate", h.Authenticate)
		r.Get("/last-online", h.LastOnline)
		r.Post("/logout", h.Logout)
		r.Post("/cache-cleanup", h.CacheCleanup)
	})

	return r
}
