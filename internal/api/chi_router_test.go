// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/config"
)

func newJWT(t *testing.T) *auth.JWTManager {
	t.Helper()
	m, err := auth.NewJWTManager(&config.AuthConfig{
		AdminJWTSecret: strings.Repeat("s", 40),
		AdminTokenTTL:  time.Hour,
		AdminIssuer:    "dino-test",
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestAdminAuth(t *testing.T) {
	jwt := newJWT(t)
	c := newFakeChat()
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true}, jwt)
	h := NewRouter(NewHandler(c), nil, mw).SetupChi()

	call := func(token string) (*httptest.ResponseRecorder, reply) {
		req := httptest.NewRequest(http.MethodPost, "/kick", strings.NewReader(`{"user_id":"1","room_id":"r1"}`))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		var rep reply
		_ = jsonUnmarshal(rec.Body.Bytes(), &rep)
		return rec, rep
	}

	rec, rep := call("")
	expectCode(t, rec, rep, activity.InvalidToken, http.StatusUnauthorized)
	rec, rep = call("garbage")
	expectCode(t, rec, rep, activity.InvalidToken, http.StatusUnauthorized)

	token, err := jwt.GenerateToken("42", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	rec, rep = call(token)
	expectCode(t, rec, rep, activity.OK, http.StatusOK)
	if len(c.kicks) != 1 || c.kicks[0].KickerID != "42" {
		t.Errorf("kick recorded as %+v, want kicker from token subject", c.kicks)
	}
}

func TestHealth(t *testing.T) {
	failing := false
	health := NewHealth("node-a", HealthCheck{Name: "repository", Check: func(context.Context) error {
		if failing {
			return errors.New("connection refused")
		}
		return nil
	}})
	health.Connections = func() int { return 3 }
	health.Breakers = func() map[string]string { return map[string]string{"internal": "closed"} }

	jwt := newJWT(t)
	h := NewRouter(NewHandler(newFakeChat()), health, NewChiMiddleware(nil, jwt)).SetupChi()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	rec := get("/health/ready")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"connections":3`) {
		t.Errorf("ready = %d %s", rec.Code, rec.Body.String())
	}

	failing = true
	rec = get("/health/ready")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("unready = %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_MetricsAndSocketMount(t *testing.T) {
	r := NewRouter(NewHandler(newFakeChat()), nil, NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true}, nil))
	r.MetricsPath = "/metrics"
	r.WSPath = "/ws"
	r.Socket = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	h := r.SetupChi()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusSwitchingProtocols {
		t.Errorf("socket mount = %d", rec.Code)
	}

	_, rep := do(t, h, http.MethodGet, "/nope", nil)
	if rep.StatusCode != int(activity.InvalidAPIAction) {
		t.Errorf("unknown endpoint status_code = %d", rep.StatusCode)
	}
}

func TestRateLimit(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute}, nil)
	h := NewRouter(NewHandler(newFakeChat()), nil, mw).SetupChi()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
