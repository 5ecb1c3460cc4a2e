// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
	m.Run()
}

func whisperServer(t *testing.T, statuses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/can-whisper" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req whisperRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, ok := statuses[req.SenderID+">"+req.TargetID]
		if !ok {
			status = WhisperStatusAllowed
		}
		_ = json.NewEncoder(w).Encode(whisperResponse{Status: status})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWhisperPolicy(t *testing.T) {
	srv := whisperServer(t, map[string]string{
		"1>2": WhisperStatusNotAContact,
		"1>3": WhisperStatusDisabled,
		"1>4": "maybe",
	})
	p := NewWhisperPolicy(config.RemoteConfig{URL: srv.URL + "/", Timeout: time.Second})

	tests := []struct {
		target  string
		want    chat.WhisperDecision
		wantErr bool
	}{
		{"5", chat.WhisperAllowed, false},
		{"2", chat.WhisperNotAContact, false},
		{"3", chat.WhisperDisabled, false},
		{"4", chat.WhisperDisabled, true},
	}
	for _, tt := range tests {
		got, err := p.CanWhisper(context.Background(), "1", tt.target)
		if (err != nil) != tt.wantErr {
			t.Errorf("target %s: err = %v", tt.target, err)
		}
		if got != tt.want {
			t.Errorf("target %s: decision = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestWhisperPolicy_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewWhisperPolicy(config.RemoteConfig{URL: srv.URL, Timeout: time.Second, MaxFailures: 2})
	for i := 0; i < 5; i++ {
		_, err := p.CanWhisper(context.Background(), "1", "2")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: err = %v, want ErrUnavailable", i, err)
		}
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server saw %d calls, want 2 before the breaker opened", n)
	}
	if p.BreakerState() != "open" {
		t.Errorf("breaker = %s", p.BreakerState())
	}
}

func TestSpamClassifier(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req spamRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(spamResponse{Spam: strings.Contains(req.Text, "buy now")})
	}))
	defer srv.Close()

	s := NewSpamClassifier(config.SpamClassifierConfig{URL: srv.URL, MinLength: 5, MaxLength: 40, Timeout: time.Second})
	ctx := context.Background()

	if spam, err := s.IsSpam(ctx, "cheap pills, buy now"); err != nil || !spam {
		t.Errorf("spam = %v, err = %v", spam, err)
	}
	if spam, err := s.IsSpam(ctx, "hello there"); err != nil || spam {
		t.Errorf("ham = %v, err = %v", spam, err)
	}
	before := calls.Load()
	if spam, _ := s.IsSpam(ctx, "buy"); spam {
		t.Error("short text classified")
	}
	if spam, _ := s.IsSpam(ctx, strings.Repeat("buy now ", 10)); spam {
		t.Error("long text classified")
	}
	if calls.Load() != before {
		t.Error("texts outside the length window reached the classifier")
	}
}
