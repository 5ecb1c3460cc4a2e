// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/dino/internal/acl"
	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/authz"
	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/presence"
)

// Deps are the collaborators of a Service. Publisher, Whisper, Spam and
// Heartbeats are optional.
type Deps struct {
	Config     *config.Config
	Repo       database.Repository
	Cache      *cache.Cache
	Tracker    *presence.Tracker
	Auth       *auth.Authenticator
	Authz      *authz.Enforcer
	Sockets    Sockets
	Publisher  Publisher
	Whisper    WhisperPolicy
	Spam       SpamClassifier
	Heartbeats HeartbeatRecorder
}

// Service is the chat engine of one node. It is safe for concurrent use.
type Service struct {
	cfg     *config.Config
	nodeID  string
	repo    database.Repository
	cache   *cache.Cache
	tracker *presence.Tracker
	auth    *auth.Authenticator
	authz   *authz.Enforcer
	acl     *acl.Evaluator
	sockets Sockets
	pub     Publisher
	whisper WhisperPolicy
	spam    SpamClassifier
	beats   HeartbeatRecorder
	plugins *Plugins

	dispatcher *Dispatcher

	mu    sync.RWMutex
	conns map[string]*Conn

	now func() time.Time
}

// NewService wires a Service and registers every verb.
func NewService(d Deps) (*Service, error) {
	switch {
	case d.Config == nil:
		return nil, errors.New("chat: config is required")
	case d.Repo == nil:
		return nil, errors.New("chat: repository is required")
	case d.Cache == nil:
		return nil, errors.New("chat: cache is required")
	case d.Tracker == nil:
		return nil, errors.New("chat: presence tracker is required")
	case d.Auth == nil:
		return nil, errors.New("chat: authenticator is required")
	case d.Authz == nil:
		return nil, errors.New("chat: authorization enforcer is required")
	case d.Sockets == nil:
		return nil, errors.New("chat: sockets are required")
	}

	s := &Service{
		cfg:     d.Config,
		nodeID:  d.Config.NodeID,
		repo:    d.Repo,
		cache:   d.Cache,
		tracker: d.Tracker,
		auth:    d.Auth,
		authz:   d.Authz,
		sockets: d.Sockets,
		pub:     d.Publisher,
		whisper: d.Whisper,
		spam:    d.Spam,
		beats:   d.Heartbeats,
		conns:   map[string]*Conn{},
		now:     time.Now,
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.whisper == nil {
		s.whisper = allowAllWhispers{}
	}
	if s.beats == nil {
		s.beats = nopHeartbeats{}
	}

	registry, err := acl.NewRegistry(&d.Config.ACL, s.channelForRoom)
	if err != nil {
		return nil, err
	}
	s.acl = acl.NewEvaluator(registry, d.Authz)
	s.plugins = NewPlugins(d.Config.Validation, s)
	s.dispatcher = NewDispatcher()
	s.registerRoutes()
	return s, nil
}

// Dispatcher exposes the verb dispatcher, mainly to add subscribers.
func (s *Service) Dispatcher() *Dispatcher { return s.dispatcher }

// ACL returns the ACL evaluator.
func (s *Service) ACL() *acl.Evaluator { return s.acl }

// NodeID returns this node's id.
func (s *Service) NodeID() string { return s.nodeID }

// opCtx bounds a repository call that must outlive the request context,
// for example cleanup after a socket closed.
func (s *Service) opCtx() (context.Context, context.CancelFunc) {
	timeout := s.cfg.Database.OpTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *Service) conn(sid string) (*Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[sid]
	return c, ok
}

// ConnectionCount returns the sockets tracked by the state machine.
func (s *Service) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}
