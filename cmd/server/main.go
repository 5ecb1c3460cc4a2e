// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/dino/internal/api"
	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/authz"
	"github.com/tomtom215/dino/internal/bus"
	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/heartbeat"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/presence"
	"github.com/tomtom215/dino/internal/remote"
	"github.com/tomtom215/dino/internal/supervisor"
	"github.com/tomtom215/dino/internal/supervisor/services"
	ws "github.com/tomtom215/dino/internal/websocket"
)

const userLockStripes = 1024

func main() {
	configPath := flag.String("config", "", "config file path")
	adminToken := flag.String("admin-token", "", "print an admin token for this subject and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if *adminToken != "" {
		if err := printAdminToken(cfg, *adminToken); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue admin token")
		}
		return
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Node stopped with an error")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printAdminToken(cfg *config.Config, subject string) error {
	m, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		return err
	}
	token, err := m.GenerateToken(subject, "admin")
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

//nolint:gocyclo // sequential wiring
func run(cfg *config.Config) error {
	logging.Info().
		Str("node_id", cfg.NodeID).
		Str("environment", cfg.Environment).
		Str("database", cfg.Database.Type).
		Str("cache", cfg.Cache.Type).
		Str("queue", cfg.Queue.Type).
		Msg("Starting Dino")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		return fmt.Errorf("role enforcer: %w", err)
	}

	var jwtManager *auth.JWTManager
	if cfg.Auth.AdminJWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(&cfg.Auth)
		if err != nil {
			return fmt.Errorf("admin tokens: %w", err)
		}
	} else {
		logging.Warn().Msg("auth.admin_jwt_secret is empty: the REST API is open to anyone who can reach it")
	}

	b, err := openBus(ctx, cfg, st.redis)
	if err != nil {
		return err
	}
	defer b.Close()

	hub := ws.NewHub()
	tracker := presence.NewTracker(st.cache, st.repo, presence.NewUserLocks(userLockStripes))
	tracker.SetRoomIndex(hub)

	reaper := heartbeat.New(cfg.Heartbeat)
	deps := chat.Deps{
		Config:    cfg,
		Repo:      st.repo,
		Cache:     st.cache,
		Tracker:   tracker,
		Auth:      auth.NewAuthenticator(st.sessions),
		Authz:     enforcer,
		Sockets:   hub,
		Publisher: b.publisher,
	}
	if cfg.Heartbeat.Enabled {
		deps.Heartbeats = reaper
	}

	breakers := map[string]func() string{}
	if cfg.Remote.Enabled {
		whisper := remote.NewWhisperPolicy(cfg.Remote)
		deps.Whisper = whisper
		breakers["remote-whisper"] = whisper.BreakerState
	}
	if cfg.SpamClassifier.Enabled {
		spam := remote.NewSpamClassifier(cfg.SpamClassifier)
		deps.Spam = spam
		breakers["spam-classifier"] = spam.BreakerState
	}

	svc, err := chat.NewService(deps)
	if err != nil {
		return fmt.Errorf("chat service: %w", err)
	}
	reaper.Bind(svc)

	consumer, err := bus.NewConsumer(consumerConfig(cfg), b.internal, b.publisher, svc, logging.NewWatermillAdapter())
	if err != nil {
		return fmt.Errorf("bus consumer: %w", err)
	}

	socket := ws.NewServer(hub, chat.NewGateway(svc), ws.ServerOptions{
		AllowedOrigins:  cfg.Web.CORSOrigins,
		MaxMessageSize:  cfg.Server.MaxMessageSize,
		EventsPerSecond: cfg.RateLimit.EventsPerSecond,
		Burst:           cfg.RateLimit.Burst,
	})

	health := api.NewHealth(cfg.NodeID,
		api.HealthCheck{Name: "repository", Check: st.repo.Ping},
		api.HealthCheck{Name: "shared_cache", Check: st.shared.Ping},
	)
	health.Connections = svc.ConnectionCount
	health.Breakers = func() map[string]string {
		out := b.publisher.BreakerStates()
		for name, state := range breakers {
			out[name] = state()
		}
		return out
	}

	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Web.CORSOrigins,
		CORSMaxAge:         300,
		RateLimitRequests:  cfg.RateLimit.RESTRequests,
		RateLimitWindow:    cfg.RateLimit.RESTWindow,
		RateLimitDisabled:  cfg.RateLimit.RESTRequests <= 0,
	}, jwtManager)
	router := api.NewRouter(api.NewHandler(svc), health, mw)
	router.Socket = socket
	router.WSPath = cfg.Server.WSPath
	if cfg.Stats.Enabled {
		router.MetricsPath = cfg.Stats.Path
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if cfg.Heartbeat.Enabled {
		tree.AddDataService(reaper)
	}
	if b.embedded != nil {
		tree.AddMessagingService(services.NewNATSServerService(b.embedded, cfg.Server.ShutdownTimeout))
	}
	tree.AddMessagingService(services.NewPublisherService(b.publisher, 5*time.Second))
	tree.AddMessagingService(consumer)
	tree.AddMessagingService(services.NewSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)

	// Peers drop this node's stale sockets once it can receive their
	// replies.
	select {
	case <-consumer.Ready():
		svc.AnnounceRestart(ctx)
	case <-ctx.Done():
	}

	<-ctx.Done()
	logging.Info().Msg("Shutdown signal received, stopping supervisor tree")

	var treeErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		treeErr = err
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Dino stopped")
	if treeErr != nil {
		return fmt.Errorf("supervisor tree: %w", treeErr)
	}
	return nil
}

func consumerConfig(cfg *config.Config) bus.ConsumerConfig {
	cc := bus.DefaultConsumerConfig(cfg.NodeID)
	if cfg.Queue.RevisionCap > 0 {
		cc.RevisionCap = cfg.Queue.RevisionCap
	}
	if cfg.Queue.DedupSize > 0 {
		cc.DedupSize = cfg.Queue.DedupSize
	}
	return cc
}
