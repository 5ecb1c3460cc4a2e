// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/cache"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/sharedstore"
)

// stores holds the data layer of one node.
type stores struct {
	repo     database.Repository
	shared   sharedstore.Store
	local    *cache.Local
	cache    *cache.Cache
	sessions auth.SessionStore

	// redis is set when the shared tier is Redis so the bus can reuse it.
	redis *redis.Client
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}
	ok := false
	defer func() {
		if !ok {
			st.Close()
		}
	}()

	switch cfg.Database.Type {
	case config.StorePostgres:
		dbCfg := database.DefaultConfig()
		dbCfg.DSN = cfg.Database.DSN
		if cfg.Database.MaxConns > 0 {
			dbCfg.MaxConns = cfg.Database.MaxConns
		}
		if cfg.Database.MinConns > 0 {
			dbCfg.MinConns = cfg.Database.MinConns
		}
		if cfg.Database.MaxConnLifetime > 0 {
			dbCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
		}
		if cfg.Database.MaxConnIdleTime > 0 {
			dbCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
		}
		if cfg.Database.OpTimeout > 0 {
			dbCfg.OpTimeout = cfg.Database.OpTimeout
		}
		dbCfg.Migrate = cfg.Database.Migrate
		db, err := database.New(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("repository: %w", err)
		}
		st.repo = db
	default:
		logging.Warn().Msg("Using the in-memory repository: data is lost on restart and not shared between nodes")
		st.repo = database.NewMemory()
	}
	logging.Info().Str("type", cfg.Database.Type).Msg("Repository ready")

	if cfg.Cache.Type == config.StoreRedis {
		client, err := sharedstore.NewRedisClient(ctx, sharedstore.RedisConfig{
			URL:       cfg.Cache.URL,
			Addr:      hostPort(cfg.Cache.Host, cfg.Cache.Port),
			Password:  cfg.Cache.Password,
			DB:        cfg.Cache.DB,
			PoolSize:  cfg.Cache.PoolSize,
			OpTimeout: cfg.Cache.OpTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("shared cache: %w", err)
		}
		st.redis = client
		st.shared = sharedstore.NewRedis(client, cfg.Cache.OpTimeout)
	} else {
		st.shared = sharedstore.NewMemory()
	}

	st.local = cache.NewLocal(cfg.Cache.LocalCapacity, cfg.Cache.Jitter)
	go st.local.Start()
	st.cache = cache.New(st.local, st.shared, cfg.Cache.Prefix, cacheTTLs(&cfg.Cache))

	sessions, err := auth.NewSessionStore(auth.StoreOptions{
		Type:       cfg.Auth.Type,
		BadgerPath: cfg.Auth.BadgerPath,
		TTL:        cfg.Auth.SessionTTL,
		Shared:     st.shared,
		Prefix:     cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	st.sessions = sessions

	ok = true
	return st, nil
}

func cacheTTLs(c *config.CacheConfig) cache.TTLs {
	ttl := cache.DefaultTTLs()
	if c.ACLTTL > 0 {
		ttl.ACL = c.ACLTTL
	}
	if c.RolesTTL > 0 {
		ttl.Roles = c.RolesTTL
	}
	if c.RoomMetaTTL > 0 {
		ttl.RoomMeta = c.RoomMetaTTL
	}
	if c.RoomListingTTL > 0 {
		ttl.RoomListing = c.RoomListingTTL
	}
	if c.StatusTTL > 0 {
		ttl.Status = c.StatusTTL
	}
	return ttl
}

// Close releases everything opened so far, in reverse order.
func (st *stores) Close() {
	var errs []error
	if st.sessions != nil {
		errs = append(errs, st.sessions.Close())
	}
	if st.local != nil {
		st.local.Stop()
	}
	if st.shared != nil {
		errs = append(errs, st.shared.Close())
	}
	if st.repo != nil {
		st.repo.Close()
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Err(err).Msg("Error closing stores")
	}
}

func hostPort(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
