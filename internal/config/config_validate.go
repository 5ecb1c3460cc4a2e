// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

// Validate checks ports, enum values, durations, revision cap bounds and ACL
// declarations. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.validateServer()...)
	errs = append(errs, validateQueue("queue", c.Queue)...)
	errs = append(errs, validateQueue("ext_queue", c.ExtQueue)...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateAuth()...)
	errs = append(errs, c.validateHeartbeat()...)
	errs = append(errs, c.validateHistory()...)
	errs = append(errs, c.validateACL()...)
	errs = append(errs, c.validatePlugins()...)
	errs = append(errs, c.validateCollaborators()...)
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validPort(p int) bool { return p > 0 && p <= 65535 }

func positive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be > 0, got %s", name, d)
	}
	return nil
}

func collect(errs ...error) []error {
	out := errs[:0]
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (c *Config) validateServer() []error {
	var errs []error
	if !validPort(c.Server.Port) {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		errs = append(errs, fmt.Errorf("server.ws_path must start with /"))
	}
	if c.Server.MaxMessageSize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_message_size must be > 0"))
	}
	return append(errs, collect(
		positive("server.read_timeout", c.Server.ReadTimeout),
		positive("server.write_timeout", c.Server.WriteTimeout),
		positive("server.shutdown_timeout", c.Server.ShutdownTimeout),
	)...)
}

func validateQueue(name string, q QueueConfig) []error {
	var errs []error
	switch q.Type {
	case QueueNATS, QueueRedis:
		if !q.Embedded && q.Host == "" {
			errs = append(errs, fmt.Errorf("%s.host is required for %s", name, q.Type))
		}
		if !q.Embedded && !validPort(q.Port) {
			errs = append(errs, fmt.Errorf("%s.port %d out of range", name, q.Port))
		}
	case QueueMock:
	default:
		errs = append(errs, fmt.Errorf("%s.type must be nats, redis or mock, got %q", name, q.Type))
	}
	if q.Embedded && q.Type != QueueNATS {
		errs = append(errs, fmt.Errorf("%s.embedded requires type nats", name))
	}
	if q.Exchange == "" {
		errs = append(errs, fmt.Errorf("%s.exchange is required", name))
	}
	if q.RevisionCap < 1 || q.RevisionCap > 10 {
		errs = append(errs, fmt.Errorf("%s.revision_cap must be in 1..10, got %d", name, q.RevisionCap))
	}
	if q.Retries < 1 {
		errs = append(errs, fmt.Errorf("%s.retries must be >= 1", name))
	}
	if q.RecentlySent < 1 || q.DedupSize < 1 {
		errs = append(errs, fmt.Errorf("%s.recently_sent and dedup_size must be >= 1", name))
	}
	return append(errs, collect(
		positive(name+".retry_gap", q.RetryGap),
		positive(name+".publish_timeout", q.PublishTimeout),
	)...)
}

func (c *Config) validateStorage() []error {
	var errs []error
	switch c.Database.Type {
	case StorePostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for postgres"))
		}
		if c.Database.MinConns > c.Database.MaxConns {
			errs = append(errs, fmt.Errorf("database.min_conns exceeds max_conns"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("database.type must be postgres or memory, got %q", c.Database.Type))
	}

	switch c.Cache.Type {
	case StoreRedis:
		if c.Cache.URL == "" && !validPort(c.Cache.Port) {
			errs = append(errs, fmt.Errorf("cache.port %d out of range", c.Cache.Port))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.type must be redis or memory, got %q", c.Cache.Type))
	}
	return append(errs, collect(
		positive("database.op_timeout", c.Database.OpTimeout),
		positive("cache.op_timeout", c.Cache.OpTimeout),
		positive("cache.acl_ttl", c.Cache.ACLTTL),
		positive("cache.roles_ttl", c.Cache.RolesTTL),
		positive("cache.room_meta_ttl", c.Cache.RoomMetaTTL),
		positive("cache.room_listing_ttl", c.Cache.RoomListingTTL),
		positive("cache.status_ttl", c.Cache.StatusTTL),
	)...)
}

func (c *Config) validateAuth() []error {
	var errs []error
	switch c.Auth.Type {
	case StoreMemory:
	case StoreRedis:
		if c.Cache.Type != StoreRedis {
			errs = append(errs, fmt.Errorf("auth.type redis requires cache.type redis"))
		}
	case StoreBadger:
		if c.Auth.BadgerPath == "" {
			errs = append(errs, fmt.Errorf("auth.badger_path is required for badger"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be memory, redis or badger, got %q", c.Auth.Type))
	}
	if c.Environment == "production" && len(c.Auth.AdminJWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.admin_jwt_secret must be at least 32 characters in production"))
	}
	return append(errs, collect(
		positive("auth.heartbeat_ttl", c.Auth.HeartbeatTTL),
		positive("auth.admin_token_ttl", c.Auth.AdminTokenTTL),
		positive("auth.session_ttl", c.Auth.SessionTTL),
	)...)
}

func (c *Config) validateHeartbeat() []error {
	errs := collect(
		positive("heartbeat.interval", c.Heartbeat.Interval),
		positive("heartbeat.timeout", c.Heartbeat.Timeout),
	)
	if len(errs) == 0 && c.Heartbeat.Interval > c.Heartbeat.Timeout {
		errs = append(errs, fmt.Errorf("heartbeat.interval must not exceed heartbeat.timeout"))
	}
	return errs
}

func (c *Config) validateHistory() []error {
	var errs []error
	if c.History.Limit < 1 {
		errs = append(errs, fmt.Errorf("history.limit must be >= 1"))
	}
	if c.History.Strategy != HistoryTop && c.History.Strategy != HistoryUnread {
		errs = append(errs, fmt.Errorf("history.strategy must be top or unread, got %q", c.History.Strategy))
	}
	return errs
}

func (c *Config) validateACL() []error {
	var errs []error
	known := []string{
		ValidatorStrInCSV, ValidatorRange, ValidatorSameChannel, ValidatorSameRoom,
		ValidatorDisallow, ValidatorAcceptedPattern, ValidatorIsAdmin,
		ValidatorIsSuperUser, ValidatorIsRoomOwner,
	}
	for _, t := range c.ACL.Available {
		kind, ok := c.ACL.Validators[t]
		if !ok {
			errs = append(errs, fmt.Errorf("acl type %q has no validator", t))
			continue
		}
		if !slices.Contains(known, kind) {
			errs = append(errs, fmt.Errorf("acl type %q uses unknown validator %q", t, kind))
		}
	}
	check := func(scope string, actions map[string][]string) {
		for action, types := range actions {
			if !models.IsValidAction(action) {
				errs = append(errs, fmt.Errorf("acl.%s: unknown action %q", scope, action))
			}
			for _, t := range types {
				if !slices.Contains(c.ACL.Available, t) {
					errs = append(errs, fmt.Errorf("acl.%s.%s: type %q not declared in acl.available", scope, action, t))
				}
			}
		}
	}
	check("room", c.ACL.Room)
	check("channel", c.ACL.Channel)
	return errs
}

func (c *Config) validatePlugins() []error {
	var errs []error
	for verb, plugins := range c.Validation.Plugins {
		for _, p := range plugins {
			switch p.Name {
			case PluginNotFull:
				if p.MaxUsers < 1 {
					errs = append(errs, fmt.Errorf("validation.%s.%s: max_users must be >= 1", verb, p.Name))
				}
			case PluginLimitMsgLength:
				if p.MaxLength < 1 {
					errs = append(errs, fmt.Errorf("validation.%s.%s: max_length must be >= 1", verb, p.Name))
				}
			case PluginLimitLength:
				if p.MinLength < 0 || p.MaxLength < p.MinLength {
					errs = append(errs, fmt.Errorf("validation.%s.%s: need 0 <= min_length <= max_length", verb, p.Name))
				}
			case PluginLimitAmount:
				if p.MaxRooms < 1 {
					errs = append(errs, fmt.Errorf("validation.%s.%s: max_rooms must be >= 1", verb, p.Name))
				}
			case PluginSingleSession:
			default:
				errs = append(errs, fmt.Errorf("validation.%s: unknown plugin %q", verb, p.Name))
			}
		}
	}
	return errs
}

func (c *Config) validateCollaborators() []error {
	var errs []error
	if c.Remote.Enabled {
		if err := validateHTTPURL(c.Remote.URL); err != nil {
			errs = append(errs, fmt.Errorf("remote.url: %w", err))
		}
	}
	if c.SpamClassifier.Enabled {
		if err := validateHTTPURL(c.SpamClassifier.URL); err != nil {
			errs = append(errs, fmt.Errorf("spam_classifier.url: %w", err))
		}
	}
	if c.Moderation.KickBanDuration <= 0 {
		errs = append(errs, fmt.Errorf("moderation.kick_ban_duration must be > 0"))
	}
	if c.RateLimit.EventsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.events_per_second and burst must be positive"))
	}
	return errs
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
