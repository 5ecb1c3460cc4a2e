// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package config

import (
	"time"
)

// Config is the complete node configuration.
type Config struct {
	Environment string `koanf:"environment"`
	NodeID      string `koanf:"node_id"`

	Logging        LoggingConfig        `koanf:"logging"`
	Server         ServerConfig         `koanf:"server"`
	Queue          QueueConfig          `koanf:"queue"`
	ExtQueue       QueueConfig          `koanf:"ext_queue"`
	Database       DatabaseConfig       `koanf:"database"`
	Cache          CacheConfig          `koanf:"cache"`
	Auth           AuthConfig           `koanf:"auth"`
	Stats          StatsConfig          `koanf:"stats"`
	Heartbeat      HeartbeatConfig      `koanf:"heartbeat"`
	History        HistoryConfig        `koanf:"history"`
	Web            WebConfig            `koanf:"web"`
	Validation     ValidationConfig     `koanf:"validation"`
	ACL            ACLConfig            `koanf:"acl"`
	Enrich         EnrichConfig         `koanf:"enrich"`
	SpamClassifier SpamClassifierConfig `koanf:"spam_classifier"`
	Remote         RemoteConfig         `koanf:"remote"`
	Moderation     ModerationConfig     `koanf:"moderation"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`

	// DeliveryGuarantee tracks per-recipient acks for private messages.
	DeliveryGuarantee bool `koanf:"delivery_guarantee"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig configures the HTTP listener shared by the socket gateway and
// the REST surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	WSPath          string        `koanf:"ws_path"`
	// MaxMessageSize caps a single inbound socket frame in bytes.
	MaxMessageSize int64 `koanf:"max_message_size"`
}

// Queue backend types.
const (
	QueueNATS  = "nats"
	QueueRedis = "redis"
	QueueMock  = "mock"
)

// QueueConfig configures one bus topic (internal or external).
type QueueConfig struct {
	Type     string `koanf:"type"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	// Exchange is the subject (nats) or stream/channel (redis) name.
	Exchange string `koanf:"exchange"`
	DB       int    `koanf:"db"`
	// Embedded starts an in-process NATS server (single node or dev).
	Embedded bool `koanf:"embedded"`

	RevisionCap    int           `koanf:"revision_cap"`
	Retries        int           `koanf:"retries"`
	RetryGap       time.Duration `koanf:"retry_gap"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
	// RecentlySent bounds the external recently-sent id set.
	RecentlySent int `koanf:"recently_sent"`
	// DedupSize bounds each internal de-dup LRU.
	DedupSize int `koanf:"dedup_size"`
}

// Storage backend types.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreBadger   = "badger"
	StoreMemory   = "memory"
)

// DatabaseConfig configures the repository.
type DatabaseConfig struct {
	Type            string        `koanf:"type"`
	DSN             string        `koanf:"dsn"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	OpTimeout       time.Duration `koanf:"op_timeout"`
	Migrate         bool          `koanf:"migrate"`
}

// CacheConfig configures both cache tiers.
type CacheConfig struct {
	Type      string        `koanf:"type"`
	URL       string        `koanf:"url"`
	Host      string        `koanf:"host"`
	Port      int           `koanf:"port"`
	DB        int           `koanf:"db"`
	Password  string        `koanf:"password"`
	PoolSize  int           `koanf:"pool_size"`
	OpTimeout time.Duration `koanf:"op_timeout"`
	Prefix    string        `koanf:"prefix"`

	LocalCapacity uint64 `koanf:"local_capacity"`
	Jitter        bool   `koanf:"jitter"`

	ACLTTL         time.Duration `koanf:"acl_ttl"`
	RolesTTL       time.Duration `koanf:"roles_ttl"`
	RoomMetaTTL    time.Duration `koanf:"room_meta_ttl"`
	RoomListingTTL time.Duration `koanf:"room_listing_ttl"`
	StatusTTL      time.Duration `koanf:"status_ttl"`
}

// AuthConfig configures sessions and REST admin tokens.
type AuthConfig struct {
	Type       string        `koanf:"type"`
	BadgerPath string        `koanf:"badger_path"`
	SessionTTL time.Duration `koanf:"session_ttl"`

	// HeartbeatTTL is the lifetime of the cluster heartbeat key refreshed
	// by REST authentication and the heartbeat verb.
	HeartbeatTTL time.Duration `koanf:"heartbeat_ttl"`

	AdminJWTSecret string        `koanf:"admin_jwt_secret"`
	AdminTokenTTL  time.Duration `koanf:"admin_token_ttl"`
	AdminIssuer    string        `koanf:"admin_issuer"`

	// DisconnectOnFailedLogin closes the socket LoginDisconnectDelay after a
	// rejected login.
	DisconnectOnFailedLogin bool          `koanf:"disconnect_on_failed_login"`
	LoginDisconnectDelay    time.Duration `koanf:"login_disconnect_delay"`
}

// StatsConfig configures the metrics endpoint.
type StatsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// HeartbeatConfig configures the reaper.
type HeartbeatConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`
}

// History strategies.
const (
	HistoryTop    = "top"
	HistoryUnread = "unread"
)

// HistoryConfig configures the history verb.
type HistoryConfig struct {
	Limit    int    `koanf:"limit"`
	Strategy string `koanf:"strategy"`
}

// WebConfig configures the REST surface.
type WebConfig struct {
	RootURL     string   `koanf:"root_url"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// Validation plugin names.
const (
	PluginNotFull        = "not_full"
	PluginLimitMsgLength = "limit_msg_length"
	PluginLimitLength    = "limit_length"
	PluginLimitAmount    = "limit_amount"
	PluginSingleSession  = "single_session"
)

// PluginConfig enables one request validation plugin.
type PluginConfig struct {
	Name      string `koanf:"name"`
	MaxUsers  int    `koanf:"max_users"`
	MaxLength int    `koanf:"max_length"`
	MinLength int    `koanf:"min_length"`
	MaxRooms  int    `koanf:"max_rooms"`
}

// ValidationConfig maps a verb to its plugin chain.
type ValidationConfig struct {
	Plugins map[string][]PluginConfig `koanf:"plugins"`
}

// ACL validator kinds.
const (
	ValidatorStrInCSV        = "str_in_csv"
	ValidatorRange           = "range"
	ValidatorSameChannel     = "samechannel"
	ValidatorSameRoom        = "sameroom"
	ValidatorDisallow        = "disallow"
	ValidatorAcceptedPattern = "accepted_pattern"
	ValidatorIsAdmin         = "is_admin"
	ValidatorIsSuperUser     = "is_super_user"
	ValidatorIsRoomOwner     = "is_room_owner"
)

// ACLConfig declares the ACL types the node understands.
type ACLConfig struct {
	// Available lists every ACL type accepted by set_acl.
	Available []string `koanf:"available"`
	// Room and Channel map an action to the ACL types allowed on it.
	Room    map[string][]string `koanf:"room"`
	Channel map[string][]string `koanf:"channel"`
	// Validators maps an ACL type to its validator kind.
	Validators map[string]string `koanf:"validators"`
}

// EnrichConfig stamps outbound activities.
type EnrichConfig struct {
	ProviderID  string `koanf:"provider_id"`
	ProviderURL string `koanf:"provider_url"`
	TitlePrefix string `koanf:"title_prefix"`
	TopicPrefix string `koanf:"topic_prefix"`
}

// SpamClassifierConfig configures the optional spam hook.
type SpamClassifierConfig struct {
	Enabled   bool          `koanf:"enabled"`
	URL       string        `koanf:"url"`
	MinLength int           `koanf:"min_length"`
	MaxLength int           `koanf:"max_length"`
	Timeout   time.Duration `koanf:"timeout"`
}

// RemoteConfig configures the whisper allow-list service.
type RemoteConfig struct {
	Enabled     bool          `koanf:"enabled"`
	URL         string        `koanf:"url"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxFailures uint32        `koanf:"max_failures"`
}

// ModerationConfig configures kick and ban side effects.
type ModerationConfig struct {
	KickBanDuration     time.Duration `koanf:"kick_ban_duration"`
	DeleteMessagesOnBan bool          `koanf:"delete_messages_on_ban"`
}

// RateLimitConfig bounds inbound traffic.
type RateLimitConfig struct {
	EventsPerSecond float64       `koanf:"events_per_second"`
	Burst           int           `koanf:"burst"`
	RESTRequests    int           `koanf:"rest_requests"`
	RESTWindow      time.Duration `koanf:"rest_window"`
}
