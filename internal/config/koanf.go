// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dino/config.yaml",
	"/etc/dino/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix prefixes every environment override. Sections are separated by
// a double underscore: DINO_QUEUE__HOST sets queue.host.
const EnvPrefix = "DINO_"

func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5200,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			WSPath:          "/ws",
			MaxMessageSize:  64 << 10,
		},
		Queue: QueueConfig{
			Type:           QueueMock,
			Host:           "127.0.0.1",
			Port:           4222,
			Exchange:       "dino.internal",
			RevisionCap:    3,
			Retries:        3,
			RetryGap:       100 * time.Millisecond,
			PublishTimeout: 3 * time.Second,
			RecentlySent:   100,
			DedupSize:      1000,
		},
		ExtQueue: QueueConfig{
			Type:           QueueMock,
			Host:           "127.0.0.1",
			Port:           4222,
			Exchange:       "dino.external",
			RevisionCap:    3,
			Retries:        3,
			RetryGap:       100 * time.Millisecond,
			PublishTimeout: 3 * time.Second,
			RecentlySent:   100,
			DedupSize:      1000,
		},
		Database: DatabaseConfig{
			Type:            StoreMemory,
			MaxConns:        25,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			OpTimeout:       5 * time.Second,
			Migrate:         true,
		},
		Cache: CacheConfig{
			Type:           StoreMemory,
			Host:           "127.0.0.1",
			Port:           6379,
			PoolSize:       10,
			OpTimeout:      time.Second,
			Prefix:         "dino:",
			LocalCapacity:  100_000,
			Jitter:         true,
			ACLTTL:         7 * time.Minute,
			RolesTTL:       12 * time.Minute,
			RoomMetaTTL:    10 * time.Minute,
			RoomListingTTL: 30 * time.Second,
			StatusTTL:      5 * time.Second,
		},
		Auth: AuthConfig{
			Type:                    StoreMemory,
			BadgerPath:              "/data/sessions",
			SessionTTL:              24 * time.Hour,
			HeartbeatTTL:            60 * time.Second,
			AdminTokenTTL:           time.Hour,
			AdminIssuer:             "dino",
			DisconnectOnFailedLogin: true,
			LoginDisconnectDelay:    time.Second,
		},
		Stats: StatsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Interval: 10 * time.Second,
			Timeout:  60 * time.Second,
		},
		History: HistoryConfig{
			Limit:    100,
			Strategy: HistoryTop,
		},
		Web: WebConfig{
			CORSOrigins: []string{"*"},
		},
		SpamClassifier: SpamClassifierConfig{
			MinLength: 1,
			MaxLength: 4096,
			Timeout:   2 * time.Second,
		},
		Remote: RemoteConfig{
			Timeout:     2 * time.Second,
			MaxFailures: 5,
		},
		Moderation: ModerationConfig{
			KickBanDuration: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			EventsPerSecond: 20,
			Burst:           40,
			RESTRequests:    300,
			RESTWindow:      time.Minute,
		},
	}
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	cfg := defaultConfig()
	cfg.applyDefaults()
	return cfg
}

// Load reads defaults, then the config file, then DINO_ environment
// variables, and validates the result.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file; an empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps DINO_QUEUE__REVISION_CAP to queue.revision_cap.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"web.cors_origins",
	"acl.available",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// applyDefaults fills map-valued sections the struct provider cannot seed.
func (c *Config) applyDefaults() {
	if c.NodeID == "" {
		if host, err := os.Hostname(); err == nil {
			c.NodeID = host
		} else {
			c.NodeID = "dino"
		}
	}
	if len(c.ACL.Available) == 0 {
		c.ACL.Available = DefaultACLTypes()
	}
	if len(c.ACL.Validators) == 0 {
		c.ACL.Validators = DefaultACLValidators()
	}
	if len(c.ACL.Room) == 0 {
		c.ACL.Room = DefaultRoomACLActions()
	}
	if len(c.ACL.Channel) == 0 {
		c.ACL.Channel = DefaultChannelACLActions()
	}
	if c.Validation.Plugins == nil {
		c.Validation.Plugins = DefaultPlugins()
	}
}

// DefaultACLTypes lists the built-in ACL types.
func DefaultACLTypes() []string {
	return []string{
		"gender", "age", "country", "city", "membership", "spoken_language",
		"image", "has_webcam", "fake_checked", "samechannel", "sameroom",
		"disallow", "superuser", "admin", "is_room_owner", "accepted_pattern",
	}
}

// DefaultACLValidators maps the built-in types to validator kinds.
func DefaultACLValidators() map[string]string {
	return map[string]string{
		"gender":           ValidatorStrInCSV,
		"country":          ValidatorStrInCSV,
		"city":             ValidatorStrInCSV,
		"membership":       ValidatorStrInCSV,
		"spoken_language":  ValidatorStrInCSV,
		"image":            ValidatorStrInCSV,
		"has_webcam":       ValidatorStrInCSV,
		"fake_checked":     ValidatorStrInCSV,
		"age":              ValidatorRange,
		"samechannel":      ValidatorSameChannel,
		"sameroom":         ValidatorSameRoom,
		"disallow":         ValidatorDisallow,
		"superuser":        ValidatorIsSuperUser,
		"admin":            ValidatorIsAdmin,
		"is_room_owner":    ValidatorIsRoomOwner,
		"accepted_pattern": ValidatorAcceptedPattern,
	}
}

var attributeACLTypes = []string{
	"gender", "age", "country", "city", "membership", "spoken_language",
	"image", "has_webcam", "fake_checked", "accepted_pattern", "disallow",
}

func withTypes(extra ...string) []string {
	out := make([]string, 0, len(attributeACLTypes)+len(extra))
	out = append(out, attributeACLTypes...)
	return append(out, extra...)
}

// DefaultRoomACLActions lists the ACL types allowed per room action.
func DefaultRoomACLActions() map[string][]string {
	return map[string][]string{
		"join":     withTypes("superuser", "admin", "is_room_owner"),
		"autojoin": withTypes(),
		"message":  withTypes("superuser", "admin", "is_room_owner"),
		"history":  withTypes("superuser", "admin"),
		"kick":     {"superuser", "admin", "is_room_owner", "disallow"},
		"ban":      {"superuser", "admin", "is_room_owner", "disallow"},
		"setacl":   {"superuser", "admin", "is_room_owner", "disallow"},
		"list":     withTypes(),
	}
}

// DefaultChannelACLActions lists the ACL types allowed per channel action.
func DefaultChannelACLActions() map[string][]string {
	return map[string][]string{
		"join":      withTypes("superuser", "admin"),
		"message":   withTypes("superuser", "admin"),
		"crossroom": {"samechannel", "disallow"},
		"whisper":   withTypes("samechannel", "sameroom"),
		"list":      withTypes(),
		"create":    withTypes("superuser", "admin"),
		"history":   withTypes(),
		"setacl":    {"superuser", "admin", "disallow"},
	}
}

// DefaultPlugins enables the room cap and length checks on their verbs.
func DefaultPlugins() map[string][]PluginConfig {
	return map[string][]PluginConfig{
		"join":    {{Name: PluginNotFull, MaxUsers: 500}},
		"message": {{Name: PluginLimitMsgLength, MaxLength: 1000}},
		"create":  {{Name: PluginLimitLength, MinLength: 3, MaxLength: 120}, {Name: PluginLimitAmount, MaxRooms: 50}},
		"whisper": {{Name: PluginLimitMsgLength, MaxLength: 1000}},
	}
}
