// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package config loads the node configuration with koanf.

Layers, later overriding earlier:

 1. Struct defaults (defaultConfig)
 2. YAML file at CONFIG_PATH, ./config.yaml or /etc/dino/config.yaml
 3. Environment variables prefixed DINO_, with __ separating sections

Examples:

	DINO_QUEUE__TYPE=nats
	DINO_QUEUE__HOST=nats.internal
	DINO_DATABASE__DSN=postgres://dino:secret@db/dino
	DINO_WEB__CORS_ORIGINS=https://a.example,https://b.example

Map-valued sections (acl, validation.plugins) are seeded after unmarshal
when the file leaves them empty. Validate reports every problem at once.
*/
package config
