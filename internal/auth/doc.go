// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package auth holds the session store and the token check performed at login.

An integrating platform first calls the REST /authenticate endpoint with the
user's id, token and attributes (gender, age, country, ...). Those are kept
in a SessionStore keyed by user id. When a socket later sends login, the
Authenticator compares the presented token with the stored one in constant
time and returns the stored attributes as the connection's session. Stored
attributes are authoritative; client supplied values never replace them.

Session store backends:

  - memory: process-local map, single node only
  - redis: hash per user in the shared store, visible to every node
  - badger: durable local store for single-node deployments that must
    survive restarts

The package also issues and validates the HS256 admin tokens that guard the
REST surface.
*/
package auth
