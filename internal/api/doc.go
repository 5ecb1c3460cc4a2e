// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

/*
Package api is the admin and integration REST surface of a chat node.

Every endpoint replies with the same envelope as socket events:

	{"status_code": 200, "data": ...}
	{"status_code": 802, "msg": "no such room"}

status_code is a wire code (see package activity); the HTTP status mirrors
its group: 200 for OK, 400 for missing or invalid input, 403 for denials,
404 for unknown entities and 500 for infrastructure errors.

Routes (all JSON):

	POST   /ban               ban a user globally, from a channel or a room
	GET    /banned            active bans
	POST   /unban             lift a ban
	POST   /kick              kick a user from a room
	POST   /blacklist         add forbidden words
	DELETE /blacklist         remove a forbidden word (?word=)
	POST   /broadcast         message every connected socket
	POST   /create            create an ephemeral room with initial members
	POST   /delete-messages   tombstone a user's messages
	GET    /history           room history since a time
	GET    /latest-history    last messages of a room
	POST   /full-history      every message sent by a user
	GET    /acl               ACLs of a room or channel
	POST   /acl               update ACLs of a room or channel
	GET    /rooms             every room by channel
	GET    /rooms-acl         rooms a user may list
	GET    /rooms-for-users   rooms each user is in
	GET    /users-in-rooms    visible users of each room
	GET    /count-joins       join counters
	GET    /roles             roles of users
	POST   /set-admin         grant global moderator
	POST   /remove-admin      revoke global moderator
	POST   /status            change a user's status
	POST   /send              send a message as an admin
	POST   /heartbeat         refresh a user's heartbeat
	POST   /authenticate      register a session for a frontend login
	GET    /last-online       when a user was last online
	POST   /logout            drop a session and close its sockets
	POST   /cache-cleanup     flush the process-local cache

Admin routes require a bearer token issued by auth.JWTManager when an admin
secret is configured. /health/live, /health/ready and the metrics endpoint
are open. The websocket gateway is mounted on the same router.
*/
package api
