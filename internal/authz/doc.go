// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package authz decides what a chat role is allowed to do, using Casbin.
//
// Roles are scoped (global, channel, room) and stored per user in
// models.UserRoles. The policy maps a (role, scope) pair to permissions:
//
//	bypass     skip ACL validation for the object
//	moderate   kick, ban and delete messages
//	setacl     edit ACLs
//	protected  cannot be kicked or banned
//
// # Model
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
//
// The subject is a role name and the object the scope the role was granted
// in. superuser inherits every globalmod permission.
//
// A policy file can replace the built-in policy via EnforcerConfig.PolicyPath.
// Decisions are memoized until the policy is reloaded.
package authz
