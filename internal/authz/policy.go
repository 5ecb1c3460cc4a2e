// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package authz

// Permissions checked against the policy.
const (
	PermBypass    = "bypass"
	PermModerate  = "moderate"
	PermSetACL    = "setacl"
	PermProtected = "protected"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const defaultPolicy = `
# global roles
p, globalmod, global, bypass
p, globalmod, global, moderate
p, globalmod, global, protected
p, superuser, global, setacl
g, superuser, globalmod

# channel roles
p, owner, channel, bypass
p, owner, channel, moderate
p, owner, channel, setacl
p, admin, channel, bypass
p, admin, channel, moderate
p, admin, channel, setacl

# room roles
p, owner, room, bypass
p, owner, room, moderate
p, owner, room, setacl
p, moderator, room, moderate
`
