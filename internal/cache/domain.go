// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tomtom215/dino/internal/models"
	"github.com/tomtom215/dino/internal/sharedstore"
)

// TTLs holds the base lifetimes of local entries before jitter.
type TTLs struct {
	ACL         time.Duration
	Roles       time.Duration
	RoomMeta    time.Duration
	RoomListing time.Duration
	Status      time.Duration
	Blacklist   time.Duration
	Whisper     time.Duration
	// BanShared bounds how long a mirrored ban timestamp lives in the
	// shared tier; the repository stays authoritative.
	BanShared time.Duration
}

// DefaultTTLs returns the production lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		ACL:         7 * time.Minute,
		Roles:       12 * time.Minute,
		RoomMeta:    10 * time.Minute,
		RoomListing: 30 * time.Second,
		Status:      5 * time.Second,
		Blacklist:   5 * time.Minute,
		Whisper:     5 * time.Minute,
		BanShared:   time.Hour,
	}
}

// Cache is the two-tier domain cache. Getters return ok=false on a miss and
// the caller falls back to the repository. Writers in the owning component
// call the matching Reset method after commit.
//
// Values returned from the local tier are shared; callers must not mutate
// them.
type Cache struct {
	local  *Local
	store  sharedstore.Store
	prefix string
	ttl    TTLs
}

// New wires the two tiers. prefix namespaces shared keys, e.g. "dino:".
func New(local *Local, store sharedstore.Store, prefix string, ttl TTLs) *Cache {
	return &Cache{local: local, store: store, prefix: prefix, ttl: ttl}
}

// Local exposes the local tier.
func (c *Cache) Local() *Local { return c.local }

// Store exposes the shared tier.
func (c *Cache) Store() sharedstore.Store { return c.store }

func (c *Cache) key(k string) string { return c.prefix + k }

// =============================================================================
// Roles
// =============================================================================

// GetUserRoles returns cached roles.
func (c *Cache) GetUserRoles(userID string) (*models.UserRoles, bool) {
	return getAs[*models.UserRoles](c.local, kRoles+userID)
}

// SetUserRoles caches roles.
func (c *Cache) SetUserRoles(userID string, roles *models.UserRoles) {
	c.local.Set(kRoles+userID, roles, c.ttl.Roles)
}

// ResetUserRoles invalidates a user's roles.
func (c *Cache) ResetUserRoles(userID string) {
	c.local.Delete(kRoles + userID)
}

// =============================================================================
// ACLs
// =============================================================================

// GetACLsForAction returns the cached ACL set for (target, action).
func (c *Cache) GetACLsForAction(scope models.ACLScope, id string, action models.ACLAction) (models.ACLSet, bool) {
	return getAs[models.ACLSet](c.local, aclActionKey(scope, id, action))
}

// SetACLsForAction caches the ACL set for (target, action).
func (c *Cache) SetACLsForAction(scope models.ACLScope, id string, action models.ACLAction, acls models.ACLSet) {
	c.local.Set(aclActionKey(scope, id, action), acls, c.ttl.ACL)
}

// GetACLs returns every cached ACL of a target.
func (c *Cache) GetACLs(scope models.ACLScope, id string) (models.ACLs, bool) {
	return getAs[models.ACLs](c.local, aclAllKey(scope, id))
}

// SetACLs caches every ACL of a target.
func (c *Cache) SetACLs(scope models.ACLScope, id string, acls models.ACLs) {
	c.local.Set(aclAllKey(scope, id), acls, c.ttl.ACL)
}

// ResetACLsForAction invalidates one action of a target.
func (c *Cache) ResetACLsForAction(scope models.ACLScope, id string, action models.ACLAction) {
	c.local.Delete(aclActionKey(scope, id, action), aclAllKey(scope, id))
}

// ResetACLs invalidates every action of a target.
func (c *Cache) ResetACLs(scope models.ACLScope, id string) {
	c.local.DeletePrefix(aclScopePrefix(scope, id))
	c.local.Delete(aclAllKey(scope, id))
}

// =============================================================================
// Rooms and channels
// =============================================================================

// RoomExists returns a cached existence answer.
func (c *Cache) RoomExists(roomID string) (exists, ok bool) {
	return getAs[bool](c.local, kRoomExists+roomID)
}

// SetRoomExists caches a room's existence.
func (c *Cache) SetRoomExists(roomID string, exists bool) {
	c.local.Set(kRoomExists+roomID, exists, c.ttl.RoomMeta)
}

// GetRoomName reads the local tier, then the shared name map.
func (c *Cache) GetRoomName(ctx context.Context, roomID string) (string, bool) {
	if name, ok := getAs[string](c.local, kRoomName+roomID); ok {
		return name, true
	}
	name, err := c.store.HGet(ctx, c.key(sRoomNames), roomID)
	if err != nil {
		return "", false
	}
	c.local.Set(kRoomName+roomID, name, c.ttl.RoomMeta)
	return name, true
}

// SetRoomName writes both tiers.
func (c *Cache) SetRoomName(ctx context.Context, roomID, name string) error {
	c.local.Set(kRoomName+roomID, name, c.ttl.RoomMeta)
	return c.store.HSet(ctx, c.key(sRoomNames), map[string]string{roomID: name})
}

// GetChannelName reads the local tier, then the shared name map.
func (c *Cache) GetChannelName(ctx context.Context, channelID string) (string, bool) {
	if name, ok := getAs[string](c.local, kChannelName+channelID); ok {
		return name, true
	}
	name, err := c.store.HGet(ctx, c.key(sChannelNames), channelID)
	if err != nil {
		return "", false
	}
	c.local.Set(kChannelName+channelID, name, c.ttl.RoomMeta)
	return name, true
}

// SetChannelName writes both tiers.
func (c *Cache) SetChannelName(ctx context.Context, channelID, name string) error {
	c.local.Set(kChannelName+channelID, name, c.ttl.RoomMeta)
	return c.store.HSet(ctx, c.key(sChannelNames), map[string]string{channelID: name})
}

// GetChannelForRoom returns the cached parent channel of a room.
func (c *Cache) GetChannelForRoom(roomID string) (string, bool) {
	return getAs[string](c.local, kRoomChannel+roomID)
}

// SetChannelForRoom caches the parent channel of a room.
func (c *Cache) SetChannelForRoom(roomID, channelID string) {
	c.local.Set(kRoomChannel+roomID, channelID, c.ttl.RoomMeta)
}

// GetRoomIDForName returns the cached id of a named room in a channel.
func (c *Cache) GetRoomIDForName(channelID, name string) (string, bool) {
	return getAs[string](c.local, roomForNameKey(channelID, name))
}

// SetRoomIDForName caches a name resolution.
func (c *Cache) SetRoomIDForName(channelID, name, roomID string) {
	c.local.Set(roomForNameKey(channelID, name), roomID, c.ttl.RoomMeta)
}

// GetUsersInRoom returns the cached visible-users view for a requester class.
func (c *Cache) GetUsersInRoom(roomID string, isSuper bool) (map[string]string, bool) {
	return getAs[map[string]string](c.local, usersInRoomKey(roomID, isSuper))
}

// SetUsersInRoom caches the visible-users view for a requester class.
func (c *Cache) SetUsersInRoom(roomID string, isSuper bool, users map[string]string) {
	c.local.Set(usersInRoomKey(roomID, isSuper), users, c.ttl.RoomListing)
}

// ResetUsersInRoom invalidates both views of a room.
func (c *Cache) ResetUsersInRoom(roomID string) {
	c.local.Delete(usersInRoomKey(roomID, true), usersInRoomKey(roomID, false))
}

// GetRoomsForChannel returns a cached room listing.
func (c *Cache) GetRoomsForChannel(channelID string) ([]models.Room, bool) {
	return getAs[[]models.Room](c.local, kRoomList+channelID)
}

// SetRoomsForChannel caches a room listing.
func (c *Cache) SetRoomsForChannel(channelID string, rooms []models.Room) {
	c.local.Set(kRoomList+channelID, rooms, c.ttl.RoomListing)
}

// ResetRoomsForChannel invalidates a room listing.
func (c *Cache) ResetRoomsForChannel(channelID string) {
	c.local.Delete(kRoomList + channelID)
}

// GetChannels returns the cached channel listing.
func (c *Cache) GetChannels() ([]models.Channel, bool) {
	return getAs[[]models.Channel](c.local, kChannelList)
}

// SetChannels caches the channel listing.
func (c *Cache) SetChannels(channels []models.Channel) {
	c.local.Set(kChannelList, channels, c.ttl.RoomListing)
}

// ResetChannels invalidates the channel listing.
func (c *Cache) ResetChannels() { c.local.Delete(kChannelList) }

// GetAdminRoom returns the cached admin room id.
func (c *Cache) GetAdminRoom() (string, bool) {
	return getAs[string](c.local, kAdminRoom)
}

// SetAdminRoom caches the admin room id.
func (c *Cache) SetAdminRoom(roomID string) {
	c.local.Set(kAdminRoom, roomID, c.ttl.RoomMeta)
}

// RemoveRoom invalidates everything cached about a deleted room: existence,
// name, id-for-name, parent channel, ACLs, visible-user views and the
// parent channel's listing.
func (c *Cache) RemoveRoom(ctx context.Context, roomID, channelID, name string) error {
	c.local.Delete(
		kRoomExists+roomID,
		kRoomName+roomID,
		kRoomChannel+roomID,
		roomForNameKey(channelID, name),
		kRoomList+channelID,
		kAdminRoom,
	)
	c.ResetACLs(models.ScopeRoom, roomID)
	c.ResetUsersInRoom(roomID)
	// Role views embed per-room roles of many users; drop them all.
	c.local.DeletePrefix(kRoles)
	return c.store.HDel(ctx, c.key(sRoomNames), roomID)
}

// =============================================================================
// Blacklist and whisper
// =============================================================================

// GetBlacklist returns the cached keyword automaton.
func (c *Cache) GetBlacklist() (*Keywords, bool) {
	return getAs[*Keywords](c.local, kBlacklist)
}

// SetBlacklist builds and caches the automaton for words.
func (c *Cache) SetBlacklist(words []string) *Keywords {
	kw := NewKeywords(words)
	c.local.Set(kBlacklist, kw, c.ttl.Blacklist)
	return kw
}

// ResetBlacklist invalidates the blacklist.
func (c *Cache) ResetBlacklist() { c.local.Delete(kBlacklist) }

// IsWhisperAllowed reports a cached positive whisper decision. Denials are
// never cached so they are always re-checked remotely.
func (c *Cache) IsWhisperAllowed(sender, target string) bool {
	_, ok := c.local.Get(whisperKey(sender, target))
	return ok
}

// SetWhisperAllowed caches a positive whisper decision.
func (c *Cache) SetWhisperAllowed(sender, target string) {
	c.local.Set(whisperKey(sender, target), true, c.ttl.Whisper)
}

// =============================================================================
// Bans (shared)
// =============================================================================

// GetBanEnd returns the mirrored end time of a ban. ok=false is a miss; a
// hit with a zero time means "known not banned".
func (c *Cache) GetBanEnd(ctx context.Context, userID string, scope models.ACLScope, scopeID string) (time.Time, bool) {
	v, err := c.store.Get(ctx, c.key(banKey(userID, scope, scopeID)))
	if err != nil {
		return time.Time{}, false
	}
	if v == "" {
		return time.Time{}, true
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// SetBanEnd mirrors a ban end time; zero stores "not banned".
func (c *Cache) SetBanEnd(ctx context.Context, userID string, scope models.ACLScope, scopeID string, end time.Time) error {
	v := ""
	ttl := c.ttl.BanShared
	if !end.IsZero() {
		v = strconv.FormatInt(end.Unix(), 10)
		if until := time.Until(end); until > 0 && until < ttl {
			ttl = until
		}
	}
	return c.store.Set(ctx, c.key(banKey(userID, scope, scopeID)), v, ttl)
}

// ResetBan invalidates the mirrored timestamp of one scope instance.
func (c *Cache) ResetBan(ctx context.Context, userID string, scope models.ACLScope, scopeID string) error {
	return c.store.Del(ctx, c.key(banKey(userID, scope, scopeID)))
}

// =============================================================================
// Status and presence sets (shared)
// =============================================================================

// SetUserStatus updates the status scalar together with the online set, the
// online bitmap and the multicast set:
//
//	online    -> in online, in multicast
//	invisible -> not in online, in multicast
//	offline   -> in neither
func (c *Cache) SetUserStatus(ctx context.Context, userID string, status models.UserStatus) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(c.store.Set(ctx, c.key(sStatus+userID), string(status), 0))
	bit := 0
	switch {
	case status.IsOnline():
		bit = 1
		add(c.store.SAdd(ctx, c.key(sOnlineSet), userID))
		add(c.store.SAdd(ctx, c.key(sMulticastSet), userID))
	case status == models.StatusInvisible:
		add(c.store.SRem(ctx, c.key(sOnlineSet), userID))
		add(c.store.SAdd(ctx, c.key(sMulticastSet), userID))
	default:
		add(c.store.SRem(ctx, c.key(sOnlineSet), userID))
		add(c.store.SRem(ctx, c.key(sMulticastSet), userID))
	}
	if offset, err := strconv.ParseInt(userID, 10, 64); err == nil && offset >= 0 {
		add(c.store.SetBit(ctx, c.key(sOnlineBitmap), offset, bit))
	}
	c.local.Delete(sStatus + userID)
	return errors.Join(errs...)
}

// GetUserStatus returns the status scalar, briefly cached locally.
func (c *Cache) GetUserStatus(ctx context.Context, userID string) (models.UserStatus, bool) {
	if s, ok := getAs[models.UserStatus](c.local, sStatus+userID); ok {
		return s, true
	}
	v, err := c.store.Get(ctx, c.key(sStatus+userID))
	if err != nil {
		return "", false
	}
	s := models.ParseUserStatus(v)
	c.local.Set(sStatus+userID, s, c.ttl.Status)
	return s, true
}

// IsOnline reports membership of the online set.
func (c *Cache) IsOnline(ctx context.Context, userID string) (bool, error) {
	return c.store.SIsMember(ctx, c.key(sOnlineSet), userID)
}

// IsMulticastEligible reports membership of the multicast set.
func (c *Cache) IsMulticastEligible(ctx context.Context, userID string) (bool, error) {
	return c.store.SIsMember(ctx, c.key(sMulticastSet), userID)
}

// IsOnlineBit reads the online bitmap.
func (c *Cache) IsOnlineBit(ctx context.Context, userID string) (bool, error) {
	offset, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || offset < 0 {
		return false, nil
	}
	bit, err := c.store.GetBit(ctx, c.key(sOnlineBitmap), offset)
	return bit == 1, err
}

// OnlineUsers lists the online set.
func (c *Cache) OnlineUsers(ctx context.Context) ([]string, error) {
	return c.store.SMembers(ctx, c.key(sOnlineSet))
}

// =============================================================================
// Sid map (shared)
// =============================================================================

// AddSid records sid as one of userID's sockets.
func (c *Cache) AddSid(ctx context.Context, userID, sid string) error {
	if err := c.store.SAdd(ctx, c.key(sSids+userID), sid); err != nil {
		return err
	}
	return c.store.Set(ctx, c.key(sSidUser+sid), userID, 0)
}

// RemoveSid forgets sid.
func (c *Cache) RemoveSid(ctx context.Context, userID, sid string) error {
	if err := c.store.SRem(ctx, c.key(sSids+userID), sid); err != nil {
		return err
	}
	return c.store.Del(ctx, c.key(sSidUser+sid))
}

// SidsForUser lists every socket of userID across the cluster.
func (c *Cache) SidsForUser(ctx context.Context, userID string) ([]string, error) {
	return c.store.SMembers(ctx, c.key(sSids+userID))
}

// UserForSid resolves a socket to its user.
func (c *Cache) UserForSid(ctx context.Context, sid string) (string, bool) {
	v, err := c.store.Get(ctx, c.key(sSidUser+sid))
	if err != nil {
		return "", false
	}
	return v, true
}

// =============================================================================
// Last read and heartbeat (shared)
// =============================================================================

// SetLastRead stores when userID last read roomID.
func (c *Cache) SetLastRead(ctx context.Context, roomID, userID string, at time.Time) error {
	return c.store.HSet(ctx, c.key(lastReadKey(roomID)), map[string]string{
		userID: strconv.FormatInt(at.Unix(), 10),
	})
}

// GetLastRead returns the cached last-read time.
func (c *Cache) GetLastRead(ctx context.Context, roomID, userID string) (time.Time, bool) {
	v, err := c.store.HGet(ctx, c.key(lastReadKey(roomID)), userID)
	if err != nil {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}

// SetHeartbeat refreshes userID's cluster-wide heartbeat key.
func (c *Cache) SetHeartbeat(ctx context.Context, userID string, ttl time.Duration) error {
	return c.store.Set(ctx, c.key(sHeartbeat+userID), strconv.FormatInt(time.Now().Unix(), 10), ttl)
}

// HasHeartbeat reports whether any node refreshed userID's heartbeat key
// within its TTL.
func (c *Cache) HasHeartbeat(ctx context.Context, userID string) (bool, error) {
	return c.store.Exists(ctx, c.key(sHeartbeat+userID))
}

// ResetHeartbeat drops userID's heartbeat key.
func (c *Cache) ResetHeartbeat(ctx context.Context, userID string) error {
	return c.store.Del(ctx, c.key(sHeartbeat+userID))
}

// =============================================================================
// Maintenance
// =============================================================================

// Flush clears the local tier. Shared truths are left alone.
func (c *Cache) Flush() { c.local.Clear() }
