// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package database

import (
	"context"
	"time"

	"github.com/tomtom215/dino/internal/models"
)

// UserRepository stores chat identities.
type UserRepository interface {
	// CreateUser inserts the user or refreshes its name.
	CreateUser(ctx context.Context, userID, name string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	GetUserName(ctx context.Context, userID string) (string, error)
	// GetUserID resolves a display name to a user id.
	GetUserID(ctx context.Context, name string) (string, error)
	SetUserStatus(ctx context.Context, userID string, status models.UserStatus) error
	SetLastOnline(ctx context.Context, userID string, at time.Time) error
	GetLastOnline(ctx context.Context, userID string) (time.Time, error)
}

// ChannelRepository stores channels.
type ChannelRepository interface {
	CreateChannel(ctx context.Context, ch models.Channel, ownerID string) error
	GetChannel(ctx context.Context, channelID string) (*models.Channel, error)
	GetChannels(ctx context.Context) ([]models.Channel, error)
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	ChannelForRoom(ctx context.Context, roomID string) (string, error)
	RemoveChannel(ctx context.Context, channelID string) error
}

// RoomRepository stores rooms and room membership.
type RoomRepository interface {
	// CreateRoom inserts the room and grants ownerID the owner role.
	// Returns ErrRoomExists if the channel already has a room with that name.
	CreateRoom(ctx context.Context, room models.Room, ownerID string) error
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
	GetRoomName(ctx context.Context, roomID string) (string, error)
	// RoomIDsForName returns every room id with the given name. An empty
	// channelID searches all channels.
	RoomIDsForName(ctx context.Context, channelID, name string) ([]string, error)
	RoomsForChannel(ctx context.Context, channelID string) ([]models.Room, error)
	// RoomsForUser returns room id -> room name for every membership row.
	RoomsForUser(ctx context.Context, userID string) (map[string]string, error)
	// UsersInRoom returns user id -> user name for every membership row.
	UsersInRoom(ctx context.Context, roomID string) (map[string]string, error)
	// JoinRoom adds the membership row and bumps the room join count.
	JoinRoom(ctx context.Context, userID, userName, roomID string) error
	LeaveRoom(ctx context.Context, userID, roomID string) error
	RemoveRoom(ctx context.Context, roomID string) error
	// CountPrivateRooms counts ephemeral rooms owned by the user.
	CountPrivateRooms(ctx context.Context, userID string) (int, error)
	AdminRoom(ctx context.Context) (string, error)
	CountJoins(ctx context.Context, roomIDs []string) (map[string]int64, error)
}

// RoleRepository stores scoped roles.
type RoleRepository interface {
	GetUserRoles(ctx context.Context, userID string) (*models.UserRoles, error)
	AddRole(ctx context.Context, userID string, scope models.ACLScope, scopeID string, role models.Role) error
	RemoveRole(ctx context.Context, userID string, scope models.ACLScope, scopeID string, role models.Role) error
	// UsersWithRole lists the user ids holding role in the scope instance.
	UsersWithRole(ctx context.Context, scope models.ACLScope, scopeID string, role models.Role) ([]string, error)
}

// ACLRepository stores ACLs attached to (object, action).
type ACLRepository interface {
	GetACLsForAction(ctx context.Context, scope models.ACLScope, id string, action models.ACLAction) (models.ACLSet, error)
	GetACLs(ctx context.Context, scope models.ACLScope, id string) (models.ACLs, error)
	// UpdateACL writes one (type, value) pair. An empty value removes the type.
	UpdateACL(ctx context.Context, scope models.ACLScope, id string, action models.ACLAction, aclType, value string) error
}

// BanRepository stores scoped bans.
type BanRepository interface {
	// BanUser creates or updates the ban for (user, scope, scope id).
	BanUser(ctx context.Context, ban models.Ban) error
	RemoveBan(ctx context.Context, userID string, scope models.ACLScope, scopeID string) error
	// GetUserBanStatus returns end times for global, the room's channel, and
	// the room. An empty roomID only checks the global scope.
	GetUserBanStatus(ctx context.Context, roomID, userID string) (models.BanStatus, error)
	// GetBans lists bans that are still active at now.
	GetBans(ctx context.Context, now time.Time) ([]models.Ban, error)
}

// MessageRepository stores the canonical message log and acknowledgements.
type MessageRepository interface {
	// StoreMessage inserts the message; storing the same id twice is a no-op.
	StoreMessage(ctx context.Context, msg models.Message) error
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	// DeleteMessage tombstones the message, optionally clearing its body.
	DeleteMessage(ctx context.Context, messageID string, clearBody bool) error
	// GetHistory returns up to limit undeleted messages of the target in
	// chronological order, most recent last.
	GetHistory(ctx context.Context, targetID string, limit int) ([]models.Message, error)
	// GetHistorySince returns undeleted messages published after since.
	GetHistorySince(ctx context.Context, targetID string, since time.Time, limit int) ([]models.Message, error)
	GetUndeletedMessageIDsForUser(ctx context.Context, userID string) ([]string, error)
	GetUndeletedMessageIDsForUserAndRoom(ctx context.Context, userID, roomID string) ([]string, error)
	// SetAckState raises the ack state of each message for userID. States
	// never go backwards.
	SetAckState(ctx context.Context, userID string, messageIDs []string, state models.AckState) error
	GetAckStates(ctx context.Context, userID string, messageIDs []string) (map[string]models.AckState, error)
	SetLastRead(ctx context.Context, roomID, userID string, at time.Time) error
	GetLastRead(ctx context.Context, roomID, userID string) (time.Time, error)
}

// BlacklistRepository stores forbidden words.
type BlacklistRepository interface {
	GetBlacklist(ctx context.Context) ([]string, error)
	AddBlacklistWords(ctx context.Context, words []string) error
	RemoveBlacklistWord(ctx context.Context, word string) error
}

// Repository is the full durable store contract.
type Repository interface {
	UserRepository
	ChannelRepository
	RoomRepository
	RoleRepository
	ACLRepository
	BanRepository
	MessageRepository
	BlacklistRepository

	Ping(ctx context.Context) error
	Close()
}
