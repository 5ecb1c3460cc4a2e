// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package activity

import "strconv"

// Code is a wire error code. Values are part of the client protocol and must
// never be renumbered.
type Code int

// 2xx: success and catch-all.
const (
	OK           Code = 200
	UnknownError Code = 250
)

// 5xx: missing required fields.
const (
	MissingActorID           Code = 500
	MissingObjectID          Code = 501
	MissingTargetID          Code = 502
	MissingObjectURL         Code = 503
	MissingTargetDisplayName Code = 504
	MissingActorURL          Code = 505
	MissingObjectContent     Code = 506
	MissingObject            Code = 507
	MissingObjectAttachments Code = 508
	MissingAttachmentType    Code = 509
	MissingAttachmentContent Code = 510
	MissingVerb              Code = 511
	MissingTargetObjectType  Code = 512
	MissingObjectDisplayName Code = 513
	MissingActorDisplayName  Code = 514
	MissingTarget            Code = 515
	MissingObjectSummary     Code = 516
)

// 6xx: invalid values.
const (
	InvalidTargetType  Code = 600
	InvalidACLType     Code = 601
	InvalidACLAction   Code = 602
	InvalidACLValue    Code = 603
	InvalidStatus      Code = 604
	InvalidAPIAction   Code = 605
	InvalidBanDuration Code = 606
	InvalidObjectType  Code = 607
	InvalidVerb        Code = 608
)

// 7xx: semantic denials.
const (
	EmptyMessage                   Code = 700
	NotBase64                      Code = 701
	UserNotInRoom                  Code = 702
	UserIsBanned                   Code = 703
	RoomAlreadyExists              Code = 704
	NotAllowed                     Code = 705
	ValidationError                Code = 706
	RoomFull                       Code = 707
	NotOnline                      Code = 708
	TooManyPrivateRooms            Code = 709
	RoomNameTooLong                Code = 710
	RoomNameTooShort               Code = 711
	InvalidToken                   Code = 712
	InvalidLogin                   Code = 713
	MsgTooLong                     Code = 714
	MultipleRoomsWithName          Code = 715
	TooManyAttachments             Code = 716
	NotEnabled                     Code = 717
	RoomNameRestricted             Code = 718
	NotAllowedToWhisperChannel     Code = 719
	NotAllowedToWhisperDisabled    Code = 720
	NotAllowedToWhisperNotAContact Code = 721
	NotAllowedToWhisperNotOnline   Code = 722
	RemoteError                    Code = 723
)

// 8xx: not found.
const (
	NoSuchUser       Code = 800
	NoSuchChannel    Code = 801
	NoSuchRoom       Code = 802
	NoAdminRoomFound Code = 803
	NoUserInSession  Code = 804
	NoAdminOnline    Code = 805
	NoSuchMessage    Code = 806
)

var codeNames = map[Code]string{
	OK:           "OK",
	UnknownError: "UNKNOWN_ERROR",

	MissingActorID:           "MISSING_ACTOR_ID",
	MissingObjectID:          "MISSING_OBJECT_ID",
	MissingTargetID:          "MISSING_TARGET_ID",
	MissingObjectURL:         "MISSING_OBJECT_URL",
	MissingTargetDisplayName: "MISSING_TARGET_DISPLAY_NAME",
	MissingActorURL:          "MISSING_ACTOR_URL",
	MissingObjectContent:     "MISSING_OBJECT_CONTENT",
	MissingObject:            "MISSING_OBJECT",
	MissingObjectAttachments: "MISSING_OBJECT_ATTACHMENTS",
	MissingAttachmentType:    "MISSING_ATTACHMENT_TYPE",
	MissingAttachmentContent: "MISSING_ATTACHMENT_CONTENT",
	MissingVerb:              "MISSING_VERB",
	MissingTargetObjectType:  "MISSING_TARGET_OBJECT_TYPE",
	MissingObjectDisplayName: "MISSING_OBJECT_DISPLAY_NAME",
	MissingActorDisplayName:  "MISSING_ACTOR_DISPLAY_NAME",
	MissingTarget:            "MISSING_TARGET",
	MissingObjectSummary:     "MISSING_OBJECT_SUMMARY",

	InvalidTargetType:  "INVALID_TARGET_TYPE",
	InvalidACLType:     "INVALID_ACL_TYPE",
	InvalidACLAction:   "INVALID_ACL_ACTION",
	InvalidACLValue:    "INVALID_ACL_VALUE",
	InvalidStatus:      "INVALID_STATUS",
	InvalidAPIAction:   "INVALID_API_ACTION",
	InvalidBanDuration: "INVALID_BAN_DURATION",
	InvalidObjectType:  "INVALID_OBJECT_TYPE",
	InvalidVerb:        "INVALID_VERB",

	EmptyMessage:                   "EMPTY_MESSAGE",
	NotBase64:                      "NOT_BASE64",
	UserNotInRoom:                  "USER_NOT_IN_ROOM",
	UserIsBanned:                   "USER_IS_BANNED",
	RoomAlreadyExists:              "ROOM_ALREADY_EXISTS",
	NotAllowed:                     "NOT_ALLOWED",
	ValidationError:                "VALIDATION_ERROR",
	RoomFull:                       "ROOM_FULL",
	NotOnline:                      "NOT_ONLINE",
	TooManyPrivateRooms:            "TOO_MANY_PRIVATE_ROOMS",
	RoomNameTooLong:                "ROOM_NAME_TOO_LONG",
	RoomNameTooShort:               "ROOM_NAME_TOO_SHORT",
	InvalidToken:                   "INVALID_TOKEN",
	InvalidLogin:                   "INVALID_LOGIN",
	MsgTooLong:                     "MSG_TOO_LONG",
	MultipleRoomsWithName:          "MULTIPLE_ROOMS_WITH_NAME",
	TooManyAttachments:             "TOO_MANY_ATTACHMENTS",
	NotEnabled:                     "NOT_ENABLED",
	RoomNameRestricted:             "ROOM_NAME_RESTRICTED",
	NotAllowedToWhisperChannel:     "NOT_ALLOWED_TO_WHISPER_CHANNEL",
	NotAllowedToWhisperDisabled:    "NOT_ALLOWED_TO_WHISPER_DISABLED",
	NotAllowedToWhisperNotAContact: "NOT_ALLOWED_TO_WHISPER_NOT_A_CONTACT",
	NotAllowedToWhisperNotOnline:   "NOT_ALLOWED_TO_WHISPER_NOT_ONLINE",
	RemoteError:                    "REMOTE_ERROR",

	NoSuchUser:       "NO_SUCH_USER",
	NoSuchChannel:    "NO_SUCH_CHANNEL",
	NoSuchRoom:       "NO_SUCH_ROOM",
	NoAdminRoomFound: "NO_ADMIN_ROOM_FOUND",
	NoUserInSession:  "NO_USER_IN_SESSION",
	NoAdminOnline:    "NO_ADMIN_ONLINE",
	NoSuchMessage:    "NO_SUCH_MESSAGE",
}

// String returns the symbolic name of the code, e.g. "NOT_ALLOWED".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "CODE_" + strconv.Itoa(int(c))
}

// IsOK reports whether the code belongs to the success group.
func (c Code) IsOK() bool {
	return c == OK
}

// Group returns the hundreds group of the code (2, 5, 6, 7 or 8).
func (c Code) Group() int {
	return int(c) / 100
}
