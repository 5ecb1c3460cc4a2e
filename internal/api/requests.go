// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/validation"
)

// maxBodyBytes bounds a REST request body.
const maxBodyBytes = 1 << 20

// Text fields marked base64 carry user text encoded the same way as on the
// socket protocol.

type banRequest struct {
	UserID   string `json:"user_id" validate:"required,userid" code:"MISSING_OBJECT_ID"`
	Type     string `json:"target_type" validate:"omitempty,oneof=global channel room" code:"INVALID_TARGET_TYPE"`
	Target   string `json:"target"`
	Duration string `json:"duration" validate:"required,banduration" code:"INVALID_BAN_DURATION"`
	Reason   string `json:"reason" validate:"omitempty,base64"`
	AdminID  string `json:"admin_id"`
}

type unbanRequest struct {
	UserID string `json:"user_id" validate:"required,userid" code:"MISSING_OBJECT_ID"`
	Type   string `json:"target_type" validate:"omitempty,oneof=global channel room" code:"INVALID_TARGET_TYPE"`
	Target string `json:"target"`
}

type kickRequest struct {
	UserID  string `json:"user_id" validate:"required,userid" code:"MISSING_OBJECT_ID"`
	RoomID  string `json:"room_id" validate:"required" code:"MISSING_TARGET_ID"`
	Reason  string `json:"reason" validate:"omitempty,base64"`
	AdminID string `json:"admin_id"`
}

type blacklistRequest struct {
	Words []string `json:"words" validate:"required,min=1,dive,required" code:"MISSING_OBJECT_CONTENT"`
}

type broadcastRequest struct {
	Body     string `json:"body" validate:"required,base64" code:"NOT_BASE64"`
	SenderID string `json:"sender_id"`
}

type createRequest struct {
	ChannelID string   `json:"channel_id" validate:"required" code:"MISSING_OBJECT_URL"`
	RoomName  string   `json:"room_name" validate:"required" code:"MISSING_TARGET_DISPLAY_NAME"`
	OwnerID   string   `json:"owner_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
	Members   []string `json:"members" validate:"dive,userid"`
}

type deleteMessagesRequest struct {
	UserID string `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
	RoomID string `json:"room_id"`
}

type userRequest struct {
	UserID string `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
}

type aclEntry struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

type aclRequest struct {
	Type   string     `json:"type" validate:"required,aclscope" code:"MISSING_TARGET_OBJECT_TYPE"`
	Target string     `json:"target" validate:"required" code:"MISSING_TARGET_ID"`
	ACLs   []aclEntry `json:"acls" validate:"required,min=1" code:"MISSING_OBJECT_ATTACHMENTS"`
}

type statusRequest struct {
	UserID string `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
	Status string `json:"status" validate:"required,oneof=online offline invisible visible" code:"INVALID_STATUS"`
}

type sendRequest struct {
	UserID     string `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
	UserName   string `json:"user_name" validate:"required" code:"MISSING_ACTOR_DISPLAY_NAME"`
	ObjectType string `json:"object_type" validate:"required,oneof=room private" code:"INVALID_TARGET_TYPE"`
	TargetID   string `json:"target_id" validate:"required" code:"MISSING_TARGET_ID"`
	Content    string `json:"content" validate:"required,base64" code:"NOT_BASE64"`
}

type authenticateRequest struct {
	UserID     string            `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
	Token      string            `json:"token" validate:"required" code:"INVALID_TOKEN"`
	Attributes map[string]string `json:"attributes"`
}

// decodeBody reads a JSON body into v and validates it. On failure the
// reply is written and false returned.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFail(w, r, activity.ValidationError, "request body too large")
			return false
		}
		writeFail(w, r, activity.ValidationError, "could not read request body")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeFail(w, r, activity.ValidationError, "invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		writeResult(w, r, verr.ToResult())
		return false
	}
	return true
}

// queryList splits a comma separated query parameter, dropping blanks.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// queryLimit parses ?limit=, returning 0 when absent.
func queryLimit(r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 10000 {
		return 0, false
	}
	return n, true
}

// queryTime parses an RFC3339 or ActivityStreams timestamp.
func queryTime(r *http.Request, name string) (time.Time, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339Nano, activity.TimeFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
