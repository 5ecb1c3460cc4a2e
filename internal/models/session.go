// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package models

import "strings"

// Session attribute keys.
const (
	SessionUserID         = "user_id"
	SessionUserName       = "user_name"
	SessionToken          = "token"
	SessionGender         = "gender"
	SessionAge            = "age"
	SessionMembership     = "membership"
	SessionCountry        = "country"
	SessionCity           = "city"
	SessionSpokenLanguage = "spoken_language"
	SessionHasWebcam      = "has_webcam"
	SessionFakeChecked    = "fake_checked"
	SessionImage          = "image"
	SessionAvatar         = "avatar"
	SessionAppAvatar      = "app_avatar"
	SessionAppAvatarSafe  = "app_avatar_safe"
	SessionEnabledSafe    = "enabled_safe"
	SessionIsApp          = "is_app"
	SessionIsMobile       = "is_mobile"
	SessionOS             = "os"
	SessionUserAgent      = "user_agent"
)

// tempPrefix marks implementation-reserved keys that are cleared at login.
const tempPrefix = "_tmp_"

// Session is the per-connection view of a user. Attribute values are plain
// strings keyed by the constants above.
type Session struct {
	UserID string            `json:"user_id"`
	Token  string            `json:"token"`
	Attrs  map[string]string `json:"attrs"`
}

// NewSession returns a session bound to userID.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, Attrs: map[string]string{}}
}

// Get returns an attribute value.
func (s *Session) Get(key string) string {
	if s == nil {
		return ""
	}
	switch key {
	case SessionUserID:
		return s.UserID
	case SessionToken:
		return s.Token
	}
	return s.Attrs[key]
}

// Set stores an attribute value.
func (s *Session) Set(key, value string) {
	switch key {
	case SessionUserID:
		s.UserID = value
	case SessionToken:
		s.Token = value
	default:
		if s.Attrs == nil {
			s.Attrs = map[string]string{}
		}
		s.Attrs[key] = value
	}
}

// SetTemp stores an implementation-reserved key that does not survive login.
func (s *Session) SetTemp(key, value string) {
	s.Set(tempPrefix+key, value)
}

// GetTemp reads a key written with SetTemp.
func (s *Session) GetTemp(key string) string {
	return s.Get(tempPrefix + key)
}

// ResetTemp removes every temporary key.
func (s *Session) ResetTemp() {
	for k := range s.Attrs {
		if strings.HasPrefix(k, tempPrefix) {
			delete(s.Attrs, k)
		}
	}
}

// Merge copies claims into the session. Server controlled keys (user id and
// token) are never overwritten by claims.
func (s *Session) Merge(claims map[string]string) {
	for k, v := range claims {
		if k == SessionUserID || k == SessionToken || strings.HasPrefix(k, tempPrefix) {
			continue
		}
		s.Set(k, v)
	}
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	c := &Session{UserID: s.UserID, Token: s.Token, Attrs: make(map[string]string, len(s.Attrs))}
	for k, v := range s.Attrs {
		c.Attrs[k] = v
	}
	return c
}
