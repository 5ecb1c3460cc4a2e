// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package activity

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotBase64 is returned for payloads that are not valid base64.
var ErrNotBase64 = errors.New("not base64")

// B64Encode encodes plain text for the wire.
func B64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// B64Decode decodes wire text. Both padded and unpadded standard alphabets
// are accepted; anything else is ErrNotBase64.
func B64Decode(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return string(b), nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return string(b), nil
	}
	return "", ErrNotBase64
}

// IsBase64 reports whether s decodes cleanly.
func IsBase64(s string) bool {
	_, err := B64Decode(s)
	return err == nil
}
