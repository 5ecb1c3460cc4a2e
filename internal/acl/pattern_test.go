// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package acl

import (
	"errors"
	"testing"
)

func TestParsePattern_Errors(t *testing.T) {
	for _, s := range []string{"", "gender", "=m", "gender=", "gender=!", "a=1|", "age=x:y"} {
		if _, err := ParsePattern(s); !errors.Is(err, ErrBadPattern) {
			t.Errorf("ParsePattern(%q) err = %v, want ErrBadPattern", s, err)
		}
	}
}

func TestPattern_Match(t *testing.T) {
	attrs := map[string]string{"gender": "f", "age": "30", "country": "cn", "membership": "vip"}
	get := func(k string) string { return attrs[k] }

	tests := []struct {
		pattern string
		want    bool
	}{
		{"gender=f", true},
		{"gender=m", false},
		{"gender=!m", true},
		{"gender=f,age=18:40", true},
		{"gender=f,age=31:", false},
		{"gender=m|membership=vip", true},
		{"gender=m|country=!cn", false},
		{"gender=f,country=!cn|membership=VIP", true},
		{"city=x", false},
		{"city=!x", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			if err != nil {
				t.Fatalf("ParsePattern: %v", err)
			}
			if got := p.Match(get); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
