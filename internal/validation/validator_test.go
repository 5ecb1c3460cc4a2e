// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/dino/internal/activity"
)

type banBody struct {
	UserID   string `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
	Scope    string `json:"type" validate:"omitempty,aclscope"`
	Target   string `json:"target"`
	Duration string `json:"duration" validate:"required,banduration"`
	Reason   string `json:"reason" validate:"omitempty,base64,max=200"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator returned different instances")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		in        banBody
		wantCode  activity.Code
		wantField string
	}{
		{name: "valid", in: banBody{UserID: "1234", Scope: "room", Duration: "10m", Reason: activity.B64Encode("spam")}},
		{name: "global ban", in: banBody{UserID: "1", Duration: "7d"}},
		{name: "missing user", in: banBody{Duration: "1h"}, wantCode: activity.MissingActorID, wantField: "user_id"},
		{name: "non numeric user", in: banBody{UserID: "bob", Duration: "1h"}, wantCode: activity.MissingActorID, wantField: "user_id"},
		{name: "bad duration", in: banBody{UserID: "1", Duration: "forever"}, wantCode: activity.InvalidBanDuration, wantField: "duration"},
		{name: "zero duration", in: banBody{UserID: "1", Duration: "0m"}, wantCode: activity.InvalidBanDuration, wantField: "duration"},
		{name: "bad scope", in: banBody{UserID: "1", Duration: "1h", Scope: "global"}, wantCode: activity.InvalidTargetType, wantField: "type"},
		{name: "reason not base64", in: banBody{UserID: "1", Duration: "1h", Reason: "%%%"}, wantCode: activity.ValidationError, wantField: "reason"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.in)
			if tt.wantCode == 0 {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected a validation error")
			}
			res := verr.ToResult()
			if res.OK || res.Code != tt.wantCode {
				t.Errorf("code = %v, want %v", res.Code, tt.wantCode)
			}
			if got := verr.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	verr := ValidateStruct(banBody{UserID: "x", Duration: "y"})
	if verr == nil {
		t.Fatal("expected errors")
	}
	if len(verr.Errors()) != 2 {
		t.Fatalf("errors = %d, want 2", len(verr.Errors()))
	}
	msg := verr.Error()
	if !strings.Contains(msg, "user_id must be a numeric user id") || !strings.Contains(msg, "duration must look like") {
		t.Errorf("message = %q", msg)
	}
}

func TestValidateStruct_MinMaxMessages(t *testing.T) {
	type body struct {
		Words []string `json:"words" validate:"min=1,max=2"`
		Name  string   `json:"name" validate:"max=3"`
	}
	verr := ValidateStruct(body{Name: "toolong"})
	if verr == nil {
		t.Fatal("expected errors")
	}
	msg := verr.Error()
	if !strings.Contains(msg, "words must be at least 1 items") || !strings.Contains(msg, "name must be at most 3 characters") {
		t.Errorf("message = %q", msg)
	}
}

func TestValidateStruct_NotAStruct(t *testing.T) {
	verr := ValidateStruct("nope")
	if verr == nil {
		t.Fatal("expected an error for a non-struct")
	}
	if verr.ToResult().Code != activity.ValidationError {
		t.Errorf("code = %v", verr.ToResult().Code)
	}
}
