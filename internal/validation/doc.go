// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

// Package validation validates REST request bodies with
// go-playground/validator and turns failures into wire results.
//
//	type kickRequest struct {
//		UserID string `json:"user_id" validate:"required,userid" code:"MISSING_ACTOR_ID"`
//		RoomID string `json:"room_id" validate:"required" code:"MISSING_TARGET_ID"`
//		Reason string `json:"reason" validate:"omitempty,base64"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//		writeResult(w, verr.ToResult())
//		return
//	}
//
// The validator is a process-wide singleton; struct metadata is cached on
// first use.
package validation
