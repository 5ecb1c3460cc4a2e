// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/auth"
	"github.com/tomtom215/dino/internal/chat"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
)

// resultFromError maps a domain error to a wire result. Unknown errors
// become UNKNOWN_ERROR and are logged.
func resultFromError(r *http.Request, op string, err error) activity.Result {
	switch {
	case errors.Is(err, database.ErrNoSuchUser):
		return activity.Fail(activity.NoSuchUser, err.Error())
	case errors.Is(err, database.ErrNoSuchRoom):
		return activity.Fail(activity.NoSuchRoom, err.Error())
	case errors.Is(err, database.ErrNoSuchChannel):
		return activity.Fail(activity.NoSuchChannel, err.Error())
	case errors.Is(err, database.ErrNoSuchMessage):
		return activity.Fail(activity.NoSuchMessage, err.Error())
	case errors.Is(err, database.ErrNoAdminRoom):
		return activity.Fail(activity.NoAdminRoomFound, err.Error())
	case errors.Is(err, database.ErrRoomExists):
		return activity.Fail(activity.RoomAlreadyExists, err.Error())
	case errors.Is(err, chat.ErrProtectedUser):
		return activity.Fail(activity.NotAllowed, err.Error())
	case errors.Is(err, auth.ErrSessionNotFound):
		return activity.Fail(activity.NoUserInSession, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		return activity.Fail(activity.InvalidToken, err.Error())
	case errors.Is(err, auth.ErrInvalidUserID), errors.Is(err, auth.ErrMissingCredentials):
		return activity.Fail(activity.InvalidLogin, err.Error())
	}
	logging.Ctx(r.Context()).Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("REST operation failed")
	return activity.Fail(activity.UnknownError, "internal error")
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	writeResult(w, r, resultFromError(r, op, err))
}
