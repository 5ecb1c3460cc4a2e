// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/logging"
)

// httpStatus maps a wire code to the HTTP status of the reply.
func httpStatus(code activity.Code) int {
	switch {
	case code == activity.OK:
		return http.StatusOK
	case code == activity.UnknownError:
		return http.StatusInternalServerError
	case code == activity.RemoteError:
		return http.StatusBadGateway
	case code == activity.InvalidToken, code == activity.InvalidLogin:
		return http.StatusUnauthorized
	case code.Group() == 5, code.Group() == 6:
		return http.StatusBadRequest
	case code.Group() == 7:
		return http.StatusForbidden
	case code.Group() == 8:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeResult writes r in the reply envelope.
func writeResult(w http.ResponseWriter, r *http.Request, res activity.Result) {
	reply := res.Reply()
	if !res.OK && res.Code.Group() != 8 {
		logging.Ctx(r.Context()).Debug().
			Str("path", r.URL.Path).
			Int("code", reply.StatusCode).
			Str("msg", reply.Msg).
			Msg("REST request rejected")
	}
	writeJSON(w, httpStatus(res.Code), reply)
}

// writeOK replies with status_code 200 and data.
func writeOK(w http.ResponseWriter, r *http.Request, data any) {
	writeResult(w, r, activity.Success(data))
}

// writeFail replies with a denial.
func writeFail(w http.ResponseWriter, r *http.Request, code activity.Code, msg string) {
	writeResult(w, r, activity.Fail(code, msg))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
