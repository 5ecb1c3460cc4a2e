// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package activity

import "fmt"

// Result is the outcome of a validator or handler: (ok, code, payload).
type Result struct {
	OK   bool
	Code Code
	Msg  string
	Data any
}

// Success returns an OK result carrying data.
func Success(data any) Result {
	return Result{OK: true, Code: OK, Data: data}
}

// Fail returns a denial with a code and message.
func Fail(code Code, msg string) Result {
	return Result{Code: code, Msg: msg}
}

// Failf returns a denial with a formatted message.
func Failf(code Code, format string, args ...any) Result {
	return Result{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// FailWithData returns a denial carrying an extra payload, for example the
// remaining ban seconds on USER_IS_BANNED.
func FailWithData(code Code, msg string, data any) Result {
	return Result{Code: code, Msg: msg, Data: data}
}

// Reply converts the result into its wire form.
func (r Result) Reply() Reply {
	if r.OK {
		return Reply{StatusCode: int(OK), Data: r.Data}
	}
	return Reply{StatusCode: int(r.Code), Msg: r.Msg, Data: r.Data}
}

// Reply is the structured response every client event receives.
type Reply struct {
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
	Msg        string `json:"msg,omitempty"`
}

// Frame is an outbound websocket frame: a named event plus its payload.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
