// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package transport

import (
	"errors"
	"fmt"
)

// Error is returned for any failed exchange with the auth endpoint.
// It is opaque to callers apart from the optional server action hint.
type Error struct {
	// Op is "submit" or "terminate".
	Op string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Action is the server-supplied "action" hint, if any.
	Action string
	// RequestID is the X-Request-ID sent with the request.
	RequestID string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Action != "":
		return fmt.Sprintf("%s: status %d (action %q)", e.Op, e.StatusCode, e.Action)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ActionHint returns the server action hint carried by err.
func ActionHint(err error) (string, bool) {
	var terr *Error
	if !errors.As(err, &terr) || terr.Action == "" {
		return "", false
	}
	return terr.Action, true
}

// RequestID returns the request id carried by err, or "".
func RequestID(err error) string {
	var terr *Error
	if !errors.As(err, &terr) {
		return ""
	}
	return terr.RequestID
}
