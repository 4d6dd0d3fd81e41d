// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import (
	"fmt"

	"github.com/samber/oops"
)

// ErrorCode classifies a failed login or logout.
// The value doubles as the oops error code.
type ErrorCode string

// Login failure codes.
const (
	WrongCredentials   ErrorCode = "LOGIN_WRONG_CREDENTIALS"
	UserNotFound       ErrorCode = "LOGIN_USER_NOT_FOUND"
	RobotSuspected     ErrorCode = "LOGIN_ROBOT_SUSPECTED"
	UserBlocked        ErrorCode = "LOGIN_USER_BLOCKED"
	EmptyTokenResponse ErrorCode = "LOGIN_EMPTY_TOKEN"
	Unknown            ErrorCode = "LOGIN_UNKNOWN"

	// LogoutFailed is the only code produced by session termination.
	LogoutFailed ErrorCode = "LOGOUT_FAILED"
)

// Action hints sent by the endpoint in the "action" body field.
const (
	ActionWrong      = "wrong"
	ActionUserID     = "userId"
	ActionRobot      = "robot"
	ActionSuspicion  = "suspicion"
	ActionEmptyToken = "email Login is Empty"
	ActionUnknown    = "unkownError"
)

var actionCodes = map[string]ErrorCode{
	ActionWrong:      WrongCredentials,
	ActionUserID:     UserNotFound,
	ActionRobot:      RobotSuspected,
	ActionSuspicion:  UserBlocked,
	ActionEmptyToken: EmptyTokenResponse,
	ActionUnknown:    Unknown,
}

// Codes lists every ErrorCode in declaration order.
func Codes() []ErrorCode {
	return []ErrorCode{
		WrongCredentials,
		UserNotFound,
		RobotSuspected,
		UserBlocked,
		EmptyTokenResponse,
		Unknown,
		LogoutFailed,
	}
}

// CodeFromAction maps a server action hint to its ErrorCode.
// Unrecognised hints return (Unknown, false).
func CodeFromAction(action string) (ErrorCode, bool) {
	code, ok := actionCodes[action]
	if !ok {
		return Unknown, false
	}
	return code, true
}

// Action returns the wire hint for c, or "" for LogoutFailed.
func (c ErrorCode) Action() string {
	switch c {
	case WrongCredentials:
		return ActionWrong
	case UserNotFound:
		return ActionUserID
	case RobotSuspected:
		return ActionRobot
	case UserBlocked:
		return ActionSuspicion
	case EmptyTokenResponse:
		return ActionEmptyToken
	case Unknown:
		return ActionUnknown
	case LogoutFailed:
		return ""
	}
	return ""
}

// Valid reports whether c is one of the declared codes.
func (c ErrorCode) Valid() bool {
	switch c {
	case WrongCredentials, UserNotFound, RobotSuspected, UserBlocked,
		EmptyTokenResponse, Unknown, LogoutFailed:
		return true
	}
	return false
}

func (c ErrorCode) String() string {
	return string(c)
}

// NewError creates an error carrying code.
func NewError(code ErrorCode, format string, args ...any) error {
	return oops.Code(string(code)).Errorf(format, args...)
}

// WrapError wraps cause with code. Key/value pairs are attached as error context.
// oops reports the innermost code of a chain, so a cause that already carries
// a code is flattened into the message instead of being wrapped.
func WrapError(code ErrorCode, cause error, kv ...any) error {
	builder := oops.Code(string(code)).With(kv...)
	if carriesCode(cause) {
		return builder.With("cause", cause.Error()).Errorf("%s", cause.Error())
	}
	return builder.Wrap(cause)
}

func carriesCode(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	raw := oopsErr.Code()
	return raw != nil && fmt.Sprint(raw) != ""
}

// CodeOf returns the ErrorCode carried by err.
// Errors without a login code classify as Unknown.
func CodeOf(err error) ErrorCode {
	code, ok := codeOf(err)
	if !ok {
		return Unknown
	}
	return code
}

// HasCode reports whether err carries exactly code.
func HasCode(err error, code ErrorCode) bool {
	got, ok := codeOf(err)
	return ok && got == code
}

func codeOf(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "", false
	}
	raw := oopsErr.Code()
	if raw == nil {
		return "", false
	}
	code := ErrorCode(fmt.Sprint(raw))
	if !code.Valid() {
		return "", false
	}
	return code, true
}
