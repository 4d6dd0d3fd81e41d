// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import (
	"log/slog"
	"strings"
)

// Credentials is the identifier/secret pair supplied by the user.
type Credentials struct {
	Identifier string
	Secret     string
}

// IdentifierBlank reports whether the identifier is empty or whitespace only.
func (c Credentials) IdentifierBlank() bool {
	return strings.TrimSpace(c.Identifier) == ""
}

// SecretBlank reports whether the secret is empty or whitespace only.
func (c Credentials) SecretBlank() bool {
	return strings.TrimSpace(c.Secret) == ""
}

// String masks the secret.
func (c Credentials) String() string {
	return "Credentials{Identifier: " + c.Identifier + ", Secret: [REDACTED]}"
}

// LogValue keeps the secret out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("identifier", c.Identifier))
}

// SessionToken is the result of a successful submission.
// Token must be non-empty; an empty token is reported as EmptyTokenResponse.
type SessionToken struct {
	Token       string
	DisplayName string
}

// Valid reports whether the token satisfies the non-empty invariant.
func (t SessionToken) Valid() bool {
	return t.Token != ""
}

// LogValue omits the bearer value.
func (t SessionToken) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("display_name", t.DisplayName),
		slog.Bool("has_token", t.Token != ""),
	)
}

// SessionState tracks the local session.
// Active is true exactly when Token is non-nil.
type SessionState struct {
	Active bool
	Token  *SessionToken
}

// Activate returns an active session holding a copy of token.
func Activate(token SessionToken) SessionState {
	return SessionState{Active: true, Token: &token}
}

// FieldErrors holds the messages shown next to the form fields.
// An empty string means no error.
type FieldErrors struct {
	Identifier string
	Secret     string
	General    string
}

// IsEmpty reports whether no error is set.
func (e FieldErrors) IsEmpty() bool {
	return e.Identifier == "" && e.Secret == "" && e.General == ""
}
