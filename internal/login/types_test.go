// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package login

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_Blank(t *testing.T) {
	tests := []struct {
		name           string
		creds          Credentials
		identifierBlnk bool
		secretBlank    bool
	}{
		{name: "both set", creds: Credentials{Identifier: "a", Secret: "b"}},
		{name: "both empty", creds: Credentials{}, identifierBlnk: true, secretBlank: true},
		{name: "whitespace secret", creds: Credentials{Identifier: "a", Secret: " \t\n"}, secretBlank: true},
		{name: "whitespace identifier", creds: Credentials{Identifier: "   ", Secret: "b"}, identifierBlnk: true},
		{name: "padded values are not blank", creds: Credentials{Identifier: " a ", Secret: " b "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.identifierBlnk, tt.creds.IdentifierBlank())
			assert.Equal(t, tt.secretBlank, tt.creds.SecretBlank())
		})
	}
}

func TestCredentials_NeverLeaksSecret(t *testing.T) {
	creds := Credentials{Identifier: "test@test.com", Secret: "hunter2"}

	assert.NotContains(t, creds.String(), "hunter2")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("submit", "credentials", creds)

	assert.Contains(t, buf.String(), "test@test.com")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestSessionToken_LogValueOmitsToken(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("ok", "session", SessionToken{Token: "secret-bearer", DisplayName: "Tester"})

	assert.Contains(t, buf.String(), "Tester")
	assert.NotContains(t, buf.String(), "secret-bearer")
}

func TestActivate(t *testing.T) {
	token := SessionToken{Token: "t", DisplayName: "n"}
	state := Activate(token)

	assert.True(t, state.Active)
	if assert.NotNil(t, state.Token) {
		assert.Equal(t, token, *state.Token)
	}
	assert.True(t, token.Valid())
	assert.False(t, SessionToken{}.Valid())
}

func TestFieldErrors_IsEmpty(t *testing.T) {
	assert.True(t, FieldErrors{}.IsEmpty())
	assert.False(t, FieldErrors{General: "x"}.IsEmpty())
	assert.False(t, FieldErrors{Secret: "x"}.IsEmpty())
}
