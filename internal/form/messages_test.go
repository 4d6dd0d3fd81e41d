// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holologin/internal/login"
	"github.com/holomush/holologin/pkg/errutil"
)

func TestMessagesFor(t *testing.T) {
	en, err := MessagesFor("")
	require.NoError(t, err)
	assert.Equal(t, catalog["en"], en)

	ko, err := MessagesFor("ko")
	require.NoError(t, err)
	assert.Equal(t, "잘못된 아이디 또는 비밀번호입니다", ko.WrongCredentials)

	_, err = MessagesFor("fr")
	errutil.AssertErrorCode(t, err, "FORM_UNKNOWN_LOCALE")
	errutil.AssertErrorContext(t, err, "locale", "fr")
}

func TestLocales(t *testing.T) {
	assert.Equal(t, []string{"en", "ko"}, Locales())
}

func TestMessages_CompleteForEveryLocale(t *testing.T) {
	for _, name := range Locales() {
		m, err := MessagesFor(name)
		require.NoError(t, err)
		assert.NotEmpty(t, m.IdentifierRequired, name)
		assert.NotEmpty(t, m.SecretRequired, name)
		assert.NotEmpty(t, m.WrongCredentials, name)
		assert.NotEmpty(t, m.RetryLater, name)
	}
}

func TestMessages_GeneralCollapsesToTwoVariants(t *testing.T) {
	m := catalog["en"]

	seen := map[string]bool{}
	for _, code := range login.Codes() {
		seen[m.General(code)] = true
	}

	assert.Len(t, seen, 2)
	assert.Equal(t, m.WrongCredentials, m.General(login.WrongCredentials))
	assert.Equal(t, m.RetryLater, m.General(login.ErrorCode("SOMETHING_ELSE")))
}
