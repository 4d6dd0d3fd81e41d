// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package form

import (
	"sort"

	"github.com/samber/oops"

	"github.com/holomush/holologin/internal/login"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

// Messages is the user-visible text for one locale.
type Messages struct {
	IdentifierRequired string
	SecretRequired     string
	WrongCredentials   string
	RetryLater         string
}

var catalog = map[string]Messages{
	"en": {
		IdentifierRequired: "Please enter your ID.",
		SecretRequired:     "Please enter your password.",
		WrongCredentials:   "Incorrect ID or password.",
		RetryLater:         "Login failed. Please try again.",
	},
	"ko": {
		IdentifierRequired: "아이디를 입력해주세요",
		SecretRequired:     "비밀번호를 입력해주세요",
		WrongCredentials:   "잘못된 아이디 또는 비밀번호입니다",
		RetryLater:         "로그인에 실패했습니다. 다시 시도해주세요.",
	},
}

// MessagesFor returns the catalogue for locale.
func MessagesFor(locale string) (Messages, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	m, ok := catalog[locale]
	if !ok {
		return Messages{}, oops.Code("FORM_UNKNOWN_LOCALE").
			With("locale", locale).
			With("available", Locales()).
			Errorf("unknown locale %q", locale)
	}
	return m, nil
}

// Locales returns the available locale names, sorted.
func Locales() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withDefaults fills empty fields from the default locale.
func (m Messages) withDefaults() Messages {
	def := catalog[DefaultLocale]
	if m.IdentifierRequired == "" {
		m.IdentifierRequired = def.IdentifierRequired
	}
	if m.SecretRequired == "" {
		m.SecretRequired = def.SecretRequired
	}
	if m.WrongCredentials == "" {
		m.WrongCredentials = def.WrongCredentials
	}
	if m.RetryLater == "" {
		m.RetryLater = def.RetryLater
	}
	return m
}

// General picks the general error text for a failed login.
// Only WrongCredentials gets its own message; every other code shares the
// retry message.
func (m Messages) General(code login.ErrorCode) string {
	switch code {
	case login.WrongCredentials:
		return m.WrongCredentials
	case login.UserNotFound, login.RobotSuspected, login.UserBlocked,
		login.EmptyTokenResponse, login.Unknown, login.LogoutFailed:
		return m.RetryLater
	}
	return m.RetryLater
}
