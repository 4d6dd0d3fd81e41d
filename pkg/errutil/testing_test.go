// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/holologin/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("LOGIN_WRONG_CREDENTIALS").Errorf("bad password")
	errutil.AssertErrorCode(t, err, "LOGIN_WRONG_CREDENTIALS")
}

func TestAssertErrorCode_WrappedCode(t *testing.T) {
	err := oops.With("request_id", "01REQ").Wrap(oops.Code("LOGOUT_FAILED").Errorf("down"))
	errutil.AssertErrorCode(t, err, "LOGOUT_FAILED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("action", "userId").Errorf("not found")
	errutil.AssertErrorContext(t, err, "action", "userId")
}
