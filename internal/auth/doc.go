// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth classifies login outcomes.
//
// # Classification
//
// Service sits between the session layer and a Transport. It turns every
// transport failure into exactly one login.ErrorCode:
//   - a recognised server action hint maps to its code
//   - an unrecognised hint, or none at all, maps to login.Unknown
//   - a success response without a token maps to login.EmptyTokenResponse
//
// The raw hint and request id are kept in the error context for logging.
// Logout failures are reported as login.LogoutFailed.
package auth
