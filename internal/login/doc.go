// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package login holds the types shared by every layer of the login flow.
//
// # Domain Types
//
//   - Credentials - identifier and secret collected by the form
//   - SessionToken - bearer value and display name returned by the endpoint
//   - SessionState - whether a session is active and which token it holds
//   - FieldErrors - per-field and general messages shown by the form
//
// # Error Codes
//
// Failed operations are classified into a closed set of ErrorCode values.
// Errors carry their code through samber/oops; use CodeOf to recover it and
// switch on the result instead of comparing error messages.
package login
