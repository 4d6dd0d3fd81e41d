// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/holologin/internal/login"
	"github.com/holomush/holologin/internal/transport"
	"github.com/holomush/holologin/pkg/errutil"
)

// Transport is the network boundary used by Service.
type Transport interface {
	// Submit sends credentials and returns the issued token.
	Submit(ctx context.Context, creds login.Credentials) (login.SessionToken, error)

	// Terminate ends the remote session.
	Terminate(ctx context.Context) error
}

// Service turns transport outcomes into login error codes.
type Service struct {
	transport Transport
	logger    *slog.Logger
}

// NewService creates a new Service.
// A nil logger is replaced by a discard logger.
func NewService(t Transport, logger *slog.Logger) (*Service, error) {
	if t == nil {
		return nil, oops.Errorf("transport is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{transport: t, logger: logger}, nil
}

// Authenticate submits credentials and returns the session token.
// Every failure carries exactly one login.ErrorCode:
//   - an empty token in a successful response is EmptyTokenResponse
//   - a server action hint is mapped verbatim
//   - an EmptyTokenResponse error from the transport is kept
//   - anything else is Unknown
func (s *Service) Authenticate(ctx context.Context, creds login.Credentials) (login.SessionToken, error) {
	token, err := s.transport.Submit(ctx, creds)
	if err == nil {
		if !token.Valid() {
			err = login.NewError(login.EmptyTokenResponse, "authentication response has no token")
			s.logFailure(ctx, err, nil)
			return login.SessionToken{}, err
		}
		return token, nil
	}

	classified := s.classify(err)
	s.logFailure(ctx, classified, err)
	return login.SessionToken{}, classified
}

// classify applies the hint-first mapping to a transport failure.
func (s *Service) classify(err error) error {
	requestID := transport.RequestID(err)

	if hint, ok := transport.ActionHint(err); ok {
		code, known := login.CodeFromAction(hint)
		return login.WrapError(code, err,
			"action", hint,
			"action_known", known,
			"request_id", requestID,
		)
	}

	if login.HasCode(err, login.EmptyTokenResponse) {
		return err
	}

	return login.WrapError(login.Unknown, err, "request_id", requestID)
}

func (s *Service) logFailure(ctx context.Context, classified, cause error) {
	attrs := []any{"event", "authenticate_failed"}
	if cause != nil {
		attrs = append(attrs, "request_id", transport.RequestID(cause))
	}
	errutil.LogWarn(ctx, s.logger, "authentication failed", classified, attrs...)
}

// Terminate ends the remote session. Any failure is reported as LogoutFailed.
func (s *Service) Terminate(ctx context.Context) error {
	if err := s.transport.Terminate(ctx); err != nil {
		errutil.LogWarn(ctx, s.logger, "terminate failed", err,
			"event", "terminate_failed",
			"request_id", transport.RequestID(err),
		)
		return login.WrapError(login.LogoutFailed, err, "request_id", transport.RequestID(err))
	}
	return nil
}
