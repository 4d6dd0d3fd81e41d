// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session coordinates login and logout on top of the auth service.
//
// Login failures propagate to the caller unchanged; logout failures are
// logged and reported as false.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/holomush/holologin/internal/login"
	"github.com/holomush/holologin/pkg/errutil"
)

const tracerName = "github.com/holomush/holologin/internal/session"

// ResultOK is the outcome label recorded for a successful login.
const ResultOK = "ok"

// Authenticator defines the auth operations needed by the coordinator.
type Authenticator interface {
	// Authenticate submits credentials and returns the issued token.
	Authenticate(ctx context.Context, creds login.Credentials) (login.SessionToken, error)

	// Terminate ends the remote session.
	Terminate(ctx context.Context) error
}

// Observer receives login and logout outcomes.
type Observer interface {
	// LoginCompleted is called with ResultOK or the failure's error code.
	LoginCompleted(outcome string, elapsed time.Duration)

	// LogoutCompleted is called after every logout attempt.
	LogoutCompleted(success bool, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) LoginCompleted(string, time.Duration) {}
func (nopObserver) LogoutCompleted(bool, time.Duration)  {}

// Result contains the result of a successful login.
type Result struct {
	Token   login.SessionToken
	Success bool
}

// Coordinator runs login and logout and records their outcomes.
type Coordinator struct {
	auth     Authenticator
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the outcome observer. Defaults to a no-op.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithTracer sets the tracer. Defaults to a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewCoordinator creates a new Coordinator.
// Returns an error if the authenticator is nil.
func NewCoordinator(auth Authenticator, opts ...Option) (*Coordinator, error) {
	if auth == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	c := &Coordinator{
		auth:     auth,
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
		tracer:   noop.NewTracerProvider().Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login authenticates the credentials.
// On failure the authenticator's error is returned as-is.
func (c *Coordinator) Login(ctx context.Context, creds login.Credentials) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "session.login")
	defer span.End()
	start := c.now()

	token, err := c.auth.Authenticate(ctx, creds)
	elapsed := c.now().Sub(start)
	if err != nil {
		code := login.CodeOf(err)
		span.SetAttributes(attribute.String("login.code", code.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, code.String())

		errutil.LogError(ctx, c.logger, "login failed", err,
			"event", "login_failed",
			"identifier", creds.Identifier,
		)
		c.logCode(ctx, code)
		c.observer.LoginCompleted(code.String(), elapsed)
		return Result{}, err
	}

	span.SetAttributes(attribute.String("login.code", ResultOK))
	c.logger.InfoContext(ctx, "login succeeded",
		"event", "login_succeeded",
		"identifier", creds.Identifier,
		"session", token,
	)
	c.observer.LoginCompleted(ResultOK, elapsed)
	return Result{Token: token, Success: true}, nil
}

// logCode emits the per-code diagnostic for a failed login.
func (c *Coordinator) logCode(ctx context.Context, code login.ErrorCode) {
	var msg string
	switch code {
	case login.EmptyTokenResponse:
		msg = "token in response was empty"
	case login.WrongCredentials:
		msg = "wrong identifier or password"
	case login.UserNotFound:
		msg = "user does not exist"
	case login.RobotSuspected:
		msg = "request flagged as automated"
	case login.UserBlocked:
		msg = "user is blocked"
	case login.Unknown, login.LogoutFailed:
		msg = "unknown error"
	default:
		msg = "unknown error"
	}
	c.logger.WarnContext(ctx, msg, "code", code.String())
}

// Logout terminates the session and reports whether it succeeded.
// Failures are logged and never returned.
func (c *Coordinator) Logout(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "session.logout")
	defer span.End()
	start := c.now()

	err := c.auth.Terminate(ctx)
	elapsed := c.now().Sub(start)
	c.observer.LogoutCompleted(err == nil, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, login.CodeOf(err).String())
		errutil.LogWarn(ctx, c.logger, "logout failed", err,
			"event", "logout_failed",
			"operation", "logout",
		)
		return false
	}

	c.logger.InfoContext(ctx, "logout succeeded", "event", "logout_succeeded")
	return true
}
