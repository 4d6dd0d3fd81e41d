// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package form holds the login form state machine.
//
// A Controller owns the form values, field errors, loading flag and session
// state, and drives a session Coordinator. Presentation layers read state
// with Snapshot or Subscribe and forward the user's intents: edit identifier,
// edit secret, submit, logout and clear errors.
package form

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/holologin/internal/login"
	"github.com/holomush/holologin/internal/session"
	"github.com/holomush/holologin/pkg/errutil"
)

// Error codes returned by Controller operations.
const (
	CodeValidation       = "FORM_VALIDATION"
	CodeBusy             = "FORM_BUSY"
	CodeNotAuthenticated = "FORM_NOT_AUTHENTICATED"
	CodeAuthenticated    = "FORM_ALREADY_AUTHENTICATED"
)

// Phase is the controller's position in the login lifecycle.
type Phase int

// Controller phases.
const (
	PhaseIdle Phase = iota
	PhaseEditing
	PhaseSubmitting
	PhaseAuthenticated
	PhaseFailed
	PhaseLoggingOut
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseFailed:
		return "failed"
	case PhaseLoggingOut:
		return "logging_out"
	}
	return "unknown"
}

// Coordinator defines the session operations needed by the controller.
type Coordinator interface {
	// Login authenticates and returns the session result.
	Login(ctx context.Context, creds login.Credentials) (session.Result, error)

	// Logout terminates the session and reports success.
	Logout(ctx context.Context) bool
}

// State is a snapshot of everything the presentation renders.
type State struct {
	Identifier string
	Secret     string
	Errors     login.FieldErrors
	Loading    bool
	Session    login.SessionState
	Phase      Phase
}

// Controller is the login form state machine. It is safe for concurrent use;
// a submit or logout issued while another request is in flight is rejected.
type Controller struct {
	coord    Coordinator
	messages Messages
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// NewController creates a Controller in the idle phase.
// Empty message fields fall back to the default locale.
// Returns an error if the coordinator is nil.
func NewController(coord Coordinator, messages Messages, logger *slog.Logger) (*Controller, error) {
	if coord == nil {
		return nil, oops.Errorf("coordinator is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		coord:    coord,
		messages: messages.withDefaults(),
		logger:   logger,
	}, nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Session.Token != nil {
		token := *s.Session.Token
		s.Session.Token = &token
	}
	return s
}

// Subscribe registers fn to be called with the new state after every change.
// Callbacks run on the goroutine that made the change, outside the lock.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// commitLocked snapshots state and listeners, releases the lock and notifies.
func (c *Controller) commitLocked() {
	s := c.snapshotLocked()
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Init is the presentation's first-display hook. It clears stale errors.
func (c *Controller) Init() {
	c.ClearErrors()
}

// EditIdentifier sets the identifier and clears its field error.
func (c *Controller) EditIdentifier(value string) error {
	return c.edit(func(s *State) {
		s.Identifier = value
		s.Errors.Identifier = ""
	})
}

// EditSecret sets the secret and clears its field error.
func (c *Controller) EditSecret(value string) error {
	return c.edit(func(s *State) {
		s.Secret = value
		s.Errors.Secret = ""
	})
}

func (c *Controller) edit(apply func(*State)) error {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return busyError("edit")
	}
	apply(&c.state)
	if c.state.Phase == PhaseIdle {
		c.state.Phase = PhaseEditing
	}
	c.commitLocked()
	return nil
}

// ClearErrors removes every field error. Form values and session are kept.
func (c *Controller) ClearErrors() {
	c.mu.Lock()
	c.state.Errors = login.FieldErrors{}
	c.commitLocked()
}

// Submit validates the form and, if valid, logs in.
//
// Blank (including whitespace-only) fields set field errors and return a
// FORM_VALIDATION error without contacting the coordinator. Submitting while
// a session is active returns FORM_ALREADY_AUTHENTICATED. A login failure
// sets the general error and returns the coordinator's error; the form values
// are kept.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return busyError("submit")
	}

	if c.state.Session.Active {
		c.mu.Unlock()
		return oops.Code(CodeAuthenticated).Errorf("session already active")
	}

	creds := login.Credentials{Identifier: c.state.Identifier, Secret: c.state.Secret}
	idBlank, secretBlank := creds.IdentifierBlank(), creds.SecretBlank()
	if idBlank || secretBlank {
		var fieldErrs login.FieldErrors
		if idBlank {
			fieldErrs.Identifier = c.messages.IdentifierRequired
		}
		if secretBlank {
			fieldErrs.Secret = c.messages.SecretRequired
		}
		c.state.Errors = fieldErrs
		if c.state.Phase == PhaseFailed {
			c.state.Phase = PhaseEditing
		}
		c.commitLocked()
		return oops.Code(CodeValidation).
			With("identifier_blank", idBlank).
			With("secret_blank", secretBlank).
			Errorf("form has blank fields")
	}

	c.state.Errors = login.FieldErrors{}
	c.state.Loading = true
	c.state.Phase = PhaseSubmitting
	c.commitLocked()

	result, err := c.coord.Login(ctx, creds)

	c.mu.Lock()
	c.state.Loading = false
	switch {
	case err != nil:
		code := login.CodeOf(err)
		c.state.Errors = login.FieldErrors{General: c.messages.General(code)}
		c.state.Phase = PhaseFailed
		c.logger.ErrorContext(ctx, "login submit failed",
			"event", "submit_failed",
			"code", code.String(),
		)
	case !result.Success || !result.Token.Valid():
		c.state.Errors = login.FieldErrors{General: c.messages.General(login.Unknown)}
		c.state.Phase = PhaseFailed
		err = login.NewError(login.Unknown, "login returned no session")
	default:
		c.state.Session = login.Activate(result.Token)
		c.state.Phase = PhaseAuthenticated
		c.logger.InfoContext(ctx, "login submit succeeded",
			"event", "submit_succeeded",
			"session", result.Token,
		)
	}
	c.commitLocked()
	return err
}

// Logout ends the active session.
//
// On success the session and form values are reset. On failure only the
// loading flag changes; no error is shown or returned. Returns an error only
// when no session is active or a request is already in flight.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return busyError("logout")
	}
	if !c.state.Session.Active {
		c.mu.Unlock()
		return oops.Code(CodeNotAuthenticated).Errorf("no active session")
	}
	c.state.Loading = true
	c.state.Phase = PhaseLoggingOut
	c.commitLocked()

	ok := c.coord.Logout(ctx)

	c.mu.Lock()
	c.state.Loading = false
	if ok {
		c.state.Session = login.SessionState{}
		c.state.Identifier = ""
		c.state.Secret = ""
		c.state.Phase = PhaseIdle
		c.logger.InfoContext(ctx, "logout succeeded", "event", "logout_succeeded")
	} else {
		c.state.Phase = PhaseAuthenticated
		c.logger.ErrorContext(ctx, "logout failed", "event", "logout_failed")
	}
	c.commitLocked()
	return nil
}

func busyError(op string) error {
	return oops.Code(CodeBusy).With("operation", op).Errorf("a request is already in flight")
}

// IsBusy reports whether err is the in-flight rejection.
func IsBusy(err error) bool {
	return errutil.HasCode(err, CodeBusy)
}

// IsValidation reports whether err is a blank-field rejection.
func IsValidation(err error) bool {
	return errutil.HasCode(err, CodeValidation)
}
