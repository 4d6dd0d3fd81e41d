// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/holomush/holologin/internal/login"
)

// --- Mock implementations ---

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, creds login.Credentials) (login.SessionToken, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(login.SessionToken), args.Error(1)
}

func (m *mockAuthenticator) Terminate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type recordingObserver struct {
	mu      sync.Mutex
	logins  []string
	logouts []bool
}

func (o *recordingObserver) LoginCompleted(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logins = append(o.logins, outcome)
}

func (o *recordingObserver) LogoutCompleted(success bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logouts = append(o.logouts, success)
}

// recordingTracer records span names and hands out no-op spans.
type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []string
}

func (r *recordingTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.mu.Lock()
	r.spans = append(r.spans, name)
	r.mu.Unlock()
	return ctx, noop.Span{}
}

var testCreds = login.Credentials{Identifier: "test@test.com", Secret: "123456"}

func TestNewCoordinator_NilAuthenticator(t *testing.T) {
	c, err := NewCoordinator(nil)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "authenticator is required")
}

func TestCoordinator_Login_Success(t *testing.T) {
	authSvc := new(mockAuthenticator)
	obs := &recordingObserver{}
	c, err := NewCoordinator(authSvc, WithObserver(obs))
	require.NoError(t, err)

	token := login.SessionToken{Token: "tok", DisplayName: "Tester"}
	authSvc.On("Authenticate", mock.Anything, testCreds).Return(token, nil)

	result, err := c.Login(context.Background(), testCreds)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, token, result.Token)
	assert.Equal(t, []string{ResultOK}, obs.logins)
	authSvc.AssertExpectations(t)
}

func TestCoordinator_Login_PropagatesErrorUnchanged(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "plain error", err: errors.New("boom")},
		{name: "wrong credentials", err: login.NewError(login.WrongCredentials, "nope")},
		{name: "user not found", err: login.NewError(login.UserNotFound, "nope")},
		{name: "empty token", err: login.NewError(login.EmptyTokenResponse, "nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := new(mockAuthenticator)
			c, err := NewCoordinator(authSvc)
			require.NoError(t, err)
			authSvc.On("Authenticate", mock.Anything, testCreds).Return(login.SessionToken{}, tt.err)

			result, err := c.Login(context.Background(), testCreds)

			assert.Equal(t, tt.err, err)
			assert.False(t, result.Success)
			assert.Equal(t, login.SessionToken{}, result.Token)
		})
	}
}

func TestCoordinator_Login_ErrorIdentity(t *testing.T) {
	authSvc := new(mockAuthenticator)
	c, err := NewCoordinator(authSvc)
	require.NoError(t, err)
	sentinel := errors.New("transport exploded")
	authSvc.On("Authenticate", mock.Anything, testCreds).Return(login.SessionToken{}, sentinel)

	_, err = c.Login(context.Background(), testCreds)

	assert.Same(t, sentinel, err)
}

func TestCoordinator_Login_RecordsFailureCode(t *testing.T) {
	authSvc := new(mockAuthenticator)
	obs := &recordingObserver{}
	c, err := NewCoordinator(authSvc, WithObserver(obs))
	require.NoError(t, err)
	authSvc.On("Authenticate", mock.Anything, testCreds).
		Return(login.SessionToken{}, login.NewError(login.RobotSuspected, "captcha"))

	_, _ = c.Login(context.Background(), testCreds)

	assert.Equal(t, []string{string(login.RobotSuspected)}, obs.logins)
}

func TestCoordinator_Login_LogsPerCode(t *testing.T) {
	tests := []struct {
		code    login.ErrorCode
		wantMsg string
	}{
		{code: login.EmptyTokenResponse, wantMsg: "token in response was empty"},
		{code: login.WrongCredentials, wantMsg: "wrong identifier or password"},
		{code: login.UserNotFound, wantMsg: "user does not exist"},
		{code: login.RobotSuspected, wantMsg: "request flagged as automated"},
		{code: login.UserBlocked, wantMsg: "user is blocked"},
		{code: login.Unknown, wantMsg: "unknown error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			var buf bytes.Buffer
			authSvc := new(mockAuthenticator)
			c, err := NewCoordinator(authSvc, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
			require.NoError(t, err)
			authSvc.On("Authenticate", mock.Anything, testCreds).
				Return(login.SessionToken{}, login.NewError(tt.code, "failed"))

			_, _ = c.Login(context.Background(), testCreds)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 2)

			var first, second struct {
				Level string `json:"level"`
				Msg   string `json:"msg"`
				Code  string `json:"code"`
			}
			require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
			require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

			assert.Equal(t, "ERROR", first.Level)
			assert.Equal(t, "login failed", first.Msg)
			assert.Equal(t, "WARN", second.Level)
			assert.Equal(t, tt.wantMsg, second.Msg)
			assert.Equal(t, string(tt.code), second.Code)
			assert.NotContains(t, buf.String(), testCreds.Secret)
		})
	}
}

func TestCoordinator_Login_LogsErrorContext(t *testing.T) {
	var buf bytes.Buffer
	authSvc := new(mockAuthenticator)
	c, err := NewCoordinator(authSvc, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	require.NoError(t, err)
	failure := login.WrapError(login.RobotSuspected, errors.New("status 401"),
		"action", "robot",
		"request_id", "01REQ",
	)
	authSvc.On("Authenticate", mock.Anything, testCreds).Return(login.SessionToken{}, failure)

	_, _ = c.Login(context.Background(), testCreds)

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	var entry struct {
		Level   string         `json:"level"`
		Code    string         `json:"code"`
		Context map[string]any `json:"context"`
	}
	require.NoError(t, json.Unmarshal([]byte(first), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, string(login.RobotSuspected), entry.Code)
	assert.Equal(t, "robot", entry.Context["action"])
	assert.Equal(t, "01REQ", entry.Context["request_id"])
}

func TestCoordinator_Logout(t *testing.T) {
	tests := []struct {
		name    string
		termErr error
		want    bool
	}{
		{name: "success", want: true},
		{name: "failure is swallowed", termErr: login.NewError(login.LogoutFailed, "down"), want: false},
		{name: "plain failure is swallowed", termErr: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := new(mockAuthenticator)
			obs := &recordingObserver{}
			c, err := NewCoordinator(authSvc, WithObserver(obs))
			require.NoError(t, err)
			authSvc.On("Terminate", mock.Anything).Return(tt.termErr)

			got := c.Logout(context.Background())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, []bool{tt.want}, obs.logouts)
		})
	}
}

func TestCoordinator_Logout_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	authSvc := new(mockAuthenticator)
	c, err := NewCoordinator(authSvc, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	require.NoError(t, err)
	authSvc.On("Terminate", mock.Anything).Return(errors.New("session store unavailable"))

	assert.False(t, c.Logout(context.Background()))

	var entry struct {
		Level     string `json:"level"`
		Event     string `json:"event"`
		Operation string `json:"operation"`
		Error     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "logout_failed", entry.Event)
	assert.Equal(t, "logout", entry.Operation)
	assert.Contains(t, entry.Error, "session store unavailable")
}

func TestCoordinator_Spans(t *testing.T) {
	authSvc := new(mockAuthenticator)
	tracer := &recordingTracer{}
	c, err := NewCoordinator(authSvc, WithTracer(tracer))
	require.NoError(t, err)
	authSvc.On("Authenticate", mock.Anything, testCreds).Return(login.SessionToken{Token: "t"}, nil)
	authSvc.On("Terminate", mock.Anything).Return(nil)

	_, err = c.Login(context.Background(), testCreds)
	require.NoError(t, err)
	assert.True(t, c.Logout(context.Background()))

	assert.Equal(t, []string{"session.login", "session.logout"}, tracer.spans)
}

func TestCoordinator_NilOptionsKeepDefaults(t *testing.T) {
	authSvc := new(mockAuthenticator)
	c, err := NewCoordinator(authSvc, WithLogger(nil), WithObserver(nil), WithTracer(nil))
	require.NoError(t, err)

	assert.NotNil(t, c.logger)
	assert.NotNil(t, c.observer)
	assert.NotNil(t, c.tracer)
}
