// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package transport performs the request/response exchange with the remote
// authentication endpoint. It does no business validation.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holologin/internal/login"
)

// Default endpoint paths.
const (
	DefaultLoginPath  = "/api/login"
	DefaultLogoutPath = "/api/logout"
)

// maxErrorBody bounds how much of a failure body is read looking for a hint.
const maxErrorBody = 64 * 1024

// Config holds configuration for an HTTPTransport.
type Config struct {
	// BaseURL is the scheme and host (plus optional prefix) of the endpoint.
	BaseURL string
	// LoginPath defaults to DefaultLoginPath.
	LoginPath string
	// LogoutPath defaults to DefaultLogoutPath.
	LogoutPath string
	// Client defaults to a plain http.Client without timeout.
	Client *http.Client
	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// submitRequest is the wire body for a credential submission.
type submitRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// submitResponse is the wire body of a successful submission.
type submitResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// failureBody is the subset of a failure body we understand.
type failureBody struct {
	Action string `json:"action"`
}

// HTTPTransport talks JSON over HTTP to the auth endpoint.
type HTTPTransport struct {
	client    *http.Client
	loginURL  string
	logoutURL string
	logger    *slog.Logger
}

// NewHTTPTransport creates an HTTPTransport.
// Returns an error if the base URL is missing or not http(s).
func NewHTTPTransport(cfg Config) (*HTTPTransport, error) {
	if cfg.BaseURL == "" {
		return nil, oops.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, oops.With("base_url", cfg.BaseURL).Wrapf(err, "parse base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, oops.With("base_url", cfg.BaseURL).Errorf("base URL must be http or https")
	}
	if base.Host == "" {
		return nil, oops.With("base_url", cfg.BaseURL).Errorf("base URL has no host")
	}

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	logoutPath := cfg.LogoutPath
	if logoutPath == "" {
		logoutPath = DefaultLogoutPath
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTPTransport{
		client:    client,
		loginURL:  joinURL(base, loginPath),
		logoutURL: joinURL(base, logoutPath),
		logger:    logger,
	}, nil
}

func joinURL(base *url.URL, path string) string {
	return strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(path, "/")
}

// Submit posts the credentials and decodes the session token.
// An empty token in a 2xx response is returned as-is; classifying it is the
// caller's job.
func (t *HTTPTransport) Submit(ctx context.Context, creds login.Credentials) (login.SessionToken, error) {
	body, err := json.Marshal(submitRequest{ID: creds.Identifier, Password: creds.Secret})
	if err != nil {
		return login.SessionToken{}, &Error{Op: "submit", Err: oops.Wrapf(err, "encode request")}
	}

	resp, requestID, err := t.post(ctx, "submit", t.loginURL, body)
	if err != nil {
		return login.SessionToken{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return login.SessionToken{}, t.failure("submit", requestID, resp)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return login.SessionToken{}, &Error{
			Op:         "submit",
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Err:        oops.Wrapf(err, "decode response"),
		}
	}

	t.logger.Debug("submit completed",
		"request_id", requestID,
		"status", resp.StatusCode,
	)
	return login.SessionToken{Token: out.Token, DisplayName: out.Name}, nil
}

// Terminate posts an empty logout request. The response body is ignored.
func (t *HTTPTransport) Terminate(ctx context.Context) error {
	resp, requestID, err := t.post(ctx, "terminate", t.logoutURL, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return t.failure("terminate", requestID, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	t.logger.Debug("terminate completed",
		"request_id", requestID,
		"status", resp.StatusCode,
	)
	return nil
}

func (t *HTTPTransport) post(ctx context.Context, op, target string, body []byte) (*http.Response, string, error) {
	requestID := ulid.Make().String()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, reader)
	if err != nil {
		return nil, requestID, &Error{Op: op, RequestID: requestID, Err: oops.Wrapf(err, "build request")}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("request failed",
			"op", op,
			"request_id", requestID,
			"error", err.Error(),
		)
		return nil, requestID, &Error{Op: op, RequestID: requestID, Err: err}
	}
	return resp, requestID, nil
}

// failure builds an Error from a non-2xx response, picking up the action hint
// when the body is JSON with a non-empty string "action".
func (t *HTTPTransport) failure(op, requestID string, resp *http.Response) error {
	terr := &Error{Op: op, StatusCode: resp.StatusCode, RequestID: requestID}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		var fb failureBody
		if json.Unmarshal(raw, &fb) == nil {
			terr.Action = fb.Action
		}
	}

	t.logger.Debug("request rejected",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"action", terr.Action,
	)
	return terr
}
