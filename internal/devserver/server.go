// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package devserver is a local stand-in for the remote login endpoint.
//
// It answers POST login and logout requests with the same wire format and
// action hints as the production endpoint, backed by an in-memory account
// list with argon2id password hashes.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holologin/internal/login"
	"github.com/holomush/holologin/internal/transport"
)

// SessionCookie carries the session token between login and logout.
const SessionCookie = "holologin_session"

const maxRequestBody = 1 << 20

// Options configures a Server.
type Options struct {
	// Addr is the listen address in "host:port" format.
	Addr string
	// LoginPath defaults to transport.DefaultLoginPath.
	LoginPath string
	// LogoutPath defaults to transport.DefaultLogoutPath.
	LogoutPath string
	// Accounts defaults to DefaultAccounts.
	Accounts []Account
	// Hasher defaults to NewHasher(DefaultParams).
	Hasher *Hasher
	// Logger defaults to a discard logger.
	Logger *slog.Logger
	// Now defaults to time.Now. It drives account lockouts.
	Now func() time.Time
}

// Server serves the dev login endpoint.
type Server struct {
	addr       string
	loginPath  string
	logoutPath string
	hasher     *Hasher
	store      *store
	throttle   *throttle
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]string // token -> account id

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type actionResponse struct {
	Action string `json:"action"`
}

// New creates a Server. Plaintext passwords in opts.Accounts are hashed here.
func New(opts Options) (*Server, error) {
	if opts.LoginPath == "" {
		opts.LoginPath = transport.DefaultLoginPath
	}
	if opts.LogoutPath == "" {
		opts.LogoutPath = transport.DefaultLogoutPath
	}
	if opts.Accounts == nil {
		opts.Accounts = DefaultAccounts()
	}
	if opts.Hasher == nil {
		opts.Hasher = NewHasher(DefaultParams)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	st, err := newStore(opts.Accounts, opts.Hasher)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:       opts.Addr,
		loginPath:  opts.LoginPath,
		logoutPath: opts.LogoutPath,
		hasher:     opts.Hasher,
		store:      st,
		throttle:   newThrottle(opts.Now),
		logger:     opts.Logger,
		sessions:   make(map[string]string),
	}, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post(s.loginPath, s.handleLogin)
	r.Post(s.logoutPath, s.handleLogout)
	return r
}

// Start begins serving on Addr. The returned channel receives any serve error
// and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("dev server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("dev server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("dev server started",
		"addr", listener.Addr().String(),
		"login_path", s.loginPath,
		"logout_path", s.logoutPath,
	)
	return errCh, nil
}

// Stop gracefully shuts down the server. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_dev_server").Wrap(err)
		}
	}
	s.logger.Info("dev server stopped")
	return nil
}

// Addr returns the listening address, or "" if never started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// URL returns the base URL of a started server.
func (s *Server) URL() string {
	if addr := s.Addr(); addr != "" {
		return "http://" + addr
	}
	return ""
}

// SessionCount reports how many sessions are open.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.logger.WarnContext(r.Context(), "invalid login body",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		s.reject(w, http.StatusBadRequest, login.Unknown)
		return
	}

	acct, ok := s.store.lookup(strings.TrimSpace(req.ID))
	if !ok {
		s.reject(w, http.StatusUnauthorized, login.UserNotFound)
		return
	}

	if locked, remaining := s.throttle.lockedOut(acct.ID); locked {
		s.logger.InfoContext(r.Context(), "login refused for locked account",
			"id", acct.ID,
			"remaining", remaining.String(),
		)
		s.reject(w, http.StatusForbidden, login.UserBlocked)
		return
	}

	match, err := s.hasher.Verify(req.Password, acct.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "stored hash unusable",
			"request_id", middleware.GetReqID(r.Context()),
			"id", acct.ID,
			"error", err,
		)
		s.reject(w, http.StatusInternalServerError, login.Unknown)
		return
	}
	if !match {
		switch failures := s.throttle.fail(acct.ID); {
		case failures >= LockoutThreshold:
			s.reject(w, http.StatusForbidden, login.UserBlocked)
		case failures >= RobotThreshold:
			s.reject(w, http.StatusUnauthorized, login.RobotSuspected)
		default:
			s.reject(w, http.StatusUnauthorized, login.WrongCredentials)
		}
		return
	}
	s.throttle.reset(acct.ID)

	switch acct.Status {
	case StatusBlocked:
		s.reject(w, http.StatusForbidden, login.UserBlocked)
		return
	case StatusRobot:
		s.reject(w, http.StatusForbidden, login.RobotSuspected)
		return
	case StatusNoToken:
		writeJSON(w, http.StatusOK, loginResponse{Name: acct.Name})
		return
	case StatusActive:
	}

	token := ulid.Make().String()
	s.mu.Lock()
	s.sessions[token] = acct.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Name: acct.Name})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)

	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if !ok {
		s.reject(w, http.StatusUnauthorized, login.Unknown)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, struct{}{})
}

// sessionToken reads the token from the session cookie or a bearer header.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (s *Server) reject(w http.ResponseWriter, status int, code login.ErrorCode) {
	writeJSON(w, status, actionResponse{Action: code.Action()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(body)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
