// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package console is the terminal front end for the login form.
//
// It prompts for an identifier and secret, forwards them to a form
// Controller, and renders field errors, progress, and the signed-in view.
// All login rules live in the controller.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/samber/oops"

	"github.com/holomush/holologin/internal/form"
)

// Controller is the form surface the console drives.
type Controller interface {
	Snapshot() form.State
	Subscribe(fn func(form.State))
	Init()
	EditIdentifier(value string) error
	EditSecret(value string) error
	ClearErrors()
	Submit(ctx context.Context) error
	Logout(ctx context.Context) error
}

// Options configures a Console.
type Options struct {
	// In defaults to os.Stdin.
	In io.Reader
	// Output defaults to termenv.NewOutput(os.Stdout).
	Output *termenv.Output
	// ReadSecret defaults to no-echo terminal input when In is a terminal,
	// otherwise to reading a plain line from In.
	ReadSecret SecretReader
	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Console renders a Controller on a terminal.
type Console struct {
	ctrl       Controller
	lines      *lineReader
	out        *termenv.Output
	readSecret SecretReader
	logger     *slog.Logger
	lastPhase  form.Phase
}

// New creates a Console for ctrl.
func New(ctrl Controller, opts Options) (*Console, error) {
	if ctrl == nil {
		return nil, oops.Errorf("controller is required")
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = termenv.NewOutput(os.Stdout)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	c := &Console{
		ctrl:       ctrl,
		lines:      newLineReader(opts.In),
		out:        opts.Output,
		readSecret: opts.ReadSecret,
		logger:     opts.Logger,
	}
	if c.readSecret == nil {
		if fd, ok := terminalFD(opts.In); ok {
			c.readSecret = terminalSecret(fd, opts.Output)
		} else {
			c.readSecret = c.lines.ReadLine
		}
	}
	return c, nil
}

// Run drives the form until the user quits, input ends, or ctx is done.
// End of input returns nil; a cancelled context returns its error.
func (c *Console) Run(ctx context.Context) error {
	defer c.lines.Close()

	c.lastPhase = c.ctrl.Snapshot().Phase
	c.ctrl.Subscribe(c.onChange)
	c.ctrl.Init()
	c.banner()

	for {
		var (
			quit bool
			err  error
		)
		if c.ctrl.Snapshot().Session.Active {
			quit, err = c.signedIn(ctx)
		} else {
			err = c.signIn(ctx)
		}
		switch {
		case errors.Is(err, io.EOF):
			c.println("")
			return nil
		case err != nil:
			return err
		case quit:
			return nil
		}
	}
}

func (c *Console) signIn(ctx context.Context) error {
	state := c.ctrl.Snapshot()

	label := "ID"
	if state.Identifier != "" {
		label = fmt.Sprintf("ID [%s]", state.Identifier)
	}
	c.prompt(label + ": ")
	id, err := c.lines.ReadLine(ctx)
	if err != nil {
		return err
	}
	if id != "" || state.Identifier == "" {
		if err := c.ctrl.EditIdentifier(id); err != nil {
			return err
		}
	}

	c.prompt("Password: ")
	secret, err := c.readSecret(ctx)
	if err != nil {
		return err
	}
	if err := c.ctrl.EditSecret(secret); err != nil {
		return err
	}

	err = c.ctrl.Submit(ctx)
	state = c.ctrl.Snapshot()
	switch {
	case err == nil:
		name := "there"
		if state.Session.Token != nil && state.Session.Token.DisplayName != "" {
			name = state.Session.Token.DisplayName
		}
		c.println(c.out.String(fmt.Sprintf("Welcome, %s.", name)).Foreground(c.out.Color("2")).Bold().String())
	case form.IsBusy(err):
		c.logger.WarnContext(ctx, "submit rejected while busy")
	default:
		// Validation and login failures are both already in state.
		c.renderErrors(state)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (c *Console) signedIn(ctx context.Context) (bool, error) {
	c.prompt("[logout|quit]> ")
	line, err := c.lines.ReadLine(ctx)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "logout":
		if err := c.ctrl.Logout(ctx); err != nil && !form.IsBusy(err) {
			return false, err
		}
		if !c.ctrl.Snapshot().Session.Active {
			c.println(c.out.String("Signed out.").Faint().String())
		}
		return false, ctx.Err()
	default:
		c.println("Type logout to sign out or quit to exit.")
		return false, nil
	}
}

// onChange prints progress when a request starts.
func (c *Console) onChange(s form.State) {
	if s.Phase == c.lastPhase {
		return
	}
	c.lastPhase = s.Phase
	switch s.Phase {
	case form.PhaseSubmitting:
		c.println(c.out.String("Signing in...").Faint().String())
	case form.PhaseLoggingOut:
		c.println(c.out.String("Signing out...").Faint().String())
	case form.PhaseIdle, form.PhaseEditing, form.PhaseAuthenticated, form.PhaseFailed:
	}
}

func (c *Console) renderErrors(s form.State) {
	red := c.out.Color("1")
	for _, msg := range []string{s.Errors.Identifier, s.Errors.Secret, s.Errors.General} {
		if msg != "" {
			c.println(c.out.String("! " + msg).Foreground(red).String())
		}
	}
}

func (c *Console) banner() {
	c.println(c.out.String("holologin").Bold().Foreground(c.out.Color("#818cf8")).String())
	c.println("")
}

func (c *Console) prompt(s string) {
	_, _ = io.WriteString(c.out, s) //nolint:errcheck // terminal output
}

func (c *Console) println(s string) {
	_, _ = io.WriteString(c.out, s+"\n") //nolint:errcheck // terminal output
}
