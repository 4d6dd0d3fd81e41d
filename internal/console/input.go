// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

type inputResult struct {
	text string
	err  error
}

// lineReader reads one line per request on a background goroutine so a
// blocked read can be abandoned when the context ends. It only reads when
// asked, leaving the terminal free for no-echo secret input in between.
type lineReader struct {
	reader *bufio.Reader
	req    chan struct{}
	res    chan inputResult
	done   chan struct{}

	// abandoned counts requested lines whose caller gave up waiting.
	abandoned int

	startOnce sync.Once
	closeOnce sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		reader: bufio.NewReader(r),
		req:    make(chan struct{}),
		res:    make(chan inputResult, 1),
		done:   make(chan struct{}),
	}
}

func (l *lineReader) pump() {
	for {
		select {
		case <-l.done:
			return
		case <-l.req:
		}
		text, err := l.reader.ReadString('\n')
		if text != "" && errors.Is(err, io.EOF) {
			// Last line without a newline still counts.
			err = nil
		}
		l.res <- inputResult{text: strings.TrimRight(text, "\r\n"), err: err}
	}
}

// ReadLine returns the next line without its line ending.
// A line requested by a cancelled call is discarded. ReadLine is not safe
// for concurrent use.
func (l *lineReader) ReadLine(ctx context.Context) (string, error) {
	l.startOnce.Do(func() { go l.pump() })

	for l.abandoned > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-l.res:
			l.abandoned--
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l.req <- struct{}{}:
	}

	select {
	case <-ctx.Done():
		l.abandoned++
		return "", ctx.Err()
	case res := <-l.res:
		return res.text, res.err
	}
}

// Close stops the pump once any in-flight read returns.
func (l *lineReader) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// SecretReader reads a secret without echoing it when possible.
type SecretReader func(ctx context.Context) (string, error)

// terminalSecret reads from a terminal file descriptor with echo disabled.
func terminalSecret(fd int, out io.Writer) SecretReader {
	return func(ctx context.Context) (string, error) {
		ch := make(chan inputResult, 1)
		go func() {
			b, err := term.ReadPassword(fd)
			ch <- inputResult{text: string(b), err: err}
		}()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-ch:
			// ReadPassword swallows the newline the user typed.
			_, _ = io.WriteString(out, "\n") //nolint:errcheck // terminal echo
			return res.text, res.err
		}
	}
}

// terminalFD returns the descriptor of r when it is an interactive terminal.
func terminalFD(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd()) //nolint:gosec // file descriptors fit in int
	return fd, term.IsTerminal(fd)
}
