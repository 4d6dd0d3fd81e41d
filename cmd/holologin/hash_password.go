package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/holomush/holologin/internal/devserver"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print an argon2id hash for a devserver accounts file",
		Long: `Read a password from stdin and print its argon2id hash, suitable for
the password_hash field of a devserver accounts file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			hash, err := devserver.NewHasher(devserver.DefaultParams).Hash(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

// readPassword reads without echo from a terminal, otherwise one line.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		cmd.PrintErr("Password: ")
		b, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // fd fits in int
		cmd.PrintErrln()
		if err != nil {
			return "", oops.Wrapf(err, "read password")
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", oops.Wrapf(err, "read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
