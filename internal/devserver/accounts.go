// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package devserver

import (
	"os"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// CodeInvalidAccounts marks an unusable account file.
const CodeInvalidAccounts = "DEV_INVALID_ACCOUNTS"

// Status controls how the dev endpoint answers a correct password.
type Status string

// Account statuses.
const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
	StatusRobot   Status = "robot"
	// StatusNoToken answers 200 with an empty token.
	StatusNoToken Status = "no_token"
)

// Account is one entry in the accounts file.
type Account struct {
	ID           string `yaml:"id"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
	Name         string `yaml:"name"`
	Status       Status `yaml:"status,omitempty"`
}

type accountsFile struct {
	Accounts []Account `yaml:"accounts"`
}

// DefaultAccounts is the seed used when no accounts file is configured.
func DefaultAccounts() []Account {
	return []Account{
		{ID: "test@test.com", Password: "123456", Name: "Tester", Status: StatusActive},
	}
}

// LoadAccounts reads an accounts file.
func LoadAccounts(path string) ([]Account, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, oops.Code(CodeInvalidAccounts).With("path", path).Wrapf(err, "read accounts file")
	}
	return ParseAccounts(data)
}

// ParseAccounts decodes and validates YAML account data.
func ParseAccounts(data []byte) ([]Account, error) {
	var f accountsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code(CodeInvalidAccounts).Wrapf(err, "invalid YAML")
	}
	if len(f.Accounts) == 0 {
		return nil, oops.Code(CodeInvalidAccounts).Errorf("no accounts defined")
	}

	seen := make(map[string]bool, len(f.Accounts))
	for i := range f.Accounts {
		a := &f.Accounts[i]
		a.ID = strings.TrimSpace(a.ID)
		if a.Status == "" {
			a.Status = StatusActive
		}
		if err := a.validate(); err != nil {
			return nil, oops.With("index", i).Wrap(err)
		}
		if seen[a.ID] {
			return nil, oops.Code(CodeInvalidAccounts).With("id", a.ID).Errorf("duplicate account id")
		}
		seen[a.ID] = true
	}
	return f.Accounts, nil
}

func (a Account) validate() error {
	if a.ID == "" {
		return oops.Code(CodeInvalidAccounts).Errorf("account id is required")
	}
	if (a.Password == "") == (a.PasswordHash == "") {
		return oops.Code(CodeInvalidAccounts).With("id", a.ID).
			Errorf("exactly one of password or password_hash is required")
	}
	switch a.Status {
	case StatusActive, StatusBlocked, StatusRobot, StatusNoToken:
	default:
		return oops.Code(CodeInvalidAccounts).With("id", a.ID).With("status", a.Status).
			Errorf("unknown status %q", a.Status)
	}
	return nil
}

// store holds accounts keyed by id with hashed passwords.
type store struct {
	accounts map[string]Account
}

// newStore hashes any plaintext passwords so only hashes are kept in memory.
func newStore(accounts []Account, hasher *Hasher) (*store, error) {
	s := &store{accounts: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		if a.Status == "" {
			a.Status = StatusActive
		}
		if err := a.validate(); err != nil {
			return nil, err
		}
		if a.Password != "" {
			hash, err := hasher.Hash(a.Password)
			if err != nil {
				return nil, oops.With("id", a.ID).Wrap(err)
			}
			a.PasswordHash = hash
			a.Password = ""
		}
		s.accounts[a.ID] = a
	}
	return s, nil
}

func (s *store) lookup(id string) (Account, bool) {
	a, ok := s.accounts[id]
	return a, ok
}
