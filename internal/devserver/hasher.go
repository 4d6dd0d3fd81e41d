// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package devserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Error codes for password hashing.
const (
	CodeEmptyPassword = "DEV_EMPTY_PASSWORD"
	CodeInvalidHash   = "DEV_INVALID_HASH"
)

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultParams are the OWASP-recommended argon2id parameters.
var DefaultParams = Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Hasher produces and checks argon2id hashes in PHC string format.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher. Zero params fall back to DefaultParams.
func NewHasher(p Params) *Hasher {
	if p == (Params{}) {
		p = DefaultParams
	}
	return &Hasher{params: p}
}

// Hash returns $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code(CodeEmptyPassword).Errorf("password cannot be empty")
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("DEV_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The cost parameters are
// read from encoded, not from the Hasher.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	ph, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), ph.salt, ph.time, ph.memory, ph.threads, uint32(len(ph.key))) //nolint:gosec // length bounded in parsePHC
	return subtle.ConstantTimeCompare(computed, ph.key) == 1, nil
}

type phc struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parsePHC(encoded string) (phc, error) {
	invalid := func(format string, args ...any) error {
		return oops.Code(CodeInvalidHash).Errorf(format, args...)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phc{}, invalid("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return phc{}, invalid("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phc{}, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if version != argon2.Version {
		return phc{}, invalid("unsupported argon2 version: %d", version)
	}

	var out phc
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.memory, &out.time, &threads); err != nil {
		return phc{}, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return phc{}, invalid("threads value %d out of range", threads)
	}
	out.threads = uint8(threads)

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phc{}, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return phc{}, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if len(out.key) == 0 || len(out.key) > 1<<10 {
		return phc{}, invalid("invalid hash key length: %d", len(out.key))
	}
	return out, nil
}
