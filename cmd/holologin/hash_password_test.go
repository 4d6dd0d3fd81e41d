package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holologin/internal/devserver"
)

func TestHashPasswordCommand(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("s3cret\n"))
	cmd.SetArgs([]string{"hash-password"})

	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := devserver.NewHasher(devserver.DefaultParams).Verify("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashPasswordCommand_EmptyInput(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"hash-password"})

	assert.Error(t, cmd.Execute())
}
