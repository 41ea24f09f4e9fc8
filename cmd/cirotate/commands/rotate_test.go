package commands

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condaops/cirotate/internal/logging"
)

func testConfig() *Config {
	return &Config{Logger: logging.New(io.Discard, false, true)}
}

func TestRotateCommandRejectsUnknownProvider(t *testing.T) {
	cmd := NewRotateCommand(testConfig())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--user", "u", "--project", "p", "--provider", "github"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown provider: github")
	assert.Contains(t, err.Error(), "circle")
}

func TestRotateCommandRequiresUserAndProject(t *testing.T) {
	var errBuf bytes.Buffer
	cmd := NewRotateCommand(testConfig())
	cmd.SetOut(io.Discard)
	cmd.SetErr(&errBuf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
