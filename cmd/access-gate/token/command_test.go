package token

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `application:
  name: access-gate
  environment: test
logger:
  level: info
  format: json
gate:
  identifierDomain: "@dept.edu"
  secret:
    source: embedded
    value: correctpw
  signingKey:
    source: embedded
    value: 0123456789abcdef0123456789abcdef
  tokenMode: signed
  sessionDuration: 1h
  loginPage: /
  cookie:
    name: auth
    path: /
    sameSite: Lax
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := Cmd("{}")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestIssueAndInspect(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o600))
	t.Chdir(dir)

	out, err := run(t, "issue", "--identifier", "alice@dept.edu")
	require.NoError(t, err)

	wire := strings.TrimSpace(out)
	assert.Len(t, strings.Split(wire, "."), 3)

	out, err = run(t, "inspect", wire)
	require.NoError(t, err)
	assert.Contains(t, out, "identifier: alice@dept.edu")
	assert.Contains(t, out, "expiresAt: ")

	_, err = run(t, "inspect", wire+"x")
	assert.Error(t, err)
}

func TestCommandArgs(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("issue requires an identifier", func(t *testing.T) {
		_, err := run(t, "issue")
		assert.Error(t, err)
	})

	t.Run("inspect requires exactly one token", func(t *testing.T) {
		_, err := run(t, "inspect")
		assert.Error(t, err)
	})

	t.Run("fails without a config", func(t *testing.T) {
		_, err := run(t, "issue", "--identifier", "alice@dept.edu")
		assert.ErrorContains(t, err, "loading config")
	})
}
