package main

import (
	"bytes"
	stderrors "errors"
	"path/filepath"
	"testing"

	"bitterm/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runApp runs the CLI with a config path that does not exist, so the
// defaults apply regardless of the machine's own configuration
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	argv := append([]string{"bitterm", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	err := newApp(&out, &errOut).Run(argv)
	return out.String(), err
}

func TestEvalCommand(t *testing.T) {
	out, err := runApp(t, "eval", "bits.new(4,", "5)")
	require.NoError(t, err)
	assert.Equal(t, "0b0101 [w=4]\n", out)

	out, err = runApp(t, "--format", "hex", "eval", "bits.new(8, 255)")
	require.NoError(t, err)
	assert.Equal(t, "0xff [w=8]\n", out)

	_, err = runApp(t, "--format", "octal", "eval", "1")
	assert.Equal(t, "INVALID_CONFIG", errors.Code(err))

	_, err = runApp(t, "eval")
	assert.Equal(t, "INVALID_ARGUMENTS", errors.Code(err))
}

func TestRunCommand(t *testing.T) {
	path := writeFile(t, "script.lua", "print(bits.parse('0b1100'):ones())")

	out, err := runApp(t, "run", path)
	require.NoError(t, err)
	assert.Equal(t, "0b0011\n", out)

	_, err = runApp(t, "run")
	assert.Equal(t, "INVALID_ARGUMENTS", errors.Code(err))
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "bitterm.yaml")

	out, err := runApp(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = runApp(t, "config", "init", path)
	assert.Equal(t, "CONFIG_EXISTS", errors.Code(err))

	_, err = runApp(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bitterm "+version+"\n", out)
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "Error: boom", describeError(stderrors.New("boom")))
	assert.Equal(t, "Error: unknown command",
		describeError(errors.NewUserError("X", "unknown command")))
	assert.Equal(t, "Error at line 4: oops",
		describeError(errors.NewRuntimeError("lua", "LUA_EVAL_ERROR", "oops").WithPosition(4, 0)))
}
