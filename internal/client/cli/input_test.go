package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubInput(t *testing.T, tty bool, pw string, err error) {
	t.Helper()
	oldRead, oldIs, oldFD := readPassword, isTerminal, stdinFD
	t.Cleanup(func() { readPassword, isTerminal, stdinFD = oldRead, oldIs, oldFD })

	stdinFD = func() int { return 0 }
	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(pw), nil
	}
}

func TestGetPassphrase(t *testing.T) {
	stubInput(t, true, "s3cret", nil)

	var out bytes.Buffer
	pw, err := GetPassphrase(&out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Session passphrase: \n", out.String())
}

func TestGetPassphrase_Error(t *testing.T) {
	stubInput(t, true, "", errors.New("boom"))

	var out bytes.Buffer
	_, err := GetPassphrase(&out)
	assert.Error(t, err)
}

func TestCanPrompt(t *testing.T) {
	stubInput(t, false, "", nil)
	assert.False(t, canPrompt())

	isTerminal = func(int) bool { return true }
	assert.True(t, canPrompt())
}
