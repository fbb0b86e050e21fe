package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Test seams for the terminal calls.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFD      = func() int { return int(os.Stdin.Fd()) }
)

// canPrompt reports whether stdin is an interactive terminal.
func canPrompt() bool {
	return isTerminal(stdinFD())
}

// GetPassphrase prints a prompt to w and reads the session passphrase
// from the terminal without echo. The caller should wipe the result.
func GetPassphrase(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Session passphrase: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(stdinFD())
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
