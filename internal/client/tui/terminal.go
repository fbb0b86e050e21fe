package tui

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for golang.org/x/term.
var (
	isTerminal = term.IsTerminal
	makeRaw    = term.MakeRaw
	restore    = term.Restore
	getSize    = term.GetSize
)

const (
	altScreenOn  = "\x1b[?1049h"
	altScreenOff = "\x1b[?1049l"
	cursorHide   = "\x1b[?25l"
	cursorShow   = "\x1b[?25h"
	cursorHome   = "\x1b[H"
	clearLine    = "\x1b[K"
	clearBelow   = "\x1b[J"
)

var ErrNotTerminal = errors.New("stdin is not a terminal")

// Terminal is the screen and keyboard the loop drives.
type Terminal interface {
	// Enter switches to raw mode and the alternate screen.
	Enter() error
	// Restore undoes Enter. It is safe to call more than once.
	Restore() error
	Size() (width, height int)
	Draw(lines []string) error
	Input() io.Reader
}

// TTY is the Terminal backed by the process's stdin and stdout.
type TTY struct {
	in    *os.File
	out   *bufio.Writer
	fd    int
	state *term.State
}

func NewTTY(in, out *os.File) *TTY {
	return &TTY{in: in, out: bufio.NewWriter(out), fd: int(in.Fd())}
}

func (t *TTY) Enter() error {
	if !isTerminal(t.fd) {
		return ErrNotTerminal
	}
	state, err := makeRaw(t.fd)
	if err != nil {
		return err
	}
	t.state = state

	_, _ = t.out.WriteString(altScreenOn + cursorHide)
	return t.out.Flush()
}

func (t *TTY) Restore() error {
	if t.state == nil {
		return nil
	}
	_, _ = t.out.WriteString(cursorShow + altScreenOff)
	flushErr := t.out.Flush()

	err := restore(t.fd, t.state)
	t.state = nil
	return errors.Join(err, flushErr)
}

func (t *TTY) Size() (int, int) {
	w, h, err := getSize(t.fd)
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// Draw repaints the whole screen. Raw mode disables output processing,
// so lines end with an explicit carriage return.
func (t *TTY) Draw(lines []string) error {
	_, _ = t.out.WriteString(cursorHome)
	_, _ = t.out.WriteString(frame(lines))
	return t.out.Flush()
}

func (t *TTY) Input() io.Reader { return t.in }

func frame(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(l)
		b.WriteString(clearLine)
	}
	b.WriteString(clearBelow)
	return b.String()
}
