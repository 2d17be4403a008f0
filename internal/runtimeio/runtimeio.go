package runtimeio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrInputUnavailable = errors.New("input is not available")

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// LineReader reads prompted lines. Prompts are only written when the
// reader is interactive.
type LineReader struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func NewLineReader(in io.Reader, out io.Writer, interactive bool) *LineReader {
	return &LineReader{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// Stdio returns a reader on the process's standard streams.
func Stdio() *LineReader {
	return NewLineReader(os.Stdin, os.Stdout, IsInteractive())
}

func (r *LineReader) Interactive() bool { return r.interactive }

// ReadLine prints prompt and reads one line without its terminator. End
// of input with nothing read yields ErrInputUnavailable.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	if prompt != "" && r.interactive {
		_, _ = fmt.Fprint(r.out, prompt)
	}
	line, err := r.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrInputUnavailable
			}
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
