// Package repl reads balanced chunks of source and evaluates them in one
// engine context, printing completion values.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"tern/internal/engine"
	"tern/internal/object"
	"tern/internal/runtimeio"
)

const (
	prompt1 = "tern> "
	prompt2 = "....> "

	sourceURL = "<repl>"
)

// Start runs the loop until end of input or an exit command. Every chunk
// shares ctx's global scope.
func Start(in *runtimeio.LineReader, out io.Writer, ctx *engine.Context) error {
	if in.Interactive() {
		fmt.Fprint(out, "tern REPL (Ctrl+D to exit)\n")
	}

	var buf strings.Builder
	var bal balance
	startLine, lineNo := 1, 0

	for {
		prompt := prompt1
		if buf.Len() > 0 {
			prompt = prompt2
		}
		line, err := in.ReadLine(prompt)
		if errors.Is(err, runtimeio.ErrInputUnavailable) {
			if in.Interactive() {
				fmt.Fprint(out, "\n")
			}
			return nil
		}
		if err != nil {
			return err
		}
		lineNo++

		trim := strings.TrimSpace(line)
		if buf.Len() == 0 {
			if trim == "exit" || trim == "quit" || trim == ".exit" {
				return nil
			}
			if trim == "" {
				continue
			}
			startLine = lineNo
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		bal.update(line)
		if bal.open() {
			continue
		}

		src := buf.String()
		buf.Reset()
		bal = balance{}

		v, err := ctx.EvaluateScript(src, nil, sourceURL, startLine)
		if err != nil {
			fmt.Fprintln(out, describe(err))
			continue
		}
		if v != nil && v.Type() != object.UNDEFINED_OBJ {
			fmt.Fprintln(out, v.Inspect())
		}
	}
}

func describe(err error) string {
	var exc *object.Exception
	if errors.As(err, &exc) {
		return "Uncaught " + exc.Error()
	}
	return "error: " + err.Error()
}

// balance tracks whether the text read so far leaves a bracket, string or
// block comment open.
type balance struct {
	braces, parens, brackets int
	quote                    byte
	escaped                  bool
	inBlockComment           bool
}

func (b *balance) open() bool {
	return b.braces > 0 || b.parens > 0 || b.brackets > 0 || b.quote != 0 || b.inBlockComment
}

func (b *balance) update(line string) {
	for i := 0; i < len(line); i++ {
		ch := line[i]

		if b.inBlockComment {
			if ch == '*' && i+1 < len(line) && line[i+1] == '/' {
				b.inBlockComment = false
				i++
			}
			continue
		}

		if b.quote != 0 {
			switch {
			case b.escaped:
				b.escaped = false
			case ch == '\\':
				b.escaped = true
			case ch == b.quote:
				b.quote = 0
			}
			continue
		}

		if ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			break
		}
		if ch == '/' && i+1 < len(line) && line[i+1] == '*' {
			b.inBlockComment = true
			i++
			continue
		}

		switch ch {
		case '"', '\'':
			b.quote = ch
		case '{':
			b.braces++
		case '}':
			if b.braces > 0 {
				b.braces--
			}
		case '(':
			b.parens++
		case ')':
			if b.parens > 0 {
				b.parens--
			}
		case '[':
			b.brackets++
		case ']':
			if b.brackets > 0 {
				b.brackets--
			}
		}
	}
	// Strings do not span lines.
	if b.quote != 0 && !b.escaped {
		b.quote = 0
	}
	b.escaped = false
}
