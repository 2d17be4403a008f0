package debugger

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"tern/internal/object"
	"tern/internal/runtimeio"
)

const consolePrompt = "(tdb) "

const consoleHelp = `commands:
  c, continue     resume execution
  s, step         resume and pause before the next statement
  bt, backtrace   list frames
  locals          list bindings in scope
  this            print the frame's receiver
  p <source>      evaluate source in the frame
  help            show this text
anything else is evaluated in the frame`

// Console is an interactive pause handler.
type Console struct {
	in  *runtimeio.LineReader
	out io.Writer
}

func NewConsole(in *runtimeio.LineReader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

// Pause runs the console loop until the user resumes or input ends.
func (c *Console) Pause(cf *CallFrame) {
	fmt.Fprintf(c.out, "paused at %s\n", describeFrame(cf))
	for {
		line, err := c.in.ReadLine(consolePrompt)
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		switch {
		case cmd == "":
			continue
		case cmd == "c" || cmd == "continue":
			return
		case cmd == "s" || cmd == "step":
			cf.frame.Machine().Step()
			return
		case cmd == "bt" || cmd == "backtrace":
			for i, f := range cf.Backtrace() {
				fmt.Fprintf(c.out, "#%d %s\n", i, describeFrame(f))
			}
		case cmd == "locals":
			c.printLocals(cf)
		case cmd == "this":
			if v, ok := cf.ThisObject(); ok {
				fmt.Fprintln(c.out, v.Inspect())
			} else {
				fmt.Fprintln(c.out, "<no receiver>")
			}
		case cmd == "help":
			fmt.Fprintln(c.out, consoleHelp)
		case cmd == "p":
			fmt.Fprintln(c.out, "usage: p <source>")
		default:
			c.evaluate(cf, strings.TrimPrefix(cmd, "p "))
		}
	}
}

func (c *Console) evaluate(cf *CallFrame, source string) {
	v, err := cf.Evaluate(source)
	if err != nil {
		var exc *object.Exception
		if errors.As(err, &exc) {
			fmt.Fprintf(c.out, "uncaught %s\n", exc.Inspect())
			return
		}
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, v.Inspect())
}

// printLocals lists the innermost scopes up to and including the frame's
// var scope.
func (c *Console) printLocals(cf *CallFrame) {
	for env := cf.Scope(); env != nil; env = env.Outer() {
		if env.Object() != nil {
			break
		}
		for _, name := range env.Names() {
			if strings.Contains(name, ".") {
				continue
			}
			v, _ := env.GetHere(name)
			fmt.Fprintf(c.out, "%s = %s\n", name, v.Inspect())
		}
		if env.IsVarScope() {
			break
		}
	}
}

func describeFrame(cf *CallFrame) string {
	name, ok := cf.FunctionName()
	switch {
	case cf.Frame().Layout == nil:
		name = "<native>"
		if fn, isBuiltin := cf.Frame().Callee().(*object.Builtin); isBuiltin {
			name = fn.Name + " <native>"
		}
		return name
	case !ok:
		name = "<" + cf.Frame().Layout.Kind.String() + ">"
	case name == "":
		name = "<anonymous>"
	}
	url := cf.SourceURL()
	if url == "" {
		url = "<anonymous>"
	}
	return fmt.Sprintf("%s (%s:%d:%d)", name, url, cf.Line(), cf.Column())
}
