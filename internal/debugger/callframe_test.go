package debugger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"tern/internal/machine"
	"tern/internal/object"
	"tern/internal/parser"
	"tern/internal/runtimeio"
)

// runPaused executes src and calls onPause for every pause.
func runPaused(t *testing.T, src string, onPause func(cf *CallFrame)) (*machine.ExecState, error) {
	t.Helper()
	m := machine.New(machine.WithOutput(&bytes.Buffer{}))
	global := object.NewObject()
	m.InstallGlobals(global)
	scope := object.NewGlobalEnvironment(global)
	st := machine.NewExecState(global, scope, nil)
	m.SetPauseHandler(func(f *machine.Frame) { onPause(Wrap(f)) })
	unit, perr := parser.Parse(parser.ProgramKind, "dbg.tn", 1, src)
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	_, err := m.Execute(unit, st, global, scope)
	return st, err
}

func TestFrameClassification(t *testing.T) {
	var kinds []FrameType
	var names []string
	src := "debugger\nfunction named() { debugger }\nnamed()\nvar anon = function () { debugger }\nanon()"
	_, err := runPaused(t, src, func(cf *CallFrame) {
		kinds = append(kinds, cf.Type())
		name, ok := cf.FunctionName()
		if !ok {
			name = "<none>"
		}
		names = append(names, name)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKinds := []FrameType{ProgramType, FunctionType, FunctionType}
	wantNames := []string{"<none>", "named", ""}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("expected %d pauses, got %d", len(wantKinds), len(kinds))
	}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] || names[i] != wantNames[i] {
			t.Fatalf("pause %d: expected %s %q, got %s %q", i, wantKinds[i], wantNames[i], kinds[i], names[i])
		}
	}
}

func TestThisObject(t *testing.T) {
	var programThis, methodThis, nativeOK bool
	src := "debugger\nvar o = { m: function () { debugger } }\no.m()\nfunction viaCall() { debugger }\nviaCall.call(o)"
	_, err := runPaused(t, src, func(cf *CallFrame) {
		v, ok := cf.ThisObject()
		if !ok {
			t.Fatalf("script frame should have a receiver")
		}
		switch cf.Line() {
		case 1:
			programThis = v.Type() == object.OBJECT_OBJ
		case 2:
			methodThis = strings.Contains(v.Inspect(), "m: function")
		case 4:
			native := cf.Caller()
			if native.Type() != FunctionType {
				t.Fatalf("native frame of call should classify as function")
			}
			if _, ok := native.ThisObject(); ok {
				t.Fatalf("native frame should have no receiver")
			}
			if _, ok := native.FunctionName(); ok {
				t.Fatalf("native frame should have no function name")
			}
			if _, err := native.Evaluate("1"); !errors.Is(err, ErrNoCodeLayout) {
				t.Fatalf("expected ErrNoCodeLayout, got %v", err)
			}
			nativeOK = true
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !programThis || !methodThis || !nativeOK {
		t.Fatalf("receivers not checked: program=%v method=%v native=%v", programThis, methodThis, nativeOK)
	}
}

func TestEvaluateInFrame(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"1+1", "2"},
		{"x", "42"},
		{"x * y", "84"},
		{"this.tag", "t"},
		{"typeof secret", "string"},
	}
	src := "var secret = 's'\nfunction f(x) {\n  var y = 2\n  x = 42\n  debugger\n}\nf.call({ tag: 't' }, 1)"
	paused := false
	_, err := runPaused(t, src, func(cf *CallFrame) {
		paused = true
		for _, tt := range tests {
			v, err := cf.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("%q: unexpected error: %v", tt.source, err)
			}
			if v.Inspect() != tt.expected {
				t.Fatalf("%q: expected %s, got %s", tt.source, tt.expected, v.Inspect())
			}
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !paused {
		t.Fatalf("expected a pause")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	_, err := runPaused(t, "var a = 1\ndebugger", func(cf *CallFrame) {
		if cf.Line() != 2 {
			t.Fatalf("expected pause on line 2, got %d", cf.Line())
		}
		v, err := cf.Evaluate("(")
		if v != nil {
			t.Fatalf("expected no value, got %s", v.Inspect())
		}
		var exc *object.Exception
		if !errors.As(err, &exc) || exc.Kind() != object.KindSyntaxError {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
		if e, _ := exc.ErrorValue(); e.Line != 1 || e.SourceURL != "" || e.Message == "" {
			t.Fatalf("expected eval code at line 1 with no URL, got %d %q %q", e.Line, e.SourceURL, e.Message)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEvaluateRuntimeErrorDoesNotUnwind(t *testing.T) {
	after := false
	_, err := runPaused(t, "function f() {\n  debugger\n  return 1\n}\nvar r = f()\nr", func(cf *CallFrame) {
		_, err := cf.Evaluate("nope()")
		var exc *object.Exception
		if !errors.As(err, &exc) || exc.Kind() != object.KindReferenceError {
			t.Fatalf("expected ReferenceError, got %v", err)
		}
		after = true
	})
	if err != nil {
		t.Fatalf("paused program should finish normally, got %v", err)
	}
	if !after {
		t.Fatalf("expected a pause")
	}
}

func TestEvaluateDeclarationsLandInFrame(t *testing.T) {
	st, err := runPaused(t, "function f() {\n  debugger\n  return added + 1\n}\nvar out = f()", func(cf *CallFrame) {
		if _, err := cf.Evaluate("var added = 10\nlet hidden = 1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := cf.Scope().VarScope().GetHere("hidden"); ok {
			t.Fatalf("let should stay local to the evaluation")
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := st.Global.Get("out"); v == nil || v.Inspect() != "11" {
		t.Fatalf("expected out = 11, got %v", v)
	}
	if _, ok := st.Global.GetOwn("added"); ok {
		t.Fatalf("var from a function frame evaluation should not become global")
	}
}

func TestEvaluateSuppressesNestedPauses(t *testing.T) {
	pauses := 0
	_, err := runPaused(t, "debugger", func(cf *CallFrame) {
		pauses++
		if _, err := cf.Evaluate("debugger\n1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pauses != 1 {
		t.Fatalf("expected one pause, got %d", pauses)
	}
}

func TestConsoleSession(t *testing.T) {
	var out bytes.Buffer
	input := "p x + 1\nlocals\nbt\nthis\nc\n"
	console := NewConsole(runtimeio.NewLineReader(strings.NewReader(input), &out, false), &out)
	_, err := runPaused(t, "function f(x) {\n  debugger\n}\nf(1)", console.Pause)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"paused at f (dbg.tn:2:3)",
		"\n2\n",
		"x = 1",
		"#0 f (dbg.tn:2:3)",
		"#1 <program> (dbg.tn:4:1)",
		"undefined",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("console output missing %q:\n%s", want, got)
		}
	}
}

func TestConsoleBarePrintShowsUsage(t *testing.T) {
	var out bytes.Buffer
	console := NewConsole(runtimeio.NewLineReader(strings.NewReader("p\nc\n"), &out, false), &out)
	if _, err := runPaused(t, "function f(p) {\n  debugger\n}\nf(5)", console.Pause); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "usage: p <source>") {
		t.Fatalf("expected usage line:\n%s", got)
	}
	if strings.Contains(got, "\n5\n") {
		t.Fatalf("bare p should not evaluate the binding p:\n%s", got)
	}
}
