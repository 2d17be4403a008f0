package machine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"tern/internal/limits"
	"tern/internal/object"
	"tern/internal/parser"
)

type testEnv struct {
	m     *Machine
	st    *ExecState
	out   *bytes.Buffer
	scope *object.Environment
}

func newTestEnv(opts ...Option) *testEnv {
	out := &bytes.Buffer{}
	m := New(append([]Option{WithOutput(out)}, opts...)...)
	global := object.NewObject()
	global.Class = "global"
	m.InstallGlobals(global)
	scope := object.NewGlobalEnvironment(global)
	return &testEnv{m: m, st: NewExecState(global, scope, nil), out: out, scope: scope}
}

func (e *testEnv) run(t *testing.T, src string) (object.Value, error) {
	t.Helper()
	unit, perr := parser.Parse(parser.ProgramKind, "test.tn", 1, src)
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	return e.m.Execute(unit, e.st, e.st.Global, e.scope)
}

func TestExecuteCompletionValues(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2", "3"},
		{"var x = 4; x * 2", "8"},
		{"let s = 'a'; s + 'b'", "ab"},
		{"function f(a, b) { return a - b }\nf(5, 3)", "2"},
		{"var n = 0\nfor (var i = 0; i < 5; i++) { n += i }\nn", "10"},
		{"var i = 0\nwhile (true) { i++; if (i > 3) { break } }\ni", "4"},
		{"var a = [1, 2, 3]; a.push(4); a.join('-')", "1-2-3-4"},
		{"[1, 2, 3].map(function (x) { return x * 2 }).join()", "2,4,6"},
		{"'Hello'.toUpperCase().slice(1, 3)", "EL"},
		{"var o = { a: 1, b: { c: 2 } }; o.b.c", "2"},
		{"Object.keys({ b: 1, a: 2, 1: 3 }).join()", "1,b,a"},
		{"typeof missing", "undefined"},
		{"typeof print", "function"},
		{"function P(x) { this.x = x }\nvar p = new P(7); p.x", "7"},
		{"function g() { return this }\ng.call(5)", "5"},
		{"var fact = function f(n) {\n  if (n <= 1) { return 1 }\n  return n * f(n - 1)\n}\nfact(5)", "120"},
		{"try { throw new TypeError('bad') } catch (e) { e.name + ': ' + e.message }", "TypeError: bad"},
		{"var r = 0\ntry { r = 1 } finally { r = 2 }\nr", "2"},
		{"Math.max(1, 9, 3)", "9"},
		{"var s = 0\n;[1, 2].forEach(function (v) { s += v })\ns", "3"},
		{"1 / 0", "Infinity"},
		{"'ab'.length + [1, 2, 3].length", "5"},
	}
	for _, tt := range tests {
		env := newTestEnv()
		got, err := env.run(t, tt.input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.input, err)
		}
		if got.Inspect() != tt.expected {
			t.Fatalf("%q: expected %s, got %s", tt.input, tt.expected, got.Inspect())
		}
	}
}

func TestExecuteEmptyProgramIsUndefined(t *testing.T) {
	env := newTestEnv()
	got, err := env.run(t, "var x = 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != object.UNDEFINED {
		t.Fatalf("expected undefined, got %s", got.Inspect())
	}
}

func TestGlobalVarsLiveOnGlobalObject(t *testing.T) {
	env := newTestEnv()
	if _, err := env.run(t, "var g = 1\nlet l = 2\nfunction f() {}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := env.st.Global.GetOwn("g"); !ok {
		t.Fatalf("var g should be a global object property")
	}
	if _, ok := env.st.Global.GetOwn("f"); !ok {
		t.Fatalf("function f should be a global object property")
	}
	if _, ok := env.st.Global.GetOwn("l"); ok {
		t.Fatalf("let l should not be a global object property")
	}
	if v, ok := env.scope.Get("l"); !ok || v.Inspect() != "2" {
		t.Fatalf("let l should be in the global scope")
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  object.ErrorKind
		msg   string
		line  int
	}{
		{"missing", object.KindReferenceError, "missing is not defined", 1},
		{"var f = 1\nf()", object.KindTypeError, "f is not a function", 2},
		{"var u\n\nu.x", object.KindTypeError, "Cannot read properties of undefined (reading 'x')", 3},
		{"const c = 1\nc = 2", object.KindTypeError, "Assignment to constant variable.", 2},
		{"new 5", object.KindTypeError, "5 is not a constructor", 1},
		{"throw new RangeError('r')", object.KindRangeError, "r", 1},
	}
	for _, tt := range tests {
		env := newTestEnv()
		_, err := env.run(t, tt.input)
		var exc *object.Exception
		if !errors.As(err, &exc) {
			t.Fatalf("%q: expected exception, got %v", tt.input, err)
		}
		e, ok := exc.ErrorValue()
		if !ok {
			t.Fatalf("%q: expected error value, got %s", tt.input, exc.Inspect())
		}
		if e.Kind != tt.kind || e.Message != tt.msg {
			t.Fatalf("%q: expected %s: %s, got %s", tt.input, tt.kind, tt.msg, e.Inspect())
		}
		if e.Line != tt.line {
			t.Fatalf("%q: expected line %d, got %d", tt.input, tt.line, e.Line)
		}
		if e.SourceURL != "test.tn" {
			t.Fatalf("%q: expected source url test.tn, got %q", tt.input, e.SourceURL)
		}
	}
}

func TestThrowNonError(t *testing.T) {
	env := newTestEnv()
	_, err := env.run(t, "throw 'boom'")
	var exc *object.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected exception, got %v", err)
	}
	if s, ok := exc.Value.(*object.String); !ok || s.Value != "boom" {
		t.Fatalf("expected thrown string, got %s", exc.Inspect())
	}
}

func TestStackTraceNamesFrames(t *testing.T) {
	env := newTestEnv()
	_, err := env.run(t, "function inner() { throw new Error('x') }\nfunction outer() { inner() }\nouter()")
	var exc *object.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected exception, got %v", err)
	}
	e, _ := exc.ErrorValue()
	for _, want := range []string{"at inner (test.tn:1:", "at outer (test.tn:2:", "at <main> (test.tn:3:"} {
		if !strings.Contains(e.Stack, want) {
			t.Fatalf("stack missing %q:\n%s", want, e.Stack)
		}
	}
}

func TestRecursionLimit(t *testing.T) {
	env := newTestEnv(WithMaxDepth(50))
	_, err := env.run(t, "function f(n) { return f(n + 1) }\nf(0)")
	var exc *object.Exception
	if !errors.As(err, &exc) || exc.Kind() != object.KindRangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if e, _ := exc.ErrorValue(); e.Message != limits.MaxRecursionMessage() {
		t.Fatalf("unexpected message %q", e.Message)
	}
	if env.st.Registers.Depth() != 0 {
		t.Fatalf("frames leaked: depth %d", env.st.Registers.Depth())
	}
}

func TestRegisterFileOverflow(t *testing.T) {
	env := newTestEnv()
	env.st = NewExecState(env.st.Global, env.scope, NewRegisterFile(64))
	_, err := env.run(t, "function f() { return f() }\nf()")
	var exc *object.Exception
	if !errors.As(err, &exc) || exc.Kind() != object.KindRangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if n := len(env.st.Registers.Live()); n != 0 {
		t.Fatalf("registers leaked: %d live", n)
	}
}

type failingAllocator struct{ after int }

func (a *failingAllocator) Allocate(object.Value) error {
	if a.after == 0 {
		return limits.MaxMemoryError{Limit: 10}
	}
	a.after--
	return nil
}

func TestAllocatorFailureRaisesRangeError(t *testing.T) {
	env := newTestEnv(WithAllocator(&failingAllocator{after: 2}))
	_, err := env.run(t, "var a = []\nvar b = {}\nvar c = [1]")
	var exc *object.Exception
	if !errors.As(err, &exc) || exc.Kind() != object.KindRangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if e, _ := exc.ErrorValue(); !strings.Contains(e.Message, "max memory exceeded") || e.Line != 3 {
		t.Fatalf("unexpected error %s at line %d", e.Inspect(), e.Line)
	}
}

func TestPrintWritesToConfiguredOutput(t *testing.T) {
	env := newTestEnv()
	if _, err := env.run(t, "print('a', 1, [1, 'b'], { k: true })"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := env.out.String(); got != "a 1 [1, 'b'] { k: true }\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestFunctionFrameLayout(t *testing.T) {
	env := newTestEnv()
	var seen bool
	env.m.SetPauseHandler(func(f *Frame) {
		seen = true
		if f.Layout == nil || f.Layout.Kind != FunctionLayout {
			t.Fatalf("expected function layout")
		}
		if f.Layout.ThisRegister != 1+f.Layout.NumParameters {
			t.Fatalf("this register %d with %d parameters", f.Layout.ThisRegister, f.Layout.NumParameters)
		}
		if fn, ok := f.Callee().(*object.Function); !ok || fn.Name != "add" {
			t.Fatalf("callee register should hold add, got %v", f.Callee())
		}
		if v, _ := f.This(); v.Inspect() != "{ tag: 1 }" {
			t.Fatalf("unexpected this %s", v.Inspect())
		}
		if f.Caller == nil || f.Caller.Layout != nil {
			t.Fatalf("caller should be the native frame of call")
		}
		if _, ok := f.Caller.This(); ok {
			t.Fatalf("native frame should have no this")
		}
		if pf := f.Caller.Caller; pf == nil || pf.Layout.Kind != ProgramLayout {
			t.Fatalf("outermost frame should be the program frame")
		}
	})
	src := "var o = { tag: 1 }\nfunction add(a, b) {\n  debugger\n  return a + b\n}\nadd.call(o, 1, 2)"
	if _, err := env.run(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatalf("pause handler not called")
	}
}

func TestBreakpointsAndStep(t *testing.T) {
	env := newTestEnv()
	var lines []int
	env.m.SetPauseHandler(func(f *Frame) {
		lines = append(lines, f.Line)
		if f.Line == 2 {
			env.m.Step()
		}
	})
	env.m.SetBreakpoint("test.tn", 2)
	if _, err := env.run(t, "var a = 1\nvar b = 2\nvar c = 3\nvar d = 4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 || lines[0] != 2 || lines[1] != 3 {
		t.Fatalf("expected pauses at lines 2 and 3, got %v", lines)
	}

	env.m.ClearBreakpoints()
	lines = nil
	if _, err := env.run(t, "var e = 5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no pauses after clearing, got %v", lines)
	}
}

func TestNoPauseSuppressesHandler(t *testing.T) {
	env := newTestEnv()
	called := false
	env.m.SetPauseHandler(func(*Frame) { called = true })
	env.st.NoPause = true
	if _, err := env.run(t, "debugger"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("pause handler should be suppressed")
	}
}

func TestEvalUnitScoping(t *testing.T) {
	env := newTestEnv()
	fnScope := object.NewFunctionEnvironment(env.scope)
	fnScope.Set("x", &object.Number{Value: 1})
	unit, perr := parser.Parse(parser.EvalKind, "", 1, "var y = x + 1\nlet z = 3\ny")
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	got, err := env.m.Execute(unit, env.st, object.UNDEFINED, fnScope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Inspect() != "2" {
		t.Fatalf("expected 2, got %s", got.Inspect())
	}
	if v, ok := fnScope.GetHere("y"); !ok || v.Inspect() != "2" {
		t.Fatalf("var y should land in the function scope")
	}
	if _, ok := fnScope.GetHere("z"); ok {
		t.Fatalf("let z should stay local to the eval")
	}
}

func TestArrayCallbacksReenterInterpreter(t *testing.T) {
	env := newTestEnv()
	src := "var rows = [[1, 2], [3]]\nvar out = []\nrows.forEach(function (r) {\n  out.push(r.map(function (x) { return [x].map(function (y) { return y * 10 }).join() }).join('+'))\n})\nout.join('|')"
	v, err := env.run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.Inspect(); got != "10+20|30" {
		t.Fatalf("expected 10+20|30, got %s", got)
	}
	for _, name := range []string{"forEach", "map", "push"} {
		if _, ok := arrayMethods[name]; !ok {
			t.Fatalf("array method %s not registered", name)
		}
	}
}
