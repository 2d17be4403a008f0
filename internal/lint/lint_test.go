package lint

import (
	"strconv"
	"strings"
	"testing"

	"tern/internal/diag"
	"tern/internal/parser"
)

func lintSource(t *testing.T, kind parser.Kind, src string) []diag.Diagnostic {
	t.Helper()
	unit, perr := parser.Parse(kind, "t.tn", 1, src)
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	return Run(unit.Program)
}

func codes(ds []diag.Diagnostic) string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Code+"@"+strconv.Itoa(d.Range.Line))
	}
	return strings.Join(out, ",")
}

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"top level is never unused", "var a = 1\nfunction f() {}", ""},
		{"unused local", "function f() {\n  var x = 1\n  return 2\n}\nf()", CodeUnusedVariable + "@2"},
		{"write is not a use", "function f() {\n  var x = 1\n  x = 2\n}\nf()", CodeUnusedVariable + "@2"},
		{"compound write reads", "function f() {\n  var x = 1\n  x += 2\n}\nf()", ""},
		{"unused parameter", "function f(a, b) {\n  return a\n}\nf(1, 2)", CodeUnusedParameter + "@1"},
		{"underscore is ignored", "function f(_a) {\n  return 1\n}\nf()", ""},
		{"hoisted call counts", "function f() {\n  return g()\n  function g() { return 1 }\n}\nf()", CodeUnreachable + "@3"},
		{"closure use counts", "function f() {\n  var n = 0\n  return function () { return n }\n}\nf()", ""},
		{"unreachable after throw", "function f() {\n  throw 1\n  f()\n}", CodeUnreachable + "@3"},
		{"shadowing", "var v = 1\nfunction f() {\n  var v = 2\n  return v\n}\nf()", CodeShadowing + "@3"},
		{"catch binding", "try {\n  f()\n} catch (e) {\n}", ""},
		{"block let", "function f() {\n  if (true) {\n    let y = 1\n  }\n}\nf()", CodeUnusedVariable + "@3"},
	}
	for _, tt := range tests {
		if got := codes(lintSource(t, parser.ProgramKind, tt.src)); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestImportsAndExports(t *testing.T) {
	src := "import { a } from \"./a\"\nexport function f() {\n  return a\n}\nvar lib = 1\nexport { lib }"
	if ds := lintSource(t, parser.ModuleKind, src); len(ds) != 0 {
		t.Fatalf("unexpected diagnostics %s", codes(ds))
	}
}

func TestShadowingCanBeDisabled(t *testing.T) {
	unit, perr := parser.Parse(parser.ProgramKind, "t.tn", 1, "var v = 1\nfunction f(v) { return v }\nf()")
	if perr != nil {
		t.Fatal(perr)
	}
	if ds := NewWithOptions(Options{}).Run(unit.Program); len(ds) != 0 {
		t.Fatalf("unexpected diagnostics %s", codes(ds))
	}
	if ds := Run(unit.Program); len(ds) != 1 || ds[0].Severity != diag.SeverityWarning {
		t.Fatalf("expected one shadowing warning, got %s", codes(ds))
	}
}
