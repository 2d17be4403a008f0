package parser

import (
	"strings"
	"testing"

	"tern/internal/ast"
	"tern/internal/diag"
	"tern/internal/lexer"
)

func parseOK(t *testing.T, kind Kind, input string) *ast.Program {
	t.Helper()
	p := NewFor(lexer.New(input), kind)
	prog := p.ParseProgram()
	if prog == nil {
		t.Fatal("program is nil")
	}
	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			t.Error(e)
		}
		t.Fatalf("parser had %d errors", len(p.Errors()))
	}
	return prog
}

func TestParseTour_NoErrors(t *testing.T) {
	input := `function add(a, b) {
  return a + b
}

var x = add(2, 3)
print(x)

if (x > 3) {
  print("big")
}
else {
  print("small")
}

let i = 0
while (i < 3) {
  print(i)
  i += 1
}
for (var j = 0; j < 3; j++) { if (j == 1) continue; print(j) }
try { throw new Error("boom") } catch (e) { print(e.message) } finally { print("done") }
var o = {
  a: 1,
  "b c": [1, 2,
    3],
  f: function () { return this.a },
}
debugger`

	prog := parseOK(t, ProgramKind, input)
	if len(prog.Statements) != 10 {
		t.Fatalf("expected 10 statements, got %d", len(prog.Statements))
	}
	if _, ok := prog.Statements[3].(*ast.IfStatement); !ok {
		t.Fatalf("expected if statement, got %T", prog.Statements[3])
	}
	if prog.Statements[3].(*ast.IfStatement).Alternative == nil {
		t.Fatal("else on its own line was not attached")
	}
	obj := prog.Statements[8].(*ast.VarStatement).Declarations[0].Value.(*ast.ObjectLiteral)
	if len(obj.Properties) != 3 || obj.Properties[1].Key != "b c" {
		t.Fatalf("unexpected object literal %s", obj.String())
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"-a.b", "(-a.b)"},
		{"a = b = 1", "a = b = 1"},
		{"a || b && c", "(a || (b && c))"},
		{"x === 1 + 1", "(x === (1 + 1))"},
		{"typeof f(1)", "(typeof f(1))"},
		{"new a.B(1).c", "new a.B(1).c"},
		{"a[i]++", "((a[i])++)"},
		{"1 +\n 2", "(1 + 2)"},
	}

	for _, tt := range tests {
		prog := parseOK(t, ProgramKind, tt.input)
		if len(prog.Statements) != 1 {
			t.Fatalf("%q: expected 1 statement, got %d", tt.input, len(prog.Statements))
		}
		if got := prog.Statements[0].String(); got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		input string
		line  int
		msg   string
	}{
		{"(", 1, "unexpected end of input"},
		{"function(){", 1, "function statements require a function name"},
		{"1 2", 1, `unexpected token "2"`},
		{"var x = \n\n)", 3, `unexpected token ")"`},
		{"return 1", 1, "illegal return statement"},
		{"break", 1, "illegal break statement"},
		{"const c", 1, "missing initializer in const declaration"},
		{"1 = 2", 1, "invalid assignment target"},
		{"'open", 1, "unterminated string"},
		{"a\n#", 2, `unexpected character "#"`},
		{"function f(a, a) {}", 1, `duplicate parameter name "a"`},
		{"try {}", 1, "missing catch or finally after try"},
	}

	for _, tt := range tests {
		_, serr := Parse(ProgramKind, "test.tn", 1, tt.input)
		if serr == nil {
			t.Fatalf("%q: expected syntax error", tt.input)
		}
		if serr.Line != tt.line {
			t.Fatalf("%q: expected line %d, got %d (%s)", tt.input, tt.line, serr.Line, serr.Message)
		}
		if !strings.Contains(serr.Message, tt.msg) {
			t.Fatalf("%q: expected message containing %q, got %q", tt.input, tt.msg, serr.Message)
		}
	}
}

func TestParseStartingLine(t *testing.T) {
	_, serr := Parse(ProgramKind, "page.html", 40, "var a = 1\nvar = 2")
	if serr == nil {
		t.Fatal("expected syntax error")
	}
	if serr.Line != 41 {
		t.Fatalf("expected line 41, got %d", serr.Line)
	}
	if !strings.HasPrefix(serr.Error(), "page.html:41:") {
		t.Fatalf("unexpected error string %q", serr.Error())
	}

	_, serr = Parse(ProgramKind, "", -5, "(")
	if serr == nil || serr.Line != 1 {
		t.Fatalf("expected clamped line 1, got %+v", serr)
	}
}

func TestModuleDeclarations(t *testing.T) {
	input := `import { a, b as c } from "./dep.tn"
import * as ns from "lib"
import "side-effect"
export var x = a + c, y
export function f() { return import.meta.url }
export { ns as lib }`

	prog := parseOK(t, ModuleKind, input)
	if len(prog.Statements) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(prog.Statements))
	}
	imp := prog.Statements[0].(*ast.ImportStatement)
	if imp.Source.Value != "./dep.tn" || len(imp.Specifiers) != 2 || imp.Specifiers[1].Local.Value != "c" {
		t.Fatalf("unexpected import %s", imp.String())
	}
	if ns := prog.Statements[1].(*ast.ImportStatement); ns.Namespace == nil || ns.Namespace.Value != "ns" {
		t.Fatalf("unexpected namespace import %s", ns.String())
	}

	var exported []string
	for _, s := range prog.Statements[3:] {
		for _, n := range s.(*ast.ExportStatement).ExportedNames() {
			exported = append(exported, n.Exported.Value)
		}
	}
	if got := strings.Join(exported, ","); got != "x,y,f,lib" {
		t.Fatalf("unexpected exported names %q", got)
	}
}

func TestModuleSyntaxRestrictions(t *testing.T) {
	tests := []struct {
		kind  Kind
		input string
		code  string
	}{
		{ProgramKind, `import "x"`, diag.CodeModuleSyntax},
		{ProgramKind, `var m = import.meta`, diag.CodeModuleSyntax},
		{EvalKind, `export var a = 1`, diag.CodeEvalStatement},
		{ModuleKind, "export var a = 1\nexport { a }", diag.CodeModuleSyntax},
		{ModuleKind, `if (true) { import "x" }`, diag.CodeModuleSyntax},
	}

	for _, tt := range tests {
		_, serr := Parse(tt.kind, "", 1, tt.input)
		if serr == nil {
			t.Fatalf("%s %q: expected syntax error", tt.kind, tt.input)
		}
		if serr.Code != tt.code {
			t.Fatalf("%s %q: expected code %s, got %s (%s)", tt.kind, tt.input, tt.code, serr.Code, serr.Message)
		}
	}
}

func TestDiagnosticsCollectsAll(t *testing.T) {
	ds := Diagnostics(ProgramKind, 1, "var = 1\nvar = 2")
	if len(ds) < 2 {
		t.Fatalf("expected at least 2 diagnostics, got %d", len(ds))
	}
	if ds[0].Range.Line != 1 || ds[len(ds)-1].Range.Line != 2 {
		t.Fatalf("unexpected diagnostic lines: %+v", ds)
	}
	if !diag.HasErrors(ds) {
		t.Fatal("expected errors")
	}
}
