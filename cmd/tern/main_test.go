package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tern/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, filepath.Join(dir, "main.tn"), "var a = 1\nprint(\"sum\", a + 2)\n")
	out, err := execute(t, "", "run", main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "sum 3\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunProjectDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "entry = \"src/app.tn\"\n")
	writeFile(t, filepath.Join(dir, "src", "app.tn"), "print(\"app\")\n")
	out, err := execute(t, "", "run", dir)
	if err != nil || out != "app\n" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}

	writeFile(t, filepath.Join(dir, config.FileName), "name = \"x\"\n")
	if _, err := execute(t, "", "run", dir); err == nil || !strings.Contains(err.Error(), "missing entry") {
		t.Fatalf("expected missing entry error, got %v", err)
	}
}

func TestRunReportsUncaught(t *testing.T) {
	main := writeFile(t, filepath.Join(t.TempDir(), "main.tn"), "print(\"before\")\nnope()\n")
	out, err := execute(t, "", "run", main)
	if err == nil || !strings.HasPrefix(err.Error(), "Uncaught ReferenceError") {
		t.Fatalf("expected uncaught ReferenceError, got %v", err)
	}
	if out != "before\n" {
		t.Fatalf("output before the failure should be kept, got %q", out)
	}
}

func TestMaxMemoryFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "entry = \"main.tn\"\nmax_memory = 10\n")
	writeFile(t, filepath.Join(dir, "main.tn"), "var xs = [1, 2, 3, 4, 5, 6, 7, 8]\nprint(\"ok\")\n")

	_, err := execute(t, "", "run", dir)
	if err == nil || !strings.Contains(err.Error(), "max memory exceeded (10 bytes)") {
		t.Fatalf("expected memory error, got %v", err)
	}

	out, err := execute(t, "", "--max-memory", "1000000", "run", dir)
	if err != nil || out != "ok\n" {
		t.Fatalf("flag should override the manifest: %q, %v", out, err)
	}
}

func TestRunModuleWithImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib", "math.tn"), "export function double(n) { return n * 2 }\n")
	main := writeFile(t, filepath.Join(dir, "main.tn"), "import { double } from \"./lib/math\"\nprint(double(21))\n")

	out, err := execute(t, "", "run", "-m", main)
	if err != nil || out != "42\n" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
	if _, err := execute(t, "", "run", main); err == nil {
		t.Fatalf("import syntax should be rejected in scripts")
	}
}

func TestModulePathsFromFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mods", "util.tn"), "export var answer = 42\n")
	main := writeFile(t, filepath.Join(dir, "app", "main.tn"), "import { answer } from \"util\"\nexport var twice = answer * 2\n")

	out, err := execute(t, "", "--module-path", filepath.Join(dir, "mods"), "module", "--exports", main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, main+": evaluated") || !strings.Contains(out, "twice = 84") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.tn"), "var a = 1\n")
	writeFile(t, filepath.Join(dir, "mod.tn"), "export var b = 2\n")
	bad := writeFile(t, filepath.Join(dir, "nested", "bad.tn"), "var = 1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "var = 1\n")

	out, err := execute(t, "", "check", dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 files") {
		t.Fatalf("expected one failing file, got %v", err)
	}
	if !strings.HasPrefix(out, bad+":1:") {
		t.Fatalf("diagnostic should name the file and line, got %q", out)
	}
}

func TestRepl(t *testing.T) {
	out, err := execute(t, "var a = 2\nfunction f(x) {\n  return x * a\n}\nf(21)\nexit\n", "repl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "42\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDebugConsole(t *testing.T) {
	main := writeFile(t, filepath.Join(t.TempDir(), "main.tn"), "var x = 5\ndebugger\nprint(\"after\")\n")
	out, err := execute(t, "p x * 2\nc\n", "debug", main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"paused at", "10\n", "after\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestDebugBreakpoint(t *testing.T) {
	main := writeFile(t, filepath.Join(t.TempDir(), "main.tn"), "var x = 1\nx = x + 1\nprint(x)\n")
	out, err := execute(t, "x\nc\n", "debug", "-b", "3", main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, ":3:") || !strings.Contains(out, "2\n2\n") {
		t.Fatalf("expected a pause on line 3, got %q", out)
	}
}

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sum.test.tn"), "// expect: ok\n// expect: stdout \"3\\n\"\nprint(1 + 2)\n")
	writeFile(t, filepath.Join(dir, "throws.test.tn"), "// expect: error contains \"is not defined\"\nmissing()\n")
	writeFile(t, filepath.Join(dir, "golden.txt"), "a\nb\n")
	writeFile(t, filepath.Join(dir, "golden.test.tn"), "// expect: stdout file \"golden.txt\"\nprint(\"a\")\nprint(\"b\")\n")
	writeFile(t, filepath.Join(dir, "helper.tn"), "print(\"not a test\")\n")

	out, err := execute(t, "", "test", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "passed 3, failed 0") {
		t.Fatalf("unexpected summary %q", out)
	}

	writeFile(t, filepath.Join(dir, "wrong.test.tn"), "// expect: stdout contains \"zzz\"\nprint(\"a\")\n")
	out, err = execute(t, "", "test", dir)
	if err == nil || !strings.Contains(out, "FAIL") || !strings.Contains(out, "passed 3, failed 1") {
		t.Fatalf("expected one failure, got %q, %v", out, err)
	}
}

func TestParseExpectation(t *testing.T) {
	tests := []struct {
		header  string
		outcome outcome
		stdout  stdoutMode
		text    string
		wantErr string
	}{
		{"print(1)", expectOK, stdoutAny, "", ""},
		{"// expect: error\n// expect: stdout \"x\"", expectError, stdoutExact, "x", ""},
		{"// EXPECT: Error Contains \"boom\"", expectErrorContains, stdoutAny, "", ""},
		{"// expect: ok\n// expect: error", 0, 0, "", "multiple outcome"},
		{"// expect: stdout x", 0, 0, "", "quoted string"},
		{"// expect: sometimes", 0, 0, "", "invalid expect directive"},
	}
	for _, tt := range tests {
		p := writeFile(t, filepath.Join(t.TempDir(), "t.test.tn"), tt.header+"\n")
		exp, err := parseExpectation(p)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("%q: expected error %q, got %v", tt.header, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.header, err)
		}
		if exp.outcome != tt.outcome || exp.stdout != tt.stdout || exp.stdoutText != tt.text {
			t.Fatalf("%q: unexpected expectation %+v", tt.header, exp)
		}
	}
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()
	if err := initProject(dir, "demo", "src/main.tn", false); err != nil {
		t.Fatal(err)
	}
	man, err := config.LoadManifest(filepath.Join(dir, config.FileName))
	if err != nil || man.Name != "demo" || man.Entry != "src/main.tn" {
		t.Fatalf("unexpected manifest %+v, %v", man, err)
	}
	if err := initProject(dir, "", "main.tn", false); err == nil {
		t.Fatalf("existing manifest should need --force")
	}

	out, err := execute(t, "", "run", dir)
	if err != nil || out != "hello, tern\n" {
		t.Fatalf("starter program: %q, %v", out, err)
	}
}
