package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadManifest(t *testing.T) {
	tmp := t.TempDir()
	p := writeManifest(t, tmp, `# project
name = "demo"
entry = "main.tn"
module_paths = ["lib", "vendor/mods"]
max_memory = 1048576
max_recursion = 200
disable_builtin_loader = true
log_level = "debug"
`)
	m, err := LoadManifest(p)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "demo" || m.Entry != "main.tn" || m.LogLevel != "debug" {
		t.Fatalf("unexpected strings: %+v", m)
	}
	if m.MaxMemory != 1048576 || m.MaxRecursion != 200 || !m.DisableBuiltinLoader {
		t.Fatalf("unexpected limits: %+v", m)
	}
	paths := m.ResolvePaths(tmp)
	if len(paths) != 2 || paths[1] != filepath.Join(tmp, "vendor", "mods") {
		t.Fatalf("unexpected module paths: %v", paths)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"name = demo\n", "quoted string"},
		{"module_paths = \"lib\"\n", "list of quoted strings"},
		{"max_memory = lots\n", "max_memory"},
		{"just a line\n", "invalid line"},
		{"max_recursion = -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		p := writeManifest(t, t.TempDir(), tt.content)
		_, err := LoadManifest(p)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%q: expected error containing %q, got %v", tt.content, tt.want, err)
		}
	}
}

func TestFindWalksUp(t *testing.T) {
	tmp := t.TempDir()
	want := writeManifest(t, tmp, "name = \"x\"\n")
	nested := filepath.Join(tmp, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok := Find(nested)
	if !ok || got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, ok)
	}
}
