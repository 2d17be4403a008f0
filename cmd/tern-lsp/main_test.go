package main

import (
	"os"
	"path/filepath"
	"testing"

	"tern/internal/config"
	"tern/internal/lsp"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestIsScript(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"file:///a/main.tn", true},
		{"file:///a/MAIN.TN", true},
		{"file:///a/main.js", false},
		{"untitled:1", false},
	}
	for _, tt := range tests {
		if got := isScript(tt.uri); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.uri, tt.want, got)
		}
	}
}

func TestRootOf(t *testing.T) {
	dir := t.TempDir()
	uri := protocol.DocumentUri(lsp.PathToURI(dir))
	if got := rootOf(&protocol.InitializeParams{RootURI: &uri}); got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}
	if got := rootOf(&protocol.InitializeParams{}); got != "." {
		t.Fatalf("expected current directory, got %s", got)
	}
}

func TestResolverForUsesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := "module_paths = [\"lib\"]\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	res := resolverFor(nested)
	if len(res.Paths) != 1 || res.Paths[0] != filepath.Join(dir, "lib") {
		t.Fatalf("unexpected module paths %v", res.Paths)
	}
}

func TestFullText(t *testing.T) {
	if text, ok := fullText(protocol.TextDocumentContentChangeEventWhole{Text: "x"}); !ok || text != "x" {
		t.Fatalf("whole change not accepted")
	}
	rng := protocol.Range{}
	if _, ok := fullText(protocol.TextDocumentContentChangeEvent{Range: &rng, Text: "y"}); ok {
		t.Fatalf("ranged change should be rejected under full sync")
	}
}
