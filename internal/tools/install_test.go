package tools

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInstallBuildsEveryBinary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bin")
	var built []string
	paths, err := Install(InstallOptions{BinDir: dir, Build: func(pkg, out string) error {
		built = append(built, pkg+"->"+filepath.Base(out))
		return nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(built, ","); got != "./cmd/tern->tern,./cmd/tern-lsp->tern-lsp" {
		t.Fatalf("unexpected builds %s", got)
	}
	if len(paths) != 2 || paths[1] != filepath.Join(dir, "tern-lsp") {
		t.Fatalf("unexpected paths %v", paths)
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Fatalf("bin directory not created: %v", err)
	}
}

func TestInstallStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	paths, err := Install(InstallOptions{BinDir: t.TempDir(), Build: func(pkg, out string) error {
		if strings.HasSuffix(pkg, "tern-lsp") {
			return boom
		}
		return nil
	}})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "build tern-lsp") {
		t.Fatalf("unexpected error %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected the first binary to be reported, got %v", paths)
	}
}
