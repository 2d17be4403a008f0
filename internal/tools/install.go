// Package tools builds the tern binaries from a source checkout.
package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Binaries lists the commands installed, keyed by binary name.
var Binaries = []struct{ Name, Pkg string }{
	{"tern", "./cmd/tern"},
	{"tern-lsp", "./cmd/tern-lsp"},
}

type InstallOptions struct {
	BinDir string
	// Build compiles pkg into out. It defaults to go build.
	Build func(pkg, out string) error
}

// Install builds every binary into opts.BinDir and returns their paths.
func Install(opts InstallOptions) ([]string, error) {
	if opts.BinDir == "" {
		opts.BinDir = "bin"
	}
	if opts.Build == nil {
		opts.Build = goBuild
	}
	if err := os.MkdirAll(opts.BinDir, 0o755); err != nil {
		return nil, err
	}
	var out []string
	for _, b := range Binaries {
		dst := filepath.Join(opts.BinDir, b.Name)
		if err := opts.Build(b.Pkg, dst); err != nil {
			return out, fmt.Errorf("build %s: %w", b.Name, err)
		}
		out = append(out, dst)
	}
	return out, nil
}

func goBuild(pkg, out string) error {
	cmd := exec.Command("go", "build", "-o", out, pkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
