package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tern/internal/diag"
	"tern/internal/lsp"
	"tern/internal/module"

	"github.com/spf13/cobra"
)

func newCheckCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path...]",
		Short: "Report syntax errors without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			files, err := collectFiles(args, isSource)
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range files {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				a := lsp.Analyze(lsp.PathToURI(path), string(b))
				for _, d := range a.Diagnostics {
					fmt.Fprintln(cmd.OutOrStdout(), d.Format(path))
				}
				if diag.HasErrors(a.Diagnostics) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files have syntax errors", failed, len(files))
			}
			return nil
		},
	}
}

func isSource(path string) bool {
	return strings.HasSuffix(path, module.Ext)
}

// collectFiles expands targets into the sorted, absolute set of files
// accepted by keep. Directories are walked, skipping VCS and fixture
// directories.
func collectFiles(targets []string, keep func(string) bool) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
		return nil
	}
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if keep(target) {
				if err := add(target); err != nil {
					return nil, err
				}
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				switch filepath.Base(path) {
				case ".git", "node_modules", "fixtures":
					return filepath.SkipDir
				}
				return nil
			}
			if keep(path) {
				return add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
