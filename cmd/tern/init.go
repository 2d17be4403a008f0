package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tern/internal/config"

	"github.com/spf13/cobra"
)

const starterProgram = "function greet(name) {\n  return \"hello, \" + name\n}\n\nprint(greet(\"tern\"))\n"

func newInitCmd(s *settings) *cobra.Command {
	var (
		name  string
		entry string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create " + config.FileName + " and a starter script in the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			return initProject(cwd, name, entry, force)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&entry, "entry", "main.tn", "entry file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func initProject(dir, name, entry string, force bool) error {
	if strings.TrimSpace(entry) == "" {
		return fmt.Errorf("entry cannot be empty")
	}
	manifestPath := filepath.Join(dir, config.FileName)
	if exists(manifestPath) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
	}
	if err := os.WriteFile(manifestPath, []byte(buildManifest(name, entry)), 0o644); err != nil {
		return err
	}
	entryPath := filepath.Join(dir, entry)
	if err := os.MkdirAll(filepath.Dir(entryPath), 0o755); err != nil {
		return err
	}
	if exists(entryPath) && !force {
		return nil
	}
	return os.WriteFile(entryPath, []byte(starterProgram), 0o644)
}

func buildManifest(name, entry string) string {
	var b strings.Builder
	if strings.TrimSpace(name) != "" {
		fmt.Fprintf(&b, "name = %q\n", name)
	}
	fmt.Fprintf(&b, "entry = %q\n", entry)
	return b.String()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
