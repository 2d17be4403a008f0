package main

import (
	"fmt"

	"tern/internal/tools"

	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	var binDir string
	install := &cobra.Command{
		Use:   "install",
		Short: "Build tern and tern-lsp from the current checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := tools.Install(tools.InstallOptions{BinDir: binDir})
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), "installed:", p)
			}
			return nil
		},
	}
	install.Flags().StringVar(&binDir, "bin", "bin", "output directory for the binaries")

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Developer tooling",
	}
	cmd.AddCommand(install)
	return cmd
}
