package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRunCmd(s *settings) *cobra.Command {
	var asModule bool
	cmd := &cobra.Command{
		Use:   "run [file|dir]",
		Short: "Run a script, or the entry of a project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			entry, err := resolveEntry(target)
			if err != nil {
				return err
			}
			ctx, err := s.newContext(cmd.OutOrStdout(), filepath.Dir(entry))
			if err != nil {
				return err
			}
			defer ctx.Release()
			_, err = runFile(ctx, entry, asModule)
			return uncaught(err)
		},
	}
	cmd.Flags().BoolVarP(&asModule, "module", "m", false, "evaluate the entry as a module")
	return cmd
}
