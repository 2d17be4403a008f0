package main

import (
	"os"

	"tern/internal/repl"
	"tern/internal/runtimeio"

	"github.com/spf13/cobra"
)

func newReplCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				cwd = "."
			}
			out := cmd.OutOrStdout()
			ctx, err := s.newContext(out, cwd)
			if err != nil {
				return err
			}
			defer ctx.Release()
			in := runtimeio.NewLineReader(cmd.InOrStdin(), out, cmd.InOrStdin() == os.Stdin && runtimeio.IsInteractive())
			return repl.Start(in, out, ctx)
		},
	}
}
