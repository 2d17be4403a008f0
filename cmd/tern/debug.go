package main

import (
	"os"
	"path/filepath"

	"tern/internal/debugger"
	"tern/internal/runtimeio"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newDebugCmd(s *settings) *cobra.Command {
	var (
		asModule bool
		stop     bool
		lines    []int
	)
	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Run a script under the interactive debugger",
		Long: "Run a script and open a console whenever it pauses: at a debugger\n" +
			"statement, at a --break line, or at the first statement with --stop.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx, err := s.newContext(out, filepath.Dir(entry))
			if err != nil {
				return err
			}
			defer ctx.Release()

			in := runtimeio.NewLineReader(cmd.InOrStdin(), out, cmd.InOrStdin() == os.Stdin && runtimeio.IsInteractive())
			console := debugger.NewConsole(in, out)
			ctx.SetPauseHandler(console.Pause)
			for _, line := range lines {
				log.Debug("breakpoint", "file", entry, "line", line)
				ctx.SetBreakpoint(entry, line)
			}
			if stop {
				ctx.Machine().Step()
			}
			_, err = runFile(ctx, entry, asModule)
			return uncaught(err)
		},
	}
	cmd.Flags().BoolVarP(&asModule, "module", "m", false, "evaluate the file as a module")
	cmd.Flags().BoolVarP(&stop, "stop", "s", false, "pause before the first statement")
	cmd.Flags().IntSliceVarP(&lines, "break", "b", nil, "pause when execution reaches these lines")
	return cmd
}
