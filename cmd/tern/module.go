package main

import (
	"fmt"
	"io"
	"os"

	"tern/internal/object"

	"github.com/spf13/cobra"
)

func newModuleCmd(s *settings) *cobra.Command {
	var exports bool
	cmd := &cobra.Command{
		Use:   "module <specifier>",
		Short: "Load, link and evaluate a module graph",
		Long: "Resolve a module specifier from the working directory, evaluate its\n" +
			"graph and report the resulting key. With --exports the namespace is\n" +
			"printed one export per line.",
		Args: cobra.ExactArgs(1),
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

			key, err := ctx.LoadModule(args[0])
			if err != nil {
				return uncaught(err)
			}
			ns, err := ctx.LinkAndEvaluateModule(key)
			if err != nil {
				return uncaught(err)
			}
			state, _ := ctx.ModuleState(key)
			fmt.Fprintf(out, "%s: %s\n", key, state)
			if exports {
				printNamespace(out, ns)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&exports, "exports", "e", false, "print the module namespace")
	return cmd
}

func printNamespace(out io.Writer, ns object.Value) {
	obj, ok := ns.(*object.Object)
	if !ok {
		return
	}
	for _, name := range obj.Keys() {
		v, _ := obj.Get(name)
		fmt.Fprintf(out, "  %s = %s\n", name, v.Inspect())
	}
}
