// Command tern runs, checks and debugs tern scripts and modules.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tern/internal/config"
	"tern/internal/engine"
	"tern/internal/logging"
	"tern/internal/object"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		log.Fatal("tern", "err", err)
	}
}

// settings holds the persistent flags. Flags override manifest values.
type settings struct {
	manifest     string
	maxMemory    int64
	maxRecursion int
	modulePaths  []string
	debug        bool
	noColor      bool
	logLevel     string

	in io.Reader
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	s := &settings{in: in}
	root := &cobra.Command{
		Use:           "tern",
		Short:         "tern is an embeddable script engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(s.debug, s.noColor)
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	f := root.PersistentFlags()
	f.StringVar(&s.manifest, "manifest", "", "path to "+config.FileName+" (default: search upwards)")
	f.Int64Var(&s.maxMemory, "max-memory", 0, "heap budget in bytes (0 keeps the manifest value)")
	f.IntVar(&s.maxRecursion, "max-recursion", 0, "maximum call depth (0 keeps the manifest value)")
	f.StringSliceVar(&s.modulePaths, "module-path", nil, "extra directories searched for bare module specifiers")
	f.BoolVar(&s.debug, "debug", false, "enable debug logging")
	f.BoolVar(&s.noColor, "no-color", false, "disable coloured log output")
	f.StringVar(&s.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(s),
		newCheckCmd(s),
		newReplCmd(s),
		newDebugCmd(s),
		newModuleCmd(s),
		newTestCmd(s),
		newInitCmd(s),
		newToolsCmd(),
	)
	return root
}

// project loads the manifest named by --manifest, or the nearest one
// above dir. A missing manifest yields an empty one.
func (s *settings) project(dir string) (*config.Manifest, string, error) {
	path := s.manifest
	if path == "" {
		p, ok := config.Find(dir)
		if !ok {
			return &config.Manifest{}, dir, nil
		}
		path = p
	}
	m, err := config.LoadManifest(path)
	if err != nil {
		return nil, "", err
	}
	return m, filepath.Dir(path), nil
}

// newContext builds an engine context for code living in dir, printing
// to out.
func (s *settings) newContext(out io.Writer, dir string) (*engine.Context, error) {
	m, root, err := s.project(dir)
	if err != nil {
		return nil, err
	}

	level := s.logLevel
	if level == "" {
		level = m.LogLevel
	}
	if level != "" && !s.debug {
		lvl, err := logging.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		log.SetLevel(lvl)
	}

	opts := []engine.Option{
		engine.WithOutput(out),
		engine.WithLogger(log.Default()),
		engine.WithModulePaths(m.ResolvePaths(root)...),
	}
	for _, p := range s.modulePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithModulePaths(abs))
	}
	if n := pick(s.maxMemory, m.MaxMemory); n > 0 {
		opts = append(opts, engine.WithMaxMemory(n))
	}
	if n := pick(s.maxRecursion, m.MaxRecursion); n > 0 {
		opts = append(opts, engine.WithMaxRecursion(n))
	}

	ctx := engine.NewContext(opts...)
	if m.DisableBuiltinLoader {
		ctx.SetModuleLoader(nil, true)
	}
	log.Debug("context ready", "root", root, "max_memory", pick(s.maxMemory, m.MaxMemory))
	return ctx, nil
}

func pick[T int | int64](flag, manifest T) T {
	if flag > 0 {
		return flag
	}
	return manifest
}

// resolveEntry maps a run target onto a script path. A directory runs the
// entry named by its manifest.
func resolveEntry(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path not found: %s", target)
		}
		return "", err
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return abs, nil
	}
	manifestPath := filepath.Join(abs, config.FileName)
	man, err := config.LoadManifest(manifestPath)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(man.Entry) == "" {
		return "", fmt.Errorf("%s: missing entry", manifestPath)
	}
	return filepath.Join(abs, man.Entry), nil
}

// runFile evaluates path as a script, or as a module when asModule is set.
func runFile(ctx *engine.Context, path string, asModule bool) (object.Value, error) {
	if asModule {
		return ctx.LoadAndEvaluateModule(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ctx.EvaluateScript(string(src), nil, path, 1)
}

// uncaught gives script exceptions the REPL's "Uncaught" prefix.
func uncaught(err error) error {
	var exc *object.Exception
	if errors.As(err, &exc) {
		return fmt.Errorf("Uncaught %s", exc.Error())
	}
	return err
}
