package engine

import (
	"io"

	"github.com/charmbracelet/log"
)

type options struct {
	maxMemory    int64
	maxRecursion int
	registers    int
	modulePaths  []string
	out          io.Writer
	logger       *log.Logger
}

// Option configures a ContextGroup. Every context created in the group
// inherits the group's options.
type Option func(*options)

// WithMaxMemory limits the bytes the group's heap may charge. Zero means
// unlimited.
func WithMaxMemory(n int64) Option {
	return func(o *options) { o.maxMemory = n }
}

// WithMaxRecursion limits the call depth of every context.
func WithMaxRecursion(n int) Option {
	return func(o *options) { o.maxRecursion = n }
}

// WithRegisterCapacity sets the size of each context's register file.
func WithRegisterCapacity(n int) Option {
	return func(o *options) { o.registers = n }
}

// WithModulePaths adds directories searched by the built-in filesystem
// loader for bare specifiers.
func WithModulePaths(paths ...string) Option {
	return func(o *options) { o.modulePaths = append(o.modulePaths, paths...) }
}

// WithOutput sets where print writes.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}
