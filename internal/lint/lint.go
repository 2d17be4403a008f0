// Package lint reports suspicious but valid code: unused bindings,
// unreachable statements and shadowed names.
package lint

import (
	"tern/internal/ast"
	"tern/internal/diag"
)

const (
	CodeUnusedVariable  = "TL0001"
	CodeUnusedParameter = "TL0002"
	CodeUnreachable     = "TL0003"
	CodeShadowing       = "TL0004"
)

type Options struct {
	CheckShadowing bool
}

func DefaultOptions() Options {
	return Options{CheckShadowing: true}
}

type Linter struct {
	opts Options
}

func New() *Linter {
	return &Linter{opts: DefaultOptions()}
}

func NewWithOptions(opts Options) *Linter {
	return &Linter{opts: opts}
}

func Run(program *ast.Program) []diag.Diagnostic {
	return New().Run(program)
}

// Run lints program. Top-level bindings are never reported unused since
// other scripts and importers may read them.
func (l *Linter) Run(program *ast.Program) []diag.Diagnostic {
	if program == nil {
		return nil
	}
	r := &runner{opts: l.opts}
	r.sc = newScope(nil, true)
	r.hoist(program.Statements)
	r.walkList(program.Statements)
	return r.diags
}
