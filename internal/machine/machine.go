// Package machine is the tree-walking interpreter. Every activation gets
// a frame window in a shared register file so that a paused frame can be
// inspected and evaluated against from a pause handler.
package machine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"tern/internal/ast"
	"tern/internal/limits"
	"tern/internal/object"
	"tern/internal/parser"
)

// Allocator registers heap values. A non-nil error aborts the allocation
// with a RangeError.
type Allocator interface {
	Allocate(v object.Value) error
}

// PauseHandler is called synchronously when execution pauses at a
// statement. The frame must not be retained after the call returns.
type PauseHandler func(f *Frame)

type Machine struct {
	out      io.Writer
	alloc    Allocator
	logger   *log.Logger
	maxDepth int

	pause       PauseHandler
	breakpoints map[string]map[int]bool
	stepping    bool
	pausing     bool
}

type Option func(*Machine)

func WithOutput(w io.Writer) Option {
	return func(m *Machine) {
		if w != nil {
			m.out = w
		}
	}
}

func WithAllocator(a Allocator) Option {
	return func(m *Machine) { m.alloc = a }
}

// WithMaxDepth bounds the number of nested frames; zero leaves only the
// register file capacity as a bound.
func WithMaxDepth(n int) Option {
	return func(m *Machine) { m.maxDepth = n }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(opts ...Option) *Machine {
	m := &Machine{
		out:         os.Stdout,
		logger:      log.New(io.Discard),
		breakpoints: map[string]map[int]bool{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Output() io.Writer { return m.out }

// Execute runs a parsed unit. this is bound to the unit frame's receiver
// register (nil means undefined) and scope is the environment the unit's
// statements run in. Program and module units run directly in scope; eval
// units get a fresh block scope inside it so let and const stay local
// while var declarations land in scope's var scope.
//
// A thrown value is returned as *object.Exception. Nothing panics out of
// Execute on script faults.
func (m *Machine) Execute(unit *parser.Unit, st *ExecState, this object.Value, scope *object.Environment) (object.Value, error) {
	if unit == nil || unit.Program == nil {
		return nil, errors.New("machine: nil unit")
	}
	if st == nil || scope == nil {
		return nil, errors.New("machine: nil execution state or scope")
	}
	if this == nil {
		this = object.UNDEFINED
	}

	layout := unitLayout(unit)
	frame, exc := m.pushFrame(st, layout, nil)
	if exc != nil {
		return nil, exc
	}
	defer m.popFrame(st, frame)
	frame.Registers[layout.ThisRegister] = this

	env := scope
	if unit.Kind == parser.EvalKind {
		env = object.NewEnclosedEnvironment(scope)
	}
	frame.Scope = env

	if exc := m.hoist(st, unit.Program.Statements, env, true); exc != nil {
		return nil, exc
	}
	res := m.evalStatements(unit.Program.Statements, env, st)
	switch r := res.(type) {
	case *object.Exception:
		return nil, r
	case *object.ReturnValue:
		return r.Value, nil
	case nil:
		return object.UNDEFINED, nil
	}
	return res, nil
}

// Call invokes a callable value from Go.
func (m *Machine) Call(st *ExecState, fn object.Value, this object.Value, args []object.Value) (object.Value, error) {
	if this == nil {
		this = object.UNDEFINED
	}
	res := m.callValue(st, callSite{}, fn, this, args)
	if exc, ok := res.(*object.Exception); ok {
		return nil, exc
	}
	return res, nil
}

// allocate registers v with the allocator. It returns an exception when
// the memory budget is exhausted.
func (m *Machine) allocate(st *ExecState, v object.Value) *object.Exception {
	if m.alloc == nil {
		return nil
	}
	if err := m.alloc.Allocate(v); err != nil {
		var memErr limits.MaxMemoryError
		if errors.As(err, &memErr) {
			return m.newException(st, callSite{}, object.KindRangeError, limits.MaxMemoryMessage(memErr.Limit))
		}
		return m.newException(st, callSite{}, object.KindError, err.Error())
	}
	return nil
}

// hoist declares var names and binds function declarations of stmts in
// env. When vars is false only function declarations are bound (nested
// blocks; their vars were hoisted with the enclosing function).
func (m *Machine) hoist(st *ExecState, stmts []ast.Statement, env *object.Environment, vars bool) *object.Exception {
	if vars {
		for _, name := range ast.VarNames(stmts) {
			env.DeclareVar(name)
		}
	}
	for _, s := range stmts {
		decl := s
		if ex, ok := s.(*ast.ExportStatement); ok && ex.Decl != nil {
			decl = ex.Decl
		}
		fs, ok := decl.(*ast.FunctionStatement)
		if !ok {
			continue
		}
		fn, exc := m.newFunction(st, fs.Fn, env)
		if exc != nil {
			return exc
		}
		if vars {
			env.VarScope().Set(fn.Name, fn)
		} else {
			env.Declare(fn.Name, fn, true)
		}
	}
	return nil
}

func (m *Machine) newFunction(st *ExecState, lit *ast.FunctionLiteral, env *object.Environment) (*object.Function, *object.Exception) {
	fn := &object.Function{
		Name:    ast.FunctionName(lit),
		Literal: lit,
		Env:     env,
	}
	if f := st.frame; f != nil && f.Layout != nil {
		fn.SourceURL = f.Layout.SourceURL
	}
	if exc := m.allocate(st, fn); exc != nil {
		return nil, exc
	}
	return fn, nil
}

func (m *Machine) print(args []object.Value) {
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(m.out, " ")
		}
		fmt.Fprint(m.out, a.Inspect())
	}
	fmt.Fprintln(m.out)
}
