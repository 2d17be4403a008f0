package machine

import (
	"errors"
	"fmt"
	"strings"

	"tern/internal/limits"
	"tern/internal/object"
	"tern/internal/semantics"
	"tern/internal/token"
)

// maxStackLines bounds the frames listed in an error's stack.
const maxStackLines = 32

// callSite is the source position an operation is attributed to. A zero
// token falls back to the innermost frame's current line.
type callSite struct {
	tok token.Token
}

func siteOf(tok token.Token) callSite { return callSite{tok: tok} }

func (m *Machine) pushFrame(st *ExecState, layout *CodeLayout, callee object.Value) (*Frame, *object.Exception) {
	if m.maxDepth > 0 && st.Registers.Depth() >= m.maxDepth {
		return nil, m.newException(st, callSite{}, object.KindRangeError, limits.MaxRecursionMessage())
	}
	size := 2
	if layout != nil {
		size = layout.Size
	}
	regs, base, ok := st.Registers.push(size)
	if !ok {
		return nil, m.newException(st, callSite{}, object.KindRangeError, limits.MaxRecursionMessage())
	}
	regs[CalleeRegister] = callee
	f := &Frame{
		Registers: regs,
		Layout:    layout,
		Caller:    st.frame,
		base:      base,
		state:     st,
		machine:   m,
	}
	if f.Caller != nil {
		f.Scope = f.Caller.Scope
	}
	st.frame = f
	return f, nil
}

func (m *Machine) popFrame(st *ExecState, f *Frame) {
	st.Registers.pop(f.base)
	st.frame = f.Caller
}

// callValue invokes fn. The result is the return value or an
// *object.Exception.
func (m *Machine) callValue(st *ExecState, site callSite, fn object.Value, this object.Value, args []object.Value) object.Value {
	if f := st.frame; f != nil && site.tok.Line > 0 && f.Layout != nil {
		f.Line, f.Column = site.tok.Line, site.tok.Col
	}
	switch f := fn.(type) {
	case *object.Function:
		return m.applyFunction(st, f, this, args)
	case *object.Builtin:
		return m.applyBuiltin(st, site, f, this, args)
	}
	return m.newException(st, site, object.KindTypeError, fmt.Sprintf("%s is not a function", describe(fn)))
}

func (m *Machine) applyFunction(st *ExecState, fn *object.Function, this object.Value, args []object.Value) object.Value {
	layout := functionLayout(fn)
	frame, exc := m.pushFrame(st, layout, fn)
	if exc != nil {
		return exc
	}
	defer m.popFrame(st, frame)

	env := object.NewFunctionEnvironment(fn.Env)
	for i, p := range fn.Parameters() {
		var arg object.Value = object.UNDEFINED
		if i < len(args) {
			arg = args[i]
		}
		frame.Registers[1+i] = arg
		env.Set(p.Value, arg)
	}
	frame.Registers[layout.ThisRegister] = this
	frame.Scope = env
	frame.Line, frame.Column = fn.Literal.Token.Line, fn.Literal.Token.Col

	body := fn.Literal.Body.Statements
	if exc := m.hoist(st, body, env, true); exc != nil {
		return exc
	}
	switch res := m.evalStatements(body, env, st).(type) {
	case *object.ReturnValue:
		return res.Value
	case *object.Exception:
		return res
	}
	return object.UNDEFINED
}

func (m *Machine) applyBuiltin(st *ExecState, site callSite, b *object.Builtin, this object.Value, args []object.Value) object.Value {
	frame, exc := m.pushFrame(st, nil, b)
	if exc != nil {
		return exc
	}
	frame.Registers[1] = this
	v, err := b.Fn(this, args)
	m.popFrame(st, frame)
	if err != nil {
		return m.throwFrom(st, site, err)
	}
	return m.builtinResult(st, site, v)
}

// construct implements `new`.
func (m *Machine) construct(st *ExecState, site callSite, callee object.Value, args []object.Value) object.Value {
	switch c := callee.(type) {
	case *object.Builtin:
		if c.Construct == nil {
			break
		}
		v, err := c.Construct(args)
		if err != nil {
			return m.throwFrom(st, site, err)
		}
		return m.builtinResult(st, site, v)
	case *object.Function:
		obj := object.NewObject()
		if proto, ok := c.Properties().Get("prototype"); ok {
			if p, ok := proto.(*object.Object); ok {
				obj.Proto = p
			}
		}
		if exc := m.allocate(st, obj); exc != nil {
			return exc
		}
		res := m.callValue(st, site, c, obj, args)
		switch res.(type) {
		case *object.Exception:
			return res
		case *object.Object, *object.Array, *object.Function, *object.Error:
			return res
		}
		return obj
	}
	return m.newException(st, site, object.KindTypeError, fmt.Sprintf("%s is not a constructor", describe(callee)))
}

func (m *Machine) builtinResult(st *ExecState, site callSite, v object.Value) object.Value {
	if v == nil {
		return object.UNDEFINED
	}
	switch x := v.(type) {
	case *object.Error:
		if x.Line == 0 {
			m.stamp(st, site, x)
		}
		if exc := m.allocate(st, x); exc != nil {
			return exc
		}
	case *object.Object, *object.Array:
		if exc := m.allocate(st, x); exc != nil {
			return exc
		}
	}
	return v
}

// throwFrom turns a builtin's Go error into a script exception located at
// the call site.
func (m *Machine) throwFrom(st *ExecState, site callSite, err error) *object.Exception {
	var exc *object.Exception
	if errors.As(err, &exc) {
		if e, ok := exc.ErrorValue(); ok && e.Line == 0 {
			m.stamp(st, site, e)
		}
		return exc
	}
	var memErr limits.MaxMemoryError
	if errors.As(err, &memErr) {
		return m.newException(st, site, object.KindRangeError, memErr.Error())
	}
	return m.newException(st, site, object.KindError, err.Error())
}

func (m *Machine) newException(st *ExecState, site callSite, kind object.ErrorKind, msg string) *object.Exception {
	e := object.NewError(kind, "%s", msg)
	m.stamp(st, site, e)
	return object.Throw(e)
}

// stamp fills in e's location and stack from the innermost script frame.
func (m *Machine) stamp(st *ExecState, site callSite, e *object.Error) {
	f := scriptFrame(st.frame)
	if site.tok.Line > 0 {
		e.Line, e.Column = site.tok.Line, site.tok.Col
	} else if f != nil {
		e.Line, e.Column = f.Line, f.Column
	}
	if f != nil {
		e.SourceURL = f.SourceURL()
	}
	e.Stack = m.stackTrace(st, site, e)
}

func scriptFrame(f *Frame) *Frame {
	for f != nil && f.Layout == nil {
		f = f.Caller
	}
	return f
}

func (m *Machine) stackTrace(st *ExecState, site callSite, e *object.Error) string {
	var b strings.Builder
	b.WriteString(e.Inspect())
	b.WriteString("\n")
	n := 0
	innermost := true
	for f := st.frame; f != nil; f = f.Caller {
		if n == maxStackLines {
			fmt.Fprintf(&b, "    ... %d more\n", st.Registers.Depth()-n)
			break
		}
		n++
		if f.Layout == nil {
			fmt.Fprintf(&b, "    at %s (native)\n", describe(f.Callee()))
			continue
		}
		line, col := f.Line, f.Column
		if innermost && site.tok.Line > 0 {
			line, col = site.tok.Line, site.tok.Col
		}
		innermost = false
		url := f.Layout.SourceURL
		if url == "" {
			url = "<anonymous>"
		}
		fmt.Fprintf(&b, "    at %s (%s:%d:%d)\n", frameName(f), url, line, col)
	}
	return strings.TrimRight(b.String(), "\n")
}

func frameName(f *Frame) string {
	switch f.Layout.Kind {
	case FunctionLayout:
		if f.Layout.Name == "" {
			return "<anonymous>"
		}
		return f.Layout.Name
	case EvalLayout:
		return "<eval>"
	case ModuleLayout:
		return "<module>"
	}
	return "<main>"
}

// describe names a value for error messages.
func describe(v object.Value) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case *object.Function:
		if x.Name == "" {
			return "<anonymous>"
		}
		return x.Name
	case *object.Builtin:
		return x.Name
	case *object.String:
		return fmt.Sprintf("%q", x.Value)
	case *object.Object, *object.Array:
		return semantics.TypeOf(v)
	}
	return v.Inspect()
}
