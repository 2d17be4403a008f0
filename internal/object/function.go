package object

import (
	"bytes"
	"strings"

	"tern/internal/ast"
)

// Function is a script function closed over the scope it was created in.
type Function struct {
	Name      string
	Literal   *ast.FunctionLiteral
	Env       *Environment
	SourceURL string

	props *Object
}

func (*Function) Type() Type { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	var out bytes.Buffer
	params := []string{}
	for _, p := range f.Literal.Parameters {
		params = append(params, p.String())
	}
	out.WriteString("function ")
	out.WriteString(f.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") { [code] }")
	return out.String()
}

func (f *Function) Parameters() []*ast.Identifier { return f.Literal.Parameters }

// Properties returns the function's own property bag, creating it and its
// prototype object on first use.
func (f *Function) Properties() *Object {
	if f.props == nil {
		f.props = NewObject()
		f.props.Class = "Function"
		proto := NewObject()
		proto.Set("constructor", f)
		f.props.Set("prototype", proto)
	}
	return f.props
}

// PropertiesIfAny returns the property bag without creating it.
func (f *Function) PropertiesIfAny() *Object { return f.props }

// BuiltinFunction implements a native function. Returning an error throws:
// an *Exception is rethrown as is, anything else becomes an Error.
type BuiltinFunction func(this Value, args []Value) (Value, error)

type Builtin struct {
	Name string
	Fn   BuiltinFunction
	// Construct handles `new`; nil means the builtin is not a constructor.
	Construct func(args []Value) (Value, error)

	Props *Object
}

func (*Builtin) Type() Type        { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string { return "function " + b.Name + "() { [native code] }" }

func (b *Builtin) Properties() *Object {
	if b.Props == nil {
		b.Props = NewObject()
		b.Props.Class = "Function"
	}
	return b.Props
}
