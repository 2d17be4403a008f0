package object

import (
	"bytes"
	"strings"

	"tern/internal/numlit"
)

type Type string

const (
	UNDEFINED_OBJ Type = "undefined"
	NULL_OBJ      Type = "null"
	NUMBER_OBJ    Type = "number"
	STRING_OBJ    Type = "string"
	BOOLEAN_OBJ   Type = "boolean"
	OBJECT_OBJ    Type = "object"
	ARRAY_OBJ     Type = "array"
	FUNCTION_OBJ  Type = "function"
	BUILTIN_OBJ   Type = "builtin"
	ERROR_OBJ     Type = "error"

	// completion signals; never visible to script code
	RETURN_VALUE_OBJ Type = "RETURN_VALUE"
	BREAK_OBJ        Type = "BREAK"
	CONTINUE_OBJ     Type = "CONTINUE"
	EXCEPTION_OBJ    Type = "EXCEPTION"
)

// Value is anything a script expression can produce.
type Value interface {
	Type() Type
	Inspect() string
}

var (
	UNDEFINED = &Undefined{}
	NULL      = &Null{}
	TRUE      = &Boolean{Value: true}
	FALSE     = &Boolean{Value: false}
)

type Undefined struct{}

func (*Undefined) Type() Type      { return UNDEFINED_OBJ }
func (*Undefined) Inspect() string { return "undefined" }

type Null struct{}

func (*Null) Type() Type      { return NULL_OBJ }
func (*Null) Inspect() string { return "null" }

type Number struct{ Value float64 }

func (*Number) Type() Type        { return NUMBER_OBJ }
func (n *Number) Inspect() string { return numlit.Format(n.Value) }

type String struct{ Value string }

func (*String) Type() Type        { return STRING_OBJ }
func (s *String) Inspect() string { return s.Value }

type Boolean struct{ Value bool }

func (*Boolean) Type() Type { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

type ReturnValue struct{ Value Value }

func (*ReturnValue) Type() Type         { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string { return rv.Value.Inspect() }

type Break struct{}

func (*Break) Type() Type      { return BREAK_OBJ }
func (*Break) Inspect() string { return "break" }

type Continue struct{}

func (*Continue) Type() Type      { return CONTINUE_OBJ }
func (*Continue) Inspect() string { return "continue" }

/* -------------------- objects -------------------- */

// Object is an ordinary script object. Properties keep insertion order;
// lookups that miss fall back to Proto. A Handler, when set, sees every
// property access first.
type Object struct {
	Class   string
	Proto   *Object
	Handler PropertyHandler

	keys  []string
	props map[string]Value
}

func NewObject() *Object {
	return &Object{Class: "Object", props: map[string]Value{}}
}

func (*Object) Type() Type { return OBJECT_OBJ }
func (o *Object) Inspect() string {
	return inspect(o, 0)
}

// Get looks name up on o and then along the prototype chain.
func (o *Object) Get(name string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Proto {
		if v, ok := cur.GetOwn(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (o *Object) GetOwn(name string) (Value, bool) {
	if o.Handler != nil {
		if v, ok := o.Handler.GetProperty(name); ok {
			return v, true
		}
	}
	v, ok := o.props[name]
	return v, ok
}

func (o *Object) Set(name string, v Value) {
	if o.Handler != nil && o.Handler.SetProperty(name, v) {
		return
	}
	if o.props == nil {
		o.props = map[string]Value{}
	}
	if _, exists := o.props[name]; !exists {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
}

func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

func (o *Object) Delete(name string) bool {
	if _, ok := o.props[name]; !ok {
		return false
	}
	delete(o.props, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns own property names in enumeration order.
func (o *Object) Keys() []string {
	return OrderedKeys(o.keys)
}

func (o *Object) Len() int { return len(o.keys) }

type Array struct {
	Elements []Value
}

func (*Array) Type() Type { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	return inspect(a, 0)
}

// maxInspectDepth bounds Inspect on cyclic graphs.
const maxInspectDepth = 4

func inspect(v Value, depth int) string {
	switch x := v.(type) {
	case *String:
		if depth > 0 {
			return quote(x.Value)
		}
		return x.Value
	case *Array:
		if depth >= maxInspectDepth {
			return "[Array]"
		}
		var out bytes.Buffer
		out.WriteString("[")
		for i, el := range x.Elements {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(inspect(el, depth+1))
		}
		out.WriteString("]")
		return out.String()
	case *Object:
		if depth >= maxInspectDepth {
			return "[Object]"
		}
		keys := x.Keys()
		if len(keys) == 0 {
			return "{}"
		}
		var out bytes.Buffer
		out.WriteString("{ ")
		for i, k := range keys {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(k)
			out.WriteString(": ")
			val, _ := x.GetOwn(k)
			out.WriteString(inspect(val, depth+1))
		}
		out.WriteString(" }")
		return out.String()
	case nil:
		return "undefined"
	default:
		return v.Inspect()
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}
