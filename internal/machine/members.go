package machine

import (
	"fmt"
	"strings"

	"tern/internal/object"
	"tern/internal/semantics"
)

// methodFunc implements a method of a primitive or array receiver.
type methodFunc func(m *Machine, st *ExecState, site callSite, recv object.Value, args []object.Value) object.Value

// maxArrayGap bounds how far past the end an index assignment may grow an
// array.
const maxArrayGap = 1 << 20

// arrayMethods is filled in init: forEach and map call back into the
// interpreter, which itself reads the table.
var arrayMethods map[string]methodFunc

func init() {
	arrayMethods = map[string]methodFunc{
		"push":     arrayPush,
		"pop":      arrayPop,
		"join":     arrayJoin,
		"indexOf":  arrayIndexOf,
		"includes": arrayIncludes,
		"slice":    arraySlice,
		"forEach":  arrayForEach,
		"map":      arrayMap,
	}
}

var stringMethods = map[string]methodFunc{
	"charAt":      stringCharAt,
	"indexOf":     stringIndexOf,
	"includes":    stringIncludes,
	"slice":       stringSlice,
	"toUpperCase": stringToUpper,
	"toLowerCase": stringToLower,
	"split":       stringSplit,
	"trim":        stringTrim,
}

func (m *Machine) getMember(st *ExecState, site callSite, obj object.Value, name string) object.Value {
	switch o := obj.(type) {
	case *object.Undefined, *object.Null, nil:
		return m.newException(st, site, object.KindTypeError,
			fmt.Sprintf("Cannot read properties of %s (reading '%s')", semantics.ToString(obj), name))
	case *object.Object:
		if v, ok := o.Get(name); ok {
			return v
		}
	case *object.Array:
		if name == "length" {
			return &object.Number{Value: float64(len(o.Elements))}
		}
		if i, ok := semantics.ArrayIndex(&object.String{Value: name}); ok {
			if i < len(o.Elements) && o.Elements[i] != nil {
				return o.Elements[i]
			}
			return object.UNDEFINED
		}
		if fn, ok := arrayMethods[name]; ok {
			return m.bindMethod(st, o, name, fn)
		}
	case *object.String:
		runes := []rune(o.Value)
		if name == "length" {
			return &object.Number{Value: float64(len(runes))}
		}
		if i, ok := semantics.ArrayIndex(&object.String{Value: name}); ok {
			if i < len(runes) {
				return &object.String{Value: string(runes[i])}
			}
			return object.UNDEFINED
		}
		if fn, ok := stringMethods[name]; ok {
			return m.bindMethod(st, o, name, fn)
		}
	case *object.Function:
		switch name {
		case "name":
			return &object.String{Value: o.Name}
		case "length":
			return &object.Number{Value: float64(len(o.Parameters()))}
		case "call":
			return m.bindCall(st, o)
		}
		if v, ok := o.Properties().Get(name); ok {
			return v
		}
	case *object.Builtin:
		switch name {
		case "name":
			return &object.String{Value: o.Name}
		case "call":
			return m.bindCall(st, o)
		}
		if o.Props != nil {
			if v, ok := o.Props.Get(name); ok {
				return v
			}
		}
	case *object.Error:
		if v, ok := o.Get(name); ok {
			return v
		}
		if name == "toString" {
			return m.bindMethod(st, o, name, func(_ *Machine, _ *ExecState, _ callSite, recv object.Value, _ []object.Value) object.Value {
				return &object.String{Value: recv.Inspect()}
			})
		}
	case *object.Number, *object.Boolean:
		if name == "toString" {
			return m.bindMethod(st, o, name, func(_ *Machine, _ *ExecState, _ callSite, recv object.Value, _ []object.Value) object.Value {
				return &object.String{Value: semantics.ToString(recv)}
			})
		}
	}
	return object.UNDEFINED
}

func (m *Machine) setMember(st *ExecState, site callSite, obj object.Value, name string, v object.Value) *object.Exception {
	switch o := obj.(type) {
	case *object.Undefined, *object.Null, nil:
		return m.newException(st, site, object.KindTypeError,
			fmt.Sprintf("Cannot set properties of %s (setting '%s')", semantics.ToString(obj), name))
	case *object.Object:
		o.Set(name, v)
	case *object.Array:
		if name == "length" {
			n := semantics.ToNumber(v)
			if n < 0 || n != float64(int(n)) || int(n) > len(o.Elements)+maxArrayGap {
				return m.newException(st, site, object.KindRangeError, "Invalid array length")
			}
			resize(o, int(n))
			return nil
		}
		i, ok := semantics.ArrayIndex(&object.String{Value: name})
		if !ok {
			return m.newException(st, site, object.KindTypeError,
				fmt.Sprintf("Cannot set property '%s' of array", name))
		}
		if i >= len(o.Elements)+maxArrayGap {
			return m.newException(st, site, object.KindRangeError, "Invalid array length")
		}
		if i >= len(o.Elements) {
			resize(o, i+1)
		}
		o.Elements[i] = v
	case *object.Function:
		o.Properties().Set(name, v)
	case *object.Builtin:
		o.Properties().Set(name, v)
	case *object.Error:
		o.Set(name, v)
	}
	return nil
}

func resize(a *object.Array, n int) {
	if n <= len(a.Elements) {
		clear(a.Elements[n:])
		a.Elements = a.Elements[:n]
		return
	}
	for len(a.Elements) < n {
		a.Elements = append(a.Elements, object.UNDEFINED)
	}
}

// bindMethod returns a builtin that applies fn to recv. The builtin runs
// on st, so callbacks it makes stack above the caller's frame.
func (m *Machine) bindMethod(st *ExecState, recv object.Value, name string, fn methodFunc) *object.Builtin {
	return &object.Builtin{
		Name: name,
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			res := fn(m, st, callSite{}, recv, args)
			if exc, ok := res.(*object.Exception); ok {
				return nil, exc
			}
			return res, nil
		},
	}
}

func (m *Machine) bindCall(st *ExecState, target object.Value) *object.Builtin {
	return &object.Builtin{
		Name: "call",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			var this object.Value = object.UNDEFINED
			if len(args) > 0 {
				this, args = args[0], args[1:]
			}
			res := m.callValue(st, callSite{}, target, this, args)
			if exc, ok := res.(*object.Exception); ok {
				return nil, exc
			}
			return res, nil
		},
	}
}

func arg(args []object.Value, i int) object.Value {
	if i < len(args) {
		return args[i]
	}
	return object.UNDEFINED
}

// relIndex resolves a slice bound that may count from the end.
func relIndex(v object.Value, length, def int) int {
	if _, ok := v.(*object.Undefined); ok {
		return def
	}
	n := int(semantics.ToNumber(v))
	if n < 0 {
		n += length
	}
	return max(0, min(n, length))
}

/* -------------------- arrays -------------------- */

func arrayPush(_ *Machine, _ *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	a := recv.(*object.Array)
	a.Elements = append(a.Elements, args...)
	return &object.Number{Value: float64(len(a.Elements))}
}

func arrayPop(_ *Machine, _ *ExecState, _ callSite, recv object.Value, _ []object.Value) object.Value {
	a := recv.(*object.Array)
	if len(a.Elements) == 0 {
		return object.UNDEFINED
	}
	last := a.Elements[len(a.Elements)-1]
	a.Elements = a.Elements[:len(a.Elements)-1]
	return last
}

func arrayJoin(m *Machine, st *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	a := recv.(*object.Array)
	sep := ","
	if s, ok := arg(args, 0).(*object.String); ok {
		sep = s.Value
	}
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		switch el.(type) {
		case *object.Undefined, *object.Null, nil:
		default:
			parts[i] = semantics.ToString(el)
		}
	}
	out := &object.String{Value: strings.Join(parts, sep)}
	if exc := m.allocate(st, out); exc != nil {
		return exc
	}
	return out
}

func arrayIndexOf(_ *Machine, _ *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	a := recv.(*object.Array)
	want := arg(args, 0)
	for i, el := range a.Elements {
		if semantics.StrictEquals(el, want) {
			return &object.Number{Value: float64(i)}
		}
	}
	return &object.Number{Value: -1}
}

func arrayIncludes(m *Machine, st *ExecState, site callSite, recv object.Value, args []object.Value) object.Value {
	idx := arrayIndexOf(m, st, site, recv, args).(*object.Number)
	return object.NativeBool(idx.Value >= 0)
}

func arraySlice(m *Machine, st *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	a := recv.(*object.Array)
	n := len(a.Elements)
	lo := relIndex(arg(args, 0), n, 0)
	hi := relIndex(arg(args, 1), n, n)
	out := &object.Array{Elements: []object.Value{}}
	if lo < hi {
		out.Elements = append(out.Elements, a.Elements[lo:hi]...)
	}
	if exc := m.allocate(st, out); exc != nil {
		return exc
	}
	return out
}

func arrayForEach(m *Machine, st *ExecState, site callSite, recv object.Value, args []object.Value) object.Value {
	a := recv.(*object.Array)
	fn := arg(args, 0)
	if !semantics.IsCallable(fn) {
		return m.newException(st, site, object.KindTypeError, describe(fn)+" is not a function")
	}
	for i := 0; i < len(a.Elements); i++ {
		res := m.callValue(st, site, fn, object.UNDEFINED, []object.Value{a.Elements[i], &object.Number{Value: float64(i)}, a})
		if isException(res) {
			return res
		}
	}
	return object.UNDEFINED
}

func arrayMap(m *Machine, st *ExecState, site callSite, recv object.Value, args []object.Value) object.Value {
	a := recv.(*object.Array)
	fn := arg(args, 0)
	if !semantics.IsCallable(fn) {
		return m.newException(st, site, object.KindTypeError, describe(fn)+" is not a function")
	}
	out := &object.Array{Elements: make([]object.Value, 0, len(a.Elements))}
	for i := 0; i < len(a.Elements); i++ {
		res := m.callValue(st, site, fn, object.UNDEFINED, []object.Value{a.Elements[i], &object.Number{Value: float64(i)}, a})
		if isException(res) {
			return res
		}
		out.Elements = append(out.Elements, res)
	}
	if exc := m.allocate(st, out); exc != nil {
		return exc
	}
	return out
}

/* -------------------- strings -------------------- */

func stringCharAt(_ *Machine, _ *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	runes := []rune(recv.(*object.String).Value)
	i := int(semantics.ToNumber(arg(args, 0)))
	if _, ok := arg(args, 0).(*object.Undefined); ok {
		i = 0
	}
	if i < 0 || i >= len(runes) {
		return &object.String{Value: ""}
	}
	return &object.String{Value: string(runes[i])}
}

func stringIndexOf(_ *Machine, _ *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	s := recv.(*object.String).Value
	sub := semantics.ToString(arg(args, 0))
	i := strings.Index(s, sub)
	if i < 0 {
		return &object.Number{Value: -1}
	}
	return &object.Number{Value: float64(len([]rune(s[:i])))}
}

func stringIncludes(_ *Machine, _ *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	return object.NativeBool(strings.Contains(recv.(*object.String).Value, semantics.ToString(arg(args, 0))))
}

func stringSlice(_ *Machine, _ *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	runes := []rune(recv.(*object.String).Value)
	n := len(runes)
	lo := relIndex(arg(args, 0), n, 0)
	hi := relIndex(arg(args, 1), n, n)
	if lo >= hi {
		return &object.String{Value: ""}
	}
	return &object.String{Value: string(runes[lo:hi])}
}

func stringToUpper(_ *Machine, _ *ExecState, _ callSite, recv object.Value, _ []object.Value) object.Value {
	return &object.String{Value: strings.ToUpper(recv.(*object.String).Value)}
}

func stringToLower(_ *Machine, _ *ExecState, _ callSite, recv object.Value, _ []object.Value) object.Value {
	return &object.String{Value: strings.ToLower(recv.(*object.String).Value)}
}

func stringTrim(_ *Machine, _ *ExecState, _ callSite, recv object.Value, _ []object.Value) object.Value {
	return &object.String{Value: strings.TrimSpace(recv.(*object.String).Value)}
}

func stringSplit(m *Machine, st *ExecState, _ callSite, recv object.Value, args []object.Value) object.Value {
	s := recv.(*object.String).Value
	out := &object.Array{}
	if _, ok := arg(args, 0).(*object.Undefined); ok {
		out.Elements = []object.Value{recv}
	} else {
		for _, part := range strings.Split(s, semantics.ToString(arg(args, 0))) {
			out.Elements = append(out.Elements, &object.String{Value: part})
		}
	}
	if exc := m.allocate(st, out); exc != nil {
		return exc
	}
	return out
}
