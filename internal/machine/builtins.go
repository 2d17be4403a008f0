package machine

import (
	"fmt"
	"math"

	"tern/internal/object"
	"tern/internal/semantics"
)

// InstallGlobals defines the standard global bindings on global.
func (m *Machine) InstallGlobals(global *object.Object) {
	global.Set("globalThis", global)
	global.Set("NaN", &object.Number{Value: math.NaN()})
	global.Set("Infinity", &object.Number{Value: math.Inf(1)})

	global.Set("print", &object.Builtin{
		Name: "print",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			m.print(args)
			return object.UNDEFINED, nil
		},
	})

	for _, kind := range object.Kinds {
		global.Set(string(kind), errorConstructor(kind))
	}

	global.Set("String", &object.Builtin{
		Name: "String",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			if len(args) == 0 {
				return &object.String{}, nil
			}
			return &object.String{Value: semantics.ToString(args[0])}, nil
		},
	})
	global.Set("Number", &object.Builtin{
		Name: "Number",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			if len(args) == 0 {
				return &object.Number{}, nil
			}
			return &object.Number{Value: semantics.ToNumber(args[0])}, nil
		},
	})
	global.Set("Boolean", &object.Builtin{
		Name: "Boolean",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			return object.NativeBool(semantics.IsTruthy(arg(args, 0))), nil
		},
	})

	objectCtor := &object.Builtin{
		Name: "Object",
		Fn: func(_ object.Value, _ []object.Value) (object.Value, error) {
			return object.NewObject(), nil
		},
		Construct: func(_ []object.Value) (object.Value, error) {
			return object.NewObject(), nil
		},
	}
	objectCtor.Properties().Set("keys", &object.Builtin{Name: "keys", Fn: objectKeys})
	global.Set("Object", objectCtor)

	arrayCtor := &object.Builtin{
		Name: "Array",
		Fn:   newArray,
		Construct: func(args []object.Value) (object.Value, error) {
			return newArray(nil, args)
		},
	}
	arrayCtor.Properties().Set("isArray", &object.Builtin{
		Name: "isArray",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			_, ok := arg(args, 0).(*object.Array)
			return object.NativeBool(ok), nil
		},
	})
	global.Set("Array", arrayCtor)

	global.Set("Math", mathObject())
}

func errorConstructor(kind object.ErrorKind) *object.Builtin {
	build := func(args []object.Value) (object.Value, error) {
		msg := ""
		if v := arg(args, 0); v != object.UNDEFINED {
			msg = semantics.ToString(v)
		}
		return &object.Error{Kind: kind, Message: msg}, nil
	}
	return &object.Builtin{
		Name:      string(kind),
		Fn:        func(_ object.Value, args []object.Value) (object.Value, error) { return build(args) },
		Construct: build,
	}
}

func objectKeys(_ object.Value, args []object.Value) (object.Value, error) {
	var keys []string
	switch o := arg(args, 0).(type) {
	case *object.Object:
		keys = o.Keys()
	case *object.Array:
		for i := range o.Elements {
			keys = append(keys, fmt.Sprint(i))
		}
	case *object.Undefined, *object.Null:
		return nil, object.ThrowError(object.KindTypeError, "Cannot convert undefined or null to object")
	}
	out := &object.Array{Elements: make([]object.Value, 0, len(keys))}
	for _, k := range keys {
		out.Elements = append(out.Elements, &object.String{Value: k})
	}
	return out, nil
}

func newArray(_ object.Value, args []object.Value) (object.Value, error) {
	if len(args) == 1 {
		if n, ok := args[0].(*object.Number); ok {
			if n.Value < 0 || n.Value != math.Trunc(n.Value) || n.Value > maxArrayGap {
				return nil, object.ThrowError(object.KindRangeError, "Invalid array length")
			}
			out := &object.Array{}
			resize(out, int(n.Value))
			return out, nil
		}
	}
	return &object.Array{Elements: append([]object.Value{}, args...)}, nil
}

func mathObject() *object.Object {
	obj := object.NewObject()
	obj.Class = "Math"
	obj.Set("PI", &object.Number{Value: math.Pi})
	obj.Set("E", &object.Number{Value: math.E})

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": func(x float64) float64 { return math.Floor(x + 0.5) },
		"sqrt":  math.Sqrt,
		"trunc": math.Trunc,
	}
	for _, name := range []string{"abs", "floor", "ceil", "round", "sqrt", "trunc"} {
		fn := unary[name]
		obj.Set(name, &object.Builtin{
			Name: name,
			Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
				return &object.Number{Value: fn(semantics.ToNumber(arg(args, 0)))}, nil
			},
		})
	}
	obj.Set("pow", &object.Builtin{
		Name: "pow",
		Fn: func(_ object.Value, args []object.Value) (object.Value, error) {
			return &object.Number{Value: math.Pow(semantics.ToNumber(arg(args, 0)), semantics.ToNumber(arg(args, 1)))}, nil
		},
	})
	obj.Set("max", &object.Builtin{Name: "max", Fn: extremum(math.Inf(-1), math.Max)})
	obj.Set("min", &object.Builtin{Name: "min", Fn: extremum(math.Inf(1), math.Min)})
	return obj
}

func extremum(start float64, pick func(a, b float64) float64) object.BuiltinFunction {
	return func(_ object.Value, args []object.Value) (object.Value, error) {
		acc := start
		for _, a := range args {
			n := semantics.ToNumber(a)
			if math.IsNaN(n) {
				return &object.Number{Value: math.NaN()}, nil
			}
			acc = pick(acc, n)
		}
		return &object.Number{Value: acc}, nil
	}
}
