package semantics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tern/internal/numlit"
	"tern/internal/object"
)

func IsTruthy(v object.Value) bool {
	switch x := v.(type) {
	case *object.Boolean:
		return x.Value
	case *object.Undefined, *object.Null, nil:
		return false
	case *object.Number:
		return x.Value != 0 && !math.IsNaN(x.Value)
	case *object.String:
		return x.Value != ""
	default:
		return true
	}
}

// IsCallable reports whether v can be invoked with a call expression.
func IsCallable(v object.Value) bool {
	switch v.(type) {
	case *object.Function, *object.Builtin:
		return true
	}
	return false
}

func TypeOf(v object.Value) string {
	switch v.(type) {
	case *object.Undefined, nil:
		return "undefined"
	case *object.Number:
		return "number"
	case *object.String:
		return "string"
	case *object.Boolean:
		return "boolean"
	case *object.Function, *object.Builtin:
		return "function"
	default:
		return "object"
	}
}

func ToNumber(v object.Value) float64 {
	switch x := v.(type) {
	case *object.Number:
		return x.Value
	case *object.Boolean:
		if x.Value {
			return 1
		}
		return 0
	case *object.Null:
		return 0
	case *object.String:
		s := strings.TrimSpace(x.Value)
		if s == "" {
			return 0
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		neg := false
		body := s
		if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
			neg = body[0] == '-'
			body = body[1:]
		}
		if strings.ContainsRune(body, '_') || body == "" {
			return math.NaN()
		}
		f, err := numlit.Parse(body)
		if err != nil {
			if f, err = strconv.ParseFloat(body, 64); err != nil {
				return math.NaN()
			}
		}
		if neg {
			return -f
		}
		return f
	case *object.Array:
		if len(x.Elements) == 0 {
			return 0
		}
		if len(x.Elements) == 1 {
			return ToNumber(x.Elements[0])
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func ToString(v object.Value) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case *object.String:
		return x.Value
	case *object.Array:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			switch el.(type) {
			case *object.Undefined, *object.Null, nil:
			default:
				parts[i] = ToString(el)
			}
		}
		return strings.Join(parts, ",")
	case *object.Object:
		return "[object " + x.Class + "]"
	default:
		return v.Inspect()
	}
}

// ToPropertyKey converts an index or member value to a property name.
func ToPropertyKey(v object.Value) string {
	return ToString(v)
}

// ArrayIndex returns the element index v denotes, if any.
func ArrayIndex(v object.Value) (int, bool) {
	var f float64
	switch x := v.(type) {
	case *object.Number:
		f = x.Value
	case *object.String:
		n, err := strconv.Atoi(x.Value)
		if err != nil || strconv.Itoa(n) != x.Value {
			return 0, false
		}
		f = float64(n)
	default:
		return 0, false
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func StrictEquals(left, right object.Value) bool {
	switch l := left.(type) {
	case *object.Number:
		r, ok := right.(*object.Number)
		return ok && l.Value == r.Value
	case *object.String:
		r, ok := right.(*object.String)
		return ok && l.Value == r.Value
	case *object.Boolean:
		r, ok := right.(*object.Boolean)
		return ok && l.Value == r.Value
	case *object.Undefined:
		_, ok := right.(*object.Undefined)
		return ok
	case *object.Null:
		_, ok := right.(*object.Null)
		return ok
	}
	return left == right
}

func LooseEquals(left, right object.Value) bool {
	if isNullish(left) || isNullish(right) {
		return isNullish(left) && isNullish(right)
	}
	if left.Type() == right.Type() {
		return StrictEquals(left, right)
	}
	if isPrimitive(left) && isPrimitive(right) {
		return ToNumber(left) == ToNumber(right)
	}
	if isPrimitive(left) {
		return LooseEquals(left, &object.String{Value: ToString(right)})
	}
	if isPrimitive(right) {
		return LooseEquals(&object.String{Value: ToString(left)}, right)
	}
	return left == right
}

func BinaryOp(op string, left, right object.Value) (object.Value, error) {
	switch op {
	case "+":
		_, ls := left.(*object.String)
		_, rs := right.(*object.String)
		if ls || rs || !isPrimitive(left) || !isPrimitive(right) {
			return &object.String{Value: ToString(left) + ToString(right)}, nil
		}
		return &object.Number{Value: ToNumber(left) + ToNumber(right)}, nil
	case "-":
		return &object.Number{Value: ToNumber(left) - ToNumber(right)}, nil
	case "*":
		return &object.Number{Value: ToNumber(left) * ToNumber(right)}, nil
	case "/":
		return &object.Number{Value: ToNumber(left) / ToNumber(right)}, nil
	case "%":
		return &object.Number{Value: math.Mod(ToNumber(left), ToNumber(right))}, nil
	case "==":
		return object.NativeBool(LooseEquals(left, right)), nil
	case "!=":
		return object.NativeBool(!LooseEquals(left, right)), nil
	case "===":
		return object.NativeBool(StrictEquals(left, right)), nil
	case "!==":
		return object.NativeBool(!StrictEquals(left, right)), nil
	case "<", "<=", ">", ">=":
		ok, err := Compare(op, left, right)
		if err != nil {
			return nil, err
		}
		return object.NativeBool(ok), nil
	}
	return nil, fmt.Errorf("unknown operator: %s %s %s", TypeOf(left), op, TypeOf(right))
}

// Compare implements the relational operators. Strings compare by code
// unit order; everything else numerically, with NaN comparing false.
func Compare(op string, left, right object.Value) (bool, error) {
	ls, lok := left.(*object.String)
	rs, rok := right.(*object.String)
	if lok && rok {
		c := strings.Compare(ls.Value, rs.Value)
		switch op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		case ">=":
			return c >= 0, nil
		}
		return false, fmt.Errorf("unknown comparison operator: %s", op)
	}
	l, r := ToNumber(left), ToNumber(right)
	if math.IsNaN(l) || math.IsNaN(r) {
		return false, nil
	}
	switch op {
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	}
	return false, fmt.Errorf("unknown comparison operator: %s", op)
}

func UnaryOp(op string, right object.Value) (object.Value, error) {
	switch op {
	case "!":
		return object.NativeBool(!IsTruthy(right)), nil
	case "-":
		return &object.Number{Value: -ToNumber(right)}, nil
	case "typeof":
		return &object.String{Value: TypeOf(right)}, nil
	}
	return nil, fmt.Errorf("unknown operator: %s%s", op, TypeOf(right))
}

func isNullish(v object.Value) bool {
	switch v.(type) {
	case *object.Undefined, *object.Null, nil:
		return true
	}
	return false
}

func isPrimitive(v object.Value) bool {
	switch v.(type) {
	case *object.Number, *object.String, *object.Boolean, *object.Undefined, *object.Null:
		return true
	}
	return false
}
