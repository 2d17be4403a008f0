package object

// Refs calls visit for every value directly referenced by v, and trace
// for every scope v closes over.
func Refs(v Value, visit func(Value), trace func(*Environment)) {
	switch x := v.(type) {
	case *Object:
		if x.Proto != nil {
			visit(x.Proto)
		}
		for _, k := range x.keys {
			visit(x.props[k])
		}
	case *Array:
		for _, el := range x.Elements {
			visit(el)
		}
	case *Function:
		if x.props != nil {
			visit(x.props)
		}
		if x.Env != nil {
			trace(x.Env)
		}
	case *Builtin:
		if x.Props != nil {
			visit(x.Props)
		}
	case *Error:
		if x.props != nil {
			visit(x.props)
		}
	case *Exception:
		visit(x.Value)
	case *ReturnValue:
		visit(x.Value)
	}
}

// TraceScope visits every value held by env and its outer scopes, including
// the backing object of an object environment.
func TraceScope(env *Environment, visit func(Value), seen map[*Environment]bool) {
	for cur := env; cur != nil; cur = cur.outer {
		if seen[cur] {
			return
		}
		seen[cur] = true
		for _, b := range cur.store {
			visit(b.get())
		}
		if cur.object != nil {
			visit(cur.object)
		}
	}
}
