package machine

import (
	"fmt"

	"tern/internal/ast"
	"tern/internal/object"
	"tern/internal/semantics"
	"tern/internal/token"
)

var (
	breakSignal    = &object.Break{}
	continueSignal = &object.Continue{}
)

// ImportMetaName is the hidden module scope binding behind import.meta.
const ImportMetaName = "import.meta"

func isAbrupt(v object.Value) bool {
	switch v.(type) {
	case *object.ReturnValue, *object.Exception, *object.Break, *object.Continue:
		return true
	}
	return false
}

func isException(v object.Value) bool {
	_, ok := v.(*object.Exception)
	return ok
}

// evalStatements runs stmts in order and returns the completion value:
// the last statement value, or the first abrupt completion.
func (m *Machine) evalStatements(stmts []ast.Statement, env *object.Environment, st *ExecState) object.Value {
	var result object.Value
	for _, s := range stmts {
		m.checkPause(st, s, env)
		v := m.evalStatement(s, env, st)
		if isAbrupt(v) {
			return v
		}
		if v != nil {
			result = v
		}
	}
	return result
}

func (m *Machine) evalStatement(s ast.Statement, env *object.Environment, st *ExecState) object.Value {
	switch n := s.(type) {
	case *ast.ExpressionStatement:
		return m.eval(n.Expression, env, st)
	case *ast.VarStatement:
		return m.evalVar(n, env, st)
	case *ast.FunctionStatement, *ast.ImportStatement, *ast.DebuggerStatement:
		return nil
	case *ast.ExportStatement:
		if n.Decl != nil {
			return m.evalStatement(n.Decl, env, st)
		}
		return nil
	case *ast.ReturnStatement:
		var val object.Value = object.UNDEFINED
		if n.ReturnValue != nil {
			val = m.eval(n.ReturnValue, env, st)
			if isException(val) {
				return val
			}
		}
		return &object.ReturnValue{Value: val}
	case *ast.BlockStatement:
		return m.evalBlock(n, env, st)
	case *ast.IfStatement:
		cond := m.eval(n.Condition, env, st)
		if isException(cond) {
			return cond
		}
		if semantics.IsTruthy(cond) {
			return m.evalBlock(n.Consequence, env, st)
		}
		if n.Alternative != nil {
			return m.evalStatement(n.Alternative, env, st)
		}
		return nil
	case *ast.WhileStatement:
		return m.evalWhile(n, env, st)
	case *ast.ForStatement:
		return m.evalFor(n, env, st)
	case *ast.BreakStatement:
		return breakSignal
	case *ast.ContinueStatement:
		return continueSignal
	case *ast.ThrowStatement:
		val := m.eval(n.Value, env, st)
		if isException(val) {
			return val
		}
		if e, ok := val.(*object.Error); ok && e.Line == 0 {
			m.stamp(st, siteOf(n.Token), e)
		}
		return object.Throw(val)
	case *ast.TryStatement:
		return m.evalTry(n, env, st)
	}
	return m.newException(st, siteOf(s.Start()), object.KindSyntaxError, fmt.Sprintf("unsupported statement %T", s))
}

func (m *Machine) evalVar(n *ast.VarStatement, env *object.Environment, st *ExecState) object.Value {
	for _, d := range n.Declarations {
		var val object.Value = object.UNDEFINED
		if d.Value != nil {
			val = m.eval(d.Value, env, st)
			if isException(val) {
				return val
			}
		}
		switch n.Token.Type {
		case token.VAR:
			if d.Value == nil {
				env.DeclareVar(d.Name.Value)
				continue
			}
			scope := env.Resolve(d.Name.Value)
			if scope == nil {
				scope = env.VarScope()
			}
			scope.Set(d.Name.Value, val)
		case token.CONST:
			env.Declare(d.Name.Value, val, false)
		default:
			env.Declare(d.Name.Value, val, true)
		}
	}
	return nil
}

func (m *Machine) evalBlock(b *ast.BlockStatement, env *object.Environment, st *ExecState) object.Value {
	inner := object.NewEnclosedEnvironment(env)
	if exc := m.hoist(st, b.Statements, inner, false); exc != nil {
		return exc
	}
	return m.evalStatements(b.Statements, inner, st)
}

func (m *Machine) evalWhile(n *ast.WhileStatement, env *object.Environment, st *ExecState) object.Value {
	var result object.Value
	for {
		cond := m.eval(n.Condition, env, st)
		if isException(cond) {
			return cond
		}
		if !semantics.IsTruthy(cond) {
			return result
		}
		res := m.evalBlock(n.Body, env, st)
		switch res.(type) {
		case *object.Break:
			return result
		case *object.Continue:
			continue
		case *object.ReturnValue, *object.Exception:
			return res
		}
		if res != nil {
			result = res
		}
	}
}

func (m *Machine) evalFor(n *ast.ForStatement, env *object.Environment, st *ExecState) object.Value {
	loopEnv := object.NewEnclosedEnvironment(env)
	if n.Init != nil {
		if init := m.evalStatement(n.Init, loopEnv, st); isException(init) {
			return init
		}
	}
	var result object.Value
	for {
		if n.Condition != nil {
			cond := m.eval(n.Condition, loopEnv, st)
			if isException(cond) {
				return cond
			}
			if !semantics.IsTruthy(cond) {
				return result
			}
		}
		res := m.evalBlock(n.Body, loopEnv, st)
		switch res.(type) {
		case *object.Break:
			return result
		case *object.ReturnValue, *object.Exception:
			return res
		case *object.Continue:
		default:
			if res != nil {
				result = res
			}
		}
		if n.Post != nil {
			if post := m.eval(n.Post, loopEnv, st); isException(post) {
				return post
			}
		}
	}
}

func (m *Machine) evalTry(n *ast.TryStatement, env *object.Environment, st *ExecState) object.Value {
	res := m.evalBlock(n.TryBlock, env, st)
	if exc, ok := res.(*object.Exception); ok && n.CatchBlock != nil {
		catchEnv := object.NewEnclosedEnvironment(env)
		if n.CatchName != nil {
			catchEnv.Declare(n.CatchName.Value, exc.Value, true)
		}
		res = m.evalBlock(n.CatchBlock, catchEnv, st)
	}
	if n.FinallyBlock != nil {
		if fin := m.evalBlock(n.FinallyBlock, env, st); isAbrupt(fin) {
			return fin
		}
	}
	return res
}

/* -------------------- expressions -------------------- */

func (m *Machine) eval(node ast.Expression, env *object.Environment, st *ExecState) object.Value {
	switch n := node.(type) {
	case *ast.Identifier:
		if v, ok := env.Get(n.Value); ok {
			return v
		}
		return m.newException(st, siteOf(n.Token), object.KindReferenceError, n.Value+" is not defined")
	case *ast.NumberLiteral:
		return &object.Number{Value: n.Value}
	case *ast.StringLiteral:
		return &object.String{Value: n.Value}
	case *ast.BooleanLiteral:
		return object.NativeBool(n.Value)
	case *ast.NullLiteral:
		return object.NULL
	case *ast.UndefinedLiteral:
		return object.UNDEFINED
	case *ast.ThisExpression:
		if v, ok := st.frame.This(); ok && v != nil {
			return v
		}
		return object.UNDEFINED
	case *ast.MetaProperty:
		if v, ok := env.Get(ImportMetaName); ok {
			return v
		}
		return object.UNDEFINED
	case *ast.ArrayLiteral:
		elems, exc := m.evalExpressions(n.Elements, env, st)
		if exc != nil {
			return exc
		}
		arr := &object.Array{Elements: elems}
		if exc := m.allocate(st, arr); exc != nil {
			return exc
		}
		return arr
	case *ast.ObjectLiteral:
		obj := object.NewObject()
		for _, p := range n.Properties {
			v := m.eval(p.Value, env, st)
			if isException(v) {
				return v
			}
			obj.Set(p.Key, v)
		}
		if exc := m.allocate(st, obj); exc != nil {
			return exc
		}
		return obj
	case *ast.FunctionLiteral:
		scope := env
		if n.Name != nil {
			scope = object.NewEnclosedEnvironment(env)
		}
		fn, exc := m.newFunction(st, n, scope)
		if exc != nil {
			return exc
		}
		if n.Name != nil {
			scope.Declare(n.Name.Value, fn, false)
		}
		return fn
	case *ast.PrefixExpression:
		return m.evalPrefix(n, env, st)
	case *ast.InfixExpression:
		return m.evalInfix(n, env, st)
	case *ast.AssignExpression:
		return m.evalAssign(n, env, st)
	case *ast.UpdateExpression:
		return m.evalUpdate(n, env, st)
	case *ast.CallExpression:
		return m.evalCall(n, env, st)
	case *ast.NewExpression:
		callee := m.eval(n.Callee, env, st)
		if isException(callee) {
			return callee
		}
		args, exc := m.evalExpressions(n.Arguments, env, st)
		if exc != nil {
			return exc
		}
		return m.construct(st, siteOf(n.Token), callee, args)
	case *ast.MemberExpression:
		obj := m.eval(n.Object, env, st)
		if isException(obj) {
			return obj
		}
		return m.getMember(st, siteOf(n.Property.Token), obj, n.Property.Value)
	case *ast.IndexExpression:
		obj := m.eval(n.Left, env, st)
		if isException(obj) {
			return obj
		}
		idx := m.eval(n.Index, env, st)
		if isException(idx) {
			return idx
		}
		return m.getMember(st, siteOf(n.Token), obj, semantics.ToPropertyKey(idx))
	}
	return m.newException(st, siteOf(node.Start()), object.KindSyntaxError, fmt.Sprintf("unsupported expression %T", node))
}

func (m *Machine) evalExpressions(exps []ast.Expression, env *object.Environment, st *ExecState) ([]object.Value, *object.Exception) {
	out := make([]object.Value, 0, len(exps))
	for _, e := range exps {
		v := m.eval(e, env, st)
		if exc, ok := v.(*object.Exception); ok {
			return nil, exc
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Machine) evalPrefix(n *ast.PrefixExpression, env *object.Environment, st *ExecState) object.Value {
	if id, ok := n.Right.(*ast.Identifier); ok && n.Operator == "typeof" {
		if _, bound := env.Get(id.Value); !bound {
			return &object.String{Value: "undefined"}
		}
	}
	right := m.eval(n.Right, env, st)
	if isException(right) {
		return right
	}
	if n.Operator == "+" {
		return &object.Number{Value: semantics.ToNumber(right)}
	}
	v, err := semantics.UnaryOp(n.Operator, right)
	if err != nil {
		return m.newException(st, siteOf(n.Token), object.KindTypeError, err.Error())
	}
	return v
}

func (m *Machine) evalInfix(n *ast.InfixExpression, env *object.Environment, st *ExecState) object.Value {
	left := m.eval(n.Left, env, st)
	if isException(left) {
		return left
	}
	switch n.Operator {
	case "&&":
		if !semantics.IsTruthy(left) {
			return left
		}
		return m.eval(n.Right, env, st)
	case "||":
		if semantics.IsTruthy(left) {
			return left
		}
		return m.eval(n.Right, env, st)
	}
	right := m.eval(n.Right, env, st)
	if isException(right) {
		return right
	}
	return m.binary(st, n.Token, n.Operator, left, right)
}

func (m *Machine) binary(st *ExecState, tok token.Token, op string, left, right object.Value) object.Value {
	v, err := semantics.BinaryOp(op, left, right)
	if err != nil {
		return m.newException(st, siteOf(tok), object.KindTypeError, err.Error())
	}
	if s, ok := v.(*object.String); ok {
		if exc := m.allocate(st, s); exc != nil {
			return exc
		}
	}
	return v
}

var compoundOps = map[token.Type]string{
	token.PLUS_ASSIGN:  "+",
	token.MINUS_ASSIGN: "-",
	token.STAR_ASSIGN:  "*",
	token.SLASH_ASSIGN: "/",
}

func (m *Machine) evalAssign(n *ast.AssignExpression, env *object.Environment, st *ExecState) object.Value {
	ref, exc := m.reference(n.Target, env, st)
	if exc != nil {
		return exc
	}
	var val object.Value
	if op, ok := compoundOps[n.Op]; ok {
		cur := ref.get()
		if isException(cur) {
			return cur
		}
		rhs := m.eval(n.Value, env, st)
		if isException(rhs) {
			return rhs
		}
		val = m.binary(st, n.Token, op, cur, rhs)
	} else {
		val = m.eval(n.Value, env, st)
	}
	if isException(val) {
		return val
	}
	if exc := ref.set(val); exc != nil {
		return exc
	}
	return val
}

func (m *Machine) evalUpdate(n *ast.UpdateExpression, env *object.Environment, st *ExecState) object.Value {
	ref, exc := m.reference(n.Target, env, st)
	if exc != nil {
		return exc
	}
	cur := ref.get()
	if isException(cur) {
		return cur
	}
	old := semantics.ToNumber(cur)
	next := old + 1
	if n.Operator == "--" {
		next = old - 1
	}
	if exc := ref.set(&object.Number{Value: next}); exc != nil {
		return exc
	}
	if n.Prefix {
		return &object.Number{Value: next}
	}
	return &object.Number{Value: old}
}

// ref is an assignable location.
type ref struct {
	get func() object.Value
	set func(object.Value) *object.Exception
}

func (m *Machine) reference(target ast.Expression, env *object.Environment, st *ExecState) (ref, *object.Exception) {
	switch t := target.(type) {
	case *ast.Identifier:
		name := t.Value
		site := siteOf(t.Token)
		return ref{
			get: func() object.Value {
				if v, ok := env.Get(name); ok {
					return v
				}
				return m.newException(st, site, object.KindReferenceError, name+" is not defined")
			},
			set: func(v object.Value) *object.Exception {
				scope := env.Resolve(name)
				if scope == nil {
					st.GlobalScope.Set(name, v)
					return nil
				}
				if scope.IsConst(name) {
					return m.newException(st, site, object.KindTypeError, "Assignment to constant variable.")
				}
				scope.Assign(name, v)
				return nil
			},
		}, nil
	case *ast.MemberExpression:
		obj := m.eval(t.Object, env, st)
		if exc, ok := obj.(*object.Exception); ok {
			return ref{}, exc
		}
		return m.memberRef(st, siteOf(t.Property.Token), obj, t.Property.Value), nil
	case *ast.IndexExpression:
		obj := m.eval(t.Left, env, st)
		if exc, ok := obj.(*object.Exception); ok {
			return ref{}, exc
		}
		idx := m.eval(t.Index, env, st)
		if exc, ok := idx.(*object.Exception); ok {
			return ref{}, exc
		}
		return m.memberRef(st, siteOf(t.Token), obj, semantics.ToPropertyKey(idx)), nil
	}
	return ref{}, m.newException(st, siteOf(target.Start()), object.KindSyntaxError, "invalid assignment target")
}

func (m *Machine) memberRef(st *ExecState, site callSite, obj object.Value, name string) ref {
	return ref{
		get: func() object.Value { return m.getMember(st, site, obj, name) },
		set: func(v object.Value) *object.Exception { return m.setMember(st, site, obj, name, v) },
	}
}

func (m *Machine) evalCall(n *ast.CallExpression, env *object.Environment, st *ExecState) object.Value {
	var fn object.Value
	var this object.Value = object.UNDEFINED
	switch callee := n.Function.(type) {
	case *ast.MemberExpression:
		obj := m.eval(callee.Object, env, st)
		if isException(obj) {
			return obj
		}
		this = obj
		fn = m.getMember(st, siteOf(callee.Property.Token), obj, callee.Property.Value)
	case *ast.IndexExpression:
		obj := m.eval(callee.Left, env, st)
		if isException(obj) {
			return obj
		}
		idx := m.eval(callee.Index, env, st)
		if isException(idx) {
			return idx
		}
		this = obj
		fn = m.getMember(st, siteOf(callee.Token), obj, semantics.ToPropertyKey(idx))
	default:
		fn = m.eval(n.Function, env, st)
	}
	if isException(fn) {
		return fn
	}
	site := siteOf(n.Function.Start())
	if !semantics.IsCallable(fn) {
		return m.newException(st, site, object.KindTypeError, n.Function.String()+" is not a function")
	}
	args, exc := m.evalExpressions(n.Arguments, env, st)
	if exc != nil {
		return exc
	}
	return m.callValue(st, site, fn, this, args)
}
