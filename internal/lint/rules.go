package lint

import (
	"fmt"

	"tern/internal/ast"
	"tern/internal/diag"
	"tern/internal/token"
)

type symKind int

const (
	kindVar symKind = iota
	kindParam
	kindFunc
	kindImport
	kindCatch
)

type sym struct {
	tok  token.Token
	used bool
	kind symKind
}

// scope is a block or function scope. var and function declarations live
// in the nearest function scope.
type scope struct {
	parent *scope
	fn     bool
	syms   map[string]*sym
	order  []string
}

func newScope(parent *scope, fn bool) *scope {
	return &scope{parent: parent, fn: fn, syms: map[string]*sym{}}
}

func (s *scope) lookup(name string) *sym {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.syms[name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) function() *scope {
	sc := s
	for !sc.fn {
		sc = sc.parent
	}
	return sc
}

type runner struct {
	diags []diag.Diagnostic
	sc    *scope
	opts  Options
}

func (r *runner) warn(tok token.Token, code, msg string) {
	r.diags = append(r.diags, diag.Diagnostic{
		Code:     code,
		Message:  msg,
		Severity: diag.SeverityWarning,
		Range: diag.Range{
			Line:   tok.Line,
			Col:    tok.Col,
			Length: max(1, len(tok.Literal)),
		},
	})
}

func (r *runner) push(fn bool) { r.sc = newScope(r.sc, fn) }

func (r *runner) pop() {
	for _, name := range r.sc.order {
		sm := r.sc.syms[name]
		if sm.used || name[0] == '_' {
			continue
		}
		switch sm.kind {
		case kindVar:
			r.warn(sm.tok, CodeUnusedVariable, fmt.Sprintf("unused variable: %s", name))
		case kindParam:
			r.warn(sm.tok, CodeUnusedParameter, fmt.Sprintf("unused parameter: %s", name))
		}
	}
	r.sc = r.sc.parent
}

func (r *runner) declareIn(sc *scope, id *ast.Identifier, k symKind) {
	if id == nil || id.Value == "" {
		return
	}
	if _, ok := sc.syms[id.Value]; ok {
		return
	}
	if r.opts.CheckShadowing && sc.parent != nil && sc.parent.lookup(id.Value) != nil {
		r.warn(id.Token, CodeShadowing, fmt.Sprintf("variable '%s' shadows outer variable", id.Value))
	}
	sc.syms[id.Value] = &sym{tok: id.Token, kind: k}
	sc.order = append(sc.order, id.Value)
}

func (r *runner) use(name string) {
	if sm := r.sc.lookup(name); sm != nil {
		sm.used = true
	}
}

// hoist declares the var and function names of a function body up front,
// so calls that precede a declaration still count as uses.
func (r *runner) hoist(list []ast.Statement) {
	fn := r.sc.function()
	var visit func(ast.Statement)
	visit = func(st ast.Statement) {
		switch n := st.(type) {
		case *ast.VarStatement:
			if n.Token.Type != token.VAR {
				return
			}
			for _, d := range n.Declarations {
				r.declareIn(fn, d.Name, kindVar)
			}
		case *ast.FunctionStatement:
			r.declareIn(fn, n.Fn.Name, kindFunc)
		case *ast.ExportStatement:
			if n.Decl != nil {
				visit(n.Decl)
				markExported(fn, n.Decl)
			}
		case *ast.BlockStatement:
			for _, s := range n.Statements {
				visit(s)
			}
		case *ast.IfStatement:
			visit(n.Consequence)
			if n.Alternative != nil {
				visit(n.Alternative)
			}
		case *ast.WhileStatement:
			visit(n.Body)
		case *ast.ForStatement:
			if n.Init != nil {
				visit(n.Init)
			}
			visit(n.Body)
		case *ast.TryStatement:
			visit(n.TryBlock)
			if n.CatchBlock != nil {
				visit(n.CatchBlock)
			}
			if n.FinallyBlock != nil {
				visit(n.FinallyBlock)
			}
		}
	}
	for _, st := range list {
		visit(st)
	}
}

func markExported(sc *scope, decl ast.Statement) {
	switch d := decl.(type) {
	case *ast.VarStatement:
		for _, v := range d.Declarations {
			if sm, ok := sc.syms[v.Name.Value]; ok {
				sm.used = true
			}
		}
	case *ast.FunctionStatement:
		if d.Fn.Name != nil {
			if sm, ok := sc.syms[d.Fn.Name.Value]; ok {
				sm.used = true
			}
		}
	}
}

func (r *runner) walkList(list []ast.Statement) {
	terminated := false
	for _, st := range list {
		if terminated {
			r.warn(st.Start(), CodeUnreachable, "unreachable code")
			terminated = false
		}
		r.walkStmt(st)
		if isTerminator(st) {
			terminated = true
		}
	}
}

func isTerminator(st ast.Statement) bool {
	switch st.(type) {
	case *ast.ReturnStatement, *ast.ThrowStatement, *ast.BreakStatement, *ast.ContinueStatement:
		return true
	}
	return false
}

func (r *runner) walkBlock(b *ast.BlockStatement) {
	if b == nil {
		return
	}
	r.push(false)
	r.walkList(b.Statements)
	r.pop()
}

func (r *runner) walkFunction(fn *ast.FunctionLiteral, named bool) {
	r.push(true)
	if named && fn.Name != nil {
		r.declareIn(r.sc, fn.Name, kindFunc)
	}
	for _, p := range fn.Parameters {
		r.declareIn(r.sc, p, kindParam)
	}
	if fn.Body != nil {
		r.hoist(fn.Body.Statements)
		r.walkList(fn.Body.Statements)
	}
	r.pop()
}

func (r *runner) walkStmt(st ast.Statement) {
	switch n := st.(type) {
	case *ast.BlockStatement:
		r.walkBlock(n)

	case *ast.FunctionStatement:
		r.walkFunction(n.Fn, false)

	case *ast.VarStatement:
		for _, d := range n.Declarations {
			r.walkExpr(d.Value)
			if n.Token.Type != token.VAR {
				r.declareIn(r.sc, d.Name, kindVar)
			}
		}

	case *ast.ReturnStatement:
		r.walkExpr(n.ReturnValue)

	case *ast.ThrowStatement:
		r.walkExpr(n.Value)

	case *ast.ExpressionStatement:
		r.walkExpr(n.Expression)

	case *ast.IfStatement:
		r.walkExpr(n.Condition)
		r.walkBlock(n.Consequence)
		if n.Alternative != nil {
			r.walkStmt(n.Alternative)
		}

	case *ast.WhileStatement:
		r.walkExpr(n.Condition)
		r.walkBlock(n.Body)

	case *ast.ForStatement:
		r.push(false)
		if n.Init != nil {
			r.walkStmt(n.Init)
		}
		r.walkExpr(n.Condition)
		r.walkExpr(n.Post)
		r.walkBlock(n.Body)
		r.pop()

	case *ast.TryStatement:
		r.walkBlock(n.TryBlock)
		if n.CatchBlock != nil {
			r.push(false)
			if n.CatchName != nil {
				r.declareIn(r.sc, n.CatchName, kindCatch)
			}
			r.walkList(n.CatchBlock.Statements)
			r.pop()
		}
		r.walkBlock(n.FinallyBlock)

	case *ast.ImportStatement:
		if n.Namespace != nil {
			r.declareIn(r.sc, n.Namespace, kindImport)
		}
		for _, s := range n.Specifiers {
			r.declareIn(r.sc, s.Local, kindImport)
		}

	case *ast.ExportStatement:
		if n.Decl != nil {
			r.walkStmt(n.Decl)
		}
		for _, s := range n.Specifiers {
			r.use(s.Local.Value)
		}
	}
}

func (r *runner) walkExpr(e ast.Expression) {
	switch n := e.(type) {
	case nil:
		return

	case *ast.Identifier:
		r.use(n.Value)

	case *ast.PrefixExpression:
		r.walkExpr(n.Right)

	case *ast.InfixExpression:
		r.walkExpr(n.Left)
		r.walkExpr(n.Right)

	case *ast.AssignExpression:
		// A plain write to a name is not a use; compound operators read it.
		if id, ok := n.Target.(*ast.Identifier); ok {
			if n.Op != token.ASSIGN {
				r.use(id.Value)
			}
		} else {
			r.walkExpr(n.Target)
		}
		r.walkExpr(n.Value)

	case *ast.UpdateExpression:
		r.walkExpr(n.Target)

	case *ast.CallExpression:
		r.walkExpr(n.Function)
		for _, a := range n.Arguments {
			r.walkExpr(a)
		}

	case *ast.NewExpression:
		r.walkExpr(n.Callee)
		for _, a := range n.Arguments {
			r.walkExpr(a)
		}

	case *ast.MemberExpression:
		r.walkExpr(n.Object)

	case *ast.IndexExpression:
		r.walkExpr(n.Left)
		r.walkExpr(n.Index)

	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			r.walkExpr(el)
		}

	case *ast.ObjectLiteral:
		for _, p := range n.Properties {
			r.walkExpr(p.Value)
		}

	case *ast.FunctionLiteral:
		r.walkFunction(n, true)
	}
}
