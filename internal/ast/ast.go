package ast

import (
	"bytes"
	"strconv"
	"strings"

	"tern/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
	// Start is the first token of the node; the machine uses its line for
	// breakpoints and error locations.
	Start() token.Token
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Start() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].Start()
	}
	return token.Token{Line: 1, Col: 1}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

/* -------------------- Statements -------------------- */

type ExpressionStatement struct {
	Token      token.Token // first token of expression
	Expression Expression
}

func (*ExpressionStatement) statementNode()          {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Start() token.Token   { return es.Token }
func (es *ExpressionStatement) String() string {
	if es.Expression == nil {
		return ""
	}
	return es.Expression.String()
}

type VarDeclarator struct {
	Name  *Identifier
	Value Expression // nil when uninitialized
}

// VarStatement covers var, let and const; Token.Type tells them apart.
type VarStatement struct {
	Token        token.Token
	Declarations []*VarDeclarator
}

func (*VarStatement) statementNode()          {}
func (vs *VarStatement) TokenLiteral() string { return vs.Token.Literal }
func (vs *VarStatement) Start() token.Token   { return vs.Token }
func (vs *VarStatement) String() string {
	parts := make([]string, 0, len(vs.Declarations))
	for _, d := range vs.Declarations {
		if d.Value != nil {
			parts = append(parts, d.Name.String()+" = "+d.Value.String())
		} else {
			parts = append(parts, d.Name.String())
		}
	}
	return vs.Token.Literal + " " + strings.Join(parts, ", ")
}

type FunctionStatement struct {
	Token token.Token
	Fn    *FunctionLiteral
}

func (*FunctionStatement) statementNode()          {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) Start() token.Token   { return fs.Token }
func (fs *FunctionStatement) String() string       { return fs.Fn.String() }

type ReturnStatement struct {
	Token       token.Token
	ReturnValue Expression
}

func (*ReturnStatement) statementNode()          {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Start() token.Token   { return rs.Token }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return"
	}
	return "return " + rs.ReturnValue.String()
}

type BlockStatement struct {
	Token      token.Token // {
	Statements []Statement
}

func (*BlockStatement) statementNode()          {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Start() token.Token   { return bs.Token }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement // *BlockStatement or *IfStatement, may be nil
}

func (*IfStatement) statementNode()          {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Start() token.Token   { return is.Token }
func (is *IfStatement) String() string {
	out := "if (" + is.Condition.String() + ") " + is.Consequence.String()
	if is.Alternative != nil {
		out += " else " + is.Alternative.String()
	}
	return out
}

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (*WhileStatement) statementNode()          {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Start() token.Token   { return ws.Token }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

type ForStatement struct {
	Token     token.Token
	Init      Statement  // may be nil
	Condition Expression // may be nil
	Post      Expression // may be nil
	Body      *BlockStatement
}

func (*ForStatement) statementNode()          {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Start() token.Token   { return fs.Token }
func (fs *ForStatement) String() string {
	str := func(n Node) string {
		if n == nil {
			return ""
		}
		return n.String()
	}
	var cond, post string
	if fs.Condition != nil {
		cond = fs.Condition.String()
	}
	if fs.Post != nil {
		post = fs.Post.String()
	}
	var init string
	if fs.Init != nil {
		init = str(fs.Init)
	}
	return "for (" + init + "; " + cond + "; " + post + ") " + fs.Body.String()
}

type BreakStatement struct{ Token token.Token }

func (*BreakStatement) statementNode()          {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Start() token.Token   { return bs.Token }
func (*BreakStatement) String() string          { return "break" }

type ContinueStatement struct{ Token token.Token }

func (*ContinueStatement) statementNode()          {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Start() token.Token   { return cs.Token }
func (*ContinueStatement) String() string          { return "continue" }

type ThrowStatement struct {
	Token token.Token
	Value Expression
}

func (*ThrowStatement) statementNode()          {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) Start() token.Token   { return ts.Token }
func (ts *ThrowStatement) String() string       { return "throw " + ts.Value.String() }

type TryStatement struct {
	Token        token.Token
	TryBlock     *BlockStatement
	CatchName    *Identifier // may be nil (catch without binding)
	CatchBlock   *BlockStatement
	FinallyBlock *BlockStatement
}

func (*TryStatement) statementNode()          {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Start() token.Token   { return ts.Token }
func (ts *TryStatement) String() string {
	out := "try " + ts.TryBlock.String()
	if ts.CatchBlock != nil {
		out += " catch"
		if ts.CatchName != nil {
			out += " (" + ts.CatchName.String() + ")"
		}
		out += " " + ts.CatchBlock.String()
	}
	if ts.FinallyBlock != nil {
		out += " finally " + ts.FinallyBlock.String()
	}
	return out
}

type DebuggerStatement struct{ Token token.Token }

func (*DebuggerStatement) statementNode()          {}
func (ds *DebuggerStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DebuggerStatement) Start() token.Token   { return ds.Token }
func (*DebuggerStatement) String() string          { return "debugger" }

type ImportSpecifier struct {
	Imported *Identifier
	Local    *Identifier
}

// ImportStatement: import { a, b as c } from "x" | import * as ns from "x" | import "x".
type ImportStatement struct {
	Token      token.Token
	Source     *StringLiteral
	Namespace  *Identifier
	Specifiers []*ImportSpecifier
}

func (*ImportStatement) statementNode()          {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Literal }
func (is *ImportStatement) Start() token.Token   { return is.Token }
func (is *ImportStatement) String() string {
	switch {
	case is.Namespace != nil:
		return "import * as " + is.Namespace.String() + " from " + is.Source.String()
	case len(is.Specifiers) > 0:
		parts := make([]string, 0, len(is.Specifiers))
		for _, s := range is.Specifiers {
			parts = append(parts, s.Imported.String()+" as "+s.Local.String())
		}
		return "import { " + strings.Join(parts, ", ") + " } from " + is.Source.String()
	default:
		return "import " + is.Source.String()
	}
}

type ExportSpecifier struct {
	Local    *Identifier
	Exported *Identifier
}

// ExportStatement exports either a declaration or a list of local names.
type ExportStatement struct {
	Token      token.Token
	Decl       Statement // *VarStatement or *FunctionStatement
	Specifiers []*ExportSpecifier
}

func (*ExportStatement) statementNode()          {}
func (es *ExportStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExportStatement) Start() token.Token   { return es.Token }
func (es *ExportStatement) String() string {
	if es.Decl != nil {
		return "export " + es.Decl.String()
	}
	parts := make([]string, 0, len(es.Specifiers))
	for _, s := range es.Specifiers {
		parts = append(parts, s.Local.String()+" as "+s.Exported.String())
	}
	return "export { " + strings.Join(parts, ", ") + " }"
}

// ExportedNames lists the names an export statement binds, in source order,
// paired with the local binding they read from.
func (es *ExportStatement) ExportedNames() []ExportSpecifier {
	var out []ExportSpecifier
	switch d := es.Decl.(type) {
	case *VarStatement:
		for _, decl := range d.Declarations {
			out = append(out, ExportSpecifier{Local: decl.Name, Exported: decl.Name})
		}
	case *FunctionStatement:
		if d.Fn.Name != nil {
			out = append(out, ExportSpecifier{Local: d.Fn.Name, Exported: d.Fn.Name})
		}
	}
	for _, s := range es.Specifiers {
		out = append(out, *s)
	}
	return out
}

/* -------------------- Expressions -------------------- */

type Identifier struct {
	Token token.Token
	Value string
}

func (*Identifier) expressionNode()        {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Start() token.Token   { return i.Token }
func (i *Identifier) String() string       { return i.Value }

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (*NumberLiteral) expressionNode()        {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) Start() token.Token   { return n.Token }
func (n *NumberLiteral) String() string       { return n.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (*StringLiteral) expressionNode()        {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) Start() token.Token   { return s.Token }
func (s *StringLiteral) String() string       { return strconv.Quote(s.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (*BooleanLiteral) expressionNode()        {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) Start() token.Token   { return b.Token }
func (b *BooleanLiteral) String() string       { return b.Token.Literal }

type NullLiteral struct{ Token token.Token }

func (*NullLiteral) expressionNode()        {}
func (n *NullLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NullLiteral) Start() token.Token   { return n.Token }
func (*NullLiteral) String() string         { return "null" }

type UndefinedLiteral struct{ Token token.Token }

func (*UndefinedLiteral) expressionNode()        {}
func (u *UndefinedLiteral) TokenLiteral() string { return u.Token.Literal }
func (u *UndefinedLiteral) Start() token.Token   { return u.Token }
func (*UndefinedLiteral) String() string         { return "undefined" }

type ThisExpression struct{ Token token.Token }

func (*ThisExpression) expressionNode()        {}
func (t *ThisExpression) TokenLiteral() string { return t.Token.Literal }
func (t *ThisExpression) Start() token.Token   { return t.Token }
func (*ThisExpression) String() string         { return "this" }

// MetaProperty is import.meta.
type MetaProperty struct{ Token token.Token }

func (*MetaProperty) expressionNode()        {}
func (m *MetaProperty) TokenLiteral() string { return m.Token.Literal }
func (m *MetaProperty) Start() token.Token   { return m.Token }
func (*MetaProperty) String() string         { return "import.meta" }

type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (*ArrayLiteral) expressionNode()        {}
func (a *ArrayLiteral) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLiteral) Start() token.Token   { return a.Token }
func (a *ArrayLiteral) String() string {
	parts := make([]string, 0, len(a.Elements))
	for _, e := range a.Elements {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type Property struct {
	KeyToken token.Token
	Key      string
	Value    Expression
}

type ObjectLiteral struct {
	Token      token.Token
	Properties []*Property
}

func (*ObjectLiteral) expressionNode()        {}
func (o *ObjectLiteral) TokenLiteral() string { return o.Token.Literal }
func (o *ObjectLiteral) Start() token.Token   { return o.Token }
func (o *ObjectLiteral) String() string {
	parts := make([]string, 0, len(o.Properties))
	for _, p := range o.Properties {
		parts = append(parts, strconv.Quote(p.Key)+": "+p.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type FunctionLiteral struct {
	Token      token.Token
	Name       *Identifier // nil for anonymous functions
	Parameters []*Identifier
	Body       *BlockStatement
}

func (*FunctionLiteral) expressionNode()        {}
func (f *FunctionLiteral) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionLiteral) Start() token.Token   { return f.Token }
func (f *FunctionLiteral) String() string {
	params := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}
	name := ""
	if f.Name != nil {
		name = " " + f.Name.Value
	}
	return "function" + name + "(" + strings.Join(params, ", ") + ") " + f.Body.String()
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (*PrefixExpression) expressionNode()        {}
func (p *PrefixExpression) TokenLiteral() string { return p.Token.Literal }
func (p *PrefixExpression) Start() token.Token   { return p.Token }
func (p *PrefixExpression) String() string {
	if p.Operator == "typeof" {
		return "(typeof " + p.Right.String() + ")"
	}
	return "(" + p.Operator + p.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (*InfixExpression) expressionNode()        {}
func (i *InfixExpression) TokenLiteral() string { return i.Token.Literal }
func (i *InfixExpression) Start() token.Token   { return i.Left.Start() }
func (i *InfixExpression) String() string {
	return "(" + i.Left.String() + " " + i.Operator + " " + i.Right.String() + ")"
}

// AssignExpression: Target is an *Identifier, *MemberExpression or *IndexExpression.
type AssignExpression struct {
	Token  token.Token // operator token
	Op     token.Type
	Target Expression
	Value  Expression
}

func (*AssignExpression) expressionNode()        {}
func (a *AssignExpression) TokenLiteral() string { return a.Token.Literal }
func (a *AssignExpression) Start() token.Token   { return a.Target.Start() }
func (a *AssignExpression) String() string {
	return a.Target.String() + " " + a.Token.Literal + " " + a.Value.String()
}

// UpdateExpression is ++x, --x, x++ or x--.
type UpdateExpression struct {
	Token    token.Token // operator
	Operator string
	Target   Expression
	Prefix   bool
}

func (*UpdateExpression) expressionNode()        {}
func (u *UpdateExpression) TokenLiteral() string { return u.Token.Literal }
func (u *UpdateExpression) Start() token.Token {
	if u.Prefix {
		return u.Token
	}
	return u.Target.Start()
}
func (u *UpdateExpression) String() string {
	if u.Prefix {
		return "(" + u.Operator + u.Target.String() + ")"
	}
	return "(" + u.Target.String() + u.Operator + ")"
}

type CallExpression struct {
	Token     token.Token // (
	Function  Expression
	Arguments []Expression
}

func (*CallExpression) expressionNode()        {}
func (c *CallExpression) TokenLiteral() string { return c.Token.Literal }
func (c *CallExpression) Start() token.Token   { return c.Function.Start() }
func (c *CallExpression) String() string {
	return c.Function.String() + "(" + joinExpressions(c.Arguments) + ")"
}

type NewExpression struct {
	Token     token.Token
	Callee    Expression
	Arguments []Expression
}

func (*NewExpression) expressionNode()        {}
func (n *NewExpression) TokenLiteral() string { return n.Token.Literal }
func (n *NewExpression) Start() token.Token   { return n.Token }
func (n *NewExpression) String() string {
	return "new " + n.Callee.String() + "(" + joinExpressions(n.Arguments) + ")"
}

type MemberExpression struct {
	Token    token.Token // .
	Object   Expression
	Property *Identifier
}

func (*MemberExpression) expressionNode()        {}
func (m *MemberExpression) TokenLiteral() string { return m.Token.Literal }
func (m *MemberExpression) Start() token.Token   { return m.Object.Start() }
func (m *MemberExpression) String() string {
	return m.Object.String() + "." + m.Property.String()
}

type IndexExpression struct {
	Token token.Token // [
	Left  Expression
	Index Expression
}

func (*IndexExpression) expressionNode()        {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Start() token.Token   { return ie.Left.Start() }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

func joinExpressions(es []Expression) string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
