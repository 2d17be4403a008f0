package parser

import (
	"fmt"

	"tern/internal/ast"
	"tern/internal/diag"
	"tern/internal/lexer"
	"tern/internal/numlit"
	"tern/internal/token"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	kind   Kind
	errors []string
	diags  []diag.Diagnostic

	curToken  token.Token
	peekToken token.Token

	// open brackets seen by the token stream; newlines are dropped while
	// the innermost one is ( or [
	groups []token.Type

	funcDepth  int
	loopDepth  int
	blockDepth int
	exported   map[string]bool

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

/* -------------------- precedence -------------------- */

const (
	_ int = iota
	LOWEST
	ASSIGNPREC  // = += -= *= /=
	ORPREC      // ||
	ANDPREC     // &&
	EQUALS      // == != === !==
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X, !X, typeof X
	CALL        // fn(X)
	MEMBER      // a.b, a[b]
)

var precedences = map[token.Type]int{
	token.ASSIGN:       ASSIGNPREC,
	token.PLUS_ASSIGN:  ASSIGNPREC,
	token.MINUS_ASSIGN: ASSIGNPREC,
	token.STAR_ASSIGN:  ASSIGNPREC,
	token.SLASH_ASSIGN: ASSIGNPREC,
	token.OR:           ORPREC,
	token.AND:          ANDPREC,
	token.EQ:           EQUALS,
	token.NE:           EQUALS,
	token.STRICT_EQ:    EQUALS,
	token.STRICT_NE:    EQUALS,
	token.LT:           LESSGREATER,
	token.LE:           LESSGREATER,
	token.GT:           LESSGREATER,
	token.GE:           LESSGREATER,
	token.PLUS:         SUM,
	token.MINUS:        SUM,
	token.STAR:         PRODUCT,
	token.SLASH:        PRODUCT,
	token.PERCENT:      PRODUCT,
	token.LPAREN:       CALL,
	token.INCREMENT:    CALL,
	token.DECREMENT:    CALL,
	token.LBRACKET:     MEMBER,
	token.DOT:          MEMBER,
}

/* -------------------- constructor -------------------- */

// New returns a parser for a top-level program.
func New(l *lexer.Lexer) *Parser {
	return NewFor(l, ProgramKind)
}

// NewFor returns a parser for the given unit kind. Import and export
// declarations are accepted only by ModuleKind parsers.
func NewFor(l *lexer.Lexer, kind Kind) *Parser {
	p := &Parser{
		l:              l,
		kind:           kind,
		errors:         []string{},
		diags:          []diag.Diagnostic{},
		exported:       map[string]bool{},
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
	}

	// read two tokens, so cur and peek are set
	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.UNDEFINED, p.parseUndefinedLiteral)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.TYPEOF, p.parsePrefixExpression)
	p.registerPrefix(token.NEW, p.parseNewExpression)
	p.registerPrefix(token.INCREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.DECREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.IMPORT, p.parseImportMeta)

	for _, tt := range []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NE, token.STRICT_EQ, token.STRICT_NE,
		token.LT, token.LE, token.GT, token.GE,
		token.AND, token.OR,
	} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	for _, tt := range []token.Type{
		token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
	} {
		p.registerInfix(tt, p.parseAssignExpression)
	}
	p.registerInfix(token.INCREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.DECREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)

	return p
}

func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }
func (p *Parser) Errors() []string               { return p.errors }

/* -------------------- program -------------------- */

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for p.curToken.Type != token.EOF {
		if p.isSeparator(p.curToken.Type) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}

		p.nextToken()
	}

	return program
}

/* -------------------- statements -------------------- */

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.VAR, token.LET, token.CONST:
		return p.endSimple(p.parseVarStatement())
	case token.RETURN:
		return p.endSimple(p.parseReturnStatement())
	case token.THROW:
		return p.endSimple(p.parseThrowStatement())
	case token.BREAK, token.CONTINUE:
		return p.endSimple(p.parseJumpStatement())
	case token.DEBUGGER:
		return p.endSimple(&ast.DebuggerStatement{Token: p.curToken})
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.IMPORT:
		if p.peekToken.Type == token.DOT {
			return p.endSimple(p.parseExpressionStatement())
		}
		return p.endSimple(p.parseImportStatement())
	case token.EXPORT:
		return p.parseExportStatement()
	default:
		return p.endSimple(p.parseExpressionStatement())
	}
}

// endSimple checks that a simple statement is followed by a separator, a
// closing brace or the end of input.
func (p *Parser) endSimple(stmt ast.Statement) ast.Statement {
	if stmt == nil {
		return nil
	}
	switch p.peekToken.Type {
	case token.NEWLINE, token.SEMICOLON, token.RBRACE, token.EOF:
		return stmt
	}
	p.unexpected(p.peekToken)
	return nil
}

func (p *Parser) parseFunctionStatement() ast.Statement {
	stmt := &ast.FunctionStatement{Token: p.curToken}
	if p.peekToken.Type != token.IDENT {
		p.errorAt(p.peekToken, "function statements require a function name")
		return nil
	}
	fn := p.parseFunctionLiteral()
	if fn == nil {
		return nil
	}
	stmt.Fn = fn.(*ast.FunctionLiteral)
	return stmt
}

func (p *Parser) parseVarStatement() ast.Statement {
	stmt := &ast.VarStatement{Token: p.curToken}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		decl := &ast.VarDeclarator{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
		if p.peekToken.Type == token.ASSIGN {
			p.nextToken() // '='
			p.nextToken()
			p.skipNewlines()
			decl.Value = p.parseExpression(LOWEST)
			if decl.Value == nil {
				return nil
			}
		} else if stmt.Token.Type == token.CONST {
			p.errorAt(p.peekToken, "missing initializer in const declaration")
			return nil
		}
		stmt.Declarations = append(stmt.Declarations, decl)

		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.funcDepth == 0 {
		p.errorAt(p.curToken, "illegal return statement")
		return nil
	}
	if p.peekIsTerminator() {
		return stmt
	}
	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if stmt.ReturnValue == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	stmt := &ast.ThrowStatement{Token: p.curToken}
	if p.peekToken.Type == token.NEWLINE {
		p.errorAt(p.peekToken, "illegal newline after throw")
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseJumpStatement() ast.Statement {
	tok := p.curToken
	if p.loopDepth == 0 {
		p.errorAt(tok, fmt.Sprintf("illegal %s statement", tok.Literal))
		return nil
	}
	if tok.Type == token.BREAK {
		return &ast.BreakStatement{Token: tok}
	}
	return &ast.ContinueStatement{Token: tok}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil
	}
	stmt.Consequence = p.parseBody()
	if stmt.Consequence == nil {
		return nil
	}

	// Optional else, possibly on the next line.
	p.skipSeparatorsPeekIf(token.ELSE)
	if p.peekToken.Type == token.ELSE {
		p.nextToken() // move to ELSE
		p.skipSeparatorsPeek()
		if p.peekToken.Type == token.IF {
			p.nextToken()
			alt := p.parseIfStatement()
			if alt == nil {
				return nil
			}
			stmt.Alternative = alt
			return stmt
		}
		alt := p.parseBody()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
	}

	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil
	}

	p.loopDepth++
	stmt.Body = p.parseBody()
	p.loopDepth--
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken() // first token inside '('

	// init
	if p.curToken.Type != token.SEMICOLON {
		switch p.curToken.Type {
		case token.VAR, token.LET, token.CONST:
			stmt.Init = p.parseVarStatement()
		default:
			stmt.Init = p.parseExpressionStatement()
		}
		if stmt.Init == nil {
			return nil
		}
		if !p.expectPeekNoSkip(token.SEMICOLON) {
			return nil
		}
	}
	p.nextToken() // condition or ';'

	// cond
	if p.curToken.Type != token.SEMICOLON {
		stmt.Condition = p.parseExpression(LOWEST)
		if stmt.Condition == nil {
			return nil
		}
		if !p.expectPeekNoSkip(token.SEMICOLON) {
			return nil
		}
	}
	p.nextToken() // post or ')'

	// post
	if p.curToken.Type != token.RPAREN {
		stmt.Post = p.parseExpression(LOWEST)
		if stmt.Post == nil {
			return nil
		}
		if !p.expectPeekNoSkip(token.RPAREN) {
			return nil
		}
	}

	p.loopDepth++
	stmt.Body = p.parseBody()
	p.loopDepth--
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseTryStatement() ast.Statement {
	stmt := &ast.TryStatement{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.TryBlock = p.parseBlockStatement()

	p.skipSeparatorsPeekIf(token.CATCH)
	if p.peekToken.Type == token.CATCH {
		p.nextToken()
		if p.peekToken.Type == token.LPAREN {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.CatchName = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.CatchBlock = p.parseBlockStatement()
	}

	p.skipSeparatorsPeekIf(token.FINALLY)
	if p.peekToken.Type == token.FINALLY {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.FinallyBlock = p.parseBlockStatement()
	}

	if stmt.CatchBlock == nil && stmt.FinallyBlock == nil {
		p.errorAt(p.peekToken, "missing catch or finally after try")
		return nil
	}
	return stmt
}

// parseBody parses the body of if/while/for: a block, or a single
// statement which is wrapped in a block.
func (p *Parser) parseBody() *ast.BlockStatement {
	p.skipSeparatorsPeekIf(token.LBRACE)
	if p.peekToken.Type == token.LBRACE {
		p.nextToken()
		return p.parseBlockStatement()
	}
	p.nextToken()
	if p.isTerminator(p.curToken.Type) {
		p.unexpected(p.curToken)
		return nil
	}
	tok := p.curToken
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	return &ast.BlockStatement{Token: tok, Statements: []ast.Statement{stmt}}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	// curToken is '{'
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}
	p.blockDepth++
	defer func() { p.blockDepth-- }()

	p.nextToken()

	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		if p.isSeparator(p.curToken.Type) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}

		p.nextToken()
	}

	if p.curToken.Type != token.RBRACE {
		p.unexpected(p.curToken)
	}
	return block
}

/* -------------------- modules -------------------- */

func (p *Parser) checkModuleItem(tok token.Token) bool {
	switch {
	case p.kind == EvalKind:
		p.errorCode(tok, diag.CodeEvalStatement, fmt.Sprintf("%s declarations are not allowed in evaluated code", tok.Literal))
		return false
	case p.kind != ModuleKind:
		p.errorCode(tok, diag.CodeModuleSyntax, fmt.Sprintf("%s declarations may only appear in modules", tok.Literal))
		return false
	case p.blockDepth > 0 || p.funcDepth > 0:
		p.errorCode(tok, diag.CodeModuleSyntax, fmt.Sprintf("%s declarations may only appear at top level", tok.Literal))
		return false
	}
	return true
}

func (p *Parser) parseImportStatement() ast.Statement {
	stmt := &ast.ImportStatement{Token: p.curToken}
	if !p.checkModuleItem(p.curToken) {
		return nil
	}

	switch p.peekToken.Type {
	case token.STRING:
		p.nextToken()
		stmt.Source = &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		return stmt
	case token.STAR:
		p.nextToken()
		if !p.expectContextual(token.AS) || !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Namespace = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	case token.LBRACE:
		p.nextToken()
		for {
			p.skipSeparatorsPeek()
			if p.peekToken.Type == token.RBRACE {
				break
			}
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			spec := &ast.ImportSpecifier{Imported: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
			spec.Local = spec.Imported
			if token.IsContextual(p.peekToken, token.AS) {
				p.nextToken()
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				spec.Local = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			}
			stmt.Specifiers = append(stmt.Specifiers, spec)
			p.skipSeparatorsPeek()
			if p.peekToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
	default:
		p.unexpected(p.peekToken)
		return nil
	}

	if !p.expectContextual(token.FROM) || !p.expectPeekNoSkip(token.STRING) {
		return nil
	}
	stmt.Source = &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	return stmt
}

func (p *Parser) parseExportStatement() ast.Statement {
	stmt := &ast.ExportStatement{Token: p.curToken}
	if !p.checkModuleItem(p.curToken) {
		return nil
	}

	switch p.peekToken.Type {
	case token.VAR, token.LET, token.CONST:
		p.nextToken()
		decl := p.endSimple(p.parseVarStatement())
		if decl == nil {
			return nil
		}
		stmt.Decl = decl
	case token.FUNCTION:
		p.nextToken()
		decl := p.parseFunctionStatement()
		if decl == nil {
			return nil
		}
		stmt.Decl = decl
	case token.LBRACE:
		p.nextToken()
		for {
			p.skipSeparatorsPeek()
			if p.peekToken.Type == token.RBRACE {
				break
			}
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			spec := &ast.ExportSpecifier{Local: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
			spec.Exported = spec.Local
			if token.IsContextual(p.peekToken, token.AS) {
				p.nextToken()
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				spec.Exported = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			}
			stmt.Specifiers = append(stmt.Specifiers, spec)
			p.skipSeparatorsPeek()
			if p.peekToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		if p.endSimple(stmt) == nil {
			return nil
		}
	default:
		p.unexpected(p.peekToken)
		return nil
	}

	for _, name := range stmt.ExportedNames() {
		if p.exported[name.Exported.Value] {
			p.errorCode(name.Exported.Token, diag.CodeModuleSyntax, fmt.Sprintf("duplicate export %q", name.Exported.Value))
			return nil
		}
		p.exported[name.Exported.Value] = true
	}
	return stmt
}

/* -------------------- expressions (Pratt) -------------------- */

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.isTerminator(p.curToken.Type) {
		p.unexpected(p.curToken)
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected(p.curToken)
		return nil
	}

	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekIsTerminator() && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken() // advance to infix operator (or '(' for call)
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	v, err := numlit.Parse(p.curToken.Literal)
	if err != nil {
		p.errorAt(p.curToken, fmt.Sprintf("invalid number literal %q", p.curToken.Literal))
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: v}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Type == token.TRUE}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	return &ast.UndefinedLiteral{Token: p.curToken}
}

func (p *Parser) parseThis() ast.Expression {
	return &ast.ThisExpression{Token: p.curToken}
}

func (p *Parser) parseImportMeta() ast.Expression {
	tok := p.curToken
	if !p.expectPeekNoSkip(token.DOT) {
		return nil
	}
	if p.peekToken.Type != token.IDENT || p.peekToken.Literal != "meta" {
		p.unexpected(p.peekToken)
		return nil
	}
	p.nextToken()
	if p.kind != ModuleKind {
		p.errorCode(tok, diag.CodeModuleSyntax, "import.meta may only appear in modules")
		return nil
	}
	return &ast.MetaProperty{Token: tok}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	// curToken is '('
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	exp := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	exp.Right = p.parseExpression(PREFIX)
	if exp.Right == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	exp := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	prec := p.curPrecedence()
	p.nextToken()
	p.skipNewlines()
	exp.Right = p.parseExpression(prec)
	if exp.Right == nil {
		return nil
	}
	return exp
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	switch left.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
	default:
		p.errorAt(p.curToken, "invalid assignment target")
		return nil
	}
	exp := &ast.AssignExpression{Token: p.curToken, Op: p.curToken.Type, Target: left}
	p.nextToken()
	p.skipNewlines()
	// right-associative: a = b = c
	exp.Value = p.parseExpression(ASSIGNPREC - 1)
	if exp.Value == nil {
		return nil
	}
	return exp
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	exp := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Prefix: true}
	p.nextToken()
	exp.Target = p.parseExpression(PREFIX)
	if exp.Target == nil || !p.checkUpdateTarget(exp.Target) {
		return nil
	}
	return exp
}

func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	exp := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Target: left}
	if !p.checkUpdateTarget(left) {
		return nil
	}
	return exp
}

func (p *Parser) checkUpdateTarget(target ast.Expression) bool {
	switch target.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
		return true
	}
	p.errorAt(target.Start(), "invalid update target")
	return false
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	// curToken is '('
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	exp.Arguments = args
	return exp
}

func (p *Parser) parseNewExpression() ast.Expression {
	exp := &ast.NewExpression{Token: p.curToken}
	p.nextToken()
	// member accesses bind to the callee, the first argument list to new
	exp.Callee = p.parseExpression(CALL)
	if exp.Callee == nil {
		return nil
	}
	if p.peekToken.Type == token.LPAREN {
		p.nextToken()
		args, ok := p.parseExpressionList(token.RPAREN)
		if !ok {
			return nil
		}
		exp.Arguments = args
	}
	return exp
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	exp := &ast.MemberExpression{Token: p.curToken, Object: left}

	p.nextToken()
	if !isPropertyName(p.curToken) {
		p.unexpected(p.curToken)
		return nil
	}
	exp.Property = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return exp
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}
	if !p.expectPeekNoSkip(token.RBRACKET) {
		return nil
	}
	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	lit := &ast.ArrayLiteral{Token: p.curToken}
	elems, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	lit.Elements = elems
	return lit
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	lit := &ast.ObjectLiteral{Token: p.curToken, Properties: []*ast.Property{}}

	for {
		p.skipSeparatorsPeek()
		if p.peekToken.Type == token.RBRACE {
			break
		}
		p.nextToken()
		keyTok := p.curToken
		if keyTok.Type != token.STRING && keyTok.Type != token.NUMBER && !isPropertyName(keyTok) {
			p.unexpected(keyTok)
			return nil
		}
		key := keyTok.Literal
		if keyTok.Type == token.NUMBER {
			if v, err := numlit.Parse(key); err == nil {
				key = numlit.Format(v)
			}
		}
		prop := &ast.Property{KeyToken: keyTok, Key: key}

		if keyTok.Type == token.IDENT && (p.peekToken.Type == token.COMMA || p.peekToken.Type == token.RBRACE || p.peekToken.Type == token.NEWLINE) {
			// shorthand {a}
			prop.Value = &ast.Identifier{Token: keyTok, Value: keyTok.Literal}
		} else {
			if !p.expectPeekNoSkip(token.COLON) {
				return nil
			}
			p.nextToken()
			p.skipNewlines()
			prop.Value = p.parseExpression(LOWEST)
			if prop.Value == nil {
				return nil
			}
		}
		lit.Properties = append(lit.Properties, prop)

		p.skipSeparatorsPeekIf(token.COMMA, token.RBRACE)
		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if p.peekToken.Type == token.IDENT {
		p.nextToken()
		lit.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	if !p.expectPeekNoSkip(token.LPAREN) {
		return nil
	}
	params, ok := p.parseFunctionParameters()
	if !ok {
		return nil
	}
	lit.Parameters = params

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	// loops do not extend into nested functions
	outerLoops := p.loopDepth
	p.loopDepth = 0
	p.funcDepth++
	lit.Body = p.parseBlockStatement()
	p.funcDepth--
	p.loopDepth = outerLoops

	if p.curToken.Type != token.RBRACE {
		return nil
	}
	return lit
}

func (p *Parser) parseFunctionParameters() ([]*ast.Identifier, bool) {
	params := []*ast.Identifier{}
	seen := map[string]bool{}

	// curToken is '('
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
		return params, true
	}

	for {
		if !p.expectPeekNoSkip(token.IDENT) {
			return nil, false
		}
		if seen[p.curToken.Literal] {
			p.errorAt(p.curToken, fmt.Sprintf("duplicate parameter name %q", p.curToken.Literal))
			return nil, false
		}
		seen[p.curToken.Literal] = true
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})

		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}

	if !p.expectPeekNoSkip(token.RPAREN) {
		return nil, false
	}
	return params, true
}

// parseExpressionList parses comma separated expressions up to end. A
// trailing comma is accepted.
func (p *Parser) parseExpressionList(end token.Type) ([]ast.Expression, bool) {
	list := []ast.Expression{}

	for p.peekToken.Type != end {
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil, false
		}
		list = append(list, exp)

		if p.peekToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}

	if !p.expectPeekNoSkip(end) {
		return nil, false
	}
	return list, true
}

/* -------------------- helpers -------------------- */

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.fetch()
}

func (p *Parser) fetch() token.Token {
	for {
		tok := p.l.NextToken()
		if tok.Type == token.NEWLINE && len(p.groups) > 0 {
			if top := p.groups[len(p.groups)-1]; top == token.LPAREN || top == token.LBRACKET {
				continue
			}
		}
		switch tok.Type {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			p.groups = append(p.groups, tok.Type)
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			if len(p.groups) > 0 {
				p.groups = p.groups[:len(p.groups)-1]
			}
		}
		return tok
	}
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.Type, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func (p *Parser) expectPeek(t token.Type) bool {
	p.skipSeparatorsPeek()
	return p.expectPeekNoSkip(t)
}

func (p *Parser) expectPeekNoSkip(t token.Type) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) expectContextual(t token.Type) bool {
	if token.IsContextual(p.peekToken, t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	p.errorCode(tok, diag.CodeSyntax, msg)
}

func (p *Parser) errorCode(tok token.Token, code, msg string) {
	length := 1
	if tok.Literal != "" && tok.Type != token.NEWLINE {
		length = len([]rune(tok.Literal))
	}
	p.diags = append(p.diags, diag.Diagnostic{
		Code:     code,
		Message:  msg,
		Severity: diag.SeverityError,
		Range: diag.Range{
			Line:   tok.Line,
			Col:    tok.Col,
			Length: length,
		},
	})
	p.errors = append(p.errors, msg)
}

func (p *Parser) unexpected(tok token.Token) {
	switch tok.Type {
	case token.EOF:
		p.errorAt(tok, "unexpected end of input")
	case token.ILLEGAL:
		if tok.Literal == "unterminated string" {
			p.errorAt(tok, tok.Literal)
			return
		}
		p.errorAt(tok, fmt.Sprintf("unexpected character %q", tok.Literal))
	case token.NEWLINE:
		p.errorAt(tok, "unexpected line break")
	default:
		p.errorAt(tok, fmt.Sprintf("unexpected token %q", tok.Literal))
	}
}

func (p *Parser) peekError(t token.Type) {
	if p.peekToken.Type == token.EOF || p.peekToken.Type == token.ILLEGAL {
		p.unexpected(p.peekToken)
		return
	}
	msg := fmt.Sprintf("expected %s, got %q", describe(t), p.peekToken.Literal)
	if p.peekToken.Type == token.NEWLINE {
		msg = fmt.Sprintf("expected %s, got line break", describe(t))
	}
	p.errorAt(p.peekToken, msg)
}

func describe(t token.Type) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.STRING:
		return "string literal"
	case token.FROM:
		return `"from"`
	case token.AS:
		return `"as"`
	}
	return fmt.Sprintf("%q", string(t))
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) isSeparator(t token.Type) bool {
	return t == token.NEWLINE || t == token.SEMICOLON
}

func (p *Parser) skipSeparatorsPeek() {
	for p.peekToken.Type == token.NEWLINE || p.peekToken.Type == token.SEMICOLON {
		p.nextToken()
	}
}

// skipSeparatorsPeekIf skips newlines ahead only when the first token after
// them is one of want, so "if (a) {}\nelse {}" still finds its else while a
// following unrelated statement keeps its separator.
func (p *Parser) skipSeparatorsPeekIf(want ...token.Type) {
	if !p.isSeparator(p.peekToken.Type) {
		return
	}
	save := *p.l
	saveGroups := append([]token.Type(nil), p.groups...)
	next := p.fetch()
	for p.isSeparator(next.Type) {
		next = p.fetch()
	}
	*p.l = save
	p.groups = saveGroups
	for _, t := range want {
		if next.Type == t {
			p.skipSeparatorsPeek()
			return
		}
	}
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == token.NEWLINE {
		p.nextToken()
	}
}

func (p *Parser) isTerminator(t token.Type) bool {
	return t == token.NEWLINE || t == token.SEMICOLON || t == token.RBRACE ||
		t == token.RPAREN || t == token.RBRACKET || t == token.COMMA || t == token.EOF
}

func (p *Parser) peekIsTerminator() bool {
	return p.isTerminator(p.peekToken.Type)
}

// isPropertyName accepts identifiers and keywords after '.' and as object keys.
func isPropertyName(tok token.Token) bool {
	if tok.Type == token.IDENT {
		return true
	}
	return tok.Literal != "" && token.LookupIdent(tok.Literal) == tok.Type
}
