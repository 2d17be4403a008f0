package lexer

import (
	"strings"
	"unicode"

	"tern/internal/token"
)

type Lexer struct {
	input string

	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination

	line int // 1-based
	col  int // 1-based column of current char
}

func New(input string) *Lexer {
	return NewAt(input, 1)
}

// NewAt starts line numbering at startLine, so tokens of a snippet that is
// embedded in a larger file report file-relative lines.
func NewAt(input string, startLine int) *Lexer {
	if startLine < 1 {
		startLine = 1
	}
	l := &Lexer{
		input: input,
		line:  startLine,
		col:   0, // readChar() will advance to col=1 for first char
	}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	// Skip spaces/tabs and comments, but NOT newlines.
	for {
		l.skipWhitespace()

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.skipBlockComment()
			continue
		}

		break
	}

	// NEWLINE is a real token (statement separator)
	if l.ch == '\n' {
		tok := l.newToken(token.NEWLINE, "\n", l.line, l.col)
		l.readChar()
		return tok
	}

	if l.ch == 0 && l.position >= len(l.input) {
		return l.newToken(token.EOF, "", l.line, l.col)
	}

	startLine, startCol := l.line, l.col

	if tt, lit, ok := l.readOperator(); ok {
		return l.newToken(tt, lit, startLine, startCol)
	}

	switch l.ch {
	case '"', '\'':
		return l.readStringToken(l.ch, startLine, startCol)
	}

	if isIdentStart(l.ch) {
		lit := l.readIdentifier()
		return l.newToken(token.LookupIdent(lit), lit, startLine, startCol)
	}

	if isDigit(l.ch) {
		lit := l.readNumber()
		return l.newToken(token.NUMBER, lit, startLine, startCol)
	}

	illegal := string(l.ch)
	tok := l.newToken(token.ILLEGAL, illegal, startLine, startCol)
	l.readChar()
	return tok
}

// Longest operators first so "===" wins over "==" and "=".
var operators = []struct {
	lit string
	typ token.Type
}{
	{"===", token.STRICT_EQ},
	{"!==", token.STRICT_NE},
	{"==", token.EQ},
	{"!=", token.NE},
	{"<=", token.LE},
	{">=", token.GE},
	{"&&", token.AND},
	{"||", token.OR},
	{"++", token.INCREMENT},
	{"--", token.DECREMENT},
	{"+=", token.PLUS_ASSIGN},
	{"-=", token.MINUS_ASSIGN},
	{"*=", token.STAR_ASSIGN},
	{"/=", token.SLASH_ASSIGN},
	{";", token.SEMICOLON},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{"[", token.LBRACKET},
	{"]", token.RBRACKET},
	{",", token.COMMA},
	{":", token.COLON},
	{".", token.DOT},
	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.STAR},
	{"/", token.SLASH},
	{"%", token.PERCENT},
	{"!", token.BANG},
	{"=", token.ASSIGN},
	{"<", token.LT},
	{">", token.GT},
}

func (l *Lexer) readOperator() (token.Type, string, bool) {
	rest := l.input[l.position:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.lit) {
			for range len(op.lit) {
				l.readChar()
			}
			return op.typ, op.lit, true
		}
	}
	return "", "", false
}

func (l *Lexer) newToken(t token.Type, lit string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Line:    line,
		Col:     col,
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	// Track line/col for current char. The previous char decides the line
	// break so that '\n' itself still reports the line it terminates.
	if l.position > 0 && l.input[l.position-1] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	l.readChar() // consume first '/'
	l.readChar() // consume second '/'

	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	// Do not consume the newline; NextToken emits it as a NEWLINE token.
}

func (l *Lexer) skipBlockComment() {
	l.readChar() // consume '/'
	l.readChar() // consume '*'

	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // consume '*'
			l.readChar() // consume '/'
			return
		}
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	if l.ch == '0' && strings.IndexByte("xXbBoO", l.peekChar()) >= 0 {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
		return l.input[start:l.position]
	}

	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readStringToken(quote byte, startLine, startCol int) token.Token {
	startIdx := l.position
	l.readChar() // move past opening quote

	var b strings.Builder
	for {
		if l.ch == 0 || l.ch == '\n' {
			return l.newToken(token.ILLEGAL, "unterminated string", startLine, startCol)
		}
		if l.ch == quote {
			break
		}

		if l.ch == '\\' {
			switch esc := l.peekChar(); esc {
			case '"', '\'', '\\':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			default:
				// Unknown escape: keep the backslash literally
				b.WriteByte('\\')
				l.readChar()
				continue
			}
			l.readChar()
			l.readChar()
			continue
		}

		b.WriteByte(l.ch)
		l.readChar()
	}

	l.readChar() // consume closing quote
	tok := l.newToken(token.STRING, b.String(), startLine, startCol)
	tok.Raw = l.input[startIdx:l.position]
	return tok
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= 128 && unicode.IsLetter(rune(ch)))
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
