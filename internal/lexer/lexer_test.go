package lexer

import (
	"testing"

	"tern/internal/token"
)

func TestLexer_FunctionProgram(t *testing.T) {
	input := `function add(a, b) {
  return a + b
}

var x = add(2, 3.5)
if (x >= 3 && x !== 4) { print("big") }`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.FUNCTION, "function"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.NEWLINE, "\n"},

		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.NEWLINE, "\n"},

		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},
		{token.NEWLINE, "\n"},

		{token.VAR, "var"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.NUMBER, "2"},
		{token.COMMA, ","},
		{token.NUMBER, "3.5"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},

		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.GE, ">="},
		{token.NUMBER, "3"},
		{token.AND, "&&"},
		{token.IDENT, "x"},
		{token.STRICT_NE, "!=="},
		{token.NUMBER, "4"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "print"},
		{token.LPAREN, "("},
		{token.STRING, "big"},
		{token.RPAREN, ")"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - type wrong. expected=%q, got=%q (%q)", i, tt.typ, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.lit, tok.Literal)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewAt("a\n  bb /* c */ d", 10)

	want := []struct {
		typ  token.Type
		line int
		col  int
	}{
		{token.IDENT, 10, 1},
		{token.NEWLINE, 10, 2},
		{token.IDENT, 11, 3},
		{token.IDENT, 11, 14},
		{token.EOF, 11, 0},
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ || tok.Line != w.line {
			t.Fatalf("tests[%d] - expected %s at line %d, got %s at line %d", i, w.typ, w.line, tok.Type, tok.Line)
		}
		if w.typ != token.EOF && tok.Col != w.col {
			t.Fatalf("tests[%d] - expected col %d, got %d", i, w.col, tok.Col)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	l := New(`'it\'s' "a\tb" "open`)

	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "it's" {
		t.Fatalf("unexpected token %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "a\tb" {
		t.Fatalf("unexpected token %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for unterminated string, got %+v", tok)
	}
}
