package token

type Type string

type Token struct {
	Type    Type
	Literal string
	// Raw preserves the original lexeme when Literal is normalized (e.g., strings).
	Raw  string
	Line int
	Col  int
}

const (
	// Special
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Separators
	NEWLINE   Type = "NEWLINE"
	SEMICOLON Type = ";"

	// Identifiers + literals
	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER"
	STRING Type = "STRING"

	// Keywords
	FUNCTION  Type = "FUNCTION"
	VAR       Type = "VAR"
	LET       Type = "LET"
	CONST     Type = "CONST"
	RETURN    Type = "RETURN"
	BREAK     Type = "BREAK"
	CONTINUE  Type = "CONTINUE"
	IF        Type = "IF"
	ELSE      Type = "ELSE"
	WHILE     Type = "WHILE"
	FOR       Type = "FOR"
	TRUE      Type = "TRUE"
	FALSE     Type = "FALSE"
	NULL      Type = "NULL"
	UNDEFINED Type = "UNDEFINED"
	THIS      Type = "THIS"
	NEW       Type = "NEW"
	TYPEOF    Type = "TYPEOF"
	TRY       Type = "TRY"
	CATCH     Type = "CATCH"
	FINALLY   Type = "FINALLY"
	THROW     Type = "THROW"
	DEBUGGER  Type = "DEBUGGER"
	IMPORT    Type = "IMPORT"
	EXPORT    Type = "EXPORT"
	FROM      Type = "FROM"
	AS        Type = "AS"

	// Operators
	ASSIGN       Type = "="
	PLUS_ASSIGN  Type = "+="
	MINUS_ASSIGN Type = "-="
	STAR_ASSIGN  Type = "*="
	SLASH_ASSIGN Type = "/="
	INCREMENT    Type = "++"
	DECREMENT    Type = "--"
	PLUS         Type = "+"
	MINUS        Type = "-"
	STAR         Type = "*"
	SLASH        Type = "/"
	PERCENT      Type = "%"
	BANG         Type = "!"
	AND          Type = "&&"
	OR           Type = "||"

	EQ        Type = "=="
	NE        Type = "!="
	STRICT_EQ Type = "==="
	STRICT_NE Type = "!=="
	LT        Type = "<"
	LE        Type = "<="
	GT        Type = ">"
	GE        Type = ">="

	// Delimiters
	COMMA    Type = ","
	COLON    Type = ":"
	DOT      Type = "."
	LPAREN   Type = "("
	RPAREN   Type = ")"
	LBRACKET Type = "["
	RBRACKET Type = "]"
	LBRACE   Type = "{"
	RBRACE   Type = "}"
)

var keywords = map[string]Type{
	"function":  FUNCTION,
	"var":       VAR,
	"let":       LET,
	"const":     CONST,
	"return":    RETURN,
	"break":     BREAK,
	"continue":  CONTINUE,
	"if":        IF,
	"else":      ELSE,
	"while":     WHILE,
	"for":       FOR,
	"true":      TRUE,
	"false":     FALSE,
	"null":      NULL,
	"undefined": UNDEFINED,
	"this":      THIS,
	"new":       NEW,
	"typeof":    TYPEOF,
	"try":       TRY,
	"catch":     CATCH,
	"finally":   FINALLY,
	"throw":     THROW,
	"debugger":  DEBUGGER,
	"import":    IMPORT,
	"export":    EXPORT,
}

// Contextual keywords: only meaningful inside import/export clauses.
var contextual = map[string]Type{
	"from": FROM,
	"as":   AS,
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsContextual reports whether ident is the contextual keyword t.
func IsContextual(tok Token, t Type) bool {
	return tok.Type == IDENT && contextual[tok.Literal] == t
}
