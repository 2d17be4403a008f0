package parser

import (
	"fmt"

	"tern/internal/ast"
	"tern/internal/diag"
	"tern/internal/lexer"
)

// Kind selects the grammar a source unit is parsed with.
type Kind int

const (
	// ProgramKind is a top-level script.
	ProgramKind Kind = iota
	// EvalKind is a snippet evaluated inside an existing scope, such as a
	// paused call frame.
	EvalKind
	// ModuleKind admits import and export declarations and import.meta.
	ModuleKind
)

func (k Kind) String() string {
	switch k {
	case EvalKind:
		return "eval"
	case ModuleKind:
		return "module"
	default:
		return "program"
	}
}

// Unit is a successfully parsed source unit.
type Unit struct {
	Kind      Kind
	SourceURL string
	StartLine int
	Program   *ast.Program
}

// SyntaxError describes the first error found while parsing a unit.
type SyntaxError struct {
	SourceURL string
	Line      int
	Column    int
	Message   string
	Code      string
}

func (e *SyntaxError) Error() string {
	url := e.SourceURL
	if url == "" {
		url = "<anonymous>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", url, e.Line, e.Column, e.Message)
}

// Parse parses source as a unit of the given kind. startingLine is the line
// number of the first line of source; values below 1 are treated as 1.
func Parse(kind Kind, sourceURL string, startingLine int, source string) (*Unit, *SyntaxError) {
	if startingLine < 1 {
		startingLine = 1
	}
	p := NewFor(lexer.NewAt(source, startingLine), kind)
	prog := p.ParseProgram()
	for _, d := range p.Diagnostics() {
		if d.Severity != diag.SeverityError {
			continue
		}
		return nil, &SyntaxError{
			SourceURL: sourceURL,
			Line:      d.Range.Line,
			Column:    d.Range.Col,
			Message:   d.Message,
			Code:      d.Code,
		}
	}
	return &Unit{Kind: kind, SourceURL: sourceURL, StartLine: startingLine, Program: prog}, nil
}

// Diagnostics parses source and returns every diagnostic, for tooling that
// wants more than the first error.
func Diagnostics(kind Kind, startingLine int, source string) []diag.Diagnostic {
	p := NewFor(lexer.NewAt(source, startingLine), kind)
	p.ParseProgram()
	return p.Diagnostics()
}
