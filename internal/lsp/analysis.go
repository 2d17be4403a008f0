// Package lsp turns tern sources into language server answers:
// diagnostics, document symbols and definitions of top-level names.
package lsp

import (
	"strings"

	"tern/internal/ast"
	"tern/internal/diag"
	"tern/internal/lexer"
	"tern/internal/lint"
	"tern/internal/parser"
)

// Analysis is everything the server knows about one document version.
type Analysis struct {
	URI         string
	Text        string
	Kind        parser.Kind
	Program     *ast.Program
	Diagnostics []diag.Diagnostic
	Index       *DocIndex
}

// Analyze parses text as a script, or as a module when it uses module
// syntax. Lint warnings are added when the text parses cleanly.
func Analyze(uri, text string) *Analysis {
	kind := parser.ProgramKind
	prog, diags := parse(kind, text)
	if needsModule(diags) {
		kind = parser.ModuleKind
		prog, diags = parse(kind, text)
	}
	if prog != nil && !diag.HasErrors(diags) {
		diags = append(diags, lint.Run(prog)...)
	}
	return &Analysis{
		URI:         uri,
		Text:        text,
		Kind:        kind,
		Program:     prog,
		Diagnostics: diags,
		Index:       BuildIndex(uri, text, prog),
	}
}

func parse(kind parser.Kind, text string) (*ast.Program, []diag.Diagnostic) {
	p := parser.NewFor(lexer.NewAt(text, 1), kind)
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

func needsModule(ds []diag.Diagnostic) bool {
	for _, d := range ds {
		if d.Code == diag.CodeModuleSyntax && strings.Contains(d.Message, "only appear in modules") {
			return true
		}
	}
	return false
}
