package lsp

import (
	"tern/internal/ast"
	"tern/internal/token"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ImportRef records where an imported local name comes from. Name is
// empty for namespace imports.
type ImportRef struct {
	Spec string
	Name string
}

// DocIndex lists the top-level declarations of a document.
type DocIndex struct {
	Defs    map[string]protocol.Location
	Exports map[string]protocol.Location
	Imports map[string]ImportRef
	Symbols []protocol.DocumentSymbol
}

func BuildIndex(uri, text string, prog *ast.Program) *DocIndex {
	ix := &DocIndex{
		Defs:    map[string]protocol.Location{},
		Exports: map[string]protocol.Location{},
		Imports: map[string]ImportRef{},
		Symbols: []protocol.DocumentSymbol{},
	}
	if prog == nil {
		return ix
	}
	lines := splitLines(text)

	nameRange := func(tok token.Token) protocol.Range {
		if tok.Line <= 0 || tok.Line > len(lines) {
			return protocol.Range{}
		}
		return rangeOf(lines[tok.Line-1], tok.Line, tok.Col, tok.Literal)
	}

	addSymbol := func(id *ast.Identifier, kind protocol.SymbolKind) {
		if id == nil {
			return
		}
		loc := protocol.Location{URI: protocol.DocumentUri(uri), Range: nameRange(id.Token)}
		if _, seen := ix.Defs[id.Value]; !seen {
			ix.Defs[id.Value] = loc
		}
		ix.Symbols = append(ix.Symbols, protocol.DocumentSymbol{
			Name:           id.Value,
			Kind:           kind,
			Range:          loc.Range,
			SelectionRange: loc.Range,
		})
	}

	var indexStatement func(ast.Statement, bool)
	indexStatement = func(st ast.Statement, exported bool) {
		switch n := st.(type) {
		case *ast.FunctionStatement:
			addSymbol(n.Fn.Name, protocol.SymbolKindFunction)
			if exported && n.Fn.Name != nil {
				ix.Exports[n.Fn.Name.Value] = ix.Defs[n.Fn.Name.Value]
			}
		case *ast.VarStatement:
			kind := protocol.SymbolKindVariable
			if n.Token.Type == token.CONST {
				kind = protocol.SymbolKindConstant
			}
			for _, d := range n.Declarations {
				addSymbol(d.Name, kind)
				if exported {
					ix.Exports[d.Name.Value] = ix.Defs[d.Name.Value]
				}
			}
		case *ast.ImportStatement:
			spec := n.Source.Value
			if n.Namespace != nil {
				ix.Imports[n.Namespace.Value] = ImportRef{Spec: spec}
				addSymbol(n.Namespace, protocol.SymbolKindNamespace)
			}
			for _, s := range n.Specifiers {
				ix.Imports[s.Local.Value] = ImportRef{Spec: spec, Name: s.Imported.Value}
				addSymbol(s.Local, protocol.SymbolKindVariable)
			}
		case *ast.ExportStatement:
			if n.Decl != nil {
				indexStatement(n.Decl, true)
				return
			}
			for _, s := range n.Specifiers {
				if loc, ok := ix.Defs[s.Local.Value]; ok {
					ix.Exports[s.Exported.Value] = loc
				}
			}
		}
	}

	for _, st := range prog.Statements {
		indexStatement(st, false)
	}
	return ix
}
