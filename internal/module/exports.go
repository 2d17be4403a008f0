package module

import (
	"fmt"

	"tern/internal/ast"
	"tern/internal/token"
)

// Export maps a name visible to importers onto the module scope binding
// that backs it.
type Export struct {
	Exported string
	Local    string
	Token    token.Token
}

// CollectExports lists the exports of program in declaration order. A
// name exported twice is an error carrying both locations.
func CollectExports(program *ast.Program, file string) ([]Export, error) {
	if program == nil {
		return nil, nil
	}
	var out []Export
	seen := map[string]token.Token{}
	for _, stmt := range program.Statements {
		exp, ok := stmt.(*ast.ExportStatement)
		if !ok {
			continue
		}
		for _, spec := range exp.ExportedNames() {
			name, tok := spec.Exported.Value, spec.Exported.Token
			if prev, exists := seen[name]; exists {
				return nil, fmt.Errorf(
					"duplicate export %q at %s:%d:%d (previous at %s:%d:%d)",
					name,
					file, tok.Line, tok.Col,
					file, prev.Line, prev.Col,
				)
			}
			seen[name] = tok
			out = append(out, Export{Exported: name, Local: spec.Local.Value, Token: tok})
		}
	}
	return out, nil
}

// ImportSpecifiers lists the distinct module specifiers program imports,
// in source order.
func ImportSpecifiers(program *ast.Program) []string {
	if program == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, stmt := range program.Statements {
		imp, ok := stmt.(*ast.ImportStatement)
		if !ok || seen[imp.Source.Value] {
			continue
		}
		seen[imp.Source.Value] = true
		out = append(out, imp.Source.Value)
	}
	return out
}

// Imports returns the import statements of program.
func Imports(program *ast.Program) []*ast.ImportStatement {
	if program == nil {
		return nil
	}
	var out []*ast.ImportStatement
	for _, stmt := range program.Statements {
		if imp, ok := stmt.(*ast.ImportStatement); ok {
			out = append(out, imp)
		}
	}
	return out
}
