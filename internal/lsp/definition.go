package lsp

import (
	"os"

	"tern/internal/module"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Definition finds the declaration of the name under pos. Imported names
// are followed into the imported file when res can resolve it.
func Definition(a *Analysis, pos protocol.Position, res *module.Resolver) []protocol.Location {
	name, ok := WordAt(a.Text, pos)
	if !ok {
		return nil
	}
	if ref, ok := a.Index.Imports[name]; ok && res != nil {
		if loc, ok := importedDefinition(a.URI, ref, res); ok {
			return []protocol.Location{loc}
		}
	}
	if loc, ok := a.Index.Defs[name]; ok {
		return []protocol.Location{loc}
	}
	return nil
}

func importedDefinition(uri string, ref ImportRef, res *module.Resolver) (protocol.Location, bool) {
	from := UriToPath(uri)
	if from == "" {
		return protocol.Location{}, false
	}
	path, err := res.Resolve(from, ref.Spec)
	if err != nil {
		return protocol.Location{}, false
	}
	target := PathToURI(path)
	if ref.Name == "" {
		return protocol.Location{URI: protocol.DocumentUri(target)}, true
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return protocol.Location{}, false
	}
	loc, ok := Analyze(target, string(src)).Index.Exports[ref.Name]
	return loc, ok
}
