package lsp

import (
	"tern/internal/diag"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const source = "tern"

// ToLspDiagnostics converts parser diagnostics, whose columns count
// bytes, into LSP diagnostics over text, whose columns count UTF-16 code
// units.
func ToLspDiagnostics(text string, ds []diag.Diagnostic) []protocol.Diagnostic {
	lines := splitLines(text)
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		rng := diagnosticRange(lines, d.Range)

		severity := protocol.DiagnosticSeverityError
		switch d.Severity {
		case diag.SeverityWarning:
			severity = protocol.DiagnosticSeverityWarning
		case diag.SeverityInfo:
			severity = protocol.DiagnosticSeverityInformation
		}

		pd := protocol.Diagnostic{
			Range:    rng,
			Severity: &severity,
			Source:   ptrString(source),
			Message:  d.Message,
		}
		if d.Code != "" {
			code := protocol.IntegerOrString{Value: d.Code}
			pd.Code = &code
		}
		out = append(out, pd)
	}
	return out
}

func diagnosticRange(lines []string, r diag.Range) protocol.Range {
	if r.Line <= 0 || r.Line > len(lines) {
		start := protocol.Position{}
		if r.Line > 0 {
			start.Line = uint32(r.Line - 1)
		}
		return protocol.Range{Start: start, End: protocol.Position{Line: start.Line, Character: 1}}
	}
	text := lines[r.Line-1]
	startCol := byteColToUTF16(text, r.Col)
	length := max(r.Length, 1)
	endCol := byteColToUTF16(text, r.Col+length)
	if endCol <= startCol {
		endCol = startCol + 1
	}
	line := uint32(r.Line - 1)
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: startCol},
		End:   protocol.Position{Line: line, Character: endCol},
	}
}

func ptrString(s string) *string { return &s }
