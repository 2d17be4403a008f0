package lsp

import (
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// byteColToUTF16 converts a 1-based byte column into a 0-based UTF-16
// character offset.
func byteColToUTF16(lineText string, byteCol int) uint32 {
	if byteCol <= 1 {
		return 0
	}
	limit := min(byteCol-1, len(lineText))
	var count uint32
	for _, r := range lineText[:limit] {
		count += uint32(runeUnits(r))
	}
	return count
}

// utf16ColToByte converts a 0-based UTF-16 offset into a 1-based byte
// column.
func utf16ColToByte(lineText string, utf16Col int) int {
	if utf16Col <= 0 {
		return 1
	}
	count := 0
	for idx, r := range lineText {
		n := runeUnits(r)
		if count+n > utf16Col {
			return idx + 1
		}
		count += n
	}
	return len(lineText) + 1
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func utf16Len(s string) int {
	count := 0
	for _, r := range s {
		count += runeUnits(r)
	}
	return count
}

func rangeOf(lineText string, line, col int, literal string) protocol.Range {
	start := protocol.Position{Line: uint32(line - 1), Character: byteColToUTF16(lineText, col)}
	end := protocol.Position{Line: start.Line, Character: start.Character + uint32(max(1, utf16Len(literal)))}
	return protocol.Range{Start: start, End: end}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// WordAt returns the identifier under pos, if any.
func WordAt(text string, pos protocol.Position) (string, bool) {
	lines := splitLines(text)
	if int(pos.Line) >= len(lines) {
		return "", false
	}
	line := lines[pos.Line]
	i := utf16ColToByte(line, int(pos.Character)) - 1
	if i >= len(line) || !isIdentByte(line[i]) {
		if i > 0 && i <= len(line) && isIdentByte(line[i-1]) {
			i--
		} else {
			return "", false
		}
	}
	start, end := i, i
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}
	word := line[start:end]
	if word == "" || word[0] >= '0' && word[0] <= '9' {
		return "", false
	}
	return word, true
}
