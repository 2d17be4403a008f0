// Package jsstring holds immutable UTF-16 strings as exchanged across the
// embedding API.
package jsstring

import (
	"errors"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

// ErrOddLength is returned for UTF-16 byte buffers that end mid code unit.
var ErrOddLength = errors.New("jsstring: odd-length UTF-16 buffer")

// String is an immutable sequence of UTF-16 code units.
type String struct {
	units []uint16
}

// FromUTF16 copies units.
func FromUTF16(units []uint16) *String {
	return &String{units: append([]uint16(nil), units...)}
}

// FromString encodes a Go (UTF-8) string.
func FromString(s string) *String {
	return &String{units: utf16.Encode([]rune(s))}
}

// FromUTF16Bytes decodes a UTF-16 byte buffer. A byte order mark, when
// present, overrides bigEndian.
func FromUTF16Bytes(b []byte, bigEndian bool) (*String, error) {
	if len(b)%2 != 0 {
		return nil, ErrOddLength
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	if bigEndian {
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	text, err := dec.NewDecoder().Bytes(b)
	if err != nil {
		return nil, err
	}
	return FromString(string(text)), nil
}

// Len is the number of UTF-16 code units.
func (s *String) Len() int {
	if s == nil {
		return 0
	}
	return len(s.units)
}

// UTF16 returns a copy of the code units.
func (s *String) UTF16() []uint16 {
	if s == nil {
		return nil
	}
	return append([]uint16(nil), s.units...)
}

// String decodes to UTF-8; unpaired surrogates become U+FFFD.
func (s *String) String() string {
	if s == nil {
		return ""
	}
	return string(utf16.Decode(s.units))
}

// UTF16Bytes encodes the string without a byte order mark.
func (s *String) UTF16Bytes(bigEndian bool) ([]byte, error) {
	order := unicode.LittleEndian
	if bigEndian {
		order = unicode.BigEndian
	}
	return unicode.UTF16(order, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s.String()))
}

func (s *String) Equal(other *String) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if s.units[i] != other.units[i] {
			return false
		}
	}
	return true
}
