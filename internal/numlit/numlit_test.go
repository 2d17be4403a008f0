package numlit

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		lit  string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"1_000", 1000},
		{"3.25", 3.25},
		{"1e3", 1000},
		{"2.5E-1", 0.25},
		{"0x1F", 31},
		{"0b101", 5},
		{"0o17", 15},
	}
	for _, tt := range tests {
		got, err := Parse(tt.lit)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.lit, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %v, want %v", tt.lit, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, lit := range []string{"1__0", "0x", "0b102", "1e", "1.", "_1"} {
		if _, err := Parse(lit); err == nil {
			t.Fatalf("Parse(%q) expected error", lit)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2, "2"},
		{-3.5, "-3.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789, "123456789"},
		{math.Inf(1), "Infinity"},
		{math.NaN(), "NaN"},
		{math.Copysign(0, -1), "0"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Fatalf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
