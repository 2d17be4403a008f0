package numlit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a numeric literal as produced by the lexer into its
// float64 value. Decimal literals may carry a fraction and an exponent;
// 0x, 0o and 0b prefixes select integer bases. Underscores may separate
// digits anywhere a digit is allowed on both sides.
func Parse(lit string) (float64, error) {
	if len(lit) >= 2 && lit[0] == '0' {
		base := 0
		switch lit[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 0 {
			return parseBased(lit[2:], base)
		}
	}
	return parseDecimal(lit)
}

func parseBased(digits string, base int) (float64, error) {
	if err := validateDigits(digits, base); err != nil {
		return 0, fmt.Errorf("invalid number literal: %w", err)
	}
	v, err := strconv.ParseUint(stripUnderscores(digits), base, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("number literal out of range")
		}
		return 0, fmt.Errorf("invalid number literal")
	}
	return float64(v), nil
}

func parseDecimal(lit string) (float64, error) {
	mantissa := lit
	expNorm := ""
	if idx := strings.IndexAny(lit, "eE"); idx >= 0 {
		mantissa = lit[:idx]
		expPart := lit[idx+1:]
		sign := ""
		if expPart != "" && (expPart[0] == '+' || expPart[0] == '-') {
			sign = expPart[:1]
			expPart = expPart[1:]
		}
		if expPart == "" {
			return 0, fmt.Errorf("exponent requires digits")
		}
		if err := validateDigits(expPart, 10); err != nil {
			return 0, fmt.Errorf("invalid number literal: %w", err)
		}
		expNorm = "e" + sign + stripUnderscores(expPart)
	}

	mantissaNorm, err := normalizeMantissa(mantissa)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(mantissaNorm+expNorm, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("number literal out of range")
		}
		return 0, fmt.Errorf("invalid number literal")
	}
	return v, nil
}

func normalizeMantissa(mantissa string) (string, error) {
	if mantissa == "" {
		return "", fmt.Errorf("number literal requires digits")
	}
	whole, frac, hasDot := strings.Cut(mantissa, ".")
	if !hasDot {
		if err := validateDigits(whole, 10); err != nil {
			return "", fmt.Errorf("invalid number literal: %w", err)
		}
		return stripUnderscores(whole), nil
	}
	if whole == "" || frac == "" {
		return "", fmt.Errorf("number literal requires digits on both sides of decimal point")
	}
	if err := validateDigits(whole, 10); err != nil {
		return "", fmt.Errorf("invalid number literal: %w", err)
	}
	if err := validateDigits(frac, 10); err != nil {
		return "", fmt.Errorf("invalid number literal: %w", err)
	}
	return stripUnderscores(whole) + "." + stripUnderscores(frac), nil
}

func validateDigits(s string, base int) error {
	if s == "" {
		return fmt.Errorf("digits required")
	}
	prevUnderscore := false
	seenDigit := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '_' {
			if !seenDigit || prevUnderscore {
				return fmt.Errorf("underscores must separate digits")
			}
			prevUnderscore = true
			continue
		}
		if !isDigitForBase(ch, base) {
			return fmt.Errorf("invalid digit %q for base %d", ch, base)
		}
		seenDigit = true
		prevUnderscore = false
	}
	if prevUnderscore {
		return fmt.Errorf("underscores must separate digits")
	}
	return nil
}

func isDigitForBase(ch byte, base int) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch-'0') < base
	case base == 16 && ch >= 'a' && ch <= 'f':
		return true
	case base == 16 && ch >= 'A' && ch <= 'F':
		return true
	default:
		return false
	}
}

func stripUnderscores(s string) string {
	if strings.IndexByte(s, '_') == -1 {
		return s
	}
	return strings.ReplaceAll(s, "_", "")
}
