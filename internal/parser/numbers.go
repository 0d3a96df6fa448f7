package parser

import (
	"math"
	"strconv"
	"strings"
)

// Numeric literal helpers for the Lua number syntax used in shapes files:
// decimal integers, decimals with optional exponent, and 0x hex integers.

// isHexLiteral reports whether s (without sign) is a 0x/0X literal.
func isHexLiteral(s string) bool {
	return len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// splitSign strips an optional leading '-' or '+'.
func splitSign(raw string) (neg bool, body string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false, s
	}
	switch s[0] {
	case '-':
		return true, s[1:]
	case '+':
		return false, s[1:]
	}
	return false, s
}

// parseNumber converts a numeric literal to a float rounded to bitSize
// (32 or 64) bits.
func parseNumber(raw string, bitSize int) (float64, bool) {
	neg, s := splitSign(raw)
	if s == "" {
		return 0, false
	}

	var val float64
	if isHexLiteral(s) {
		u, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		val = float64(u)
	} else {
		f, err := strconv.ParseFloat(s, bitSize)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		val = f
	}

	if neg {
		val = -val
	}
	return val, true
}

// parseInteger converts an integer literal (decimal or hex) to int64.
// Fractional literals are rejected.
func parseInteger(raw string) (int64, bool) {
	neg, s := splitSign(raw)
	if s == "" {
		return 0, false
	}

	var val int64
	var err error
	if isHexLiteral(s) {
		val, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		val, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}

	if neg {
		val = -val
	}
	return val, true
}

// parseColor converts a literal to a packed 32-bit color.
func parseColor(raw string) (uint32, bool) {
	neg, s := splitSign(raw)
	if neg || s == "" {
		return 0, false
	}
	if isHexLiteral(s) {
		u, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, false
		}
		return uint32(u), true
	}
	u, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(u), true
}

// parseUnsigned parses a non-negative decimal integer token, as used for
// shape ids and edge indices by the line scanner.
func parseUnsigned(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
