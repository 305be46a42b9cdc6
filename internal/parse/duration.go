// Package parse converts the textual session fields into numbers.
package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration converts a duration such as "2h 45m 41s" to fractional hours.
// Tokens with an unknown unit or an unreadable number are ignored, so
// malformed input yields 0 rather than an error.
func Duration(s string) float64 {
	var hours, minutes, seconds float64
	for _, tok := range strings.Fields(s) {
		if len(tok) < 2 {
			continue
		}
		unit, num := tok[len(tok)-1], tok[:len(tok)-1]
		if !isDecimal(num) {
			continue
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		switch unit {
		case 'h':
			hours = v
		case 'm':
			minutes = v
		case 's':
			seconds = v
		}
	}
	return hours + minutes/60 + seconds/3600
}

// isDecimal reports whether s is a plain non-negative decimal such as "12"
// or "1.5". ParseFloat alone would also accept NaN, Inf and hex floats.
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// FormatHours renders fractional hours as "3h 07m".
func FormatHours(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	totalMinutes := int(hours * 60)
	return fmt.Sprintf("%dh %02dm", totalMinutes/60, totalMinutes%60)
}
