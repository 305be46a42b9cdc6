package parse

import (
	"strconv"
	"strings"
)

// DefaultBigBlind is used whenever a stakes string cannot be read.
const DefaultBigBlind = 1.0

// BigBlind extracts the big blind from stakes such as "1 SC / 2 SC".
// The result is always strictly positive.
func BigBlind(stakes string) float64 {
	parts := strings.Split(stakes, "/")
	if len(parts) < 2 {
		return DefaultBigBlind
	}
	var b strings.Builder
	for _, r := range parts[1] {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return DefaultBigBlind
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || v <= 0 {
		return DefaultBigBlind
	}
	return v
}
