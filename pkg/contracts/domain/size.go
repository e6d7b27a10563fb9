package domain

import (
	"strconv"
	"strings"
)

// DefaultSizeValue is assigned to size tokens that are neither numeric nor a known letter size.
const DefaultSizeValue int64 = 38

// SizeTokenValues maps lower-cased letter sizes onto the numeric scale.
var SizeTokenValues = map[string]int64{
	"xxxl": 115,
	"xxl":  84,
	"xl":   48,
	"l":    39,
	"m":    31,
	"s":    22,
	"xs":   10,
}

// TrimSize normalizes a raw size label: it is upper-cased and every '+' is
// removed. A label of exactly four digits is read as waist and inseam, so
// "3432" keeps only the waist "34".
func TrimSize(raw string) string {
	s := strings.ReplaceAll(strings.ToUpper(raw), "+", "")
	if len(s) == 4 && isDigits(s) {
		s = s[:2]
	}
	return s
}

// MapSize converts a trimmed size label to its numeric value.
func MapSize(token string) int64 {
	if isDigits(token) {
		if v, err := strconv.ParseInt(token, 10, 64); err == nil {
			return v
		}
		return DefaultSizeValue
	}
	if v, ok := SizeTokenValues[strings.ToLower(token)]; ok {
		return v
	}
	return DefaultSizeValue
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
