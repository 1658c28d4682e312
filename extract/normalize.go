package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxRoomCount bounds bedroom/bathroom counts. Anything above it is a
// parse artifact (a price or an area leaking into the count field), so
// it is rejected outright rather than clamped.
const MaxRoomCount = 20

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// PriceNumeric converts a raw price text ("£550,000", "£1,250,000.00")
// to its numeric value. Commas and currency symbols are stripped first,
// then everything that is not a digit or a decimal point. Idempotent on
// its own canonical output: PriceNumeric(format(PriceNumeric(x))) is
// stable.
func PriceNumeric(text string) (float64, bool) {
	s := strings.ReplaceAll(text, ",", "")
	s = nonPriceChars.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CountInRange parses a bare room count in [0, MaxRoomCount].
func CountInRange(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 || n > MaxRoomCount {
		return 0, false
	}
	return n, true
}

// ParseDate tries each layout in priority order; first success wins.
func ParseDate(text string, layouts []string) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
