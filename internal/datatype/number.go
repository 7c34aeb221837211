package datatype

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[-+]?\d+(?:[.,]\d+)?`)

func parseNumber(value string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(value))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func numberSimilarity(a, b string) float64 {
	x, okA := parseNumber(a)
	y, okB := parseNumber(b)
	if !okA || !okB {
		return textSimilarity(a, b)
	}
	if x == y {
		return 1.0
	}
	denom := math.Max(math.Abs(x), math.Abs(y))
	if denom == 0 {
		return 1.0
	}
	return math.Max(0, 1-math.Abs(x-y)/denom)
}
