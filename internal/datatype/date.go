package datatype

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
	yearRangePattern = regexp.MustCompile(`^(\d{4})\s*[-–]\s*(\d{4})$`)
	decadePattern    = regexp.MustCompile(`(?i)^(\d{4})s$`)
	shortDatePattern = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}[./-]\d{2,4}$`)
)

const (
	minYear = 1000
	maxYear = 2100
)

func (n *Normalizer) isValidDate(value string) bool {
	if yearPattern.MatchString(value) {
		y, _ := strconv.Atoi(value)
		return y >= minYear && y <= maxYear
	}
	if yearRangePattern.MatchString(value) || decadePattern.MatchString(value) || shortDatePattern.MatchString(value) {
		return true
	}
	return n.dateKeywords.MatchString(value)
}

func normalizeDate(value string) string {
	if m := yearRangePattern.FindStringSubmatch(value); m != nil {
		return m[1] + "–" + m[2]
	}
	return value
}

// yearSpan is a closed interval of years.
type yearSpan struct {
	start, end int
	single     bool
}

func (s yearSpan) width() int {
	return s.end - s.start + 1
}

func (s yearSpan) contains(o yearSpan) bool {
	return s.start <= o.start && o.end <= s.end
}

func parseYearSpan(value string) (yearSpan, bool) {
	value = strings.TrimSpace(value)
	if yearPattern.MatchString(value) {
		y, _ := strconv.Atoi(value)
		return yearSpan{start: y, end: y, single: true}, true
	}
	if m := decadePattern.FindStringSubmatch(value); m != nil {
		y, _ := strconv.Atoi(m[1])
		return yearSpan{start: y, end: y + 9}, true
	}
	if m := yearRangePattern.FindStringSubmatch(value); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if a > b {
			a, b = b, a
		}
		return yearSpan{start: a, end: b}, true
	}
	return yearSpan{}, false
}

// SpanWidth returns the number of years a date value covers: 1 for a single
// year, 10 for a decade, the inclusive length for a range.
func SpanWidth(value string) (int, bool) {
	s, ok := parseYearSpan(value)
	if !ok {
		return 0, false
	}
	return s.width(), true
}

func dateSimilarity(a, b string) float64 {
	if normalizeDate(strings.TrimSpace(a)) == normalizeDate(strings.TrimSpace(b)) && strings.TrimSpace(a) != "" {
		return 1.0
	}

	sa, okA := parseYearSpan(a)
	sb, okB := parseYearSpan(b)
	if !okA || !okB {
		return textSimilarity(a, b)
	}

	// Distinct single years never merge.
	if sa.single && sb.single {
		if sa.start == sb.start {
			return 1.0
		}
		return 0.0
	}

	overlap := min(sa.end, sb.end) - max(sa.start, sb.start)
	if overlap > 0 {
		ratio := float64(overlap) / float64(max(sa.width(), sb.width()))
		if ratio >= 0.5 {
			return 0.9
		}
		return ratio
	}

	if sa.contains(sb) || sb.contains(sa) {
		return 0.85
	}
	return 0.0
}
