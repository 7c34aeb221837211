package datatype

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	pureNumberPattern    = regexp.MustCompile(`^[-+]?\d+(?:[.,]\d+)?$`)
	trailingParenPattern = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
)

func isValidText(value string) bool {
	if pureNumberPattern.MatchString(value) || yearRangePattern.MatchString(value) || decadePattern.MatchString(value) {
		return false
	}
	if utf8.RuneCountInString(value) < 2 {
		return false
	}
	for _, r := range value {
		if unicode.IsLetter(r) && (unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Cyrillic, r)) {
			return true
		}
	}
	return false
}

func normalizeText(value string) string {
	if stripped := trailingParenPattern.ReplaceAllString(value, ""); strings.TrimSpace(stripped) != "" {
		value = stripped
	}
	value = norm.NFC.String(value)
	return strings.Join(strings.Fields(value), " ")
}

func textSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	shorter, longer := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		if float64(utf8.RuneCountInString(shorter))/float64(utf8.RuneCountInString(longer)) > 0.6 {
			return 0.8
		}
		return 0.4
	}
	return tokenOverlap(a, b)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(s) {
		if utf8.RuneCountInString(f) > 2 {
			set[f] = struct{}{}
		}
	}
	return set
}

func tokenOverlap(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}
	return float64(common) / float64(min(len(ta), len(tb)))
}
