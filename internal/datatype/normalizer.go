// Package datatype validates, normalizes and compares entity values
// according to the data type declared by their category.
package datatype

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// Normalizer applies data-type rules to entity values. It is safe for
// concurrent use once constructed.
type Normalizer struct {
	dateKeywords *regexp.Regexp
	number       *regexp.Regexp
	lowQuality   []*regexp.Regexp
}

var defaultNormalizer = mustNew(DefaultHeuristics())

// Default returns a normalizer built from DefaultHeuristics.
func Default() *Normalizer {
	return defaultNormalizer
}

// NewNormalizer compiles the heuristics into a Normalizer. Empty lists fall
// back to the defaults.
func NewNormalizer(h Heuristics) (*Normalizer, error) {
	def := DefaultHeuristics()
	if len(h.DateKeywords) == 0 {
		h.DateKeywords = def.DateKeywords
	}
	if len(h.NumberUnits) == 0 {
		h.NumberUnits = def.NumberUnits
	}
	if len(h.LowQualityPatterns) == 0 {
		h.LowQualityPatterns = def.LowQualityPatterns
	}

	n := &Normalizer{}

	var err error
	n.dateKeywords, err = regexp.Compile(`(?i)\b(?:` + alternation(h.DateKeywords) + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compiling date keywords: %w", err)
	}

	n.number, err = regexp.Compile(`(?i)^[-+]?\d+(?:[.,]\d+)?\s*(?:` + alternation(h.NumberUnits) + `)?$`)
	if err != nil {
		return nil, fmt.Errorf("compiling number units: %w", err)
	}

	for _, p := range h.LowQualityPatterns {
		re, compileErr := regexp.Compile(`(?i)` + p)
		if compileErr != nil {
			return nil, fmt.Errorf("compiling low quality pattern %q: %w", p, compileErr)
		}
		n.lowQuality = append(n.lowQuality, re)
	}

	return n, nil
}

func mustNew(h Heuristics) *Normalizer {
	n, err := NewNormalizer(h)
	if err != nil {
		panic(err)
	}
	return n
}

// alternation quotes words and joins them longest first.
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

// IsValid reports whether value is acceptable for the data type. Unknown
// data types accept everything.
func (n *Normalizer) IsValid(value string, dt models.DataType) bool {
	value = strings.TrimSpace(value)
	switch dt {
	case models.DataTypeDate:
		return n.isValidDate(value)
	case models.DataTypeNumber:
		return n.number.MatchString(value)
	case models.DataTypeText:
		return isValidText(value)
	default:
		return true
	}
}

// Normalize returns the canonical form of value for the data type.
func (n *Normalizer) Normalize(value string, dt models.DataType) string {
	value = strings.TrimSpace(value)
	switch dt {
	case models.DataTypeDate:
		return normalizeDate(value)
	case models.DataTypeNumber:
		return strings.Join(strings.Fields(value), " ")
	case models.DataTypeText:
		return normalizeText(value)
	default:
		return value
	}
}

// Similarity scores how alike a and b are, in [0,1], using the rules of
// the data type. Unknown data types use text similarity.
func (n *Normalizer) Similarity(a, b string, dt models.DataType) float64 {
	switch dt {
	case models.DataTypeDate:
		return dateSimilarity(a, b)
	case models.DataTypeNumber:
		return numberSimilarity(a, b)
	default:
		return textSimilarity(a, b)
	}
}

// IsLowQuality reports whether value is noise: empty, or matching one of
// the configured low-quality patterns.
func (n *Normalizer) IsLowQuality(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	for _, re := range n.lowQuality {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
