package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

func TestDateIsValid(t *testing.T) {
	n := Default()
	valid := []string{"1980", "1000", "2100", "1970-1979", "1970–1979", "1970 - 1979", "1970s", "12/05/1998", "the Victorian era", "early 19th century"}
	for _, v := range valid {
		assert.True(t, n.IsValid(v, models.DataTypeDate), "expected %q to be a valid date", v)
	}

	invalid := []string{"0999", "2101", "banana", "", "19800", "Camera", "Federation", "Operation Overlord", "Sometimes"}
	for _, v := range invalid {
		assert.False(t, n.IsValid(v, models.DataTypeDate), "expected %q to be an invalid date", v)
	}
}

func TestDateNormalize(t *testing.T) {
	n := Default()
	assert.Equal(t, "1970–1979", n.Normalize("1970-1979", models.DataTypeDate))
	assert.Equal(t, "1970–1979", n.Normalize(" 1970 - 1979 ", models.DataTypeDate))
	assert.Equal(t, "1970s", n.Normalize("1970s", models.DataTypeDate))
	assert.Equal(t, "1980", n.Normalize("1980", models.DataTypeDate))
}

func TestDateSimilarity(t *testing.T) {
	n := Default()

	assert.Equal(t, 1.0, n.Similarity("1980", "1980", models.DataTypeDate))
	assert.Equal(t, 0.0, n.Similarity("1980", "1981", models.DataTypeDate))
	assert.InDelta(t, 0.85, n.Similarity("1970-1979", "1975", models.DataTypeDate), 1e-9)
	assert.InDelta(t, 0.85, n.Similarity("1975", "1970-1979", models.DataTypeDate), 1e-9)

	partial := n.Similarity("1970-1979", "1975-1984", models.DataTypeDate)
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
	assert.InDelta(t, 0.4, partial, 1e-9)

	assert.Equal(t, 0.9, n.Similarity("1970-1979", "1972-1978", models.DataTypeDate))
	assert.Equal(t, 1.0, n.Similarity("1970–1979", "1970-1979", models.DataTypeDate))
	assert.InDelta(t, 0.85, n.Similarity("1980", "1980s", models.DataTypeDate), 1e-9)
	assert.Equal(t, 0.0, n.Similarity("1970s", "1980", models.DataTypeDate))
	assert.Equal(t, 0.0, n.Similarity("1900-1910", "1950-1960", models.DataTypeDate))
}

func TestDateSimilarity_FallsBackToText(t *testing.T) {
	n := Default()
	assert.Equal(t, 0.8, n.Similarity("the 19th century", "19th century", models.DataTypeDate))
	assert.Equal(t, 1.0, n.Similarity("Victorian era", "victorian era", models.DataTypeDate))
}

func TestSpanWidth(t *testing.T) {
	w, ok := SpanWidth("1980")
	require.True(t, ok)
	assert.Equal(t, 1, w)

	w, ok = SpanWidth("1970s")
	require.True(t, ok)
	assert.Equal(t, 10, w)

	w, ok = SpanWidth("1900–1999")
	require.True(t, ok)
	assert.Equal(t, 100, w)

	_, ok = SpanWidth("long ago")
	assert.False(t, ok)
}

func TestNumberIsValid(t *testing.T) {
	n := Default()
	for _, v := range []string{"42", "3.14", "-7", "5 kg", "12%", "100 percent", "1.5GHz", "2,5 km"} {
		assert.True(t, n.IsValid(v, models.DataTypeNumber), "expected %q to be a valid number", v)
	}
	for _, v := range []string{"abc", "5 apples", "", "kg"} {
		assert.False(t, n.IsValid(v, models.DataTypeNumber), "expected %q to be an invalid number", v)
	}
}

func TestNumberSimilarity(t *testing.T) {
	n := Default()
	assert.Equal(t, 1.0, n.Similarity("100", "100", models.DataTypeNumber))
	assert.Equal(t, 1.0, n.Similarity("0", "0.0", models.DataTypeNumber))
	assert.InDelta(t, 0.5, n.Similarity("100", "50", models.DataTypeNumber), 1e-9)
	assert.Equal(t, 0.0, n.Similarity("100", "-100", models.DataTypeNumber))
	assert.Equal(t, 1.0, n.Similarity("10 kg", "10kg", models.DataTypeNumber))
	assert.InDelta(t, 0.9, n.Similarity("100", "90", models.DataTypeNumber), 1e-9)
}

func TestTextIsValid(t *testing.T) {
	n := Default()
	for _, v := range []string{"Microsoft", "New York", "Москва", "R2"} {
		assert.True(t, n.IsValid(v, models.DataTypeText), "expected %q to be valid text", v)
	}
	for _, v := range []string{"42", "3.5", "1970-1979", "1970s", "A", "日本", "", "!!"} {
		assert.False(t, n.IsValid(v, models.DataTypeText), "expected %q to be invalid text", v)
	}
}

func TestTextNormalize(t *testing.T) {
	n := Default()
	assert.Equal(t, "Foo", n.Normalize("Foo (bar)", models.DataTypeText))
	assert.Equal(t, "New York", n.Normalize("  New   York  ", models.DataTypeText))
	assert.Equal(t, "(bar)", n.Normalize("(bar)", models.DataTypeText))
	// Decomposed "e" + combining acute is composed.
	assert.Equal(t, "Caf\u00e9", n.Normalize("Cafe\u0301", models.DataTypeText))
}

func TestTextSimilarity(t *testing.T) {
	n := Default()
	assert.Equal(t, 1.0, n.Similarity("MICROSOFT", "microsoft", models.DataTypeText))
	assert.Equal(t, 0.8, n.Similarity("Microsoft Corp", "Microsoft", models.DataTypeText))
	assert.Equal(t, 0.4, n.Similarity("Microsoft Corporation International", "Microsoft", models.DataTypeText))
	assert.Equal(t, 0.0, n.Similarity("Apple", "Microsoft", models.DataTypeText))
	assert.Equal(t, 1.0, n.Similarity("John Ronald Tolkien", "Tolkien John", models.DataTypeText))
	assert.InDelta(t, 0.5, n.Similarity("John Smith", "John Doe", models.DataTypeText), 1e-9)
	assert.Equal(t, 0.0, n.Similarity("", "anything", models.DataTypeText))
	assert.Equal(t, 0.0, n.Similarity("of to", "an by", models.DataTypeText))
}

func TestUnknownDataType(t *testing.T) {
	n := Default()
	dt := models.DataType("color")
	assert.True(t, n.IsValid("", dt))
	assert.True(t, n.IsValid("42", dt))
	assert.Equal(t, "blue (ish)", n.Normalize("  blue (ish) ", dt))
	assert.Equal(t, 1.0, n.Similarity("Blue", "blue", dt))
}

func TestIsLowQuality(t *testing.T) {
	n := Default()
	for _, v := range []string{"", "  ", "---", "Unknown", "N/A", "page 12", "Chapter IV", "the"} {
		assert.True(t, n.IsLowQuality(v), "expected %q to be low quality", v)
	}
	for _, v := range []string{"Microsoft", "1980", "Chapter House", "5 kg"} {
		assert.False(t, n.IsLowQuality(v), "expected %q not to be low quality", v)
	}
}

func TestNewNormalizer_CustomHeuristics(t *testing.T) {
	n, err := NewNormalizer(Heuristics{
		DateKeywords:       []string{"epoch"},
		NumberUnits:        []string{"lbs"},
		LowQualityPatterns: []string{`^tbd$`},
	})
	require.NoError(t, err)

	assert.True(t, n.IsValid("the Meiji epoch", models.DataTypeDate))
	assert.False(t, n.IsValid("the Victorian era", models.DataTypeDate))
	assert.True(t, n.IsValid("12 lbs", models.DataTypeNumber))
	assert.False(t, n.IsValid("12 kg", models.DataTypeNumber))
	assert.True(t, n.IsLowQuality("TBD"))
	assert.False(t, n.IsLowQuality("Unknown"))
}

func TestNewNormalizer_BadPattern(t *testing.T) {
	_, err := NewNormalizer(Heuristics{LowQualityPatterns: []string{`([`}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low quality pattern")
}
