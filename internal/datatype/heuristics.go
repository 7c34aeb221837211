package datatype

// Heuristics holds the tunable keyword lists and patterns used by the
// normalizer. It is loaded from configuration so the lists can change
// without a rebuild.
type Heuristics struct {
	// DateKeywords mark a value as temporal even when it has no digits.
	DateKeywords []string `mapstructure:"date_keywords"`

	// NumberUnits are the unit suffixes accepted after a numeric value.
	NumberUnits []string `mapstructure:"number_units"`

	// LowQualityPatterns are regular expressions matched case-insensitively
	// against whole values; a match marks the value as noise.
	LowQualityPatterns []string `mapstructure:"low_quality_patterns"`
}

// DefaultHeuristics returns the built-in keyword lists and patterns.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		DateKeywords: []string{"century", "decade", "era", "period", "time"},
		NumberUnits:  []string{"kg", "km", "mb", "gb", "hz", "mhz", "ghz", "%", "percent"},
		LowQualityPatterns: []string{
			`^[\p{P}\p{S}\s]*$`,
			`^(unknown|n/a|none|null|undefined|other|misc)$`,
			`^(page|p\.|pp\.)\s*\d+$`,
			`^(chapter|section|глава)\s+[\divxlc]+$`,
			`^(the|a|an|and|of|in)$`,
		},
	}
}
