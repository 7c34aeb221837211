// Package classifier infers the data type of a tag category from its
// name, description and keywords when the catalogue does not declare one.
package classifier

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// Classifier determines the data type of a category.
type Classifier interface {
	Classify(c models.Category) models.DataType
}

// HeuristicClassifier uses keyword-based rules for classification.
type HeuristicClassifier struct {
	logger *slog.Logger
}

// NewClassifier creates a new heuristic-based classifier.
func NewClassifier(logger *slog.Logger) *HeuristicClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicClassifier{logger: logger}
}

// datePatterns match categories whose values are years, ranges or decades.
var datePatterns = []string{
	"date", "year", "decade", "century", "era", "period",
	"when", "founded", "born", "died", "timeline", "epoch",
	"год", "дата", "век", "период",
}

// numberPatterns match categories whose values are quantities.
var numberPatterns = []string{
	"number", "count", "amount", "quantity", "price", "cost",
	"population", "weight", "height", "length", "distance",
	"size", "speed", "capacity", "percent", "measurement",
	"число", "количество", "цена",
}

// Classify determines the data type of c. Text is the fallback when
// nothing scores.
func (h *HeuristicClassifier) Classify(c models.Category) models.DataType {
	if c.DataType.IsValid() {
		return c.DataType
	}

	words := wordSet(c.Name + " " + c.Description + " " + strings.Join(c.Keywords, " "))

	dateScore := score(words, datePatterns)
	numberScore := score(words, numberPatterns)

	best := models.DataTypeText
	bestScore := 0
	if dateScore > bestScore {
		best, bestScore = models.DataTypeDate, dateScore
	}
	if numberScore > bestScore {
		best, bestScore = models.DataTypeNumber, numberScore
	}

	h.logger.Debug("classified category", "category", c.Name, "data_type", best, "score", bestScore)
	return best
}

// score counts patterns present as a whole word, singular or plural.
func score(words map[string]struct{}, patterns []string) int {
	n := 0
	for _, p := range patterns {
		_, one := words[p]
		_, many := words[p+"s"]
		if one || many {
			n++
		}
	}
	return n
}

func wordSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
