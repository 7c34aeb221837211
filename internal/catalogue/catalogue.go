// Package catalogue loads the tag category definitions that drive
// extraction and merging.
package catalogue

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/openclaw-tagger/internal/classifier"
	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

// ErrDuplicateCategory is returned when two categories share a name.
var ErrDuplicateCategory = errors.New("duplicate category")

// categoryNamespace seeds derived category IDs so a category keeps its ID
// (and therefore its tag scope) across loads.
var categoryNamespace = uuid.MustParse("6f1d8a52-3c8e-4b5e-9a7e-2f4c1b0d9e11")

type file struct {
	Categories []models.Category `yaml:"categories"`
}

// Load reads a catalogue file. See Parse.
func Load(path string, cls classifier.Classifier) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cats, err := Parse(data, cls)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cats, nil
}

// Parse decodes and validates a YAML catalogue. Categories without an ID
// get one derived from their name; categories without a data type get
// one from cls, or text when cls is nil.
func Parse(data []byte, cls classifier.Classifier) ([]models.Category, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalogue: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, errors.New("catalogue has no categories")
	}

	seenNames := make(map[string]struct{}, len(f.Categories))
	seenIDs := make(map[string]struct{}, len(f.Categories))
	out := make([]models.Category, 0, len(f.Categories))
	for i, c := range f.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("category %d: name is required", i)
		}
		key := strings.ToLower(c.Name)
		if _, dup := seenNames[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, c.Name)
		}
		seenNames[key] = struct{}{}

		if c.ID == "" {
			c.ID = uuid.NewSHA1(categoryNamespace, []byte(key)).String()
		}
		if _, dup := seenIDs[c.ID]; dup {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateCategory, c.ID)
		}
		seenIDs[c.ID] = struct{}{}

		switch {
		case c.DataType.IsValid():
		case c.DataType != "":
			return nil, fmt.Errorf("category %q: unknown data type %q", c.Name, c.DataType)
		case cls != nil:
			c.DataType = cls.Classify(c)
		default:
			c.DataType = models.DataTypeText
		}
		out = append(out, c)
	}
	return out, nil
}
