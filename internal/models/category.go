package models

import "strings"

// DataType governs how entity values of a category are validated,
// normalized and compared.
type DataType string

const (
	DataTypeText   DataType = "text"
	DataTypeDate   DataType = "date"
	DataTypeNumber DataType = "number"
)

// ValidDataTypes is the set of all valid data types.
var ValidDataTypes = []DataType{
	DataTypeText,
	DataTypeDate,
	DataTypeNumber,
}

// IsValid returns true if the data type is recognized.
func (dt DataType) IsValid() bool {
	for i := range ValidDataTypes {
		if dt == ValidDataTypes[i] {
			return true
		}
	}
	return false
}

// Category is one entry of the category catalogue. Categories are read-only
// for the duration of a workflow run.
type Category struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords"`
	DataType    DataType `json:"data_type" yaml:"data_type"`
}

// FindCategory returns the category whose name matches name
// case-insensitively, or nil.
func FindCategory(categories []Category, name string) *Category {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i]
		}
	}
	return nil
}

// DataTypesByID maps category IDs to their data types.
func DataTypesByID(categories []Category) map[string]DataType {
	out := make(map[string]DataType, len(categories))
	for i := range categories {
		out[categories[i].ID] = categories[i].DataType
	}
	return out
}
