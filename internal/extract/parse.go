package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ajitpratap0/openclaw-tagger/internal/models"
)

const (
	// ReasonNoJSON is the reasoning reported when no JSON could be recovered.
	ReasonNoJSON = "No JSON format found in AI response"

	// ReasonCallFailed is the reasoning reported when the model call failed.
	ReasonCallFailed = "Failed to parse response"

	// ReasonBareArray is the reasoning reported when the model returned a bare array.
	ReasonBareArray = "Entities extracted from response array"
)

var jsonFencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)\\n?```")

// EntityError explains why one element of the model's entity list was dropped.
type EntityError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (e EntityError) Error() string {
	return fmt.Sprintf("entity %d: %s", e.Index, e.Reason)
}

// Extraction is the writer's parsed output.
type Extraction struct {
	Entities  []models.CandidateEntity `json:"entities"`
	Reasoning string                   `json:"reasoning"`
	Rejected  []EntityError            `json:"rejected,omitempty"`
}

// ParseExtraction turns a raw model answer into an Extraction. It never
// fails: when no JSON can be recovered the result is empty with
// ReasonNoJSON as its reasoning.
func ParseExtraction(raw string) Extraction {
	doc, ok := locateJSON(raw)
	if !ok {
		return Extraction{Entities: []models.CandidateEntity{}, Reasoning: ReasonNoJSON}
	}

	elements, reasoning, err := decodePayload(doc)
	if err != nil {
		return Extraction{Entities: []models.CandidateEntity{}, Reasoning: ReasonNoJSON}
	}

	entities, rejected := parseEntities(elements)
	return Extraction{Entities: entities, Reasoning: reasoning, Rejected: rejected}
}

// locateJSON finds the JSON document in a model answer: first a fenced
// code block that parses, then the first top-level object or array in the
// text, repaired if needed.
func locateJSON(raw string) ([]byte, bool) {
	for _, m := range jsonFencePattern.FindAllStringSubmatch(raw, -1) {
		body := strings.TrimSpace(m[1])
		if json.Valid([]byte(body)) {
			return []byte(body), true
		}
	}

	span, ok := firstSpan(raw)
	if !ok {
		return nil, false
	}
	if json.Valid([]byte(span)) {
		return []byte(span), true
	}
	repaired := repairJSON(span)
	if json.Valid([]byte(repaired)) {
		return []byte(repaired), true
	}
	return nil, false
}

// firstSpan returns the text from the first '{' or '[' to its matching
// closer. An unterminated document runs to the end of the text.
func firstSpan(raw string) (string, bool) {
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return raw[start:], true
}

// repairJSON applies best-effort fixes for common model mistakes: an
// unterminated string is closed, a dangling comma is dropped, unclosed
// brackets are closed, and trailing commas before '}' or ']' are removed.
func repairJSON(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		out += string(stack[i])
	}
	return stripTrailingCommas(out)
}

// stripTrailingCommas removes commas that directly precede '}' or ']',
// ignoring anything inside string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

type envelope struct {
	Entities  []json.RawMessage `json:"entities"`
	Reasoning string            `json:"reasoning"`
}

// decodePayload accepts either a bare entity array or an object with an
// "entities" field and an optional "reasoning" field.
func decodePayload(doc []byte) ([]json.RawMessage, string, error) {
	trimmed := strings.TrimSpace(string(doc))
	if strings.HasPrefix(trimmed, "[") {
		var elements []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &elements); err != nil {
			return nil, "", err
		}
		return elements, ReasonBareArray, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, "", err
	}
	return env.Entities, env.Reasoning, nil
}

// rawEntity is the loosely typed element shape; every field is checked
// and coerced by toCandidate.
type rawEntity struct {
	Category   any `json:"category"`
	Value      any `json:"value"`
	Content    any `json:"content"`
	Confidence any `json:"confidence"`
}

func parseEntities(elements []json.RawMessage) ([]models.CandidateEntity, []EntityError) {
	entities := make([]models.CandidateEntity, 0, len(elements))
	var rejected []EntityError
	for i, el := range elements {
		e, err := toCandidate(el)
		if err != "" {
			rejected = append(rejected, EntityError{Index: i, Reason: err})
			continue
		}
		entities = append(entities, e)
	}
	return entities, rejected
}

func toCandidate(el json.RawMessage) (models.CandidateEntity, string) {
	var raw rawEntity
	if err := json.Unmarshal(el, &raw); err != nil {
		return models.CandidateEntity{}, "not an object"
	}

	category, ok := scalarString(raw.Category)
	if !ok || strings.TrimSpace(category) == "" {
		return models.CandidateEntity{}, "missing category"
	}
	value, ok := scalarString(raw.Value)
	if !ok || strings.TrimSpace(value) == "" {
		return models.CandidateEntity{}, "missing value"
	}
	content, _ := scalarString(raw.Content)

	return models.CandidateEntity{
		Category:   strings.TrimSpace(category),
		Value:      strings.TrimSpace(value),
		Content:    strings.TrimSpace(content),
		Confidence: confidence(raw.Confidence),
	}, ""
}

// scalarString coerces a JSON scalar to a string. Objects, arrays and null
// are not scalars.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func confidence(v any) float64 {
	switch x := v.(type) {
	case float64:
		return models.ClampConfidence(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return models.ClampConfidence(f)
		}
	}
	return models.DefaultConfidence
}
