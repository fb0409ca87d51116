package planner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"macro-meal-planner/internal/mealplan"
)

// The model is asked for pure JSON but routinely wraps it in prose or
// markdown fences. Extraction is an ordered chain of strategies tried until
// one yields a payload that unmarshals; all failures aggregate into a single
// ParseError. This is the one place where model unreliability is absorbed.

type extractStrategy struct {
	name    string
	extract func(string) (string, bool)
}

var extractStrategies = []extractStrategy{
	{"fenced-block", extractFencedBlock},
	{"brace-match", extractBraceMatch},
	{"raw", extractRaw},
}

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// extractFencedBlock pulls the first object out of a markdown code fence.
func extractFencedBlock(raw string) (string, bool) {
	m := fencedBlockRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractBraceMatch finds the first top-level object literal by greedy brace
// matching, skipping braces inside string literals.
func extractBraceMatch(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// extractRaw accepts the whole reply when it is already a bare object.
func extractRaw(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}
	return "", false
}

// sanitizeJSON strips trailing commas, the most common malformation in model
// output that encoding/json rejects.
func sanitizeJSON(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

type mealsEnvelope struct {
	Meals []mealplan.Meal `json:"meals"`
}

// ParseMealsResponse extracts and decodes the meals payload from a raw model
// reply. Pure function of its input.
func ParseMealsResponse(raw string) ([]mealplan.Meal, error) {
	var failures []string

	for _, s := range extractStrategies {
		candidate, ok := s.extract(raw)
		if !ok {
			failures = append(failures, fmt.Sprintf("%s: no candidate", s.name))
			continue
		}

		var envelope mealsEnvelope
		if err := json.Unmarshal([]byte(sanitizeJSON(candidate)), &envelope); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
			continue
		}
		if envelope.Meals == nil {
			failures = append(failures, fmt.Sprintf("%s: object has no meals array", s.name))
			continue
		}
		return envelope.Meals, nil
	}

	return nil, &ParseError{Msg: strings.Join(failures, "; ")}
}
